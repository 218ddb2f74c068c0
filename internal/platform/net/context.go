// Package net provides utilities for working with request contexts
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// ctxKey is an unexported key type for context values
type ctxKey string

const keyScopeID ctxKey = "scope_id"

// WithRequest annotates context with common request scoped ids
func WithRequest(ctx context.Context, reqID, scopeID string) context.Context {
	if reqID != "" {
		// set chi RequestID so chimw.GetReqID can retrieve it
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if scopeID != "" {
		ctx = context.WithValue(ctx, keyScopeID, scopeID)
	}
	return ctx
}

// RequestID returns the request id on the context if present
func RequestID(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}

// ScopeID returns the scope id on the context if present
func ScopeID(ctx context.Context) string {
	if v, ok := ctx.Value(keyScopeID).(string); ok {
		return v
	}
	return ""
}
