package domain

import "context"

// StorePort persists the settings document
type StorePort interface {
	Load(ctx context.Context) (Settings, bool, error)
	Save(ctx context.Context, s Settings) error
}

// ReaderPort exposes the current snapshot to other modules
type ReaderPort interface {
	Current() *Snapshot
}

// WriterPort mutates settings
type WriterPort interface {
	Update(ctx context.Context, p Patch) (*Snapshot, error)
}

// WatchPort registers callbacks fired on every snapshot swap
type WatchPort interface {
	Watch(fn func(*Snapshot))
}
