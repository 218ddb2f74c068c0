// Package repo persists the settings document in postgres as a single
// versioned jsonb row
package repo

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"

	perr "modguard/internal/platform/errors"
	"modguard/internal/platform/store"
	"modguard/internal/services/settings/domain"
)

// PG implements domain.StorePort over the sql seam
type PG struct {
	db store.RowQuerier
}

// NewPG constructs the postgres settings store
func NewPG(db store.RowQuerier) *PG {
	return &PG{db: db}
}

var _ domain.StorePort = (*PG)(nil)

// Load reads the settings row. The second return is false when no settings
// have ever been saved
func (r *PG) Load(ctx context.Context) (domain.Settings, bool, error) {
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT data FROM engine_settings WHERE id = 1`,
	).Scan(&raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Settings{}, false, nil
		}
		return domain.Settings{}, false, perr.DBf("load settings: %v", err)
	}
	var s domain.Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.Settings{}, false, perr.JSONErrf("decode settings: %v", err)
	}
	return s, true, nil
}

// Save upserts the settings row
func (r *PG) Save(ctx context.Context, s domain.Settings) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return perr.JSONErrf("encode settings: %v", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO engine_settings (id, data, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`,
		raw,
	)
	if err != nil {
		return perr.DBf("save settings: %v", err)
	}
	return nil
}
