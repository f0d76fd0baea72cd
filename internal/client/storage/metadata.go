package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/smartkraft/lebensspur/internal/dbx"
)

// metadataRepo is a key/value view of the metadata table. Get returns a nil
// value and no error for a missing key.
type metadataRepo struct {
	db dbx.DBTX
}

func newMetadataRepo(db dbx.DBTX) *metadataRepo {
	return &metadataRepo{db: db}
}

func (r *metadataRepo) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := r.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = ?`, key).Scan(&v)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("get %s: %w", key, err)
	}
	return v, nil
}

func (r *metadataRepo) Set(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}

func (r *metadataRepo) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := r.db.ExecContext(ctx, `DELETE FROM metadata WHERE key = ?`, k); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}
