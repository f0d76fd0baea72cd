package storage

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/smartkraft/lebensspur/internal/common"
	"github.com/smartkraft/lebensspur/internal/dbx"
)

// PreferenceStore persists the session token and the auto-logout minutes.
type PreferenceStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPreferenceStore(db *sql.DB) *PreferenceStore {
	return &PreferenceStore{db: db, now: time.Now}
}

// LoadToken returns the saved token, or "" if none is stored.
func (s *PreferenceStore) LoadToken(ctx context.Context) (string, error) {
	v, err := newMetadataRepo(s.db).Get(ctx, common.MetaSessionToken)
	if err != nil {
		return "", err
	}
	return string(v), nil
}

// SavedAt reports when the stored token was written.
func (s *PreferenceStore) SavedAt(ctx context.Context) (time.Time, bool, error) {
	v, err := newMetadataRepo(s.db).Get(ctx, common.MetaSessionSavedAt)
	if err != nil || v == nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, string(v))
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}

func (s *PreferenceStore) SaveToken(ctx context.Context, token string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := newMetadataRepo(tx)
		if err := r.Set(ctx, common.MetaSessionToken, []byte(token)); err != nil {
			return err
		}
		return r.Set(ctx, common.MetaSessionSavedAt, []byte(s.now().UTC().Format(time.RFC3339)))
	})
}

func (s *PreferenceStore) ClearToken(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return newMetadataRepo(tx).Delete(ctx, common.MetaSessionToken, common.MetaSessionSavedAt)
	})
}

// LoadAutoLogout returns the stored minutes and whether a value was found.
// A corrupt value counts as absent.
func (s *PreferenceStore) LoadAutoLogout(ctx context.Context) (int, bool, error) {
	v, err := newMetadataRepo(s.db).Get(ctx, common.MetaAutoLogoutMinutes)
	if err != nil || v == nil {
		return 0, false, err
	}
	n, err := strconv.Atoi(string(v))
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

func (s *PreferenceStore) SaveAutoLogout(ctx context.Context, minutes int) error {
	return newMetadataRepo(s.db).Set(ctx, common.MetaAutoLogoutMinutes, []byte(strconv.Itoa(minutes)))
}
