// Package tokenstore holds the single persisted credential: zero or one
// opaque bearer token. No expiry is tracked; the API alone decides whether
// a stored token is still good.
package tokenstore

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/authclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/authclient/internal/common"
	"github.com/dmitrijs2005/authclient/internal/dbx"
)

// Store is the durable token slot. Get returns "" when no token is held.
type Store interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// SQLiteStore keeps the token in the metadata table of the local database,
// so a session survives client restarts for the same profile (database file).
type SQLiteStore struct {
	db   *sql.DB
	repo metadata.Repository
}

func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, repo: metadata.NewSQLiteRepository(db)}
}

func (s *SQLiteStore) Get(ctx context.Context) (string, error) {
	v, found, err := s.repo.Get(ctx, common.AccessTokenKey)
	if err != nil || !found {
		return "", err
	}
	return string(v), nil
}

// Set replaces any previously held token. An empty token clears the slot.
func (s *SQLiteStore) Set(ctx context.Context, token string) error {
	if token == "" {
		return s.Clear(ctx)
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return metadata.NewSQLiteRepository(tx).Set(ctx, common.AccessTokenKey, []byte(token))
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.repo.Delete(ctx, common.AccessTokenKey)
}

// MemoryStore is a process-local Store. Tests use it in place of SQLiteStore.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (m *MemoryStore) Get(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryStore) Set(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
