package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks

// Store defines typed access to the persisted state.
//
// Update runs fn against the current state inside a single write
// transaction, so concurrent read-modify-write sequences cannot lose
// updates to each other.
type Store interface {
	Load(ctx context.Context) (PersistedState, error)
	Save(ctx context.Context, st PersistedState) error
	Update(ctx context.Context, fn func(*PersistedState) error) (PersistedState, error)
	Close() error
}

// SQLiteStore implements Store backed by the state key-value table.
type SQLiteStore struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithQueryTimeout bounds every Load/Save/Update with a deadline. Zero
// leaves operations unbounded.
func WithQueryTimeout(d time.Duration) Option {
	return func(s *SQLiteStore) { s.queryTimeout = d }
}

// NewSQLiteStore creates a store from an already-opened and migrated database.
func NewSQLiteStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SQLiteStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Load reads the full persisted state. Missing keys yield zero values, so a
// fresh database loads as the initial state (no last visit, empty lists).
func (s *SQLiteStore) Load(ctx context.Context) (PersistedState, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return loadState(ctx, s.db)
}

// Save writes the full persisted state, replacing all keys.
func (s *SQLiteStore) Save(ctx context.Context, st PersistedState) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	if err := saveState(ctx, tx, st); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

// Update applies fn to the current state inside one transaction and returns
// the state as persisted. If fn returns an error the transaction is rolled
// back and nothing changes.
func (s *SQLiteStore) Update(ctx context.Context, fn func(*PersistedState) error) (PersistedState, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return PersistedState{}, fmt.Errorf("begin update: %w", err)
	}

	st, err := loadState(ctx, tx)
	if err != nil {
		_ = tx.Rollback()
		return PersistedState{}, err
	}

	if err := fn(&st); err != nil {
		_ = tx.Rollback()
		return PersistedState{}, err
	}

	if err := saveState(ctx, tx, st); err != nil {
		_ = tx.Rollback()
		return PersistedState{}, err
	}

	if err := tx.Commit(); err != nil {
		return PersistedState{}, fmt.Errorf("commit update: %w", err)
	}
	return st, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func loadState(ctx context.Context, q querier) (PersistedState, error) {
	rows, err := q.QueryContext(ctx, "SELECT key, value FROM state")
	if err != nil {
		return PersistedState{}, fmt.Errorf("query state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	kv := make(map[string]string)
	for rows.Next() {
		var key string
		var value sql.NullString
		if err := rows.Scan(&key, &value); err != nil {
			return PersistedState{}, fmt.Errorf("scan state row: %w", err)
		}
		if value.Valid {
			kv[key] = value.String
		}
	}
	if err := rows.Err(); err != nil {
		return PersistedState{}, fmt.Errorf("iterate state rows: %w", err)
	}

	st := PersistedState{
		LastVisitDate: kv[KeyLastVisitDate],
		Session: Session{
			AccessToken:     kv[KeyAccessToken],
			RefreshToken:    kv[KeyRefreshToken],
			UserID:          kv[KeyUserID],
			UserEmail:       kv[KeyUserEmail],
			SupabaseURL:     kv[KeySupabaseURL],
			SupabaseAnonKey: kv[KeySupabaseAnonKey],
		},
	}

	if st.VisitHistory, err = decodeList(kv[KeyVisitHistory]); err != nil {
		return PersistedState{}, fmt.Errorf("decode %s: %w", KeyVisitHistory, err)
	}
	if st.CustomSites, err = decodeList(kv[KeyCustomSites]); err != nil {
		return PersistedState{}, fmt.Errorf("decode %s: %w", KeyCustomSites, err)
	}

	return st, nil
}

func saveState(ctx context.Context, q querier, st PersistedState) error {
	history, err := encodeList(st.VisitHistory)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyVisitHistory, err)
	}
	sites, err := encodeList(st.CustomSites)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeyCustomSites, err)
	}

	pairs := map[string]string{
		KeyLastVisitDate:   st.LastVisitDate,
		KeyVisitHistory:    history,
		KeyCustomSites:     sites,
		KeyAccessToken:     st.Session.AccessToken,
		KeyRefreshToken:    st.Session.RefreshToken,
		KeyUserID:          st.Session.UserID,
		KeyUserEmail:       st.Session.UserEmail,
		KeySupabaseURL:     st.Session.SupabaseURL,
		KeySupabaseAnonKey: st.Session.SupabaseAnonKey,
	}

	for key, value := range pairs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO state (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			key, value,
		)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", key, err)
		}
	}

	return nil
}

func decodeList(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
