package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// PostgresStore keeps the snapshot in a single jsonb row, giving concurrent
// invocations an atomic read-modify-write that the channel backend cannot
// provide.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore wraps an open database handle. The snapshots table is
// created by the migrations.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const (
	selectSnapshot          = `SELECT doc FROM snapshots WHERE id = 1`
	selectSnapshotForUpdate = selectSnapshot + ` FOR UPDATE`
	upsertSnapshot          = `
		INSERT INTO snapshots (id, doc, updated_at)
		VALUES (1, $1, now())
		ON CONFLICT (id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
)

// Load reads the current snapshot row. A missing row is an empty snapshot.
func (s *PostgresStore) Load(ctx context.Context) (*Snapshot, error) {
	var doc []byte
	if err := s.db.QueryRowxContext(ctx, selectSnapshot).Scan(&doc); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return New(), nil
		}
		return New(), fmt.Errorf("select snapshot: %w", err)
	}
	snap, err := Decode(doc)
	if err != nil {
		return New(), err
	}
	return snap, nil
}

// Save overwrites the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, upsertSnapshot, data); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Mutate applies fn under a row lock so concurrent writers serialize instead
// of losing updates.
func (s *PostgresStore) Mutate(ctx context.Context, fn func(*Snapshot) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snap := New()
	var doc []byte
	err = tx.QueryRowxContext(ctx, selectSnapshotForUpdate).Scan(&doc)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return fmt.Errorf("select snapshot for update: %w", err)
	default:
		if snap, err = Decode(doc); err != nil {
			return err
		}
	}

	if err := fn(snap); err != nil {
		return err
	}

	data, err := Encode(snap)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, upsertSnapshot, data); err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return tx.Commit()
}
