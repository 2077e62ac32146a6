package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/tabwatch/tabwatch/internal/store"
)

const schema = `CREATE TABLE IF NOT EXISTS kv (
	k TEXT PRIMARY KEY,
	v BLOB NOT NULL
)`

// KV implements store.KV over a single-table SQLite database.
type KV struct {
	db *sql.DB
}

// NewKV wires a KV over an existing connection and ensures the schema exists.
func NewKV(db *sql.DB) (*KV, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &KV{db: db}, nil
}

// OpenKV opens (or creates) the database file and returns a ready KV.
func OpenKV(path string) (*KV, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	kv, err := NewKV(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return kv, nil
}

func (s *KV) GetAll(ctx context.Context, keys []string) (map[string][]byte, error) {
	if len(keys) == 0 {
		return map[string][]byte{}, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	rows, err := s.db.QueryContext(ctx, `SELECT k, v FROM kv WHERE k IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string][]byte, len(keys))
	for rows.Next() {
		var k string
		var v []byte
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (s *KV) SetAll(ctx context.Context, items map[string][]byte) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	for k, v := range items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO kv (k, v) VALUES (?, ?) ON CONFLICT(k) DO UPDATE SET v = excluded.v`, k, v); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

func (s *KV) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *KV) Close() error {
	return s.db.Close()
}

var _ store.KV = (*KV)(nil)
