package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS nodes (
	instance   TEXT    NOT NULL,
	key        TEXT    NOT NULL,
	node       BLOB    NOT NULL,
	updated_at INTEGER NOT NULL,
	PRIMARY KEY (instance, key)
)`

// SQLite stores nodes in a SQLite database, zstd-compressed.
type SQLite struct {
	db  *sqlx.DB
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// OpenSQLite opens (creating if needed) the database at path. ":memory:"
// gives a private in-memory database.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	dsn := fmt.Sprintf("file:%s?mode=rwc&_journal_mode=WAL&_busy_timeout=5000", path)
	if path == ":memory:" {
		dsn = ":memory:"
	}

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening db[%s]: %w", path, err)
	}
	// One connection: SQLite serializes writers anyway and ":memory:" is
	// per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		db.Close()
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, err
	}

	return &SQLite{db: db, enc: enc, dec: dec}, nil
}

func (s *SQLite) Get(ctx context.Context, instance, key string) ([]byte, bool, error) {
	var compressed []byte
	err := s.db.GetContext(ctx, &compressed,
		`SELECT node FROM nodes WHERE instance = ? AND key = ?`, instance, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get node %q: %w", key, err)
	}

	node, err := s.dec.DecodeAll(compressed, nil)
	if err != nil {
		return nil, false, fmt.Errorf("decompress node %q: %w", key, err)
	}
	return node, true, nil
}

func (s *SQLite) Set(ctx context.Context, instance, key string, node []byte) error {
	compressed := s.enc.EncodeAll(node, nil)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO nodes (instance, key, node, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (instance, key) DO UPDATE SET node = excluded.node, updated_at = excluded.updated_at`,
		instance, key, compressed, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("set node %q: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, instance, key string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM nodes WHERE instance = ? AND key = ?`, instance, key); err != nil {
		return fmt.Errorf("delete node %q: %w", key, err)
	}
	return nil
}

// ListKeys returns matching keys in lexical order. The prefix is compared
// with substr so LIKE wildcards in keys need no escaping.
func (s *SQLite) ListKeys(ctx context.Context, instance, prefix string) ([]string, error) {
	keys := []string{}
	err := s.db.SelectContext(ctx, &keys,
		`SELECT key FROM nodes WHERE instance = ? AND substr(key, 1, length(?)) = ? ORDER BY key`,
		instance, prefix, prefix)
	if err != nil {
		return nil, fmt.Errorf("list keys %q: %w", prefix, err)
	}
	return keys, nil
}

func (s *SQLite) Close() error {
	s.enc.Close()
	s.dec.Close()
	return s.db.Close()
}
