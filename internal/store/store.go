// Package store handles SQLite persistence of per-device bit statistics.
package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/sramscan/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// ErrNotCached is returned by Load for device names that were never stored.
// Callers must run the analyze pipeline before retrying.
var ErrNotCached = errors.New("device not cached")

// Store wraps SQLite access for cached device statistics. The cache holds the
// raw ones-counts and dump totals; derived probability and entropy values are
// always recomputed from them. No locking is provided: a single process is
// assumed to be the sole writer for any one device name.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS devices (
			name TEXT PRIMARY KEY,
			memory_bits INTEGER NOT NULL,
			total_dumps INTEGER NOT NULL,
			ones_counts BLOB NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_devices_updated_at ON devices(updated_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Save writes or overwrites the cache entry for a device.
func (s *Store) Save(ctx context.Context, name string, counts model.BitCounts) error {
	if name == "" {
		return fmt.Errorf("device name is empty")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO devices (name, memory_bits, total_dumps, ones_counts, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
			memory_bits = excluded.memory_bits,
			total_dumps = excluded.total_dumps,
			ones_counts = excluded.ones_counts,
			updated_at = excluded.updated_at`,
		name,
		len(counts.Ones),
		counts.TotalDumps,
		encodeCounts(counts.Ones),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save device %s: %w", name, err)
	}
	return nil
}

// Load returns the stored counts for a device, or ErrNotCached.
func (s *Store) Load(ctx context.Context, name string) (model.BitCounts, error) {
	var (
		memoryBits int
		totalDumps int
		blob       []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT memory_bits, total_dumps, ones_counts FROM devices WHERE name = ?`, name,
	).Scan(&memoryBits, &totalDumps, &blob)
	if errors.Is(err, sql.ErrNoRows) {
		return model.BitCounts{}, fmt.Errorf("device %s: %w", name, ErrNotCached)
	}
	if err != nil {
		return model.BitCounts{}, fmt.Errorf("failed to load device %s: %w", name, err)
	}
	ones, err := decodeCounts(blob, memoryBits)
	if err != nil {
		return model.BitCounts{}, fmt.Errorf("corrupt cache entry for device %s: %w", name, err)
	}
	return model.BitCounts{Ones: ones, TotalDumps: totalDumps}, nil
}

// Exists is a non-failing existence probe for orchestration code.
func (s *Store) Exists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM devices WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// List returns all cached devices ordered by name.
func (s *Store) List(ctx context.Context) ([]model.CachedDevice, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, memory_bits, total_dumps, updated_at FROM devices ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var devices []model.CachedDevice
	for rows.Next() {
		var (
			dev       model.CachedDevice
			updatedAt string
		)
		if err := rows.Scan(&dev.Name, &dev.MemoryBits, &dev.TotalDumps, &updatedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, updatedAt)
		if err != nil {
			return nil, err
		}
		dev.UpdatedAt = parsed
		devices = append(devices, dev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return devices, nil
}

// encodeCounts packs counts as one big-endian uint32 per bit position.
func encodeCounts(ones []uint32) []byte {
	buf := make([]byte, 4*len(ones))
	for i, v := range ones {
		binary.BigEndian.PutUint32(buf[4*i:], v)
	}
	return buf
}

func decodeCounts(blob []byte, bits int) ([]uint32, error) {
	if len(blob) != 4*bits {
		return nil, fmt.Errorf("counts blob holds %d bytes, expected %d", len(blob), 4*bits)
	}
	ones := make([]uint32, bits)
	for i := range ones {
		ones[i] = binary.BigEndian.Uint32(blob[4*i:])
	}
	return ones, nil
}
