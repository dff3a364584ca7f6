// Package sqlite provides the SQLite-backed action journal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/platform/storage/sqlitemigrate"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage"
	"github.com/AKxy4321/NFT-Game-Blockchain-Frontend/internal/services/arena/storage/sqlite/migrations"
	_ "modernc.org/sqlite"
)

// Store persists the action journal in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var (
	_ storage.Journal       = (*Store)(nil)
	_ storage.JournalReader = (*Store)(nil)
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens the journal at path, creating its directory, and applies the
// embedded migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	cleanPath := filepath.Clean(path)
	if dir := filepath.Dir(cleanPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	dsn := cleanPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := sqlitemigrate.Apply(ctx, sqlDB, migrations.FS, "."); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Append records one entry. A zero RecordedAt is stamped with the current
// time.
func (s *Store) Append(ctx context.Context, entry storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(entry.Kind) == "" {
		return fmt.Errorf("entry kind is required")
	}
	if entry.Stage == "" {
		return fmt.Errorf("entry stage is required")
	}
	if entry.RecordedAt.IsZero() {
		entry.RecordedAt = s.now()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO action_journal
		   (generation, action_id, kind, stage, account, chain_id, tx_hash, code, trace_id, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(entry.Generation),
		int64(entry.ActionID),
		entry.Kind,
		string(entry.Stage),
		entry.Account,
		entry.ChainID,
		entry.TxHash,
		entry.Code,
		entry.TraceID,
		toMillis(entry.RecordedAt),
	)
	if err != nil {
		return fmt.Errorf("append journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]storage.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be positive")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT seq, generation, action_id, kind, stage, account, chain_id, tx_hash, code, trace_id, recorded_at
		 FROM action_journal
		 ORDER BY seq DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var out []storage.Entry
	for rows.Next() {
		var entry storage.Entry
		var generation, actionID, recordedAt int64
		var stage string
		if err := rows.Scan(
			&entry.Seq,
			&generation,
			&actionID,
			&entry.Kind,
			&stage,
			&entry.Account,
			&entry.ChainID,
			&entry.TxHash,
			&entry.Code,
			&entry.TraceID,
			&recordedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.Generation = uint64(generation)
		entry.ActionID = uint64(actionID)
		entry.Stage = storage.Stage(stage)
		entry.RecordedAt = fromMillis(recordedAt)
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return out, nil
}
