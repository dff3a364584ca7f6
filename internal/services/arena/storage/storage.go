// Package storage defines the action journal the arena engine writes to.
//
// The journal is an audit trail of submissions and their outcomes. The
// engine never reads it back; the Session is always rebuilt from the chain.
package storage

import (
	"context"
	"time"
)

// Stage is where in its lifecycle an action was when it was recorded.
type Stage string

const (
	StageStarted   Stage = "started"
	StageSubmitted Stage = "submitted"
	StageConfirmed Stage = "confirmed"
	StageFailed    Stage = "failed"
	StageRejected  Stage = "rejected"
	StageReset     Stage = "reset"
)

// Entry is one journal record.
type Entry struct {
	Seq        int64
	Generation uint64
	ActionID   uint64
	Kind       string
	Stage      Stage
	Account    string
	ChainID    string
	TxHash     string
	Code       string
	TraceID    string
	RecordedAt time.Time
}

// Journal appends entries.
type Journal interface {
	Append(ctx context.Context, entry Entry) error
}

// JournalReader lists the most recent entries, newest first.
type JournalReader interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}
