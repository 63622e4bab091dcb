// Package store persists table snapshots and finished-hand archives. The
// snapshot path exists so a restarted server can pick up mid-hand tables
// exactly where they were, hole cards and deck included.
package store

import (
	"context"
	"errors"

	"github.com/feltcraft/tabled/internal/game"
)

// ErrNotFound indicates no snapshot exists for the table.
var ErrNotFound = errors.New("store: not found")

// HandArchive is one finished hand in an export format.
type HandArchive struct {
	TableID string
	HandID  string
	Format  string
	Data    []byte
}

// Store is what the table runtime persists through. Snapshots are full,
// unredacted table records; redaction happens at the wire, never here.
type Store interface {
	SaveSnapshot(ctx context.Context, rec *game.TableRecord) error
	LatestSnapshot(ctx context.Context, tableID string) (*game.TableRecord, error)
	// SnapshotTables lists table IDs with at least one snapshot, for boot
	// recovery.
	SnapshotTables(ctx context.Context) ([]string, error)
	ArchiveHand(ctx context.Context, arch *HandArchive) error
	Close() error
}
