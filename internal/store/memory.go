package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/feltcraft/tabled/internal/game"
)

// Memory keeps snapshots and archives in process. Dev and test mode only.
type Memory struct {
	mu        sync.Mutex
	snapshots map[string][]byte
	archives  []*HandArchive
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{snapshots: make(map[string][]byte)}
}

func (m *Memory) SaveSnapshot(ctx context.Context, rec *game.TableRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[rec.ID] = data
	return nil
}

func (m *Memory) LatestSnapshot(ctx context.Context, tableID string) (*game.TableRecord, error) {
	m.mu.Lock()
	data, ok := m.snapshots[tableID]
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	var rec game.TableRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return &rec, nil
}

func (m *Memory) SnapshotTables(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.snapshots))
	for id := range m.snapshots {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *Memory) ArchiveHand(ctx context.Context, arch *HandArchive) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.archives = append(m.archives, arch)
	return nil
}

// Archives returns everything archived so far. Test hook.
func (m *Memory) Archives() []*HandArchive {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*HandArchive(nil), m.archives...)
}

func (m *Memory) Close() error { return nil }
