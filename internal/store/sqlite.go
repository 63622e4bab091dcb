package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/feltcraft/tabled/internal/game"
)

// snapshotRow is one persisted table snapshot. Only the newest row per table
// matters for recovery; older rows are kept briefly for forensics.
type snapshotRow struct {
	ID        uint   `gorm:"primaryKey"`
	TableID   string `gorm:"index"`
	HandID    string
	Data      []byte
	CreatedAt time.Time
}

func (snapshotRow) TableName() string { return "table_snapshots" }

// archiveRow is one exported finished hand.
type archiveRow struct {
	ID        uint   `gorm:"primaryKey"`
	TableID   string `gorm:"index"`
	HandID    string `gorm:"index"`
	Format    string
	Data      []byte
	CreatedAt time.Time
}

func (archiveRow) TableName() string { return "hand_archives" }

// keepSnapshots bounds how many rows survive per table after a save.
const keepSnapshots = 20

// SQLite is the durable store.
type SQLite struct {
	db *gorm.DB
}

// OpenSQLite opens (or creates) the store database at path and migrates the
// schema.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}
	return NewSQLite(db)
}

// NewSQLite wraps an already-open GORM handle.
func NewSQLite(db *gorm.DB) (*SQLite, error) {
	if err := db.AutoMigrate(&snapshotRow{}, &archiveRow{}); err != nil {
		return nil, fmt.Errorf("migrate store db: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) SaveSnapshot(ctx context.Context, rec *game.TableRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	handID := ""
	if rec.Hand != nil {
		handID = rec.Hand.ID
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&snapshotRow{TableID: rec.ID, HandID: handID, Data: data}).Error; err != nil {
			return err
		}
		// Prune old rows beyond the retention window.
		var cutoff snapshotRow
		err := tx.Where("table_id = ?", rec.ID).
			Order("id DESC").Offset(keepSnapshots - 1).First(&cutoff).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return tx.Where("table_id = ? AND id < ?", rec.ID, cutoff.ID).
			Delete(&snapshotRow{}).Error
	})
}

func (s *SQLite) LatestSnapshot(ctx context.Context, tableID string) (*game.TableRecord, error) {
	var row snapshotRow
	err := s.db.WithContext(ctx).
		Where("table_id = ?", tableID).
		Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s: %w", tableID, err)
	}
	var rec game.TableRecord
	if err := json.Unmarshal(row.Data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", tableID, err)
	}
	return &rec, nil
}

func (s *SQLite) SnapshotTables(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&snapshotRow{}).
		Distinct("table_id").Pluck("table_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("list snapshot tables: %w", err)
	}
	return ids, nil
}

func (s *SQLite) ArchiveHand(ctx context.Context, arch *HandArchive) error {
	row := archiveRow{
		TableID: arch.TableID,
		HandID:  arch.HandID,
		Format:  arch.Format,
		Data:    arch.Data,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("archive hand %s: %w", arch.HandID, err)
	}
	return nil
}

func (s *SQLite) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
