package wallet

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"
)

// Account is one bankroll row. Balance moves only inside a transaction that
// also writes the matching ledger entry.
type Account struct {
	UserID    string `gorm:"primaryKey"`
	Balance   int64
	UpdatedAt time.Time
}

// LedgerEntry records one balance movement. Amount is negative for debits.
// The sum of all entries for an account equals its balance.
type LedgerEntry struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"index"`
	Amount    int64
	Ref       string
	CreatedAt time.Time
}

// Ledger is the durable wallet backed by SQLite through GORM.
type Ledger struct {
	db *gorm.DB
}

// OpenLedger opens (or creates) the wallet database at path and migrates the
// schema.
func OpenLedger(path string) (*Ledger, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open wallet db: %w", err)
	}
	if err := db.AutoMigrate(&Account{}, &LedgerEntry{}); err != nil {
		return nil, fmt.Errorf("migrate wallet db: %w", err)
	}
	return &Ledger{db: db}, nil
}

// NewLedger wraps an already-open GORM handle. Tests use this with a shared
// in-memory database.
func NewLedger(db *gorm.DB) (*Ledger, error) {
	if err := db.AutoMigrate(&Account{}, &LedgerEntry{}); err != nil {
		return nil, fmt.Errorf("migrate wallet db: %w", err)
	}
	return &Ledger{db: db}, nil
}

func (l *Ledger) Balance(ctx context.Context, userID string) (int, error) {
	var acct Account
	err := l.db.WithContext(ctx).First(&acct, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrUnknownAccount
	}
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", userID, err)
	}
	return int(acct.Balance), nil
}

func (l *Ledger) Debit(ctx context.Context, userID string, amount int, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return l.move(ctx, userID, -int64(amount), ref)
}

func (l *Ledger) Credit(ctx context.Context, userID string, amount int, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return l.move(ctx, userID, int64(amount), ref)
}

// Deposit creates the account if needed and credits it. Used by operator
// tooling to fund players; the game path never creates accounts.
func (l *Ledger) Deposit(ctx context.Context, userID string, amount int, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		acct := Account{UserID: userID}
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acct, "user_id = ?", userID).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		acct.Balance += int64(amount)
		acct.UpdatedAt = time.Now()
		if err := tx.Save(&acct).Error; err != nil {
			return err
		}
		return tx.Create(&LedgerEntry{UserID: userID, Amount: int64(amount), Ref: ref}).Error
	})
}

func (l *Ledger) move(ctx context.Context, userID string, amount int64, ref string) error {
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var acct Account
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&acct, "user_id = ?", userID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUnknownAccount
		}
		if err != nil {
			return err
		}
		if acct.Balance+amount < 0 {
			return ErrInsufficientFunds
		}
		acct.Balance += amount
		acct.UpdatedAt = time.Now()
		if err := tx.Save(&acct).Error; err != nil {
			return err
		}
		return tx.Create(&LedgerEntry{UserID: userID, Amount: amount, Ref: ref}).Error
	})
}

// Audit verifies that every account balance equals the sum of its ledger
// entries. A mismatch means the ledger was written outside move().
func (l *Ledger) Audit(ctx context.Context) error {
	var accounts []Account
	if err := l.db.WithContext(ctx).Find(&accounts).Error; err != nil {
		return err
	}
	for _, acct := range accounts {
		var sum int64
		err := l.db.WithContext(ctx).Model(&LedgerEntry{}).
			Where("user_id = ?", acct.UserID).
			Select("COALESCE(SUM(amount), 0)").Scan(&sum).Error
		if err != nil {
			return err
		}
		if sum != acct.Balance {
			return fmt.Errorf("wallet audit: account %s balance %d, ledger sum %d",
				acct.UserID, acct.Balance, sum)
		}
	}
	return nil
}
