// Package wallet tracks player bankrolls outside the table. Chips in play
// belong to the table; the wallet only sees buy-ins and cash-outs.
package wallet

import (
	"context"
	"errors"
)

var (
	// ErrInsufficientFunds indicates the account cannot cover the debit.
	ErrInsufficientFunds = errors.New("wallet: insufficient funds")

	// ErrUnknownAccount indicates no account exists for the user.
	ErrUnknownAccount = errors.New("wallet: unknown account")

	// ErrInvalidAmount indicates a non-positive debit or credit.
	ErrInvalidAmount = errors.New("wallet: invalid amount")
)

// Service is the bankroll interface the table runtime depends on. Debit
// happens before a seat is claimed; Credit returns chips on leave or refund.
// The ref string ties the entry to a table or hand for the audit trail.
type Service interface {
	Balance(ctx context.Context, userID string) (int, error)
	Debit(ctx context.Context, userID string, amount int, ref string) error
	Credit(ctx context.Context, userID string, amount int, ref string) error
}
