package wallet

import (
	"context"
	"sync"
)

// Memory is a dev-mode wallet. Unknown accounts are seeded with a starting
// balance on first touch so bots and test players can just sit down.
type Memory struct {
	mu       sync.Mutex
	balances map[string]int
	seed     int
}

// NewMemory creates an in-memory wallet seeding new accounts with seed chips.
func NewMemory(seed int) *Memory {
	return &Memory{balances: make(map[string]int), seed: seed}
}

func (m *Memory) account(userID string) int {
	if _, ok := m.balances[userID]; !ok {
		m.balances[userID] = m.seed
	}
	return m.balances[userID]
}

func (m *Memory) Balance(ctx context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account(userID), nil
}

func (m *Memory) Debit(ctx context.Context, userID string, amount int, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.account(userID) < amount {
		return ErrInsufficientFunds
	}
	m.balances[userID] -= amount
	return nil
}

func (m *Memory) Credit(ctx context.Context, userID string, amount int, ref string) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = m.account(userID) + amount
	return nil
}
