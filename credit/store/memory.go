// Package store provides Repository implementations.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/microcredit-engine/credit"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu      sync.RWMutex
	loans   map[string]*credit.Loan
	clients map[string]credit.Client
}

func NewMemory() *Memory {
	return &Memory{
		loans:   make(map[string]*credit.Loan),
		clients: make(map[string]credit.Client),
	}
}

func (m *Memory) SaveLoan(_ context.Context, loan *credit.Loan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loans[loan.ID] = copyLoan(loan)
	return nil
}

func (m *Memory) GetLoan(_ context.Context, id string) (*credit.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	loan, ok := m.loans[id]
	if !ok {
		return nil, credit.ErrLoanNotFound
	}
	return copyLoan(loan), nil
}

func (m *Memory) ListLoans(_ context.Context) ([]*credit.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*credit.Loan, 0, len(m.loans))
	for _, loan := range m.loans {
		result = append(result, copyLoan(loan))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) ListLoansByClient(_ context.Context, clientID string) ([]*credit.Loan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*credit.Loan
	for _, loan := range m.loans {
		if loan.ClientID == clientID {
			result = append(result, copyLoan(loan))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.Before(result[j].CreatedAt) })
	return result, nil
}

func (m *Memory) DeleteLoan(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.loans[id]; !ok {
		return credit.ErrLoanNotFound
	}
	delete(m.loans, id)
	return nil
}

func (m *Memory) SaveClient(_ context.Context, client credit.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[client.ID] = client
	return nil
}

func (m *Memory) GetClient(_ context.Context, id string) (*credit.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	client, ok := m.clients[id]
	if !ok {
		return nil, credit.ErrClientNotFound
	}
	return &client, nil
}

func (m *Memory) ListClients(_ context.Context) ([]credit.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]credit.Client, 0, len(m.clients))
	for _, c := range m.clients {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) DeleteClient(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.clients[id]; !ok {
		return credit.ErrClientNotFound
	}
	delete(m.clients, id)
	return nil
}

// copyLoan deep-copies so callers never alias stored state. The engine
// mutates snapshots; the store must stay isolated from them.
func copyLoan(loan *credit.Loan) *credit.Loan {
	out := *loan
	out.Installments = make([]credit.Installment, len(loan.Installments))
	for i, inst := range loan.Installments {
		ci := inst
		if inst.PaidDate != nil {
			d := *inst.PaidDate
			ci.PaidDate = &d
		}
		ci.Fines = append([]credit.Fine(nil), inst.Fines...)
		out.Installments[i] = ci
	}
	out.ExtraPayments = append([]credit.ExtraPayment(nil), loan.ExtraPayments...)
	out.Discounts = append([]credit.Discount(nil), loan.Discounts...)
	return &out
}

var _ credit.Repository = (*Memory)(nil)
