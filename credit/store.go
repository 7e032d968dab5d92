/*
store.go - Persistence interface for loans and clients

PURPOSE:
  Defines the boundary between the engine and its storage collaborator.
  The engine never persists anything itself; the Service loads a loan
  snapshot, mutates it, and hands it back to the Repository.

  Dates cross this boundary as "YYYY-MM-DD" strings (see date.go) and
  money as decimal strings, so implementations never deal with time
  zones or binary floats.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store
  - credit/store: in-memory store for tests and dev
*/
package credit

import "context"

// Repository persists loan and client records. SaveLoan is an upsert of
// the whole flat record: the loan plus all of its sub-records.
type Repository interface {
	SaveLoan(ctx context.Context, loan *Loan) error
	GetLoan(ctx context.Context, id string) (*Loan, error)
	ListLoans(ctx context.Context) ([]*Loan, error)
	ListLoansByClient(ctx context.Context, clientID string) ([]*Loan, error)
	DeleteLoan(ctx context.Context, id string) error

	SaveClient(ctx context.Context, client Client) error
	GetClient(ctx context.Context, id string) (*Client, error)
	ListClients(ctx context.Context) ([]Client, error)
	DeleteClient(ctx context.Context, id string) error
}
