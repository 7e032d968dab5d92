/*
service.go - Repository-backed facade over the engine

PURPOSE:
  The Service is what CRUD/UI collaborators talk to. It loads a loan
  snapshot from the Repository, applies one engine mutation, and saves
  the result. A single mutex serializes mutations - the engine itself
  has no concurrency control and expects one mutation at a time.

  Reads (allocation, status) take no lock beyond the repository's own:
  the waterfall is pure and works on whatever snapshot it is given.

  The clock is injectable so status and renewal decisions are
  deterministic under test.
*/
package credit

import (
	"context"
	"sync"
)

type Service struct {
	mu   sync.Mutex
	repo Repository
	now  func() DueDate
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: Today}
}

// WithClock replaces the service clock. Test hook.
func (s *Service) WithClock(now func() DueDate) *Service {
	s.now = now
	return s
}

// =============================================================================
// LOANS
// =============================================================================

func (s *Service) CreateLoan(ctx context.Context, params CreateLoanParams) (*Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if params.ClientID != "" {
		if _, err := s.repo.GetClient(ctx, params.ClientID); err != nil {
			return nil, err
		}
	}
	loan, err := CreateLoan(params)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *Service) GetLoan(ctx context.Context, id string) (*Loan, error) {
	return s.repo.GetLoan(ctx, id)
}

func (s *Service) ListLoans(ctx context.Context) ([]*Loan, error) {
	return s.repo.ListLoans(ctx)
}

func (s *Service) ListLoansByClient(ctx context.Context, clientID string) ([]*Loan, error) {
	return s.repo.ListLoansByClient(ctx, clientID)
}

// DeleteLoan removes the loan and all its sub-records. There is no
// cancelled state; deletion is the terminal action.
func (s *Service) DeleteLoan(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteLoan(ctx, id)
}

// =============================================================================
// DERIVED READS
// =============================================================================

func (s *Service) Allocate(ctx context.Context, loanID string) (AllocationResult, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return AllocationResult{}, err
	}
	return Allocate(loan), nil
}

func (s *Service) Status(ctx context.Context, loanID string) (Status, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return "", err
	}
	return LoanStatus(loan, s.now()), nil
}

func (s *Service) CanRenew(ctx context.Context, loanID string) (bool, error) {
	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return false, err
	}
	return CanRenew(loan, s.now()), nil
}

// =============================================================================
// MUTATIONS
// =============================================================================

// mutate loads, applies, and saves under the service lock.
func (s *Service) mutate(ctx context.Context, loanID string, fn func(*Loan) error) (*Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if err := fn(loan); err != nil {
		return nil, err
	}
	if err := s.repo.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}
	return loan, nil
}

func (s *Service) AddFine(ctx context.Context, loanID string, seq int, amount Money, reason string) (Fine, error) {
	var fine Fine
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		var err error
		fine, err = l.AddFine(seq, amount, reason)
		return err
	})
	return fine, err
}

func (s *Service) RemoveFine(ctx context.Context, loanID string, seq int, fineID string) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.RemoveFine(seq, fineID)
	})
	return err
}

func (s *Service) AddExtraPayment(ctx context.Context, loanID string, amount Money, date DueDate, target int, description string) (ExtraPayment, error) {
	var payment ExtraPayment
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		var err error
		payment, err = l.AddExtraPayment(amount, date, target, description)
		return err
	})
	return payment, err
}

func (s *Service) RemoveExtraPayment(ctx context.Context, loanID, paymentID string) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.RemoveExtraPayment(paymentID)
	})
	return err
}

func (s *Service) AddDiscount(ctx context.Context, loanID string, amount Money, kind DiscountKind, description string) (Discount, error) {
	var discount Discount
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		var err error
		discount, err = l.AddDiscount(amount, kind, description)
		return err
	})
	return discount, err
}

func (s *Service) RemoveDiscount(ctx context.Context, loanID, discountID string) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.RemoveDiscount(discountID)
	})
	return err
}

func (s *Service) MarkPaid(ctx context.Context, loanID string, seq int, paidDate *DueDate) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.MarkPaid(seq, paidDate)
	})
	return err
}

func (s *Service) UnmarkPaid(ctx context.Context, loanID string, seq int) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.UnmarkPaid(seq)
	})
	return err
}

func (s *Service) EditDueDate(ctx context.Context, loanID string, seq int, newDate DueDate) error {
	_, err := s.mutate(ctx, loanID, func(l *Loan) error {
		return l.EditDueDate(seq, newDate)
	})
	return err
}

// Renew creates and persists the replacement loan, then persists the
// old loan with its renewed flag set. Both writes happen under the
// service lock.
func (s *Service) Renew(ctx context.Context, loanID string, params RenewParams) (*Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, err := s.repo.GetLoan(ctx, loanID)
	if err != nil {
		return nil, err
	}
	if params.Today.IsZero() {
		params.Today = s.now()
	}
	loan, err := Renew(old, params)
	if err != nil {
		return nil, err
	}
	loan.ClientID = old.ClientID
	if err := s.repo.SaveLoan(ctx, loan); err != nil {
		return nil, err
	}
	if err := s.repo.SaveLoan(ctx, old); err != nil {
		return nil, err
	}
	return loan, nil
}

// =============================================================================
// CLIENTS
// =============================================================================

func (s *Service) SaveClient(ctx context.Context, client Client) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.SaveClient(ctx, client)
}

func (s *Service) GetClient(ctx context.Context, id string) (*Client, error) {
	return s.repo.GetClient(ctx, id)
}

func (s *Service) ListClients(ctx context.Context) ([]Client, error) {
	return s.repo.ListClients(ctx)
}

func (s *Service) DeleteClient(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.repo.DeleteClient(ctx, id)
}

// =============================================================================
// CASH REGISTER - Derived day summary
// =============================================================================

// CashSummary is the day's register view: money in from abonos, fees
// charged on loans opened that day, and money out as net disbursements.
type CashSummary struct {
	Date          DueDate
	PaymentsIn    Money
	FeesCollected Money
	Disbursed     Money
	LoansOpened   int
}

// CashDaySummary derives the register flows for one date from current
// ledger contents. Nothing is stored; edits and deletions are always
// reflected.
func (s *Service) CashDaySummary(ctx context.Context, date DueDate) (CashSummary, error) {
	loans, err := s.repo.ListLoans(ctx)
	if err != nil {
		return CashSummary{}, err
	}

	summary := CashSummary{Date: date}
	for _, loan := range loans {
		for _, p := range loan.ExtraPayments {
			if p.Date.Equal(date) {
				summary.PaymentsIn = summary.PaymentsIn.Add(p.Amount)
			}
		}
		if loan.StartDate.Equal(date) {
			summary.LoansOpened++
			summary.FeesCollected = summary.FeesCollected.Add(loan.Fee)
			summary.Disbursed = summary.Disbursed.Add(loan.NetDisbursed())
		}
	}
	return summary, nil
}
