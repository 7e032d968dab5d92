/*
Package credit implements the loan schedule and payment allocation engine
for microcredit loans.

PURPOSE:
  This package contains the domain types and algorithms for a microcredit
  portfolio: fixed-size installment schedules derived from a rate table,
  origination fees, fines, extra payments ("abonos"), and the deterministic
  waterfall that allocates payments against outstanding fines and principal.

KEY CONCEPTS IN THIS FILE (types.go):
  - Money: A monetary quantity backed by decimal.Decimal
  - LoanPlan: Payment cadence (daily, weekly, biweekly, monthly)
  - Loan / Installment / Fine / ExtraPayment / Discount: Ledger entities

DESIGN PRINCIPLES:
  1. Purity: Allocation and status are derived from a loan snapshot on
     every read. There is no cached balance that can drift.
  2. Precision: Uses decimal.Decimal to avoid floating-point errors.
  3. Date-only semantics: Due dates carry no time-of-day (see date.go).

SEE ALSO:
  - rates.go: Rate table lookup and fee formula
  - schedule.go: Due-date generation per plan
  - allocation.go: The payment waterfall
  - status.go: Derived lifecycle state
*/
package credit

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// MONEY - Monetary amount (single currency, decimal precision)
// =============================================================================

type Money struct {
	Value decimal.Decimal
}

func NewMoney(value int64) Money {
	return Money{Value: decimal.NewFromInt(value)}
}

func NewMoneyFromFloat(value float64) Money {
	return Money{Value: decimal.NewFromFloat(value)}
}

func MustParseMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}
	}
	return Money{Value: d}
}

func (m Money) Add(o Money) Money        { return Money{Value: m.Value.Add(o.Value)} }
func (m Money) Sub(o Money) Money        { return Money{Value: m.Value.Sub(o.Value)} }
func (m Money) Neg() Money               { return Money{Value: m.Value.Neg()} }
func (m Money) IsZero() bool             { return m.Value.IsZero() }
func (m Money) IsPositive() bool         { return m.Value.IsPositive() }
func (m Money) IsNegative() bool         { return m.Value.IsNegative() }
func (m Money) GreaterThan(o Money) bool { return m.Value.GreaterThan(o.Value) }
func (m Money) LessThan(o Money) bool    { return m.Value.LessThan(o.Value) }
func (m Money) Equal(o Money) bool       { return m.Value.Equal(o.Value) }
func (m Money) String() string           { return m.Value.String() }

// Min returns the smaller of the two amounts.
func (m Money) Min(o Money) Money {
	if m.LessThan(o) {
		return m
	}
	return o
}

// Float64 converts for JSON transport. Engine arithmetic stays decimal.
func (m Money) Float64() float64 {
	f, _ := m.Value.Float64()
	return f
}

// LessThanOrZero reports a fully covered figure (remaining <= 0).
func (m Money) LessThanOrZero() bool { return !m.Value.IsPositive() }

// FloorZero clamps negative amounts to zero. Used for display figures.
func (m Money) FloorZero() Money {
	if m.IsNegative() {
		return Money{}
	}
	return m
}

// =============================================================================
// LOAN PLAN - Payment cadence
// =============================================================================

type LoanPlan string

const (
	PlanDaily    LoanPlan = "daily"
	PlanWeekly   LoanPlan = "weekly"
	PlanBiweekly LoanPlan = "biweekly"
	PlanMonthly  LoanPlan = "monthly"
)

// InstallmentCount is fixed per plan: the loan's shape never changes
// after creation.
func (p LoanPlan) InstallmentCount() int {
	switch p {
	case PlanDaily:
		return 60
	case PlanWeekly:
		return 10
	case PlanBiweekly:
		return 5
	case PlanMonthly:
		return 3
	default:
		return 0
	}
}

func (p LoanPlan) Valid() bool { return p.InstallmentCount() > 0 }

// BiweeklyVariant is the day-of-month pair a biweekly plan cycles through.
type BiweeklyVariant struct {
	First  int
	Second int
}

var (
	BiweeklyDays1and16 = BiweeklyVariant{First: 1, Second: 16}
	BiweeklyDays5and20 = BiweeklyVariant{First: 5, Second: 20}
)

func (v BiweeklyVariant) IsZero() bool { return v.First == 0 && v.Second == 0 }

// variantOrDefault resolves the effective variant once, at read time,
// instead of scattering fallback checks at each use site.
func variantOrDefault(v BiweeklyVariant) BiweeklyVariant {
	if v.IsZero() {
		return BiweeklyDays1and16
	}
	return v
}

// =============================================================================
// LEDGER ENTITIES
// =============================================================================

// Fine is a late-payment penalty owned by exactly one installment.
type Fine struct {
	ID        string
	Amount    Money
	Reason    string
	CreatedAt time.Time
}

// ExtraPayment is a payment outside an installment's nominal due amount.
// Target == 0 means a general-pool payment consumed by the waterfall;
// Target >= 1 earmarks the amount for that installment only.
type ExtraPayment struct {
	ID          string
	Amount      Money
	Date        DueDate
	Target      int
	Description string
}

func (p ExtraPayment) Targeted() bool { return p.Target > 0 }

type DiscountKind string

const (
	DiscountDays DiscountKind = "days"
	DiscountFee  DiscountKind = "fee"
)

// Discount reduces the loan's total-due figure for reporting.
// It does not participate in the waterfall.
type Discount struct {
	ID          string
	Amount      Money
	Kind        DiscountKind
	Description string
}

// Installment is one scheduled repayment unit. Created in a batch by the
// schedule generator; never deleted individually.
type Installment struct {
	Sequence     int
	DueDate      DueDate
	ManuallyPaid bool
	PaidDate     *DueDate
	Fines        []Fine
}

func (i *Installment) TotalFines() Money {
	total := Money{}
	for _, f := range i.Fines {
		total = total.Add(f.Amount)
	}
	return total
}

// =============================================================================
// LOAN
// =============================================================================

type LoanTag string

const (
	TagNone     LoanTag = ""
	TagWatch    LoanTag = "watch"
	TagLegal    LoanTag = "legal"
	TagWriteOff LoanTag = "write_off"
)

// Loan is an in-memory snapshot of a single loan. The engine operates on
// one snapshot at a time; persistence is the repository's concern.
type Loan struct {
	ID               string
	ClientID         string
	Principal        Money
	Plan             LoanPlan
	Variant          BiweeklyVariant // biweekly plans only
	StartDate        DueDate
	Fee              Money // origination fee, table-derived or overridden
	RenewalPayoff    Money // prior balance settled out of disbursement (renewals)
	InstallmentValue Money
	Installments     []Installment
	ExtraPayments    []ExtraPayment
	Discounts        []Discount
	Renewed          bool
	Tag              LoanTag
	CreatedAt        time.Time
}

// NetDisbursed is what the client actually receives:
// principal minus fee, minus any prior balance covered by a renewal.
func (l *Loan) NetDisbursed() Money {
	return l.Principal.Sub(l.Fee).Sub(l.RenewalPayoff)
}

// TotalDue is the reporting figure: full repayment plus fines minus discounts.
func (l *Loan) TotalDue() Money {
	total := l.InstallmentValue.Value.Mul(decimal.NewFromInt(int64(len(l.Installments))))
	due := Money{Value: total}
	for i := range l.Installments {
		due = due.Add(l.Installments[i].TotalFines())
	}
	for _, d := range l.Discounts {
		due = due.Sub(d.Amount)
	}
	return due
}

// Installment returns the installment with the given sequence number.
func (l *Loan) Installment(seq int) (*Installment, error) {
	for i := range l.Installments {
		if l.Installments[i].Sequence == seq {
			return &l.Installments[i], nil
		}
	}
	return nil, &InstallmentNotFoundError{LoanID: l.ID, Sequence: seq}
}

// =============================================================================
// CLIENT - Flat record supplied by the CRUD collaborator
// =============================================================================

type Client struct {
	ID        string
	Name      string
	Document  string
	Phone     string
	Address   string
	CreatedAt time.Time
}
