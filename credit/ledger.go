/*
ledger.go - Explicit mutations on a loan's sub-records

PURPOSE:
  Everything that changes a loan after creation lives here: fines,
  extra payments, discounts, manual paid flags, and the due-date
  cascade edit. The loan is immutable in shape - the installment count
  never changes - so mutations only touch the sub-records.

  Mutations validate before touching anything; a returned error means
  the loan value is unchanged.
*/
package credit

import (
	"time"

	"github.com/google/uuid"
)

// CreateLoanParams are the inputs to loan creation.
type CreateLoanParams struct {
	ClientID  string
	Principal Money
	Plan      LoanPlan
	Variant   BiweeklyVariant // biweekly plans only
	StartDate DueDate
	ManualFee *Money // overrides the table-derived fee when set
	Tag       LoanTag
}

// CreateLoan derives the schedule and fee for the given parameters and
// returns a fully-shaped loan. The rate table decides the installment
// count and value; the loan's shape is fixed from here on.
func CreateLoan(params CreateLoanParams) (*Loan, error) {
	rate, err := LookupRate(params.Principal, params.Plan)
	if err != nil {
		return nil, err
	}

	fee := Fee(params.Principal)
	if params.ManualFee != nil {
		if !params.ManualFee.IsPositive() {
			return nil, &InvalidAmountError{Field: "manual_fee", Amount: *params.ManualFee}
		}
		fee = *params.ManualFee
	}

	entries, err := GenerateSchedule(params.Plan, params.Variant, params.StartDate, rate.Installments)
	if err != nil {
		return nil, err
	}
	installments := make([]Installment, len(entries))
	for i, e := range entries {
		installments[i] = Installment{Sequence: e.Sequence, DueDate: e.DueDate}
	}

	return &Loan{
		ID:               uuid.NewString(),
		ClientID:         params.ClientID,
		Principal:        params.Principal,
		Plan:             params.Plan,
		Variant:          params.Variant,
		StartDate:        params.StartDate,
		Fee:              fee,
		InstallmentValue: rate.InstallmentValue,
		Installments:     installments,
		Tag:              params.Tag,
		CreatedAt:        time.Now().UTC(),
	}, nil
}

// =============================================================================
// FINES
// =============================================================================

// AddFine appends a fine to an installment.
func (l *Loan) AddFine(seq int, amount Money, reason string) (Fine, error) {
	if !amount.IsPositive() {
		return Fine{}, &InvalidAmountError{Field: "fine", Amount: amount}
	}
	inst, err := l.Installment(seq)
	if err != nil {
		return Fine{}, err
	}
	fine := Fine{
		ID:        uuid.NewString(),
		Amount:    amount,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	inst.Fines = append(inst.Fines, fine)
	return fine, nil
}

// RemoveFine deletes a fine from an installment.
func (l *Loan) RemoveFine(seq int, fineID string) error {
	inst, err := l.Installment(seq)
	if err != nil {
		return err
	}
	for i, f := range inst.Fines {
		if f.ID == fineID {
			inst.Fines = append(inst.Fines[:i], inst.Fines[i+1:]...)
			return nil
		}
	}
	return ErrFineNotFound
}

// =============================================================================
// EXTRA PAYMENTS
// =============================================================================

// AddExtraPayment records an abono. target == 0 pools the amount for
// the waterfall; target >= 1 earmarks it for that installment, which
// must exist.
func (l *Loan) AddExtraPayment(amount Money, date DueDate, target int, description string) (ExtraPayment, error) {
	if !amount.IsPositive() {
		return ExtraPayment{}, &InvalidAmountError{Field: "extra_payment", Amount: amount}
	}
	if target > 0 {
		if _, err := l.Installment(target); err != nil {
			return ExtraPayment{}, err
		}
	}
	payment := ExtraPayment{
		ID:          uuid.NewString(),
		Amount:      amount,
		Date:        date,
		Target:      target,
		Description: description,
	}
	l.ExtraPayments = append(l.ExtraPayments, payment)
	return payment, nil
}

// RemoveExtraPayment deletes an abono by id.
func (l *Loan) RemoveExtraPayment(id string) error {
	for i, p := range l.ExtraPayments {
		if p.ID == id {
			l.ExtraPayments = append(l.ExtraPayments[:i], l.ExtraPayments[i+1:]...)
			return nil
		}
	}
	return ErrPaymentNotFound
}

// =============================================================================
// DISCOUNTS
// =============================================================================

// AddDiscount records a discount against the loan's total-due figure.
func (l *Loan) AddDiscount(amount Money, kind DiscountKind, description string) (Discount, error) {
	if !amount.IsPositive() {
		return Discount{}, &InvalidAmountError{Field: "discount", Amount: amount}
	}
	d := Discount{
		ID:          uuid.NewString(),
		Amount:      amount,
		Kind:        kind,
		Description: description,
	}
	l.Discounts = append(l.Discounts, d)
	return d, nil
}

// RemoveDiscount deletes a discount by id.
func (l *Loan) RemoveDiscount(id string) error {
	for i, d := range l.Discounts {
		if d.ID == id {
			l.Discounts = append(l.Discounts[:i], l.Discounts[i+1:]...)
			return nil
		}
	}
	return ErrDiscountNotFound
}

// =============================================================================
// MANUAL PAID FLAG
// =============================================================================

// MarkPaid settles an installment by hand, independent of the
// waterfall. A nil paidDate defaults to today.
func (l *Loan) MarkPaid(seq int, paidDate *DueDate) error {
	inst, err := l.Installment(seq)
	if err != nil {
		return err
	}
	date := Today()
	if paidDate != nil {
		date = *paidDate
	}
	inst.ManuallyPaid = true
	inst.PaidDate = &date
	return nil
}

// UnmarkPaid clears the manual paid flag.
func (l *Loan) UnmarkPaid(seq int) error {
	inst, err := l.Installment(seq)
	if err != nil {
		return err
	}
	inst.ManuallyPaid = false
	inst.PaidDate = nil
	return nil
}

// =============================================================================
// DUE-DATE CASCADE EDIT
// =============================================================================

// EditDueDate moves one installment's due date and shifts every later
// installment by the same signed day delta. Earlier installments are
// untouched. This is a pure date shift - the plan's interval rule is
// not re-run, so repeatedly edited schedules need not stay evenly
// spaced.
func (l *Loan) EditDueDate(seq int, newDate DueDate) error {
	inst, err := l.Installment(seq)
	if err != nil {
		return err
	}
	if inst.ManuallyPaid {
		return &EditLockedInstallmentError{LoanID: l.ID, Sequence: seq}
	}

	delta := DaysBetween(inst.DueDate, newDate)
	inst.DueDate = newDate
	for i := range l.Installments {
		if l.Installments[i].Sequence > seq {
			l.Installments[i].DueDate = l.Installments[i].DueDate.AddDays(delta)
		}
	}
	return nil
}

// =============================================================================
// RENEWAL
// =============================================================================

// RenewParams are the inputs to a renewal.
type RenewParams struct {
	Principal Money
	Plan      LoanPlan
	Variant   BiweeklyVariant
	StartDate DueDate
	ManualFee *Money
	Today     DueDate
}

// Renew creates a new loan that pays off the old one's pending balance
// out of its own disbursement, then flags the old loan renewed. Fails
// with RenewalBlockedError when the old loan is ineligible or the new
// net disbursement would not be positive.
func Renew(old *Loan, params RenewParams) (*Loan, error) {
	if old.Renewed {
		return nil, &RenewalBlockedError{LoanID: old.ID, Reason: "already renewed"}
	}
	result := Allocate(old)
	if StatusWith(old, result, params.Today) == StatusCompleted {
		return nil, &RenewalBlockedError{LoanID: old.ID, Reason: "loan is completed"}
	}
	if PaidCount(old, result) < renewalMinimums[old.Plan] {
		return nil, &RenewalBlockedError{LoanID: old.ID, Reason: "not enough installments paid"}
	}

	payoff := PendingBalance(old, result)
	loan, err := CreateLoan(CreateLoanParams{
		ClientID:  old.ClientID,
		Principal: params.Principal,
		Plan:      params.Plan,
		Variant:   params.Variant,
		StartDate: params.StartDate,
		ManualFee: params.ManualFee,
	})
	if err != nil {
		return nil, err
	}
	loan.RenewalPayoff = payoff
	if !loan.NetDisbursed().IsPositive() {
		return nil, &RenewalBlockedError{
			LoanID: old.ID,
			Reason: "pending balance exceeds the new net disbursement",
		}
	}

	old.Renewed = true
	return loan, nil
}
