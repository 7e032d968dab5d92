/*
errors.go - Centralized error types for the credit engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers match with errors.Is/errors.As; the HTTP layer maps the
  classifier helpers to status codes.

ERROR CATEGORIES:
  1. Rate table errors - unsupported (principal, plan) pairs
  2. Validation errors - non-positive amounts, locked installments
  3. Lifecycle errors - blocked renewals, missing records
*/
package credit

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrUnsupportedPlan is returned when a (principal, plan) pair is not
	// in the rate table. The table covers a closed set; nothing is interpolated.
	ErrUnsupportedPlan = errors.New("unsupported principal/plan combination")

	// ErrInvalidAmount is returned for a non-positive fine, extra payment,
	// or manual fee. Rejected before the ledger is mutated.
	ErrInvalidAmount = errors.New("amount must be positive")

	// ErrEditLockedInstallment is returned when editing the due date of an
	// installment already marked paid.
	ErrEditLockedInstallment = errors.New("installment is marked paid and cannot be edited")

	// ErrRenewalBlocked is returned when a loan is not eligible for renewal.
	ErrRenewalBlocked = errors.New("loan is not eligible for renewal")

	// ErrLoanNotFound is returned when a referenced loan doesn't exist.
	ErrLoanNotFound = errors.New("loan not found")

	// ErrClientNotFound is returned when a referenced client doesn't exist.
	ErrClientNotFound = errors.New("client not found")

	// ErrInstallmentNotFound is returned for an unknown sequence number.
	ErrInstallmentNotFound = errors.New("installment not found")

	// ErrFineNotFound is returned when removing a fine that doesn't exist.
	ErrFineNotFound = errors.New("fine not found")

	// ErrPaymentNotFound is returned when removing an extra payment that
	// doesn't exist.
	ErrPaymentNotFound = errors.New("extra payment not found")

	// ErrDiscountNotFound is returned when removing a discount that doesn't exist.
	ErrDiscountNotFound = errors.New("discount not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// UnsupportedPlanError reports the pair that missed the rate table.
type UnsupportedPlanError struct {
	Principal Money
	Plan      LoanPlan
}

func (e *UnsupportedPlanError) Error() string {
	return fmt.Sprintf("no rate for principal %s on plan %q", e.Principal, e.Plan)
}

func (e *UnsupportedPlanError) Unwrap() error { return ErrUnsupportedPlan }

// InvalidAmountError reports the offending amount and where it was used.
type InvalidAmountError struct {
	Field  string // "fine", "extra_payment", "manual_fee", "discount"
	Amount Money
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("invalid %s amount %s: must be positive", e.Field, e.Amount)
}

func (e *InvalidAmountError) Unwrap() error { return ErrInvalidAmount }

// EditLockedInstallmentError identifies the locked installment.
type EditLockedInstallmentError struct {
	LoanID   string
	Sequence int
}

func (e *EditLockedInstallmentError) Error() string {
	return fmt.Sprintf("installment %d of loan %s is marked paid", e.Sequence, e.LoanID)
}

func (e *EditLockedInstallmentError) Unwrap() error { return ErrEditLockedInstallment }

// RenewalBlockedError explains why a renewal was refused.
type RenewalBlockedError struct {
	LoanID string
	Reason string
}

func (e *RenewalBlockedError) Error() string {
	return fmt.Sprintf("renewal blocked for loan %s: %s", e.LoanID, e.Reason)
}

func (e *RenewalBlockedError) Unwrap() error { return ErrRenewalBlocked }

// InstallmentNotFoundError identifies the missing sequence number.
type InstallmentNotFoundError struct {
	LoanID   string
	Sequence int
}

func (e *InstallmentNotFoundError) Error() string {
	return fmt.Sprintf("loan %s has no installment %d", e.LoanID, e.Sequence)
}

func (e *InstallmentNotFoundError) Unwrap() error { return ErrInstallmentNotFound }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrUnsupportedPlan) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrEditLockedInstallment) ||
		errors.Is(err, ErrRenewalBlocked)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrInstallmentNotFound) ||
		errors.Is(err, ErrFineNotFound) ||
		errors.Is(err, ErrPaymentNotFound) ||
		errors.Is(err, ErrDiscountNotFound)
}
