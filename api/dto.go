/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication, decoupled from the
  engine's internal types. Dates travel as "YYYY-MM-DD" strings and
  money as plain numbers.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
*/
package api

import (
	"time"

	"github.com/warp/microcredit-engine/credit"
)

// =============================================================================
// CLIENT TYPES
// =============================================================================

type ClientDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Document  string `json:"document,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateClientRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Document string `json:"document,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
}

// =============================================================================
// LOAN TYPES
// =============================================================================

type CreateLoanRequest struct {
	ClientID        string   `json:"client_id,omitempty"`
	Principal       float64  `json:"principal"`
	Plan            string   `json:"plan"`
	BiweeklyVariant string   `json:"biweekly_variant,omitempty"` // "1-16" or "5-20"
	StartDate       string   `json:"start_date"`                 // YYYY-MM-DD
	ManualFee       *float64 `json:"manual_fee,omitempty"`
	Tag             string   `json:"tag,omitempty"`
}

type LoanDTO struct {
	ID               string           `json:"id"`
	ClientID         string           `json:"client_id,omitempty"`
	Principal        float64          `json:"principal"`
	Plan             string           `json:"plan"`
	BiweeklyVariant  string           `json:"biweekly_variant,omitempty"`
	StartDate        string           `json:"start_date"`
	Fee              float64          `json:"fee"`
	NetDisbursed     float64          `json:"net_disbursed"`
	InstallmentValue float64          `json:"installment_value"`
	TotalDue         float64          `json:"total_due"`
	Renewed          bool             `json:"renewed"`
	Tag              string           `json:"tag,omitempty"`
	Installments     []InstallmentDTO `json:"installments"`
	ExtraPayments    []PaymentDTO     `json:"extra_payments,omitempty"`
	Discounts        []DiscountDTO    `json:"discounts,omitempty"`
	CreatedAt        string           `json:"created_at,omitempty"`
}

type InstallmentDTO struct {
	Sequence     int       `json:"sequence"`
	DueDate      string    `json:"due_date"`
	ManuallyPaid bool      `json:"manually_paid"`
	PaidDate     *string   `json:"paid_date,omitempty"`
	Fines        []FineDTO `json:"fines,omitempty"`
}

type FineDTO struct {
	ID        string  `json:"id"`
	Amount    float64 `json:"amount"`
	Reason    string  `json:"reason,omitempty"`
	CreatedAt string  `json:"created_at,omitempty"`
}

type PaymentDTO struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"`
	Target      int     `json:"target_installment,omitempty"`
	Description string  `json:"description,omitempty"`
}

type DiscountDTO struct {
	ID          string  `json:"id"`
	Amount      float64 `json:"amount"`
	Kind        string  `json:"kind"`
	Description string  `json:"description,omitempty"`
}

// =============================================================================
// ALLOCATION / STATUS TYPES
// =============================================================================

type AllocationDTO struct {
	LoanID       string                     `json:"loan_id"`
	Status       string                     `json:"status"`
	CanRenew     bool                       `json:"can_renew"`
	Installments []InstallmentAllocationDTO `json:"installments"`
	Unapplied    float64                    `json:"unapplied"`
}

type InstallmentAllocationDTO struct {
	Sequence         int     `json:"sequence"`
	DueDate          string  `json:"due_date"`
	ManuallyPaid     bool    `json:"manually_paid"`
	FineCovered      float64 `json:"fine_covered"`
	PrincipalCovered float64 `json:"principal_covered"`
	Remaining        float64 `json:"remaining"` // floored at zero
	Settled          bool    `json:"settled"`
}

type StatusDTO struct {
	LoanID   string `json:"loan_id"`
	Status   string `json:"status"`
	CanRenew bool   `json:"can_renew"`
}

// =============================================================================
// MUTATION REQUESTS
// =============================================================================

type AddFineRequest struct {
	Amount float64 `json:"amount"`
	Reason string  `json:"reason,omitempty"`
}

type AddPaymentRequest struct {
	Amount      float64 `json:"amount"`
	Date        string  `json:"date"` // YYYY-MM-DD, defaults to today
	Target      int     `json:"target_installment,omitempty"`
	Description string  `json:"description,omitempty"`
}

type AddDiscountRequest struct {
	Amount      float64 `json:"amount"`
	Kind        string  `json:"kind"` // "days" or "fee"
	Description string  `json:"description,omitempty"`
}

type MarkPaidRequest struct {
	PaidDate string `json:"paid_date,omitempty"` // YYYY-MM-DD, defaults to today
}

type EditDueDateRequest struct {
	DueDate string `json:"due_date"` // YYYY-MM-DD
}

type RenewRequest struct {
	Principal       float64  `json:"principal"`
	Plan            string   `json:"plan"`
	BiweeklyVariant string   `json:"biweekly_variant,omitempty"`
	StartDate       string   `json:"start_date"`
	ManualFee       *float64 `json:"manual_fee,omitempty"`
}

// =============================================================================
// CASH REGISTER
// =============================================================================

type CashSummaryDTO struct {
	Date          string  `json:"date"`
	PaymentsIn    float64 `json:"payments_in"`
	FeesCollected float64 `json:"fees_collected"`
	Disbursed     float64 `json:"disbursed"`
	LoansOpened   int     `json:"loans_opened"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func variantString(v credit.BiweeklyVariant) string {
	switch v {
	case credit.BiweeklyDays1and16:
		return "1-16"
	case credit.BiweeklyDays5and20:
		return "5-20"
	default:
		return ""
	}
}

func parseVariant(s string) credit.BiweeklyVariant {
	if s == "5-20" {
		return credit.BiweeklyDays5and20
	}
	return credit.BiweeklyDays1and16
}

func toLoanDTO(loan *credit.Loan) LoanDTO {
	dto := LoanDTO{
		ID:               loan.ID,
		ClientID:         loan.ClientID,
		Principal:        loan.Principal.Float64(),
		Plan:             string(loan.Plan),
		StartDate:        loan.StartDate.String(),
		Fee:              loan.Fee.Float64(),
		NetDisbursed:     loan.NetDisbursed().Float64(),
		InstallmentValue: loan.InstallmentValue.Float64(),
		TotalDue:         loan.TotalDue().Float64(),
		Renewed:          loan.Renewed,
		Tag:              string(loan.Tag),
		CreatedAt:        loan.CreatedAt.Format(time.RFC3339),
	}
	if loan.Plan == credit.PlanBiweekly {
		dto.BiweeklyVariant = variantString(loan.Variant)
	}

	dto.Installments = make([]InstallmentDTO, len(loan.Installments))
	for i := range loan.Installments {
		dto.Installments[i] = toInstallmentDTO(&loan.Installments[i])
	}
	for _, p := range loan.ExtraPayments {
		dto.ExtraPayments = append(dto.ExtraPayments, PaymentDTO{
			ID:          p.ID,
			Amount:      p.Amount.Float64(),
			Date:        p.Date.String(),
			Target:      p.Target,
			Description: p.Description,
		})
	}
	for _, d := range loan.Discounts {
		dto.Discounts = append(dto.Discounts, DiscountDTO{
			ID:          d.ID,
			Amount:      d.Amount.Float64(),
			Kind:        string(d.Kind),
			Description: d.Description,
		})
	}
	return dto
}

func toInstallmentDTO(inst *credit.Installment) InstallmentDTO {
	dto := InstallmentDTO{
		Sequence:     inst.Sequence,
		DueDate:      inst.DueDate.String(),
		ManuallyPaid: inst.ManuallyPaid,
	}
	if inst.PaidDate != nil {
		s := inst.PaidDate.String()
		dto.PaidDate = &s
	}
	for _, f := range inst.Fines {
		dto.Fines = append(dto.Fines, FineDTO{
			ID:        f.ID,
			Amount:    f.Amount.Float64(),
			Reason:    f.Reason,
			CreatedAt: f.CreatedAt.Format(time.RFC3339),
		})
	}
	return dto
}

func toAllocationDTO(loan *credit.Loan, result credit.AllocationResult, status credit.Status, canRenew bool) AllocationDTO {
	dto := AllocationDTO{
		LoanID:    loan.ID,
		Status:    string(status),
		CanRenew:  canRenew,
		Unapplied: result.Unapplied.Float64(),
	}
	dto.Installments = make([]InstallmentAllocationDTO, len(loan.Installments))
	for i := range loan.Installments {
		inst := &loan.Installments[i]
		alloc := result.Installments[inst.Sequence]
		dto.Installments[i] = InstallmentAllocationDTO{
			Sequence:         inst.Sequence,
			DueDate:          inst.DueDate.String(),
			ManuallyPaid:     inst.ManuallyPaid,
			FineCovered:      alloc.FineCovered.Float64(),
			PrincipalCovered: alloc.PrincipalCovered.Float64(),
			Remaining:        alloc.Outstanding().Float64(),
			Settled:          alloc.Settled(),
		}
	}
	return dto
}

func toClientDTO(c credit.Client) ClientDTO {
	return ClientDTO{
		ID:        c.ID,
		Name:      c.Name,
		Document:  c.Document,
		Phone:     c.Phone,
		Address:   c.Address,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}
