/*
handlers.go - HTTP API handlers for the microcredit engine

PURPOSE:
  Exposes the loan engine via REST. Handles HTTP request/response and
  JSON serialization, and delegates everything else to credit.Service.

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input shape (dates, plans)
  3. Call the service
  4. Serialize response
  5. Map errors

ERROR HANDLING:
  Engine errors are classified centrally (credit/errors.go):
  - 400: invalid input (amounts, unsupported plans, locked edits, blocked renewals)
  - 404: missing loans, clients, installments, sub-records
  - 500: everything else

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"github.com/warp/microcredit-engine/credit"
)

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *credit.Service
	Log     *logrus.Logger
}

// NewHandler creates a new handler around the given service.
func NewHandler(service *credit.Service, log *logrus.Logger) *Handler {
	if log == nil {
		log = logrus.New()
	}
	return &Handler{Service: service, Log: log}
}

// =============================================================================
// CLIENT HANDLERS
// =============================================================================

func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	clients, err := h.Service.ListClients(r.Context())
	if err != nil {
		h.writeError(w, "failed to list clients", err)
		return
	}
	dtos := make([]ClientDTO, len(clients))
	for i, c := range clients {
		dtos[i] = toClientDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if req.ID == "" || req.Name == "" {
		writeBadRequest(w, "id and name are required")
		return
	}
	client := credit.Client{
		ID:        req.ID,
		Name:      req.Name,
		Document:  req.Document,
		Phone:     req.Phone,
		Address:   req.Address,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Service.SaveClient(r.Context(), client); err != nil {
		h.writeError(w, "failed to save client", err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientDTO(client))
}

func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.Service.GetClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "failed to get client", err)
		return
	}
	writeJSON(w, http.StatusOK, toClientDTO(*client))
}

func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteClient(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "failed to delete client", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListClientLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Service.ListLoansByClient(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "failed to list loans", err)
		return
	}
	dtos := make([]LoanDTO, len(loans))
	for i, loan := range loans {
		dtos[i] = toLoanDTO(loan)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// LOAN HANDLERS
// =============================================================================

func (h *Handler) ListLoans(w http.ResponseWriter, r *http.Request) {
	loans, err := h.Service.ListLoans(r.Context())
	if err != nil {
		h.writeError(w, "failed to list loans", err)
		return
	}
	dtos := make([]LoanDTO, len(loans))
	for i, loan := range loans {
		dtos[i] = toLoanDTO(loan)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) CreateLoan(w http.ResponseWriter, r *http.Request) {
	var req CreateLoanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, err := credit.ParseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, "invalid start_date (use YYYY-MM-DD)")
		return
	}

	params := credit.CreateLoanParams{
		ClientID:  req.ClientID,
		Principal: credit.NewMoneyFromFloat(req.Principal),
		Plan:      credit.LoanPlan(req.Plan),
		StartDate: start,
		Tag:       credit.LoanTag(req.Tag),
	}
	if params.Plan == credit.PlanBiweekly {
		params.Variant = parseVariant(req.BiweeklyVariant)
	}
	if req.ManualFee != nil {
		fee := credit.NewMoneyFromFloat(*req.ManualFee)
		params.ManualFee = &fee
	}

	loan, err := h.Service.CreateLoan(r.Context(), params)
	if err != nil {
		h.writeError(w, "failed to create loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(loan))
}

func (h *Handler) GetLoan(w http.ResponseWriter, r *http.Request) {
	loan, err := h.Service.GetLoan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, "failed to get loan", err)
		return
	}
	writeJSON(w, http.StatusOK, toLoanDTO(loan))
}

func (h *Handler) DeleteLoan(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteLoan(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeError(w, "failed to delete loan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// DERIVED READS
// =============================================================================

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	loan, err := h.Service.GetLoan(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to get loan", err)
		return
	}
	result := credit.Allocate(loan)
	today := credit.Today()
	status := credit.StatusWith(loan, result, today)
	writeJSON(w, http.StatusOK, toAllocationDTO(loan, result, status, credit.CanRenew(loan, today)))
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	loan, err := h.Service.GetLoan(r.Context(), id)
	if err != nil {
		h.writeError(w, "failed to get loan", err)
		return
	}
	today := credit.Today()
	writeJSON(w, http.StatusOK, StatusDTO{
		LoanID:   loan.ID,
		Status:   string(credit.LoanStatus(loan, today)),
		CanRenew: credit.CanRenew(loan, today),
	})
}

// =============================================================================
// RENEWAL
// =============================================================================

func (h *Handler) RenewLoan(w http.ResponseWriter, r *http.Request) {
	var req RenewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	start, err := credit.ParseDate(req.StartDate)
	if err != nil {
		writeBadRequest(w, "invalid start_date (use YYYY-MM-DD)")
		return
	}

	params := credit.RenewParams{
		Principal: credit.NewMoneyFromFloat(req.Principal),
		Plan:      credit.LoanPlan(req.Plan),
		StartDate: start,
	}
	if params.Plan == credit.PlanBiweekly {
		params.Variant = parseVariant(req.BiweeklyVariant)
	}
	if req.ManualFee != nil {
		fee := credit.NewMoneyFromFloat(*req.ManualFee)
		params.ManualFee = &fee
	}

	loan, err := h.Service.Renew(r.Context(), chi.URLParam(r, "id"), params)
	if err != nil {
		h.writeError(w, "failed to renew loan", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLoanDTO(loan))
}

// =============================================================================
// PAYMENTS / DISCOUNTS
// =============================================================================

func (h *Handler) AddPayment(w http.ResponseWriter, r *http.Request) {
	var req AddPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	date := credit.Today()
	if req.Date != "" {
		var err error
		if date, err = credit.ParseDate(req.Date); err != nil {
			writeBadRequest(w, "invalid date (use YYYY-MM-DD)")
			return
		}
	}

	payment, err := h.Service.AddExtraPayment(r.Context(), chi.URLParam(r, "id"),
		credit.NewMoneyFromFloat(req.Amount), date, req.Target, req.Description)
	if err != nil {
		h.writeError(w, "failed to add payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, PaymentDTO{
		ID:          payment.ID,
		Amount:      payment.Amount.Float64(),
		Date:        payment.Date.String(),
		Target:      payment.Target,
		Description: payment.Description,
	})
}

func (h *Handler) RemovePayment(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RemoveExtraPayment(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "paymentID"))
	if err != nil {
		h.writeError(w, "failed to remove payment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddDiscount(w http.ResponseWriter, r *http.Request) {
	var req AddDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	kind := credit.DiscountKind(req.Kind)
	if kind != credit.DiscountDays && kind != credit.DiscountFee {
		writeBadRequest(w, `kind must be "days" or "fee"`)
		return
	}

	discount, err := h.Service.AddDiscount(r.Context(), chi.URLParam(r, "id"),
		credit.NewMoneyFromFloat(req.Amount), kind, req.Description)
	if err != nil {
		h.writeError(w, "failed to add discount", err)
		return
	}
	writeJSON(w, http.StatusCreated, DiscountDTO{
		ID:          discount.ID,
		Amount:      discount.Amount.Float64(),
		Kind:        string(discount.Kind),
		Description: discount.Description,
	})
}

func (h *Handler) RemoveDiscount(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RemoveDiscount(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "discountID"))
	if err != nil {
		h.writeError(w, "failed to remove discount", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// INSTALLMENT HANDLERS
// =============================================================================

func (h *Handler) AddFine(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeq(w, r)
	if !ok {
		return
	}
	var req AddFineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	fine, err := h.Service.AddFine(r.Context(), chi.URLParam(r, "id"), seq,
		credit.NewMoneyFromFloat(req.Amount), req.Reason)
	if err != nil {
		h.writeError(w, "failed to add fine", err)
		return
	}
	writeJSON(w, http.StatusCreated, FineDTO{
		ID:        fine.ID,
		Amount:    fine.Amount.Float64(),
		Reason:    fine.Reason,
		CreatedAt: fine.CreatedAt.Format(time.RFC3339),
	})
}

func (h *Handler) RemoveFine(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeq(w, r)
	if !ok {
		return
	}
	err := h.Service.RemoveFine(r.Context(), chi.URLParam(r, "id"), seq, chi.URLParam(r, "fineID"))
	if err != nil {
		h.writeError(w, "failed to remove fine", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MarkPaid(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeq(w, r)
	if !ok {
		return
	}
	var req MarkPaidRequest
	// Body is optional; an empty body means "paid today".
	_ = json.NewDecoder(r.Body).Decode(&req)

	var paidDate *credit.DueDate
	if req.PaidDate != "" {
		d, err := credit.ParseDate(req.PaidDate)
		if err != nil {
			writeBadRequest(w, "invalid paid_date (use YYYY-MM-DD)")
			return
		}
		paidDate = &d
	}

	if err := h.Service.MarkPaid(r.Context(), chi.URLParam(r, "id"), seq, paidDate); err != nil {
		h.writeError(w, "failed to mark installment paid", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) UnmarkPaid(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeq(w, r)
	if !ok {
		return
	}
	if err := h.Service.UnmarkPaid(r.Context(), chi.URLParam(r, "id"), seq); err != nil {
		h.writeError(w, "failed to unmark installment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) EditDueDate(w http.ResponseWriter, r *http.Request) {
	seq, ok := parseSeq(w, r)
	if !ok {
		return
	}
	var req EditDueDateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	newDate, err := credit.ParseDate(req.DueDate)
	if err != nil {
		writeBadRequest(w, "invalid due_date (use YYYY-MM-DD)")
		return
	}

	if err := h.Service.EditDueDate(r.Context(), chi.URLParam(r, "id"), seq, newDate); err != nil {
		h.writeError(w, "failed to edit due date", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// CASH REGISTER / RATES
// =============================================================================

func (h *Handler) GetCashSummary(w http.ResponseWriter, r *http.Request) {
	date, err := credit.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		writeBadRequest(w, "invalid date (use YYYY-MM-DD)")
		return
	}
	summary, err := h.Service.CashDaySummary(r.Context(), date)
	if err != nil {
		h.writeError(w, "failed to build cash summary", err)
		return
	}
	writeJSON(w, http.StatusOK, CashSummaryDTO{
		Date:          summary.Date.String(),
		PaymentsIn:    summary.PaymentsIn.Float64(),
		FeesCollected: summary.FeesCollected.Float64(),
		Disbursed:     summary.Disbursed.Float64(),
		LoansOpened:   summary.LoansOpened,
	})
}

func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	rates := credit.SupportedRates()
	out := make(map[string][]float64, len(rates))
	for plan, principals := range rates {
		for _, p := range principals {
			out[string(plan)] = append(out[string(plan)], p.Float64())
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// HELPERS
// =============================================================================

func parseSeq(w http.ResponseWriter, r *http.Request) (int, bool) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil || seq < 1 {
		writeBadRequest(w, "invalid installment sequence")
		return 0, false
	}
	return seq, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: msg, Code: "bad_request"})
}

// writeError maps engine errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, msg string, err error) {
	switch {
	case credit.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "not_found"})
	case credit.IsClientError(err):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "invalid_request"})
	default:
		h.Log.WithError(err).Error(msg)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: msg, Code: "internal"})
	}
}
