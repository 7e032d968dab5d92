package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/microcredit-engine/api"
	"github.com/warp/microcredit-engine/credit"
	"github.com/warp/microcredit-engine/credit/store"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	service := credit.NewService(store.NewMemory())
	handler := api.NewHandler(service, nil)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)
	return server
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createLoanViaAPI(t *testing.T, server *httptest.Server) api.LoanDTO {
	t.Helper()
	var loan api.LoanDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans", api.CreateLoanRequest{
		Principal: 100_000,
		Plan:      "weekly",
		StartDate: "2024-01-01",
	}, &loan)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return loan
}

// =============================================================================
// LOAN ENDPOINTS
// =============================================================================

func TestAPI_CreateLoan(t *testing.T) {
	server := newTestServer(t)

	loan := createLoanViaAPI(t, server)
	assert.NotEmpty(t, loan.ID)
	assert.Equal(t, "weekly", loan.Plan)
	assert.Len(t, loan.Installments, 10)
	assert.Equal(t, 12_000.0, loan.InstallmentValue)
	assert.Equal(t, 95_000.0, loan.NetDisbursed)
	assert.Equal(t, "2024-01-06", loan.Installments[0].DueDate)
}

func TestAPI_CreateLoan_Biweekly(t *testing.T) {
	server := newTestServer(t)

	var loan api.LoanDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans", api.CreateLoanRequest{
		Principal:       100_000,
		Plan:            "biweekly",
		BiweeklyVariant: "5-20",
		StartDate:       "2024-01-10",
	}, &loan)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "5-20", loan.BiweeklyVariant)
	assert.Equal(t, "2024-01-20", loan.Installments[0].DueDate)
}

func TestAPI_CreateLoan_Errors(t *testing.T) {
	server := newTestServer(t)

	// Off-table principal
	var errResp api.ErrorResponse
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans", api.CreateLoanRequest{
		Principal: 123_456,
		Plan:      "weekly",
		StartDate: "2024-01-01",
	}, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "invalid_request", errResp.Code)

	// Bad date
	resp = doJSON(t, http.MethodPost, server.URL+"/api/loans", api.CreateLoanRequest{
		Principal: 100_000,
		Plan:      "weekly",
		StartDate: "01/01/2024",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Unknown client
	resp = doJSON(t, http.MethodPost, server.URL+"/api/loans", api.CreateLoanRequest{
		ClientID:  "ghost",
		Principal: 100_000,
		Plan:      "weekly",
		StartDate: "2024-01-01",
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPI_GetLoan_NotFound(t *testing.T) {
	server := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/loans/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// PAYMENTS AND ALLOCATION
// =============================================================================

func TestAPI_PaymentAndAllocation(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	var payment api.PaymentDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/payments", api.AddPaymentRequest{
		Amount: 30_000,
		Date:   "2024-01-08",
	}, &payment)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, payment.ID)

	var alloc api.AllocationDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID+"/allocation", nil, &alloc)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Len(t, alloc.Installments, 10)
	assert.True(t, alloc.Installments[0].Settled)
	assert.True(t, alloc.Installments[1].Settled)
	assert.Equal(t, 6_000.0, alloc.Installments[2].PrincipalCovered)
	assert.Equal(t, 6_000.0, alloc.Installments[2].Remaining)
	assert.Equal(t, 0.0, alloc.Unapplied)
}

func TestAPI_TargetedPayment(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/payments", api.AddPaymentRequest{
		Amount: 12_000,
		Date:   "2024-01-08",
		Target: 5,
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var alloc api.AllocationDTO
	doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID+"/allocation", nil, &alloc)
	assert.True(t, alloc.Installments[4].Settled)
	assert.False(t, alloc.Installments[0].Settled)
}

func TestAPI_RemovePayment(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	var payment api.PaymentDTO
	doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/payments", api.AddPaymentRequest{
		Amount: 12_000,
		Date:   "2024-01-08",
	}, &payment)

	resp := doJSON(t, http.MethodDelete, server.URL+"/api/loans/"+loan.ID+"/payments/"+payment.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	var alloc api.AllocationDTO
	doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID+"/allocation", nil, &alloc)
	assert.False(t, alloc.Installments[0].Settled, "deleting the payment undoes its coverage")
}

// =============================================================================
// FINES AND INSTALLMENT OPERATIONS
// =============================================================================

func TestAPI_FineLifecycle(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	var fine api.FineDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/installments/1/fines", api.AddFineRequest{
		Amount: 2_000,
		Reason: "late",
	}, &fine)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Fine on a nonexistent installment
	resp = doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/installments/99/fines", api.AddFineRequest{
		Amount: 2_000,
	}, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete,
		server.URL+"/api/loans/"+loan.ID+"/installments/1/fines/"+fine.ID, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_MarkPaidAndStatus(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/installments/1/paid",
		api.MarkPaidRequest{PaidDate: "2024-01-06"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var got api.LoanDTO
	doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID, nil, &got)
	assert.True(t, got.Installments[0].ManuallyPaid)
	require.NotNil(t, got.Installments[0].PaidDate)
	assert.Equal(t, "2024-01-06", *got.Installments[0].PaidDate)

	var status api.StatusDTO
	resp = doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID+"/status", nil, &status)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, loan.ID, status.LoanID)
	assert.NotEmpty(t, status.Status)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/loans/"+loan.ID+"/installments/1/paid", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_EditDueDate(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	resp := doJSON(t, http.MethodPut, server.URL+"/api/loans/"+loan.ID+"/installments/2/due-date",
		api.EditDueDateRequest{DueDate: "2024-01-16"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var got api.LoanDTO
	doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID, nil, &got)
	assert.Equal(t, "2024-01-16", got.Installments[1].DueDate)
	assert.Equal(t, "2024-01-23", got.Installments[2].DueDate, "later installments shift by the same delta")
	assert.Equal(t, "2024-01-06", got.Installments[0].DueDate, "earlier installments stay put")

	// Editing a manually paid installment is rejected.
	doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/installments/3/paid", nil, nil)
	resp = doJSON(t, http.MethodPut, server.URL+"/api/loans/"+loan.ID+"/installments/3/due-date",
		api.EditDueDateRequest{DueDate: "2024-02-01"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// RENEWAL
// =============================================================================

func TestAPI_Renew(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	// Not yet eligible
	resp := doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/renew", api.RenewRequest{
		Principal: 200_000,
		Plan:      "weekly",
		StartDate: "2024-02-19",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	for seq := 1; seq <= 7; seq++ {
		doJSON(t, http.MethodPost,
			fmt.Sprintf("%s/api/loans/%s/installments/%d/paid", server.URL, loan.ID, seq), nil, nil)
	}

	var renewed api.LoanDTO
	resp = doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/renew", api.RenewRequest{
		Principal: 200_000,
		Plan:      "weekly",
		StartDate: "2024-02-19",
	}, &renewed)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	// 200,000 - 10,000 fee - 36,000 payoff of the three open installments
	assert.Equal(t, 154_000.0, renewed.NetDisbursed)

	var old api.LoanDTO
	doJSON(t, http.MethodGet, server.URL+"/api/loans/"+loan.ID, nil, &old)
	assert.True(t, old.Renewed)
}

// =============================================================================
// CLIENTS AND CASH REGISTER
// =============================================================================

func TestAPI_ClientLifecycle(t *testing.T) {
	server := newTestServer(t)

	var client api.ClientDTO
	resp := doJSON(t, http.MethodPost, server.URL+"/api/clients", api.CreateClientRequest{
		ID:   "c-1",
		Name: "Maria Lopez",
	}, &client)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/clients", api.CreateClientRequest{Name: "no id"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var clients []api.ClientDTO
	doJSON(t, http.MethodGet, server.URL+"/api/clients", nil, &clients)
	assert.Len(t, clients, 1)

	resp = doJSON(t, http.MethodDelete, server.URL+"/api/clients/c-1", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAPI_CashSummary(t *testing.T) {
	server := newTestServer(t)
	loan := createLoanViaAPI(t, server)

	doJSON(t, http.MethodPost, server.URL+"/api/loans/"+loan.ID+"/payments", api.AddPaymentRequest{
		Amount: 12_000,
		Date:   "2024-01-08",
	}, nil)

	var summary api.CashSummaryDTO
	resp := doJSON(t, http.MethodGet, server.URL+"/api/cash/2024-01-01", nil, &summary)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, summary.LoansOpened)
	assert.Equal(t, 5_000.0, summary.FeesCollected)
	assert.Equal(t, 95_000.0, summary.Disbursed)

	doJSON(t, http.MethodGet, server.URL+"/api/cash/2024-01-08", nil, &summary)
	assert.Equal(t, 12_000.0, summary.PaymentsIn)
	assert.Equal(t, 0, summary.LoansOpened)
}

func TestAPI_Rates(t *testing.T) {
	server := newTestServer(t)

	var rates map[string][]float64
	resp := doJSON(t, http.MethodGet, server.URL+"/api/rates", nil, &rates)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, rates, "daily")
	assert.Contains(t, rates, "monthly")
	assert.Len(t, rates["daily"], 19)   // 100k..1M step 50k
	assert.Len(t, rates["monthly"], 10) // 100k..1M step 100k
}
