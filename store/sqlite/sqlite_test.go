package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/microcredit-engine/credit"
	"github.com/warp/microcredit-engine/store/sqlite"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func newStoredLoan(t *testing.T) *credit.Loan {
	t.Helper()
	loan, err := credit.CreateLoan(credit.CreateLoanParams{
		ClientID:  "c-1",
		Principal: credit.NewMoney(100_000),
		Plan:      credit.PlanBiweekly,
		Variant:   credit.BiweeklyDays5and20,
		StartDate: credit.NewDate(2024, 1, 10),
		Tag:       credit.TagWatch,
	})
	require.NoError(t, err)
	return loan
}

// =============================================================================
// LOAN ROUNDTRIP
// =============================================================================

func TestStore_LoanRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	loan := newStoredLoan(t)

	paid := credit.NewDate(2024, 1, 20)
	require.NoError(t, loan.MarkPaid(1, &paid))
	_, err := loan.AddFine(2, credit.NewMoney(1_500), "late")
	require.NoError(t, err)
	_, err = loan.AddExtraPayment(credit.NewMoney(7_000), credit.NewDate(2024, 1, 22), 3, "extra")
	require.NoError(t, err)
	_, err = loan.AddDiscount(credit.NewMoney(2_000), credit.DiscountFee, "promo")
	require.NoError(t, err)

	require.NoError(t, store.SaveLoan(ctx, loan))

	got, err := store.GetLoan(ctx, loan.ID)
	require.NoError(t, err)

	assert.Equal(t, loan.ID, got.ID)
	assert.Equal(t, "c-1", got.ClientID)
	assert.Equal(t, credit.PlanBiweekly, got.Plan)
	assert.Equal(t, credit.BiweeklyDays5and20, got.Variant)
	assert.Equal(t, credit.TagWatch, got.Tag)
	assert.True(t, got.Principal.Equal(loan.Principal))
	assert.True(t, got.Fee.Equal(loan.Fee))
	assert.True(t, got.InstallmentValue.Equal(loan.InstallmentValue))
	assert.True(t, got.StartDate.Equal(loan.StartDate))

	require.Len(t, got.Installments, len(loan.Installments))
	inst1 := got.Installments[0]
	assert.True(t, inst1.ManuallyPaid)
	require.NotNil(t, inst1.PaidDate)
	assert.True(t, inst1.PaidDate.Equal(paid))

	inst2 := got.Installments[1]
	require.Len(t, inst2.Fines, 1)
	assert.True(t, inst2.Fines[0].Amount.Equal(credit.NewMoney(1_500)))
	assert.Equal(t, "late", inst2.Fines[0].Reason)

	require.Len(t, got.ExtraPayments, 1)
	assert.Equal(t, 3, got.ExtraPayments[0].Target)
	assert.True(t, got.ExtraPayments[0].Date.Equal(credit.NewDate(2024, 1, 22)))

	require.Len(t, got.Discounts, 1)
	assert.Equal(t, credit.DiscountFee, got.Discounts[0].Kind)
}

func TestStore_SaveReplacesSubRecords(t *testing.T) {
	// Re-saving a loan after removing a fine must not resurrect it.
	store := newTestStore(t)
	ctx := context.Background()
	loan := newStoredLoan(t)

	fine, err := loan.AddFine(1, credit.NewMoney(1_000), "late")
	require.NoError(t, err)
	require.NoError(t, store.SaveLoan(ctx, loan))

	require.NoError(t, loan.RemoveFine(1, fine.ID))
	require.NoError(t, store.SaveLoan(ctx, loan))

	got, err := store.GetLoan(ctx, loan.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Installments[0].Fines)
}

func TestStore_AllocationSurvivesPersistence(t *testing.T) {
	// The waterfall over a reloaded loan matches the in-memory one.
	store := newTestStore(t)
	ctx := context.Background()
	loan := newStoredLoan(t)

	_, err := loan.AddExtraPayment(credit.NewMoney(50_000), credit.NewDate(2024, 1, 22), 0, "")
	require.NoError(t, err)
	require.NoError(t, store.SaveLoan(ctx, loan))

	got, err := store.GetLoan(ctx, loan.ID)
	require.NoError(t, err)

	before := credit.Allocate(loan)
	after := credit.Allocate(got)
	assert.True(t, before.Unapplied.Equal(after.Unapplied))
	for seq := range before.Installments {
		assert.True(t, before.Installments[seq].Remaining.Equal(after.Installments[seq].Remaining),
			"inst %d remaining diverges after reload", seq)
	}
}

func TestStore_ListAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a, b := newStoredLoan(t), newStoredLoan(t)
	require.NoError(t, store.SaveLoan(ctx, a))
	require.NoError(t, store.SaveLoan(ctx, b))

	loans, err := store.ListLoans(ctx)
	require.NoError(t, err)
	assert.Len(t, loans, 2)

	byClient, err := store.ListLoansByClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Len(t, byClient, 2)

	require.NoError(t, store.DeleteLoan(ctx, a.ID))
	_, err = store.GetLoan(ctx, a.ID)
	assert.ErrorIs(t, err, credit.ErrLoanNotFound)
	assert.ErrorIs(t, store.DeleteLoan(ctx, a.ID), credit.ErrLoanNotFound)
}

// =============================================================================
// CLIENTS
// =============================================================================

func TestStore_ClientRoundtrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	client := credit.Client{
		ID:       "c-1",
		Name:     "Maria Lopez",
		Document: "12345678",
		Phone:    "555-0101",
		Address:  "Calle 10 #4-32",
	}
	require.NoError(t, store.SaveClient(ctx, client))

	got, err := store.GetClient(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, client.Name, got.Name)
	assert.Equal(t, client.Document, got.Document)

	clients, err := store.ListClients(ctx)
	require.NoError(t, err)
	assert.Len(t, clients, 1)

	require.NoError(t, store.DeleteClient(ctx, "c-1"))
	_, err = store.GetClient(ctx, "c-1")
	assert.ErrorIs(t, err, credit.ErrClientNotFound)
}
