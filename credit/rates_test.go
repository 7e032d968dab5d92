package credit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/warp/microcredit-engine/credit"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func money(v int64) credit.Money {
	return credit.NewMoney(v)
}

func date(y, m, d int) credit.DueDate {
	return credit.NewDate(y, time.Month(m), d)
}

// =============================================================================
// RATE TABLE TESTS
// =============================================================================

func TestLookupRate_KnownEntries(t *testing.T) {
	// GIVEN: the closed rate table
	// WHEN: looking up listed principal/plan pairs
	// THEN: installment counts match the plan and values are rounded to 100

	cases := []struct {
		principal int64
		plan      credit.LoanPlan
		count     int
	}{
		{100_000, credit.PlanDaily, 60},
		{500_000, credit.PlanWeekly, 10},
		{300_000, credit.PlanBiweekly, 5},
		{1_000_000, credit.PlanMonthly, 3},
	}

	for _, tc := range cases {
		rate, err := credit.LookupRate(money(tc.principal), tc.plan)
		if err != nil {
			t.Fatalf("LookupRate(%d, %s): %v", tc.principal, tc.plan, err)
		}
		if rate.Installments != tc.count {
			t.Errorf("LookupRate(%d, %s): installments = %d, want %d",
				tc.principal, tc.plan, rate.Installments, tc.count)
		}
		if !rate.InstallmentValue.Value.Mod(credit.NewMoney(100).Value).IsZero() {
			t.Errorf("LookupRate(%d, %s): value %s not rounded to 100",
				tc.principal, tc.plan, rate.InstallmentValue)
		}
	}
}

func TestLookupRate_DailyExample(t *testing.T) {
	// GIVEN: principal 300,000 on the daily plan (20% margin over 60 days)
	// WHEN: looking up the rate
	// THEN: 360,000 total over 60 installments = 6,000 each

	rate, err := credit.LookupRate(money(300_000), credit.PlanDaily)
	if err != nil {
		t.Fatal(err)
	}
	if !rate.InstallmentValue.Equal(money(6_000)) {
		t.Errorf("installment value = %s, want 6000", rate.InstallmentValue)
	}
}

func TestLookupRate_TotalCoversMargin(t *testing.T) {
	// Installment rounding is always upward, so count*value never drops
	// below principal plus margin.
	for plan, principals := range credit.SupportedRates() {
		margin := map[credit.LoanPlan]float64{
			credit.PlanDaily:    1.20,
			credit.PlanWeekly:   1.20,
			credit.PlanBiweekly: 1.20,
			credit.PlanMonthly:  1.30,
		}[plan]
		for _, p := range principals {
			rate, err := credit.LookupRate(p, plan)
			if err != nil {
				t.Fatalf("LookupRate(%s, %s): %v", p, plan, err)
			}
			total := rate.InstallmentValue.Value.Mul(credit.NewMoney(int64(rate.Installments)).Value)
			want := p.Value.InexactFloat64() * margin
			if total.InexactFloat64() < want {
				t.Errorf("%s %s: total %s below principal+margin %.0f", plan, p, total, want)
			}
		}
	}
}

func TestLookupRate_OffTable(t *testing.T) {
	// GIVEN: principals not on the table (below min, off-step, above max)
	// THEN: a typed UnsupportedPlanError wrapping ErrUnsupportedPlan

	for _, principal := range []int64{50_000, 125_000, 1_100_000} {
		_, err := credit.LookupRate(money(principal), credit.PlanDaily)
		if !errors.Is(err, credit.ErrUnsupportedPlan) {
			t.Errorf("LookupRate(%d): err = %v, want ErrUnsupportedPlan", principal, err)
		}
		var upe *credit.UnsupportedPlanError
		if !errors.As(err, &upe) {
			t.Errorf("LookupRate(%d): err is not UnsupportedPlanError", principal)
		}
	}
}

func TestLookupRate_BiweeklyStep(t *testing.T) {
	// Biweekly and monthly plans step by 100k, so 150k is off-table for
	// them while valid for daily and weekly.
	if _, err := credit.LookupRate(money(150_000), credit.PlanDaily); err != nil {
		t.Errorf("daily 150k should be on the table: %v", err)
	}
	if _, err := credit.LookupRate(money(150_000), credit.PlanBiweekly); err == nil {
		t.Error("biweekly 150k should be off the table")
	}
}

// =============================================================================
// FEE TESTS
// =============================================================================

func TestFee(t *testing.T) {
	cases := []struct {
		principal int64
		fee       int64
	}{
		{100_000, 5_000},
		{300_000, 15_000},
		{1_000_000, 50_000},
	}
	for _, tc := range cases {
		got := credit.Fee(money(tc.principal))
		if !got.Equal(money(tc.fee)) {
			t.Errorf("Fee(%d) = %s, want %d", tc.principal, got, tc.fee)
		}
	}
}

func TestNetDisbursed(t *testing.T) {
	// GIVEN: a 300,000 loan with the standard fee
	// THEN: the client receives 285,000 in cash

	loan, err := credit.CreateLoan(credit.CreateLoanParams{
		Principal: money(300_000),
		Plan:      credit.PlanDaily,
		StartDate: date(2024, 1, 10),
	})
	if err != nil {
		t.Fatal(err)
	}
	if !loan.NetDisbursed().Equal(money(285_000)) {
		t.Errorf("NetDisbursed = %s, want 285000", loan.NetDisbursed())
	}
}
