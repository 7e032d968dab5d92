/*
rates.go - Static rate table and origination fee formula

PURPOSE:
  The rate table is a closed lookup: (principal, plan) -> (installment
  count, installment value). Installment values come from a fixed margin
  per plan, not from dynamic amortization, and are rounded up to the
  nearest 100 so the repayment total always covers the principal plus
  the interest margin. Arbitrary principals are not interpolated.

INVARIANT:
  installmentCount * installmentValue >= principal for every entry.
*/
package credit

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Rate is one rate table entry.
type Rate struct {
	Installments     int
	InstallmentValue Money
}

type rateKey struct {
	principal string
	plan      LoanPlan
}

// Repayment margin per plan. Shorter cadences carry the same 20% margin;
// monthly loans carry 30% for the longer exposure.
var planMargins = map[LoanPlan]decimal.Decimal{
	PlanDaily:    decimal.NewFromFloat(0.20),
	PlanWeekly:   decimal.NewFromFloat(0.20),
	PlanBiweekly: decimal.NewFromFloat(0.20),
	PlanMonthly:  decimal.NewFromFloat(0.30),
}

// Principal steps covered by the table.
const (
	minPrincipal    = 100_000
	maxPrincipal    = 1_000_000
	shortPlanStep   = 50_000  // daily, weekly
	longPlanStep    = 100_000 // biweekly, monthly
	feeUnit         = 100_000
	feePerUnit      = 5_000
	valueRoundingTo = 100
)

var rateTable = buildRateTable()

func buildRateTable() map[rateKey]Rate {
	table := make(map[rateKey]Rate)
	add := func(principal int64, plan LoanPlan) {
		p := decimal.NewFromInt(principal)
		total := p.Add(p.Mul(planMargins[plan]))
		count := plan.InstallmentCount()
		// Round each installment up to the nearest 100 so the schedule
		// never undershoots the margin total.
		value := total.
			Div(decimal.NewFromInt(int64(count))).
			Div(decimal.NewFromInt(valueRoundingTo)).
			Ceil().
			Mul(decimal.NewFromInt(valueRoundingTo))
		table[rateKey{principal: p.String(), plan: plan}] = Rate{
			Installments:     count,
			InstallmentValue: Money{Value: value},
		}
	}

	for p := int64(minPrincipal); p <= maxPrincipal; p += shortPlanStep {
		add(p, PlanDaily)
		add(p, PlanWeekly)
	}
	for p := int64(minPrincipal); p <= maxPrincipal; p += longPlanStep {
		add(p, PlanBiweekly)
		add(p, PlanMonthly)
	}
	return table
}

// LookupRate returns the rate table entry for (principal, plan).
// Fails with UnsupportedPlanError when the pair is outside the table.
func LookupRate(principal Money, plan LoanPlan) (Rate, error) {
	r, ok := rateTable[rateKey{principal: principal.Value.String(), plan: plan}]
	if !ok {
		return Rate{}, &UnsupportedPlanError{Principal: principal, Plan: plan}
	}
	return r, nil
}

// SupportedRates returns every principal on the table per plan, in
// ascending order, for display.
func SupportedRates() map[LoanPlan][]Money {
	out := make(map[LoanPlan][]Money)
	for k := range rateTable {
		out[k.plan] = append(out[k.plan], MustParseMoney(k.principal))
	}
	for _, principals := range out {
		sort.Slice(principals, func(i, j int) bool {
			return principals[i].LessThan(principals[j])
		})
	}
	return out
}

// Fee computes the origination fee: 5,000 per 100,000 of principal,
// rounded to the nearest unit.
func Fee(principal Money) Money {
	return Money{Value: principal.Value.
		Div(decimal.NewFromInt(feeUnit)).
		Mul(decimal.NewFromInt(feePerUnit)).
		Round(0)}
}
