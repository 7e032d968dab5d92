/*
status.go - Derived lifecycle state

PURPOSE:
  A loan's state is never stored. It is recomputed on every read from
  the allocation output plus today's date:

    Completed:  every installment is marked paid or fully covered
    Delinquent: not completed, and some unpaid, uncovered installment
                is past due
    Active:     everything else

  Renewal eligibility is a separate derived predicate.
*/
package credit

// Status is the derived lifecycle state of a loan.
type Status string

const (
	StatusActive     Status = "active"
	StatusDelinquent Status = "delinquent"
	StatusCompleted  Status = "completed"
)

// LoanStatus derives the lifecycle state from a fresh allocation.
func LoanStatus(loan *Loan, today DueDate) Status {
	return StatusWith(loan, Allocate(loan), today)
}

// StatusWith derives the lifecycle state from an existing allocation,
// for callers that already ran the waterfall.
func StatusWith(loan *Loan, result AllocationResult, today DueDate) Status {
	completed := true
	delinquent := false

	for i := range loan.Installments {
		inst := &loan.Installments[i]
		if inst.ManuallyPaid {
			continue
		}
		alloc := result.Installments[inst.Sequence]
		if alloc.Settled() {
			continue
		}
		completed = false
		if inst.DueDate.Before(today) {
			delinquent = true
		}
	}

	switch {
	case completed:
		return StatusCompleted
	case delinquent:
		return StatusDelinquent
	default:
		return StatusActive
	}
}

// Minimum count of paid installments before a loan may be renewed.
var renewalMinimums = map[LoanPlan]int{
	PlanDaily:    40,
	PlanWeekly:   7,
	PlanBiweekly: 3,
	PlanMonthly:  2,
}

// CanRenew reports renewal eligibility: not already renewed, not
// completed, and enough installments settled (by hand or by waterfall)
// for the plan.
func CanRenew(loan *Loan, today DueDate) bool {
	if loan.Renewed {
		return false
	}
	result := Allocate(loan)
	if StatusWith(loan, result, today) == StatusCompleted {
		return false
	}
	return PaidCount(loan, result) >= renewalMinimums[loan.Plan]
}

// PaidCount counts installments considered paid: marked by hand or
// fully covered by the waterfall.
func PaidCount(loan *Loan, result AllocationResult) int {
	count := 0
	for i := range loan.Installments {
		inst := &loan.Installments[i]
		if inst.ManuallyPaid || result.Installments[inst.Sequence].Settled() {
			count++
		}
	}
	return count
}

// PendingBalance sums the outstanding figure across all installments:
// what a renewal must pay off before disbursing.
func PendingBalance(loan *Loan, result AllocationResult) Money {
	total := Money{}
	for i := range loan.Installments {
		inst := &loan.Installments[i]
		if inst.ManuallyPaid {
			continue
		}
		total = total.Add(result.Installments[inst.Sequence].Outstanding())
	}
	return total
}
