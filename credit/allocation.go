/*
allocation.go - The payment waterfall

PURPOSE:
  Allocates the loan's extra payments ("abonos") across outstanding
  installments. This is the central algorithm: deterministic, pure, and
  recomputed from the current ledger contents on every read. Loans are
  small (at most 60 installments), so recomputing beats maintaining
  incremental state that could drift.

ORDERING RULES:
  1. Targeted payments post first, each against its named installment
     only, fines before principal, regardless of the paid flag.
  2. General payments merge into one pool (order among them is
     irrelevant) and walk installments in ascending sequence.
  3. Within an installment, fines are funded before principal. A fine
     only partially covered blocks that installment's principal, and the
     walk moves on to the next installment.
  4. Installments marked paid by hand are skipped by the pool but report
     their full value as covered.
  5. Whatever the pool cannot place is exposed as an unapplied
     remainder, never dropped.
*/
package credit

// InstallmentAllocation is the waterfall output for one installment.
type InstallmentAllocation struct {
	Sequence         int
	FineCovered      Money
	PrincipalCovered Money
	// Remaining is unfloored: (value - principalCovered) + (fines - fineCovered).
	// Negative means overcovered. Use Outstanding() for display.
	Remaining Money
}

// Outstanding is the display figure: Remaining floored at zero.
func (a InstallmentAllocation) Outstanding() Money { return a.Remaining.FloorZero() }

// Settled reports whether nothing is left to pay on this installment.
func (a InstallmentAllocation) Settled() bool { return a.Remaining.LessThanOrZero() }

// AllocationResult maps sequence numbers to their covered amounts.
type AllocationResult struct {
	Installments map[int]InstallmentAllocation
	// Unapplied is the pool amount exceeding total outstanding, plus any
	// targeted excess beyond its installment's own outstanding.
	Unapplied Money
}

// Allocate runs the waterfall over a loan snapshot. Read-only and
// idempotent: calling it twice on the same snapshot yields identical
// results.
func Allocate(loan *Loan) AllocationResult {
	result := AllocationResult{
		Installments: make(map[int]InstallmentAllocation, len(loan.Installments)),
	}
	for i := range loan.Installments {
		seq := loan.Installments[i].Sequence
		result.Installments[seq] = InstallmentAllocation{Sequence: seq}
	}

	// Pass 1: targeted payments post directly to their installment,
	// fine-then-principal, ignoring the paid flag.
	pool := Money{}
	for _, p := range loan.ExtraPayments {
		if !p.Targeted() {
			pool = pool.Add(p.Amount)
			continue
		}
		inst, err := loan.Installment(p.Target)
		if err != nil {
			// Dangling target: surface the full amount as unapplied.
			result.Unapplied = result.Unapplied.Add(p.Amount)
			continue
		}
		alloc := result.Installments[p.Target]
		remainder := applyToInstallment(inst, loan.InstallmentValue, &alloc, p.Amount)
		result.Installments[p.Target] = alloc
		result.Unapplied = result.Unapplied.Add(remainder)
	}

	// Pass 2: the general pool walks installments in ascending sequence.
	for i := range loan.Installments {
		if !pool.IsPositive() {
			break
		}
		inst := &loan.Installments[i]
		if inst.ManuallyPaid {
			continue
		}
		alloc := result.Installments[inst.Sequence]

		outstandingFine := inst.TotalFines().Sub(alloc.FineCovered)
		if outstandingFine.IsPositive() {
			applied := pool.Min(outstandingFine)
			alloc.FineCovered = alloc.FineCovered.Add(applied)
			pool = pool.Sub(applied)
			result.Installments[inst.Sequence] = alloc
			if applied.LessThan(outstandingFine) {
				// Principal is never funded ahead of this installment's
				// own fines. Move on.
				continue
			}
		}

		outstandingPrincipal := loan.InstallmentValue.Sub(alloc.PrincipalCovered)
		if outstandingPrincipal.IsPositive() {
			applied := pool.Min(outstandingPrincipal)
			alloc.PrincipalCovered = alloc.PrincipalCovered.Add(applied)
			pool = pool.Sub(applied)
		}
		result.Installments[inst.Sequence] = alloc
	}
	result.Unapplied = result.Unapplied.Add(pool)

	// Pass 3: reporting. Manually paid installments show full coverage,
	// and every entry gets its remaining figure.
	for i := range loan.Installments {
		inst := &loan.Installments[i]
		alloc := result.Installments[inst.Sequence]
		if inst.ManuallyPaid {
			alloc.PrincipalCovered = loan.InstallmentValue
			alloc.FineCovered = inst.TotalFines()
		}
		alloc.Remaining = loan.InstallmentValue.Sub(alloc.PrincipalCovered).
			Add(inst.TotalFines().Sub(alloc.FineCovered))
		result.Installments[inst.Sequence] = alloc
	}

	return result
}

// applyToInstallment posts an amount against one installment, fines
// first, then principal, capped at the installment's own outstanding.
// Returns the excess that could not be placed.
func applyToInstallment(inst *Installment, value Money, alloc *InstallmentAllocation, amount Money) Money {
	outstandingFine := inst.TotalFines().Sub(alloc.FineCovered)
	if outstandingFine.IsPositive() {
		applied := amount.Min(outstandingFine)
		alloc.FineCovered = alloc.FineCovered.Add(applied)
		amount = amount.Sub(applied)
	}
	outstandingPrincipal := value.Sub(alloc.PrincipalCovered)
	if outstandingPrincipal.IsPositive() && amount.IsPositive() {
		applied := amount.Min(outstandingPrincipal)
		alloc.PrincipalCovered = alloc.PrincipalCovered.Add(applied)
		amount = amount.Sub(applied)
	}
	return amount
}
