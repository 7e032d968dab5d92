/*
schedule.go - Due-date generation per payment plan

PURPOSE:
  Builds the ordered installment sequence for a loan. Each plan has its
  own interval rule:

    Daily:    consecutive calendar days, day 1 = start date
    Weekly:   anchored on Saturdays; first due date is the next Saturday
              on or after the start date
    Biweekly: cycles a day-of-month pair ({1,16} or {5,20})
    Monthly:  calendar-month arithmetic from the start date

  Generated dates are date-only (see date.go).
*/
package credit

import (
	"time"
)

// ScheduleEntry is one generated installment slot.
type ScheduleEntry struct {
	Sequence int
	DueDate  DueDate
}

// GenerateSchedule builds the ordered due-date sequence for a plan.
// The variant is only consulted for biweekly plans.
func GenerateSchedule(plan LoanPlan, variant BiweeklyVariant, start DueDate, count int) ([]ScheduleEntry, error) {
	if !plan.Valid() {
		return nil, &UnsupportedPlanError{Plan: plan}
	}

	entries := make([]ScheduleEntry, 0, count)
	switch plan {
	case PlanDaily:
		for i := 1; i <= count; i++ {
			entries = append(entries, ScheduleEntry{Sequence: i, DueDate: start.AddDays(i - 1)})
		}

	case PlanWeekly:
		first := nextSaturday(start)
		for i := 1; i <= count; i++ {
			entries = append(entries, ScheduleEntry{Sequence: i, DueDate: first.AddDays((i - 1) * 7)})
		}

	case PlanBiweekly:
		v := variantOrDefault(variant)
		ref := start
		for i := 1; i <= count; i++ {
			due, usedFirst := nextBiweeklyDate(ref, v)
			entries = append(entries, ScheduleEntry{Sequence: i, DueDate: due})
			if usedFirst {
				ref = withDay(due, v.Second)
			} else {
				ref = withDay(firstOfNextMonth(due), v.First)
			}
		}

	case PlanMonthly:
		// Calendar-month arithmetic from the start date, keeping its
		// day-of-month. Not fixed 30-day increments.
		for i := 1; i <= count; i++ {
			entries = append(entries, ScheduleEntry{Sequence: i, DueDate: start.AddMonths(i)})
		}
	}

	return entries, nil
}

// nextSaturday returns d if it is a Saturday, else the following Saturday.
func nextSaturday(d DueDate) DueDate {
	offset := (int(time.Saturday) - int(d.Weekday()) + 7) % 7
	return d.AddDays(offset)
}

// nextBiweeklyDate maps a reference date onto the variant's day pair:
// on or before the first pair day -> first pair day of the same month;
// on or before the second -> second pair day of the same month;
// past both -> first pair day of the next month.
// The second return value reports whether the first pair day was used,
// which drives the next reference date.
func nextBiweeklyDate(ref DueDate, v BiweeklyVariant) (DueDate, bool) {
	switch {
	case ref.Day() <= v.First:
		return withDay(ref, v.First), true
	case ref.Day() <= v.Second:
		return withDay(ref, v.Second), false
	default:
		return withDay(firstOfNextMonth(ref), v.First), true
	}
}
