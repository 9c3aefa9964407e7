package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DefaultFirstDueDays is the gap between the sale and the first due date when none is given
const DefaultFirstDueDays = 30

// ScheduleEntry is one planned installment
type ScheduleEntry struct {
	Number  int
	DueDate time.Time
	Amount  decimal.Decimal
}

// BuildSchedule splits total into n monthly installments starting at firstDue.
// Amounts are rounded down to cents with the remainder on the first entry.
// A due day missing from a shorter month falls on that month's last day.
func BuildSchedule(total decimal.Decimal, n int, firstDue time.Time) ([]ScheduleEntry, error) {
	if n < 1 || n > MaxInstallments {
		return nil, shared.NewDomainError("INVALID_INSTALLMENT_COUNT", "Installment count out of range")
	}
	if !total.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Installment total must be positive")
	}
	amounts, err := valueobject.SplitEvenly(total, n)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_AMOUNT", err.Error())
	}
	first := DateOf(firstDue)
	entries := make([]ScheduleEntry, n)
	for idx := range entries {
		entries[idx] = ScheduleEntry{
			Number:  idx + 1,
			DueDate: AddMonthsClamped(first, idx),
			Amount:  amounts[idx],
		}
	}
	return entries, nil
}

// InstallmentsFromSchedule materializes a schedule for a sale
func InstallmentsFromSchedule(tenantID, saleID, customerID uuid.UUID, entries []ScheduleEntry) ([]*Installment, error) {
	out := make([]*Installment, 0, len(entries))
	for _, e := range entries {
		inst, err := NewInstallment(tenantID, saleID, customerID, e.Number, len(entries), e.DueDate, e.Amount)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	return out, nil
}

// AddMonthsClamped adds months keeping the day of month when possible.
// time.AddDate would roll Jan 31 + 1 month into March.
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	last := target.AddDate(0, 1, -1).Day()
	if d > last {
		d = last
	}
	return time.Date(target.Year(), target.Month(), d, 0, 0, 0, 0, t.Location())
}
