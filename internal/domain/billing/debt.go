package billing

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerDebt is a customer's position across all non-cancelled installments
type CustomerDebt struct {
	CustomerID       uuid.UUID
	TotalAmount      decimal.Decimal
	TotalPaid        decimal.Decimal
	Outstanding      decimal.Decimal
	OverdueAmount    decimal.Decimal
	OpenInstallments int
	OverdueCount     int
	NextDueDate      *time.Time
	OldestDueDate    *time.Time
}

// SummarizeDebt computes a customer's debt from loaded installments.
// The persistence layer answers the same question with an aggregate query;
// both follow the per-installment Remaining formula.
func SummarizeDebt(customerID uuid.UUID, installments []Installment, asOf time.Time) CustomerDebt {
	debt := CustomerDebt{
		CustomerID:    customerID,
		TotalAmount:   decimal.Zero,
		TotalPaid:     decimal.Zero,
		Outstanding:   decimal.Zero,
		OverdueAmount: decimal.Zero,
	}
	for idx := range installments {
		inst := &installments[idx]
		if inst.IsCancelled() {
			continue
		}
		remaining := inst.Remaining()
		debt.TotalAmount = debt.TotalAmount.Add(inst.Amount)
		debt.TotalPaid = debt.TotalPaid.Add(inst.TotalPaid())
		debt.Outstanding = debt.Outstanding.Add(remaining)
		if remaining.IsZero() {
			continue
		}
		debt.OpenInstallments++
		due := inst.DueDate
		if debt.OldestDueDate == nil || due.Before(*debt.OldestDueDate) {
			debt.OldestDueDate = &due
		}
		if inst.IsOverdue(asOf) {
			debt.OverdueCount++
			debt.OverdueAmount = debt.OverdueAmount.Add(remaining)
		} else if debt.NextDueDate == nil || due.Before(*debt.NextDueDate) {
			debt.NextDueDate = &due
		}
	}
	return debt
}

// Allocation is the share of a lump payment assigned to one installment
type Allocation struct {
	InstallmentID uuid.UUID
	Amount        decimal.Decimal
}

// AllocatePayment spreads amount over open installments, oldest due date first
// (installment number breaks ties). It fails if amount exceeds the total owed.
func AllocatePayment(installments []*Installment, amount decimal.Decimal) ([]Allocation, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	open := make([]*Installment, 0, len(installments))
	owed := decimal.Zero
	for _, inst := range installments {
		if inst.IsCancelled() || inst.Remaining().IsZero() {
			continue
		}
		open = append(open, inst)
		owed = owed.Add(inst.Remaining())
	}
	if owed.IsZero() {
		return nil, shared.NewDomainError("NO_OPEN_INSTALLMENTS", "Customer has no outstanding installments")
	}
	if amount.GreaterThan(owed) {
		return nil, shared.NewDomainError("EXCEEDS_DEBT",
			fmt.Sprintf("Payment amount %s exceeds outstanding debt %s", amount.StringFixed(2), owed.StringFixed(2)))
	}

	sort.SliceStable(open, func(a, b int) bool {
		if !open[a].DueDate.Equal(open[b].DueDate) {
			return open[a].DueDate.Before(open[b].DueDate)
		}
		return open[a].Number < open[b].Number
	})

	left := amount
	allocations := make([]Allocation, 0, len(open))
	for _, inst := range open {
		if left.IsZero() {
			break
		}
		share := decimal.Min(left, inst.Remaining())
		allocations = append(allocations, Allocation{InstallmentID: inst.ID, Amount: share})
		left = left.Sub(share)
	}
	return allocations, nil
}
