package persistence

import (
	"time"

	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// paidSubquery sums payments per installment. Every balance query joins it
// instead of reading a stored total.
const paidSubquery = `(SELECT installment_id, SUM(amount) AS paid FROM installment_payments GROUP BY installment_id)`

// paidExpr is the live paid amount of installment alias i once paidSubquery is joined as p
const paidExpr = `COALESCE(p.paid, 0)`

// balanceExpr rounds to cents; sqlite sums decimals as REAL
const balanceExpr = `ROUND(i.amount - ` + paidExpr + `, 2)`

// remainingExpr is max(0, amount - paid)
const remainingExpr = `CASE WHEN ` + balanceExpr + ` > 0 THEN ` + balanceExpr + ` ELSE 0 END`

// statusExpr derives the installment status for the correlated subquery form
// used by bulk updates, with ? bound to the reference day.
const statusExpr = `CASE
	WHEN ROUND(amount - (SELECT COALESCE(SUM(ip.amount), 0) FROM installment_payments ip WHERE ip.installment_id = installments.id), 2) <= 0 THEN 'paid'
	WHEN (SELECT COALESCE(SUM(ip.amount), 0) FROM installment_payments ip WHERE ip.installment_id = installments.id) > 0 THEN 'partial'
	WHEN due_date < ? THEN 'overdue'
	ELSE 'pending'
END`

// money normalizes aggregate results. Sqlite returns SUM over decimal columns
// as REAL, so values are rounded back to cents.
func money(d decimal.Decimal) decimal.Decimal {
	return valueobject.RoundCents(d)
}

// dayParam is the reference day bound into due date comparisons
func dayParam(asOf time.Time) time.Time {
	return billing.DateOf(asOf)
}
