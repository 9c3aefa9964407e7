package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/shopspring/decimal"
)

// PeriodFilter selects whole days in the company's timezone. Missing bounds
// default to the current month.
type PeriodFilter struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

// OverdueFilter narrows the overdue report
type OverdueFilter struct {
	AsOf       *time.Time `form:"as_of" time_format:"2006-01-02"`
	CustomerID *uuid.UUID `form:"-"`
}

// CustomerDebtFilter limits the customer debt ranking
type CustomerDebtFilter struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=500"`
}

// ProfitFilter selects the period and how many products to rank
type ProfitFilter struct {
	PeriodFilter
	TopN int `form:"top" binding:"omitempty,min=1,max=100"`
}

// SnapshotResponse is a persisted report computed by the refresh job
type SnapshotResponse struct {
	Kind        string    `json:"kind"`
	GeneratedAt time.Time `json:"generated_at"`
	Data        any       `json:"data"`
}

// CustomerDebtReport wraps the ranking with its grand total
type CustomerDebtReport struct {
	AsOf             time.Time                  `json:"as_of"`
	Customers        []report.CustomerDebtEntry `json:"customers"`
	TotalOutstanding decimal.Decimal            `json:"total_outstanding"`
	TotalOverdue     decimal.Decimal            `json:"total_overdue"`
}
