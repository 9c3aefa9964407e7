// Package report defines read models derived from sales and the installment ledger.
// Every balance here is computed from payment sums at query time.
package report

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OverdueEntry is one installment with a remaining balance past its due date
type OverdueEntry struct {
	InstallmentID     uuid.UUID       `json:"installment_id"`
	SaleID            uuid.UUID       `json:"sale_id"`
	SaleNumber        string          `json:"sale_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	CustomerName      string          `json:"customer_name"`
	CustomerPhone     string          `json:"customer_phone,omitempty"`
	Number            int             `json:"number"`
	TotalInstallments int             `json:"total_installments"`
	DueDate           time.Time       `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
	TotalPaid         decimal.Decimal `json:"total_paid"`
	Remaining         decimal.Decimal `json:"remaining"`
	DaysOverdue       int             `json:"days_overdue"`
	Status            string          `json:"status"`
}

// OverdueReport lists overdue entries with totals
type OverdueReport struct {
	AsOf           time.Time       `json:"as_of"`
	Entries        []OverdueEntry  `json:"entries"`
	TotalRemaining decimal.Decimal `json:"total_remaining"`
	CustomerCount  int             `json:"customer_count"`
}

// CustomerDebtEntry is one customer's open position
type CustomerDebtEntry struct {
	CustomerID       uuid.UUID       `json:"customer_id"`
	CustomerName     string          `json:"customer_name"`
	CustomerPhone    string          `json:"customer_phone,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	TotalPaid        decimal.Decimal `json:"total_paid"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	OverdueAmount    decimal.Decimal `json:"overdue_amount"`
	OpenInstallments int             `json:"open_installments"`
	OldestDueDate    *time.Time      `json:"oldest_due_date,omitempty"`
}

// PaymentMethodBreakdown groups sales totals by payment method
type PaymentMethodBreakdown struct {
	PaymentMethod string          `json:"payment_method"`
	SaleCount     int64           `json:"sale_count"`
	Total         decimal.Decimal `json:"total"`
}

// DailySales is one day of the sales summary
type DailySales struct {
	Date      time.Time       `json:"date"`
	SaleCount int64           `json:"sale_count"`
	Total     decimal.Decimal `json:"total"`
}

// SalesSummary aggregates completed sales in a period
type SalesSummary struct {
	PeriodStart   time.Time                `json:"period_start"`
	PeriodEnd     time.Time                `json:"period_end"`
	SaleCount     int64                    `json:"sale_count"`
	Subtotal      decimal.Decimal          `json:"subtotal"`
	Discount      decimal.Decimal          `json:"discount"`
	Total         decimal.Decimal          `json:"total"`
	AverageTicket decimal.Decimal          `json:"average_ticket"`
	ByMethod      []PaymentMethodBreakdown `json:"by_method"`
	ByDay         []DailySales             `json:"by_day"`
}

// ProductProfit is the profit contribution of one product
type ProductProfit struct {
	ProductID   uuid.UUID       `json:"product_id"`
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	Profit      decimal.Decimal `json:"profit"`
	Margin      decimal.Decimal `json:"margin"`
}

// ProfitReport uses the unit cost captured on each sale item
type ProfitReport struct {
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	Revenue     decimal.Decimal `json:"revenue"`
	Cost        decimal.Decimal `json:"cost"`
	GrossProfit decimal.Decimal `json:"gross_profit"`
	Margin      decimal.Decimal `json:"margin"`
	Products    []ProductProfit `json:"products"`
}

// ReceivablesSummary is the tenant-wide ledger position
type ReceivablesSummary struct {
	AsOf             time.Time       `json:"as_of"`
	TotalReceivable  decimal.Decimal `json:"total_receivable"`
	TotalReceived    decimal.Decimal `json:"total_received"`
	Outstanding      decimal.Decimal `json:"outstanding"`
	Overdue          decimal.Decimal `json:"overdue"`
	ReceivedInPeriod decimal.Decimal `json:"received_in_period"`
	OpenInstallments int64           `json:"open_installments"`
	OverdueCount     int64           `json:"overdue_count"`
}

// Dashboard is the landing page summary
type Dashboard struct {
	AsOf           time.Time       `json:"as_of"`
	TodaySales     decimal.Decimal `json:"today_sales"`
	TodaySaleCount int64           `json:"today_sale_count"`
	MonthSales     decimal.Decimal `json:"month_sales"`
	MonthProfit    decimal.Decimal `json:"month_profit"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	Overdue        decimal.Decimal `json:"overdue"`
	ReceivedToday  decimal.Decimal `json:"received_today"`
	LowStockCount  int64           `json:"low_stock_count"`
}

// Period is an inclusive-exclusive time range [From, To)
type Period struct {
	From time.Time
	To   time.Time
}

// PeriodForDays returns [start of from-day, start of the day after to-day)
func PeriodForDays(from, to time.Time) Period {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, to.Location()).AddDate(0, 0, 1)
	return Period{From: start, To: end}
}

// MonthOf returns the calendar month containing t
func MonthOf(t time.Time) Period {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Period{From: start, To: start.AddDate(0, 1, 0)}
}
