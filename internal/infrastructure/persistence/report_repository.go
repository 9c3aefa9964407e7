package persistence

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared/valueobject"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormReportRepository answers report queries with aggregates over the live
// ledger tables. Day bucketing and rounding happen in Go so the same queries
// run on PostgreSQL and sqlite.
type GormReportRepository struct {
	db *gorm.DB
}

func NewGormReportRepository(db *gorm.DB) *GormReportRepository {
	return &GormReportRepository{db: db}
}

type balanceRow struct {
	InstallmentID     uuid.UUID
	SaleID            uuid.UUID
	SaleNumber        string
	CustomerID        uuid.UUID
	CustomerName      string
	CustomerPhone     string
	Number            int
	TotalInstallments int
	DueDate           time.Time
	Amount            decimal.Decimal
	TotalPaid         decimal.Decimal
	Status            string
}

// openBalances lists non-cancelled installments that still owe money
func (r *GormReportRepository) openBalances(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("installments AS i").
		Select(`i.id AS installment_id, i.sale_id, s.sale_number, i.customer_id,
			c.name AS customer_name, c.phone AS customer_phone, i.number, i.total_installments,
			i.due_date, i.amount, `+paidExpr+` AS total_paid, i.status`).
		Joins("JOIN sales s ON s.id = i.sale_id").
		Joins("JOIN customers c ON c.id = i.customer_id").
		Joins("LEFT JOIN "+paidSubquery+" p ON p.installment_id = i.id").
		Where("i.tenant_id = ? AND i.status <> ?", tenantID, billing.InstallmentStatusCancelled).
		Where(remainingExpr + " > 0")
}

func (r *GormReportRepository) OverdueEntries(ctx context.Context, tenantID uuid.UUID, asOf time.Time, customerID *uuid.UUID) ([]report.OverdueEntry, error) {
	q := r.openBalances(ctx, tenantID).Where("i.due_date < ?", dayParam(asOf))
	if customerID != nil {
		q = q.Where("i.customer_id = ?", *customerID)
	}
	var rows []balanceRow
	if err := q.Order("i.due_date, c.name, i.number").Scan(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]report.OverdueEntry, len(rows))
	for idx, row := range rows {
		paid := money(row.TotalPaid)
		amount := money(row.Amount)
		entries[idx] = report.OverdueEntry{
			InstallmentID:     row.InstallmentID,
			SaleID:            row.SaleID,
			SaleNumber:        row.SaleNumber,
			CustomerID:        row.CustomerID,
			CustomerName:      row.CustomerName,
			CustomerPhone:     row.CustomerPhone,
			Number:            row.Number,
			TotalInstallments: row.TotalInstallments,
			DueDate:           billing.DateOf(row.DueDate),
			Amount:            amount,
			TotalPaid:         paid,
			Remaining:         billing.Remaining(amount, paid),
			DaysOverdue:       billing.DaysBetween(row.DueDate, asOf),
			Status:            string(billing.DeriveStatus(amount, paid, row.DueDate, asOf)),
		}
	}
	return entries, nil
}

func (r *GormReportRepository) CustomerDebts(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]report.CustomerDebtEntry, error) {
	var rows []balanceRow
	if err := r.openBalances(ctx, tenantID).Order("i.customer_id, i.due_date").Scan(&rows).Error; err != nil {
		return nil, err
	}

	byCustomer := make(map[uuid.UUID]*report.CustomerDebtEntry)
	order := make([]uuid.UUID, 0)
	for _, row := range rows {
		entry, ok := byCustomer[row.CustomerID]
		if !ok {
			entry = &report.CustomerDebtEntry{
				CustomerID:    row.CustomerID,
				CustomerName:  row.CustomerName,
				CustomerPhone: row.CustomerPhone,
				TotalAmount:   decimal.Zero,
				TotalPaid:     decimal.Zero,
				Outstanding:   decimal.Zero,
				OverdueAmount: decimal.Zero,
			}
			byCustomer[row.CustomerID] = entry
			order = append(order, row.CustomerID)
		}
		amount, paid := money(row.Amount), money(row.TotalPaid)
		remaining := billing.Remaining(amount, paid)
		entry.TotalAmount = entry.TotalAmount.Add(amount)
		entry.TotalPaid = entry.TotalPaid.Add(paid)
		entry.Outstanding = entry.Outstanding.Add(remaining)
		entry.OpenInstallments++
		if billing.IsPastDue(row.DueDate, asOf) {
			entry.OverdueAmount = entry.OverdueAmount.Add(remaining)
		}
		due := billing.DateOf(row.DueDate)
		if entry.OldestDueDate == nil || due.Before(*entry.OldestDueDate) {
			entry.OldestDueDate = &due
		}
	}

	out := make([]report.CustomerDebtEntry, 0, len(order))
	for _, id := range order {
		out = append(out, *byCustomer[id])
	}
	sort.SliceStable(out, func(a, b int) bool {
		if !out[a].Outstanding.Equal(out[b].Outstanding) {
			return out[a].Outstanding.GreaterThan(out[b].Outstanding)
		}
		return out[a].CustomerName < out[b].CustomerName
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *GormReportRepository) completedSales(ctx context.Context, tenantID uuid.UUID, period report.Period) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("tenant_id = ? AND status = ? AND sold_at >= ? AND sold_at < ?",
			tenantID, sales.SaleStatusCompleted, period.From.UTC(), period.To.UTC())
}

func (r *GormReportRepository) SalesSummary(ctx context.Context, tenantID uuid.UUID, period report.Period) (*report.SalesSummary, error) {
	var totals struct {
		SaleCount int64
		Subtotal  decimal.Decimal
		Discount  decimal.Decimal
		Total     decimal.Decimal
	}
	if err := r.completedSales(ctx, tenantID, period).
		Select(`COUNT(*) AS sale_count, COALESCE(SUM(subtotal), 0) AS subtotal,
			COALESCE(SUM(discount), 0) AS discount, COALESCE(SUM(total), 0) AS total`).
		Scan(&totals).Error; err != nil {
		return nil, err
	}

	var byMethod []report.PaymentMethodBreakdown
	if err := r.completedSales(ctx, tenantID, period).
		Select("payment_method, COUNT(*) AS sale_count, COALESCE(SUM(total), 0) AS total").
		Group("payment_method").
		Order("payment_method").
		Scan(&byMethod).Error; err != nil {
		return nil, err
	}
	for i := range byMethod {
		byMethod[i].Total = money(byMethod[i].Total)
	}

	var sold []struct {
		SoldAt time.Time
		Total  decimal.Decimal
	}
	if err := r.completedSales(ctx, tenantID, period).
		Select("sold_at, total").
		Order("sold_at").
		Scan(&sold).Error; err != nil {
		return nil, err
	}

	summary := &report.SalesSummary{
		PeriodStart:   period.From,
		PeriodEnd:     period.To,
		SaleCount:     totals.SaleCount,
		Subtotal:      money(totals.Subtotal),
		Discount:      money(totals.Discount),
		Total:         money(totals.Total),
		AverageTicket: decimal.Zero,
		ByMethod:      byMethod,
		ByDay:         bucketByDay(sold, period.From.Location()),
	}
	if summary.ByMethod == nil {
		summary.ByMethod = []report.PaymentMethodBreakdown{}
	}
	if totals.SaleCount > 0 {
		summary.AverageTicket = money(summary.Total.Div(decimal.NewFromInt(totals.SaleCount)))
	}
	return summary, nil
}

func bucketByDay(sold []struct {
	SoldAt time.Time
	Total  decimal.Decimal
}, loc *time.Location) []report.DailySales {
	days := make([]report.DailySales, 0)
	for _, s := range sold {
		t := s.SoldAt.In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		if n := len(days); n > 0 && days[n-1].Date.Equal(day) {
			days[n-1].SaleCount++
			days[n-1].Total = days[n-1].Total.Add(money(s.Total))
			continue
		}
		days = append(days, report.DailySales{Date: day, SaleCount: 1, Total: money(s.Total)})
	}
	return days
}

func (r *GormReportRepository) ProfitReport(ctx context.Context, tenantID uuid.UUID, period report.Period, topN int) (*report.ProfitReport, error) {
	var rows []struct {
		ProductID   uuid.UUID
		ProductCode string
		ProductName string
		Quantity    decimal.Decimal
		Revenue     decimal.Decimal
		Cost        decimal.Decimal
	}
	err := r.db.WithContext(ctx).
		Table("sale_items AS si").
		Select(`si.product_id, MAX(si.product_code) AS product_code, MAX(si.product_name) AS product_name,
			SUM(si.quantity) AS quantity,
			SUM(si.subtotal - CASE WHEN s.subtotal > 0 THEN s.discount * si.subtotal / s.subtotal ELSE 0 END) AS revenue,
			SUM(si.quantity * si.unit_cost) AS cost`).
		Joins("JOIN sales s ON s.id = si.sale_id").
		Where("s.tenant_id = ? AND s.status = ? AND s.sold_at >= ? AND s.sold_at < ?",
			tenantID, sales.SaleStatusCompleted, period.From.UTC(), period.To.UTC()).
		Group("si.product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	rep := &report.ProfitReport{
		PeriodStart: period.From,
		PeriodEnd:   period.To,
		Revenue:     decimal.Zero,
		Cost:        decimal.Zero,
		GrossProfit: decimal.Zero,
		Margin:      decimal.Zero,
		Products:    make([]report.ProductProfit, 0, len(rows)),
	}
	for _, row := range rows {
		revenue, cost := money(row.Revenue), money(row.Cost)
		profit := revenue.Sub(cost)
		rep.Revenue = rep.Revenue.Add(revenue)
		rep.Cost = rep.Cost.Add(cost)
		rep.Products = append(rep.Products, report.ProductProfit{
			ProductID:   row.ProductID,
			ProductCode: row.ProductCode,
			ProductName: row.ProductName,
			Quantity:    row.Quantity.Round(4),
			Revenue:     revenue,
			Cost:        cost,
			Profit:      profit,
			Margin:      valueobject.Percentage(profit, revenue),
		})
	}
	rep.GrossProfit = rep.Revenue.Sub(rep.Cost)
	rep.Margin = valueobject.Percentage(rep.GrossProfit, rep.Revenue)

	sort.SliceStable(rep.Products, func(a, b int) bool {
		return rep.Products[a].Profit.GreaterThan(rep.Products[b].Profit)
	})
	if topN > 0 && len(rep.Products) > topN {
		rep.Products = rep.Products[:topN]
	}
	return rep, nil
}

func (r *GormReportRepository) ReceivablesSummary(ctx context.Context, tenantID uuid.UUID, asOf time.Time, period report.Period) (*report.ReceivablesSummary, error) {
	day := dayParam(asOf)
	var totals struct {
		TotalReceivable  decimal.Decimal
		TotalReceived    decimal.Decimal
		Outstanding      decimal.Decimal
		Overdue          decimal.Decimal
		OpenInstallments int64
		OverdueCount     int64
	}
	err := r.db.WithContext(ctx).
		Table("installments AS i").
		Select(`COALESCE(SUM(i.amount), 0) AS total_receivable,
			COALESCE(SUM(`+paidExpr+`), 0) AS total_received,
			COALESCE(SUM(`+remainingExpr+`), 0) AS outstanding,
			COALESCE(SUM(CASE WHEN i.due_date < ? THEN `+remainingExpr+` ELSE 0 END), 0) AS overdue,
			COALESCE(SUM(CASE WHEN `+balanceExpr+` > 0 THEN 1 ELSE 0 END), 0) AS open_installments,
			COALESCE(SUM(CASE WHEN `+balanceExpr+` > 0 AND i.due_date < ? THEN 1 ELSE 0 END), 0) AS overdue_count`,
			day, day).
		Joins("LEFT JOIN "+paidSubquery+" p ON p.installment_id = i.id").
		Where("i.tenant_id = ? AND i.status <> ?", tenantID, billing.InstallmentStatusCancelled).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	var received struct{ Total decimal.Decimal }
	err = r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Select("COALESCE(SUM(installment_payments.amount), 0) AS total").
		Joins("JOIN installments i ON i.id = installment_payments.installment_id").
		Where("installment_payments.tenant_id = ? AND i.status <> ?", tenantID, billing.InstallmentStatusCancelled).
		Where("installment_payments.paid_at >= ? AND installment_payments.paid_at < ?", period.From.UTC(), period.To.UTC()).
		Scan(&received).Error
	if err != nil {
		return nil, err
	}

	return &report.ReceivablesSummary{
		AsOf:             asOf,
		TotalReceivable:  money(totals.TotalReceivable),
		TotalReceived:    money(totals.TotalReceived),
		Outstanding:      money(totals.Outstanding),
		Overdue:          money(totals.Overdue),
		ReceivedInPeriod: money(received.Total),
		OpenInstallments: totals.OpenInstallments,
		OverdueCount:     totals.OverdueCount,
	}, nil
}

func (r *GormReportRepository) LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("tenant_id = ? AND deleted_at IS NULL AND active = ?", tenantID, true).
		Where("min_stock > 0 AND stock_quantity <= min_stock").
		Count(&count).Error
	return count, err
}

var _ report.ReportRepository = (*GormReportRepository)(nil)
