package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
)

// ErrMeterNil is returned when no meter is supplied
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// ReceivablesSource reads the live balances sampled by the periodic gauges
type ReceivablesSource interface {
	ReceivablesSummary(ctx context.Context, tenantID uuid.UUID, asOf time.Time, period report.Period) (*report.ReceivablesSummary, error)
	LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// TenantLister lists the tenants sampled by the periodic gauges
type TenantLister interface {
	FindActiveIDs(ctx context.Context) ([]uuid.UUID, error)
}

// BusinessMetrics counts sales and payments from domain events and samples
// receivables per tenant. Money is recorded in centavos.
type BusinessMetrics struct {
	logger *zap.Logger
	source ReceivablesSource

	salesTotal          *Counter
	salesAmount         *Counter
	salesCancelled      *Counter
	paymentsTotal       *Counter
	paymentsAmount      *Counter
	paymentsRemoved     *Counter
	installmentsSettled *Counter

	outstanding  *Gauge
	overdue      *Gauge
	overdueCount *Gauge
	lowStock     *Gauge

	stopCh      chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once
}

// BusinessMetricsConfig configures BusinessMetrics
type BusinessMetricsConfig struct {
	Meter  metric.Meter
	Logger *zap.Logger
	Source ReceivablesSource
}

func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	bm := &BusinessMetrics{logger: logger, source: cfg.Source, stopCh: make(chan struct{})}

	counters := []struct {
		target **Counter
		name   string
		desc   string
		unit   string
	}{
		{&bm.salesTotal, "retail_sales_total", "Completed sales", "{sales}"},
		{&bm.salesAmount, "retail_sales_amount_total", "Completed sales amount in centavos", "{centavos}"},
		{&bm.salesCancelled, "retail_sales_cancelled_total", "Cancelled sales", "{sales}"},
		{&bm.paymentsTotal, "retail_payments_total", "Installment payments registered", "{payments}"},
		{&bm.paymentsAmount, "retail_payments_amount_total", "Installment payments amount in centavos", "{centavos}"},
		{&bm.paymentsRemoved, "retail_payments_removed_total", "Installment payments removed", "{payments}"},
		{&bm.installmentsSettled, "retail_installments_paid_total", "Installments fully paid", "{installments}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.target = counter
	}

	gauges := []struct {
		target **Gauge
		name   string
		desc   string
		unit   string
	}{
		{&bm.outstanding, "retail_receivables_outstanding", "Outstanding installment balance in centavos", "{centavos}"},
		{&bm.overdue, "retail_receivables_overdue", "Overdue installment balance in centavos", "{centavos}"},
		{&bm.overdueCount, "retail_installments_overdue", "Installments with a balance past due", "{installments}"},
		{&bm.lowStock, "retail_products_low_stock", "Active products at or below minimum stock", "{products}"},
	}
	for _, g := range gauges {
		gauge, err := NewGauge(cfg.Meter, g.name, g.desc, g.unit)
		if err != nil {
			return nil, err
		}
		*g.target = gauge
	}
	return bm, nil
}

// Centavos converts an amount to integer centavos, rounding half away from zero
func Centavos(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// EventTypes lists the ledger events that move the counters
func (bm *BusinessMetrics) EventTypes() []string {
	return []string{
		sales.EventTypeSaleCompleted,
		sales.EventTypeSaleCancelled,
		billing.EventTypePaymentRegistered,
		billing.EventTypePaymentRemoved,
		billing.EventTypeInstallmentPaid,
	}
}

// Handle updates counters for one event. It never fails the publisher.
func (bm *BusinessMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	tenant := AttrTenantID.String(event.TenantID().String())
	switch e := event.(type) {
	case *sales.SaleCompletedEvent:
		method := AttrPaymentMethod.String(string(e.PaymentMethod))
		bm.salesTotal.Inc(ctx, tenant, method)
		bm.salesAmount.Add(ctx, Centavos(e.Total), tenant, method)
	case *sales.SaleCancelledEvent:
		bm.salesCancelled.Inc(ctx, tenant)
	case *billing.PaymentRegisteredEvent:
		method := AttrPaymentMethod.String(string(e.Method))
		bm.paymentsTotal.Inc(ctx, tenant, method)
		bm.paymentsAmount.Add(ctx, Centavos(e.Amount), tenant, method)
	case *billing.PaymentRemovedEvent:
		bm.paymentsRemoved.Inc(ctx, tenant)
	case *billing.InstallmentPaidEvent:
		bm.installmentsSettled.Inc(ctx, tenant)
	}
	return nil
}

// CollectTenant samples the receivables gauges for one tenant
func (bm *BusinessMetrics) CollectTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) {
	if bm.source == nil {
		return
	}
	tenant := AttrTenantID.String(tenantID.String())

	summary, err := bm.source.ReceivablesSummary(ctx, tenantID, now, report.MonthOf(now))
	if err != nil {
		bm.logger.Warn("Failed to sample receivables",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
	} else {
		bm.outstanding.Record(ctx, Centavos(summary.Outstanding), tenant)
		bm.overdue.Record(ctx, Centavos(summary.Overdue), tenant)
		bm.overdueCount.Record(ctx, summary.OverdueCount, tenant)
	}

	lowStock, err := bm.source.LowStockCount(ctx, tenantID)
	if err != nil {
		bm.logger.Warn("Failed to sample low stock count",
			zap.String("tenant_id", tenantID.String()),
			zap.Error(err),
		)
		return
	}
	bm.lowStock.Record(ctx, lowStock, tenant)
}

// StartPeriodicCollection samples every active tenant each interval until Stop
// or ctx cancellation. Only the first call starts a loop.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, tenants TenantLister, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runCollection(ctx, tenants, interval)
	})
}

func (bm *BusinessMetrics) runCollection(ctx context.Context, tenants TenantLister, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectAll(ctx, tenants)
	for {
		select {
		case <-bm.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			bm.collectAll(ctx, tenants)
		}
	}
}

func (bm *BusinessMetrics) collectAll(ctx context.Context, tenants TenantLister) {
	ids, err := tenants.FindActiveIDs(ctx)
	if err != nil {
		bm.logger.Error("Failed to list tenants for metrics collection", zap.Error(err))
		return
	}
	now := time.Now()
	for _, id := range ids {
		bm.CollectTenant(ctx, id, now)
	}
}

// Stop ends periodic collection
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() { close(bm.stopCh) })
}

var _ shared.EventHandler = (*BusinessMetrics)(nil)
