package report

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Cache stores serialized reports per tenant. Invalidate must make every
// entry written before it unreachable.
type Cache interface {
	Generation(ctx context.Context, tenantID uuid.UUID) (int64, error)
	Get(ctx context.Context, tenantID uuid.UUID, key string) ([]byte, int64, bool, error)
	Set(ctx context.Context, tenantID uuid.UUID, gen int64, key string, value []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

const (
	// DefaultCacheTTL bounds staleness for data that emits no ledger event (stock levels)
	DefaultCacheTTL = 5 * time.Minute

	defaultDebtLimit = 100
	defaultTopN      = 10
	maxPeriodDays    = 366
)

// ReportService computes reports from the live ledger and serves them through the cache
type ReportService struct {
	reportRepo   report.ReportRepository
	snapshotRepo report.SnapshotRepository
	companyRepo  identity.CompanyRepository
	cache        Cache
	cacheTTL     time.Duration
	logger       *zap.Logger
	now          func() time.Time
}

// NewReportService creates a new ReportService. A nil cache computes every
// request; a nil company repository reports in UTC.
func NewReportService(
	reportRepo report.ReportRepository,
	snapshotRepo report.SnapshotRepository,
	companyRepo identity.CompanyRepository,
	cache Cache,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		reportRepo:   reportRepo,
		snapshotRepo: snapshotRepo,
		companyRepo:  companyRepo,
		cache:        cache,
		cacheTTL:     DefaultCacheTTL,
		logger:       logger,
		now:          time.Now,
	}
}

// SetClock overrides the time source
func (s *ReportService) SetClock(now func() time.Time) {
	s.now = now
}

// SetCacheTTL changes how long cached reports live
func (s *ReportService) SetCacheTTL(ttl time.Duration) {
	if ttl > 0 {
		s.cacheTTL = ttl
	}
}

// Overdue lists installments past due that still owe money
func (s *ReportService) Overdue(ctx context.Context, tenantID uuid.UUID, filter OverdueFilter) (*report.OverdueReport, error) {
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	asOf := s.now().In(loc)
	if filter.AsOf != nil {
		asOf = inDay(*filter.AsOf, loc, asOf)
	}
	key := "overdue:" + asOf.Format(time.DateOnly)
	if filter.CustomerID != nil {
		key += ":" + filter.CustomerID.String()
	}

	var out report.OverdueReport
	err = s.cached(ctx, tenantID, key, &out, func() (any, error) {
		entries, err := s.reportRepo.OverdueEntries(ctx, tenantID, asOf, filter.CustomerID)
		if err != nil {
			return nil, err
		}
		return buildOverdueReport(asOf, entries), nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func buildOverdueReport(asOf time.Time, entries []report.OverdueEntry) *report.OverdueReport {
	rep := &report.OverdueReport{
		AsOf:           asOf,
		Entries:        make([]report.OverdueEntry, 0, len(entries)),
		TotalRemaining: decimal.Zero,
	}
	customers := make(map[uuid.UUID]struct{})
	for _, e := range entries {
		if !e.Remaining.IsPositive() {
			continue
		}
		rep.Entries = append(rep.Entries, e)
		rep.TotalRemaining = rep.TotalRemaining.Add(e.Remaining)
		customers[e.CustomerID] = struct{}{}
	}
	rep.CustomerCount = len(customers)
	return rep
}

// CustomerDebts ranks customers by outstanding debt
func (s *ReportService) CustomerDebts(ctx context.Context, tenantID uuid.UUID, filter CustomerDebtFilter) (*CustomerDebtReport, error) {
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	asOf := s.now().In(loc)
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultDebtLimit
	}
	key := fmt.Sprintf("customer-debts:%s:%d", asOf.Format(time.DateOnly), limit)

	var out CustomerDebtReport
	err = s.cached(ctx, tenantID, key, &out, func() (any, error) {
		entries, err := s.reportRepo.CustomerDebts(ctx, tenantID, asOf, 0)
		if err != nil {
			return nil, err
		}
		rep := &CustomerDebtReport{AsOf: asOf, TotalOutstanding: decimal.Zero, TotalOverdue: decimal.Zero}
		for _, e := range entries {
			rep.TotalOutstanding = rep.TotalOutstanding.Add(e.Outstanding)
			rep.TotalOverdue = rep.TotalOverdue.Add(e.OverdueAmount)
		}
		if len(entries) > limit {
			entries = entries[:limit]
		}
		rep.Customers = entries
		if rep.Customers == nil {
			rep.Customers = []report.CustomerDebtEntry{}
		}
		return rep, nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SalesSummary aggregates completed sales of the period
func (s *ReportService) SalesSummary(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*report.SalesSummary, error) {
	period, err := s.period(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	var out report.SalesSummary
	err = s.cached(ctx, tenantID, "sales-summary:"+periodKey(period), &out, func() (any, error) {
		return s.reportRepo.SalesSummary(ctx, tenantID, period)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Profit reports revenue, cost and margin using the unit cost captured at sale time
func (s *ReportService) Profit(ctx context.Context, tenantID uuid.UUID, filter ProfitFilter) (*report.ProfitReport, error) {
	period, err := s.period(ctx, tenantID, filter.PeriodFilter)
	if err != nil {
		return nil, err
	}
	topN := filter.TopN
	if topN <= 0 {
		topN = defaultTopN
	}
	var out report.ProfitReport
	key := fmt.Sprintf("profit:%s:%d", periodKey(period), topN)
	err = s.cached(ctx, tenantID, key, &out, func() (any, error) {
		return s.reportRepo.ProfitReport(ctx, tenantID, period, topN)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Receivables summarizes the ledger position and what was received in the period
func (s *ReportService) Receivables(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (*report.ReceivablesSummary, error) {
	period, err := s.period(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	loc := period.From.Location()
	asOf := s.now().In(loc)
	var out report.ReceivablesSummary
	key := "receivables:" + asOf.Format(time.DateOnly) + ":" + periodKey(period)
	err = s.cached(ctx, tenantID, key, &out, func() (any, error) {
		return s.reportRepo.ReceivablesSummary(ctx, tenantID, asOf, period)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Dashboard summarizes today, the current month and the open ledger
func (s *ReportService) Dashboard(ctx context.Context, tenantID uuid.UUID) (*report.Dashboard, error) {
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	asOf := s.now().In(loc)
	var out report.Dashboard
	err = s.cached(ctx, tenantID, "dashboard:"+asOf.Format(time.DateOnly), &out, func() (any, error) {
		return s.computeDashboard(ctx, tenantID, asOf)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *ReportService) computeDashboard(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*report.Dashboard, error) {
	today := report.PeriodForDays(asOf, asOf)
	month := report.MonthOf(asOf)

	todaySales, err := s.reportRepo.SalesSummary(ctx, tenantID, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard sales today: %w", err)
	}
	monthProfit, err := s.reportRepo.ProfitReport(ctx, tenantID, month, 0)
	if err != nil {
		return nil, fmt.Errorf("dashboard month profit: %w", err)
	}
	receivables, err := s.reportRepo.ReceivablesSummary(ctx, tenantID, asOf, today)
	if err != nil {
		return nil, fmt.Errorf("dashboard receivables: %w", err)
	}
	lowStock, err := s.reportRepo.LowStockCount(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("dashboard low stock: %w", err)
	}

	return &report.Dashboard{
		AsOf:           asOf,
		TodaySales:     todaySales.Total,
		TodaySaleCount: todaySales.SaleCount,
		MonthSales:     monthProfit.Revenue,
		MonthProfit:    monthProfit.GrossProfit,
		Outstanding:    receivables.Outstanding,
		Overdue:        receivables.Overdue,
		ReceivedToday:  receivables.ReceivedInPeriod,
		LowStockCount:  lowStock,
	}, nil
}

// Snapshot returns the latest persisted snapshot of kind
func (s *ReportService) Snapshot(ctx context.Context, tenantID uuid.UUID, kind report.SnapshotKind) (*SnapshotResponse, error) {
	snap, err := s.snapshotRepo.Latest(ctx, tenantID, kind)
	if err != nil {
		return nil, err
	}
	var data any
	if err := json.Unmarshal(snap.Payload, &data); err != nil {
		return nil, fmt.Errorf("decode %s snapshot: %w", kind, err)
	}
	return &SnapshotResponse{Kind: string(snap.Kind), GeneratedAt: snap.GeneratedAt, Data: data}, nil
}

// RefreshSnapshots recomputes the dashboard and receivables of the tenant,
// persists them and warms the cache with the fresh values
func (s *ReportService) RefreshSnapshots(ctx context.Context, tenantID uuid.UUID, asOf time.Time) error {
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return err
	}
	asOf = asOf.In(loc)

	// read before the ledger so a write committing meanwhile skips the warm up
	warm := s.cache != nil
	var gen int64
	if warm {
		if gen, err = s.cache.Generation(ctx, tenantID); err != nil {
			s.logger.Warn("Report cache generation read failed", zap.Error(err))
			warm = false
		}
	}

	dashboard, err := s.computeDashboard(ctx, tenantID, asOf)
	if err != nil {
		return err
	}
	month := report.MonthOf(asOf)
	receivables, err := s.reportRepo.ReceivablesSummary(ctx, tenantID, asOf, month)
	if err != nil {
		return fmt.Errorf("snapshot receivables: %w", err)
	}

	snapshots := []struct {
		kind     report.SnapshotKind
		cacheKey string
		value    any
	}{
		{report.SnapshotDashboard, "dashboard:" + asOf.Format(time.DateOnly), dashboard},
		{report.SnapshotReceivables, "receivables:" + asOf.Format(time.DateOnly) + ":" + periodKey(month), receivables},
	}
	for _, snap := range snapshots {
		payload, err := json.Marshal(snap.value)
		if err != nil {
			return fmt.Errorf("encode %s snapshot: %w", snap.kind, err)
		}
		if err := s.snapshotRepo.Upsert(ctx, &report.Snapshot{
			TenantID:    tenantID,
			Kind:        snap.kind,
			Payload:     payload,
			GeneratedAt: s.now(),
		}); err != nil {
			return fmt.Errorf("save %s snapshot: %w", snap.kind, err)
		}
		if warm {
			if err := s.cache.Set(ctx, tenantID, gen, snap.cacheKey, payload, s.cacheTTL); err != nil {
				s.logger.Warn("Failed to warm report cache", zap.String("key", snap.cacheKey), zap.Error(err))
			}
		}
	}
	return nil
}

// RefreshMaterializedViews refreshes the database side aggregates shared by all tenants
func (s *ReportService) RefreshMaterializedViews(ctx context.Context) error {
	return s.snapshotRepo.RefreshMaterializedViews(ctx)
}

// Invalidate drops every cached report of the tenant
func (s *ReportService) Invalidate(ctx context.Context, tenantID uuid.UUID) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Invalidate(ctx, tenantID)
}

// cached decodes the cached value of key into dst or computes, stores and
// decodes it. The value is stored under the generation seen before computing,
// so an invalidation in between discards it. Cache failures degrade to computing.
func (s *ReportService) cached(ctx context.Context, tenantID uuid.UUID, key string, dst any, compute func() (any, error)) error {
	store := false
	var gen int64
	if s.cache != nil {
		raw, observed, ok, err := s.cache.Get(ctx, tenantID, key)
		if err != nil {
			s.logger.Warn("Report cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			if err := json.Unmarshal(raw, dst); err == nil {
				return nil
			}
			s.logger.Warn("Discarding undecodable cached report", zap.String("key", key))
		}
		if err == nil {
			store, gen = true, observed
		}
	}

	value, err := compute()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode report %s: %w", key, err)
	}
	if store {
		if err := s.cache.Set(ctx, tenantID, gen, key, raw, s.cacheTTL); err != nil {
			s.logger.Warn("Report cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return json.Unmarshal(raw, dst)
}

func (s *ReportService) location(ctx context.Context, tenantID uuid.UUID) (*time.Location, error) {
	return appshared.NewCompanyLocations(s.companyRepo).Location(ctx, tenantID)
}

func (s *ReportService) period(ctx context.Context, tenantID uuid.UUID, filter PeriodFilter) (report.Period, error) {
	loc, err := s.location(ctx, tenantID)
	if err != nil {
		return report.Period{}, err
	}
	now := s.now().In(loc)
	month := report.MonthOf(now)
	from, to := month.From, month.To.AddDate(0, 0, -1)
	if filter.From != nil {
		from = inDay(*filter.From, loc, now)
	}
	if filter.To != nil {
		to = inDay(*filter.To, loc, now)
	}
	if to.Before(from) {
		return report.Period{}, shared.NewDomainError("INVALID_PERIOD", "The end date must not be before the start date")
	}
	period := report.PeriodForDays(from, to)
	if period.To.Sub(period.From) > maxPeriodDays*24*time.Hour {
		return report.Period{}, shared.NewDomainError("INVALID_PERIOD", "The period cannot exceed one year")
	}
	return period, nil
}

// inDay re-reads a calendar date bound from a query string as that date in loc,
// keeping the clock of ref so "as of today" stays "now"
func inDay(day time.Time, loc *time.Location, ref time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), ref.Hour(), ref.Minute(), ref.Second(), 0, loc)
}

func periodKey(p report.Period) string {
	return p.From.Format(time.DateOnly) + ".." + p.To.Format(time.DateOnly)
}
