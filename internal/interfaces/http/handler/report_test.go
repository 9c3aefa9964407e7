package handler

import (
	"net/http"
	"testing"
	"time"

	appreport "github.com/retailpos/backend/internal/application/report"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupReportRouter() (*testutil.MockReportRepository, *testutil.MockSnapshotRepository, http.Handler) {
	reports := new(testutil.MockReportRepository)
	snapshots := new(testutil.MockSnapshotRepository)
	svc := appreport.NewReportService(reports, snapshots, nil, nil, nil)
	svc.SetClock(func() time.Time { return testNow })
	h := NewReportHandler(svc)

	r := newAuthedRouter()
	r.GET("/reports/sales-summary", h.SalesSummary)
	r.GET("/reports/snapshots/:kind", h.Snapshot)
	return reports, snapshots, r
}

func TestReportHandler_SalesSummaryDefaultsToCurrentMonth(t *testing.T) {
	reports, _, r := setupReportRouter()
	summary := &report.SalesSummary{Total: decimal.RequireFromString("1500.00")}
	reports.On("SalesSummary", mock.Anything, testTenantID, mock.MatchedBy(func(p report.Period) bool {
		return p.From.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	})).Return(summary, nil)

	w := doJSON(t, r, http.MethodGet, "/reports/sales-summary", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	reports.AssertExpectations(t)
}

func TestReportHandler_SalesSummaryRejectsBadPeriods(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		wantCode string
	}{
		{"end before start", "?from=2026-03-10&to=2026-03-01", "INVALID_PERIOD"},
		{"longer than a year", "?from=2024-01-01&to=2026-01-01", "INVALID_PERIOD"},
		{"malformed date", "?from=10/03/2026", dto.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reports, _, r := setupReportRouter()

			w := doJSON(t, r, http.MethodGet, "/reports/sales-summary"+tt.query, nil)

			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
			reports.AssertNotCalled(t, "SalesSummary", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestReportHandler_Snapshot(t *testing.T) {
	_, snapshots, r := setupReportRouter()
	snapshots.On("Latest", mock.Anything, testTenantID, report.SnapshotDashboard).Return(&report.Snapshot{
		TenantID:    testTenantID,
		Kind:        report.SnapshotDashboard,
		Payload:     []byte(`{"sales_today":"10.00"}`),
		GeneratedAt: testNow,
	}, nil)

	w := doJSON(t, r, http.MethodGet, "/reports/snapshots/dashboard", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, "dashboard", data["kind"])
	assert.Equal(t, map[string]any{"sales_today": "10.00"}, data["data"])

	w = doJSON(t, r, http.MethodGet, "/reports/snapshots/everything", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
