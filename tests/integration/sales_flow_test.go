package integration

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appbilling "github.com/retailpos/backend/internal/application/billing"
	catalogapp "github.com/retailpos/backend/internal/application/catalog"
	partnerapp "github.com/retailpos/backend/internal/application/partner"
	printingapp "github.com/retailpos/backend/internal/application/printing"
	salesapp "github.com/retailpos/backend/internal/application/sales"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/infrastructure/scheduler"
	"github.com/retailpos/backend/tests/testutil"
)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

type storeFixture struct {
	srv      *testServer
	admin    session
	product  catalogapp.ProductResponse
	customer partnerapp.CustomerResponse
}

// newStore registers a company with PIX settings, one product with 10 units
// at 50.00 and one customer with a 1000.00 credit limit
func newStore(t *testing.T) *storeFixture {
	t.Helper()
	srv := newTestServer(t)
	f := &storeFixture{srv: srv, admin: srv.register(t, "Loja Integracao")}

	srv.ok(t, http.MethodPut, "/api/v1/company", f.admin.Token, map[string]any{
		"pix_key":       "financeiro@loja.example",
		"merchant_city": "SAO PAULO",
	}, http.StatusOK, nil)

	srv.ok(t, http.MethodPost, "/api/v1/products", f.admin.Token, map[string]any{
		"code":          "CAM-01",
		"barcode":       "7890000000017",
		"name":          "Camiseta",
		"unit":          "UN",
		"unit_price":    "50.00",
		"cost_price":    "20.00",
		"initial_stock": "10",
		"min_stock":     "2",
	}, http.StatusCreated, &f.product)

	srv.ok(t, http.MethodPost, "/api/v1/customers", f.admin.Token, map[string]any{
		"name":         "Maria Souza",
		"phone":        "(11) 99999-0000",
		"credit_limit": "1000.00",
	}, http.StatusCreated, &f.customer)
	return f
}

func (f *storeFixture) installmentSale(t *testing.T, qty string, count int) salesapp.SaleResponse {
	t.Helper()
	var sale salesapp.SaleResponse
	f.srv.ok(t, http.MethodPost, "/api/v1/sales", f.admin.Token, map[string]any{
		"customer_id":       f.customer.ID,
		"payment_method":    "installment",
		"installment_count": count,
		"items": []map[string]any{
			{"product_id": f.product.ID, "quantity": qty},
		},
	}, http.StatusCreated, &sale)
	return sale
}

func (f *storeFixture) installments(t *testing.T, saleID string) []appbilling.InstallmentResponse {
	t.Helper()
	var list []appbilling.InstallmentResponse
	f.srv.ok(t, http.MethodGet, "/api/v1/sales/"+saleID+"/installments", f.admin.Token, nil, http.StatusOK, &list)
	return list
}

func (f *storeFixture) stock(t *testing.T) decimal.Decimal {
	t.Helper()
	var p catalogapp.ProductResponse
	f.srv.ok(t, http.MethodGet, "/api/v1/products/"+f.product.ID.String(), f.admin.Token, nil, http.StatusOK, &p)
	return p.StockQuantity
}

func TestInstallmentSaleLifecycle(t *testing.T) {
	f := newStore(t)
	srv, token := f.srv, f.admin.Token

	sale := f.installmentSale(t, "3", 3)
	assertDecimal(t, "150.00", sale.Total)
	assertDecimal(t, "90.00", sale.GrossProfit)
	assert.Equal(t, "completed", sale.Status)
	assertDecimal(t, "7", f.stock(t))

	insts := f.installments(t, sale.ID.String())
	require.Len(t, insts, 3)
	for i, inst := range insts {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, "pending", inst.Status)
		assertDecimal(t, "50.00", inst.Amount)
	}
	assert.True(t, insts[1].DueDate.After(insts[0].DueDate))

	first := insts[0]
	payPath := "/api/v1/installments/" + first.ID.String() + "/payments"

	t.Run("partial payment with idempotency key", func(t *testing.T) {
		req := testutil.Request{
			Method:  http.MethodPost,
			Path:    payPath,
			Token:   token,
			Body:    map[string]any{"amount": "20.00", "method": "cash"},
			Headers: map[string]string{"Idempotency-Key": "pay-1"},
		}
		rec := testutil.Do(t, srv.engine, req)
		testutil.RequireStatus(t, rec, http.StatusCreated)
		var resp appbilling.RegisterPaymentResponse
		testutil.Decode(t, rec, &resp)
		assert.Equal(t, "partial", resp.Installment.Status)
		assertDecimal(t, "30.00", resp.Installment.Remaining)

		testutil.AssertError(t, testutil.Do(t, srv.engine, req), http.StatusConflict, "DUPLICATE_REQUEST")
	})

	t.Run("over-payment is rejected", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, payPath, token, map[string]any{"amount": "30.01"})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "EXCEEDS_REMAINING")
	})

	t.Run("debt reflects the payment", func(t *testing.T) {
		var debt appbilling.CustomerDebtResponse
		srv.ok(t, http.MethodGet, "/api/v1/customers/"+f.customer.ID.String()+"/debt", token, nil, http.StatusOK, &debt)
		assertDecimal(t, "150.00", debt.TotalAmount)
		assertDecimal(t, "20.00", debt.TotalPaid)
		assertDecimal(t, "130.00", debt.Outstanding)
		assert.Equal(t, 3, debt.OpenInstallments)
	})

	t.Run("sale with payments cannot be cancelled", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", token, map[string]any{"reason": "desistencia"})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "SALE_HAS_PAYMENTS")
	})

	t.Run("debt payment settles oldest first", func(t *testing.T) {
		var resp appbilling.DebtPaymentResponse
		srv.ok(t, http.MethodPost, "/api/v1/customers/"+f.customer.ID.String()+"/payments", token,
			map[string]any{"amount": "60.00", "method": "pix"}, http.StatusCreated, &resp)
		require.Len(t, resp.Payments, 2)
		assertDecimal(t, "30.00", resp.Payments[0].Amount)
		assertDecimal(t, "30.00", resp.Payments[1].Amount)
		assertDecimal(t, "70.00", resp.Debt.Outstanding)

		insts := f.installments(t, sale.ID.String())
		assert.Equal(t, "paid", insts[0].Status)
		assert.Equal(t, "partial", insts[1].Status)
		assert.Equal(t, "pending", insts[2].Status)
	})

	t.Run("deleting a payment reopens the installment", func(t *testing.T) {
		var inst appbilling.InstallmentResponse
		srv.ok(t, http.MethodGet, "/api/v1/installments/"+insts[1].ID.String(), token, nil, http.StatusOK, &inst)
		require.Len(t, inst.Payments, 1)

		var reopened appbilling.InstallmentResponse
		srv.ok(t, http.MethodDelete, "/api/v1/payments/"+inst.Payments[0].ID.String(), token, nil, http.StatusOK, &reopened)
		assert.Equal(t, "pending", reopened.Status)
		assertDecimal(t, "50.00", reopened.Remaining)
	})

	t.Run("pix charge covers the remaining amount", func(t *testing.T) {
		var charge appbilling.PixChargeResponse
		srv.ok(t, http.MethodPost, "/api/v1/installments/"+insts[1].ID.String()+"/pix", token, nil, http.StatusOK, &charge)
		assertDecimal(t, "50.00", charge.Amount)
		assert.True(t, strings.HasPrefix(charge.Payload, "000201"), charge.Payload)
		assert.Contains(t, charge.Payload, "financeiro@loja.example")
		assert.Empty(t, charge.QRCodeURL)
	})

	t.Run("carne renders as html", func(t *testing.T) {
		var doc printingapp.DocumentResponse
		srv.ok(t, http.MethodGet, "/api/v1/sales/"+sale.ID.String()+"/carne?format=html", token, nil, http.StatusOK, &doc)
		assert.Equal(t, "html", doc.Format)
		assert.Contains(t, doc.HTML, sale.SaleNumber)
	})
}

func TestCashSaleCancellationRestocks(t *testing.T) {
	f := newStore(t)
	srv, token := f.srv, f.admin.Token

	var sale salesapp.SaleResponse
	srv.ok(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
		"payment_method": "cash",
		"discount":       "5.00",
		"items": []map[string]any{
			{"product_id": f.product.ID, "quantity": "2"},
		},
	}, http.StatusCreated, &sale)
	assertDecimal(t, "95.00", sale.Total)
	assertDecimal(t, "8", f.stock(t))

	var byNumber salesapp.SaleResponse
	srv.ok(t, http.MethodGet, "/api/v1/sales/number/"+sale.SaleNumber, token, nil, http.StatusOK, &byNumber)
	assert.Equal(t, sale.ID, byNumber.ID)

	var cancelled salesapp.SaleResponse
	srv.ok(t, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", token,
		map[string]any{"reason": "troca"}, http.StatusOK, &cancelled)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "troca", cancelled.CancelReason)
	assertDecimal(t, "10", f.stock(t))

	rec := srv.do(t, http.MethodPost, "/api/v1/sales/"+sale.ID.String()+"/cancel", token, map[string]any{"reason": "de novo"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestSaleRejections(t *testing.T) {
	f := newStore(t)
	srv, token := f.srv, f.admin.Token

	t.Run("insufficient stock", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
			"payment_method": "cash",
			"items":          []map[string]any{{"product_id": f.product.ID, "quantity": "11"}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
		assertDecimal(t, "10", f.stock(t))
	})

	t.Run("installments need a customer", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
			"payment_method":    "installment",
			"installment_count": 2,
			"items":             []map[string]any{{"product_id": f.product.ID, "quantity": "1"}},
		})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "CUSTOMER_REQUIRED")
	})

	t.Run("credit limit", func(t *testing.T) {
		var limited partnerapp.CustomerResponse
		srv.ok(t, http.MethodPost, "/api/v1/customers", token, map[string]any{
			"name":         "Cliente Limitado",
			"credit_limit": "60.00",
		}, http.StatusCreated, &limited)

		rec := srv.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
			"customer_id":       limited.ID,
			"payment_method":    "installment",
			"installment_count": 2,
			"items":             []map[string]any{{"product_id": f.product.ID, "quantity": "2"}},
		})
		testutil.AssertError(t, rec, http.StatusUnprocessableEntity, "CREDIT_LIMIT_EXCEEDED")
	})

	t.Run("validation errors", func(t *testing.T) {
		rec := srv.do(t, http.MethodPost, "/api/v1/sales", token, map[string]any{
			"payment_method": "barter",
			"items":          []map[string]any{{"product_id": f.product.ID, "quantity": "1"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	})
}

func TestMaintenanceMarksOverdueAndRefreshesSnapshots(t *testing.T) {
	f := newStore(t)
	srv, token := f.srv, f.admin.Token
	ctx := context.Background()

	sale := f.installmentSale(t, "2", 2)
	insts := f.installments(t, sale.ID.String())
	require.Len(t, insts, 2)

	// noon of the day after the last due date, late on any company clock
	asOf := insts[1].DueDate.AddDate(0, 0, 1).Add(12 * time.Hour)
	require.NoError(t, srv.maintenance.BeforeRun(ctx))
	require.NoError(t, srv.maintenance.Execute(ctx, scheduler.NewJob(f.admin.TenantID, scheduler.JobTypeMarkOverdue, asOf, 0)))
	require.NoError(t, srv.maintenance.Execute(ctx, scheduler.NewJob(f.admin.TenantID, scheduler.JobTypeRefreshSnapshots, asOf, 0)))

	var stored []string
	require.NoError(t, srv.db.DB.Raw(
		"SELECT status FROM installments WHERE sale_id = ? ORDER BY number", sale.ID).Scan(&stored).Error)
	assert.Equal(t, []string{"overdue", "overdue"}, stored)

	var overdue report.OverdueReport
	srv.ok(t, http.MethodGet, "/api/v1/reports/overdue?as_of="+asOf.Format("2006-01-02"), token, nil, http.StatusOK, &overdue)
	require.Len(t, overdue.Entries, 2)
	assertDecimal(t, "100.00", overdue.TotalRemaining)
	assert.Equal(t, 1, overdue.CustomerCount)

	rec := srv.do(t, http.MethodGet, "/api/v1/reports/snapshots/"+string(report.SnapshotReceivables), token, nil)
	testutil.RequireStatus(t, rec, http.StatusOK)
	env := testutil.Decode(t, rec, nil)
	assert.Contains(t, string(env.Data), `"kind":"receivables"`)
}

func TestReportsFollowPayments(t *testing.T) {
	f := newStore(t)
	srv, token := f.srv, f.admin.Token

	sale := f.installmentSale(t, "4", 4)
	insts := f.installments(t, sale.ID.String())

	var before report.ReceivablesSummary
	srv.ok(t, http.MethodGet, "/api/v1/reports/receivables", token, nil, http.StatusOK, &before)
	assertDecimal(t, "200.00", before.Outstanding)
	assertDecimal(t, "0", before.ReceivedInPeriod)

	srv.ok(t, http.MethodPost, "/api/v1/installments/"+insts[0].ID.String()+"/payments", token,
		map[string]any{"amount": "50.00"}, http.StatusCreated, nil)

	// the cached report is dropped by the payment event
	var after report.ReceivablesSummary
	srv.ok(t, http.MethodGet, "/api/v1/reports/receivables", token, nil, http.StatusOK, &after)
	assertDecimal(t, "150.00", after.Outstanding)
	assertDecimal(t, "50.00", after.ReceivedInPeriod)
	assert.Equal(t, int64(3), after.OpenInstallments)

	var summary report.SalesSummary
	srv.ok(t, http.MethodGet, "/api/v1/reports/sales-summary", token, nil, http.StatusOK, &summary)
	assert.Equal(t, int64(1), summary.SaleCount)
	assertDecimal(t, "200.00", summary.Total)

	var profit report.ProfitReport
	srv.ok(t, http.MethodGet, "/api/v1/reports/profit", token, nil, http.StatusOK, &profit)
	assertDecimal(t, "120.00", profit.GrossProfit)
	require.Len(t, profit.Products, 1)
	assert.Equal(t, "CAM-01", profit.Products[0].ProductCode)
}
