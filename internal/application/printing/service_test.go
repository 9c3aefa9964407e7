package printing

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	infra "github.com/retailpos/backend/internal/infrastructure/printing"
	"github.com/retailpos/backend/internal/infrastructure/storage"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

type fakeRenderer struct {
	requests []*infra.RenderRequest
}

func (r *fakeRenderer) Render(_ context.Context, req *infra.RenderRequest) (*infra.RenderResult, error) {
	r.requests = append(r.requests, req)
	return &infra.RenderResult{PDFData: []byte("%PDF-1.7 fake"), PageCount: 2, RenderDuration: time.Millisecond}, nil
}

func (r *fakeRenderer) Close() error { return nil }

type documentFixture struct {
	sales        *testutil.MockSaleRepository
	installments *testutil.MockInstallmentRepository
	customers    *testutil.MockCustomerRepository
	companies    *testutil.MockCompanyRepository
	renderer     *fakeRenderer
	storage      *storage.MemoryObjectStorage
	service      *DocumentService
	company      *identity.Company
	customer     *partner.Customer
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()
	company, err := identity.NewCompany("Loja Centro", "11222333000181")
	require.NoError(t, err)
	require.NoError(t, company.SetPixSettings("loja@centro.com.br", "Recife"))
	customer, err := partner.NewCustomer(company.ID, "maria souza")
	require.NoError(t, err)

	f := &documentFixture{
		sales:        new(testutil.MockSaleRepository),
		installments: new(testutil.MockInstallmentRepository),
		customers:    new(testutil.MockCustomerRepository),
		companies:    new(testutil.MockCompanyRepository),
		renderer:     &fakeRenderer{},
		storage:      storage.NewMemoryObjectStorage("http://files.test"),
		company:      company,
		customer:     customer,
	}
	f.companies.On("FindByID", mock.Anything, company.ID).Return(company, nil)
	f.customers.On("FindByIDForTenant", mock.Anything, company.ID, customer.ID).Return(customer, nil)
	f.service = NewDocumentService(f.sales, f.installments, f.customers, f.companies, nil, f.renderer, f.storage, nil)
	f.service.SetClock(func() time.Time { return testNow })
	return f
}

func (f *documentFixture) creditSale(t *testing.T) (*sales.Sale, []billing.Installment) {
	t.Helper()
	sale, err := sales.NewSale(f.company.ID, "VD-20260310-00007", uuid.New(), sales.PaymentMethodInstallment)
	require.NoError(t, err)
	sale.SoldAt = testNow
	sale.SetCustomer(f.customer.ID, f.customer.Name)
	_, err = sale.AddItem(sales.ItemInput{
		ProductID:   uuid.New(),
		ProductCode: "TV-32",
		ProductName: "Televisor 32",
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   decimal.NewFromInt(300),
		UnitCost:    decimal.NewFromInt(200),
	})
	require.NoError(t, err)
	firstDue := testNow.AddDate(0, 1, 0)
	require.NoError(t, sale.PlanInstallments(3, &firstDue))
	require.NoError(t, sale.Complete())

	entries, err := sale.Schedule()
	require.NoError(t, err)
	created, err := billing.InstallmentsFromSchedule(f.company.ID, sale.ID, f.customer.ID, entries)
	require.NoError(t, err)
	_, err = created[0].RegisterPayment(billing.PaymentInput{
		Amount: created[0].Amount,
		PaidAt: testNow,
		Method: billing.PaymentMethodPix,
	}, testNow)
	require.NoError(t, err)

	out := make([]billing.Installment, len(created))
	for i, inst := range created {
		out[i] = *inst
	}
	f.sales.On("FindByIDForTenant", mock.Anything, f.company.ID, sale.ID).Return(sale, nil)
	f.installments.On("FindBySale", mock.Anything, f.company.ID, sale.ID).Return(out, nil)
	return sale, out
}

func (f *documentFixture) cashSale(t *testing.T) *sales.Sale {
	t.Helper()
	sale, err := sales.NewSale(f.company.ID, "VD-20260310-00008", uuid.New(), sales.PaymentMethodCash)
	require.NoError(t, err)
	_, err = sale.AddItem(sales.ItemInput{
		ProductID:   uuid.New(),
		ProductCode: "ARZ-5",
		ProductName: "Arroz 5kg",
		Quantity:    decimal.NewFromInt(2),
		UnitPrice:   decimal.RequireFromString("27.90"),
		UnitCost:    decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	sale.SoldAt = testNow
	require.NoError(t, sale.Complete())
	f.sales.On("FindByIDForTenant", mock.Anything, f.company.ID, sale.ID).Return(sale, nil)
	return sale
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

func TestDocumentService_CarnePDF(t *testing.T) {
	f := newDocumentFixture(t)
	sale, _ := f.creditSale(t)

	resp, err := f.service.Carne(context.Background(), f.company.ID, sale.ID, DocumentRequest{})
	require.NoError(t, err)
	assert.Equal(t, FormatPDF, resp.Format)
	assert.Equal(t, 2, resp.PageCount)
	assert.NotNil(t, resp.ExpiresAt)
	assert.Contains(t, resp.URL, "tenants/"+f.company.ID.String()+"/carne/VD-20260310-00007.pdf")

	data, contentType, ok := f.storage.Object("tenants/" + f.company.ID.String() + "/carne/VD-20260310-00007.pdf")
	require.True(t, ok)
	assert.Equal(t, "application/pdf", contentType)
	assert.Equal(t, []byte("%PDF-1.7 fake"), data)

	require.Len(t, f.renderer.requests, 1)
	req := f.renderer.requests[0]
	assert.Equal(t, infra.PaperA4, req.Paper)
	assert.Contains(t, req.HTML, "Parcela 1/3")
	assert.Contains(t, req.HTML, "Parcela 3/3")
	assert.Contains(t, req.HTML, "Maria Souza")
	// the paid slip carries no PIX payload
	assert.Equal(t, 2, strings.Count(req.HTML, "PIX copia e cola"))
}

func TestDocumentService_CarneHTMLPreviewNeedsNoRenderer(t *testing.T) {
	f := newDocumentFixture(t)
	sale, _ := f.creditSale(t)
	svc := NewDocumentService(f.sales, f.installments, f.customers, f.companies, nil, nil, nil, nil)

	resp, err := svc.Carne(context.Background(), f.company.ID, sale.ID, DocumentRequest{Format: "html"})
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, resp.Format)
	assert.Contains(t, resp.HTML, "VD-20260310-00007")
	assert.Empty(t, resp.URL)

	_, err = svc.Carne(context.Background(), f.company.ID, sale.ID, DocumentRequest{})
	assert.Equal(t, "PRINTING_DISABLED", errCode(t, err))
}

func TestDocumentService_CarneRejectsCashSale(t *testing.T) {
	f := newDocumentFixture(t)
	sale := f.cashSale(t)

	_, err := f.service.Carne(context.Background(), f.company.ID, sale.ID, DocumentRequest{})
	assert.Equal(t, "NOT_CREDIT_SALE", errCode(t, err))
	assert.Empty(t, f.renderer.requests)
}

func TestDocumentService_CarneRejectsCancelledSale(t *testing.T) {
	f := newDocumentFixture(t)
	sale, _ := f.creditSale(t)
	require.NoError(t, sale.Cancel("devolução"))

	_, err := f.service.Carne(context.Background(), f.company.ID, sale.ID, DocumentRequest{})
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
}

func TestDocumentService_Receipt(t *testing.T) {
	f := newDocumentFixture(t)
	sale := f.cashSale(t)

	resp, err := f.service.Receipt(context.Background(), f.company.ID, sale.ID, DocumentRequest{})
	require.NoError(t, err)
	assert.Equal(t, KindReceipt, resp.Kind)
	assert.Contains(t, resp.URL, "/receipt/VD-20260310-00008.pdf")

	require.Len(t, f.renderer.requests, 1)
	req := f.renderer.requests[0]
	assert.Equal(t, infra.PaperReceipt80M, req.Paper)
	assert.Contains(t, req.HTML, "Arroz 5kg")
	assert.Contains(t, req.HTML, "Dinheiro")
	assert.NotContains(t, req.HTML, "VENDA CANCELADA")
	f.customers.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentService_ReceiptOfCreditSaleListsInstallments(t *testing.T) {
	f := newDocumentFixture(t)
	sale, _ := f.creditSale(t)

	resp, err := f.service.Receipt(context.Background(), f.company.ID, sale.ID, DocumentRequest{Format: FormatHTML})
	require.NoError(t, err)
	assert.Contains(t, resp.HTML, "Parcelas")
	assert.Contains(t, resp.HTML, "Crediário")
	assert.NotContains(t, resp.HTML, "PIX copia e cola")
}
