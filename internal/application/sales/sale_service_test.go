package sales

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	appshared "github.com/retailpos/backend/internal/application/shared"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testSellerID = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	testNow      = time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

func newProduct(t *testing.T, code, price, cost, stock string) catalog.Product {
	t.Helper()
	p, err := catalog.NewProduct(testTenantID, code, "Product "+code, "UN", dec(price), dec(cost))
	require.NoError(t, err)
	require.NoError(t, p.AdjustStock(dec(stock)))
	return *p
}

func newCustomer(t *testing.T, limit string) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(testTenantID, "Maria Souza")
	require.NoError(t, err)
	require.NoError(t, c.SetCreditLimit(dec(limit)))
	return c
}

type saleFixture struct {
	sales        *testutil.MockSaleRepository
	products     *testutil.MockProductRepository
	installments *testutil.MockInstallmentRepository
	customers    *testutil.MockCustomerRepository
	publisher    *testutil.RecordingPublisher
	service      *SaleService
}

func newSaleFixture() *saleFixture {
	f := &saleFixture{
		sales:        new(testutil.MockSaleRepository),
		products:     new(testutil.MockProductRepository),
		installments: new(testutil.MockInstallmentRepository),
		customers:    new(testutil.MockCustomerRepository),
		publisher:    &testutil.RecordingPublisher{},
	}
	scope := &appshared.NoOpTransactionScope{
		SaleRepo:        f.sales,
		InstallmentRepo: f.installments,
		ProductRepo:     f.products,
		CustomerRepo:    f.customers,
	}
	f.service = NewSaleService(f.sales, f.installments, scope, nil)
	f.service.SetEventPublisher(f.publisher)
	f.service.SetClock(func() time.Time { return testNow })
	return f
}

func TestCreateSale_CashDecrementsStock(t *testing.T) {
	f := newSaleFixture()
	products := []catalog.Product{
		newProduct(t, "A1", "10.00", "6.00", "5"),
		newProduct(t, "B2", "25.50", "12.00", "2"),
	}
	f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-20260310-00001", nil)
	f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return(products, nil)
	f.sales.On("Save", mock.Anything, mock.AnythingOfType("*sales.Sale")).Return(nil)
	f.products.On("SaveBatch", mock.Anything, mock.MatchedBy(func(ps []*catalog.Product) bool { return len(ps) == 2 })).Return(nil)

	discount := dec("1.00")
	resp, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
		Items: []SaleItemRequest{
			{ProductID: products[0].ID, Quantity: dec("3")},
			{ProductID: products[1].ID, Quantity: dec("1")},
		},
		Discount:      &discount,
		PaymentMethod: "cash",
	})
	require.NoError(t, err)

	assert.Equal(t, "VD-20260310-00001", resp.SaleNumber)
	assert.True(t, resp.Subtotal.Equal(dec("55.50")))
	assert.True(t, resp.Total.Equal(dec("54.50")))
	assert.True(t, resp.TotalCost.Equal(dec("30.00")))
	assert.True(t, resp.GrossProfit.Equal(dec("24.50")))
	assert.Equal(t, testNow, resp.SoldAt)
	assert.True(t, products[0].StockQuantity.Equal(dec("2")))
	assert.True(t, products[1].StockQuantity.Equal(dec("1")))
	assert.Equal(t, []string{sales.EventTypeSaleCompleted}, f.publisher.Types())
	f.installments.AssertNotCalled(t, "CreateBatch", mock.Anything, mock.Anything)
}

func TestCreateSale_InstallmentPlan(t *testing.T) {
	f := newSaleFixture()
	customer := newCustomer(t, "500.00")
	products := []catalog.Product{newProduct(t, "TV", "100.00", "70.00", "1")}
	f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-20260310-00002", nil)
	f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, customer.ID).Return(customer, nil)
	f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return(products, nil)
	f.installments.On("CustomerDebt", mock.Anything, testTenantID, customer.ID, testNow).
		Return(&billing.CustomerDebt{CustomerID: customer.ID, Outstanding: dec("150.00")}, nil)
	f.sales.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.products.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

	var saved []*billing.Installment
	f.installments.On("CreateBatch", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(1).([]*billing.Installment) }).
		Return(nil)

	resp, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
		CustomerID:       &customer.ID,
		Items:            []SaleItemRequest{{ProductID: products[0].ID, Quantity: dec("1")}},
		PaymentMethod:    "installment",
		InstallmentCount: 3,
	})
	require.NoError(t, err)

	require.Len(t, saved, 3)
	sum := decimal.Zero
	for i, inst := range saved {
		assert.Equal(t, i+1, inst.Number)
		assert.Equal(t, resp.ID, inst.SaleID)
		assert.Equal(t, customer.ID, inst.CustomerID)
		sum = sum.Add(inst.Amount)
	}
	assert.True(t, sum.Equal(dec("100.00")), "installments must add up to the sale total, got %s", sum)
	assert.Equal(t, billing.DateOf(testNow.AddDate(0, 0, billing.DefaultFirstDueDays)), saved[0].DueDate)
	assert.Equal(t, customer.Name, resp.CustomerName)

	types := f.publisher.Types()
	require.Len(t, types, 4)
	assert.Equal(t, sales.EventTypeSaleCompleted, types[0])
	assert.Equal(t, billing.EventTypeInstallmentCreated, types[3])
}

func TestCreateSale_Rejections(t *testing.T) {
	t.Run("insufficient stock", func(t *testing.T) {
		f := newSaleFixture()
		products := []catalog.Product{newProduct(t, "A1", "10.00", "6.00", "1")}
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)
		f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return(products, nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: products[0].ID, Quantity: dec("2")}},
			PaymentMethod: "cash",
		})
		assert.Equal(t, "INSUFFICIENT_STOCK", errCode(t, err))
		f.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		assert.Empty(t, f.publisher.Types())
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newSaleFixture()
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)
		f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return([]catalog.Product{}, nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: uuid.New(), Quantity: dec("1")}},
			PaymentMethod: "pix",
		})
		assert.Equal(t, "NOT_FOUND", errCode(t, err))
	})

	t.Run("duplicate line", func(t *testing.T) {
		f := newSaleFixture()
		id := uuid.New()
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: id, Quantity: dec("1")}, {ProductID: id, Quantity: dec("2")}},
			PaymentMethod: "cash",
		})
		assert.Equal(t, "DUPLICATE_ITEM", errCode(t, err))
	})

	t.Run("installment without customer", func(t *testing.T) {
		f := newSaleFixture()
		products := []catalog.Product{newProduct(t, "A1", "10.00", "6.00", "5")}
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)
		f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return(products, nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			Items:            []SaleItemRequest{{ProductID: products[0].ID, Quantity: dec("1")}},
			PaymentMethod:    "installment",
			InstallmentCount: 2,
		})
		assert.Equal(t, "CUSTOMER_REQUIRED", errCode(t, err))
	})

	t.Run("credit limit exceeded", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t, "200.00")
		products := []catalog.Product{newProduct(t, "TV", "100.00", "70.00", "1")}
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)
		f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, customer.ID).Return(customer, nil)
		f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, mock.Anything).Return(products, nil)
		f.installments.On("CustomerDebt", mock.Anything, testTenantID, customer.ID, testNow).
			Return(&billing.CustomerDebt{Outstanding: dec("150.00")}, nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			CustomerID:       &customer.ID,
			Items:            []SaleItemRequest{{ProductID: products[0].ID, Quantity: dec("1")}},
			PaymentMethod:    "installment",
			InstallmentCount: 2,
		})
		assert.Equal(t, "CREDIT_LIMIT_EXCEEDED", errCode(t, err))
		f.sales.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("inactive customer", func(t *testing.T) {
		f := newSaleFixture()
		customer := newCustomer(t, "0")
		customer.Deactivate()
		f.sales.On("GenerateSaleNumber", mock.Anything, testTenantID, testNow).Return("VD-1", nil)
		f.customers.On("FindByIDForTenant", mock.Anything, testTenantID, customer.ID).Return(customer, nil)

		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			CustomerID:       &customer.ID,
			Items:            []SaleItemRequest{{ProductID: uuid.New(), Quantity: dec("1")}},
			PaymentMethod:    "installment",
			InstallmentCount: 2,
		})
		assert.Equal(t, "CUSTOMER_INACTIVE", errCode(t, err))
	})

	t.Run("unknown payment method", func(t *testing.T) {
		f := newSaleFixture()
		_, err := f.service.CreateSale(context.Background(), testTenantID, testSellerID, CreateSaleRequest{
			Items:         []SaleItemRequest{{ProductID: uuid.New(), Quantity: dec("1")}},
			PaymentMethod: "cheque",
		})
		assert.Equal(t, "INVALID_PAYMENT_METHOD", errCode(t, err))
	})
}

func newCreditSale(t *testing.T, product catalog.Product, customer *partner.Customer) (*sales.Sale, []billing.Installment) {
	t.Helper()
	sale, err := sales.NewSale(testTenantID, "VD-20260310-00003", testSellerID, sales.PaymentMethodInstallment)
	require.NoError(t, err)
	sale.SoldAt = testNow
	sale.SetCustomer(customer.ID, customer.Name)
	_, err = sale.AddItem(sales.ItemInput{
		ProductID: product.ID, ProductCode: product.Code, ProductName: product.Name,
		Quantity: dec("2"), UnitPrice: product.UnitPrice, UnitCost: product.CostPrice,
	})
	require.NoError(t, err)
	require.NoError(t, sale.PlanInstallments(2, nil))
	require.NoError(t, sale.Complete())
	sale.ClearDomainEvents()

	entries, err := sale.Schedule()
	require.NoError(t, err)
	ptrs, err := billing.InstallmentsFromSchedule(testTenantID, sale.ID, customer.ID, entries)
	require.NoError(t, err)
	out := make([]billing.Installment, len(ptrs))
	for i, p := range ptrs {
		p.ClearDomainEvents()
		out[i] = *p
	}
	return sale, out
}

func TestCancelSale_RestocksAndCancelsInstallments(t *testing.T) {
	f := newSaleFixture()
	product := newProduct(t, "TV", "100.00", "70.00", "3")
	sale, plan := newCreditSale(t, product, newCustomer(t, "0"))
	products := []catalog.Product{product}

	f.sales.On("FindByIDForTenant", mock.Anything, testTenantID, sale.ID).Return(sale, nil)
	f.installments.On("FindBySale", mock.Anything, testTenantID, sale.ID).Return(plan, nil)
	f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, []uuid.UUID{product.ID}).Return(products, nil)
	f.sales.On("SaveWithLock", mock.Anything, sale).Return(nil)
	f.products.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	f.installments.On("SaveBatchWithLock", mock.Anything, mock.MatchedBy(func(list []*billing.Installment) bool {
		for _, inst := range list {
			if !inst.IsCancelled() {
				return false
			}
		}
		return len(list) == 2
	})).Return(nil)

	resp, err := f.service.CancelSale(context.Background(), testTenantID, sale.ID, CancelSaleRequest{Reason: "customer gave up"})
	require.NoError(t, err)

	assert.Equal(t, "cancelled", resp.Status)
	assert.Equal(t, "customer gave up", resp.CancelReason)
	assert.True(t, products[0].StockQuantity.Equal(dec("5")))
	assert.Equal(t, []string{
		sales.EventTypeSaleCancelled,
		billing.EventTypeInstallmentCancelled,
		billing.EventTypeInstallmentCancelled,
	}, f.publisher.Types())
	f.installments.AssertExpectations(t)
}

func TestCancelSale_RejectsWhenPaid(t *testing.T) {
	f := newSaleFixture()
	product := newProduct(t, "TV", "100.00", "70.00", "3")
	sale, plan := newCreditSale(t, product, newCustomer(t, "0"))
	_, err := plan[0].RegisterPayment(billing.PaymentInput{Amount: dec("10.00"), PaidAt: testNow}, testNow)
	require.NoError(t, err)

	f.sales.On("FindByIDForTenant", mock.Anything, testTenantID, sale.ID).Return(sale, nil)
	f.installments.On("FindBySale", mock.Anything, testTenantID, sale.ID).Return(plan, nil)

	_, err = f.service.CancelSale(context.Background(), testTenantID, sale.ID, CancelSaleRequest{Reason: "x"})
	assert.Equal(t, "SALE_HAS_PAYMENTS", errCode(t, err))
	assert.False(t, sale.IsCancelled())
	f.sales.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestCancelSale_AlreadyCancelled(t *testing.T) {
	f := newSaleFixture()
	product := newProduct(t, "TV", "100.00", "70.00", "3")
	sale, _ := newCreditSale(t, product, newCustomer(t, "0"))
	require.NoError(t, sale.Cancel("first"))
	f.sales.On("FindByIDForTenant", mock.Anything, testTenantID, sale.ID).Return(sale, nil)

	_, err := f.service.CancelSale(context.Background(), testTenantID, sale.ID, CancelSaleRequest{Reason: "again"})
	assert.Equal(t, "INVALID_STATE", errCode(t, err))
}

func TestListSales_FilterMapping(t *testing.T) {
	f := newSaleFixture()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	f.sales.On("FindAllForTenant", mock.Anything, testTenantID, mock.MatchedBy(func(fl sales.SaleFilter) bool {
		return fl.Page == 1 && fl.PageSize == 20 &&
			fl.PaymentMethod != nil && *fl.PaymentMethod == sales.PaymentMethodPix &&
			fl.Status == nil && fl.From != nil && fl.From.Equal(from)
	})).Return([]sales.Sale{}, nil)
	f.sales.On("CountForTenant", mock.Anything, testTenantID, mock.Anything).Return(int64(0), nil)

	list, total, err := f.service.ListSales(context.Background(), testTenantID, SaleListFilter{PaymentMethod: "pix", From: &from})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	_, _, err = f.service.ListSales(context.Background(), testTenantID, SaleListFilter{Status: "open"})
	assert.Equal(t, "INVALID_STATUS", errCode(t, err))
}

func TestGetSaleInstallments(t *testing.T) {
	f := newSaleFixture()
	product := newProduct(t, "TV", "100.00", "70.00", "3")
	sale, plan := newCreditSale(t, product, newCustomer(t, "0"))
	_, err := plan[0].RegisterPayment(billing.PaymentInput{Amount: dec("40.00"), PaidAt: testNow}, testNow)
	require.NoError(t, err)

	f.sales.On("FindByIDForTenant", mock.Anything, testTenantID, sale.ID).Return(sale, nil)
	f.installments.On("FindBySale", mock.Anything, testTenantID, sale.ID).Return(plan, nil)

	list, err := f.service.GetSaleInstallments(context.Background(), testTenantID, sale.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "partial", list[0].Status)
	assert.True(t, list[0].Remaining.Equal(dec("60.00")))
	assert.Equal(t, "pending", list[1].Status)
}

func TestCancelSale_ConcurrentPaymentConflicts(t *testing.T) {
	f := newSaleFixture()
	product := newProduct(t, "TV", "100.00", "70.00", "3")
	sale, plan := newCreditSale(t, product, newCustomer(t, "0"))

	f.sales.On("FindByIDForTenant", mock.Anything, testTenantID, sale.ID).Return(sale, nil)
	f.installments.On("FindBySale", mock.Anything, testTenantID, sale.ID).Return(plan, nil)
	f.products.On("FindByIDsForUpdate", mock.Anything, testTenantID, []uuid.UUID{product.ID}).
		Return([]catalog.Product{product}, nil)
	f.sales.On("SaveWithLock", mock.Anything, sale).Return(nil)
	f.products.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)
	f.installments.On("SaveBatchWithLock", mock.Anything, mock.Anything).Return(shared.ErrConcurrencyConflict)

	_, err := f.service.CancelSale(context.Background(), testTenantID, sale.ID, CancelSaleRequest{Reason: "late"})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	assert.Empty(t, f.publisher.Types())
}
