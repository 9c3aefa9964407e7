package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// newTestDB opens a private in-memory sqlite database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.All()...))
	return db
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ledgerFixture is one tenant with a customer, a product and helpers to book credit sales
type ledgerFixture struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	tenantID  uuid.UUID
	sellerID  uuid.UUID
	customer  *partner.Customer
	product   *catalog.Product
	sales     *GormSaleRepository
	ledger    *GormInstallmentRepository
	customers *GormCustomerRepository
	products  *GormProductRepository
}

func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()
	db := newTestDB(t)
	f := &ledgerFixture{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		tenantID:  uuid.New(),
		sellerID:  uuid.New(),
		sales:     NewGormSaleRepository(db),
		ledger:    NewGormInstallmentRepository(db),
		customers: NewGormCustomerRepository(db),
		products:  NewGormProductRepository(db),
	}
	f.customer = f.newCustomer("Maria Souza", "11999990000")

	product, err := catalog.NewProduct(f.tenantID, "CAM-01", "Camiseta", "UN", dec("50.00"), dec("20.00"))
	require.NoError(t, err)
	require.NoError(t, product.AdjustStock(dec("100")))
	require.NoError(t, f.products.Save(f.ctx, product))
	f.product = product
	return f
}

func (f *ledgerFixture) newCustomer(name, phone string) *partner.Customer {
	f.t.Helper()
	c, err := partner.NewCustomer(f.tenantID, name)
	require.NoError(f.t, err)
	require.NoError(f.t, c.SetContact("", phone))
	require.NoError(f.t, f.customers.Save(f.ctx, c))
	return c
}

// creditSale books a completed installment sale of qty units and returns its installments
func (f *ledgerFixture) creditSale(customer *partner.Customer, qty string, count int, soldAt, firstDue time.Time) (*sales.Sale, []*billing.Installment) {
	f.t.Helper()
	number, err := f.sales.GenerateSaleNumber(f.ctx, f.tenantID, soldAt)
	require.NoError(f.t, err)

	sale, err := sales.NewSale(f.tenantID, number, f.sellerID, sales.PaymentMethodInstallment)
	require.NoError(f.t, err)
	sale.SoldAt = soldAt
	sale.SetCustomer(customer.ID, customer.Name)
	_, err = sale.AddItem(sales.ItemInput{
		ProductID:   f.product.ID,
		ProductCode: f.product.Code,
		ProductName: f.product.Name,
		Quantity:    dec(qty),
		UnitPrice:   f.product.UnitPrice,
		UnitCost:    f.product.CostPrice,
	})
	require.NoError(f.t, err)
	require.NoError(f.t, sale.PlanInstallments(count, &firstDue))
	require.NoError(f.t, sale.Complete())
	require.NoError(f.t, f.sales.Save(f.ctx, sale))

	schedule, err := sale.Schedule()
	require.NoError(f.t, err)
	installments, err := billing.InstallmentsFromSchedule(f.tenantID, sale.ID, customer.ID, schedule)
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.CreateBatch(f.ctx, installments))
	return sale, installments
}

// pay loads the installment, registers amount and saves it with the version check
func (f *ledgerFixture) pay(installmentID uuid.UUID, amount string, paidAt time.Time) *billing.Installment {
	f.t.Helper()
	inst, err := f.ledger.FindByIDForTenant(f.ctx, f.tenantID, installmentID)
	require.NoError(f.t, err)
	_, err = inst.RegisterPayment(billing.PaymentInput{Amount: dec(amount), PaidAt: paidAt}, paidAt)
	require.NoError(f.t, err)
	require.NoError(f.t, f.ledger.SaveWithLock(f.ctx, inst))
	return inst
}
