package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/catalog"
	"github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/report"
	"github.com/retailpos/backend/internal/domain/sales"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

// MockSaleRepository is a mock implementation of sales.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByNumber(ctx context.Context, tenantID uuid.UUID, saleNumber string) (*sales.Sale, error) {
	args := m.Called(ctx, tenantID, saleNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) ([]sales.Sale, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]sales.Sale), args.Error(1)
}

func (m *MockSaleRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter sales.SaleFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSaleRepository) Save(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *sales.Sale) error {
	return m.Called(ctx, sale).Error(0)
}

func (m *MockSaleRepository) GenerateSaleNumber(ctx context.Context, tenantID uuid.UUID, at time.Time) (string, error) {
	args := m.Called(ctx, tenantID, at)
	return args.String(0), args.Error(1)
}

func (m *MockSaleRepository) CountByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).(int64), args.Error(1)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByIDsForUpdate(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, ids)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByCode(ctx context.Context, tenantID uuid.UUID, code string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindByBarcode(ctx context.Context, tenantID uuid.UUID, barcode string) (*catalog.Product, error) {
	args := m.Called(ctx, tenantID, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) ([]catalog.Product, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]catalog.Product), args.Error(1)
}

func (m *MockProductRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter catalog.ProductFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockProductRepository) ExistsByCode(ctx context.Context, tenantID uuid.UUID, code string) (bool, error) {
	args := m.Called(ctx, tenantID, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) SaveBatch(ctx context.Context, products []*catalog.Product) error {
	return m.Called(ctx, products).Error(0)
}

// MockInstallmentRepository is a mock implementation of billing.InstallmentRepository
type MockInstallmentRepository struct {
	mock.Mock
}

func (m *MockInstallmentRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Installment, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) ([]billing.Installment, error) {
	args := m.Called(ctx, tenantID, saleID)
	return args.Get(0).([]billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindOpenByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Installment, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).([]billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) ([]billing.Installment, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Get(0).([]billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InstallmentFilter) ([]billing.Installment, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter billing.InstallmentFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockInstallmentRepository) FindByPaymentID(ctx context.Context, tenantID, paymentID uuid.UUID) (*billing.Installment, error) {
	args := m.Called(ctx, tenantID, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Installment), args.Error(1)
}

func (m *MockInstallmentRepository) CreateBatch(ctx context.Context, installments []*billing.Installment) error {
	return m.Called(ctx, installments).Error(0)
}

func (m *MockInstallmentRepository) SaveWithLock(ctx context.Context, installment *billing.Installment) error {
	return m.Called(ctx, installment).Error(0)
}

func (m *MockInstallmentRepository) SaveBatchWithLock(ctx context.Context, installments []*billing.Installment) error {
	return m.Called(ctx, installments).Error(0)
}

func (m *MockInstallmentRepository) CustomerDebt(ctx context.Context, tenantID, customerID uuid.UUID, asOf time.Time) (*billing.CustomerDebt, error) {
	args := m.Called(ctx, tenantID, customerID, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.CustomerDebt), args.Error(1)
}

func (m *MockInstallmentRepository) MarkOverdue(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int64, error) {
	args := m.Called(ctx, tenantID, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByDocument(ctx context.Context, tenantID uuid.UUID, document string) (*partner.Customer, error) {
	args := m.Called(ctx, tenantID, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerFilter) ([]partner.Customer, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter partner.CustomerFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	return m.Called(ctx, customer).Error(0)
}

// MockCompanyRepository is a mock implementation of identity.CompanyRepository
type MockCompanyRepository struct {
	mock.Mock
}

func (m *MockCompanyRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Company, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindByDocument(ctx context.Context, document string) (*identity.Company, error) {
	args := m.Called(ctx, document)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Company), args.Error(1)
}

func (m *MockCompanyRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Company, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.Company), args.Error(1)
}

func (m *MockCompanyRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCompanyRepository) FindActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	args := m.Called(ctx)
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockCompanyRepository) Save(ctx context.Context, company *identity.Company) error {
	return m.Called(ctx, company).Error(0)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	return m.Called(ctx, user).Error(0)
}

// MockReportRepository is a mock implementation of report.ReportRepository
type MockReportRepository struct {
	mock.Mock
}

func (m *MockReportRepository) OverdueEntries(ctx context.Context, tenantID uuid.UUID, asOf time.Time, customerID *uuid.UUID) ([]report.OverdueEntry, error) {
	args := m.Called(ctx, tenantID, asOf, customerID)
	return args.Get(0).([]report.OverdueEntry), args.Error(1)
}

func (m *MockReportRepository) CustomerDebts(ctx context.Context, tenantID uuid.UUID, asOf time.Time, limit int) ([]report.CustomerDebtEntry, error) {
	args := m.Called(ctx, tenantID, asOf, limit)
	return args.Get(0).([]report.CustomerDebtEntry), args.Error(1)
}

func (m *MockReportRepository) SalesSummary(ctx context.Context, tenantID uuid.UUID, period report.Period) (*report.SalesSummary, error) {
	args := m.Called(ctx, tenantID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.SalesSummary), args.Error(1)
}

func (m *MockReportRepository) ProfitReport(ctx context.Context, tenantID uuid.UUID, period report.Period, topN int) (*report.ProfitReport, error) {
	args := m.Called(ctx, tenantID, period, topN)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.ProfitReport), args.Error(1)
}

func (m *MockReportRepository) ReceivablesSummary(ctx context.Context, tenantID uuid.UUID, asOf time.Time, period report.Period) (*report.ReceivablesSummary, error) {
	args := m.Called(ctx, tenantID, asOf, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.ReceivablesSummary), args.Error(1)
}

func (m *MockReportRepository) LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSnapshotRepository is a mock implementation of report.SnapshotRepository
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) Upsert(ctx context.Context, snapshot *report.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *MockSnapshotRepository) Latest(ctx context.Context, tenantID uuid.UUID, kind report.SnapshotKind) (*report.Snapshot, error) {
	args := m.Called(ctx, tenantID, kind)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Snapshot), args.Error(1)
}

func (m *MockSnapshotRepository) RefreshMaterializedViews(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// RecordingPublisher collects published events in order
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *RecordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

// Events returns a copy of the recorded events
func (p *RecordingPublisher) Events() []shared.DomainEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.DomainEvent(nil), p.events...)
}

// Types returns the recorded event types
func (p *RecordingPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

var (
	_ sales.SaleRepository          = (*MockSaleRepository)(nil)
	_ catalog.ProductRepository     = (*MockProductRepository)(nil)
	_ billing.InstallmentRepository = (*MockInstallmentRepository)(nil)
	_ partner.CustomerRepository    = (*MockCustomerRepository)(nil)
	_ identity.CompanyRepository    = (*MockCompanyRepository)(nil)
	_ identity.UserRepository       = (*MockUserRepository)(nil)
	_ report.ReportRepository       = (*MockReportRepository)(nil)
	_ report.SnapshotRepository     = (*MockSnapshotRepository)(nil)
	_ shared.EventPublisher         = (*RecordingPublisher)(nil)
)
