package partner

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/billing"
	"github.com/retailpos/backend/internal/domain/partner"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var (
	testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testUserID   = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	testNow      = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected a domain error, got %v", err)
	return de.Code
}

func newService() (*CustomerService, *testutil.MockCustomerRepository, *testutil.MockInstallmentRepository) {
	customers := new(testutil.MockCustomerRepository)
	installments := new(testutil.MockInstallmentRepository)
	svc := NewCustomerService(customers, installments, nil)
	svc.SetClock(func() time.Time { return testNow })
	return svc, customers, installments
}

func existingCustomer(t *testing.T) *partner.Customer {
	t.Helper()
	c, err := partner.NewCustomer(testTenantID, "João Pereira")
	require.NoError(t, err)
	return c
}

func TestCustomerService_Create(t *testing.T) {
	svc, customers, _ := newService()
	customers.On("FindByDocument", mock.Anything, testTenantID, "52998224725").Return(nil, shared.ErrNotFound)
	customers.On("Save", mock.Anything, mock.AnythingOfType("*partner.Customer")).Return(nil)

	limit := dec("800")
	resp, err := svc.Create(context.Background(), testTenantID, testUserID, CreateCustomerRequest{
		Name:        "  Ana Lima ",
		Document:    "529.982.247-25",
		Email:       "ana@example.com",
		City:        "Recife",
		State:       "pe",
		CreditLimit: &limit,
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana Lima", resp.Name)
	assert.Equal(t, "52998224725", resp.Document)
	assert.Equal(t, "PE", resp.State)
	assert.True(t, resp.CreditLimit.Equal(limit))
	assert.True(t, resp.Active)
}

func TestCustomerService_CreateRejections(t *testing.T) {
	t.Run("duplicate document", func(t *testing.T) {
		svc, customers, _ := newService()
		customers.On("FindByDocument", mock.Anything, testTenantID, "52998224725").Return(existingCustomer(t), nil)

		_, err := svc.Create(context.Background(), testTenantID, testUserID, CreateCustomerRequest{Name: "Ana", Document: "52998224725"})
		assert.Equal(t, "ALREADY_EXISTS", errCode(t, err))
	})

	t.Run("invalid document", func(t *testing.T) {
		svc, customers, _ := newService()
		customers.On("FindByDocument", mock.Anything, testTenantID, "12345678900").Return(nil, shared.ErrNotFound)

		_, err := svc.Create(context.Background(), testTenantID, testUserID, CreateCustomerRequest{Name: "Ana", Document: "123.456.789-00"})
		assert.Equal(t, "INVALID_DOCUMENT", errCode(t, err))
	})

	t.Run("invalid email", func(t *testing.T) {
		svc, _, _ := newService()
		_, err := svc.Create(context.Background(), testTenantID, testUserID, CreateCustomerRequest{Name: "Ana", Email: "not-an-email"})
		assert.Equal(t, "INVALID_EMAIL", errCode(t, err))
	})
}

func TestCustomerService_UpdateKeepsUnsetFields(t *testing.T) {
	svc, customers, _ := newService()
	c := existingCustomer(t)
	require.NoError(t, c.SetContact("joao@example.com", "81 99999-0000"))
	c.SetAddress("Rua A, 10", "Olinda", "PE")
	customers.On("FindByIDForTenant", mock.Anything, testTenantID, c.ID).Return(c, nil)
	customers.On("Save", mock.Anything, c).Return(nil)

	phone := "81 98888-1111"
	inactive := false
	resp, err := svc.Update(context.Background(), testTenantID, c.ID, UpdateCustomerRequest{Phone: &phone, Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "joao@example.com", resp.Email)
	assert.Equal(t, phone, resp.Phone)
	assert.Equal(t, "Olinda", resp.City)
	assert.False(t, resp.Active)
}

func TestCustomerService_DeleteWithDebt(t *testing.T) {
	svc, customers, installments := newService()
	c := existingCustomer(t)
	customers.On("FindByIDForTenant", mock.Anything, testTenantID, c.ID).Return(c, nil)
	installments.On("CustomerDebt", mock.Anything, testTenantID, c.ID, testNow).
		Return(&billing.CustomerDebt{CustomerID: c.ID, Outstanding: dec("35.10")}, nil)

	err := svc.Delete(context.Background(), testTenantID, c.ID)
	assert.Equal(t, "CUSTOMER_HAS_DEBT", errCode(t, err))
	assert.False(t, c.IsDeleted())
	customers.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCustomerService_DeleteWithoutDebt(t *testing.T) {
	svc, customers, installments := newService()
	c := existingCustomer(t)
	customers.On("FindByIDForTenant", mock.Anything, testTenantID, c.ID).Return(c, nil)
	installments.On("CustomerDebt", mock.Anything, testTenantID, c.ID, testNow).
		Return(&billing.CustomerDebt{CustomerID: c.ID, Outstanding: decimal.Zero}, nil)
	customers.On("Save", mock.Anything, c).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), testTenantID, c.ID))
	assert.True(t, c.IsDeleted())
}

func TestCustomerService_GetDebt(t *testing.T) {
	svc, customers, installments := newService()
	c := existingCustomer(t)
	next := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	customers.On("FindByIDForTenant", mock.Anything, testTenantID, c.ID).Return(c, nil)
	installments.On("CustomerDebt", mock.Anything, testTenantID, c.ID, testNow).Return(&billing.CustomerDebt{
		CustomerID:       c.ID,
		TotalAmount:      dec("300"),
		TotalPaid:        dec("120"),
		Outstanding:      dec("180"),
		OverdueAmount:    dec("80"),
		OpenInstallments: 2,
		OverdueCount:     1,
		NextDueDate:      &next,
	}, nil)

	resp, err := svc.GetDebt(context.Background(), testTenantID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "João Pereira", resp.CustomerName)
	assert.True(t, resp.Outstanding.Equal(dec("180")))
	assert.Equal(t, 2, resp.OpenInstallments)
	assert.Equal(t, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC), resp.AsOf)
}

func TestCustomerService_ListDefaults(t *testing.T) {
	svc, customers, _ := newService()
	match := mock.MatchedBy(func(f partner.CustomerFilter) bool {
		return f.OrderBy == "name" && f.OrderDir == "asc" && f.Page == 1 && f.Search == "ana"
	})
	customers.On("FindAllForTenant", mock.Anything, testTenantID, match).Return([]partner.Customer{*existingCustomer(t)}, nil)
	customers.On("CountForTenant", mock.Anything, testTenantID, match).Return(int64(1), nil)

	list, total, err := svc.List(context.Background(), testTenantID, CustomerListFilter{Search: "ana"})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, int64(1), total)
}
