package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testTenant   = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	testSale     = uuid.MustParse("10000000-0000-0000-0000-000000000001")
	testCustomer = uuid.MustParse("20000000-0000-0000-0000-000000000001")
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestInstallment(t *testing.T, amount string, due time.Time) *Installment {
	t.Helper()
	inst, err := NewInstallment(testTenant, testSale, testCustomer, 1, 3, due, dec(amount))
	require.NoError(t, err)
	inst.ClearDomainEvents()
	return inst
}

func pay(t *testing.T, inst *Installment, amount string, asOf time.Time) *Payment {
	t.Helper()
	p, err := inst.RegisterPayment(PaymentInput{Amount: dec(amount), Method: PaymentMethodCash}, asOf)
	require.NoError(t, err)
	return p
}

func TestNewInstallment_Validation(t *testing.T) {
	due := day(2026, 1, 10)
	tests := []struct {
		name     string
		saleID   uuid.UUID
		customer uuid.UUID
		number   int
		total    int
		amount   string
		code     string
	}{
		{"missing sale", uuid.Nil, testCustomer, 1, 1, "10", "INVALID_SALE"},
		{"missing customer", testSale, uuid.Nil, 1, 1, "10", "INVALID_CUSTOMER"},
		{"count too high", testSale, testCustomer, 1, MaxInstallments + 1, "10", "INVALID_INSTALLMENT_COUNT"},
		{"number out of range", testSale, testCustomer, 4, 3, "10", "INVALID_INSTALLMENT_NUMBER"},
		{"zero amount", testSale, testCustomer, 1, 1, "0", "INVALID_AMOUNT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewInstallment(testTenant, tt.saleID, tt.customer, tt.number, tt.total, due, dec(tt.amount))
			require.Error(t, err)
			de, ok := shared.AsDomainError(err)
			require.True(t, ok)
			assert.Equal(t, tt.code, de.Code)
		})
	}
}

func TestNewInstallment_TruncatesDueDate(t *testing.T) {
	inst, err := NewInstallment(testTenant, testSale, testCustomer, 1, 1,
		time.Date(2026, 3, 5, 18, 45, 0, 0, time.UTC), dec("99.999"))
	require.NoError(t, err)
	assert.Equal(t, day(2026, 3, 5), inst.DueDate)
	assert.True(t, inst.Amount.Equal(dec("100")))
	assert.Equal(t, InstallmentStatusPending, inst.Status)
	require.Len(t, inst.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeInstallmentCreated, inst.GetDomainEvents()[0].EventType())
}

func TestDeriveStatus(t *testing.T) {
	due := day(2026, 5, 10)
	tests := []struct {
		name   string
		amount string
		paid   string
		asOf   time.Time
		want   InstallmentStatus
	}{
		{"untouched before due", "100", "0", day(2026, 5, 1), InstallmentStatusPending},
		{"untouched on due day", "100", "0", day(2026, 5, 10), InstallmentStatusPending},
		{"untouched after due", "100", "0", day(2026, 5, 11), InstallmentStatusOverdue},
		{"partial before due", "100", "40", day(2026, 5, 1), InstallmentStatusPartial},
		{"partial after due stays partial", "100", "40", day(2026, 6, 1), InstallmentStatusPartial},
		{"exactly paid", "100", "100", day(2026, 6, 1), InstallmentStatusPaid},
		{"overpaid clamps to paid", "100", "120", day(2026, 6, 1), InstallmentStatusPaid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveStatus(dec(tt.amount), dec(tt.paid), due, tt.asOf))
		})
	}
}

func TestRemaining_NeverNegative(t *testing.T) {
	assert.True(t, Remaining(dec("100"), dec("150")).IsZero())
	assert.True(t, Remaining(dec("100"), dec("30.50")).Equal(dec("69.50")))
}

func TestRegisterPayment_PartialThenPaid(t *testing.T) {
	asOf := day(2026, 1, 5)
	inst := newTestInstallment(t, "150.00", day(2026, 1, 10))

	pay(t, inst, "50.00", asOf)
	assert.Equal(t, InstallmentStatusPartial, inst.Status)
	assert.True(t, inst.TotalPaid().Equal(dec("50")))
	assert.True(t, inst.Remaining().Equal(dec("100")))
	assert.Nil(t, inst.PaidAt)

	pay(t, inst, "60.00", asOf)
	assert.Equal(t, InstallmentStatusPartial, inst.Status)
	assert.True(t, inst.Remaining().Equal(dec("40")))

	pay(t, inst, "40.00", asOf)
	assert.Equal(t, InstallmentStatusPaid, inst.Status)
	assert.True(t, inst.Remaining().IsZero())
	require.NotNil(t, inst.PaidAt)
	assert.Len(t, inst.Payments, 3)

	var types []string
	for _, e := range inst.GetDomainEvents() {
		types = append(types, e.EventType())
	}
	assert.Contains(t, types, EventTypePaymentRegistered)
	assert.Contains(t, types, EventTypeInstallmentPaid)
}

func TestRegisterPayment_Rejections(t *testing.T) {
	asOf := day(2026, 1, 5)

	t.Run("non positive", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("0")}, asOf)
		assertCode(t, err, "INVALID_AMOUNT")
	})

	t.Run("fractional cents", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("10.001")}, asOf)
		assertCode(t, err, "INVALID_AMOUNT")
	})

	t.Run("exceeds remaining", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		pay(t, inst, "70", asOf)
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("30.01")}, asOf)
		assertCode(t, err, "EXCEEDS_REMAINING")
		assert.Len(t, inst.Payments, 1)
	})

	t.Run("already paid", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		pay(t, inst, "100", asOf)
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("1")}, asOf)
		assertCode(t, err, "INSTALLMENT_ALREADY_PAID")
	})

	t.Run("cancelled", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		require.NoError(t, inst.Cancel("sale cancelled"))
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("1")}, asOf)
		assertCode(t, err, "INSTALLMENT_CANCELLED")
	})

	t.Run("unknown method", func(t *testing.T) {
		inst := newTestInstallment(t, "100", day(2026, 1, 10))
		_, err := inst.RegisterPayment(PaymentInput{Amount: dec("1"), Method: "cheque"}, asOf)
		assertCode(t, err, "INVALID_PAYMENT_METHOD")
	})
}

func TestRegisterPayment_DefaultsPaidAtAndMethod(t *testing.T) {
	asOf := day(2026, 2, 1)
	inst := newTestInstallment(t, "100", day(2026, 1, 10))
	p, err := inst.RegisterPayment(PaymentInput{Amount: dec("10")}, asOf)
	require.NoError(t, err)
	assert.Equal(t, asOf, p.PaidAt)
	assert.Equal(t, PaymentMethodCash, p.Method)
	assert.Equal(t, inst.ID, p.InstallmentID)
	assert.Equal(t, testTenant, p.TenantID)
}

func TestRemovePayment_RecomputesFromRemainingPayments(t *testing.T) {
	asOf := day(2026, 1, 20)
	inst := newTestInstallment(t, "100", day(2026, 1, 10))
	first := pay(t, inst, "60", asOf)
	pay(t, inst, "40", asOf)
	require.Equal(t, InstallmentStatusPaid, inst.Status)

	removed, err := inst.RemovePayment(first.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, first.ID, removed.ID)
	assert.Equal(t, InstallmentStatusPartial, inst.Status)
	assert.True(t, inst.Remaining().Equal(dec("60")))
	assert.Nil(t, inst.PaidAt)

	_, err = inst.RemovePayment(uuid.New(), asOf)
	assertCode(t, err, "PAYMENT_NOT_FOUND")
}

func TestRemovePayment_LastPaymentPastDueBecomesOverdue(t *testing.T) {
	asOf := day(2026, 1, 20)
	inst := newTestInstallment(t, "100", day(2026, 1, 10))
	p := pay(t, inst, "25", asOf)

	_, err := inst.RemovePayment(p.ID, asOf)
	require.NoError(t, err)
	assert.Equal(t, InstallmentStatusOverdue, inst.Status)
}

func TestCancel(t *testing.T) {
	inst := newTestInstallment(t, "100", day(2026, 1, 10))
	require.NoError(t, inst.Cancel("returned"))
	assert.True(t, inst.IsCancelled())
	assert.NotNil(t, inst.CancelledAt)
	assert.Equal(t, InstallmentStatusCancelled, inst.StatusAt(day(2027, 1, 1)))
	assert.False(t, inst.IsOverdue(day(2027, 1, 1)))

	withPayment := newTestInstallment(t, "100", day(2026, 1, 10))
	pay(t, withPayment, "1", day(2026, 1, 1))
	assertCode(t, withPayment.Cancel("x"), "HAS_PAYMENTS")
}

func TestRefresh_MarksOverdueOnce(t *testing.T) {
	inst := newTestInstallment(t, "100", day(2026, 1, 10))

	assert.False(t, inst.Refresh(day(2026, 1, 10)))
	assert.True(t, inst.Refresh(day(2026, 1, 11)))
	assert.Equal(t, InstallmentStatusOverdue, inst.Status)
	assert.False(t, inst.Refresh(day(2026, 1, 12)))

	events := inst.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeInstallmentOverdue, events[0].EventType())
}

func TestIsOverdue_IncludesPartial(t *testing.T) {
	inst := newTestInstallment(t, "100", day(2026, 1, 10))
	pay(t, inst, "30", day(2026, 1, 5))

	asOf := day(2026, 1, 25)
	assert.Equal(t, InstallmentStatusPartial, inst.StatusAt(asOf))
	assert.True(t, inst.IsOverdue(asOf))
	assert.Equal(t, 15, inst.DaysOverdue(asOf))
	assert.Equal(t, 0, inst.DaysOverdue(day(2026, 1, 10)))
}

func TestLabel(t *testing.T) {
	inst := newTestInstallment(t, "10", day(2026, 1, 10))
	assert.Equal(t, "1/3", inst.Label())
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	de, ok := shared.AsDomainError(err)
	require.True(t, ok, "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}
