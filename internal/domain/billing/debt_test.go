package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarizeDebt(t *testing.T) {
	asOf := day(2026, 3, 15)

	overduePartial := newTestInstallment(t, "100", day(2026, 2, 10))
	pay(t, overduePartial, "30", day(2026, 2, 1))

	overdueUntouched := newTestInstallment(t, "100", day(2026, 3, 10))

	upcoming := newTestInstallment(t, "100", day(2026, 4, 10))

	paid := newTestInstallment(t, "100", day(2026, 1, 10))
	pay(t, paid, "100", day(2026, 1, 5))

	cancelled := newTestInstallment(t, "500", day(2026, 1, 10))
	require.NoError(t, cancelled.Cancel("x"))

	debt := SummarizeDebt(testCustomer, []Installment{
		*overduePartial, *overdueUntouched, *upcoming, *paid, *cancelled,
	}, asOf)

	assert.True(t, debt.TotalAmount.Equal(dec("400")), debt.TotalAmount.String())
	assert.True(t, debt.TotalPaid.Equal(dec("130")))
	assert.True(t, debt.Outstanding.Equal(dec("270")))
	assert.True(t, debt.OverdueAmount.Equal(dec("170")))
	assert.Equal(t, 3, debt.OpenInstallments)
	assert.Equal(t, 2, debt.OverdueCount)
	require.NotNil(t, debt.NextDueDate)
	assert.Equal(t, day(2026, 4, 10), *debt.NextDueDate)
	require.NotNil(t, debt.OldestDueDate)
	assert.Equal(t, day(2026, 2, 10), *debt.OldestDueDate)
}

func TestAllocatePayment_OldestFirst(t *testing.T) {
	a := newTestInstallment(t, "100", day(2026, 3, 10))
	b := newTestInstallment(t, "100", day(2026, 1, 10))
	pay(t, b, "40", day(2026, 1, 1))
	c := newTestInstallment(t, "100", day(2026, 2, 10))

	allocs, err := AllocatePayment([]*Installment{a, b, c}, dec("150"))
	require.NoError(t, err)
	require.Len(t, allocs, 2)
	assert.Equal(t, b.ID, allocs[0].InstallmentID)
	assert.True(t, allocs[0].Amount.Equal(dec("60")))
	assert.Equal(t, c.ID, allocs[1].InstallmentID)
	assert.True(t, allocs[1].Amount.Equal(dec("90")))
}

func TestAllocatePayment_Errors(t *testing.T) {
	a := newTestInstallment(t, "100", day(2026, 3, 10))

	_, err := AllocatePayment([]*Installment{a}, dec("100.01"))
	assertCode(t, err, "EXCEEDS_DEBT")

	_, err = AllocatePayment([]*Installment{a}, dec("-1"))
	assertCode(t, err, "INVALID_AMOUNT")

	pay(t, a, "100", time.Now())
	_, err = AllocatePayment([]*Installment{a}, dec("1"))
	assertCode(t, err, "NO_OPEN_INSTALLMENTS")
}

func TestAllocatePayment_TieBreaksOnNumber(t *testing.T) {
	due := day(2026, 3, 10)
	first, err := NewInstallment(testTenant, testSale, testCustomer, 1, 2, due, dec("50"))
	require.NoError(t, err)
	second, err := NewInstallment(testTenant, uuid.New(), testCustomer, 2, 2, due, dec("50"))
	require.NoError(t, err)

	allocs, err := AllocatePayment([]*Installment{second, first}, dec("50"))
	require.NoError(t, err)
	require.Len(t, allocs, 1)
	assert.Equal(t, first.ID, allocs[0].InstallmentID)
}
