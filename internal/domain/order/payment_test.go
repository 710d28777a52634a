package order

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared/valueobject"
)

func newPaidOrderWithTotal(t *testing.T, total int64) *Order {
	t.Helper()
	o, err := NewOrder("SO-20260829-00042", partner.CustomerBuyer(uuid.New()), uuid.New())
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Beras Premium", "SKU-A", 1, valueobject.NewMoneyIDRFromInt(total), nil)
	require.NoError(t, err)
	return o
}

func paidPayment(t *testing.T, orderID uuid.UUID, amount int64) Payment {
	t.Helper()
	p, err := NewPayment(orderID, decimal.NewFromInt(amount), "bank_transfer", uuid.NewString())
	require.NoError(t, err)
	require.NoError(t, p.MarkPaid(time.Now()))
	return *p
}

func TestNewPayment(t *testing.T) {
	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewPayment(uuid.New(), decimal.Zero, "bank_transfer", "ref-1")
		assert.Error(t, err)
	})

	t.Run("starts pending", func(t *testing.T) {
		p, err := NewPayment(uuid.New(), decimal.NewFromInt(10000), "bank_transfer", "ref-1")
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPending, p.Status)
		assert.Nil(t, p.PaidAt)
	})
}

func TestOrder_ReconcilePayments(t *testing.T) {
	t.Run("full coverage forces paid", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)

		changed := o.ReconcilePayments([]Payment{paidPayment(t, o.ID, 27750)})
		assert.True(t, changed)
		assert.Equal(t, StatusPaid, o.Status)
	})

	t.Run("partial coverage forces awaiting_payment", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)

		changed := o.ReconcilePayments([]Payment{paidPayment(t, o.ID, 10000)})
		assert.True(t, changed)
		assert.Equal(t, StatusAwaitingPayment, o.Status)
	})

	t.Run("no paid records forces pending", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)
		require.NoError(t, o.UpdateStatus(StatusAwaitingPayment))

		pending, err := NewPayment(o.ID, decimal.NewFromInt(27750), "bank_transfer", "ref-1")
		require.NoError(t, err)

		changed := o.ReconcilePayments([]Payment{*pending})
		assert.True(t, changed)
		assert.Equal(t, StatusPending, o.Status)
	})

	t.Run("idempotent under repeated application", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)
		payments := []Payment{paidPayment(t, o.ID, 27750)}

		assert.True(t, o.ReconcilePayments(payments))
		assert.False(t, o.ReconcilePayments(payments))
		assert.Equal(t, StatusPaid, o.Status)
	})

	t.Run("never regresses a terminal status", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)
		require.NoError(t, o.Cancel())

		changed := o.ReconcilePayments([]Payment{paidPayment(t, o.ID, 27750)})
		assert.False(t, changed)
		assert.Equal(t, StatusCancelled, o.Status)
	})

	t.Run("never pulls back an order already in fulfillment", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)
		require.NoError(t, o.UpdateStatus(StatusAwaitingPayment))
		require.NoError(t, o.UpdateStatus(StatusPaid))
		require.NoError(t, o.UpdateStatus(StatusScheduled))

		changed := o.ReconcilePayments(nil)
		assert.False(t, changed)
		assert.Equal(t, StatusScheduled, o.Status)
	})

	t.Run("ignores failed and refunded records", func(t *testing.T) {
		o := newPaidOrderWithTotal(t, 27750)

		failed, err := NewPayment(o.ID, decimal.NewFromInt(27750), "bank_transfer", "ref-1")
		require.NoError(t, err)
		failed.MarkFailed()

		changed := o.ReconcilePayments([]Payment{*failed})
		assert.False(t, changed)
		assert.Equal(t, StatusPending, o.Status)
	})
}

func TestPaidSum(t *testing.T) {
	orderID := uuid.New()
	p1 := paidPayment(t, orderID, 10000)
	p2 := paidPayment(t, orderID, 5000)
	pending, err := NewPayment(orderID, decimal.NewFromInt(99999), "bank_transfer", "ref-x")
	require.NoError(t, err)

	sum := PaidSum([]Payment{p1, p2, *pending})
	assert.True(t, sum.Equal(decimal.NewFromInt(15000)))
}
