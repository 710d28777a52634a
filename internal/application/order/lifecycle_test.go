package order

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared/valueobject"
)

func seedOrder(t *testing.T, env *testEnv, total int64) *order.Order {
	t.Helper()
	o, err := order.NewOrder("SO-20260829-00001", partner.CustomerBuyer(uuid.New()), uuid.New())
	require.NoError(t, err)
	_, err = o.AddItem(uuid.New(), "Beras Premium", "SKU-A", 1,
		valueobject.NewMoneyIDRFromInt(total), nil)
	require.NoError(t, err)
	require.NoError(t, env.orders.Save(context.Background(), o))
	return o
}

func TestLifecycleService_UpdateStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("applies an allowed transition", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 10000)

		resp, err := env.lifecycle.UpdateStatus(ctx, o.ID, order.StatusAwaitingPayment)
		require.NoError(t, err)
		assert.Equal(t, order.StatusAwaitingPayment, resp.Status)

		stored, err := env.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusAwaitingPayment, stored.Status)
	})

	t.Run("rejects an illegal transition and keeps stored status", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 10000)

		_, err := env.lifecycle.UpdateStatus(ctx, o.ID, order.StatusCompleted)
		requireDomainCode(t, err, "INVALID_TRANSITION")

		stored, err := env.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPending, stored.Status)
	})

	t.Run("fails for unknown order", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.lifecycle.UpdateStatus(ctx, uuid.New(), order.StatusAwaitingPayment)
		requireDomainCode(t, err, "NOT_FOUND")
	})
}

func TestLifecycleService_Cancel(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	o := seedOrder(t, env, 10000)

	resp, err := env.lifecycle.Cancel(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusCancelled, resp.Status)

	_, err = env.lifecycle.Cancel(ctx, o.ID)
	requireDomainCode(t, err, "INVALID_TRANSITION")
}

func TestLifecycleService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("removes a pending order", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 10000)

		require.NoError(t, env.lifecycle.Delete(ctx, o.ID))

		stored, err := env.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		assert.Nil(t, stored)
	})

	t.Run("rejects orders that left pending", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 10000)
		_, err := env.lifecycle.UpdateStatus(ctx, o.ID, order.StatusAwaitingPayment)
		require.NoError(t, err)

		err = env.lifecycle.Delete(ctx, o.ID)
		requireDomainCode(t, err, "INVALID_STATE")

		stored, err := env.orders.FindByID(ctx, o.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
	})

	t.Run("rejects orders with dependent orders", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 10000)

		child, err := order.NewOrder("SO-20260829-00002", partner.SupplierBuyer(o.SupplierID), uuid.New())
		require.NoError(t, err)
		require.NoError(t, child.LinkParent(o.ID, 1))
		require.NoError(t, env.orders.Save(ctx, child))

		err = env.lifecycle.Delete(ctx, o.ID)
		requireDomainCode(t, err, "INVALID_STATE")
	})

	t.Run("fails for unknown order", func(t *testing.T) {
		env := newTestEnv()
		err := env.lifecycle.Delete(ctx, uuid.New())
		requireDomainCode(t, err, "NOT_FOUND")
	})
}

func TestLifecycleService_RecordPayment(t *testing.T) {
	ctx := context.Background()

	t.Run("full payment drives order to paid", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		resp, err := env.lifecycle.RecordPayment(ctx, o.ID, RecordPaymentRequest{
			Amount: decimal.NewFromInt(27750),
			Method: "bank_transfer",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, resp.Status)
	})

	t.Run("partial payment drives order to awaiting_payment", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		resp, err := env.lifecycle.RecordPayment(ctx, o.ID, RecordPaymentRequest{
			Amount: decimal.NewFromInt(10000),
			Method: "bank_transfer",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusAwaitingPayment, resp.Status)
	})
}

func TestMapGatewayStatus(t *testing.T) {
	tests := []struct {
		raw    string
		want   order.Status
		wantOK bool
	}{
		{"settlement", order.StatusPaid, true},
		{"capture", order.StatusPaid, true},
		{"success", order.StatusPaid, true},
		{"pending", order.StatusAwaitingPayment, true},
		{"deny", order.StatusCancelled, true},
		{"cancel", order.StatusCancelled, true},
		{"expire", order.StatusCancelled, true},
		{"refund", order.StatusRefunded, true},
		{"partial_refund", order.StatusRefunded, true},
		{"challenge", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := MapGatewayStatus(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLifecycleService_ApplyGatewayNotification(t *testing.T) {
	ctx := context.Background()

	t.Run("settlement records payment and marks order paid", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		resp, err := env.lifecycle.ApplyGatewayNotification(ctx, GatewayNotification{
			OrderNumber:       o.OrderNumber,
			TransactionStatus: "settlement",
			Reference:         "txn-001",
			Method:            "virtual_account",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, resp.Status)

		payments, err := env.payments.FindByOrderID(ctx, o.ID)
		require.NoError(t, err)
		require.Len(t, payments, 1)
		assert.Equal(t, order.PaymentStatusPaid, payments[0].Status)
	})

	t.Run("redelivered settlement is idempotent", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		notification := GatewayNotification{
			OrderNumber:       o.OrderNumber,
			TransactionStatus: "settlement",
			Reference:         "txn-001",
			Method:            "virtual_account",
		}
		_, err := env.lifecycle.ApplyGatewayNotification(ctx, notification)
		require.NoError(t, err)
		resp, err := env.lifecycle.ApplyGatewayNotification(ctx, notification)
		require.NoError(t, err)
		assert.Equal(t, order.StatusPaid, resp.Status)

		payments, err := env.payments.FindByOrderID(ctx, o.ID)
		require.NoError(t, err)
		assert.Len(t, payments, 1, "duplicate webhook must not duplicate the payment")
	})

	t.Run("expire cancels a pending order", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		resp, err := env.lifecycle.ApplyGatewayNotification(ctx, GatewayNotification{
			OrderNumber:       o.OrderNumber,
			TransactionStatus: "expire",
		})
		require.NoError(t, err)
		assert.Equal(t, order.StatusCancelled, resp.Status)
	})

	t.Run("unknown transaction status is rejected", func(t *testing.T) {
		env := newTestEnv()
		o := seedOrder(t, env, 27750)

		_, err := env.lifecycle.ApplyGatewayNotification(ctx, GatewayNotification{
			OrderNumber:       o.OrderNumber,
			TransactionStatus: "challenge",
		})
		requireDomainCode(t, err, "INVALID_INPUT")
	})

	t.Run("unknown order number fails with not found", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.lifecycle.ApplyGatewayNotification(ctx, GatewayNotification{
			OrderNumber:       "SO-19990101-00001",
			TransactionStatus: "settlement",
		})
		requireDomainCode(t, err, "NOT_FOUND")
	})
}

func TestLifecycleService_SyncPaymentStatus(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	o := seedOrder(t, env, 27750)

	payment, err := order.NewPayment(o.ID, decimal.NewFromInt(27750), "bank_transfer", "txn-9")
	require.NoError(t, err)
	require.NoError(t, payment.MarkPaid(payment.CreatedAt))
	require.NoError(t, env.payments.Save(ctx, payment))

	resp, err := env.lifecycle.SyncPaymentStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, resp.Status)

	again, err := env.lifecycle.SyncPaymentStatus(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, order.StatusPaid, again.Status)
}
