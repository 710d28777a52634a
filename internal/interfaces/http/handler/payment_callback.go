package handler

import (
	"context"
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apporder "github.com/pasarlink/backend/internal/application/order"
)

// GatewayNotificationApplier maps webhook notifications onto order
// lifecycles
type GatewayNotificationApplier interface {
	ApplyGatewayNotification(ctx context.Context, n apporder.GatewayNotification) (*apporder.OrderResponse, error)
}

// PaymentCallbackHandler handles the payment gateway webhook. The
// endpoint is called by Xendit and authenticates with a shared callback
// token instead of user credentials.
type PaymentCallbackHandler struct {
	BaseHandler
	lifecycle     GatewayNotificationApplier
	callbackToken string
	logger        *zap.Logger
}

// NewPaymentCallbackHandler creates a new PaymentCallbackHandler
func NewPaymentCallbackHandler(lifecycle GatewayNotificationApplier, callbackToken string, logger *zap.Logger) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		lifecycle:     lifecycle,
		callbackToken: callbackToken,
		logger:        logger,
	}
}

// xenditInvoiceCallback is the invoice webhook payload sent by Xendit.
// ExternalID carries the order number the invoice was issued for.
type xenditInvoiceCallback struct {
	ID            string           `json:"id"`
	ExternalID    string           `json:"external_id" binding:"required"`
	Status        string           `json:"status" binding:"required"`
	PaymentMethod string           `json:"payment_method"`
	PaidAmount    *decimal.Decimal `json:"paid_amount"`
}

// HandleInvoiceCallback handles POST /payments/callbacks/xendit
func (h *PaymentCallbackHandler) HandleInvoiceCallback(c *gin.Context) {
	token := c.GetHeader("X-Callback-Token")
	if h.callbackToken == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.callbackToken)) != 1 {
		h.Unauthorized(c, "Invalid callback token")
		return
	}

	var payload xenditInvoiceCallback
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.BindingError(c, err)
		return
	}

	h.logger.Info("payment callback received",
		zap.String("external_id", payload.ExternalID),
		zap.String("status", payload.Status),
		zap.String("invoice_id", payload.ID))

	result, err := h.lifecycle.ApplyGatewayNotification(c.Request.Context(), apporder.GatewayNotification{
		OrderNumber:       payload.ExternalID,
		TransactionStatus: mapInvoiceStatus(payload.Status),
		Reference:         payload.ID,
		Method:            payload.PaymentMethod,
		Amount:            payload.PaidAmount,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// mapInvoiceStatus lowers Xendit invoice statuses onto the gateway
// transaction vocabulary understood by the lifecycle service
func mapInvoiceStatus(status string) string {
	switch status {
	case "PAID", "SETTLED":
		return "paid"
	case "PENDING":
		return "pending"
	case "EXPIRED":
		return "expired"
	default:
		return status
	}
}
