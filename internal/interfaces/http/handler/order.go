package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apporder "github.com/pasarlink/backend/internal/application/order"
	"github.com/pasarlink/backend/internal/domain/order"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/domain/shared"
)

// OrderCreator creates root orders and propagates them down the
// supplier-access graph
type OrderCreator interface {
	Create(ctx context.Context, req apporder.CreateOrderRequest) (*apporder.CreateOrderResponse, error)
}

// OrderLifecycle drives status transitions and payment recording
type OrderLifecycle interface {
	UpdateStatus(ctx context.Context, orderID uuid.UUID, target order.Status) (*apporder.OrderResponse, error)
	Cancel(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	RecordPayment(ctx context.Context, orderID uuid.UUID, req apporder.RecordPaymentRequest) (*apporder.OrderResponse, error)
	SyncPaymentStatus(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
}

// OrderQueries reads orders and payments
type OrderQueries interface {
	GetByID(ctx context.Context, orderID uuid.UUID) (*apporder.OrderResponse, error)
	ListByBuyer(ctx context.Context, ref partner.BuyerRef, filter apporder.ListFilter) (*shared.Paginated[apporder.OrderResponse], error)
	Incoming(ctx context.Context, supplierID uuid.UUID, filter apporder.ListFilter) (*shared.Paginated[apporder.OrderResponse], error)
	Outgoing(ctx context.Context, supplierID uuid.UUID, filter apporder.ListFilter) (*shared.Paginated[apporder.OrderResponse], error)
	Tree(ctx context.Context, rootID uuid.UUID) (*apporder.OrderTreeResponse, error)
	ListPayments(ctx context.Context, orderID uuid.UUID) ([]apporder.PaymentResponse, error)
}

// OrderHandler handles order-related API endpoints
type OrderHandler struct {
	BaseHandler
	creator   OrderCreator
	lifecycle OrderLifecycle
	queries   OrderQueries
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(creator OrderCreator, lifecycle OrderLifecycle, queries OrderQueries) *OrderHandler {
	return &OrderHandler{
		creator:   creator,
		lifecycle: lifecycle,
		queries:   queries,
	}
}

// listOrdersRequest represents common order list query parameters
type listOrdersRequest struct {
	BuyerKind string `form:"buyer_kind" binding:"omitempty,oneof=customer supplier"`
	BuyerID   string `form:"buyer_id" binding:"omitempty,uuid"`
	apporder.ListFilter
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	var req apporder.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.creator.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, result)
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// List handles GET /orders?buyer_kind=&buyer_id=
func (h *OrderHandler) List(c *gin.Context) {
	var req listOrdersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindingError(c, err)
		return
	}
	if req.BuyerKind == "" || req.BuyerID == "" {
		h.BadRequest(c, "buyer_kind and buyer_id are required")
		return
	}

	buyerID, err := uuid.Parse(req.BuyerID)
	if err != nil {
		h.BadRequest(c, "Invalid buyer_id")
		return
	}
	ref := partner.BuyerRef{Kind: partner.BuyerKind(req.BuyerKind), ID: buyerID}

	result, err := h.queries.ListByBuyer(c.Request.Context(), ref, req.ListFilter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

// Tree handles GET /orders/:id/tree
func (h *OrderHandler) Tree(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.queries.Tree(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UpdateStatus handles PUT /orders/:id/status
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req apporder.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.lifecycle.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.lifecycle.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Delete handles DELETE /orders/:id. Only orders still in pending can
// be removed; later statuses must be cancelled instead.
func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.lifecycle.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, gin.H{"deleted": true})
}

// RecordPayment handles POST /orders/:id/payments
func (h *OrderHandler) RecordPayment(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var req apporder.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.lifecycle.RecordPayment(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SyncPaymentStatus handles POST /orders/:id/payments/sync
func (h *OrderHandler) SyncPaymentStatus(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.lifecycle.SyncPaymentStatus(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// ListPayments handles GET /orders/:id/payments
func (h *OrderHandler) ListPayments(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	result, err := h.queries.ListPayments(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Incoming handles GET /suppliers/:id/orders/incoming
func (h *OrderHandler) Incoming(c *gin.Context) {
	h.listForSupplier(c, h.queries.Incoming)
}

// Outgoing handles GET /suppliers/:id/orders/outgoing
func (h *OrderHandler) Outgoing(c *gin.Context) {
	h.listForSupplier(c, h.queries.Outgoing)
}

func (h *OrderHandler) listForSupplier(c *gin.Context, list func(context.Context, uuid.UUID, apporder.ListFilter) (*shared.Paginated[apporder.OrderResponse], error)) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	var filter apporder.ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := list(c.Request.Context(), id, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, result.Page, result.PageSize)
}

func (h *OrderHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid ID format")
		return uuid.Nil, false
	}
	return id, true
}
