package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/pasarlink/backend/internal/infrastructure/config"
	"github.com/pasarlink/backend/internal/infrastructure/logger"
	"github.com/pasarlink/backend/internal/interfaces/http/handler"
	"github.com/pasarlink/backend/internal/interfaces/http/middleware"
)

// Handlers groups the handlers wired into the router
type Handlers struct {
	System          *handler.SystemHandler
	Order           *handler.OrderHandler
	PaymentCallback *handler.PaymentCallbackHandler
}

// Setup builds the gin engine with middleware and routes
func Setup(cfg *config.Config, log *zap.Logger, h Handlers) *gin.Engine {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		_ = engine.SetTrustedProxies(cfg.HTTP.TrustedProxies)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(corsCfg))

	engine.GET("/health", h.System.Health)
	engine.GET("/ready", h.System.Ready)

	v1 := engine.Group("/api/v1")
	{
		orders := v1.Group("/orders")
		{
			orders.POST("", h.Order.Create)
			orders.GET("", h.Order.List)
			orders.GET("/:id", h.Order.Get)
			orders.GET("/:id/tree", h.Order.Tree)
			orders.PUT("/:id/status", h.Order.UpdateStatus)
			orders.POST("/:id/cancel", h.Order.Cancel)
			orders.DELETE("/:id", h.Order.Delete)
			orders.GET("/:id/payments", h.Order.ListPayments)
			orders.POST("/:id/payments", h.Order.RecordPayment)
			orders.POST("/:id/payments/sync", h.Order.SyncPaymentStatus)
		}

		suppliers := v1.Group("/suppliers")
		{
			suppliers.GET("/:id/orders/incoming", h.Order.Incoming)
			suppliers.GET("/:id/orders/outgoing", h.Order.Outgoing)
		}

		// Called by the payment gateway, authenticated by callback token
		v1.POST("/payments/callbacks/xendit", h.PaymentCallback.HandleInvoiceCallback)
	}

	return engine
}
