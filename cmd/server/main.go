package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apporder "github.com/pasarlink/backend/internal/application/order"
	"github.com/pasarlink/backend/internal/domain/catalog"
	"github.com/pasarlink/backend/internal/domain/partner"
	"github.com/pasarlink/backend/internal/infrastructure/accounting"
	"github.com/pasarlink/backend/internal/infrastructure/cache"
	"github.com/pasarlink/backend/internal/infrastructure/config"
	"github.com/pasarlink/backend/internal/infrastructure/logger"
	"github.com/pasarlink/backend/internal/infrastructure/payment"
	"github.com/pasarlink/backend/internal/infrastructure/persistence"
	"github.com/pasarlink/backend/internal/interfaces/http/handler"
	"github.com/pasarlink/backend/internal/interfaces/http/router"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log := logger.New(cfg.Log)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting PasarLink order engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port))

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories
	orderRepo := persistence.NewGormOrderRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	taxRepo := persistence.NewGormTaxRepository(db.DB)
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	supplierRepo := persistence.NewGormSupplierRepository(db.DB)
	addressRepo := persistence.NewGormAddressRepository(db.DB)
	accessRepo := persistence.NewGormSupplierAccessRepository(db.DB)

	txManager := persistence.NewGormTxManager(db.DB)
	allocator := persistence.NewLockedNumberAllocator(db.DB)

	// Tax resolution with a read-through cache over the default tax
	taxSource := catalog.NewRepositoryTaxSource(taxRepo, cfg.Order.DefaultTaxName)
	var cachedTaxes catalog.TaxSource
	if cfg.Order.TaxCacheBackend == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Warn("Redis unreachable, tax cache degrades to direct reads", zap.Error(err))
		}
		cachedTaxes = cache.NewRedisTaxCache(redisClient, taxSource, cfg.Order.TaxCacheTTL, log)
	} else {
		cachedTaxes = cache.NewInMemoryTaxCache(taxSource, cfg.Order.TaxCacheTTL)
	}
	priceResolver := catalog.NewPriceResolver(cachedTaxes)

	buyerResolver := partner.NewBuyerResolver(customerRepo, supplierRepo)

	// Collaborators
	invoicer := payment.NewXenditClient(cfg.Xendit, log)

	var notifier apporder.AccountingNotifier
	if cfg.Kafka.Enabled {
		kafkaNotifier, err := accounting.NewKafkaNotifier(cfg.Kafka, log)
		if err != nil {
			log.Fatal("Failed to connect to Kafka", zap.Error(err))
		}
		defer func() {
			if err := kafkaNotifier.Close(); err != nil {
				log.Error("Error closing Kafka producer", zap.Error(err))
			}
		}()
		notifier = kafkaNotifier
		log.Info("Accounting notifications via Kafka", zap.Strings("brokers", cfg.Kafka.Brokers))
	} else {
		notifier = accounting.NewLogNotifier(log)
	}

	// Application services
	cascade := apporder.NewCascadePlanner(
		accessRepo, addressRepo, productRepo, priceResolver,
		allocator, orderRepo, apporder.NewDefaultBundlingStrategy(),
		cfg.Order.MaxCascadeDepth, log)
	orderService := apporder.NewService(
		orderRepo, productRepo, buyerResolver, priceResolver,
		allocator, cascade, txManager, invoicer, notifier,
		cfg.Order.NumberRetries, log)
	lifecycleService := apporder.NewLifecycleService(orderRepo, paymentRepo, txManager, log)
	queryService := apporder.NewQueryService(orderRepo, paymentRepo, buyerResolver, addressRepo, log)

	// HTTP
	engine := router.Setup(cfg, log, router.Handlers{
		System:          handler.NewSystemHandler(db, cfg.App.Name, version),
		Order:           handler.NewOrderHandler(orderService, lifecycleService, queryService),
		PaymentCallback: handler.NewPaymentCallbackHandler(lifecycleService, cfg.Xendit.CallbackToken, log),
	})

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}
	log.Info("Server stopped")
}
