package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/RaikyD/storefront-bff/internal/application"
	"github.com/RaikyD/storefront-bff/internal/backend"
	"github.com/RaikyD/storefront-bff/internal/checkout"
	"github.com/RaikyD/storefront-bff/internal/config"
	"github.com/RaikyD/storefront-bff/internal/events"
	"github.com/RaikyD/storefront-bff/internal/kafka"
	"github.com/RaikyD/storefront-bff/internal/logger"
	"github.com/RaikyD/storefront-bff/internal/migrate"
	"github.com/RaikyD/storefront-bff/internal/payment"
	"github.com/RaikyD/storefront-bff/internal/presentation"
	"github.com/RaikyD/storefront-bff/internal/rabbitmq"
	"github.com/RaikyD/storefront-bff/internal/repository"
	"github.com/RaikyD/storefront-bff/internal/session"
	"github.com/RaikyD/storefront-bff/internal/storage"
)

const (
	redisCartTTL     = 30 * 24 * time.Hour
	receiptCacheSize = 1000
	sweepInterval    = 5 * time.Minute
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Init("", "info")
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}
	logger.Init(cfg.APP_ENV, cfg.LOG_LEVEL)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB pool, only when configured
	var pool *pgxpool.Pool
	if cfg.DB_STRING != "" {
		if err := migrate.Up(ctx, cfg.DB_STRING); err != nil {
			logger.Error("migrations failed", "err", err)
			os.Exit(1)
		}
		pool, err = pgxpool.New(ctx, cfg.DB_STRING)
		if err != nil {
			logger.Error("pgxpool new failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("db ping failed", "err", err)
			os.Exit(1)
		}
		logger.Info("db connected")
	}

	cartStorage, closeStorage, err := newCartStorage(ctx, cfg, pool)
	if err != nil {
		logger.Error("cart storage init failed", "backend", cfg.CART_STORAGE, "err", err)
		os.Exit(1)
	}
	defer closeStorage()
	logger.Info("cart storage ready", "backend", cfg.CART_STORAGE)

	// Receipts: Postgres when available, memory otherwise
	var receipts *application.ReceiptsService
	if pool != nil {
		receipts = application.NewReceiptsService(repository.NewReceiptRepository(pool))
		if err := receipts.RestoreCache(ctx, receiptCacheSize); err != nil {
			logger.Warn("restore receipt cache failed", "err", err)
		}
	} else {
		receipts = application.NewReceiptsService(nil)
	}

	var publishers events.Multi
	if cfg.KAFKA_BROKERS != "" {
		prod := kafka.NewProducer(cfg.KAFKA_BROKERS, cfg.KAFKA_TOPIC)
		defer prod.Close()
		publishers = append(publishers, prod)

		_, _ = kafka.StartReceiptConsumer(ctx, receipts, kafka.ConsumerConfig{
			Brokers: cfg.KAFKA_BROKERS,
			Topic:   cfg.KAFKA_TOPIC,
			GroupID: cfg.KAFKA_GROUP_ID,
		})
	}
	if cfg.AMQP_URL != "" {
		mq, err := rabbitmq.Dial(cfg.AMQP_URL, cfg.AMQP_QUEUE)
		if err != nil {
			logger.Warn("rabbitmq unavailable, confirmation emails disabled", "err", err)
		} else {
			defer mq.Close()
			publishers = append(publishers, mq)
		}
	}

	client := backend.NewClient(cfg.BACKEND_URL, cfg.BACKEND_TIMEOUT)

	sessionCfg := session.Config{
		Storage: cartStorage,
		Gateway: client,
		Credentials: payment.Credentials{
			ApplicationID: cfg.SQUARE_APP_ID,
			LocationID:    cfg.SQUARE_LOCATION_ID,
			Environment:   payment.Environment(cfg.SQUARE_ENV),
		},
		Pricing: checkout.Pricing{
			Currency:       cfg.CHECKOUT_CURRENCY,
			ShippingCents:  cfg.CHECKOUT_SHIPPING_CENTS,
			TaxBasisPoints: cfg.CHECKOUT_TAX_BPS,
		},
		Receipts: receipts,
	}
	if len(publishers) > 0 {
		sessionCfg.Events = publishers
	}
	sessions := session.NewManager(sessionCfg)
	go sessions.Run(ctx, sweepInterval)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API
	h := presentation.NewHandler(sessions, client, receipts, cfg.CHECKOUT_CURRENCY)
	h.Register(r)

	// STATIC (web/index.html)
	if err := presentation.MountStatic(r); err != nil {
		logger.Error("static mount failed", "err", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP_PORT,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting http", "addr", srv.Addr, "backend", cfg.BACKEND_URL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server crashed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", "err", err)
	}
}

// newCartStorage builds the configured cart backend and its cleanup.
func newCartStorage(ctx context.Context, cfg *config.Config, pool *pgxpool.Pool) (storage.Storage, func(), error) {
	noop := func() {}
	switch cfg.CART_STORAGE {
	case config.StorageFile:
		fs, err := storage.NewFileStorage(cfg.CART_FILE_DIR)
		return fs, noop, err
	case config.StorageRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.REDIS_ADDR,
			Password: cfg.REDIS_PASSWORD,
			DB:       cfg.REDIS_DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, noop, err
		}
		return storage.NewRedisStorage(client, redisCartTTL), func() { _ = client.Close() }, nil
	case config.StoragePostgres:
		return repository.NewCartSnapshotRepository(pool), noop, nil
	default:
		return storage.NewMemoryStorage(), noop, nil
	}
}
