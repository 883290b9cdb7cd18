package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/glam-orders/internal/auth"
	"github.com/ariefcatur/glam-orders/internal/cart"
	"github.com/ariefcatur/glam-orders/internal/catalog"
	"github.com/ariefcatur/glam-orders/internal/checkout"
	"github.com/ariefcatur/glam-orders/internal/config"
	"github.com/ariefcatur/glam-orders/internal/httpx"
	kafkax "github.com/ariefcatur/glam-orders/internal/kafka"
	"github.com/ariefcatur/glam-orders/internal/notify"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/ariefcatur/glam-orders/internal/postgres"
	"github.com/ariefcatur/glam-orders/internal/redisx"
	"github.com/ariefcatur/glam-orders/internal/sessionstore"
	"github.com/ariefcatur/glam-orders/internal/sqlitedb"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

type orderStore interface {
	checkout.OrderWriter
	httpx.OrderStore
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "error", err)
	os.Exit(1)
}

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)
	slog.SetDefault(log)
	if err := cfg.Validate(); err != nil {
		fatal(log, "config", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// SQLite, opened only when a store asks for it
	var lite *sql.DB
	openSQLite := func() *sql.DB {
		if lite == nil {
			db, err := sqlitedb.Open(cfg.SQLitePath)
			if err != nil {
				fatal(log, "sqlite open", err)
			}
			lite = db
		}
		return lite
	}
	defer func() {
		if lite != nil {
			_ = lite.Close()
		}
	}()

	// Orders
	var store orderStore
	switch cfg.OrderStore {
	case "sqlite":
		repo, err := orders.NewSQLiteRepo(ctx, openSQLite())
		if err != nil {
			fatal(log, "sqlite order store", err)
		}
		store = repo
	default:
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(log, "db connect", err)
		}
		defer db.Close()
		store = &orders.Repo{DB: db}
	}

	// Redis
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	// Sessions
	var sessions cart.Store
	switch cfg.SessionStore {
	case "sqlite":
		s, err := sessionstore.NewSQLiteStore(ctx, openSQLite())
		if err != nil {
			fatal(log, "sqlite session store", err)
		}
		sessions = s
	default:
		if rdb == nil {
			fatal(log, "session store", errors.New("SESSION_STORE=redis needs REDIS_ADDR"))
		}
		sessions = sessionstore.NewRedisStore(rdb, cfg.SessionTTL)
	}

	// Kafka producers
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024, log)
	placed.Start(ctx)
	retry := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotificationRetry, 1024, log)
	retry.Start(ctx)

	// Checkout
	co := &checkout.Coordinator{
		Orders:         store,
		Notifier:       notify.NewHTTPSender(cfg.NotifyURL, cfg.NotifyTimeout, cfg.NotifyRetries),
		Events:         &checkout.KafkaEvents{Placed: placed, Retry: retry, Service: cfg.ServiceName},
		PersistTimeout: cfg.PersistTimeout,
		NotifyTimeout:  cfg.NotifyTimeout,
		Log:            log,
	}
	if rdb != nil {
		co.Guard = &checkout.RedisGuard{RDB: rdb, TTL: redisx.TTLCheckoutInFlight}
	}

	limiter, err := httpx.NewRateLimiter(cfg.CheckoutRPS, cfg.CheckoutBurst, 0)
	if err != nil {
		fatal(log, "rate limiter", err)
	}

	// Router & handlers
	verifier := auth.NewVerifier(cfg.JWTSecret)
	router := httpx.NewRouter(verifier.Middleware)
	cat := catalog.Default()
	(&httpx.CatalogHandler{Catalog: cat}).Register(router)
	(&httpx.CartHandler{Catalog: cat, Sessions: sessions, Log: log}).Register(router)
	(&httpx.CheckoutHandler{Coordinator: co, Sessions: sessions, Limiter: limiter, Log: log}).Register(router)
	(&httpx.OrdersHandler{Orders: store, Log: log}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr, "order_store", cfg.OrderStore, "session_store", cfg.SessionStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "listen", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	// no more checkouts: flush queued events, then stop the writers
	placed.Close()
	retry.Close()
	placed.WaitClosed()
	retry.WaitClosed()
}
