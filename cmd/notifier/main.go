package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/glam-orders/internal/config"
	"github.com/ariefcatur/glam-orders/internal/httpx"
	kafkax "github.com/ariefcatur/glam-orders/internal/kafka"
	"github.com/ariefcatur/glam-orders/internal/notify"
	"github.com/ariefcatur/glam-orders/internal/orders"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadNotifier()
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With("service", cfg.ServiceName)
	slog.SetDefault(log)

	var mailer notify.Mailer
	if cfg.MockMode || cfg.ResendAPIKey == "" {
		log.Warn("mock mode: emails are logged, not sent")
		mailer = notify.LogMailer{Log: log}
	} else {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey)
	}
	d := &notify.Dispatcher{Mailer: mailer, From: cfg.MailFrom, To: cfg.MailTo}

	worker, err := notify.NewRetryWorker(d, cfg.DedupSize, log)
	if err != nil {
		log.Error("retry worker", "error", err)
		os.Exit(1)
	}

	router := httpx.NewRouter()
	(&notify.Handler{Dispatcher: d, Log: log}).Register(router)
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	requeue := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicNotificationRetry, 256, log)
	requeue.Start(context.Background())
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, orders.TopicNotificationRetry, cfg.Workers, log).
		WithRequeue(requeue, cfg.MaxAttempts)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		log.Info("retry consumer started", "group", cfg.ConsumerGroup, "topic", orders.TopicNotificationRetry, "workers", cfg.Workers, "max_attempts", cfg.MaxAttempts)
		return cons.Start(gctx, worker.HandleNotificationRequested)
	})

	err = g.Wait()
	requeue.Close()
	requeue.WaitClosed()
	if err != nil {
		log.Error("notifier stopped", "error", err)
		os.Exit(1)
	}
	log.Info("notifier stopped")
}
