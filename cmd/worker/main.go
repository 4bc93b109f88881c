// Command worker delivers plan notifications from the events queue and
// periodically moves lapsed pro plans back to free.
package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"eatlens-backend-go/internal/app"
	"eatlens-backend-go/internal/config"
	"eatlens-backend-go/internal/core"
	"eatlens-backend-go/internal/events"
)

func main() {
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}
	zapLogger, err := app.NewLogger(appConfig.LogFormat)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	initCtx, cancelInit := context.WithTimeout(ctx, 15*time.Second)
	application, err := app.New(initCtx, appConfig, zapLogger)
	cancelInit()
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		runSweeper(ctx, application.Plans, appConfig.ExpirySweepInterval, zapLogger)
	}()

	if appConfig.RabbitMQURL != "" {
		notifier := events.NewNotifier(application.Mailer, zapLogger)
		wg.Add(1)
		go func() {
			defer wg.Done()
			zapLogger.Info("Consuming plan events", zap.String("queue", appConfig.EventsQueue))
			err := events.Consume(ctx, appConfig.RabbitMQURL, appConfig.EventsQueue, notifier.Handle, zapLogger)
			if err != nil && !errors.Is(err, context.Canceled) {
				zapLogger.Error("Event consumer stopped", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Warn("RABBITMQ_URL is not configured; plan notifications are disabled.")
	}

	<-ctx.Done()
	zapLogger.Info("Shutdown signal received; waiting for workers.")
	wg.Wait()
	zapLogger.Info("Worker exiting gracefully.")
}

// runSweeper expires lapsed pro plans once at start and then every interval.
func runSweeper(ctx context.Context, plans core.PlanService, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		n, err := plans.SweepExpired(ctx)
		if err != nil && ctx.Err() == nil {
			logger.Error("Expiry sweep finished with errors", zap.Int("expired", n), zap.Error(err))
		} else if n > 0 {
			logger.Info("Expiry sweep complete", zap.Int("expired", n))
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
