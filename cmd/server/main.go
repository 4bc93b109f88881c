package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/api"
	"eatlens-backend-go/internal/app"
	"eatlens-backend-go/internal/cache"
	"eatlens-backend-go/internal/config"
	"eatlens-backend-go/internal/middleware"
)

func main() {
	// --- 1. Load Application Configuration ---
	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	// --- 2. Initialize Logger (Zap) ---
	zapLogger, err := app.NewLogger(appConfig.LogFormat)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Application configuration loaded successfully.", zap.String("store_driver", appConfig.StoreDriver))

	// --- 3. Connect backends and build services ---
	initCtx, cancelInitCtx := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInitCtx()
	application, err := app.New(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize application", zap.Error(err))
	}
	defer application.Close()
	zapLogger.Info("Core services initialized successfully.")

	// --- 4. Setup Gin HTTP Engine ---
	if strings.ToLower(appConfig.GinMode) == "release" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()

	// --- 5. Apply Global Middleware (Order is important) ---
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	if appConfig.ClientURL != "" {
		router.Use(middleware.CORSMiddleware(appConfig))
		zapLogger.Info("CORS Middleware enabled", zap.String("clientURL", appConfig.ClientURL))
	} else {
		zapLogger.Warn("CORS Middleware SKIPPED: CLIENT_URL is not configured. API might not be accessible from a web frontend.")
	}

	var limiter middleware.Limiter
	if appConfig.RateLimitEnabled && application.Redis != nil {
		limiter = cache.NewTokenBucket(application.Redis, "eatlens:ratelimit",
			appConfig.RateLimitCapacity, appConfig.RateLimitRefillTokens, appConfig.RateLimitRefillInterval)
		zapLogger.Info("Rate limiting enabled", zap.Int("capacity", appConfig.RateLimitCapacity))
	}

	// --- 6. Setup API Routes ---
	authMW := middleware.NewAuthMiddleware(application.Identities, application.Sessions, zapLogger)
	api.SetupRoutes(router, zapLogger, authMW, limiter, api.Services{
		Users:    application.Users,
		Usage:    application.Usage,
		Plans:    application.Plans,
		Admin:    application.Admin,
		Feedback: application.Feedback,
	})

	// --- 7. Configure and Start HTTP Server ---
	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// --- 8. Graceful Shutdown Handling ---
	quitChannel := make(chan os.Signal, 1)
	signal.Notify(quitChannel, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quitChannel
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown due to error during graceful shutdown", zap.Error(err))
	}

	zapLogger.Info("Server exiting gracefully.")
}
