package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/idcard-api/api/swagger"
	"github.com/noah-isme/idcard-api/internal/handler"
	"github.com/noah-isme/idcard-api/internal/middleware"
	"github.com/noah-isme/idcard-api/internal/records"
	"github.com/noah-isme/idcard-api/internal/repository"
	"github.com/noah-isme/idcard-api/internal/service"
	"github.com/noah-isme/idcard-api/pkg/cache"
	"github.com/noah-isme/idcard-api/pkg/config"
	"github.com/noah-isme/idcard-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/idcard-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/idcard-api/pkg/middleware/requestid"
	"github.com/noah-isme/idcard-api/pkg/storage"
)

// @title Student ID Card API
// @version 1.0.0
// @description Logs students in against the academic records API and renders their ID card
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	metrics := service.NewMetricsService()
	validate := validator.New()

	var redisClient *redis.Client
	if cfg.Lookups.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("lookup cache disabled, redis unreachable", zap.Error(err))
		} else {
			redisClient = client
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck
	lookups := service.NewCacheService(cacheRepo, metrics, cfg.Lookups.TTL, logr, redisClient != nil)

	files, err := storage.NewLocalStorage(cfg.Export.StorageDir)
	if err != nil {
		return err
	}
	signer := storage.NewSignedURLSigner(cfg.Export.SignedURLSecret, cfg.Export.SignedURLTTL)

	client := records.New(cfg.Records.BaseURL, cfg.Records.Timeout, metrics)
	store := service.NewStateStore(cfg.Session.TTL, metrics, logr)
	themes := service.NewThemeService()
	avatars := service.NewAvatarService(store, nil, cfg.Avatar.Workers, metrics, logr)
	sessions := service.NewSessionService(client, lookups, nil, metrics, logr)
	auth := service.NewAuthService(sessions, store, themes, avatars, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.Session.TTL,
		Issuer:      cfg.JWT.Issuer,
	})
	cards := service.NewCardService(store, themes, avatars, files, signer, metrics, logr, service.CardConfig{
		PixelRatio: cfg.Export.PixelRatio,
		Background: cfg.Export.Background,
	})
	store.OnEvict(cards.DiscardDownloads)

	avatars.Start(ctx)
	defer avatars.Stop()
	go store.RunJanitor(ctx, cfg.Session.SweepInterval)
	go pruneExports(ctx, cards, cfg.Session.SweepInterval, cfg.Export.SignedURLTTL, logr)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	handler.Register(r, cfg.APIPrefix, handler.Routes{
		Auth:           handler.NewAuthHandler(auth),
		Card:           handler.NewCardHandler(cards, themes, avatars, validate),
		Metrics:        handler.NewMetricsHandler(metrics, map[string]handler.HealthChecker{"redis": cacheRepo}),
		RequireSession: middleware.JWT(auth),
		LoginLimit:     middleware.NewLoginLimiter(0, cfg.RateLimit.LoginPerMinute).Handler(),
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "records_api", cfg.Records.BaseURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func pruneExports(ctx context.Context, cards *service.CardService, interval, maxAge time.Duration, logr *zap.Logger) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := cards.PruneDownloads(maxAge); n > 0 {
				logr.Debug("stale exports pruned", zap.Int("count", n))
			}
		}
	}
}
