package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"CyMarker/internal/auth"
	"CyMarker/internal/blob"
	"CyMarker/internal/config"
	"CyMarker/internal/handlers"
	"CyMarker/internal/middleware"
	"CyMarker/internal/realtime"
	"CyMarker/internal/repo"
	"CyMarker/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.NewConfig()

	logger, err := newLogger(cfg)
	if err != nil {
		panic(err)
	}

	// делаем регистратор SugaredLogger
	sugar := logger.Sugar()
	middleware.SetLogger(sugar) // передаём логгер в middleware
	//сброс буфера логгера
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := repo.InitDB(cfg.DatabaseDSN)
	if err != nil {
		sugar.Fatalw("failed to initialize database", "error", err)
	}

	store, err := newBlobStore(ctx, cfg)
	if err != nil {
		sugar.Fatalw("failed to initialize blob store", "error", err)
	}

	hub := realtime.NewHub(sugar)
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		_ = hub.RunWithContext(ctx)
	}()

	hasher := auth.NewPasswordHasher()
	tokens := auth.NewTokenCodec(cfg.ServiceName, sugar)

	userService := service.NewUserService(repo.NewUserRepository(gormDB), hasher, tokens, sugar)
	imageService := service.NewImageService(repo.NewImageRepository(gormDB), store, hub, sugar)
	markerService := service.NewMarkerService(repo.NewMarkerRepository(gormDB), hub, sugar)

	h := handlers.NewHandler(userService, imageService, markerService, hub, sugar, cfg)

	srv := &http.Server{
		Addr:              cfg.BaseURL,
		Handler:           h.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sugar.Infow("Config",
		"BaseURL", cfg.BaseURL,
		"EnableHTTPS", cfg.EnableHTTPS,
		"Database", repo.DialectName(gormDB),
		"S3", cfg.S3Enabled(),
		"Production", cfg.Production,
	)

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("Starting server", "addr", srv.Addr)
		if cfg.EnableHTTPS {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("Server failed", "error", err)
		}
		stop()
	case <-ctx.Done():
		sugar.Infow("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Graceful shutdown failed", "error", err)
	}
	<-hubDone

	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// newLogger — development-логгер по умолчанию, production при -production.
func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zcfg := zap.NewDevelopmentConfig()
	if cfg.Production {
		zcfg = zap.NewProductionConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	zcfg.Level = level
	zcfg.InitialFields = map[string]any{"service": cfg.ServiceName}
	return zcfg.Build()
}

// newBlobStore выбирает S3, если задан бакет, иначе локальный каталог.
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, error) {
	if cfg.S3Enabled() {
		return blob.NewS3Store(ctx, blob.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return blob.NewDiskStore(cfg.UploadDir)
}
