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
	"github.com/techeasyserve/techeasyserve-api/config"
	"github.com/techeasyserve/techeasyserve-api/logger"
	"github.com/techeasyserve/techeasyserve-api/models"
	"github.com/techeasyserve/techeasyserve-api/routes"
	"github.com/techeasyserve/techeasyserve-api/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.Init(logger.Options{
		Level: cfg.LogLevel,
		Dev:   cfg.IsDevelopment(),
		File:  cfg.LogFile,
	})
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zl); err != nil {
		zl.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, zl *zap.Logger) error {
	zl.Info("starting TechEasyServe API", zap.String("env", cfg.GoEnv))

	if err := config.ConnectDatabase(cfg.DatabaseURL); err != nil {
		return err
	}
	db := config.GetDB()
	if err := models.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	zl.Info("database migration completed", zap.String("dialect", db.Dialector.Name()))

	if err := bootstrapAdmin(db, cfg); err != nil {
		return err
	}

	initIntegrations(ctx, cfg, zl)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           setupRouter(ctx, cfg, zl),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zl.Info("server listening", zap.String("addr", srv.Addr))
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

	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

func setupRouter(ctx context.Context, cfg *config.Config, zl *zap.Logger) *gin.Engine {
	return routes.NewRouter(ctx, cfg, zl)
}

// initIntegrations wires the external collaborators: notifier, payment gateway and document storage
func initIntegrations(ctx context.Context, cfg *config.Config, zl *zap.Logger) {
	services.SetNotifier(services.NewLogNotifier(zl))

	gateway := services.InitPaymentGateway(cfg)
	zl.Info("payment gateway ready", zap.Bool("daraja", cfg.DarajaEnabled()), zap.String("type", fmt.Sprintf("%T", gateway)))

	if cfg.AWSS3Bucket == "" {
		zl.Warn("AWS_S3_BUCKET not set, technician document uploads are disabled")
		return
	}
	s3Service, err := services.InitS3Service(ctx, cfg)
	if err != nil {
		zl.Error("failed to initialize S3, technician document uploads are disabled", zap.Error(err))
		return
	}
	services.InitDocumentService(s3Service)
}

// bootstrapAdmin makes sure the configured admin account exists and has the ADMIN role
func bootstrapAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	var admin models.User
	err := db.Where("email = ?", cfg.AdminEmail).First(&admin).Error
	switch {
	case err == nil:
		if admin.Role == models.RoleAdmin {
			return nil
		}
		if err := db.Model(&admin).Updates(map[string]interface{}{
			"role":        models.RoleAdmin,
			"is_verified": true,
		}).Error; err != nil {
			return fmt.Errorf("failed to promote admin: %w", err)
		}
		logger.L().Info("promoted configured admin", zap.Uint("userId", admin.ID))
		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to look up admin: %w", err)
	}

	hash, err := services.HashPassword(cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash admin password: %w", err)
	}
	admin = models.User{
		Username:     cfg.AdminUsername,
		Email:        cfg.AdminEmail,
		PasswordHash: hash,
		IsVerified:   true,
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}
	logger.L().Info("created configured admin", zap.Uint("userId", admin.ID))
	return nil
}
