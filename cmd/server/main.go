package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"account-service/internal/auth"
	"account-service/internal/config"
	apphttp "account-service/internal/http"
	"account-service/internal/repository/sqlite"
	"account-service/internal/service"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	if strings.TrimSpace(cfg.Auth.JWTSecret) == "" {
		logger.Fatalf("auth jwt secret is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		logger.Fatalf("open database: %v", err)
	}
	defer db.Close()

	userRepo := sqlite.NewUserRepository(db)
	customerRepo := sqlite.NewCustomerDetailsRepository(db)
	adminRepo := sqlite.NewAdminDetailsRepository(db)
	signupStore := sqlite.NewSignupStore(db)

	if err := userRepo.Init(ctx); err != nil {
		logger.Fatalf("init user repository: %v", err)
	}
	if err := customerRepo.Init(ctx); err != nil {
		logger.Fatalf("init customer details repository: %v", err)
	}
	if err := adminRepo.Init(ctx); err != nil {
		logger.Fatalf("init admin details repository: %v", err)
	}

	userService := service.NewUserService(userRepo, customerRepo, adminRepo, signupStore)

	tokens, err := auth.NewTokenManager(auth.TokenConfig{
		Secret:            cfg.Auth.JWTSecret,
		Issuer:            cfg.Auth.Issuer,
		Audience:          cfg.Auth.UserAudience,
		AcceptedAudiences: []string{cfg.Auth.UserAudience, cfg.Auth.AdminAudience},
		TTL:               time.Duration(cfg.Auth.TokenTTLMinutes) * time.Minute,
	})
	if err != nil {
		logger.Fatalf("setup token manager: %v", err)
	}

	if cfg.Seed.AdminEmail != "" && cfg.Seed.AdminPassword != "" {
		if err := userService.EnsureAdmin(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword, "manage_users"); err != nil {
			logger.Fatalf("seed admin user: %v", err)
		}
		logger.Infof("admin account ensured for %s", cfg.Seed.AdminEmail)
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	handler := apphttp.NewHandler(userService, tokens, cfg.Origins(), logger)
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: router,
	}

	go func() {
		logger.Infof("listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("http shutdown: %v", err)
	}

	logger.Info("bye")
}
