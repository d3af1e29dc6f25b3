package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/malamapl09/Picker-Scheduler/config"
	"github.com/malamapl09/Picker-Scheduler/internal/api/handler"
	"github.com/malamapl09/Picker-Scheduler/internal/api/router"
	"github.com/malamapl09/Picker-Scheduler/internal/repository"
	"github.com/malamapl09/Picker-Scheduler/internal/service"
	"github.com/malamapl09/Picker-Scheduler/pkg/database"
	"github.com/malamapl09/Picker-Scheduler/pkg/jwt"
	applogger "github.com/malamapl09/Picker-Scheduler/pkg/logger"
	"github.com/malamapl09/Picker-Scheduler/pkg/redis"
)

func main() {
	// 1. Configuration; a missing .env is fine
	_ = godotenv.Load()
	cfg, err := config.Load(os.Getenv("PICKER_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Logger
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting picker scheduler",
		zap.Int("port", cfg.Server.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. Database and migrations
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("connect database", zap.Error(err))
	}

	if cfg.Database.Driver == "sqlite" {
		err = database.Migrate(db, logger)
	} else {
		sqlDB, dbErr := db.DB()
		if dbErr != nil {
			logger.Fatal("get sql.DB", zap.Error(dbErr))
		}
		err = database.RunMigrations(sqlDB, logger)
	}
	if err != nil {
		logger.Fatal("migrate database", zap.Error(err))
	}

	// 4. Redis is optional: without it locks are no-ops, logout cannot
	// revoke tokens and rate limiting is off
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("redis unavailable, running without locks, token blacklist and rate limiting", zap.Error(err))
		rdb = nil
	}

	// 5. Wiring: repository → service → handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, jwtMgr, rdb, logger)
	if err := svc.Auth.EnsureAdmin(context.Background()); err != nil {
		logger.Fatal("bootstrap admin", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	engine, err := router.Setup(cfg, h, jwtMgr, rdb, logger)
	if err != nil {
		logger.Fatal("setup router", zap.Error(err))
	}

	// 6. HTTP server; writes must outlast the longest optimizer run
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Optimizer.MaxTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("http server", zap.Error(err))
		}
	}()

	// 7. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("shutting down", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	if sqlDB, _ := db.DB(); sqlDB != nil {
		_ = sqlDB.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("server stopped")
}
