package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"consult-system/internal/routes"
	"consult-system/pkg/config"
	"consult-system/pkg/database/postgresql"
	"consult-system/pkg/eventbus"
	"consult-system/pkg/logger"
	"consult-system/pkg/validation"
)

func main() {
	cfg := config.New()

	zapLogger := logger.NewLogger()
	defer zapLogger.Sync()

	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		zapLogger.Fatal("не удалось подключиться к Redis", zap.Error(err))
	}
	defer redisClient.Close()

	bus := eventbus.New(zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())

	escalationService := routes.InitRouter(e, dbPool, redisClient, cfg, zapLogger, bus)

	schedulerCtx, stopScheduler := context.WithCancel(context.Background())
	go escalationService.Run(schedulerCtx)

	go func() {
		zapLogger.Info("HTTP-сервер запускается", zap.String("port", cfg.Server.Port))
		if err := e.Start(":" + cfg.Server.Port); err != nil {
			zapLogger.Info("HTTP-сервер остановлен", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("получен сигнал завершения, останавливаемся")
	stopScheduler()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("ошибка при остановке HTTP-сервера", zap.Error(err))
	}
}
