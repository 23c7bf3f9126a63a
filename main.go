package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ThreeDotsLabs/go-event-driven/common/log"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"

	"boxoffice/internal/app"
	"boxoffice/internal/config"
)

func main() {
	_ = godotenv.Load()
	log.Init(logrus.InfoLevel)

	logger := zerolog.New(os.Stdout)
	cfg := config.Load()

	db, err := sqlx.Connect("postgres", cfg.PostgresURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer db.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	watermillLogger := watermill.NewStdLogger(false, false)

	a, err := app.NewApp(watermillLogger, redisClient, db, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build app")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		logger.Fatal().Err(err).Msg("app exited with error")
	}
}
