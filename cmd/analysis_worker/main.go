package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wmorato/ZapSign/cmd/analysis_worker/handler"
	"github.com/wmorato/ZapSign/logger"
	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/pkg/config"
	"github.com/wmorato/ZapSign/pkg/database"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/kafka"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/utils"
)

func main() {
	_ = godotenv.Load()

	logr, err := logger.InitLogger()
	if err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
	defer logr.Sync()

	logr.Info("Starting analysis worker")

	db, err := database.InitDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		logr.Fatal("failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateDB(db, &models.Document{}, &models.Signer{}, &models.DocumentAnalysis{}); err != nil {
		logr.Fatal("DB migration failed", zap.Error(err))
	}

	cfg, err := config.LoadConfig(utils.GetEnvDefault("CONFIG_PATH", "config.yaml"))
	if err != nil {
		logr.Fatal("failed to load config", zap.Error(err))
	}
	registry, err := config.BuildAnalyzerRegistry(cfg)
	if err != nil {
		logr.Fatal("failed to build analyzer registry", zap.Error(err))
	}
	logr.Info("Analyzer registry initialized", zap.Strings("models", registry.Names()))

	redisClient := database.InitRedis(utils.GetEnvDefault("REDIS_ADDR", "localhost:6379"))
	notifier := hub.NewBroadcaster(redisClient, logr)

	broker := utils.GetEnv("KAFKA_BROKER")
	logr.Info("Kafka broker resolved", zap.String("broker", broker))
	producer := kafka.NewProducer([]string{broker})

	metrics.InitWorkerMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go handleShutdown(cancel, logr)

	processor := handler.NewProcessor(db, registry, notifier, producer, logr)
	go handler.HandleAnalysisTasks(ctx, broker, processor, logr)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if err := http.ListenAndServe(":3001", mux); err != nil {
		logr.Fatal("metrics server failed", zap.Error(err))
	}
}

func handleShutdown(cancel context.CancelFunc, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))
	cancel()
}
