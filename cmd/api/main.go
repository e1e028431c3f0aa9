package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/cmd/api/app/routes"
	"github.com/wmorato/ZapSign/logger"
	"github.com/wmorato/ZapSign/metrics"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/config"
	"github.com/wmorato/ZapSign/pkg/database"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/kafka"
	"github.com/wmorato/ZapSign/pkg/models"
	"github.com/wmorato/ZapSign/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system env")
	}

	zlog, err := logger.InitLogger()
	if err != nil {
		panic("Failed to initialize zap logger: " + err.Error())
	}
	zlog.Info("Logger initialized")

	cfg, err := config.LoadConfig(utils.GetEnvDefault("CONFIG_PATH", "config.yaml"))
	if err != nil {
		zlog.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.InitDB(os.Getenv("DATABASE_URL"))
	if err != nil {
		zlog.Fatal("DB not init", zap.Error(err))
	}
	if err := database.MigrateDB(db,
		&models.Company{}, &models.User{}, &models.APIKey{},
		&models.Document{}, &models.Signer{}, &models.DocumentAnalysis{},
	); err != nil {
		zlog.Fatal("DB migration failed", zap.Error(err))
	}

	redisClient := database.InitRedis(utils.GetEnvDefault("REDIS_ADDR", "localhost:6379"))

	metrics.InitAPIMetrics()

	broker := utils.GetEnv("KAFKA_BROKER")
	producer := kafka.NewProducer([]string{broker})
	zlog.Info("Kafka producer initialized", zap.String("broker", broker))

	notificationHub := hub.New(zlog)
	notifier := hub.NewBroadcaster(redisClient, zlog)
	relayCtx, stopRelay := context.WithCancel(context.Background())
	go hub.RunRelay(relayCtx, redisClient, notificationHub, zlog)

	analysisService := services.NewAnalysisService(db, producer, cfg.AI.DefaultModel, zlog)
	credentialResolver := services.NewCredentialResolver(db, cfg.ZapSign.BaseURL, cfg.ZapSign.APIToken)
	documentService := services.NewDocumentService(db, credentialResolver, analysisService, notifier, zlog)
	companyService := services.NewCompanyService(db, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.TokenExpireHours)*time.Hour)

	router := gin.Default()
	router.Use(middlewares.GinMetricsMiddleware())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"message": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	routes.Register(router, &routes.Deps{
		DB:          db,
		RedisClient: redisClient,
		Hub:         notificationHub,
		Notifier:    notifier,
		Documents:   documentService,
		Analysis:    analysisService,
		Companies:   companyService,
		JWTSecret:   cfg.Auth.JWTSecret,
		Log:         zlog,
	})

	go handleShutdown(producer, stopRelay, zlog)
	if err := router.Run(fmt.Sprintf(":%d", cfg.Server.Port)); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}

func handleShutdown(producer *kafka.Producer, stopRelay context.CancelFunc, log *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", zap.String("signal", sig.String()))

	stopRelay()
	if err := producer.Close(); err != nil {
		log.Error("Error closing Kafka producer", zap.Error(err))
	} else {
		log.Info("Kafka producer closed cleanly")
	}

	os.Exit(0)
}
