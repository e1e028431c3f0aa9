package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/wmorato/ZapSign/cmd/api/internal/handler"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/middlewares"
	"github.com/wmorato/ZapSign/pkg/hub"
	"github.com/wmorato/ZapSign/pkg/repositories"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Deps carries everything the route tree needs, built once in main.
type Deps struct {
	DB          *gorm.DB
	RedisClient *redis.Client
	Hub         *hub.Hub
	Notifier    hub.Notifier
	Documents   *services.DocumentService
	Analysis    *services.AnalysisService
	Companies   *services.CompanyService
	JWTSecret   string
	Log         *zap.Logger
}

func Register(router *gin.Engine, deps *Deps) {
	documentHandler := handler.NewDocumentHandler(deps.Documents)
	webhookHandler := handler.NewWebhookHandler(services.NewWebhookService(deps.DB, deps.Notifier, deps.Log), deps.Log)
	automationHandler := handler.NewAutomationHandler(deps.Analysis, deps.Documents)
	authHandler := handler.NewAuthHandler(deps.Companies)
	wsHandler := handler.NewWSHandler(deps.DB, deps.Hub, deps.Log)

	jwtAuth := middlewares.JWTAuth(deps.JWTSecret)
	apiKeyAuth := middlewares.APIKeyAuth(&middlewares.APIKeyConfig{
		RedisClient: deps.RedisClient,
		Companies:   repositories.NewCompanyRepository(deps.DB),
	})
	limiter := middlewares.NewRateLimiter(rate.Limit(20), 40)

	api := router.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/companies", authHandler.CreateCompany)
	auth.GET("/companies", authHandler.ListCompanies)
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/apikeys", jwtAuth, authHandler.IssueAPIKey)

	docs := api.Group("/documents", jwtAuth, limiter.Middleware())
	docs.POST("/", documentHandler.Create)
	docs.GET("/", documentHandler.List)
	docs.GET("/:id/", documentHandler.Get)
	docs.PUT("/:id/", documentHandler.Update)
	docs.PATCH("/:id/", documentHandler.Update)
	docs.DELETE("/:id/", documentHandler.Delete)
	docs.GET("/:id/pdf/", documentHandler.DownloadLink)
	docs.GET("/:id/pdf/file/", documentHandler.DownloadFile)
	docs.POST("/:id/sync/", documentHandler.Sync)

	automations := api.Group("/automations", apiKeyAuth, limiter.Middleware())
	automations.GET("/documents/:id/analysis/", automationHandler.GetAnalysis)
	automations.POST("/documents/:id/reanalyze/", automationHandler.Reanalyze)
	automations.POST("/reports/", automationHandler.Report)

	router.POST("/webhook/zapsign/", webhookHandler.Receive)

	ws := router.Group("/ws", jwtAuth)
	ws.GET("/documents/", wsHandler.DocumentList)
	ws.GET("/documents/:id/", wsHandler.DocumentDetail)
}
