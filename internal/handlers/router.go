package handlers

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/prepmate/practice-service/internal/analytics"
	"github.com/prepmate/practice-service/internal/bank"
	"github.com/prepmate/practice-service/internal/repositories"
	"github.com/prepmate/practice-service/internal/session"
)

type HandlerManager struct {
	messageHandler   *MessageHandler
	analyticsHandler *AnalyticsHandler
	adminHandler     *AdminHandler
}

func NewHandlerManager(
	engine *session.Engine,
	aggregator *analytics.Aggregator,
	summaries repositories.SessionSummaryRepository,
	importer *bank.Importer,
	questionBank *bank.Bank,
	store *session.Store,
	validate *validator.Validate,
	logger *slog.Logger,
) *HandlerManager {
	return &HandlerManager{
		messageHandler:   NewMessageHandler(engine, validate, logger),
		analyticsHandler: NewAnalyticsHandler(aggregator, summaries, logger),
		adminHandler:     NewAdminHandler(importer, questionBank, store, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Health check endpoint
	router.GET("/health", HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Inbound message webhook
		messages := v1.Group("/messages")
		{
			messages.POST("", hm.messageHandler.HandleMessage)
		}

		// Analytics routes
		users := v1.Group("/users")
		{
			users.GET("/:user_id/summary", hm.analyticsHandler.GetSummary)
			users.GET("/:user_id/sessions", hm.analyticsHandler.GetSessions)
		}

		// Admin routes
		admin := v1.Group("/admin")
		{
			admin.POST("/questions/import", hm.adminHandler.ImportQuestions)
			admin.GET("/stats", hm.adminHandler.Stats)
		}
	}
}
