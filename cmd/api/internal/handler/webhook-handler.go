package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wmorato/ZapSign/cmd/api/internal/services"
	"github.com/wmorato/ZapSign/pkg/types"
	"go.uber.org/zap"
)

type WebhookHandler struct {
	service *services.WebhookService
	log     *zap.Logger
}

func NewWebhookHandler(service *services.WebhookService, log *zap.Logger) *WebhookHandler {
	return &WebhookHandler{service: service, log: log}
}

// Receive is the provider's callback endpoint. It is unauthenticated by
// contract; a payload whose token matches nothing is acknowledged with
// 200 so the provider stops redelivering it.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload types.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed webhook payload"})
		return
	}
	if payload.Token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing document token"})
		return
	}

	handled, err := h.service.Process(c.Request.Context(), &payload)
	if err != nil {
		h.log.Error("webhook processing failed",
			zap.String("event_type", payload.EventType),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process event"})
		return
	}
	if !handled {
		c.JSON(http.StatusOK, gin.H{"ignored": "Document not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
