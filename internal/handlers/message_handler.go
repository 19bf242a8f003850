package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	apperrors "github.com/prepmate/practice-service/internal/errors"
	"github.com/prepmate/practice-service/internal/session"
)

// MessageRequest is one inbound user message from a channel adapter.
// Timestamp is optional; receipt time is used when absent.
type MessageRequest struct {
	UserID    string     `json:"user_id" validate:"required,max=64"`
	Text      string     `json:"text" validate:"required,max=4096"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

type MessageHandler struct {
	engine    *session.Engine
	validator *validator.Validate
	logger    *slog.Logger
}

func NewMessageHandler(engine *session.Engine, validate *validator.Validate, logger *slog.Logger) *MessageHandler {
	return &MessageHandler{
		engine:    engine,
		validator: validate,
		logger:    logger,
	}
}

// HandleMessage processes one inbound message and returns the single reply.
// @Summary Process user message
// @Description Routes one conversational message through the session state machine
// @Tags messages
// @Accept json
// @Produce json
// @Param message body MessageRequest true "Inbound message"
// @Success 200 {object} session.Reply
// @Failure 400 {object} ErrorResponse
// @Router /messages [post]
func (h *MessageHandler) HandleMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Struct(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: apperrors.ToValidationErrors(err),
		})
		return
	}

	ts := time.Now()
	if req.Timestamp != nil {
		ts = *req.Timestamp
	}

	reply, err := h.engine.Handle(c.Request.Context(), req.UserID, req.Text, ts)
	if err != nil {
		h.logger.Error("Message handling failed",
			"user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Failed to process message",
		})
		return
	}

	c.JSON(http.StatusOK, reply)
}
