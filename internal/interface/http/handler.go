package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/support-assistant/internal/domain/support"
	apperrors "github.com/yanqian/support-assistant/pkg/errors"
)

// Handler wires the HTTP transport to the support service.
type Handler struct {
	supportSvc support.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(supportSvc support.Service, logger *slog.Logger) *Handler {
	return &Handler{
		supportSvc: supportSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// Chat answers the last user message of a conversation.
func (h *Handler) Chat(c *gin.Context) {
	var req support.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.supportSvc.Reply(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		code := "chat_failed"
		switch apperrors.CodeOf(err) {
		case apperrors.CodeInvalidInput:
			status = http.StatusBadRequest
			code = "invalid_request"
		case apperrors.CodeLLMError:
			status = http.StatusBadGateway
			code = apperrors.CodeLLMError
		}
		abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Trending returns the most frequently matched questions.
func (h *Handler) Trending(c *gin.Context) {
	items, err := h.supportSvc.Trending(c.Request.Context())
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "trending_failed", errMessage(err), err))
		return
	}
	if items == nil {
		items = []support.TrendingQuery{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": items})
}

// Models reports which generative models are believed usable.
func (h *Handler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, h.supportSvc.Models(c.Request.Context()))
}

// Health is a liveness probe.
func (h *Handler) Health(c *gin.Context) {
	snapshot := h.supportSvc.Models(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"status": "ok", "modelsReady": snapshot.Ready})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
