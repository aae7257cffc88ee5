package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"session-cache/internal/cache"
	"session-cache/internal/session"
	"session-cache/pkg/logger"
)

// SessionHandler handles HTTP requests for conversation session state
type SessionHandler struct {
	store  *session.Store
	cache  *cache.Client
	logger *logger.Logger
}

// NewSessionHandler creates a new session handler with dependencies
func NewSessionHandler(store *session.Store, cacheClient *cache.Client, logger *logger.Logger) *SessionHandler {
	return &SessionHandler{
		store:  store,
		cache:  cacheClient,
		logger: logger,
	}
}

// CreateConversation handles POST /api/v1/conversations
// Starts a conversation and persists its context best-effort
func (h *SessionHandler) CreateConversation(c *gin.Context) {
	var req session.CreateConversationRequest

	// Bind and validate request body
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, session.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	// The conversation is returned even when the cache write fails; the
	// caller keeps working with in-memory context
	conv, _ := h.store.Create(c.Request.Context(), req.TenantID, req.UserID, req.Metadata)

	c.JSON(http.StatusCreated, conv)
}

// GetConversation handles GET /api/v1/conversations/:conversationID
func (h *SessionHandler) GetConversation(c *gin.Context) {
	conversationID := c.Param("conversationID")
	if conversationID == "" {
		c.JSON(http.StatusBadRequest, session.ErrorResponse{
			Error:   "invalid_conversation_id",
			Message: "Conversation ID is required",
			Code:    http.StatusBadRequest,
		})
		return
	}

	conv, ok := h.store.Load(c.Request.Context(), conversationID)
	if !ok {
		// Expired, never written, or the cache is degraded; all read the same
		c.JSON(http.StatusNotFound, session.ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found or expired",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// AppendMessage handles POST /api/v1/conversations/:conversationID/messages
func (h *SessionHandler) AppendMessage(c *gin.Context) {
	conversationID := c.Param("conversationID")

	var req session.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, session.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body: " + err.Error(),
			Code:    http.StatusBadRequest,
		})
		return
	}

	conv, ok := h.store.AppendMessage(c.Request.Context(), conversationID, req.Role, req.Content)
	if !ok {
		c.JSON(http.StatusNotFound, session.ErrorResponse{
			Error:   "not_found",
			Message: "Conversation not found or expired",
			Code:    http.StatusNotFound,
		})
		return
	}

	c.JSON(http.StatusOK, conv)
}

// DeleteConversation handles DELETE /api/v1/conversations/:conversationID
func (h *SessionHandler) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("conversationID")

	if !h.store.Delete(c.Request.Context(), conversationID) {
		c.JSON(http.StatusServiceUnavailable, session.ErrorResponse{
			Error:   "cache_unavailable",
			Message: "Conversation could not be removed, try again later",
			Code:    http.StatusServiceUnavailable,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         "Conversation deleted",
		"conversation_id": conversationID,
	})
}

// HealthCheck handles GET /health
// The service stays healthy without its cache; the cache field tells
// operators which mode they are in.
func (h *SessionHandler) HealthCheck(c *gin.Context) {
	cacheState := "connected"
	switch {
	case h.cache.Degraded():
		cacheState = "degraded"
	case h.cache.Ping(c.Request.Context()) != nil:
		cacheState = "unreachable"
	}

	c.JSON(http.StatusOK, session.HealthResponse{
		Status:    "healthy",
		Service:   "session-cache",
		Version:   "1.0.0",
		Cache:     cacheState,
		Timestamp: time.Now().UTC(),
	})
}
