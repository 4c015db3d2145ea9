package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kioku-app/kioku/pkg/model"
)

const defaultSearchLimit = 10

type scoredMemoryResponse struct {
	memoryResponse
	Score float64 `json:"score"`
}

func (s *Server) handleSearch(c *gin.Context) {
	user := currentUser(c)

	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	limit := defaultSearchLimit
	if n, err := strconv.Atoi(c.Query("limit")); err == nil && n > 0 {
		limit = n
	}

	result, err := s.retrieval.Search(c.Request.Context(), user.ID, query, limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid search request"})
		return
	}

	items := make([]scoredMemoryResponse, len(result.Memories))
	for i, m := range result.Memories {
		items[i] = scoredMemoryResponse{
			memoryResponse: toMemoryResponse(m.Memory),
			Score:          m.Score,
		}
	}

	c.JSON(http.StatusOK, gin.H{"memories": items})
}

type chatTurnRequest struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content" binding:"required"`
}

type chatMessageRequest struct {
	Message string            `json:"message" binding:"required"`
	History []chatTurnRequest `json:"history"`
}

func (s *Server) handleChatMessage(c *gin.Context) {
	user := currentUser(c)

	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	history := make([]model.ChatTurn, len(req.History))
	for i, turn := range req.History {
		role := model.ChatRoleUser
		if turn.Role == string(model.ChatRoleAssistant) {
			role = model.ChatRoleAssistant
		}
		history[i] = model.ChatTurn{Role: role, Content: turn.Content}
	}

	// Always 200: the engine converts downstream failures into an
	// apologetic response instead of an error.
	answer := s.chat.Answer(c.Request.Context(), user.ID, req.Message, history)

	c.JSON(http.StatusOK, gin.H{
		"response":   answer.Text,
		"references": answer.Citations,
	})
}

type summarizeRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleSummarize(c *gin.Context) {
	user := currentUser(c)

	// The body is optional; without a query the summary covers the most
	// recent memories.
	var req summarizeRequest
	_ = c.ShouldBindJSON(&req)

	summary := s.chat.Summarize(c.Request.Context(), user.ID, req.Query)

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
