package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kioku-app/kioku/pkg/model"
	"github.com/kioku-app/kioku/pkg/repository"
	"github.com/kioku-app/kioku/pkg/usecase/memory"
)

type memoryResponse struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Content     string   `json:"content"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags"`
	CreatedAt   string   `json:"createdAt"`
	UpdatedAt   string   `json:"updatedAt"`
	EmbeddingID string   `json:"embeddingId,omitempty"`
}

func toMemoryResponse(m *model.Memory) memoryResponse {
	tags := m.Tags
	if tags == nil {
		tags = []string{}
	}
	return memoryResponse{
		ID:          string(m.ID),
		Title:       m.Title,
		Content:     m.Content,
		URL:         m.URL,
		Tags:        tags,
		CreatedAt:   m.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:   m.UpdatedAt.UTC().Format(time.RFC3339),
		EmbeddingID: m.EmbeddingID,
	}
}

func writeMemoryError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrMemoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "memory not found"})
	case errors.Is(err, model.ErrInvalidMemory):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid memory"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

type createMemoryRequest struct {
	Title   string   `json:"title" binding:"required"`
	Content string   `json:"content" binding:"required"`
	URL     string   `json:"url"`
	Tags    []string `json:"tags"`
}

func (s *Server) handleCreateMemory(c *gin.Context) {
	user := currentUser(c)

	var req createMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title and content are required"})
		return
	}

	created, err := s.memory.Create(c.Request.Context(), user.ID, memory.CreateInput{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Tags:    req.Tags,
	})
	if err != nil {
		writeMemoryError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toMemoryResponse(created))
}

func (s *Server) handleGetMemory(c *gin.Context) {
	user := currentUser(c)

	found, err := s.memory.Get(c.Request.Context(), user.ID, model.MemoryID(c.Param("id")))
	if err != nil {
		writeMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemoryResponse(found))
}

func (s *Server) handleListMemories(c *gin.Context) {
	user := currentUser(c)

	opts := repository.ListMemoriesOptions{
		Search: c.Query("search"),
	}
	if tags := c.Query("tags"); tags != "" {
		opts.Tags = strings.Split(tags, ",")
	}
	if limit, err := strconv.Atoi(c.Query("limit")); err == nil {
		opts.Limit = limit
	}
	if offset, err := strconv.Atoi(c.Query("offset")); err == nil {
		opts.Offset = offset
	}

	memories, total, err := s.memory.List(c.Request.Context(), user.ID, opts)
	if err != nil {
		writeMemoryError(c, err)
		return
	}

	items := make([]memoryResponse, len(memories))
	for i, m := range memories {
		items[i] = toMemoryResponse(m)
	}

	c.JSON(http.StatusOK, gin.H{"memories": items, "total": total})
}

type updateMemoryRequest struct {
	Title   *string   `json:"title"`
	Content *string   `json:"content"`
	URL     *string   `json:"url"`
	Tags    *[]string `json:"tags"`
}

func (s *Server) handleUpdateMemory(c *gin.Context) {
	user := currentUser(c)

	var req updateMemoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	updated, err := s.memory.Update(c.Request.Context(), user.ID, model.MemoryID(c.Param("id")), memory.UpdateInput{
		Title:   req.Title,
		Content: req.Content,
		URL:     req.URL,
		Tags:    req.Tags,
	})
	if err != nil {
		writeMemoryError(c, err)
		return
	}

	c.JSON(http.StatusOK, toMemoryResponse(updated))
}

func (s *Server) handleDeleteMemory(c *gin.Context) {
	user := currentUser(c)

	if err := s.memory.Delete(c.Request.Context(), user.ID, model.MemoryID(c.Param("id"))); err != nil {
		writeMemoryError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
