package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kioku-app/kioku/pkg/usecase/auth"
	"github.com/kioku-app/kioku/pkg/usecase/chat"
	"github.com/kioku-app/kioku/pkg/usecase/memory"
	"github.com/kioku-app/kioku/pkg/usecase/retrieval"
)

// Server is the REST surface of the knowledge base. All /api routes require
// a bearer token; chat endpoints always answer 200 because the chat engine
// degrades internally instead of failing.
type Server struct {
	engine    *gin.Engine
	auth      *auth.UseCase
	memory    *memory.UseCase
	retrieval *retrieval.UseCase
	chat      *chat.UseCase
}

// New creates a server with all routes registered
func New(authUC *auth.UseCase, memoryUC *memory.UseCase, retrievalUC *retrieval.UseCase, chatUC *chat.UseCase) *Server {
	s := &Server{
		engine:    gin.New(),
		auth:      authUC,
		memory:    memoryUC,
		retrieval: retrievalUC,
		chat:      chatUC,
	}

	s.engine.Use(gin.Recovery(), requestLogger())

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	})

	s.engine.POST("/auth/register", s.handleRegister)
	s.engine.POST("/auth/login", s.handleLogin)

	api := s.engine.Group("/api", s.authMiddleware())
	{
		api.GET("/memories", s.handleListMemories)
		api.POST("/memories", s.handleCreateMemory)
		api.GET("/memories/:id", s.handleGetMemory)
		api.PUT("/memories/:id", s.handleUpdateMemory)
		api.DELETE("/memories/:id", s.handleDeleteMemory)

		api.GET("/search", s.handleSearch)

		api.POST("/chat/message", s.handleChatMessage)
		api.POST("/chat/summarize", s.handleSummarize)
	}

	return s
}

// Handler exposes the underlying http.Handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves HTTP on addr until the listener fails
func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}
