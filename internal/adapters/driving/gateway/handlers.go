package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/custodia-labs/assetrag/internal/core/domain"
)

type indexRequest struct {
	Entities []domain.EntityRecord `json:"entities" binding:"required"`
}

type indexFailure struct {
	Error  string              `json:"error"`
	Result *domain.IndexResult `json:"result"`
}

type queryRequest struct {
	Query   string                       `json:"query" binding:"required"`
	History []domain.ConversationMessage `json:"history,omitempty"`
}

type searchResponse struct {
	Results []domain.SimilarityResult `json:"results"`
	Count   int                       `json:"count"`
}

type openSessionRequest struct {
	ID string `json:"id"`
}

type askRequest struct {
	Query string `json:"query" binding:"required"`
}

type historyResponse struct {
	SessionID string                       `json:"sessionId"`
	Messages  []domain.ConversationMessage `json:"messages"`
}

func (s *Server) routes() {
	s.engine.GET("/health", s.handleHealth)
	s.engine.GET("/ws", s.handleWebSocket)

	api := s.engine.Group("/api")
	{
		api.GET("/stats", s.handleStats)
		api.POST("/index", s.handleIndex)
		api.DELETE("/index", s.handleClearIndex)
		api.DELETE("/entities/:id", s.handleRemoveEntity)
		api.POST("/query", s.handleQuery)
		api.GET("/search/:identifier", s.handleSearch)

		api.POST("/sessions", s.handleOpenSession)
		api.GET("/sessions/:id/messages", s.handleHistory)
		api.POST("/sessions/:id/messages", s.handleAsk)
		api.DELETE("/sessions/:id", s.handleCloseSession)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.ports.Admin == nil {
		unavailable(c, "health reporting")
		return
	}
	health := s.ports.Admin.Health(c.Request.Context())
	status := http.StatusOK
	if !health.Healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, health)
}

func (s *Server) handleStats(c *gin.Context) {
	if s.ports.Admin == nil {
		unavailable(c, "statistics")
		return
	}
	stats, err := s.ports.Admin.Stats(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleIndex(c *gin.Context) {
	if s.ports.Index == nil {
		unavailable(c, "indexing")
		return
	}
	var req indexRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, &domain.ValidationError{Field: "entities", Reason: err.Error()})
		return
	}

	result, err := s.ports.Index.IndexEntities(c.Request.Context(), req.Entities)
	if err != nil {
		if result == nil {
			abortWithError(c, err)
			return
		}
		// Partial progress is still reported.
		c.AbortWithStatusJSON(statusFor(err), indexFailure{Error: err.Error(), Result: result})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleClearIndex(c *gin.Context) {
	if s.ports.Admin == nil {
		unavailable(c, "index maintenance")
		return
	}
	if err := s.ports.Admin.ClearIndex(c.Request.Context()); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleRemoveEntity(c *gin.Context) {
	if s.ports.Index == nil {
		unavailable(c, "indexing")
		return
	}
	if err := s.ports.Index.RemoveEntity(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleQuery(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, &domain.ValidationError{Field: "query", Reason: err.Error()})
		return
	}
	result, err := s.ports.Query.AnswerQuery(c.Request.Context(), req.Query, req.History)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSearch(c *gin.Context) {
	results, err := s.ports.Query.SearchByIdentifier(c.Request.Context(), c.Param("identifier"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, searchResponse{Results: results, Count: len(results)})
}

func (s *Server) handleOpenSession(c *gin.Context) {
	if s.ports.Sessions == nil {
		unavailable(c, "sessions")
		return
	}
	var req openSessionRequest
	// The body is optional.
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, &domain.ValidationError{Field: "id", Reason: err.Error()})
			return
		}
	}
	info, err := s.ports.Sessions.Open(c.Request.Context(), req.ID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

func (s *Server) handleHistory(c *gin.Context) {
	if s.ports.Sessions == nil {
		unavailable(c, "sessions")
		return
	}
	id := c.Param("id")
	messages, err := s.ports.Sessions.History(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if messages == nil {
		messages = []domain.ConversationMessage{}
	}
	c.JSON(http.StatusOK, historyResponse{SessionID: id, Messages: messages})
}

func (s *Server) handleAsk(c *gin.Context) {
	if s.ports.Sessions == nil {
		unavailable(c, "sessions")
		return
	}
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, &domain.ValidationError{Field: "query", Reason: err.Error()})
		return
	}
	result, err := s.ports.Sessions.Ask(c.Request.Context(), c.Param("id"), req.Query)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCloseSession(c *gin.Context) {
	if s.ports.Sessions == nil {
		unavailable(c, "sessions")
		return
	}
	if err := s.ports.Sessions.Close(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
