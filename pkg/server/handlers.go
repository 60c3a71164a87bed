package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jdgilhuly/just_prompt/pkg/dispatch"
	"github.com/jdgilhuly/just_prompt/pkg/provider"
	"github.com/jdgilhuly/just_prompt/pkg/registry"
)

// PromptRequest is the body of POST /prompt.
type PromptRequest struct {
	Provider string `json:"provider" binding:"required"`
	Model    string `json:"model" binding:"required"`
	Text     string `json:"text"`
}

// BatchRequest is the body of POST /prompt/batch. Empty Models means the
// configured defaults.
type BatchRequest struct {
	Text   string   `json:"text"`
	Models []string `json:"models"`
}

// BatchItem is one model's completion in a batch response.
type BatchItem struct {
	Model    string `json:"model"`
	Response string `json:"response"`
}

func errorBody(errType, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"message": message,
			"type":    errType,
		},
	}
}

// statusFor maps dispatch and adapter errors to HTTP status and error type.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, registry.ErrUnknownProvider):
		return http.StatusNotFound, "unknown_provider"
	case errors.Is(err, dispatch.ErrEmptyPrompt), errors.Is(err, dispatch.ErrInvalidModelRef):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, provider.ErrInvalidModel):
		return http.StatusUnprocessableEntity, "invalid_model"
	case errors.Is(err, provider.ErrProviderUnavailable):
		return http.StatusBadGateway, "provider_unavailable"
	default:
		return http.StatusBadGateway, "provider_error"
	}
}

func (s *Server) fail(c *gin.Context, err error) {
	status, errType := statusFor(err)
	s.logger.Warn("request failed",
		"path", c.Request.URL.Path,
		"status", status,
		"error", err,
		"request_id", c.GetString(requestIDKey),
	)
	c.JSON(status, errorBody(errType, err.Error()))
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleProviders(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"providers": s.d.ListProviders()})
}

func (s *Server) handleModels(c *gin.Context) {
	token := strings.TrimSpace(c.Param("provider"))
	models, err := s.d.ListModels(c.Request.Context(), token)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"provider": token, "models": models})
}

func (s *Server) handlePrompt(c *gin.Context) {
	var req PromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	out, err := s.d.SendPrompt(c.Request.Context(), strings.TrimSpace(req.Provider), req.Text, req.Model)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": out})
}

func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid_request", err.Error()))
		return
	}

	refs, err := s.d.ParseModelRefs(req.Models)
	if err != nil {
		s.fail(c, err)
		return
	}
	raw := make([]string, len(refs))
	for i, ref := range refs {
		raw[i] = ref.String()
	}

	out, err := s.d.Prompt(c.Request.Context(), req.Text, raw)
	if err != nil {
		s.fail(c, err)
		return
	}

	items := make([]BatchItem, len(out))
	for i, r := range out {
		items[i] = BatchItem{Model: raw[i], Response: r}
	}
	c.JSON(http.StatusOK, gin.H{"responses": items})
}
