// Voice-platform HTTP handler.
//
// This file exposes the skill endpoint:
//   - POST /alexa
//
// The handler is transport-thin: it hands the raw body to the front-door
// service and translates the outcome into an HTTP response. Every failure
// class (bad origin, malformed body, no stored response) maps to the same
// uniform rejection, so callers cannot probe which part of a lookup key
// was wrong.
package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmanual/go-skill-backend/internal/services"
	"github.com/healthmanual/go-skill-backend/internal/skill"
)

// SkillService defines the front-door operation consumed by the HTTP layer.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SkillService interface {
	// Handle answers one raw voice-platform request body.
	Handle(ctx context.Context, raw []byte) (*skill.Response, error)
}

// HandleAlexa godoc
//
//	@Summary      Handle a voice-platform request
//	@Description  Validates the request origin, classifies it, and returns spoken text.
//	@Tags         alexa
//	@Accept       json
//	@Produce      json
//	@Success      200 {object} skill.Response
//	@Failure      400 {object} ErrorResponse
//	@Router       /alexa [post]
func (h *Handlers) HandleAlexa(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable request body")
		return
	}

	resp, err := h.skillSvc.Handle(c.Request.Context(), raw)
	switch {
	case err == nil:
		ok(c, http.StatusOK, resp)
	case errors.Is(err, services.ErrMalformedRequest),
		errors.Is(err, services.ErrInvalidApplication),
		errors.Is(err, services.ErrNoResponse):
		// Deliberately indistinguishable outcomes.
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "bad request")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
