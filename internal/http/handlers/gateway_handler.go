// Generic data-access HTTP handler.
//
// This file exposes the storage gateway endpoint used by the voice front
// door and the catalogue-authoring tooling:
//   - POST /db
//   - GET  /db  (legacy callers send a body with GET)
//
// The wire format is deliberately legacy-compatible: on success the body is
// the serialized Device / Device list / DeviceIntent; on failure the body is
// a plain string whose first two characters are the fixed "ER" tag. Callers
// detect failure by checking that prefix, so it is preserved bit-for-bit and
// the structured JSON error envelope used elsewhere does not apply here.
package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/healthmanual/go-skill-backend/internal/services"
)

// GatewayService defines the envelope processor consumed by the HTTP layer.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type GatewayService interface {
	// Process validates and executes one data-access envelope.
	Process(ctx context.Context, env services.Envelope) services.Result
}

// HandleEnvelope godoc
//
//	@Summary      Process a generic data-access envelope
//	@Description  Dispatches a GET/PUT envelope against the intent catalogue store.
//	@Tags         gateway
//	@Accept       json
//	@Produce      json
//	@Success      200 {string} string "serialized payload"
//	@Failure      400 {string} string "ER-prefixed diagnostic"
//	@Router       /db [post]
func (h *Handlers) HandleEnvelope(c *gin.Context) {
	var env services.Envelope
	if err := c.ShouldBindJSON(&env); err != nil {
		c.String(http.StatusBadRequest, "%s %s", services.WireErrorTag, "Invalid JSON")
		return
	}

	res := h.gatewaySvc.Process(c.Request.Context(), env)
	if !res.OK() {
		c.String(http.StatusBadRequest, "%s %s", services.WireErrorTag, res.Detail)
		return
	}

	switch {
	case res.Devices != nil:
		c.JSON(http.StatusOK, res.Devices)
	case res.Intent != nil:
		c.JSON(http.StatusOK, res.Intent)
	default:
		c.JSON(http.StatusOK, res.Device)
	}
}
