package idserver

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"connectid-service/internal/consent"
	"connectid-service/internal/identity/provider"
	"connectid-service/internal/logger"
	"connectid-service/internal/optout"
	"connectid-service/internal/payload"
)

type Handler struct {
	providers       *provider.Registry
	payloads        payload.Store
	optOut          optout.Marker
	defaultProvider string
}

func NewHandler(
	registry *provider.Registry,
	payloads payload.Store,
	optOut optout.Marker,
	defaultProvider string,
) *Handler {
	return &Handler{
		providers:       registry,
		payloads:        payloads,
		optOut:          optOut,
		defaultProvider: defaultProvider,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.POST("/v1/id/resolve", h.resolve)
	r.GET("/v1/id/:userKey", h.decode)
	r.PUT("/v1/optout", h.setOptOut)
	r.DELETE("/v1/optout", h.clearOptOut)
}

type resolveRequest struct {
	UserKey  string          `json:"user_key"`
	Provider string          `json:"provider"`
	Params   json.RawMessage `json:"params"`
	Consent  *consent.Signal `json:"consent"`
}

// providerFor resolves the provider named in a request, falling back to
// the configured default.
func (h *Handler) providerFor(name string) (provider.Provider, error) {
	if name == "" {
		name = h.defaultProvider
	}
	return h.providers.Get(name)
}

// resolve runs the full provider lifecycle for one user: prepare,
// execute, cache the raw payload, respond with the decoded identifier.
// Absent identifiers respond with an empty object, never an error; only
// rejected configuration and unknown providers surface as client errors.
func (h *Handler) resolve(c *gin.Context) {
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if req.UserKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_key is required"})
		return
	}

	p, err := h.providerFor(req.Provider)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown identity provider"})
		return
	}

	prepared, err := p.Prepare(c.Request.Context(), req.Params, req.Consent)
	if err != nil {
		logger.Error("provider rejected configuration", map[string]any{
			"provider": p.Name(),
			"error":    err.Error(),
		})
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid provider params"})
		return
	}

	// Not applicable (e.g. opted out): absent, no network call.
	if prepared == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	var raw json.RawMessage
	p.Execute(c.Request.Context(), prepared, func(body map[string]any) {
		if body == nil {
			return
		}
		data, err := json.Marshal(body)
		if err != nil {
			logger.Error("payload marshal failed", map[string]any{
				"provider": p.Name(),
				"error":    err.Error(),
			})
			return
		}
		raw = data
	})

	if raw == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	if err := h.payloads.Save(c.Request.Context(), payload.Record{
		UserKey:  req.UserKey,
		Provider: p.Name(),
		Raw:      raw,
	}); err != nil {
		// Cache miss on the next decode, nothing worse.
		logger.Warn("payload cache save failed", map[string]any{
			"provider": p.Name(),
			"error":    err.Error(),
		})
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	decoded := p.Decode(c.Request.Context(), parsed)
	if decoded == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, decoded)
}

// decode normalizes a previously cached payload without a network round
// trip. Missing cache entries and unusable payloads respond with an
// empty object.
func (h *Handler) decode(c *gin.Context) {
	userKey := c.Param("userKey")

	p, err := h.providerFor(c.Query("provider"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown identity provider"})
		return
	}

	rec, err := h.payloads.Load(c.Request.Context(), userKey, p.Name())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load cached payload"})
		return
	}

	if rec == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	var parsed any
	if err := json.Unmarshal(rec.Raw, &parsed); err != nil {
		logger.Error("cached payload parse failed", map[string]any{
			"provider":   p.Name(),
			"payload_id": rec.ID.String(),
			"error":      err.Error(),
		})
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	decoded := p.Decode(c.Request.Context(), parsed)
	if decoded == nil {
		c.JSON(http.StatusOK, gin.H{})
		return
	}

	c.JSON(http.StatusOK, decoded)
}

func (h *Handler) setOptOut(c *gin.Context) {
	if err := h.optOut.Set(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist opt-out"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) clearOptOut(c *gin.Context) {
	if err := h.optOut.Clear(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear opt-out"})
		return
	}
	c.Status(http.StatusNoContent)
}
