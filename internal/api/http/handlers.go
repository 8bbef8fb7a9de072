package http

import (
	"net/http"

	"github.com/GriffinCanCode/browser-gateway/internal/domain/gateway"
	"github.com/gin-gonic/gin"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	gateway *gateway.Gateway
}

// NewHandlers creates a new handler set
func NewHandlers(gw *gateway.Gateway) *Handlers {
	return &Handlers{gateway: gw}
}

// Init handles POST /init
func (h *Handlers) Init(c *gin.Context) {
	res, err := h.gateway.Init(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{"ok": true, "sessionId": res.SessionID}
	if res.AlreadyInitialized {
		body["message"] = res.Message
	}
	c.JSON(http.StatusOK, body)
}

// Navigate handles POST /navigate
func (h *Handlers) Navigate(c *gin.Context) {
	var req gateway.NavigateRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.gateway.Navigate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "url": res.URL, "title": res.Title})
}

// Click handles POST /click
func (h *Handlers) Click(c *gin.Context) {
	var req gateway.ClickRequest
	if !bind(c, &req) {
		return
	}

	if err := h.gateway.Click(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Type handles POST /type
func (h *Handlers) Type(c *gin.Context) {
	var req gateway.TypeRequest
	if !bind(c, &req) {
		return
	}

	if err := h.gateway.Type(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Wait handles POST /wait
func (h *Handlers) Wait(c *gin.Context) {
	var req gateway.WaitRequest
	if !bind(c, &req) {
		return
	}

	if err := h.gateway.Wait(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// Scrape handles POST /scrape
func (h *Handlers) Scrape(c *gin.Context) {
	var req gateway.ScrapeRequest
	if !bind(c, &req) {
		return
	}

	data, err := h.gateway.Scrape(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": data})
}

// Screenshot handles POST /screenshot
func (h *Handlers) Screenshot(c *gin.Context) {
	var req gateway.ScreenshotRequest
	if !bind(c, &req) {
		return
	}

	path, err := h.gateway.Screenshot(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "path": path})
}

// Content handles POST /content
func (h *Handlers) Content(c *gin.Context) {
	var req gateway.ContentRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.gateway.Content(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"ok":     true,
		"url":    res.URL,
		"title":  res.Title,
		"html":   res.HTML,
		"format": res.Format,
	}
	if res.Text != "" {
		body["text"] = res.Text
	}
	c.JSON(http.StatusOK, body)
}

// Evaluate handles POST /evaluate
func (h *Handlers) Evaluate(c *gin.Context) {
	var req gateway.EvaluateRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.gateway.Evaluate(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "result": result})
}

// Auth handles POST /auth
func (h *Handlers) Auth(c *gin.Context) {
	var req gateway.AuthRequest
	if !bind(c, &req) {
		return
	}

	res, err := h.gateway.Auth(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	body := gin.H{
		"ok":      true,
		"message": res.Message,
		"url":     res.URL,
	}
	if res.Requires2FA {
		body["requires2FA"] = true
	}
	if res.ShouldSavePassword {
		body["shouldSavePassword"] = true
		body["envVarName"] = res.EnvVarName
	}
	c.JSON(http.StatusOK, body)
}

// WaitFor2FA handles POST /auth/wait-2fa
func (h *Handlers) WaitFor2FA(c *gin.Context) {
	var req gateway.WaitFor2FARequest
	if !bind(c, &req) {
		return
	}

	res, err := h.gateway.WaitFor2FA(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ok":        true,
		"completed": res.Completed,
		"url":       res.URL,
		"message":   res.Message,
		"elapsedMs": res.Elapsed.Milliseconds(),
	})
}

// SavePassword handles POST /auth/save
func (h *Handlers) SavePassword(c *gin.Context) {
	var req gateway.SaveRequest
	if !bind(c, &req) {
		return
	}

	msg, err := h.gateway.SavePassword(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "message": msg})
}

// Close handles POST /close
func (h *Handlers) Close(c *gin.Context) {
	res := h.gateway.Close()

	body := gin.H{"ok": true}
	if len(res.Warnings) > 0 {
		body["warnings"] = res.Warnings
	}
	c.JSON(http.StatusOK, body)
}

// Health handles GET /health
func (h *Handlers) Health(c *gin.Context) {
	hs := h.gateway.Health()
	c.JSON(http.StatusOK, gin.H{
		"ok":                true,
		"browser":           hs.Session.Browser,
		"page":              hs.Session.Page,
		"sessionId":         hs.Session.SessionID,
		"state":             hs.Session.State,
		"detached":          hs.Session.Detached,
		"policy":            hs.Mode,
		"counts":            hs.Counts,
		"limits":            hs.Limits,
		"allowedDomains":    hs.AllowedDomains,
		"sensitivePatterns": hs.Sensitive,
		"blockedKeywords":   hs.Blocked,
		"artifactsDir":      hs.ArtifactsDir,
		"uptimeSeconds":     int64(hs.Uptime.Seconds()),
	})
}
