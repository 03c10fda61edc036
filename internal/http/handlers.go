package http

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nnoitra/terminal/internal/command"
	"github.com/nnoitra/terminal/internal/infrastructure/monitoring"
	"github.com/nnoitra/terminal/internal/session"
	"github.com/nnoitra/terminal/internal/shared/id"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	registry  *command.Registry
	metrics   *monitoring.Metrics
	version   string
	startedAt time.Time
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(sessions *session.Manager, registry *command.Registry, metrics *monitoring.Metrics, version string) *Handlers {
	return &Handlers{
		sessions:  sessions,
		registry:  registry,
		metrics:   metrics,
		version:   version,
		startedAt: time.Now(),
	}
}

// CommandInfo describes one registered command.
type CommandInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Restricted  bool   `json:"restricted"`
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "Nnoitra Terminal",
		"version": h.version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":   "healthy",
		"uptime":   time.Since(h.startedAt).Round(time.Second).String(),
		"sessions": h.sessions.Stats(),
		"commands": h.registry.Stats(),
	}
	if h.metrics != nil {
		body["metrics"] = h.metrics.Snapshot()
	}
	c.JSON(http.StatusOK, body)
}

// ListSessions lists the open terminal sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	if sessions == nil {
		sessions = []session.Info{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(),
	})
}

// GetSession describes one session
func (h *Handlers) GetSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	s, found := h.sessions.Get(sessionID)
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, s.Info())
}

// CloseSession disconnects a terminal
func (h *Handlers) CloseSession(c *gin.Context) {
	sessionID, ok := sessionParam(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":    h.sessions.Close(sessionID),
		"session_id": sessionID,
	})
}

// ListCommands lists the registered commands, restricted ones included
func (h *Handlers) ListCommands(c *gin.Context) {
	names := h.registry.Names()
	sort.Strings(names)

	out := make([]CommandInfo, 0, len(names))
	for _, name := range names {
		def, ok := h.registry.Get(name)
		if !ok {
			continue
		}
		out = append(out, CommandInfo{
			Name:        def.Name,
			Description: def.Description,
			Restricted:  def.Available != nil,
		})
	}
	c.JSON(http.StatusOK, gin.H{"commands": out})
}

func sessionParam(c *gin.Context) (string, bool) {
	sessionID := c.Param("id")
	if !id.IsValidPrefixed(sessionID, id.SessionPrefix) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return "", false
	}
	return sessionID, true
}
