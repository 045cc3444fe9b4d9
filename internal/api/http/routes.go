package http

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every REST route on r
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	api := r.Group("/api")
	api.GET("/config", h.Config)
	api.GET("/stats", h.Stats)

	// Sessions
	api.POST("/sessions", h.CreateSession)
	api.GET("/sessions", h.ListSessions)
	api.GET("/sessions/:id", h.GetSession)
	api.DELETE("/sessions/:id", h.DeleteSession)
	api.GET("/sessions/:id/transcript", h.Transcript)
	api.POST("/sessions/:id/replay", h.Replay)
	api.GET("/sessions/:id/history", h.SearchHistory)

	// Commands
	api.POST("/command", h.ExecuteCommand)

	// Collaborators
	api.POST("/ai", h.AI)
	api.POST("/github", h.GitHub)
	api.GET("/tools", h.ListTools)
	api.POST("/tools/:name/install", h.InstallTool)
	api.POST("/tools/:name/run", h.RunTool)
	api.GET("/archive/search", h.SearchArchive)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}
