package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/astraterm/astraterm/internal/providers/tools"
	"github.com/astraterm/astraterm/internal/shared/validate"
	"github.com/astraterm/astraterm/internal/storage/archive"
)

// AIRequest is the body of POST /api/ai
type AIRequest struct {
	Prompt   string `json:"prompt"`
	Provider string `json:"provider"`
}

// GitHubRequest is the body of POST /api/github
type GitHubRequest struct {
	Query string `json:"query"`
}

// AI sends a prompt to the selected provider
func (h *Handlers) AI(c *gin.Context) {
	if h.assistant == nil {
		unavailable(c, "AI")
		return
	}
	var req AIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := validate.Prompt(req.Prompt); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := h.assistant.Complete(c.Request.Context(), req.Provider, req.Prompt)
	if err != nil {
		h.abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// GitHub searches repositories
func (h *Handlers) GitHub(c *gin.Context) {
	if h.github == nil {
		unavailable(c, "GitHub search")
		return
	}
	var req GitHubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := validate.Query(req.Query, false); err != nil {
		badRequest(c, err)
		return
	}

	repos, err := h.github.Search(c.Request.Context(), req.Query)
	if err != nil {
		h.abortUpstream(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": repos})
}

// ListTools lists the registered security tools
func (h *Handlers) ListTools(c *gin.Context) {
	if h.tools == nil {
		unavailable(c, "tools")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tools": h.tools.List(),
		"stats": h.tools.Stats(),
	})
}

// InstallTool runs a tool's installer
func (h *Handlers) InstallTool(c *gin.Context) {
	if h.tools == nil {
		unavailable(c, "tools")
		return
	}
	if err := validate.ID(c.Param("name"), "tool", true); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.tools.Install(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RunTool runs a tool against a target
func (h *Handlers) RunTool(c *gin.Context) {
	if h.tools == nil {
		unavailable(c, "tools")
		return
	}
	if err := validate.ID(c.Param("name"), "tool", true); err != nil {
		badRequest(c, err)
		return
	}
	var req tools.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.tools.Run(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// SearchArchive searches persisted history across sessions. With
// session_id it returns that session's archived history instead.
func (h *Handlers) SearchArchive(c *gin.Context) {
	if h.archive == nil {
		unavailable(c, "archive")
		return
	}

	var (
		records []archive.Record
		err     error
	)
	if err := validate.Query(c.Query("q"), false); err != nil {
		badRequest(c, err)
		return
	}
	if sid := c.Query("session_id"); sid != "" {
		records, err = h.archive.ForSession(c.Request.Context(), sid)
	} else {
		limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
		records, err = h.archive.Search(c.Request.Context(), c.Query("q"), limit)
	}
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"results": records,
	})
}
