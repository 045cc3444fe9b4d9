package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/shared/validate"
)

// maxReplayBody bounds transcript uploads
const maxReplayBody = 4 << 20

// CommandRequest is the body of POST /api/command
type CommandRequest struct {
	Command   string `json:"command"`
	SessionID string `json:"session_id"`
}

// CommandResponse is a Result plus the session it ran in
type CommandResponse struct {
	Output    string  `json:"output"`
	Error     *string `json:"error"`
	ExitCode  int     `json:"exit_code"`
	SessionID string  `json:"session_id"`
	Exit      bool    `json:"exit,omitempty"`
}

// ReplayRequest is the JSON form of a replay body
type ReplayRequest struct {
	Commands []string `json:"commands"`
}

// ReplayOutcome is one replayed command
type ReplayOutcome struct {
	Command  string  `json:"command"`
	Output   string  `json:"output"`
	Error    *string `json:"error"`
	ExitCode int     `json:"exit_code"`
}

// CreateSession creates an empty session
func (h *Handlers) CreateSession(c *gin.Context) {
	snap := h.store.Create()
	c.JSON(http.StatusCreated, gin.H{
		"session_id": snap.ID,
		"created_at": snap.CreatedAt,
	})
}

// ListSessions lists session summaries
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.store.List()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// GetSession returns one session with its history
func (h *Handlers) GetSession(c *gin.Context) {
	snap, err := h.store.Get(c.Param("id"))
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": snap.ID,
		"cwd":        snap.Cwd,
		"history":    snap.History,
		"created_at": snap.CreatedAt,
	})
}

// DeleteSession removes a session
func (h *Handlers) DeleteSession(c *gin.Context) {
	if err := h.store.Delete(c.Param("id")); err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session deleted"})
}

// Transcript returns the session in the saved-session text format
func (h *Handlers) Transcript(c *gin.Context) {
	text, err := h.ctrl.Transcript(c.Param("id"))
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.String(http.StatusOK, text)
}

// Replay runs commands from a transcript body or {commands:[...]}
func (h *Handlers) Replay(c *gin.Context) {
	sid := c.Param("id")
	if !h.store.Exists(sid) {
		h.abortError(c, session.ErrNotFound)
		return
	}

	var commands []string
	if c.ContentType() == gin.MIMEJSON {
		var req ReplayRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}
		commands = req.Commands
	} else {
		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxReplayBody))
		if err != nil {
			badRequest(c, err)
			return
		}
		commands = session.ParseTranscriptString(string(body))
	}

	outcomes, err := h.ctrl.Replay(c.Request.Context(), sid, commands)
	if err != nil && !errors.Is(err, c.Request.Context().Err()) {
		h.abortError(c, err)
		return
	}

	out := make([]ReplayOutcome, len(outcomes))
	for i, o := range outcomes {
		out[i] = ReplayOutcome{
			Command:  o.Command,
			Output:   o.Result.Output,
			Error:    o.Result.Error,
			ExitCode: o.Result.ExitCode,
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"session_id": sid,
		"outcomes":   out,
	})
}

// SearchHistory filters a session's history by command substring
func (h *Handlers) SearchHistory(c *gin.Context) {
	entries, err := h.ctrl.SearchHistory(c.Param("id"), c.Query("q"))
	if err != nil {
		h.abortError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":   c.Query("q"),
		"results": entries,
	})
}

// ExecuteCommand runs one command, creating the session if needed
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	if err := validate.ID(req.SessionID, "session_id", false); err != nil {
		badRequest(c, err)
		return
	}
	if err := validate.Command(req.Command); err != nil {
		badRequest(c, err)
		return
	}

	snap, _ := h.store.Ensure(req.SessionID)

	// A session deleted or evicted mid-command is reported as 404; the
	// command is never run a second time and the id is not revived.
	out, err := h.ctrl.Handle(c.Request.Context(), snap.ID, req.Command)
	if err != nil {
		h.abortError(c, err)
		return
	}

	c.JSON(http.StatusOK, commandResponse(snap.ID, out))
}

func commandResponse(sid string, out terminal.Outcome) CommandResponse {
	return CommandResponse{
		Output:    out.Result.Output,
		Error:     out.Result.Error,
		ExitCode:  out.Result.ExitCode,
		SessionID: sid,
		Exit:      out.Exit(),
	}
}
