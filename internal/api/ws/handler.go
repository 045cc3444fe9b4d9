package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/astraterm/astraterm/internal/domain/session"
	"github.com/astraterm/astraterm/internal/domain/terminal"
	"github.com/astraterm/astraterm/internal/infrastructure/monitoring"
	"github.com/astraterm/astraterm/internal/shared/validate"
)

const (
	defaultWriteWait    = 10 * time.Second
	defaultPongWait     = 60 * time.Second
	defaultMaxFrameSize = 64 << 10
	inboundBuffer       = 16
)

// Options configures a Handler
type Options struct {
	// PingInterval must be shorter than PongWait; zero derives it from PongWait
	PingInterval time.Duration
	PongWait     time.Duration
	WriteWait    time.Duration
	MaxFrameSize int64
	CheckOrigin  func(r *http.Request) bool
	Metrics      *monitoring.Metrics
	Logger       *zap.Logger
}

// Handler manages WebSocket connections
type Handler struct {
	ctrl     *terminal.Controller
	store    *session.Store
	upgrader websocket.Upgrader
	opts     Options
	logger   *zap.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a new WebSocket handler
func NewHandler(ctrl *terminal.Controller, opts Options) *Handler {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PongWait <= 0 {
		opts.PongWait = defaultPongWait
	}
	if opts.PingInterval <= 0 || opts.PingInterval >= opts.PongWait {
		opts.PingInterval = opts.PongWait * 9 / 10
	}
	if opts.WriteWait <= 0 {
		opts.WriteWait = defaultWriteWait
	}
	if opts.MaxFrameSize <= 0 {
		opts.MaxFrameSize = defaultMaxFrameSize
	}
	if opts.CheckOrigin == nil {
		opts.CheckOrigin = func(*http.Request) bool { return true }
	}

	return &Handler{
		ctrl:     ctrl,
		store:    ctrl.Store(),
		upgrader: websocket.Upgrader{CheckOrigin: opts.CheckOrigin},
		opts:     opts,
		logger:   opts.Logger.Named("ws"),
		metrics:  opts.Metrics,
	}
}

// HandleConnection upgrades the request and serves the session until the
// client exits or disconnects. The session id comes from the
// :session_id path parameter; without one a fresh session is created.
func (h *Handler) HandleConnection(c *gin.Context) {
	sid := strings.TrimSpace(c.Param("session_id"))
	if err := validate.ID(sid, "session_id", false); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	snap, created := h.store.Ensure(sid)
	conn := &connection{
		Conn:    raw,
		sid:     snap.ID,
		h:       h,
		logger:  h.logger.With(zap.String("session_id", snap.ID)),
		inbound: make(chan inboundFrame, inboundBuffer),
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}
	conn.logger.Info("WebSocket connected", zap.Bool("created", created))

	conn.serve(c.Request.Context())
	conn.logger.Info("WebSocket closed")
}

type inboundFrame struct {
	msg Inbound
	err error
}

// connection owns one socket. Data frames are written only from serve;
// pings use WriteControl, which gorilla allows concurrently.
type connection struct {
	*websocket.Conn
	sid     string
	h       *Handler
	logger  *zap.Logger
	inbound chan inboundFrame
	writeMu sync.Mutex
}

func (c *connection) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		c.Close()
		wg.Wait()
	}()

	c.SetReadLimit(c.h.opts.MaxFrameSize)
	_ = c.SetReadDeadline(time.Now().Add(c.h.opts.PongWait))
	c.SetPongHandler(func(string) error {
		return c.SetReadDeadline(time.Now().Add(c.h.opts.PongWait))
	})

	wg.Add(2)
	go func() {
		defer wg.Done()
		c.readLoop(ctx, cancel)
	}()
	go func() {
		defer wg.Done()
		c.pingLoop(ctx)
	}()

	if err := c.send(WelcomeFrame{Type: TypeWelcome, Message: WelcomeMessage, SessionID: c.sid}); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-c.inbound:
			if !ok {
				return
			}
			if f.err != nil {
				c.fail(f.err.Error())
				return
			}
			if !c.handle(ctx, f.msg) {
				return
			}
		}
	}
}

// handle runs one command and reports whether the connection stays open.
func (c *connection) handle(ctx context.Context, msg Inbound) bool {
	cmd := strings.TrimSpace(msg.Command)
	if cmd == "" {
		return true
	}

	out, err := c.h.ctrl.Handle(ctx, c.sid, cmd)
	switch {
	case ctx.Err() != nil:
		// client went away mid-command
		return false
	case errors.Is(err, terminal.ErrSessionNotFound):
		c.fail("session no longer exists")
		return false
	case err != nil:
		c.logger.Error("Command handling failed", zap.Error(err))
		c.fail("internal error")
		return false
	}

	if out.Exit() {
		_ = c.send(MessageFrame{Type: TypeExit, Message: FarewellMessage})
		c.closeNormally()
		return false
	}

	res := out.Result
	return c.send(OutputFrame{
		Type:     TypeOutput,
		Command:  out.Command,
		Output:   res.Output,
		Error:    res.Error,
		ExitCode: res.ExitCode,
	}) == nil
}

// readLoop feeds frames to serve. A read error means the peer is gone, so
// it cancels ctx and with it any command in flight.
func (c *connection) readLoop(ctx context.Context, cancel context.CancelFunc) {
	defer close(c.inbound)

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				c.logger.Debug("WebSocket read error", zap.Error(err))
			}
			cancel()
			return
		}
		c.record("in", "command")

		var f inboundFrame
		if err := json.Unmarshal(data, &f.msg); err != nil {
			f.err = errors.New("malformed message: expected {\"command\": \"...\"}")
		} else if err := validate.Command(f.msg.Command); err != nil {
			f.err = err
		}

		select {
		case c.inbound <- f:
		case <-ctx.Done():
			return
		}
		if f.err != nil {
			return
		}
	}
}

func (c *connection) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(c.h.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(c.h.opts.WriteWait)
			if err := c.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		}
	}
}

func (c *connection) send(frame any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	_ = c.SetWriteDeadline(time.Now().Add(c.h.opts.WriteWait))
	if err := c.WriteJSON(frame); err != nil {
		c.logger.Debug("WebSocket write failed", zap.Error(err))
		return err
	}
	c.record("out", frameType(frame))
	return nil
}

// fail sends a best-effort error frame and closes with a policy code.
func (c *connection) fail(msg string) {
	_ = c.send(MessageFrame{Type: TypeError, Message: msg})
	deadline := time.Now().Add(c.h.opts.WriteWait)
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseUnsupportedData, msg), deadline)
}

func (c *connection) closeNormally() {
	deadline := time.Now().Add(c.h.opts.WriteWait)
	_ = c.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
}

func (c *connection) record(direction, msgType string) {
	if c.h.metrics != nil {
		c.h.metrics.RecordWSMessage(direction, msgType)
	}
}

func frameType(frame any) string {
	switch f := frame.(type) {
	case WelcomeFrame:
		return f.Type
	case OutputFrame:
		return f.Type
	case MessageFrame:
		return f.Type
	}
	return "unknown"
}
