package ws

import (
	"context"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/nnoitra/terminal/internal/bus"
	"github.com/nnoitra/terminal/internal/config"
	"github.com/nnoitra/terminal/internal/infrastructure/monitoring"
	"github.com/nnoitra/terminal/internal/infrastructure/tracing"
	"github.com/nnoitra/terminal/internal/logging"
	"github.com/nnoitra/terminal/internal/session"
	"github.com/nnoitra/terminal/internal/shared/id"
	"github.com/nnoitra/terminal/internal/shared/types"
)

// Handler manages WebSocket connections
type Handler struct {
	sessions *session.Manager
	cfg      config.WebSocketConfig
	metrics  *monitoring.Metrics
	log      *zap.Logger
	tracer   *tracing.Tracer
	upgrader websocket.Upgrader
}

// NewHandler creates a new WebSocket handler. origins lists the allowed
// Origin headers; "*" or an empty list allows any. metrics may be nil.
func NewHandler(sessions *session.Manager, cfg config.WebSocketConfig, origins []string, metrics *monitoring.Metrics, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.SendBufferSize <= 0 {
		cfg.SendBufferSize = 256
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}
	h := &Handler{sessions: sessions, cfg: cfg, metrics: metrics, log: log.Named("ws")}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if len(origins) == 0 || slices.Contains(origins, "*") {
				return true
			}
			return slices.Contains(origins, r.Header.Get("Origin"))
		},
	}
	return h
}

// SetTracer records a span for every connection.
func (h *Handler) SetTracer(t *tracing.Tracer) { h.tracer = t }

// HandleConnection upgrades the request and serves one terminal until the
// socket closes. The "instance" query parameter selects the storage
// instance to reuse.
func (h *Handler) HandleConnection(c *gin.Context) {
	ws, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sess, err := h.sessions.Open(ctx, c.Query("instance"))
	if err != nil {
		h.log.Error("opening session failed", zap.Error(err))
		_ = ws.WriteJSON(errorFrame("session unavailable"))
		return
	}
	defer h.sessions.Close(sess.ID())

	if h.tracer != nil {
		span, _ := h.tracer.StartSpan(c.Request.Context(), "terminal.connection")
		span.SetTag("session_id", sess.ID())
		span.SetTag("instance", sess.Instance())
		defer span.End()
	}

	if h.metrics != nil {
		h.metrics.IncWSConnections()
		defer h.metrics.DecWSConnections()
	}

	conn := &conn{
		ws:      ws,
		sess:    sess,
		cfg:     h.cfg,
		metrics: h.metrics,
		log:     logging.ForConnection(h.log, sess.ID(), id.NewConnectionID().String()),
		send:    make(chan Outbound, h.cfg.SendBufferSize),
		done:    make(chan struct{}),
		limiter: h.limiter(),
	}
	conn.log.Info("terminal connected", zap.String("remote", c.ClientIP()))

	conn.enqueue(frame(FrameSession, sess.Info()))
	conn.relay()

	go conn.writeLoop()
	go func() {
		if err := sess.Run(ctx); err != nil {
			conn.log.Error("session stopped", zap.Error(err))
		}
		conn.stop()
	}()

	conn.readLoop(ctx)
	conn.stop()
	conn.log.Info("terminal disconnected")
}

func (h *Handler) limiter() *rate.Limiter {
	if h.cfg.FramesPerSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	burst := h.cfg.FrameBurst
	if burst <= 0 {
		burst = h.cfg.FramesPerSec
	}
	return rate.NewLimiter(rate.Limit(h.cfg.FramesPerSec), burst)
}

// conn is one socket bound to one session.
type conn struct {
	ws      *websocket.Conn
	sess    *session.Session
	cfg     config.WebSocketConfig
	metrics *monitoring.Metrics
	log     *zap.Logger
	limiter *rate.Limiter

	send     chan Outbound
	done     chan struct{}
	stopOnce sync.Once
}

func (c *conn) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// enqueue queues a frame for the writer. A full queue drops the client.
func (c *conn) enqueue(f Outbound) {
	select {
	case c.send <- f:
	case <-c.done:
	default:
		c.log.Warn("send queue full, disconnecting", zap.String("type", f.Type))
		c.stop()
	}
}

// relay forwards session broadcasts to the socket.
func (c *conn) relay() {
	b := c.sess.Bus()
	forward := func(topic, typ string) {
		b.Listen(topic, "ws."+typ, func(_ context.Context, msg *bus.Message) {
			c.enqueue(frame(typ, msg.Payload))
		})
	}
	forward(types.TopicPromptRender, FramePrompt)
	forward(types.TopicOutput, FrameOutput)
	forward(types.TopicAutocompleteBroadcast, FrameAutocomplete)
	forward(types.TopicUserChanged, FrameUser)

	// Prompt only once the input service holds the request.
	forward(types.TopicInputReady, FrameInput)
	b.Listen(types.TopicClearScreen, "ws.clear", func(context.Context, *bus.Message) {
		c.enqueue(frame(FrameClear, nil))
	})
}

func (c *conn) readLoop(ctx context.Context) {
	if c.cfg.ReadLimit > 0 {
		c.ws.SetReadLimit(c.cfg.ReadLimit)
	}
	c.extendDeadline()
	c.ws.SetPongHandler(func(string) error {
		c.extendDeadline()
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		c.extendDeadline()

		var in Inbound
		if err := sonic.Unmarshal(data, &in); err != nil {
			c.enqueue(errorFrame("malformed frame"))
			continue
		}
		if c.metrics != nil {
			c.metrics.RecordWSFrame("in", inboundLabel(in.Type))
		}
		if !c.limiter.Allow() {
			c.enqueue(errorFrame("rate limit exceeded"))
			continue
		}
		c.dispatch(ctx, in)
	}
}

func (c *conn) extendDeadline() {
	if c.cfg.PingInterval > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(2 * c.cfg.PingInterval))
	}
}

func (c *conn) dispatch(ctx context.Context, in Inbound) {
	b := c.sess.Bus()
	switch in.Type {
	case FrameInput:
		b.Publish(types.TopicInputSubmit, types.InputResponse{Value: in.Value})
	case FrameAutocomplete:
		// The result arrives through the autocomplete broadcast.
		b.Publish(types.TopicAutocompleteRequest, types.AutocompleteRequest{
			BeforeCursor: in.BeforeCursor,
			AfterCursor:  in.AfterCursor,
		})
	case FrameHistory:
		topic := types.TopicHistoryPrevious
		switch in.Direction {
		case DirectionPrevious:
		case DirectionNext:
			topic = types.TopicHistoryNext
		default:
			c.enqueue(errorFrame("unknown history direction"))
			return
		}
		go func() {
			entry, err := bus.CallAs[types.HistoryEntry](ctx, b, topic, nil, c.cfg.WriteTimeout)
			if err != nil {
				c.log.Warn("history request failed", zap.Error(err))
				c.enqueue(errorFrame("history unavailable"))
				return
			}
			c.enqueue(frame(FrameHistory, entry))
		}()
	case FramePing:
		c.enqueue(frame(FramePong, nil))
	default:
		c.enqueue(errorFrame("unknown message type"))
	}
}

func (c *conn) writeLoop() {
	var ping <-chan time.Time
	if c.cfg.PingInterval > 0 {
		ticker := time.NewTicker(c.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}
	defer c.ws.Close()

	for {
		select {
		case f := <-c.send:
			data, err := sonic.Marshal(f)
			if err != nil {
				c.log.Error("encoding frame failed", zap.String("type", f.Type), zap.Error(err))
				continue
			}
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
				c.log.Warn("websocket write failed", zap.Error(err))
				c.stop()
				return
			}
			if c.metrics != nil {
				c.metrics.RecordWSFrame("out", f.Type)
			}
		case <-ping:
			deadline := time.Now().Add(c.cfg.WriteTimeout)
			if err := c.ws.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				c.stop()
				return
			}
		case <-c.done:
			deadline := time.Now().Add(time.Second)
			_ = c.ws.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
			return
		}
	}
}
