package signal

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dkeye/Rendezvous/internal/app/orch"
	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	DefaultReadLimit    = 64 << 10
	DefaultWriteTimeout = 10 * time.Second
	DefaultSendBuffer   = 32
)

type Options struct {
	ReadLimit    int64
	WriteTimeout time.Duration
	SendBuffer   int
	DefaultRoom  string
	// JoinLimiter is optional; nil disables join throttling.
	JoinLimiter *JoinLimiter
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = DefaultReadLimit
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = DefaultWriteTimeout
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = DefaultSendBuffer
	}
	if o.DefaultRoom == "" {
		o.DefaultRoom = string(domain.DefaultRoomName)
	}
	return o
}

type SignalWSController struct {
	Orch *orch.Orchestrator
	Opts Options
}

func NewSignalWSController(o *orch.Orchestrator, opts Options) *SignalWSController {
	return &SignalWSController{
		Orch: o,
		Opts: opts.withDefaults(),
	}
}

// WsSignalConn adapts a gorilla connection to core.SignalConnection.
// Outbound frames go through a bounded queue drained by writePump.
type WsSignalConn struct {
	id           domain.ConnID
	conn         *websocket.Conn
	send         chan core.Frame
	done         chan struct{}
	writeTimeout time.Duration

	mu     sync.RWMutex
	closed bool
}

func newWsSignalConn(ws *websocket.Conn, opts Options) *WsSignalConn {
	return &WsSignalConn{
		id:           domain.NewConnID(),
		conn:         ws,
		send:         make(chan core.Frame, opts.SendBuffer),
		done:         make(chan struct{}),
		writeTimeout: opts.WriteTimeout,
	}
}

func (c *WsSignalConn) ID() domain.ConnID { return c.id }

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return core.ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Ping() error {
	if !c.IsOpen() {
		return core.ErrConnClosed
	}
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.writeTimeout))
}

func (c *WsSignalConn) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// markClosed flips the state once and reports whether this call did it.
func (c *WsSignalConn) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.closed = true
	close(c.done)
	return true
}

// Close sends a normal close frame and releases the socket.
func (c *WsSignalConn) Close() {
	if !c.markClosed() {
		return
	}
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout)); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("close frame")
	}
	_ = c.conn.Close()
}

// Terminate drops the socket without a close handshake.
func (c *WsSignalConn) Terminate() {
	c.markClosed()
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	token := c.GetString("client_token")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("client", token).Msg("ws upgrade")
		return
	}

	conn := newWsSignalConn(ws, ctl.Opts)
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Str("client", token).Str("remote", c.ClientIP()).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.OnConnect(conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(conn)
}
