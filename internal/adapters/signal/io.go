package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/dkeye/Rendezvous/internal/domain"
	"github.com/dkeye/Rendezvous/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Msg("writePump ctx done")
			c.Close()
			return
		case <-c.done:
			return
		case data := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump set deadline")
				c.Terminate()
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("writePump write error")
				c.Terminate()
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("conn", string(c.id)).Msg("readPump closing")
		c.Terminate()
		ctl.Orch.Disconnect(c.id)
		if ctl.Opts.JoinLimiter != nil {
			ctl.Opts.JoinLimiter.Forget(c.id)
		}
	}()

	c.conn.SetReadLimit(ctl.Opts.ReadLimit)
	c.conn.SetPongHandler(func(string) error {
		ctl.Orch.OnPong(c.id)
		return nil
	})

	for {
		mt, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				log.Warn().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("readPump read error")
			}
			return
		}
		if mt != websocket.TextMessage {
			log.Debug().Str("module", "signal").Str("conn", string(c.id)).Int("msg_type", mt).Msg("non-text frame ignored")
			continue
		}
		ctl.dispatch(c, data)
	}
}

type envelope struct {
	Type domain.MessageType `json:"type"`
	Room json.RawMessage    `json:"room,omitempty"`
}

// dispatch routes one inbound text frame. Nothing here replies to the
// sender except through Join; every other failure is a silent drop.
func (ctl *SignalWSController) dispatch(c *WsSignalConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "signal").Str("conn", string(c.id)).Msg("bad json")
		ctl.dropped(metrics.ReasonMalformed)
		return
	}

	switch {
	case env.Type == domain.TypeJoin:
		ctl.handleJoin(c, env.Room)
	case env.Type == domain.TypeBye:
		ctl.handleBye(c)
	case domain.IsForwardable(env.Type):
		ctl.Orch.Forward(c.id, env.Type, core.Frame(data))
	default:
		log.Warn().Str("module", "signal").Str("conn", string(c.id)).Str("type", string(env.Type)).Msg("unknown signal")
		ctl.dropped(metrics.ReasonUnknownType)
	}
}

func (ctl *SignalWSController) dropped(reason string) {
	if m := ctl.Orch.Metrics; m != nil {
		m.DroppedFrames.WithLabelValues(reason).Inc()
	}
}
