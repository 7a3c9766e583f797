package signal

import (
	"bytes"
	"encoding/json"

	"github.com/dkeye/Rendezvous/internal/metrics"
	"github.com/rs/zerolog/log"
)

func (ctl *SignalWSController) handleJoin(conn *WsSignalConn, raw json.RawMessage) {
	if l := ctl.Opts.JoinLimiter; l != nil && !l.Allow(conn.id) {
		log.Warn().Str("module", "signal").Str("conn", string(conn.id)).Msg("join rate limited")
		ctl.dropped(metrics.ReasonRateLimited)
		return
	}
	requested := requestedRoom(raw, ctl.Opts.DefaultRoom)
	log.Debug().Str("module", "signal").Str("conn", string(conn.id)).Str("requested", requested).Msg("join")
	// Join replies to the client itself, including on a bad name.
	_, _ = ctl.Orch.Join(conn, requested)
}

// handleBye closes the sender. Its room mates learn about it from the
// regular leave notice, the bye itself is not relayed.
func (ctl *SignalWSController) handleBye(conn *WsSignalConn) {
	log.Info().Str("module", "signal").Str("conn", string(conn.id)).Msg("bye")
	conn.Close()
	ctl.Orch.Disconnect(conn.id)
}

// requestedRoom extracts the room field of a join. Missing and falsy
// values (null, "", 0, false) fall back; other non-string values keep
// their JSON text.
func requestedRoom(raw json.RawMessage, fallback string) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return fallback
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fallback
	}
	switch v := v.(type) {
	case nil:
		return fallback
	case string:
		if v == "" {
			return fallback
		}
		return v
	case bool:
		if !v {
			return fallback
		}
	case float64:
		if v == 0 {
			return fallback
		}
	}
	return string(raw)
}
