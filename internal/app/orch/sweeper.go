package orch

import (
	"context"
	"time"

	"github.com/dkeye/Rendezvous/internal/core"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/iter"
)

// DefaultSweepInterval is the heartbeat period. A peer that stops answering
// is terminated after at most two periods.
const DefaultSweepInterval = 30 * time.Second

type SweepStats struct {
	Evicted int
	Probed  int
	Pruned  int
}

// Sweeper periodically evicts connections that missed a heartbeat and
// prunes rooms of members whose transport is gone.
type Sweeper struct {
	Orch     *Orchestrator
	Interval time.Duration
}

func NewSweeper(o *Orchestrator, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{Orch: o, Interval: interval}
}

// Run blocks until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	log.Info().Str("module", "sweeper").Dur("interval", s.Interval).Msg("sweeper started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "sweeper").Msg("sweeper stopped")
			return
		case <-ticker.C:
			st := s.Sweep()
			log.Debug().Str("module", "sweeper").Int("evicted", st.Evicted).Int("probed", st.Probed).Int("pruned", st.Pruned).Msg("sweep done")
		}
	}
}

// Sweep runs one heartbeat pass.
func (s *Sweeper) Sweep() SweepStats {
	o := s.Orch
	dead, probe := o.Registry.CheckLiveness()

	for _, c := range dead {
		log.Info().Str("module", "sweeper").Str("conn", string(c.ID())).Msg("terminating dead connection")
		c.Terminate()
		o.Disconnect(c.ID())
		if o.Metrics != nil {
			o.Metrics.Evictions.Inc()
		}
	}

	iter.ForEach(probe, func(c *core.SignalConnection) {
		if err := (*c).Ping(); err != nil {
			log.Debug().Err(err).Str("module", "sweeper").Str("conn", string((*c).ID())).Msg("ping failed")
		}
	})

	return SweepStats{
		Evicted: len(dead),
		Probed:  len(probe),
		Pruned:  o.Prune(),
	}
}
