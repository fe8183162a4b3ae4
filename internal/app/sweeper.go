package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/giantswarm/mcpkit/internal/cache"
	"github.com/giantswarm/mcpkit/pkg/logging"
)

// Sweeper removes expired response cache entries on a cron schedule.
type Sweeper struct {
	cron  *cron.Cron
	cache *cache.Cache
}

// NewSweeper schedules sweeps of c. Schedules use the standard five-field
// syntax or a descriptor such as "@every 1m".
func NewSweeper(c *cache.Cache, schedule string) (*Sweeper, error) {
	s := &Sweeper{cron: cron.New(), cache: c}
	if _, err := s.cron.AddFunc(schedule, s.sweep); err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.cache.Sweep(ctx)
	if err != nil {
		logging.Warn("Sweeper", "Cache sweep failed: %v", err)
		return
	}
	if n > 0 {
		logging.Debug("Sweeper", "Removed %d expired cache entries", n)
	}
}

// Start begins running the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
}

// Stop stops the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
