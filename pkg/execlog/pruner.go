package execlog

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// DefaultRetention is how long execution log entries are kept when the
// deployment does not configure a retention period.
const DefaultRetention = 90 * 24 * time.Hour

// Pruner deletes aged execution log entries on a nightly schedule.
type Pruner struct {
	sink      *SQLiteSink
	retention time.Duration
	cron      *cron.Cron
	logger    zerolog.Logger
}

// NewPruner creates a pruner; Start must be called to schedule it.
func NewPruner(sink *SQLiteSink, retention time.Duration, logger zerolog.Logger) *Pruner {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Pruner{
		sink:      sink,
		retention: retention,
		cron:      cron.New(),
		logger:    logger,
	}
}

// Start schedules the nightly prune.
func (p *Pruner) Start() error {
	_, err := p.cron.AddFunc("@midnight", func() {
		if _, err := p.sink.Prune(context.Background(), p.retention); err != nil {
			p.logger.Error().Err(err).Msg("Scheduled execution log prune failed")
		}
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	p.logger.Info().Dur("retention", p.retention).Msg("Execution log pruner started")
	return nil
}

// Stop halts the schedule, waiting for an in-flight prune to finish.
func (p *Pruner) Stop() {
	ctx := p.cron.Stop()
	<-ctx.Done()
}

// RunOnce prunes immediately, outside the schedule.
func (p *Pruner) RunOnce(ctx context.Context) (int64, error) {
	return p.sink.Prune(ctx, p.retention)
}
