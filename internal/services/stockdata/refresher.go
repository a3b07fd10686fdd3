package stockdata

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// DefaultRefreshSchedule re-triggers the current selection every minute.
const DefaultRefreshSchedule = "@every 60s"

var scheduleParser = cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Refresher periodically re-runs the current selection. Each tick is a full
// load under the normal cache rule, not a quote-only call.
type Refresher struct {
	loader *Loader
	cron   *cron.Cron
	logger arbor.ILogger

	mu      sync.Mutex
	ctx     context.Context
	running bool
}

// NewRefresher creates a refresher for loader.
func NewRefresher(loader *Loader, logger arbor.ILogger) *Refresher {
	return &Refresher{
		loader: loader,
		cron:   cron.New(cron.WithParser(scheduleParser)),
		logger: logger,
	}
}

// Start begins the periodic refresh. ctx is passed to every triggered load.
func (r *Refresher) Start(ctx context.Context, schedule string) error {
	if schedule == "" {
		schedule = DefaultRefreshSchedule
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return fmt.Errorf("refresher already running")
	}
	r.ctx = ctx

	if _, err := r.cron.AddFunc(schedule, r.tick); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}

	r.cron.Start()
	r.running = true
	r.logger.Info().
		Str("schedule", schedule).
		Msg("Stock data refresher started")

	return nil
}

// Stop stops the refresher and waits for a running tick to return.
func (r *Refresher) Stop() {
	r.mu.Lock()
	running := r.running
	r.running = false
	r.mu.Unlock()

	if !running {
		return
	}
	<-r.cron.Stop().Done()
	r.logger.Info().Msg("Stock data refresher stopped")
}

// RunNow triggers an immediate refresh.
func (r *Refresher) RunNow() {
	r.logger.Info().Msg("Triggering immediate refresh")
	r.tick()
}

func (r *Refresher) tick() {
	r.mu.Lock()
	ctx := r.ctx
	r.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}

	symbol := r.loader.State().Symbol
	if symbol == "" {
		return
	}

	gen := r.loader.Refresh(ctx)
	r.logger.Debug().
		Str("symbol", symbol).
		Str("generation", strconv.FormatUint(gen, 10)).
		Msg("Refreshing current selection")
}
