package cache

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler refreshes the full listing and every known folder at a fixed interval.
type Scheduler struct {
	store    *Store
	interval time.Duration
	cron     *cron.Cron
}

func NewScheduler(store *Store, interval time.Duration) *Scheduler {
	logger := cronLogger{}
	return &Scheduler{
		store:    store,
		interval: interval,
		cron:     cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger))),
	}
}

// Start fires one full refresh right away, then ticks every interval. cron.Every rounds the interval down
// to whole seconds.
func (sc *Scheduler) Start() {
	sc.store.TriggerFull()
	sc.cron.Schedule(cron.Every(sc.interval), cron.FuncJob(sc.Tick))
	sc.cron.Start()
	log.Info().Dur("interval", sc.interval).Msg("Started refresh scheduler")
}

// Stop halts the timer. The returned context is done once a running tick returns; background refreshes
// are tracked by Store.Wait.
func (sc *Scheduler) Stop() context.Context {
	return sc.cron.Stop()
}

// Tick dispatches the full refresh and one independent refresh per folder known at this moment.
func (sc *Scheduler) Tick() {
	sc.store.TriggerFull()

	folders := sc.store.Folders()
	for _, name := range folders {
		sc.store.TriggerFolder(name)
	}
	log.Debug().Int("folders", len(folders)).Msg("Dispatched refresh tick")
}

// cronLogger routes cron's own logging through zerolog.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debug().Str("logger", "cron").Fields(keysAndValues).Msg(msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Error().Str("logger", "cron").Err(err).Fields(keysAndValues).Msg(msg)
}
