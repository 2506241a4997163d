package session

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/readingroom/bookreviews/pkg/logger"
)

// Janitor periodically purges expired session bags from the store.
type Janitor struct {
	store    Store
	schedule string
	cron     *cron.Cron
	log      *logger.Logger
}

// NewJanitor builds a janitor with the given cron schedule, for example
// "@every 10m". Empty schedule defaults to every ten minutes.
func NewJanitor(store Store, schedule string, log *logger.Logger) *Janitor {
	if schedule == "" {
		schedule = "@every 10m"
	}
	if log == nil {
		log = logger.NewDefault("session-janitor")
	}
	return &Janitor{store: store, schedule: schedule, log: log}
}

// Start registers the purge job and launches the scheduler.
func (j *Janitor) Start(ctx context.Context) error {
	j.cron = cron.New()
	_, err := j.cron.AddFunc(j.schedule, func() {
		purged, err := j.store.PurgeExpired(ctx, time.Now())
		if err != nil {
			j.log.WithError(err).Warn("session purge failed")
			return
		}
		if purged > 0 {
			j.log.WithField("purged", purged).Info("expired sessions removed")
		}
	})
	if err != nil {
		return err
	}
	j.cron.Start()
	return nil
}

// Stop halts the scheduler and waits for a running purge to finish.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}
