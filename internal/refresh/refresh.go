// Package refresh rebuilds the schedule store from its configured sources
// (static table plus ICS feeds) and keeps it current on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"weekcal/internal/config"
	"weekcal/internal/ics"
	appLog "weekcal/internal/log"
	"weekcal/internal/schedule"
	"weekcal/internal/week"
)

// Loader builds a complete Store from the configuration.
type Loader struct {
	cfg     *config.Config
	loc     *time.Location
	fetcher *ics.Fetcher
	now     func() time.Time
}

// NewLoader returns a Loader for cfg, interpreting dates in loc.
func NewLoader(cfg *config.Config, loc *time.Location) *Loader {
	if loc == nil {
		loc = time.Local
	}
	return &Loader{
		cfg:     cfg,
		loc:     loc,
		fetcher: ics.NewFetcher(cfg.CacheDir, 15*time.Second),
		now:     time.Now,
	}
}

// Build merges the static table and every ICS feed into a new Store. A
// malformed static table is fatal; failing feeds are logged and skipped so
// the remaining bookings are still served.
func (l *Loader) Build(ctx context.Context) (*schedule.Store, error) {
	b := schedule.NewBuilder()
	if err := b.AddTable(l.cfg.Schedule); err != nil {
		return nil, fmt.Errorf("static schedule: %w", err)
	}

	if len(l.cfg.ICS) > 0 {
		sources := make([]ics.Source, 0, len(l.cfg.ICS))
		for _, c := range l.cfg.ICS {
			if c.URL == "" {
				continue
			}
			sources = append(sources, ics.Source{ID: c.SourceID(), URL: c.URL})
		}

		// Expand around the current week so navigation stays populated.
		monday := week.MondayOf(l.now().In(l.loc))
		expandCfg := ics.ExpandConfig{
			DisplayLocation: l.loc,
			RangeStart:      week.Advance(monday, -l.cfg.HorizonWeeks),
			RangeEnd:        week.Advance(monday, l.cfg.HorizonWeeks+1),
		}
		bookings, err := ics.LoadBookings(ctx, l.fetcher, sources, expandCfg)
		if err != nil {
			appLog.Error("refresh: some ICS sources failed", err)
		}
		ics.AddBookings(b, bookings)
	}

	store := b.Build()
	appLog.Info("schedule built", "days", store.Days(), "slots", store.Slots())
	return store, nil
}

// Reload builds a new Store and installs it in live. On failure the
// current Store is kept.
func (l *Loader) Reload(ctx context.Context, live *schedule.Live) error {
	store, err := l.Build(ctx)
	if err != nil {
		return err
	}
	live.Swap(store)
	return nil
}

// Start schedules Reload on the config's cron spec and returns the running
// cron. It stops when ctx is cancelled.
func Start(ctx context.Context, l *Loader, live *schedule.Live) (*cron.Cron, error) {
	c := cron.New(cron.WithLocation(l.loc))
	_, err := c.AddFunc(l.cfg.RefreshCron, func() {
		if err := l.Reload(ctx, live); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("refresh: invalid cron %q: %w", l.cfg.RefreshCron, err)
	}
	c.Start()
	appLog.Info("refresh scheduler started", "cron", l.cfg.RefreshCron)

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return c, nil
}
