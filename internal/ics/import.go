package ics

import (
	"context"
	"errors"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/schedule"
	"weekcal/internal/week"
)

// LoadBookings fetches, parses and expands every source. A failing source
// is logged and skipped; the returned error joins all per-source failures
// so callers can decide whether a partial result is acceptable.
func LoadBookings(ctx context.Context, f *Fetcher, sources []Source, cfg ExpandConfig) ([]model.Booking, error) {
	results, errs := f.FetchAll(ctx, sources)

	parsed := make([]ParsedEvent, 0)
	for _, res := range results {
		events, err := ParseICS(res.Source, res.Body)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		parsed = append(parsed, events...)
	}

	expanded, err := ExpandBookings(parsed, cfg)
	if err != nil {
		return nil, errors.Join(append(errs, err)...)
	}

	appLog.Info("ics bookings loaded",
		"sources", len(sources),
		"fetched", len(results),
		"bookings", len(expanded.Bookings),
		"truncated", len(expanded.TruncatedEvents),
	)
	return expanded.Bookings, errors.Join(errs...)
}

// AddBookings folds bookings into b: the day key and HH:MM slot are taken
// from each booking's local start.
func AddBookings(b *schedule.Builder, bookings []model.Booking) {
	for _, bk := range bookings {
		b.Add(week.KeyOf(bk.Start), schedule.SlotTime(bk.Start.Format("15:04")))
	}
}
