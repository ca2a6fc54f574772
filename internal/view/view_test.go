package view

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weekcal/internal/schedule"
	"weekcal/internal/week"
)

// newTestController anchors on the week of Thursday 2025-09-04.
func newTestController(t *testing.T) *Controller {
	t.Helper()
	store := schedule.NewStore(map[week.DateKey][]schedule.SlotTime{
		"2025-09-01": {"09:00", "14:30"},
		"2025-09-02": {"10:15"},
		"2025-09-04": {"09:00", "10:00", "16:45", "12:21", "12:21", "12:21"},
		"2026-04-14": {"21:00"},
	})
	now := time.Date(2025, 9, 4, 15, 0, 0, 0, time.UTC)
	return NewController(store, Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})
}

func TestNewController_AnchorsOnCurrentMonday(t *testing.T) {
	c := newTestController(t)
	assert.Equal(t, week.DateKey("2025-09-01"), c.AnchorKey())
	assert.False(t, c.IsOpen())
}

func TestWeek(t *testing.T) {
	c := newTestController(t)
	vm := c.Week()

	assert.Equal(t, week.DateKey("2025-09-01"), vm.Anchor)
	wantKeys := []week.DateKey{"2025-09-01", "2025-09-02", "2025-09-03", "2025-09-04", "2025-09-05"}
	for i, d := range vm.Days {
		assert.Equal(t, wantKeys[i], d.Key)
		assert.Equal(t, DefaultLabels[i], d.Label)
		assert.Equal(t, "09", d.Month)
	}
	assert.Equal(t, "01", vm.Days[0].Day)
	assert.Equal(t, "05", vm.Days[4].Day)
}

func TestSummaryFor_Overflow(t *testing.T) {
	c := newTestController(t)
	s := c.SummaryFor("2025-09-04")

	assert.Equal(t, "Thu", s.Label)
	assert.Equal(t, "04", s.Day)
	assert.Equal(t, "09", s.Month)
	assert.Equal(t, []schedule.SlotTime{"09:00", "10:00", "12:21"}, s.Slots)
	assert.Equal(t, 3, s.Overflow)
	assert.Equal(t, 6, s.Total)
	assert.True(t, s.HasMore())
}

func TestSummaryFor_SingleSlot(t *testing.T) {
	c := newTestController(t)
	s := c.SummaryFor("2025-09-02")

	assert.Equal(t, []schedule.SlotTime{"10:15"}, s.Slots)
	assert.Equal(t, 0, s.Overflow)
	assert.False(t, s.HasMore())
}

func TestSummaryFor_UnknownDay(t *testing.T) {
	c := newTestController(t)
	for _, k := range []week.DateKey{"2025-09-03", "1999-01-01"} {
		s := c.SummaryFor(k)
		assert.Empty(t, s.Slots)
		assert.Equal(t, 0, s.Overflow)
		assert.Equal(t, 0, s.Total)
	}
}

func TestSummaryFor_LabelFromPositionInWeek(t *testing.T) {
	labels := Labels{"Seg", "Ter", "Qua", "Qui", "Sex"}
	c := NewController(schedule.Empty(), Options{
		Labels:   labels,
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2026, 4, 14, 9, 0, 0, 0, time.UTC) },
	})

	vm := c.Week()
	for i, d := range vm.Days {
		assert.Equal(t, labels[i], d.Label)
	}
	// Saturday has no label slot.
	assert.Equal(t, "", c.SummaryFor("2026-04-18").Label)
}

func TestNavigation_RoundTrip(t *testing.T) {
	c := newTestController(t)
	before := c.Week()

	next := c.Next()
	assert.Equal(t, week.DateKey("2025-09-08"), next.Anchor)
	c.Next()
	c.Previous()
	back := c.Previous()

	assert.Equal(t, before, back)
	assert.Equal(t, before, c.Week())
}

func TestNavigation_AcrossYear(t *testing.T) {
	c := NewController(schedule.Empty(), Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 12, 31, 9, 0, 0, 0, time.UTC) },
	})
	assert.Equal(t, week.DateKey("2025-12-29"), c.AnchorKey())

	vm := c.Week()
	assert.Equal(t, week.DateKey("2026-01-02"), vm.Days[4].Key)
	assert.Equal(t, "01", vm.Days[4].Month)

	assert.Equal(t, week.DateKey("2026-01-05"), c.Next().Anchor)
}

func TestToday_ResetsAnchor(t *testing.T) {
	c := newTestController(t)
	c.Next()
	c.Next()
	vm := c.Today()
	assert.Equal(t, week.DateKey("2025-09-01"), vm.Anchor)
}

func TestNewController_UsesDisplayLocation(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	// Monday 01:00 UTC is still Sunday evening at UTC-3.
	now := time.Date(2025, 9, 8, 1, 0, 0, 0, time.UTC)
	c := NewController(schedule.Empty(), Options{
		Location: loc,
		Now:      func() time.Time { return now },
	})
	assert.Equal(t, week.DateKey("2025-09-01"), c.AnchorKey())
}

func TestLiveStoreRefreshIsVisible(t *testing.T) {
	live := schedule.NewLive(nil)
	c := NewController(live, Options{
		Location: time.UTC,
		Now:      func() time.Time { return time.Date(2025, 9, 4, 0, 0, 0, 0, time.UTC) },
	})
	require.Equal(t, 0, c.SummaryFor("2025-09-03").Total)

	live.Swap(schedule.NewStore(map[week.DateKey][]schedule.SlotTime{"2025-09-03": {"08:00"}}))
	assert.Equal(t, 1, c.Week().Days[2].Total)
}
