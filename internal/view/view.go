// Package view derives the week view model and drives the day detail
// overlay. A Controller owns the week anchor and the overlay selection;
// renderers only consume the view models it produces.
//
// A Controller is not safe for concurrent use. Callers that receive events
// from several goroutines must serialize them.
package view

import (
	"errors"
	"fmt"
	"time"

	"weekcal/internal/schedule"
	"weekcal/internal/week"
)

// InlineSlots is how many slots a day column shows before overflowing.
const InlineSlots = 3

var (
	// ErrNotVisible means a day outside the five visible keys was requested.
	ErrNotVisible = errors.New("view: day is not in the visible week")
	// ErrOverlayClosed means Select was called while the overlay is closed.
	ErrOverlayClosed = errors.New("view: overlay is closed")
)

// Labels is the fixed weekday label table, indexed by offset from Monday.
type Labels [week.DaysVisible]string

// DefaultLabels are used when no labels are configured.
var DefaultLabels = Labels{"Mon", "Tue", "Wed", "Thu", "Fri"}

// DefaultPlaceholder is shown in the overlay for a day without bookings.
const DefaultPlaceholder = "No bookings"

// DaySummary is one column of the week view.
type DaySummary struct {
	Key      week.DateKey        `json:"key"`
	Label    string              `json:"label"`
	Day      string              `json:"day"`
	Month    string              `json:"month"`
	Slots    []schedule.SlotTime `json:"slots"`
	Overflow int                 `json:"overflow"`
	Total    int                 `json:"total"`
}

// HasMore reports whether the column needs a "more" affordance.
func (d DaySummary) HasMore() bool { return d.Overflow > 0 }

// WeekViewModel is the full derived state of the displayed week.
type WeekViewModel struct {
	Anchor week.DateKey                 `json:"anchor"`
	Days   [week.DaysVisible]DaySummary `json:"days"`
}

// Options configures a Controller.
type Options struct {
	Labels      Labels
	Placeholder string
	// Location is the display zone used to interpret "today" and keys.
	Location *time.Location
	// Now overrides the clock; nil means time.Now.
	Now func() time.Time
}

// Controller owns the week anchor and overlay state.
type Controller struct {
	store       schedule.Lookup
	labels      Labels
	placeholder string
	loc         *time.Location
	now         func() time.Time

	anchor  time.Time
	overlay overlayState
}

// NewController anchors the view on the week containing "today".
func NewController(store schedule.Lookup, opts Options) *Controller {
	if store == nil {
		store = schedule.Empty()
	}
	c := &Controller{
		store:       store,
		labels:      opts.Labels,
		placeholder: opts.Placeholder,
		loc:         opts.Location,
		now:         opts.Now,
	}
	if c.labels == (Labels{}) {
		c.labels = DefaultLabels
	}
	if c.placeholder == "" {
		c.placeholder = DefaultPlaceholder
	}
	if c.loc == nil {
		c.loc = time.Local
	}
	if c.now == nil {
		c.now = time.Now
	}
	c.Today()
	return c
}

// Anchor returns the Monday of the displayed week.
func (c *Controller) Anchor() time.Time { return c.anchor }

// AnchorKey returns the displayed Monday as a DateKey.
func (c *Controller) AnchorKey() week.DateKey { return week.KeyOf(c.anchor) }

// SetAnchor displays the week containing t. The overlay is closed.
func (c *Controller) SetAnchor(t time.Time) {
	c.anchor = week.MondayOf(t.In(c.loc))
	c.overlay = overlayState{}
}

// Today displays the current week.
func (c *Controller) Today() WeekViewModel {
	c.SetAnchor(c.now())
	return c.Week()
}

// Next displays the following week.
func (c *Controller) Next() WeekViewModel {
	return c.step(1)
}

// Previous displays the preceding week.
func (c *Controller) Previous() WeekViewModel {
	return c.step(-1)
}

func (c *Controller) step(delta int) WeekViewModel {
	c.anchor = week.Advance(c.anchor, delta)
	// The selection would no longer be a visible key.
	c.overlay = overlayState{}
	return c.Week()
}

// VisibleDays returns the five keys of the displayed week.
func (c *Controller) VisibleDays() [week.DaysVisible]week.DateKey {
	return week.Days(c.anchor)
}

// Week recomputes the whole week view model.
func (c *Controller) Week() WeekViewModel {
	vm := WeekViewModel{Anchor: c.AnchorKey()}
	i := 0
	for k := range week.VisibleDays(c.anchor) {
		vm.Days[i] = c.SummaryFor(k)
		i++
	}
	return vm
}

// SummaryFor builds the column summary for k. The label comes from k's
// offset from its week's Monday; weekend days get an empty label.
func (c *Controller) SummaryFor(k week.DateKey) DaySummary {
	sorted := c.store.SortedSlotsFor(k)
	label, day, month := c.header(k)

	inline := sorted
	if len(inline) > InlineSlots {
		inline = inline[:InlineSlots]
	}
	return DaySummary{
		Key:      k,
		Label:    label,
		Day:      day,
		Month:    month,
		Slots:    inline,
		Overflow: max(0, len(sorted)-InlineSlots),
		Total:    len(sorted),
	}
}

func (c *Controller) header(k week.DateKey) (label, day, month string) {
	t, ok := k.Time(c.loc)
	if !ok {
		return "", "", ""
	}
	day = fmt.Sprintf("%02d", t.Day())
	month = fmt.Sprintf("%02d", int(t.Month()))
	if off, ok := week.Offset(week.MondayOf(t), k); ok && off < week.DaysVisible {
		label = c.labels[off]
	}
	return label, day, month
}
