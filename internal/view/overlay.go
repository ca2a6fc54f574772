package view

import (
	"fmt"

	"weekcal/internal/schedule"
	"weekcal/internal/week"
)

// overlayState is CLOSED when open is false, else OPEN(selected).
type overlayState struct {
	open     bool
	selected week.DateKey
}

// DayOption is one entry of the overlay's day selector.
type DayOption struct {
	Key      week.DateKey `json:"key"`
	Text     string       `json:"text"`
	Selected bool         `json:"selected"`
}

// OverlayViewModel is what the detail overlay displays. While open, exactly
// one of Slots and Placeholder is non-empty.
type OverlayViewModel struct {
	Open        bool                `json:"open"`
	Selected    week.DateKey        `json:"selected,omitempty"`
	Label       string              `json:"label,omitempty"`
	Day         string              `json:"day,omitempty"`
	Month       string              `json:"month,omitempty"`
	Slots       []schedule.SlotTime `json:"slots"`
	Placeholder string              `json:"placeholder,omitempty"`
	Options     []DayOption         `json:"options,omitempty"`
}

// Title is the overlay header, e.g. "Thu - 04/09".
func (o OverlayViewModel) Title() string {
	if !o.Open {
		return ""
	}
	return fmt.Sprintf("%s - %s/%s", o.Label, o.Day, o.Month)
}

// IsOpen reports whether the overlay is in the OPEN state.
func (c *Controller) IsOpen() bool { return c.overlay.open }

// Selection returns the inspected day and whether the overlay is open.
func (c *Controller) Selection() (week.DateKey, bool) {
	return c.overlay.selected, c.overlay.open
}

// OpenFor opens the overlay on k. k must be one of the visible days;
// otherwise ErrNotVisible is returned and the state is unchanged.
func (c *Controller) OpenFor(k week.DateKey) (OverlayViewModel, error) {
	if !week.Contains(c.anchor, k) {
		return c.Overlay(), fmt.Errorf("%w: %s", ErrNotVisible, k)
	}
	c.overlay = overlayState{open: true, selected: k}
	return c.Overlay(), nil
}

// Select switches the open overlay to k without closing it.
func (c *Controller) Select(k week.DateKey) (OverlayViewModel, error) {
	if !c.overlay.open {
		return c.Overlay(), ErrOverlayClosed
	}
	if !week.Contains(c.anchor, k) {
		return c.Overlay(), fmt.Errorf("%w: %s", ErrNotVisible, k)
	}
	c.overlay.selected = k
	return c.Overlay(), nil
}

// Close closes the overlay. Closing a closed overlay is a no-op.
func (c *Controller) Close() OverlayViewModel {
	c.overlay = overlayState{}
	return c.Overlay()
}

// Overlay builds the overlay view model for the current state.
func (c *Controller) Overlay() OverlayViewModel {
	if !c.overlay.open {
		return OverlayViewModel{Slots: []schedule.SlotTime{}}
	}
	k := c.overlay.selected
	label, day, month := c.header(k)
	vm := OverlayViewModel{
		Open:     true,
		Selected: k,
		Label:    label,
		Day:      day,
		Month:    month,
		Slots:    c.store.SortedSlotsFor(k),
		Options:  c.options(k),
	}
	if len(vm.Slots) == 0 {
		vm.Placeholder = c.placeholder
	}
	return vm
}

func (c *Controller) options(selected week.DateKey) []DayOption {
	opts := make([]DayOption, 0, week.DaysVisible)
	for k := range week.VisibleDays(c.anchor) {
		label, day, month := c.header(k)
		opts = append(opts, DayOption{
			Key:      k,
			Text:     fmt.Sprintf("%s - %s/%s", label, day, month),
			Selected: k == selected,
		})
	}
	return opts
}
