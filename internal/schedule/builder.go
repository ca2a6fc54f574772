package schedule

import (
	"fmt"
	"regexp"

	"weekcal/internal/week"
)

var slotPattern = regexp.MustCompile(`^[0-9]{2}:[0-9]{2}$`)

// ValidSlot reports whether s has the HH:MM shape. Ranges are not checked.
func ValidSlot(s string) bool {
	return slotPattern.MatchString(s)
}

// Builder accumulates bookings from one or more sources before freezing
// them into a Store.
type Builder struct {
	days map[week.DateKey][]SlotTime
}

func NewBuilder() *Builder {
	return &Builder{days: make(map[week.DateKey][]SlotTime)}
}

// Add appends slot to day k. Order of Add calls is preserved per day.
func (b *Builder) Add(k week.DateKey, slot SlotTime) {
	b.days[k] = append(b.days[k], slot)
}

// AddTable adds a raw config table (date string -> HH:MM strings). Entries
// with malformed keys or slots are rejected with an error naming the entry.
func (b *Builder) AddTable(table map[string][]string) error {
	for rawKey, slots := range table {
		k, err := week.ParseKey(rawKey)
		if err != nil {
			return fmt.Errorf("schedule: %w", err)
		}
		for _, s := range slots {
			if !ValidSlot(s) {
				return fmt.Errorf("schedule: invalid slot %q for %s", s, k)
			}
			b.Add(k, SlotTime(s))
		}
	}
	return nil
}

// Merge appends every day of s after what the builder already holds.
func (b *Builder) Merge(s *Store) {
	if s == nil {
		return
	}
	for k, slots := range s.days {
		b.days[k] = append(b.days[k], slots...)
	}
}

// Build freezes the accumulated bookings.
func (b *Builder) Build() *Store {
	return NewStore(b.days)
}
