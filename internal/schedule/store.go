// Package schedule holds the booked time-slots per calendar day.
package schedule

import (
	"slices"
	"sync/atomic"

	"weekcal/internal/week"
)

// SlotTime is a booked time in HH:MM 24-hour form. Lexical order equals
// chronological order within a day.
type SlotTime string

// Lookup is the read side of a schedule, as consumed by the view layer.
// A missing day and a day with an empty slot list are indistinguishable.
type Lookup interface {
	SlotsFor(k week.DateKey) []SlotTime
	SortedSlotsFor(k week.DateKey) []SlotTime
}

// Store is an immutable mapping from DateKey to the slots booked that day,
// in insertion order. Duplicate slots are kept.
type Store struct {
	days map[week.DateKey][]SlotTime
}

// NewStore copies table into a new Store. Later mutation of table does not
// affect the Store.
func NewStore(table map[week.DateKey][]SlotTime) *Store {
	days := make(map[week.DateKey][]SlotTime, len(table))
	for k, slots := range table {
		if len(slots) == 0 {
			continue
		}
		days[k] = slices.Clone(slots)
	}
	return &Store{days: days}
}

// Empty returns a Store with no bookings.
func Empty() *Store {
	return &Store{days: map[week.DateKey][]SlotTime{}}
}

// SlotsFor returns a copy of the slots stored for k, or an empty slice.
func (s *Store) SlotsFor(k week.DateKey) []SlotTime {
	if s == nil {
		return []SlotTime{}
	}
	slots, ok := s.days[k]
	if !ok {
		return []SlotTime{}
	}
	return slices.Clone(slots)
}

// SortedSlotsFor returns the slots for k sorted ascending. The stored order
// is left untouched.
func (s *Store) SortedSlotsFor(k week.DateKey) []SlotTime {
	out := s.SlotsFor(k)
	slices.SortStableFunc(out, func(a, b SlotTime) int {
		switch {
		case a < b:
			return -1
		case a > b:
			return 1
		}
		return 0
	})
	return out
}

// Days returns the number of days with at least one booking.
func (s *Store) Days() int {
	if s == nil {
		return 0
	}
	return len(s.days)
}

// Slots returns the total number of booked slots across all days.
func (s *Store) Slots() int {
	if s == nil {
		return 0
	}
	n := 0
	for _, slots := range s.days {
		n += len(slots)
	}
	return n
}

// Live is a Lookup whose backing Store can be replaced atomically, e.g. by
// a scheduled refresh. Readers always see one complete Store.
type Live struct {
	cur atomic.Pointer[Store]
}

// NewLive returns a Live serving s (or an empty Store when s is nil).
func NewLive(s *Store) *Live {
	l := &Live{}
	l.Swap(s)
	return l
}

// Swap installs s as the current Store and returns the previous one.
func (l *Live) Swap(s *Store) *Store {
	if s == nil {
		s = Empty()
	}
	return l.cur.Swap(s)
}

// Current returns the Store currently served.
func (l *Live) Current() *Store {
	return l.cur.Load()
}

func (l *Live) SlotsFor(k week.DateKey) []SlotTime {
	return l.Current().SlotsFor(k)
}

func (l *Live) SortedSlotsFor(k week.DateKey) []SlotTime {
	return l.Current().SortedSlotsFor(k)
}
