// Package week implements the Monday-anchored work-week model: canonical
// date keys, anchoring a date to its week's Monday, stepping the anchor by
// whole weeks, and enumerating the five visible weekdays.
//
// All arithmetic goes through time.Date component normalization (year,
// month, day) so month/year rollover and daylight-saving transitions never
// shift a calendar date. Nothing here adds fixed 24h durations.
package week

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// DaysVisible is the number of weekdays shown per week (Monday..Friday).
const DaysVisible = 5

// keyLayout is the canonical DateKey layout (YYYY-MM-DD).
const keyLayout = "2006-01-02"

// ErrInvalidKey is returned when a string is not a canonical YYYY-MM-DD key.
var ErrInvalidKey = errors.New("week: invalid date key")

// DateKey identifies a calendar day as YYYY-MM-DD in local calendar terms.
type DateKey string

// KeyOf derives the DateKey of t from its year/month/day components in t's
// own location. No UTC conversion happens.
func KeyOf(t time.Time) DateKey {
	y, m, d := t.Date()
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", y, int(m), d))
}

// ParseKey parses s as a canonical DateKey. Non-canonical spellings such as
// "2025-9-1" or "2025-09-31" are rejected.
func ParseKey(s string) (DateKey, error) {
	t, err := time.ParseInLocation(keyLayout, s, time.UTC)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	k := KeyOf(t)
	if string(k) != s {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, s)
	}
	return k, nil
}

// Time returns local midnight of the day k names, in loc. A malformed key
// returns the zero time and false.
func (k DateKey) Time(loc *time.Location) (time.Time, bool) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(keyLayout, string(k), loc)
	if err != nil {
		return time.Time{}, false
	}
	return Midnight(t), true
}

func (k DateKey) String() string { return string(k) }

// Midnight returns 00:00 of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays shifts t's calendar date by n days and returns local midnight.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// isoWeekday maps time.Weekday to 1 (Monday) .. 7 (Sunday).
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// MondayOf returns local midnight of the Monday on or before t.
func MondayOf(t time.Time) time.Time {
	return AddDays(t, -(isoWeekday(t) - 1))
}

// Advance shifts a Monday anchor by deltaWeeks*7 calendar days. If anchor is
// not a Monday it is first snapped back with MondayOf.
func Advance(anchor time.Time, deltaWeeks int) time.Time {
	return AddDays(MondayOf(anchor), deltaWeeks*7)
}

// Offset reports the position of k within the week anchored at anchor:
// 0 for Monday .. 6 for Sunday. ok is false when k is outside that week or
// malformed.
func Offset(anchor time.Time, k DateKey) (int, bool) {
	for i := range 7 {
		if KeyOf(AddDays(anchor, i)) == k {
			return i, true
		}
	}
	return 0, false
}

// VisibleDays yields the five keys anchor+0d .. anchor+4d. The sequence is
// lazy and can be ranged over any number of times.
func VisibleDays(anchor time.Time) iter.Seq[DateKey] {
	monday := MondayOf(anchor)
	return func(yield func(DateKey) bool) {
		for i := range DaysVisible {
			if !yield(KeyOf(AddDays(monday, i))) {
				return
			}
		}
	}
}

// Days collects VisibleDays into a fixed array.
func Days(anchor time.Time) [DaysVisible]DateKey {
	var out [DaysVisible]DateKey
	i := 0
	for k := range VisibleDays(anchor) {
		out[i] = k
		i++
	}
	return out
}

// Contains reports whether k is one of the five visible keys of anchor's week.
func Contains(anchor time.Time, k DateKey) bool {
	for v := range VisibleDays(anchor) {
		if v == k {
			return true
		}
	}
	return false
}
