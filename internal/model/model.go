package model

import "time"

// Booking is a single booked slot as imported from an external source,
// before it is folded into a schedule store.
type Booking struct {
	SourceID string // calendar source ID (config ICS ID)
	UID      string // iCalendar UID

	// InstanceKey distinguishes occurrences of a recurring booking; it is
	// the local start time in RFC3339.
	InstanceKey string

	Summary string

	// Start is in the configured display timezone.
	Start time.Time
}
