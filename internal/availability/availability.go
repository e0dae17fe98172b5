// Package availability decides which listings are already booked for a
// candidate stay.
package availability

import (
	"context"
	"strings"
	"time"

	"github.com/diagnosis/stayease/pkg/logger"
)

const dateLayout = "2006-01-02"

// Window is a half-open stay interval [CheckIn, CheckOut).
type Window struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// ParseWindow accepts calendar dates or RFC3339 timestamps. ok is false
// when either side is missing or unparseable, or the window is empty.
func ParseWindow(checkIn, checkOut string) (Window, bool) {
	in, ok := parseTime(checkIn)
	if !ok {
		return Window{}, false
	}
	out, ok := parseTime(checkOut)
	if !ok {
		return Window{}, false
	}
	if !in.Before(out) {
		return Window{}, false
	}
	return Window{CheckIn: in, CheckOut: out}, true
}

func parseTime(v string) (time.Time, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(dateLayout, v); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

// Overlaps reports whether [checkIn, checkOut) intersects w. Touching
// boundaries do not overlap.
func Overlaps(checkIn, checkOut time.Time, w Window) bool {
	return checkIn.Before(w.CheckOut) && checkOut.After(w.CheckIn)
}

type BookingReader interface {
	// OverlappingListingIDs returns listing ids with a non-cancelled booking
	// intersecting [checkIn, checkOut).
	OverlappingListingIDs(ctx context.Context, checkIn, checkOut time.Time) ([]string, error)
}

type Filter struct {
	bookings BookingReader
}

func NewFilter(bookings BookingReader) *Filter {
	return &Filter{bookings: bookings}
}

// Unavailable returns the set of listing ids booked during w. A failed
// lookup is logged and yields an empty set so search keeps working.
func (f *Filter) Unavailable(ctx context.Context, w Window) map[string]struct{} {
	ids, err := f.bookings.OverlappingListingIDs(ctx, w.CheckIn, w.CheckOut)
	if err != nil {
		logger.WarnContext(ctx, "Availability lookup failed, ignoring date filter",
			logger.Err(err),
			"check_in", w.CheckIn.Format(dateLayout),
			"check_out", w.CheckOut.Format(dateLayout),
		)
		return map[string]struct{}{}
	}

	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
