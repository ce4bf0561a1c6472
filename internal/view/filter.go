package view

import (
	"sort"
	"strings"

	"washdesk/internal/models"
	"washdesk/internal/status"
)

// FilterAll is the identity filter, matched case-insensitively.
const FilterAll = "All"

// Filter returns the bookings whose normalized status matches the filter,
// preserving original order. "All" returns the input as-is. Filtering is
// purely client-side over whatever page is loaded.
func Filter(bookings []models.Booking, filter string) []models.Booking {
	if strings.EqualFold(strings.TrimSpace(filter), FilterAll) {
		return bookings
	}

	want := status.Normalize(filter)
	out := make([]models.Booking, 0, len(bookings))
	for _, b := range bookings {
		if status.Normalize(string(b.Status)) == want {
			out = append(out, b)
		}
	}
	return out
}

// CountByFilter returns per-filter match totals for the filter-tab badges.
func CountByFilter(bookings []models.Booking, filters []string) map[string]int {
	counts := make(map[string]int, len(filters))
	for _, f := range filters {
		if strings.EqualFold(strings.TrimSpace(f), FilterAll) {
			counts[f] = len(bookings)
			continue
		}
		counts[f] = len(Filter(bookings, f))
	}
	return counts
}

// SortNewestFirst orders bookings by wash date and time descending, the
// transaction-history ordering. The sort is stable so equal timestamps keep
// their backend order.
func SortNewestFirst(bookings []models.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].ScheduledAt().After(bookings[j].ScheduledAt())
	})
}
