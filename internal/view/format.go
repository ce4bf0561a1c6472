package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FormatTime12h converts "HH:MM" or "HH:MM:SS" into 12-hour display form
// ("10:30AM"). Inputs already carrying AM/PM and inputs that do not parse are
// returned unchanged; this is display sugar, not validation.
func FormatTime12h(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	lower := strings.ToLower(s)
	if strings.Contains(lower, "am") || strings.Contains(lower, "pm") {
		return s
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return s
	}

	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return s
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return s
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return s
	}

	period := "AM"
	if hour >= 12 {
		period = "PM"
	}
	displayHour := hour
	switch {
	case hour == 0:
		displayHour = 12
	case hour > 12:
		displayHour = hour - 12
	}

	return fmt.Sprintf("%d:%02d%s", displayHour, minute, period)
}

// FormatDate renders a YYYY-MM-DD wash date in locale-ish display form.
// Unparseable input passes through.
func FormatDate(raw string) string {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	return t.Format("1/2/2006")
}
