package schedule

import (
	"fmt"
	"regexp"
	"strconv"
)

// MinutesPerDay is the number of minute-of-day values in a calendar day.
const MinutesPerDay = 24 * 60

// Hours are one or two digits and are not range-checked, so "25:00" parses
// to 1500. Callers that need a strict wall clock validate at their boundary.
var clockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseClockTime converts "H:MM" or "HH:MM" into minutes since midnight.
// ok is false for empty or malformed input.
func ParseClockTime(text string) (minute int, ok bool) {
	if text == "" {
		return 0, false
	}
	m := clockPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	hour, _ := strconv.Atoi(m[1])
	mins, _ := strconv.Atoi(m[2])
	return hour*60 + mins, true
}

// FormatMinuteOfDay24 renders a minute-of-day as zero-padded "HH:MM".
// Values outside [0, 1440) wrap around the day.
func FormatMinuteOfDay24(minute int) string {
	m := wrap(minute)
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// FormatMinuteOfDay12 renders a minute-of-day as "H:MM AM" / "H:MM PM".
// Midnight and noon both use hour 12; noon itself is PM.
func FormatMinuteOfDay12(minute int) string {
	m := wrap(minute)
	hour := m / 60
	suffix := "AM"
	if m >= 12*60 {
		suffix = "PM"
	}
	display := hour % 12
	if display == 0 {
		display = 12
	}
	return fmt.Sprintf("%d:%02d %s", display, m%60, suffix)
}

func wrap(minute int) int {
	return ((minute % MinutesPerDay) + MinutesPerDay) % MinutesPerDay
}
