// Package schedule turns recurring weekly availability into the concrete
// bookable slots of a calendar date.
//
// Nothing in this package returns an error. Malformed windows, dates and
// intervals produce empty (or partial) results, which callers treat as
// "nothing available".
package schedule

import (
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO calendar date accepted by the planner.
const DateLayout = "2006-01-02"

// AvailabilityWindow is one recurring weekly block during which a doctor
// accepts bookings. Telehealth is carried as metadata and never filters slots.
type AvailabilityWindow struct {
	Day        string `json:"day" bson:"day" validate:"required,weekday"`
	From       string `json:"from" bson:"from" validate:"required,clock"`
	To         string `json:"to" bson:"to" validate:"required,clock"`
	Telehealth bool   `json:"telehealth,omitempty" bson:"telehealth,omitempty"`
}

// SlotsInWindow returns the start minute of every slot of length interval that
// fits between from and to. The last slot must end no later than to, and no
// slot runs past midnight even when the lenient parser accepts hours past 23.
func SlotsInWindow(from, to string, interval int) []int {
	start, ok := ParseClockTime(from)
	if !ok {
		return nil
	}
	end, ok := ParseClockTime(to)
	if !ok || end <= start || interval <= 0 {
		return nil
	}
	if end > MinutesPerDay {
		end = MinutesPerDay
	}

	var slots []int
	for t := start; t+interval <= end; t += interval {
		slots = append(slots, t)
	}
	return slots
}

// Weekday returns the lowercase English weekday of an ISO date.
func Weekday(dateISO string) (string, bool) {
	if dateISO == "" {
		return "", false
	}
	d, err := time.ParseInLocation(DateLayout, dateISO, time.Local)
	if err != nil {
		return "", false
	}
	return strings.ToLower(d.Weekday().String()), true
}

// PlanMinutesForDate merges the slots of every window that falls on the
// weekday of dateISO and returns them deduplicated in ascending order.
func PlanMinutesForDate(windows []AvailabilityWindow, dateISO string, interval int) []int {
	if len(windows) == 0 {
		return nil
	}
	day, ok := Weekday(dateISO)
	if !ok {
		return nil
	}

	seen := make(map[int]struct{})
	for _, w := range windows {
		if strings.ToLower(w.Day) != day {
			continue
		}
		for _, m := range SlotsInWindow(w.From, w.To, interval) {
			seen[m] = struct{}{}
		}
	}
	if len(seen) == 0 {
		return nil
	}

	minutes := make([]int, 0, len(seen))
	for m := range seen {
		minutes = append(minutes, m)
	}
	sort.Ints(minutes)
	return minutes
}

// PlanSlotsForDate is PlanMinutesForDate rendered as 12-hour display labels.
func PlanSlotsForDate(windows []AvailabilityWindow, dateISO string, interval int) []string {
	minutes := PlanMinutesForDate(windows, dateISO, interval)
	labels := make([]string, 0, len(minutes))
	for _, m := range minutes {
		labels = append(labels, FormatMinuteOfDay12(m))
	}
	return labels
}

// WithoutBooked drops the labels present in booked, keeping the order of slots.
func WithoutBooked(slots, booked []string) []string {
	taken := make(map[string]struct{}, len(booked))
	for _, b := range booked {
		taken[b] = struct{}{}
	}
	free := make([]string, 0, len(slots))
	for _, s := range slots {
		if _, ok := taken[s]; ok {
			continue
		}
		free = append(free, s)
	}
	return free
}

// Contains reports whether label is one of slots.
func Contains(slots []string, label string) bool {
	for _, s := range slots {
		if s == label {
			return true
		}
	}
	return false
}
