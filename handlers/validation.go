package handlers

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/VanitasCaesar1/hospital/schedule"
)

var weekdays = map[string]bool{
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

// NewValidator returns a validator that knows the weekday and clock tags used
// by availability windows and reports fields by their JSON names.
func NewValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		return weekdays[strings.ToLower(fl.Field().String())]
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return isWallClock(fl.Field().String())
	})
	v.RegisterStructValidation(windowOrder, schedule.AvailabilityWindow{})
	return v
}

// isWallClock is stricter than schedule.ParseClockTime: the hour must be 0-23
// and the minute 0-59.
func isWallClock(s string) bool {
	if _, ok := schedule.ParseClockTime(s); !ok {
		return false
	}
	h, m, _ := strings.Cut(s, ":")
	hour, _ := strconv.Atoi(h)
	minute, _ := strconv.Atoi(m)
	return hour <= 23 && minute <= 59
}

func windowOrder(sl validator.StructLevel) {
	w := sl.Current().Interface().(schedule.AvailabilityWindow)
	from, okFrom := schedule.ParseClockTime(w.From)
	to, okTo := schedule.ParseClockTime(w.To)
	if okFrom && okTo && to <= from {
		sl.ReportError(w.To, "to", "To", "gtfield", "from")
	}
}
