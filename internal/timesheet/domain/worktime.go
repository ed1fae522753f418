package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/tms/tms-backend/pkg/errors"
)

// Duration returns out minus in in minutes. ok is false when either end is
// missing. An out earlier than in is a validation error.
func Duration(field string, in, out *ClockTime) (minutes int, ok bool, err error) {
	if in == nil || out == nil {
		return 0, false, nil
	}
	if *out < *in {
		return 0, false, errors.Invalid(field, "must not be earlier than the matching clock-in")
	}
	return int(*out - *in), true, nil
}

// TotalHours sums the complete morning and afternoon pairs and formats the
// result as H:MM. It returns nil when neither pair is complete.
func TotalHours(morningIn, morningOut, afternoonIn, afternoonOut *ClockTime) (*string, error) {
	morning, hasMorning, err := Duration("morning_out", morningIn, morningOut)
	if err != nil {
		return nil, err
	}
	afternoon, hasAfternoon, err := Duration("afternoon_out", afternoonIn, afternoonOut)
	if err != nil {
		return nil, err
	}
	if !hasMorning && !hasAfternoon {
		return nil, nil
	}
	s := FormatMinutes(morning + afternoon)
	return &s, nil
}

// FormatMinutes renders a minute count as H:MM.
func FormatMinutes(minutes int) string {
	return fmt.Sprintf("%d:%02d", minutes/60, minutes%60)
}

// ParseHours is the inverse of FormatMinutes.
func ParseHours(s string) (int, error) {
	h, m, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid hours %q", s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil {
		return 0, fmt.Errorf("invalid hours %q", s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("invalid hours %q", s)
	}
	return hours*60 + minutes, nil
}

// DayOfWeek is the English weekday name of d.
func DayOfWeek(d Date) string {
	return d.Weekday().String()
}
