package booker

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"kadence-booker/internal/models"
)

// Default working-day window, applied whenever a row carries no usable
// start or end time.
const (
	DefaultStartTime = "09:00"
	DefaultEndTime   = "17:00"
)

var (
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	timeRe = regexp.MustCompile(`^\d{1,2}:[0-5]\d$`)
)

// ComputeWindow interprets date plus the optional local times as wall-clock
// time in the named zone and converts to UTC. The date is strict; a time
// value that does not look like H:mm or HH:mm falls back to the default
// rather than failing the row.
func ComputeWindow(timezone, date, start, end string) (models.TimeWindow, error) {
	if !dateRe.MatchString(date) {
		return models.TimeWindow{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", date, loc)
	if err != nil {
		return models.TimeWindow{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	startHour, startMin := clockOrDefault(start, DefaultStartTime)
	endHour, endMin := clockOrDefault(end, DefaultEndTime)

	startLocal := time.Date(day.Year(), day.Month(), day.Day(), startHour, startMin, 0, 0, loc)
	endLocal := time.Date(day.Year(), day.Month(), day.Day(), endHour, endMin, 0, 0, loc)

	return models.TimeWindow{
		StartUTC:      startLocal.UTC(),
		EndUTC:        endLocal.UTC(),
		EffectiveDate: date,
	}, nil
}

// EffectiveTime normalizes a raw time cell the way the window computation
// does, for display and logging.
func EffectiveTime(value, fallback string) string {
	if timeRe.MatchString(strings.TrimSpace(value)) {
		return strings.TrimSpace(value)
	}
	return fallback
}

func clockOrDefault(value, fallback string) (hour, minute int) {
	value = EffectiveTime(value, fallback)
	parts := strings.SplitN(value, ":", 2)
	hour, _ = strconv.Atoi(parts[0])
	minute, _ = strconv.Atoi(parts[1])
	return hour, minute
}

// FormatInstant renders a UTC instant in the wire format the remote service
// expects for booking times.
func FormatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
