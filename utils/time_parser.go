package utils

import (
	"dm-scheduler/model"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// LocalTimeLayout is how schedule times are shown back to users.
const LocalTimeLayout = "2006-01-02 03:04 PM"

var clock12h = regexp.MustCompile(`^(0?[1-9]|1[0-2]):([0-5][0-9])\s+([AaPp][Mm])$`)

// ParseTime12h converts a wall-clock time such as "02:30 PM" into the UTC instant of its
// next occurrence in loc: today if it is still ahead of now, otherwise tomorrow.
func ParseTime12h(input string, now time.Time, loc *time.Location) (time.Time, error) {
	m := clock12h.FindStringSubmatch(strings.TrimSpace(input))
	if m == nil {
		return time.Time{}, model.ErrInvalidTimeFormat
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])

	hour %= 12
	if strings.EqualFold(m[3], "PM") {
		hour += 12
	}

	local := now.In(loc)
	run := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !run.After(local) {
		run = time.Date(local.Year(), local.Month(), local.Day()+1, hour, minute, 0, 0, loc)
	}
	return run.UTC(), nil
}

// FormatLocal renders t in loc using LocalTimeLayout.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(LocalTimeLayout)
}
