package scheduling

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andrescamacho/upgrade-planner/internal/domain/shared"
)

// ActiveWindow is a daily wall-clock interval [start, end] in which new jobs may begin.
// When end is before start the window wraps past midnight.
type ActiveWindow struct {
	start    int // seconds of day
	end      int
	location *time.Location
}

// NewActiveWindow parses "HH:MM" bounds. A nil location means UTC.
func NewActiveWindow(start, end string, location *time.Location) (*ActiveWindow, error) {
	s, err := ParseClock(start)
	if err != nil {
		return nil, shared.NewConfigurationError("active window start", err.Error())
	}
	e, err := ParseClock(end)
	if err != nil {
		return nil, shared.NewConfigurationError("active window end", err.Error())
	}
	if s == e {
		return nil, shared.NewConfigurationError("active window", fmt.Sprintf("start and end are both %s", start))
	}
	if location == nil {
		location = time.UTC
	}
	return &ActiveWindow{start: s, end: e, location: location}, nil
}

// ParseClock converts "HH:MM" into seconds since midnight
func ParseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 {
		return 0, fmt.Errorf("%q is not HH:MM", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%q has an invalid hour", value)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("%q has an invalid minute", value)
	}
	return h*3600 + m*60, nil
}

func formatClock(seconds int) string {
	return fmt.Sprintf("%02d:%02d", seconds/3600, (seconds%3600)/60)
}

// Start returns the opening time as "HH:MM"
func (w *ActiveWindow) Start() string { return formatClock(w.start) }

// End returns the closing time as "HH:MM"
func (w *ActiveWindow) End() string { return formatClock(w.end) }

// Location returns the time zone the window is evaluated in
func (w *ActiveWindow) Location() *time.Location { return w.location }

// Wraps returns true for overnight windows
func (w *ActiveWindow) Wraps() bool { return w.end < w.start }

// Length returns how long the window is open each day
func (w *ActiveWindow) Length() time.Duration {
	span := w.end - w.start
	if span < 0 {
		span += 24 * 3600
	}
	return time.Duration(span) * time.Second
}

// Contains reports whether t falls inside the window on its calendar day
func (w *ActiveWindow) Contains(t time.Time) bool {
	local := t.In(w.location)
	sod := local.Hour()*3600 + local.Minute()*60 + local.Second()
	if w.Wraps() {
		return sod >= w.start || sod <= w.end
	}
	return sod >= w.start && sod <= w.end
}

// ContainsUnix is Contains for epoch seconds
func (w *ActiveWindow) ContainsUnix(sec int64) bool {
	return w.Contains(time.Unix(sec, 0))
}

// NextOpening returns sec itself when inside the window, otherwise the epoch second
// at which the window next opens
func (w *ActiveWindow) NextOpening(sec int64) int64 {
	t := time.Unix(sec, 0).In(w.location)
	if w.Contains(t) {
		return sec
	}
	y, m, d := t.Date()
	open := time.Date(y, m, d, w.start/3600, (w.start%3600)/60, 0, 0, w.location)
	if !open.After(t) {
		open = time.Date(y, m, d+1, w.start/3600, (w.start%3600)/60, 0, 0, w.location)
	}
	return open.Unix()
}

func (w *ActiveWindow) String() string {
	return fmt.Sprintf("%s-%s %s", w.Start(), w.End(), w.location)
}
