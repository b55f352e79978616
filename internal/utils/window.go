package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/amaumene/watchsync/internal/models"
)

// DefaultWindow is used when no range is given. It is wide enough to act as no filter.
const DefaultWindow = "999y"

// WindowUnit is the unit suffix of a relative range expression
type WindowUnit string

const (
	UnitMinute WindowUnit = "m"
	UnitHour   WindowUnit = "h"
	UnitDay    WindowUnit = "d"
	UnitWeek   WindowUnit = "w"
	UnitMonth  WindowUnit = "mon"
	UnitYear   WindowUnit = "y"
)

var windowPattern = regexp.MustCompile(`^([1-9][0-9]{0,2})(mon|m|h|d|w|y)$`)

// Window is a relative range such as "2w", bounding how far back watched
// Plex episodes are considered
type Window struct {
	Magnitude int
	Unit      WindowUnit
}

// ParseWindow validates a relative range expression (1-999 plus unit).
// An empty expression yields DefaultWindow.
func ParseWindow(expr string) (Window, error) {
	expr = strings.ToLower(strings.TrimSpace(expr))
	if expr == "" {
		expr = DefaultWindow
	}

	m := windowPattern.FindStringSubmatch(expr)
	if m == nil {
		return Window{}, &models.ConfigError{
			Field:  "range",
			Value:  expr,
			Reason: "expected 1-999 followed by one of m, h, d, w, mon, y",
		}
	}

	magnitude, err := strconv.Atoi(m[1])
	if err != nil {
		return Window{}, &models.ConfigError{Field: "range", Value: expr, Reason: err.Error()}
	}

	return Window{Magnitude: magnitude, Unit: WindowUnit(m[2])}, nil
}

// Cutoff returns the earliest last-viewed instant inside the window
func (w Window) Cutoff(now time.Time) time.Time {
	n := w.Magnitude
	switch w.Unit {
	case UnitMinute:
		return now.Add(-time.Duration(n) * time.Minute)
	case UnitHour:
		return now.Add(-time.Duration(n) * time.Hour)
	case UnitDay:
		return now.Add(-time.Duration(n) * 24 * time.Hour)
	case UnitWeek:
		return now.Add(-time.Duration(n) * 7 * 24 * time.Hour)
	case UnitMonth:
		return now.AddDate(0, -n, 0)
	case UnitYear:
		return now.AddDate(-n, 0, 0)
	}
	return now
}

// Includes reports whether viewedAt falls inside a window starting at cutoff.
// The lower bound is inclusive.
func Includes(cutoff, viewedAt time.Time) bool {
	return !viewedAt.Before(cutoff)
}

func (w Window) String() string {
	return fmt.Sprintf("%d%s", w.Magnitude, w.Unit)
}
