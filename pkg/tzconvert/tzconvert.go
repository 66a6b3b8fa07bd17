// Package tzconvert provides foolproof wall-clock to instant conversion.
// ALL instants in the codebase are UTC time.Time values.
// Local renderings produced here are for display only.
package tzconvert

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Failure conditions. Callers match them with errors.Is.
var (
	// ErrInvalidWallClock reports a date or time component out of range.
	ErrInvalidWallClock = errors.New("invalid wall clock")
	// ErrInvalidTimezoneID reports an identifier the host database does not know.
	ErrInvalidTimezoneID = errors.New("invalid timezone identifier")
	// ErrTimezoneUnavailable reports that a projection could not load a zone.
	ErrTimezoneUnavailable = errors.New("timezone unavailable")
)

const (
	// DateLayout is the ISO calendar date accepted by ParseDate.
	DateLayout = "2006-01-02"
	// ClockLayout is the "HH:mm" wall-clock layout, also used for FormattedTime.
	ClockLayout = "15:04"
	// DateLabelLayout renders "15 Jan" style labels.
	DateLabelLayout = "2 Jan"

	// probeWindow is how far around a wall-clock reading offsets are sampled.
	// UTC offsets stay within [-12h, +14h], so a day on each side always lands
	// outside any transition that can affect the reading.
	probeWindow = 24 * 60 * 60
)

// Date is a calendar date without a timezone.
type Date struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Day   int        `json:"day"`
}

// DateOf returns the calendar date t shows in its own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Valid reports whether d names a real Gregorian calendar day.
func (d Date) Valid() bool {
	if d.Month < time.January || d.Month > time.December || d.Day < 1 {
		return false
	}
	// Day 0 of the following month is the last day of this one.
	last := time.Date(d.Year, d.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	return d.Day <= last
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Clock is a wall-clock reading with minute precision.
type Clock struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether c is within 00:00 and 23:59.
func (c Clock) Valid() bool {
	return c.Hour >= 0 && c.Hour <= 23 && c.Minute >= 0 && c.Minute <= 59
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

// LocalMoment is a wall-clock reading interpreted in TimezoneID.
type LocalMoment struct {
	TimezoneID string `json:"timezone"`
	Date       Date   `json:"date"`
	Clock      Clock  `json:"clock"`
}

// ConvertedDisplay is what one target city shows for an instant.
type ConvertedDisplay struct {
	FormattedTime  string `json:"time"`
	DateLabel      string `json:"date_label,omitempty"`
	IsDifferentDay bool   `json:"different_day"`
}

// ParseDate parses a "YYYY-MM-DD" calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("%w: date %q: %w", ErrInvalidWallClock, s, err)
	}
	return DateOf(t), nil
}

// ParseClock parses an "HH:mm" reading. A trailing ":ss" is accepted and
// dropped, since browsers and the original form both append seconds.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	layout := ClockLayout
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	t, err := time.Parse(layout, s)
	if err != nil {
		return Clock{}, fmt.Errorf("%w: time %q: %w", ErrInvalidWallClock, s, err)
	}
	return Clock{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// ParseLocalMoment validates the textual triple without loading the zone.
func ParseLocalMoment(isoDate, isoTime, timezoneID string) (LocalMoment, error) {
	d, err := ParseDate(isoDate)
	if err != nil {
		return LocalMoment{}, err
	}
	c, err := ParseClock(isoTime)
	if err != nil {
		return LocalMoment{}, err
	}
	return LocalMoment{Date: d, Clock: c, TimezoneID: strings.TrimSpace(timezoneID)}, nil
}

// Engine converts between wall clocks and instants using a zone Loader.
// It holds no state besides the loader and is safe for concurrent use
// whenever the loader is.
type Engine struct {
	zones Loader
}

// New returns an Engine backed by zones. A nil loader reads the host
// database on every call.
func New(zones Loader) *Engine {
	if zones == nil {
		zones = HostLoader{}
	}
	return &Engine{zones: zones}
}

var host = New(nil)

// ToInstant interprets isoDate and isoTime as a wall clock in timezoneID
// using the host timezone database.
func ToInstant(isoDate, isoTime, timezoneID string) (time.Time, error) {
	return host.ToInstant(isoDate, isoTime, timezoneID)
}

// Project renders instant in targetID and compares calendar days with sourceID
// using the host timezone database.
func Project(instant time.Time, targetID, sourceID string) (ConvertedDisplay, error) {
	return host.Project(instant, targetID, sourceID)
}

// ToInstant parses the textual triple and resolves it.
func (e *Engine) ToInstant(isoDate, isoTime, timezoneID string) (time.Time, error) {
	m, err := ParseLocalMoment(isoDate, isoTime, timezoneID)
	if err != nil {
		return time.Time{}, err
	}
	return e.Resolve(m)
}

// Resolve returns the absolute instant a clock in m.TimezoneID shows as m.
//
// Readings skipped by a forward transition use the offset in effect just
// before it, so 02:30 in a 02:00→03:00 gap lands on 03:30 of the new offset.
// Readings repeated by a backward transition resolve to the first occurrence.
func (e *Engine) Resolve(m LocalMoment) (time.Time, error) {
	if !m.Date.Valid() {
		return time.Time{}, fmt.Errorf("%w: date %s", ErrInvalidWallClock, m.Date)
	}
	if !m.Clock.Valid() {
		return time.Time{}, fmt.Errorf("%w: time %s", ErrInvalidWallClock, m.Clock)
	}
	loc, err := e.zones.Load(m.TimezoneID)
	if err != nil {
		return time.Time{}, err
	}
	return resolveWallClock(m.Date, m.Clock, loc), nil
}

func resolveWallClock(d Date, c Clock, loc *time.Location) time.Time {
	wall := time.Date(d.Year, d.Month, d.Day, c.Hour, c.Minute, 0, 0, time.UTC).Unix()

	before := offsetAt(loc, wall-probeWindow)
	candidates := [...]int{before, offsetAt(loc, wall), offsetAt(loc, wall+probeWindow)}

	var best int64
	found := false
	for _, off := range candidates {
		unix := wall - int64(off)
		if offsetAt(loc, unix) != off {
			continue // this offset is not in effect when the clock shows wall
		}
		if !found || unix < best {
			best, found = unix, true
		}
	}
	if !found {
		best = wall - int64(before)
	}
	return time.Unix(best, 0).UTC()
}

func offsetAt(loc *time.Location, unix int64) int {
	_, off := time.Unix(unix, 0).In(loc).Zone()
	return off
}

// Project renders instant as seen in targetID and flags whether that local
// calendar day differs from the one observed in sourceID. Days are compared as
// year/month/day triples, never through offsets.
func (e *Engine) Project(instant time.Time, targetID, sourceID string) (ConvertedDisplay, error) {
	target, err := e.zones.Load(targetID)
	if err != nil {
		return ConvertedDisplay{}, fmt.Errorf("%w: target: %w", ErrTimezoneUnavailable, err)
	}
	source, err := e.zones.Load(sourceID)
	if err != nil {
		return ConvertedDisplay{}, fmt.Errorf("%w: source: %w", ErrTimezoneUnavailable, err)
	}

	local := instant.In(target)
	display := ConvertedDisplay{FormattedTime: local.Format(ClockLayout)}
	if DateOf(local) != DateOf(instant.In(source)) {
		display.IsDifferentDay = true
		display.DateLabel = local.Format(DateLabelLayout)
	}
	return display, nil
}
