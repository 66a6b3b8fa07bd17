package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// ErrTimezoneUnavailable reports an identifier the host cannot describe.
var ErrTimezoneUnavailable = errors.New("timezone unavailable")

// Description is the human view of a timezone at one instant.
type Description struct {
	DisplayName      string `json:"display_name"`
	UTCOffsetMinutes int    `json:"utc_offset_minutes"`
}

// Option is one entry of the timezone selector.
type Option struct {
	ID            string `json:"id"`
	DisplayName   string `json:"display_name"`
	OffsetDisplay string `json:"offset_display"`
	OffsetMinutes int    `json:"offset_minutes"`
	Unavailable   bool   `json:"unavailable,omitempty"`
}

// DisplayName turns "America/Argentina/Buenos_Aires" into "Buenos Aires".
// Identifiers without a region, such as "UTC" or "EST5EDT", are kept verbatim.
func DisplayName(id string) string {
	i := strings.LastIndex(id, "/")
	if i < 0 {
		return id
	}
	name := strings.ReplaceAll(id[i+1:], "_", " ")
	if name == "" {
		return id
	}
	return name
}

// DescribeTimezone reports the display name and UTC offset of id at the
// given instant. It never panics; unknown identifiers yield
// ErrTimezoneUnavailable.
func DescribeTimezone(id string, at time.Time) (Description, error) {
	loc, err := loadZone(id)
	if err != nil {
		return Description{}, err
	}
	_, offset := at.In(loc).Zone()
	return Description{DisplayName: DisplayName(id), UTCOffsetMinutes: offset / 60}, nil
}

// DescribeOrDefault is DescribeTimezone with the documented substitution:
// offset 0 and the raw identifier as display name.
func DescribeOrDefault(id string, at time.Time) (Description, bool) {
	d, err := DescribeTimezone(id, at)
	if err != nil {
		return Description{DisplayName: id}, false
	}
	return d, true
}

// FormatOffset renders minutes east of UTC as "+05:30" or "-03:00".
func FormatOffset(minutes int) string {
	sign := '+'
	if minutes < 0 {
		sign = '-'
		minutes = -minutes
	}
	return fmt.Sprintf("%c%02d:%02d", sign, minutes/60, minutes%60)
}

// Options describes ids at the given instant, ordered by offset and then by
// display name under Unicode collation.
func Options(ids []string, at time.Time) []Option {
	opts := make([]Option, 0, len(ids))
	for _, id := range ids {
		d, ok := DescribeOrDefault(id, at)
		opts = append(opts, Option{
			ID:            id,
			DisplayName:   d.DisplayName,
			OffsetMinutes: d.UTCOffsetMinutes,
			OffsetDisplay: FormatOffset(d.UTCOffsetMinutes),
			Unavailable:   !ok,
		})
	}

	col := collate.New(language.Und)
	slices.SortStableFunc(opts, func(a, b Option) int {
		if a.OffsetMinutes != b.OffsetMinutes {
			return a.OffsetMinutes - b.OffsetMinutes
		}
		if c := col.CompareString(a.DisplayName, b.DisplayName); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return opts
}

// FilterOptions keeps the options whose identifier or display name contains
// query ignoring case, or whose offset display contains it verbatim.
func FilterOptions(opts []Option, query string) []Option {
	query = strings.TrimSpace(query)
	if query == "" {
		return slices.Clone(opts)
	}
	fold := cases.Fold()
	q := fold.String(query)

	var out []Option
	for _, o := range opts {
		if strings.Contains(fold.String(o.ID), q) ||
			strings.Contains(fold.String(o.DisplayName), q) ||
			strings.Contains(o.OffsetDisplay, query) {
			out = append(out, o)
		}
	}
	return out
}
