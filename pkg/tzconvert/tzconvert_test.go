package tzconvert

import (
	"errors"
	"testing"
	"time"
)

func TestToInstant(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		clock    string
		timezone string
		want     string // RFC 3339 UTC
	}{
		{"Paris summer afternoon", "2024-06-15", "14:30", "Europe/Paris", "2024-06-15T12:30:00Z"},
		{"Paris winter", "2024-01-15", "14:30", "Europe/Paris", "2024-01-15T13:30:00Z"},
		{"Tokyo no DST", "2024-06-15", "09:00", "Asia/Tokyo", "2024-06-15T00:00:00Z"},
		{"Kolkata half hour", "2024-06-15", "12:00", "Asia/Kolkata", "2024-06-15T06:30:00Z"},
		{"Kathmandu quarter hour", "2024-06-15", "12:00", "Asia/Kathmandu", "2024-06-15T06:15:00Z"},
		{"UTC identity", "2024-06-15", "23:59", "UTC", "2024-06-15T23:59:00Z"},
		{"seconds are dropped", "2024-06-15", "14:30:45", "Europe/Paris", "2024-06-15T12:30:00Z"},
		{"leap day", "2024-02-29", "00:00", "America/Los_Angeles", "2024-02-29T08:00:00Z"},

		// Spring forward: the skipped reading takes the pre-transition offset.
		{"New York gap", "2024-03-10", "02:30", "America/New_York", "2024-03-10T07:30:00Z"},
		{"New York gap start", "2024-03-10", "02:00", "America/New_York", "2024-03-10T07:00:00Z"},
		{"Paris gap", "2024-03-31", "02:30", "Europe/Paris", "2024-03-31T01:30:00Z"},
		{"Samoa skipped day", "2011-12-30", "12:00", "Pacific/Apia", "2011-12-30T22:00:00Z"},

		// Fall back: the repeated reading takes its first occurrence.
		{"New York overlap", "2024-11-03", "01:30", "America/New_York", "2024-11-03T05:30:00Z"},
		{"New York after overlap", "2024-11-03", "02:00", "America/New_York", "2024-11-03T07:00:00Z"},
		{"Paris overlap", "2024-10-27", "02:30", "Europe/Paris", "2024-10-27T00:30:00Z"},
		{"Sydney overlap", "2024-04-07", "02:30", "Australia/Sydney", "2024-04-06T15:30:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToInstant(tt.date, tt.clock, tt.timezone)
			if err != nil {
				t.Fatalf("ToInstant(%q, %q, %q) error: %v", tt.date, tt.clock, tt.timezone, err)
			}
			if got.Location() != time.UTC {
				t.Errorf("ToInstant returned location %v, want UTC", got.Location())
			}
			if s := got.Format(time.RFC3339); s != tt.want {
				t.Errorf("ToInstant(%q, %q, %q) = %s, want %s", tt.date, tt.clock, tt.timezone, s, tt.want)
			}
		})
	}
}

func TestToInstantGapMatchesShiftedReading(t *testing.T) {
	gap, err := ToInstant("2024-03-10", "02:30", "America/New_York")
	if err != nil {
		t.Fatalf("gap reading: %v", err)
	}
	edt, err := ToInstant("2024-03-10", "03:30", "America/New_York")
	if err != nil {
		t.Fatalf("shifted reading: %v", err)
	}
	if !gap.Equal(edt) {
		t.Errorf("02:30 in the gap = %v, want same instant as 03:30 EDT (%v)", gap, edt)
	}
}

func TestToInstantOverlapIsDeterministic(t *testing.T) {
	first, err := ToInstant("2024-11-03", "01:30", "America/New_York")
	if err != nil {
		t.Fatalf("ToInstant: %v", err)
	}
	for range 10 {
		again, err := ToInstant("2024-11-03", "01:30", "America/New_York")
		if err != nil {
			t.Fatalf("ToInstant: %v", err)
		}
		if !again.Equal(first) {
			t.Fatalf("overlap resolved to %v then %v", first, again)
		}
	}
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	if name, _ := first.In(loc).Zone(); name != "EDT" {
		t.Errorf("overlap resolved into %s, want EDT", name)
	}
}

func TestToInstantErrors(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		clock    string
		timezone string
		wantErr  error
	}{
		{"day out of range", "2024-02-30", "10:00", "Europe/Paris", ErrInvalidWallClock},
		{"not a leap year", "2023-02-29", "10:00", "Europe/Paris", ErrInvalidWallClock},
		{"month out of range", "2024-13-01", "10:00", "Europe/Paris", ErrInvalidWallClock},
		{"hour out of range", "2024-06-15", "24:00", "Europe/Paris", ErrInvalidWallClock},
		{"minute out of range", "2024-06-15", "12:60", "Europe/Paris", ErrInvalidWallClock},
		{"empty date", "", "12:00", "Europe/Paris", ErrInvalidWallClock},
		{"empty time", "2024-06-15", "", "Europe/Paris", ErrInvalidWallClock},
		{"garbage time", "2024-06-15", "noon", "Europe/Paris", ErrInvalidWallClock},
		{"unknown zone", "2024-06-15", "12:00", "Mars/Phobos", ErrInvalidTimezoneID},
		{"empty zone", "2024-06-15", "12:00", "", ErrInvalidTimezoneID},
		{"machine zone", "2024-06-15", "12:00", "Local", ErrInvalidTimezoneID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ToInstant(tt.date, tt.clock, tt.timezone)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ToInstant(%q, %q, %q) error = %v, want %v", tt.date, tt.clock, tt.timezone, err, tt.wantErr)
			}
		})
	}
}

func TestResolveRejectsInvalidStructuredInput(t *testing.T) {
	e := New(nil)
	tests := []LocalMoment{
		{TimezoneID: "UTC", Date: Date{2024, 2, 30}, Clock: Clock{10, 0}},
		{TimezoneID: "UTC", Date: Date{2024, 0, 1}, Clock: Clock{10, 0}},
		{TimezoneID: "UTC", Date: Date{2024, 6, 15}, Clock: Clock{-1, 0}},
		{TimezoneID: "UTC", Date: Date{2024, 6, 15}, Clock: Clock{10, 75}},
	}
	for _, m := range tests {
		if _, err := e.Resolve(m); !errors.Is(err, ErrInvalidWallClock) {
			t.Errorf("Resolve(%+v) error = %v, want ErrInvalidWallClock", m, err)
		}
	}
}

func TestProject(t *testing.T) {
	paris := func(date, clock string) time.Time {
		t.Helper()
		instant, err := ToInstant(date, clock, "Europe/Paris")
		if err != nil {
			t.Fatalf("ToInstant: %v", err)
		}
		return instant
	}

	tests := []struct {
		name    string
		instant time.Time
		target  string
		source  string
		want    ConvertedDisplay
	}{
		{"Tokyo same day", paris("2024-06-15", "14:30"), "Asia/Tokyo", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "21:30"}},
		{"Los Angeles same day", paris("2024-06-15", "14:30"), "America/Los_Angeles", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "05:30"}},
		{"Tokyo next day", paris("2024-06-15", "23:30"), "Asia/Tokyo", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "06:30", IsDifferentDay: true, DateLabel: "16 Jun"}},
		{"Dubai next day", paris("2024-06-15", "23:30"), "Asia/Dubai", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "01:30", IsDifferentDay: true, DateLabel: "16 Jun"}},
		{"New York previous day", paris("2024-06-15", "02:00"), "America/New_York", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "20:00", IsDifferentDay: true, DateLabel: "14 Jun"}},
		{"single digit day label", paris("2024-01-04", "23:30"), "Asia/Tokyo", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "07:30", IsDifferentDay: true, DateLabel: "5 Jan"}},
		{"year boundary", paris("2024-12-31", "20:00"), "Pacific/Auckland", "Europe/Paris",
			ConvertedDisplay{FormattedTime: "08:00", IsDifferentDay: true, DateLabel: "1 Jan"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Project(tt.instant, tt.target, tt.source)
			if err != nil {
				t.Fatalf("Project error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Project(%v, %q, %q) = %+v, want %+v", tt.instant, tt.target, tt.source, got, tt.want)
			}
		})
	}
}

// Kiritimati (UTC+14) and Los Angeles (UTC-7 in summer) are 21 hours apart,
// so the same instant can sit on the same or on different calendar days.
func TestProjectAcrossDateLine(t *testing.T) {
	tests := []struct {
		name     string
		clock    string
		wantLA   ConvertedDisplay
		wantKiri ConvertedDisplay
	}{
		{
			name:     "morning in Kiritimati is yesterday in Los Angeles",
			clock:    "10:00",
			wantLA:   ConvertedDisplay{FormattedTime: "13:00", IsDifferentDay: true, DateLabel: "14 Jun"},
			wantKiri: ConvertedDisplay{FormattedTime: "10:00", IsDifferentDay: true, DateLabel: "15 Jun"},
		},
		{
			name:     "late evening in Kiritimati is the same day in Los Angeles",
			clock:    "23:00",
			wantLA:   ConvertedDisplay{FormattedTime: "02:00"},
			wantKiri: ConvertedDisplay{FormattedTime: "23:00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			instant, err := ToInstant("2024-06-15", tt.clock, "Pacific/Kiritimati")
			if err != nil {
				t.Fatalf("ToInstant: %v", err)
			}
			la, err := Project(instant, "America/Los_Angeles", "Pacific/Kiritimati")
			if err != nil {
				t.Fatalf("Project LA: %v", err)
			}
			if la != tt.wantLA {
				t.Errorf("Los Angeles = %+v, want %+v", la, tt.wantLA)
			}
			kiri, err := Project(instant, "Pacific/Kiritimati", "America/Los_Angeles")
			if err != nil {
				t.Fatalf("Project Kiritimati: %v", err)
			}
			if kiri != tt.wantKiri {
				t.Errorf("Kiritimati = %+v, want %+v", kiri, tt.wantKiri)
			}
			if la.IsDifferentDay != kiri.IsDifferentDay {
				t.Errorf("day comparison differs by direction: %v vs %v", la.IsDifferentDay, kiri.IsDifferentDay)
			}
		})
	}
}

func TestProjectUnknownZone(t *testing.T) {
	instant := time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)
	for _, pair := range [][2]string{
		{"Mars/Phobos", "Europe/Paris"},
		{"Europe/Paris", "Mars/Phobos"},
		{"", "Europe/Paris"},
	} {
		_, err := Project(instant, pair[0], pair[1])
		if !errors.Is(err, ErrTimezoneUnavailable) {
			t.Errorf("Project(target=%q, source=%q) error = %v, want ErrTimezoneUnavailable", pair[0], pair[1], err)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	// Dates stay clear of DST transitions: gap readings do not round trip.
	zones := []string{
		"Europe/Paris", "America/New_York", "Asia/Tokyo", "Australia/Sydney",
		"Pacific/Kiritimati", "Pacific/Pago_Pago", "Asia/Kathmandu", "UTC",
	}
	dates := []string{"2024-01-15", "2024-06-15", "2024-12-31"}
	clocks := []string{"00:00", "06:45", "12:00", "23:59"}

	e := New(NewZones(nil))
	for _, tz := range zones {
		for _, d := range dates {
			for _, c := range clocks {
				instant, err := e.ToInstant(d, c, tz)
				if err != nil {
					t.Fatalf("ToInstant(%s %s %s): %v", d, c, tz, err)
				}
				got, err := e.Project(instant, tz, tz)
				if err != nil {
					t.Fatalf("Project(%s): %v", tz, err)
				}
				if got.FormattedTime != c || got.IsDifferentDay || got.DateLabel != "" {
					t.Errorf("%s %s %s round trip = %+v", d, c, tz, got)
				}
			}
		}
	}
}

func TestDateValid(t *testing.T) {
	tests := []struct {
		date Date
		want bool
	}{
		{Date{2024, time.February, 29}, true},
		{Date{2023, time.February, 29}, false},
		{Date{2000, time.February, 29}, true},
		{Date{1900, time.February, 29}, false},
		{Date{2024, time.April, 31}, false},
		{Date{2024, time.December, 31}, true},
		{Date{2024, time.January, 0}, false},
		{Date{2024, 13, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.date.Valid(); got != tt.want {
			t.Errorf("%s.Valid() = %v, want %v", tt.date, got, tt.want)
		}
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want Clock
	}{
		{"00:00", Clock{0, 0}},
		{"23:59", Clock{23, 59}},
		{" 07:05 ", Clock{7, 5}},
		{"14:30:00", Clock{14, 30}},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if err != nil {
			t.Errorf("ParseClock(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
