// Package render formats board snapshots and timezone options for a terminal.
package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/paratime/pkg/board"
	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
)

var (
	heading   = color.New(color.Bold)
	timeColor = color.New(color.FgGreen, color.Bold)
	dayColor  = color.New(color.FgYellow)
	errColor  = color.New(color.FgRed)
	dimColor  = color.New(color.FgHiBlack)
)

// pad right-pads s to width runes. Coloring happens after padding so escape
// codes never count toward the width.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// Snapshot renders the source moment followed by one line per target city.
func Snapshot(cat *catalog.Catalog, snap board.Snapshot) string {
	var out strings.Builder

	out.WriteString(heading.Sprint(constants.SourceHeading) + "\n")
	source := snap.Input.TimezoneID
	if r, ok := cat.Lookup(source); ok {
		source = r.City + " (" + r.TimezoneID + ")"
	}
	fmt.Fprintf(&out, "  %s  %s %s", source, snap.Input.Date, snap.Input.Time)
	if snap.Ready() {
		d, _ := catalog.DescribeOrDefault(snap.Input.TimezoneID, snap.Instant)
		out.WriteString("  " + dimColor.Sprint("UTC"+catalog.FormatOffset(d.UTCOffsetMinutes)))
	}
	out.WriteString("\n\n")

	out.WriteString(heading.Sprint(constants.ConvertedHeading) + "\n")
	if !snap.Ready() {
		fmt.Fprintf(&out, "  %s: %s\n", errColor.Sprint(constants.InvalidSourceLabel), snap.Err)
		return out.String()
	}
	if len(snap.Rows) == 0 {
		out.WriteString("  " + dimColor.Sprint(constants.NoTargetsLabel) + "\n")
		return out.String()
	}

	cityWidth, zoneWidth := 0, 0
	for _, r := range snap.Rows {
		cityWidth = max(cityWidth, utf8.RuneCountInString(r.Record.City))
		zoneWidth = max(zoneWidth, utf8.RuneCountInString(r.Record.TimezoneID))
	}

	for _, r := range snap.Rows {
		line := "  " + pad(r.Record.City, cityWidth) + "  " + dimColor.Sprint(pad(r.Record.TimezoneID, zoneWidth)) + "  "
		switch {
		case r.Err != nil:
			line += errColor.Sprint(r.Label())
		case r.Display.IsDifferentDay:
			line += timeColor.Sprint(r.Label()) + "  " + dayColor.Sprint(r.Display.DateLabel)
		default:
			line += timeColor.Sprint(r.Label())
		}
		out.WriteString(line + "\n")
	}
	return out.String()
}

// Options renders the timezone selector list, one option per line.
func Options(opts []catalog.Option) string {
	var out strings.Builder
	nameWidth := 0
	for _, o := range opts {
		nameWidth = max(nameWidth, utf8.RuneCountInString(o.DisplayName))
	}
	for _, o := range opts {
		offset := "UTC" + o.OffsetDisplay
		if o.Unavailable {
			offset = dimColor.Sprint(offset)
		}
		fmt.Fprintf(&out, "%s  %s  %s\n", offset, pad(o.DisplayName, nameWidth), dimColor.Sprint(o.ID))
	}
	return out.String()
}
