// Package board recomputes the converted-time list whenever the source
// date, time or timezone actually changes.
package board

import (
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/tzconvert"
)

// Input is the triple produced by a selection surface.
type Input struct {
	Date       string `json:"date"`
	Time       string `json:"time"`
	TimezoneID string `json:"timezone"`
}

// canonical trims the triple and, when it parses, rewrites it to
// "YYYY-MM-DD" / "HH:mm" so that "14:30" and "14:30:00" compare equal.
func (in Input) canonical() Input {
	out := Input{
		Date:       strings.TrimSpace(in.Date),
		Time:       strings.TrimSpace(in.Time),
		TimezoneID: strings.TrimSpace(in.TimezoneID),
	}
	m, err := tzconvert.ParseLocalMoment(out.Date, out.Time, out.TimezoneID)
	if err != nil {
		return out
	}
	return Input{Date: m.Date.String(), Time: m.Clock.String(), TimezoneID: m.TimezoneID}
}

// Row is one target city of a snapshot.
type Row struct {
	Err     error                      `json:"-"`
	Record  catalog.Record             `json:"record"`
	Display tzconvert.ConvertedDisplay `json:"display"`
}

// Label is the text shown in place of the time: the "HH:mm" rendering, or
// the error marker when the city could not be projected.
func (r Row) Label() string {
	if r.Err != nil {
		return constants.ErrorLabel
	}
	return r.Display.FormattedTime
}

// Snapshot is the full converted list for one input triple.
type Snapshot struct {
	Instant time.Time `json:"instant"`
	// Err is set when the input itself is unusable; Rows is then empty.
	Err   error `json:"-"`
	Input Input `json:"input"`
	Rows  []Row `json:"rows"`
}

// Ready reports whether the input converted to an instant.
func (s Snapshot) Ready() bool { return s.Err == nil }

// Failed counts rows that rendered the error marker.
func (s Snapshot) Failed() int {
	n := 0
	for _, r := range s.Rows {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Listener receives every snapshot produced by an actual input change.
type Listener func(Snapshot)

// Board owns the previous input triple and the snapshot computed from it.
type Board struct {
	catalog   *catalog.Catalog
	engine    *tzconvert.Engine
	logger    *slog.Logger
	listeners []Listener
	last      Snapshot
	mu        sync.Mutex
	hasLast   bool
}

// New creates a Board over an immutable catalog.
func New(cat *catalog.Catalog, opts ...Option) *Board {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.zones == nil {
		o.zones = tzconvert.NewZones(o.logger)
	}
	return &Board{
		catalog:   cat,
		engine:    tzconvert.New(o.zones),
		logger:    o.logger,
		listeners: o.listeners,
	}
}

// Update recomputes the list for in. When in equals the previous triple the
// previous snapshot is returned with changed=false and no listener fires.
func (b *Board) Update(in Input) (snap Snapshot, changed bool) {
	in = in.canonical()

	b.mu.Lock()
	if b.hasLast && b.last.Input == in {
		snap = b.last
		b.mu.Unlock()
		b.logger.Debug("input unchanged, skipping recompute",
			"date", in.Date, "time", in.Time, "timezone", in.TimezoneID)
		return snap, false
	}
	snap = Compute(b.catalog, b.engine, in)
	b.last, b.hasLast = snap, true
	listeners := slices.Clone(b.listeners)
	b.mu.Unlock()

	if snap.Err != nil {
		b.logger.Info("conversion withheld", "date", in.Date, "time", in.Time,
			"timezone", in.TimezoneID, "error", snap.Err)
	} else {
		b.logger.Debug("recomputed converted times", "instant", snap.Instant,
			"source", in.TimezoneID, "rows", len(snap.Rows), "failed", snap.Failed())
	}

	for _, l := range listeners {
		l(snap)
	}
	return snap, true
}

// Last returns the most recent snapshot, if any.
func (b *Board) Last() (Snapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.last, b.hasLast
}

// Compute converts in and projects it over every catalog city except the
// source zone. It never fails as a whole: input errors land in Snapshot.Err
// and per-city errors in Row.Err.
func Compute(cat *catalog.Catalog, engine *tzconvert.Engine, in Input) Snapshot {
	snap := Snapshot{Input: in}
	instant, err := engine.ToInstant(in.Date, in.Time, in.TimezoneID)
	if err != nil {
		snap.Err = err
		return snap
	}
	snap.Instant = instant
	snap.Rows = ProjectAll(engine, instant, in.TimezoneID, cat.Targets(in.TimezoneID))
	return snap
}

// ProjectAll projects instant into each record. A failing record yields a
// row carrying its error; the remaining records are still processed.
func ProjectAll(engine *tzconvert.Engine, instant time.Time, sourceID string, records []catalog.Record) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		d, err := engine.Project(instant, r.TimezoneID, sourceID)
		rows = append(rows, Row{Record: r, Display: d, Err: err})
	}
	return rows
}
