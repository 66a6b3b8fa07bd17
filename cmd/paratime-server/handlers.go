package main

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/paratime/pkg/board"
	"github.com/codeGROOVE-dev/paratime/pkg/catalog"
	"github.com/codeGROOVE-dev/paratime/pkg/constants"
	"github.com/codeGROOVE-dev/paratime/pkg/geometry"
	"github.com/codeGROOVE-dev/paratime/pkg/tzconvert"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Encoding failed", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(data)
	return err
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	_ = writeJSON(w, status, errorResponse{Error: msg, Code: code}) //nolint:errcheck // client went away
}

type convertRequest struct {
	Date     string `json:"date" validate:"required,max=10"`
	Time     string `json:"time" validate:"required,max=8"`
	Timezone string `json:"timezone" validate:"required,max=64"`
}

type sourceView struct {
	Timezone string `json:"timezone"`
	City     string `json:"city,omitempty"`
	Offset   string `json:"offset"`
	Date     string `json:"date"`
	Time     string `json:"time"`
}

type rowView struct {
	City         string `json:"city"`
	Timezone     string `json:"timezone"`
	CountryCode  string `json:"country_code,omitempty"`
	Time         string `json:"time,omitempty"`
	DateLabel    string `json:"date_label,omitempty"`
	Label        string `json:"label"`
	Error        string `json:"error,omitempty"`
	DifferentDay bool   `json:"different_day"`
}

type convertResponse struct {
	Instant time.Time  `json:"instant"`
	Source  sourceView `json:"source"`
	Rows    []rowView  `json:"rows"`
}

func rowViews(rows []board.Row) []rowView {
	out := make([]rowView, 0, len(rows))
	for _, r := range rows {
		v := rowView{
			City:        r.Record.City,
			Timezone:    r.Record.TimezoneID,
			CountryCode: r.Record.CountryCode,
			Label:       r.Label(),
		}
		if r.Err != nil {
			v.Error = r.Err.Error()
		} else {
			v.Time = r.Display.FormattedTime
			v.DateLabel = r.Display.DateLabel
			v.DifferentDay = r.Display.IsDifferentDay
		}
		out = append(out, v)
	}
	return out
}

func (s *server) source(snap board.Snapshot) sourceView {
	d, _ := catalog.DescribeOrDefault(snap.Input.TimezoneID, snap.Instant)
	v := sourceView{
		Timezone: snap.Input.TimezoneID,
		Offset:   catalog.FormatOffset(d.UTCOffsetMinutes),
		Date:     snap.Input.Date,
		Time:     snap.Input.Time,
	}
	if r, ok := s.catalog.Lookup(snap.Input.TimezoneID); ok {
		v.City = r.City
	}
	return v
}

// inputErrorCode maps a conversion input error to its API code.
func inputErrorCode(err error) string {
	if errors.Is(err, tzconvert.ErrInvalidTimezoneID) {
		return "INVALID_TIMEZONE"
	}
	return "INVALID_WALL_CLOCK"
}

func (s *server) handleConvert(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := w.Header().Get(requestIDHeader)

	var req convertRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		s.logger.Info("invalid convert request", "request_id", requestID, "error", err)
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}

	snap := board.Compute(s.catalog, s.engine, board.Input{Date: req.Date, Time: req.Time, TimezoneID: req.Timezone})
	if snap.Err != nil {
		s.logger.Info("conversion withheld", "request_id", requestID,
			"date", req.Date, "time", req.Time, "timezone", req.Timezone, "error", snap.Err)
		writeError(w, http.StatusUnprocessableEntity, inputErrorCode(snap.Err), snap.Err.Error())
		return
	}

	cacheKey := "convert:" + snap.Instant.Format(time.RFC3339) + ":" + snap.Input.TimezoneID + ":" + snap.Input.Date + "T" + snap.Input.Time
	if data, ok := s.cache.GetIfPresent(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "memory-hit")
		if _, err := w.Write(data); err != nil {
			s.logger.Error("failed to write cached response", "request_id", requestID, "error", err)
		}
		return
	}

	data, err := json.Marshal(convertResponse{
		Instant: snap.Instant,
		Source:  s.source(snap),
		Rows:    rowViews(snap.Rows),
	})
	if err != nil {
		s.logger.Error("JSON encoding failed", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Encoding failed")
		return
	}
	s.cache.Set(cacheKey, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	if _, err := w.Write(data); err != nil {
		s.logger.Error("failed to write response", "request_id", requestID, "error", err)
		return
	}
	s.logger.Info("conversion completed", "request_id", requestID,
		"timezone", req.Timezone, "rows", len(snap.Rows), "failed", snap.Failed(),
		"duration_ms", time.Since(start).Milliseconds())
}

type catalogResponse struct {
	Cities  []catalog.Record  `json:"cities"`
	Markers []geometry.Marker `json:"markers"`
}

func (s *server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	selected := strings.TrimSpace(r.URL.Query().Get("selected"))
	if err := writeJSON(w, http.StatusOK, catalogResponse{
		Cities:  s.catalog.Records(),
		Markers: geometry.Markers(s.catalog, selected),
	}); err != nil {
		s.logger.Error("failed to write catalog", "request_id", w.Header().Get(requestIDHeader), "error", err)
	}
}

// options describes every host zone as of the start of the current hour,
// the same bucket the timezones cache key uses.
func (s *server) options(now time.Time) []catalog.Option {
	return catalog.Options(s.zoneIDs, now.UTC().Truncate(time.Hour))
}

func (s *server) handleTimezones(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	now := time.Now().UTC().Truncate(time.Hour)
	cacheKey := "timezones:" + now.Format(time.RFC3339) + ":" + query

	if data, ok := s.cache.GetIfPresent(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Cache", "memory-hit")
		_, _ = w.Write(data) //nolint:errcheck // client went away
		return
	}

	opts := catalog.FilterOptions(s.options(now), query)
	if opts == nil {
		opts = []catalog.Option{}
	}
	data, err := json.Marshal(opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Encoding failed")
		return
	}
	s.cache.Set(cacheKey, data)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Cache", "miss")
	_, _ = w.Write(data) //nolint:errcheck // client went away
}

func (s *server) handleGeometry(w http.ResponseWriter, r *http.Request) {
	g := s.geometry.Load(r.Context())
	w.Header().Set("X-Geometry-Source", g.Source.String())
	if err := writeJSON(w, http.StatusOK, g); err != nil {
		s.logger.Error("failed to write geometry", "request_id", w.Header().Get(requestIDHeader), "error", err)
	}
}

type locateQuery struct {
	Lat string `query:"lat" validate:"required,latitude"`
	Lon string `query:"lon" validate:"required,longitude"`
}

type locateResponse struct {
	Timezone   string  `json:"timezone"`
	Method     string  `json:"method"`
	City       string  `json:"city,omitempty"`
	DistanceKm float64 `json:"distance_km,omitempty"`
}

func (s *server) handleLocate(w http.ResponseWriter, r *http.Request) {
	q := locateQuery{
		Lat: strings.TrimSpace(r.URL.Query().Get("lat")),
		Lon: strings.TrimSpace(r.URL.Query().Get("lon")),
	}
	if err := validateStruct(&q); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error())
		return
	}
	lat, err := strconv.ParseFloat(q.Lat, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "lat is not a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Lon, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "lon is not a number")
		return
	}

	var resp locateResponse
	nearest, km, hasNearest := s.catalog.Nearest(lat, lon)
	if hasNearest {
		resp.City = nearest.City
		resp.DistanceKm = km
	}

	switch zone, ok := catalog.ZoneAt(lat, lon); {
	case ok:
		resp.Timezone, resp.Method = zone, "coordinates"
	case hasNearest:
		resp.Timezone, resp.Method = nearest.TimezoneID, "nearest_city"
	default:
		writeError(w, http.StatusNotFound, "NO_TIMEZONE", "No timezone found for these coordinates")
		return
	}
	if err := writeJSON(w, http.StatusOK, resp); err != nil {
		s.logger.Error("failed to write locate", "request_id", w.Header().Get(requestIDHeader), "error", err)
	}
}

func (s *server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := map[string]any{"status": "ok", "cities": s.catalog.Len()}
	if g, ok := s.geometry.Current(); ok {
		status["geometry"] = g.Source.String()
	} else {
		status["geometry"] = "pending"
	}
	_ = writeJSON(w, http.StatusOK, status) //nolint:errcheck // client went away
}

var templateFuncs = template.FuncMap{
	"json": func(v any) (template.JS, error) {
		b, err := json.Marshal(v)
		return template.JS(b), err //nolint:gosec // marshalled JSON
	},
}

// pageConfig is handed to the page script.
type pageConfig struct {
	Timezone      string `json:"timezone"`
	InvalidSource string `json:"invalidSource"`
	NoTargets     string `json:"noTargets"`
}

type homeView struct {
	Title            string
	SourceHeading    string
	ConvertedHeading string
	ZoneFieldLabel   string
	DateFieldLabel   string
	TimeFieldLabel   string
	MapHint          string
	Page             pageConfig
}

// handleHome serves the page shell. The browser fills the selector and the
// converted list from the JSON API.
func (s *server) handleHome(w http.ResponseWriter, r *http.Request) {
	tz := strings.TrimSpace(r.URL.Query().Get("tz"))
	if _, err := tzconvert.LoadZone(tz); err != nil {
		tz = s.defaultTZ
	}

	view := homeView{
		Title:            constants.Title,
		SourceHeading:    constants.SourceHeading,
		ConvertedHeading: constants.ConvertedHeading,
		ZoneFieldLabel:   constants.ZoneFieldLabel,
		DateFieldLabel:   constants.DateFieldLabel,
		TimeFieldLabel:   constants.TimeFieldLabel,
		MapHint:          constants.MapHint,
		Page: pageConfig{
			Timezone:      tz,
			InvalidSource: constants.InvalidSourceLabel,
			NoTargets:     constants.NoTargetsLabel,
		},
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.home.Execute(w, view); err != nil {
		s.logger.Error("template execution failed", "request_id", w.Header().Get(requestIDHeader), "error", err)
	}
}
