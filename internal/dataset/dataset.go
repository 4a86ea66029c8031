// Package dataset reads the static places and events JSON files and filters them.
// Files are read on every call; there is no index and no cache.
package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	PlacesFile = "places.json"
	EventsFile = "events.json"

	dateLayout = "2006-01-02"
)

// Reader loads dataset records from a directory.
type Reader struct {
	dir    string
	logger *slog.Logger
}

// NewReader creates a Reader for the dataset directory dir.
func NewReader(dir string, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Reader{
		dir:    dir,
		logger: logger.With("component", "dataset"),
	}
}

// Places reads all place records.
func (r *Reader) Places(ctx context.Context) ([]Place, error) {
	var places []Place
	if err := r.load(ctx, PlacesFile, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// Events reads all event records.
func (r *Reader) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := r.load(ctx, EventsFile, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// load decodes a JSON array file into out. A missing file yields an empty result.
func (r *Reader) load(ctx context.Context, name string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(r.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.logger.WarnContext(ctx, "Dataset file not found, treating as empty", "path", path)
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// PlaceFilter selects places. Empty fields match everything.
type PlaceFilter struct {
	Category  string
	TimeOfDay string
}

// EventFilter selects events. Empty fields match everything.
type EventFilter struct {
	Category  string
	TimeOfDay string
	Date      string
}

// FilterPlaces returns the places matching f, in dataset order.
func FilterPlaces(places []Place, f PlaceFilter) []Place {
	out := make([]Place, 0, len(places))
	for _, p := range places {
		if f.Category != "" && !placeHasCategory(p, f.Category) {
			continue
		}
		if f.TimeOfDay != "" && len(p.TimesOfDay) > 0 && !containsFold(p.TimesOfDay, f.TimeOfDay) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// FilterEvents returns the events matching f, in dataset order.
func FilterEvents(events []Event, f EventFilter) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if f.Date != "" && e.Date != f.Date {
			continue
		}
		if f.Category != "" && !categoryMatches(e.Category, f.Category) {
			continue
		}
		if f.TimeOfDay != "" && !strings.EqualFold(EventTimeOfDay(e), f.TimeOfDay) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// EventTimeOfDay buckets the event start time: before 12:00 is morning,
// before 17:00 afternoon, otherwise evening. Events without a parsable time
// return an empty string.
func EventTimeOfDay(e Event) string {
	hour, ok := parseHour(e.Time)
	if !ok {
		return ""
	}
	switch {
	case hour < 12:
		return Morning
	case hour < 17:
		return Afternoon
	default:
		return Evening
	}
}

// TopRated returns up to n places ordered by rating, unrated places last.
func TopRated(places []Place, n int) []Place {
	sorted := make([]Place, len(places))
	copy(sorted, places)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := sorted[i].Rating, sorted[j].Rating
		switch {
		case ri == nil:
			return false
		case rj == nil:
			return true
		default:
			return *ri > *rj
		}
	})
	return limit(sorted, n)
}

// Upcoming returns up to n events dated on or after from, chronologically.
func Upcoming(events []Event, from time.Time, n int) []Event {
	day := from.Format(dateLayout)
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, err := time.Parse(dateLayout, e.Date); err != nil {
			continue
		}
		if e.Date >= day {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].Time < out[j].Time
		}
		return out[i].Date < out[j].Date
	})
	return limit(out, n)
}

func limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func placeHasCategory(p Place, category string) bool {
	if categoryMatches(p.Category, category) {
		return true
	}
	for _, t := range p.Types {
		if categoryMatches(t, category) {
			return true
		}
	}
	return false
}

// categoryMatches compares case-insensitively and tolerates plurals ("cafes" vs "cafe").
func categoryMatches(value, want string) bool {
	if value == "" {
		return false
	}
	v := strings.ToLower(strings.TrimSpace(value))
	w := strings.ToLower(strings.TrimSpace(want))
	return v == w || strings.TrimSuffix(v, "s") == strings.TrimSuffix(w, "s")
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func parseHour(hhmm string) (int, bool) {
	h, _, found := strings.Cut(hhmm, ":")
	if !found {
		return 0, false
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return 0, false
	}
	return hour, true
}
