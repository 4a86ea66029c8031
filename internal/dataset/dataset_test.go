package dataset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rating(v float64) *float64 { return &v }

func names[T any](items []T, name func(T) string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, name(it))
	}
	return out
}

func placeName(p Place) string { return p.Name }
func eventName(e Event) string { return e.Name }

func TestReaderLoadsFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, PlacesFile), []byte(`[
		{"name": "Cafe Xoho", "address": "Gordon St 17", "category": "cafe", "rating": 4.6, "timesOfDay": ["morning", "afternoon"]}
	]`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, EventsFile), []byte(`[
		{"name": "Jazz Night", "date": "2026-01-10", "time": "21:00", "location": "Jaffa Port"}
	]`), 0o600))

	r := NewReader(dir, nil)

	places, err := r.Places(context.Background())
	require.NoError(t, err)
	require.Len(t, places, 1)
	assert.Equal(t, "Cafe Xoho", places[0].Name)
	require.NotNil(t, places[0].Rating)
	assert.InDelta(t, 4.6, *places[0].Rating, 0.001)

	events, err := r.Events(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Jaffa Port", events[0].Location)
}

func TestReaderMissingFileIsEmpty(t *testing.T) {
	r := NewReader(t.TempDir(), nil)

	places, err := r.Places(context.Background())
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestReaderMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, EventsFile), []byte(`{"not": "an array"`), 0o600))

	_, err := NewReader(dir, nil).Events(context.Background())
	require.Error(t, err)
}

func TestFilterPlaces(t *testing.T) {
	t.Parallel()

	places := []Place{
		{Name: "Cafe Xoho", Category: "cafe", TimesOfDay: []string{Morning, Afternoon}},
		{Name: "Port Said", Category: "restaurant", TimesOfDay: []string{Evening}},
		{Name: "Tel Aviv Museum of Art", Types: []string{"museum", "attraction"}},
		{Name: "Benedict", Types: []string{"restaurant", "breakfast"}},
	}

	tests := []struct {
		name   string
		filter PlaceFilter
		want   []string
	}{
		{name: "no filter", filter: PlaceFilter{}, want: []string{"Cafe Xoho", "Port Said", "Tel Aviv Museum of Art", "Benedict"}},
		{name: "category field", filter: PlaceFilter{Category: "Cafe"}, want: []string{"Cafe Xoho"}},
		{name: "category plural", filter: PlaceFilter{Category: "restaurants"}, want: []string{"Port Said", "Benedict"}},
		{name: "category from types", filter: PlaceFilter{Category: "museum"}, want: []string{"Tel Aviv Museum of Art"}},
		{name: "time of day keeps all-day places", filter: PlaceFilter{Category: "restaurant", TimeOfDay: Morning}, want: []string{"Benedict"}},
		{name: "evening", filter: PlaceFilter{TimeOfDay: Evening}, want: []string{"Port Said", "Tel Aviv Museum of Art", "Benedict"}},
		{name: "no match", filter: PlaceFilter{Category: "zoo"}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, names(FilterPlaces(places, tt.filter), placeName))
		})
	}
}

func TestFilterEvents(t *testing.T) {
	t.Parallel()

	events := []Event{
		{Name: "Yoga on the Beach", Date: "2026-01-10", Time: "07:30", Category: "sport"},
		{Name: "Flea Market", Date: "2026-01-10", Time: "13:00", Category: "market"},
		{Name: "Jazz Night", Date: "2026-01-10", Time: "21:00", Category: "concert"},
		{Name: "Opera", Date: "2026-01-11", Time: "19:30", Category: "concert"},
		{Name: "Open House", Date: "2026-01-12"},
	}

	tests := []struct {
		name   string
		filter EventFilter
		want   []string
	}{
		{name: "by date", filter: EventFilter{Date: "2026-01-10"}, want: []string{"Yoga on the Beach", "Flea Market", "Jazz Night"}},
		{name: "by category", filter: EventFilter{Category: "concerts"}, want: []string{"Jazz Night", "Opera"}},
		{name: "by time of day", filter: EventFilter{TimeOfDay: Afternoon}, want: []string{"Flea Market"}},
		{name: "evening on date", filter: EventFilter{Date: "2026-01-11", TimeOfDay: Evening}, want: []string{"Opera"}},
		{name: "no time excluded by time filter", filter: EventFilter{Date: "2026-01-12", TimeOfDay: Morning}, want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, names(FilterEvents(events, tt.filter), eventName))
		})
	}
}

func TestEventTimeOfDay(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Morning, EventTimeOfDay(Event{Time: "11:59"}))
	assert.Equal(t, Afternoon, EventTimeOfDay(Event{Time: "12:00"}))
	assert.Equal(t, Afternoon, EventTimeOfDay(Event{Time: "16:59"}))
	assert.Equal(t, Evening, EventTimeOfDay(Event{Time: "17:00"}))
	assert.Equal(t, "", EventTimeOfDay(Event{Time: "late"}))
	assert.Equal(t, "", EventTimeOfDay(Event{}))
}

func TestTopRated(t *testing.T) {
	t.Parallel()

	places := []Place{
		{Name: "unrated"},
		{Name: "good", Rating: rating(4.2)},
		{Name: "best", Rating: rating(4.9)},
		{Name: "ok", Rating: rating(3.5)},
	}

	assert.Equal(t, []string{"best", "good"}, names(TopRated(places, 2), placeName))
	assert.Equal(t, []string{"best", "good", "ok", "unrated"}, names(TopRated(places, 0), placeName))
	assert.Equal(t, "unrated", places[0].Name, "input must not be reordered")
}

func TestUpcoming(t *testing.T) {
	t.Parallel()

	events := []Event{
		{Name: "later", Date: "2026-02-01"},
		{Name: "past", Date: "2025-12-31"},
		{Name: "today evening", Date: "2026-01-10", Time: "20:00"},
		{Name: "today morning", Date: "2026-01-10", Time: "09:00"},
		{Name: "undated", Date: "soon"},
	}
	from := time.Date(2026, 1, 10, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{"today morning", "today evening", "later"}, names(Upcoming(events, from, 5), eventName))
	assert.Equal(t, []string{"today morning"}, names(Upcoming(events, from, 1), eventName))
}
