package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/conversation"
	"github.com/edgard/cityguide/internal/database"
	"github.com/edgard/cityguide/internal/dataset"
	"github.com/edgard/cityguide/internal/gemini"
	"github.com/edgard/cityguide/internal/query"
)

type fakeValidator struct {
	vq query.ValidatedQuery
	// onValidate runs before returning, to mimic store side effects.
	onValidate func(userID string)
}

func (f *fakeValidator) Validate(_ context.Context, input, userID string) query.ValidatedQuery {
	if f.onValidate != nil {
		f.onValidate(userID)
	}
	vq := f.vq
	if vq.OriginalQuery == "" {
		vq.OriginalQuery = input
	}
	return vq
}

type fakeDataset struct {
	places []dataset.Place
	events []dataset.Event
	err    error
}

func (f *fakeDataset) Places(context.Context) ([]dataset.Place, error) { return f.places, f.err }
func (f *fakeDataset) Events(context.Context) ([]dataset.Event, error) { return f.events, f.err }

type fakeResponder struct {
	question     string
	clarifyErr   error
	formatted    string
	gotResults   gemini.Results
	gotQuery     string
	clarifyCalls int
}

func (f *fakeResponder) GenerateClarification(context.Context, string, []string) (string, error) {
	f.clarifyCalls++
	return f.question, f.clarifyErr
}

func (f *fakeResponder) FormatResponse(_ context.Context, q string, results gemini.Results) string {
	f.gotQuery = q
	f.gotResults = results
	if f.formatted != "" {
		return f.formatted
	}
	return gemini.FallbackFormat(results)
}

type fakeJournal struct {
	mu      sync.Mutex
	entries []database.JournalEntry
	err     error
}

func (f *fakeJournal) SaveQuery(_ context.Context, e *database.JournalEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, *e)
	return f.err
}

func rating(r float64) *float64 { return &r }

var testPlaces = []dataset.Place{
	{Name: "Cafe Xoho", Address: "Gordon St 17", Category: "cafe", Rating: rating(4.6), TimesOfDay: []string{"morning", "afternoon"}},
	{Name: "Port Said", Address: "Har Sinai 5", Category: "restaurant", Rating: rating(4.4), TimesOfDay: []string{"evening"}},
	{Name: "Tel Aviv Museum of Art", Address: "Shaul Hamelech 27", Category: "museum", Rating: rating(4.7)},
}

var testEvents = []dataset.Event{
	{Name: "Old Jazz Night", Date: "2026-01-05", Time: "21:00", Category: "concert", Location: "Jaffa"},
	{Name: "Jazz Night", Date: "2026-01-10", Time: "21:00", Category: "concert", Location: "Jaffa"},
	{Name: "Morning Yoga", Date: "2026-01-11", Time: "07:30", Category: "sport", Location: "Gordon Beach"},
}

type fixture struct {
	assistant *Assistant
	validator *fakeValidator
	store     *conversation.Store
	data      *fakeDataset
	responder *fakeResponder
	journal   *fakeJournal
}

func newFixture(vq query.ValidatedQuery) *fixture {
	f := &fixture{
		validator: &fakeValidator{vq: vq},
		store:     conversation.NewStore(time.Hour, 50, nil),
		data:      &fakeDataset{places: testPlaces, events: testEvents},
		responder: &fakeResponder{},
		journal:   &fakeJournal{},
	}
	f.assistant = New(Deps{
		Config: config.AssistantConfig{
			City:            "Tel Aviv",
			MaxResults:      5,
			GreetingMsg:     config.DefaultGreetingMsg,
			IntroductionMsg: config.DefaultIntroductionMsg,
			SmalltalkMsg:    config.DefaultSmalltalkMsg,
			GratitudeMsg:    config.DefaultGratitudeMsg,
			UnknownMsg:      config.DefaultUnknownMsg,
			NoResultsMsg:    config.DefaultNoResultsMsg,
		},
		Validator:     f.validator,
		Conversations: f.store,
		Dataset:       f.data,
		Responder:     f.responder,
		Journal:       f.journal,
		Now:           func() time.Time { return time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC) },
	})
	return f
}

func complete(intent string, extracted gemini.ExtractedData) query.ValidatedQuery {
	return query.ValidatedQuery{Intent: intent, Confidence: 0.9, Extracted: extracted, IsComplete: true}
}

func TestExecuteBlankInput(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentGreeting, gemini.ExtractedData{}))

	res, err := f.assistant.Execute(context.Background(), "   ", "u1")

	require.NoError(t, err)
	assert.Equal(t, Result{Type: TypeNone}, res)
	assert.Empty(t, f.journal.entries)
	assert.Zero(t, f.store.Len())
}

func TestExecuteFindPlaces(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentFindPlaces, gemini.ExtractedData{Category: "cafe", TimeOfDay: "morning"}))

	res, err := f.assistant.Execute(context.Background(), "cafes in the morning", "u1")

	require.NoError(t, err)
	assert.Equal(t, TypeOutput, res.Type)
	assert.Equal(t, []string{"Places:", "- Cafe Xoho (Gordon St 17)"}, res.Lines)
	assert.Equal(t, "cafes in the morning", f.responder.gotQuery)
}

func TestExecuteFindPlacesOrdersByRating(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentFindPlaces, gemini.ExtractedData{}))

	_, err := f.assistant.Execute(context.Background(), "show me places", "u1")

	require.NoError(t, err)
	require.Len(t, f.responder.gotResults.Places, 3)
	assert.Equal(t, "Tel Aviv Museum of Art", f.responder.gotResults.Places[0].Name)
}

func TestExecuteFindEvents(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		extracted gemini.ExtractedData
		want      []string
	}{
		{name: "upcoming without date", extracted: gemini.ExtractedData{}, want: []string{"Jazz Night", "Morning Yoga"}},
		{name: "by date", extracted: gemini.ExtractedData{Date: "2026-01-05"}, want: []string{"Old Jazz Night"}},
		{name: "by time of day", extracted: gemini.ExtractedData{TimeOfDay: "morning"}, want: []string{"Morning Yoga"}},
		{name: "by category", extracted: gemini.ExtractedData{Category: "concerts"}, want: []string{"Jazz Night"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(complete(gemini.IntentFindEvents, tt.extracted))

			res, err := f.assistant.Execute(context.Background(), "events", "u1")
			require.NoError(t, err)
			assert.Equal(t, TypeOutput, res.Type)

			var got []string
			for _, e := range f.responder.gotResults.Events {
				got = append(got, e.Name)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExecuteRecommend(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentRecommend, gemini.ExtractedData{}))
	f.responder.formatted = "You'll love the museum.\n\nAnd Jazz Night!"

	res, err := f.assistant.Execute(context.Background(), "what do you recommend?", "u1")

	require.NoError(t, err)
	assert.Equal(t, []string{"You'll love the museum.", "And Jazz Night!"}, res.Lines)
	assert.Len(t, f.responder.gotResults.Places, 3)
	assert.Len(t, f.responder.gotResults.Events, 2)
}

func TestExecuteNoResults(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentFindPlaces, gemini.ExtractedData{Category: "zoo"}))

	res, err := f.assistant.Execute(context.Background(), "find a zoo", "u1")

	require.NoError(t, err)
	assert.Equal(t, Result{Type: TypeOutput, Lines: []string{"I couldn't find anything matching your request in Tel Aviv."}}, res)
	assert.Empty(t, f.responder.gotQuery, "formatter is not called for empty results")
}

func TestExecuteDeterministicReplies(t *testing.T) {
	t.Parallel()

	tests := []struct {
		intent   string
		userName string
		want     string
	}{
		{intent: gemini.IntentGreeting, want: "Hello! I can help you find places and events in Tel Aviv. What are you looking for?"},
		{intent: gemini.IntentGreeting, userName: "Dana", want: "Hello, Dana! I can help you find places and events in Tel Aviv. What are you looking for?"},
		{intent: gemini.IntentUserIdentification, userName: "John", want: "Hello, John! I can help you find places and events in Tel Aviv. What are you looking for?"},
		{intent: gemini.IntentGratitude, userName: "Dana", want: "You're welcome, Dana! Let me know if you need anything else."},
		{intent: gemini.IntentSmalltalk, want: "I'm doing great, thanks for asking! Ask me about places to visit or events in Tel Aviv."},
		{intent: gemini.IntentIntroduction, want: "I'm a city guide for Tel Aviv. Ask me for places to eat, drink or visit, or for events on a given day."},
		{intent: gemini.IntentUnknown, want: "I'm not sure I understood. Try asking about restaurants, cafes, museums or events in Tel Aviv."},
		{intent: "book_hotel", want: "I'm not sure I understood. Try asking about restaurants, cafes, museums or events in Tel Aviv."},
	}

	for _, tt := range tests {
		t.Run(tt.intent+"/"+tt.userName, func(t *testing.T) {
			t.Parallel()
			f := newFixture(complete(tt.intent, gemini.ExtractedData{}))
			if tt.userName != "" {
				f.store.SetUserName("u1", tt.userName)
			}

			res, err := f.assistant.Execute(context.Background(), "some input", "u1")
			require.NoError(t, err)
			assert.Equal(t, Result{Type: TypeOutput, Lines: []string{tt.want}}, res)
		})
	}
}

func TestExecuteIncompleteAsksClarification(t *testing.T) {
	t.Parallel()
	vq := query.ValidatedQuery{
		OriginalQuery: "find restaurants",
		Intent:        gemini.IntentFindPlaces,
		MissingFields: []string{"timeOfDay"},
		Extracted:     gemini.ExtractedData{Category: "restaurant"},
	}
	f := newFixture(vq)
	f.responder.question = "Would that be morning, afternoon or evening?"

	res, err := f.assistant.Execute(context.Background(), "find restaurants", "u1")

	require.NoError(t, err)
	assert.Equal(t, Result{Type: TypeSystem, Lines: []string{"Would that be morning, afternoon or evening?"}}, res)

	pending := f.store.Get("u1").Pending
	require.NotNil(t, pending)
	assert.Equal(t, []string{"timeOfDay"}, pending.MissingFields)
	assert.Equal(t, "find restaurants", pending.OriginalQuery)
	assert.Equal(t, gemini.IntentFindPlaces, pending.Intent)
	assert.Equal(t, map[string]string{"category": "restaurant"}, pending.Extracted)
}

func TestExecuteClarificationFallbackQuestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		missing []string
		want    string
	}{
		{missing: []string{"category"}, want: "What kind of place or event are you looking for?"},
		{missing: []string{"timeOfDay"}, want: "Which time of day suits you: morning, afternoon or evening?"},
		{missing: []string{"category", "timeOfDay"}, want: "What kind of place or event are you looking for, and for which time of day (morning, afternoon or evening)?"},
	}

	for _, tt := range tests {
		f := newFixture(query.ValidatedQuery{Intent: gemini.IntentFindPlaces, MissingFields: tt.missing})
		f.responder.clarifyErr = gemini.ErrNotConfigured

		res, err := f.assistant.Execute(context.Background(), "find something", "u1")
		require.NoError(t, err)
		assert.Equal(t, Result{Type: TypeSystem, Lines: []string{tt.want}}, res)
	}
}

func TestExecuteRecordsHistoryAndJournal(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentSmalltalk, gemini.ExtractedData{}))
	f.validator.vq.Clarified = true

	_, err := f.assistant.Execute(context.Background(), " how are you ", "u1")
	require.NoError(t, err)

	history := f.store.Get("u1").PreviousQueries
	require.Len(t, history, 1)
	assert.Equal(t, "how are you", history[0].Text)
	assert.Equal(t, gemini.IntentSmalltalk, history[0].Intent)

	require.Len(t, f.journal.entries, 1)
	e := f.journal.entries[0]
	assert.Equal(t, "u1", e.UserID)
	assert.Equal(t, "how are you", e.Input)
	assert.Equal(t, gemini.IntentSmalltalk, e.Intent)
	assert.Equal(t, "output", e.ResultType)
	assert.True(t, e.Clarified)
	assert.Equal(t, time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC), e.CreatedAt)
}

func TestExecuteJournalFailureIsIgnored(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentGreeting, gemini.ExtractedData{}))
	f.journal.err = errors.New("disk full")

	res, err := f.assistant.Execute(context.Background(), "hi", "u1")
	require.NoError(t, err)
	assert.Equal(t, TypeOutput, res.Type)
}

func TestExecuteDatasetError(t *testing.T) {
	t.Parallel()
	f := newFixture(complete(gemini.IntentFindPlaces, gemini.ExtractedData{Category: "cafe"}))
	f.data.err = errors.New("malformed places.json")

	_, err := f.assistant.Execute(context.Background(), "cafes", "u1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "malformed places.json")
	require.Len(t, f.journal.entries, 1)
	assert.Equal(t, "error", f.journal.entries[0].ResultType)
}

func TestExecuteWithoutJournal(t *testing.T) {
	t.Parallel()
	a := New(Deps{
		Config:        config.AssistantConfig{City: "Tel Aviv", UnknownMsg: "?? %s"},
		Validator:     &fakeValidator{vq: complete(gemini.IntentUnknown, gemini.ExtractedData{})},
		Conversations: conversation.NewStore(time.Hour, 50, nil),
		Dataset:       &fakeDataset{},
		Responder:     &fakeResponder{},
	})

	res, err := a.Execute(context.Background(), "blah", "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"?? Tel Aviv"}, res.Lines)
}
