// Package assistant routes validated user queries to intent handlers and
// shapes their output into console-style results.
package assistant

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/conversation"
	"github.com/edgard/cityguide/internal/database"
	"github.com/edgard/cityguide/internal/dataset"
	"github.com/edgard/cityguide/internal/gemini"
	"github.com/edgard/cityguide/internal/metrics"
	"github.com/edgard/cityguide/internal/query"
)

// ResultType tells the client how to render result lines.
type ResultType string

const (
	TypeOutput ResultType = "output"
	TypeSystem ResultType = "system"
	TypeError  ResultType = "error"
	TypeNone   ResultType = "none"
)

// Result is the response to one user input.
type Result struct {
	Type  ResultType `json:"type"`
	Lines []string   `json:"lines,omitempty"`
}

// Validator validates raw input against conversation state.
type Validator interface {
	Validate(ctx context.Context, input, userID string) query.ValidatedQuery
}

// Conversations is the subset of the conversation store used by the assistant.
type Conversations interface {
	Get(userID string) conversation.Context
	AddQuery(userID, text, intent string)
	SetPending(userID string, p conversation.Pending)
}

// Dataset reads the static places and events.
type Dataset interface {
	Places(ctx context.Context) ([]dataset.Place, error)
	Events(ctx context.Context) ([]dataset.Event, error)
}

// Responder phrases answers with the language model.
type Responder interface {
	GenerateClarification(ctx context.Context, intent string, missingFields []string) (string, error)
	FormatResponse(ctx context.Context, query string, results gemini.Results) string
}

// Journal records executed queries.
type Journal interface {
	SaveQuery(ctx context.Context, entry *database.JournalEntry) error
}

// Deps provides the assistant's collaborators. Journal may be nil.
type Deps struct {
	Logger        *slog.Logger
	Config        config.AssistantConfig
	Validator     Validator
	Conversations Conversations
	Dataset       Dataset
	Responder     Responder
	Journal       Journal
	// Now defaults to time.Now.
	Now func() time.Time
}

// Assistant executes user input end to end.
type Assistant struct {
	deps     Deps
	log      *slog.Logger
	handlers map[string]HandlerFunc
}

// New creates an Assistant with every intent handler registered.
func New(deps Deps) *Assistant {
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Assistant{
		deps:     deps,
		log:      deps.Logger.With("component", "assistant"),
		handlers: RegisterAllHandlers(deps),
	}
}

// Execute runs input for userID. Blank input yields a TypeNone result. An
// error is returned only when the data source could not be read; language
// model failures are absorbed by fallbacks.
func (a *Assistant) Execute(ctx context.Context, input, userID string) (Result, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Result{Type: TypeNone}, nil
	}

	vq := a.deps.Validator.Validate(ctx, trimmed, userID)
	metrics.IntentsTotal.WithLabelValues(vq.Intent).Inc()
	a.deps.Conversations.AddQuery(userID, trimmed, vq.Intent)

	var (
		res Result
		err error
	)
	if !vq.IsComplete {
		res = a.askClarification(ctx, userID, vq)
	} else {
		handler, ok := a.handlers[vq.Intent]
		if !ok {
			a.log.WarnContext(ctx, "No handler for intent, using unknown", "intent", vq.Intent)
			handler = a.handlers[gemini.IntentUnknown]
		}
		res, err = handler(ctx, Request{
			UserID:       userID,
			Query:        vq,
			Conversation: a.deps.Conversations.Get(userID),
		})
	}

	resultType := res.Type
	if err != nil {
		resultType = TypeError
	}
	metrics.QueriesTotal.WithLabelValues(string(resultType)).Inc()
	a.record(ctx, userID, trimmed, vq, resultType)

	if err != nil {
		a.log.ErrorContext(ctx, "Intent handler failed", "intent", vq.Intent, "user_id", userID, "error", err)
		return Result{}, fmt.Errorf("failed to handle %s query: %w", vq.Intent, err)
	}
	return res, nil
}

func (a *Assistant) askClarification(ctx context.Context, userID string, vq query.ValidatedQuery) Result {
	a.deps.Conversations.SetPending(userID, conversation.Pending{
		MissingFields: vq.MissingFields,
		OriginalQuery: vq.OriginalQuery,
		Intent:        vq.Intent,
		Extracted:     vq.Extracted.Map(),
	})
	metrics.ClarificationsTotal.Inc()

	question, err := a.deps.Responder.GenerateClarification(ctx, vq.Intent, vq.MissingFields)
	if err != nil || strings.TrimSpace(question) == "" {
		a.log.WarnContext(ctx, "Clarification generation failed, using default question", "error", err)
		question = fallbackQuestion(vq.MissingFields)
	}

	a.log.InfoContext(ctx, "Asked for clarification", "user_id", userID, "intent", vq.Intent, "missing_fields", vq.MissingFields)
	return Result{Type: TypeSystem, Lines: splitLines(question)}
}

func (a *Assistant) record(ctx context.Context, userID, input string, vq query.ValidatedQuery, resultType ResultType) {
	if a.deps.Journal == nil {
		return
	}
	entry := &database.JournalEntry{
		UserID:     userID,
		Input:      input,
		Intent:     vq.Intent,
		Confidence: vq.Confidence,
		ResultType: string(resultType),
		Clarified:  vq.Clarified,
		CreatedAt:  a.deps.Now().UTC(),
	}
	if err := a.deps.Journal.SaveQuery(ctx, entry); err != nil {
		a.log.WarnContext(ctx, "Failed to journal query", "user_id", userID, "error", err)
	}
}

func fallbackQuestion(missing []string) string {
	var needCategory, needTime bool
	for _, f := range missing {
		switch f {
		case gemini.FieldCategory:
			needCategory = true
		case gemini.FieldTimeOfDay:
			needTime = true
		}
	}
	switch {
	case needCategory && needTime:
		return "What kind of place or event are you looking for, and for which time of day (morning, afternoon or evening)?"
	case needTime:
		return "Which time of day suits you: morning, afternoon or evening?"
	default:
		return "What kind of place or event are you looking for?"
	}
}

// splitLines breaks text into non-empty lines.
func splitLines(text string) []string {
	var lines []string
	for _, l := range strings.Split(text, "\n") {
		if l = strings.TrimRight(l, " \t\r"); strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
