package assistant

import (
	"context"
	"fmt"

	"github.com/edgard/cityguide/internal/conversation"
	"github.com/edgard/cityguide/internal/dataset"
	"github.com/edgard/cityguide/internal/gemini"
	"github.com/edgard/cityguide/internal/query"
)

// Request is what an intent handler receives.
type Request struct {
	UserID       string
	Query        query.ValidatedQuery
	Conversation conversation.Context
}

// HandlerFunc handles one complete query.
type HandlerFunc func(ctx context.Context, req Request) (Result, error)

// RegisterAllHandlers returns the handler for every allowed intent.
func RegisterAllHandlers(deps Deps) map[string]HandlerFunc {
	h := handlers{deps}

	return map[string]HandlerFunc{
		gemini.IntentFindPlaces:         h.findPlaces,
		gemini.IntentFindEvents:         h.findEvents,
		gemini.IntentRecommend:          h.recommend,
		gemini.IntentGreeting:           h.greeting,
		gemini.IntentUserIdentification: h.greeting,
		gemini.IntentIntroduction:       h.introduction,
		gemini.IntentSmalltalk:          h.smalltalk,
		gemini.IntentGratitude:          h.gratitude,
		gemini.IntentUnknown:            h.unknown,
	}
}

type handlers struct {
	deps Deps
}

func (h handlers) findPlaces(ctx context.Context, req Request) (Result, error) {
	places, err := h.deps.Dataset.Places(ctx)
	if err != nil {
		return Result{}, err
	}

	matched := dataset.FilterPlaces(places, dataset.PlaceFilter{
		Category:  req.Query.Extracted.Category,
		TimeOfDay: req.Query.Extracted.TimeOfDay,
	})
	return h.respond(ctx, req, gemini.Results{Places: dataset.TopRated(matched, h.deps.Config.MaxResults)}), nil
}

func (h handlers) findEvents(ctx context.Context, req Request) (Result, error) {
	events, err := h.deps.Dataset.Events(ctx)
	if err != nil {
		return Result{}, err
	}

	ex := req.Query.Extracted
	matched := dataset.FilterEvents(events, dataset.EventFilter{
		Category:  ex.Category,
		TimeOfDay: ex.TimeOfDay,
		Date:      ex.Date,
	})
	if ex.Date == "" {
		matched = dataset.Upcoming(matched, h.deps.Now(), h.deps.Config.MaxResults)
	} else if h.deps.Config.MaxResults > 0 && len(matched) > h.deps.Config.MaxResults {
		matched = matched[:h.deps.Config.MaxResults]
	}
	return h.respond(ctx, req, gemini.Results{Events: matched}), nil
}

func (h handlers) recommend(ctx context.Context, req Request) (Result, error) {
	places, err := h.deps.Dataset.Places(ctx)
	if err != nil {
		return Result{}, err
	}
	events, err := h.deps.Dataset.Events(ctx)
	if err != nil {
		return Result{}, err
	}

	ex := req.Query.Extracted
	results := gemini.Results{
		Places: dataset.TopRated(dataset.FilterPlaces(places, dataset.PlaceFilter{
			Category:  ex.Category,
			TimeOfDay: ex.TimeOfDay,
		}), h.deps.Config.MaxResults),
		Events: dataset.Upcoming(dataset.FilterEvents(events, dataset.EventFilter{
			Category:  ex.Category,
			TimeOfDay: ex.TimeOfDay,
			Date:      ex.Date,
		}), h.deps.Now(), h.deps.Config.MaxResults),
	}
	return h.respond(ctx, req, results), nil
}

// respond formats non-empty results with the language model.
func (h handlers) respond(ctx context.Context, req Request, results gemini.Results) Result {
	if len(results.Places) == 0 && len(results.Events) == 0 {
		return output(fmt.Sprintf(h.deps.Config.NoResultsMsg, h.deps.Config.City))
	}
	return Result{Type: TypeOutput, Lines: splitLines(h.deps.Responder.FormatResponse(ctx, req.Query.OriginalQuery, results))}
}

func (h handlers) greeting(_ context.Context, req Request) (Result, error) {
	return output(fmt.Sprintf(h.deps.Config.GreetingMsg, nameSuffix(req.Conversation.UserName), h.deps.Config.City)), nil
}

func (h handlers) introduction(_ context.Context, _ Request) (Result, error) {
	return output(fmt.Sprintf(h.deps.Config.IntroductionMsg, h.deps.Config.City)), nil
}

func (h handlers) smalltalk(_ context.Context, _ Request) (Result, error) {
	return output(fmt.Sprintf(h.deps.Config.SmalltalkMsg, h.deps.Config.City)), nil
}

func (h handlers) gratitude(_ context.Context, req Request) (Result, error) {
	return output(fmt.Sprintf(h.deps.Config.GratitudeMsg, nameSuffix(req.Conversation.UserName))), nil
}

func (h handlers) unknown(_ context.Context, _ Request) (Result, error) {
	return output(fmt.Sprintf(h.deps.Config.UnknownMsg, h.deps.Config.City)), nil
}

func output(text string) Result {
	return Result{Type: TypeOutput, Lines: splitLines(text)}
}

func nameSuffix(name string) string {
	if name == "" {
		return ""
	}
	return ", " + name
}
