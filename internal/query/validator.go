// Package query turns raw user input into a validated query by combining the
// intent classifier output with the user's conversation state.
package query

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/edgard/cityguide/internal/conversation"
	"github.com/edgard/cityguide/internal/gemini"
)

// requiredFields are the only fields a query can be held back for.
var requiredFields = []string{gemini.FieldCategory, gemini.FieldTimeOfDay}

// ValidatedQuery is the per-request result of validation. It is never stored.
type ValidatedQuery struct {
	OriginalQuery string
	Intent        string
	Confidence    float64
	MissingFields []string
	Extracted     gemini.ExtractedData
	IsComplete    bool
	// Clarified is set when the input answered a pending clarification and
	// the query is the original one completed with the reply.
	Clarified bool
}

// Classifier is the subset of gemini.Client used for validation.
type Classifier interface {
	ExtractIntent(ctx context.Context, input string, ic gemini.IntentContext) gemini.IntentResult
	ExtractMissingData(ctx context.Context, input string, missingFields []string) map[string]string
}

// Conversations is the subset of the conversation store used for validation.
type Conversations interface {
	Get(userID string) conversation.Context
	SetUserName(userID, name string)
	SetLocation(userID string, loc conversation.Location)
	ClearPending(userID string)
}

// Validator validates queries against the classifier and conversation state.
type Validator struct {
	classifier    Classifier
	conversations Conversations
	city          string
	logger        *slog.Logger
}

// NewValidator creates a Validator. city is sent as context with every message.
func NewValidator(classifier Classifier, conversations Conversations, city string, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{
		classifier:    classifier,
		conversations: conversations,
		city:          city,
		logger:        logger.With("component", "validator"),
	}
}

// Validate classifies input for userID. A reply to a pending clarification
// completes the pending query instead of being classified on its own, unless
// it supplies none of the missing fields.
func (v *Validator) Validate(ctx context.Context, input, userID string) ValidatedQuery {
	trimmed := strings.TrimSpace(input)
	conv := v.conversations.Get(userID)

	v.recordLocation(userID, conv.Location, trimmed)

	if conv.Pending != nil {
		if vq, ok := v.resolvePending(ctx, userID, trimmed, *conv.Pending); ok {
			return vq
		}
	}

	result := v.classifier.ExtractIntent(ctx, trimmed, gemini.IntentContext{
		City:     v.city,
		UserName: conv.UserName,
	})

	if result.Intent == gemini.IntentUserIdentification && result.Extracted.Name != "" {
		v.conversations.SetUserName(userID, result.Extracted.Name)
		v.logger.InfoContext(ctx, "User identified", "user_id", userID, "name", result.Extracted.Name)
	}

	missing := filterMissing(result.MissingFields, result.Extracted)
	vq := ValidatedQuery{
		OriginalQuery: trimmed,
		Intent:        result.Intent,
		Confidence:    result.Confidence,
		MissingFields: missing,
		Extracted:     result.Extracted,
		IsComplete:    len(missing) == 0,
	}

	v.logger.InfoContext(ctx, "Validated query", "user_id", userID, "intent", vq.Intent, "confidence", vq.Confidence, "missing_fields", vq.MissingFields)
	return vq
}

// resolvePending merges a clarification reply into the pending query. It
// reports false when the reply filled none of the missing fields, after
// clearing the slot so the input is treated as a new query.
func (v *Validator) resolvePending(ctx context.Context, userID, input string, pending conversation.Pending) (ValidatedQuery, bool) {
	filled := v.classifier.ExtractMissingData(ctx, input, pending.MissingFields)

	extracted := gemini.ExtractedFromMap(pending.Extracted)
	var remaining []string
	supplied := 0
	for _, f := range pending.MissingFields {
		if val := filled[f]; val != "" {
			extracted.Set(f, val)
			supplied++
			continue
		}
		remaining = append(remaining, f)
	}

	v.conversations.ClearPending(userID)

	if supplied == 0 {
		v.logger.InfoContext(ctx, "Clarification reply supplied no missing fields, treating as new query", "user_id", userID)
		return ValidatedQuery{}, false
	}

	vq := ValidatedQuery{
		OriginalQuery: pending.OriginalQuery,
		Intent:        pending.Intent,
		Confidence:    1,
		MissingFields: remaining,
		Extracted:     extracted,
		IsComplete:    len(remaining) == 0,
		Clarified:     true,
	}
	v.logger.InfoContext(ctx, "Clarification applied", "user_id", userID, "intent", vq.Intent, "remaining_fields", remaining)
	return vq, true
}

func (v *Validator) recordLocation(userID string, current *conversation.Location, input string) {
	loc := conversation.ExtractLocation(input)
	if loc == nil {
		return
	}
	if current != nil {
		if loc.City == "" {
			loc.City = current.City
		}
		if loc.RadiusKM == 0 {
			loc.RadiusKM = current.RadiusKM
		}
	}
	v.conversations.SetLocation(userID, *loc)
}

// filterMissing keeps required fields the classifier flagged as missing and
// did not extract anyway, without duplicates.
func filterMissing(fields []string, extracted gemini.ExtractedData) []string {
	var out []string
	for _, req := range requiredFields {
		for _, f := range fields {
			if f == req && extracted.Get(req) == "" {
				out = append(out, req)
				break
			}
		}
	}
	return out
}
