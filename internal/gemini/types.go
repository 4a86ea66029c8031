package gemini

import (
	"github.com/edgard/cityguide/internal/dataset"
)

// Intents the classifier may return. Anything else is mapped to IntentUnknown.
const (
	IntentFindPlaces         = "find_places"
	IntentFindEvents         = "find_events"
	IntentRecommend          = "recommend"
	IntentGreeting           = "greeting"
	IntentIntroduction       = "introduction"
	IntentSmalltalk          = "smalltalk"
	IntentGratitude          = "gratitude"
	IntentUserIdentification = "user_identification"
	IntentUnknown            = "unknown"
)

// AllowedIntents is the closed set of intents accepted from the model.
var AllowedIntents = []string{
	IntentFindPlaces,
	IntentFindEvents,
	IntentRecommend,
	IntentGreeting,
	IntentIntroduction,
	IntentSmalltalk,
	IntentGratitude,
	IntentUserIdentification,
	IntentUnknown,
}

// IsAllowedIntent reports whether intent belongs to AllowedIntents.
func IsAllowedIntent(intent string) bool {
	for _, i := range AllowedIntents {
		if i == intent {
			return true
		}
	}
	return false
}

// Extracted field names.
const (
	FieldCategory  = "category"
	FieldTimeOfDay = "timeOfDay"
	FieldDate      = "date"
	FieldName      = "name"
)

// ExtractedData holds the structured fields the model pulled out of a message.
// Empty strings mean "not specified".
type ExtractedData struct {
	Category  string `json:"category"`
	TimeOfDay string `json:"timeOfDay"`
	Date      string `json:"date"`
	Name      string `json:"name"`
}

// Get returns the value of a field by its wire name.
func (d ExtractedData) Get(field string) string {
	switch field {
	case FieldCategory:
		return d.Category
	case FieldTimeOfDay:
		return d.TimeOfDay
	case FieldDate:
		return d.Date
	case FieldName:
		return d.Name
	default:
		return ""
	}
}

// Set assigns a field by its wire name. Unknown fields are ignored.
func (d *ExtractedData) Set(field, value string) {
	switch field {
	case FieldCategory:
		d.Category = value
	case FieldTimeOfDay:
		d.TimeOfDay = value
	case FieldDate:
		d.Date = value
	case FieldName:
		d.Name = value
	}
}

// Map returns the non-empty fields keyed by wire name.
func (d ExtractedData) Map() map[string]string {
	out := make(map[string]string, 4)
	for _, f := range []string{FieldCategory, FieldTimeOfDay, FieldDate, FieldName} {
		if v := d.Get(f); v != "" {
			out[f] = v
		}
	}
	return out
}

// ExtractedFromMap builds ExtractedData from a field map.
func ExtractedFromMap(m map[string]string) ExtractedData {
	var d ExtractedData
	for k, v := range m {
		d.Set(k, v)
	}
	return d
}

// IntentContext is the minimal conversation context sent with a message.
type IntentContext struct {
	City     string
	Today    string
	UserName string
}

// IntentResult is the classifier output.
type IntentResult struct {
	Intent        string
	MissingFields []string
	Confidence    float64
	Extracted     ExtractedData
}

// Results is the verified data handed to the formatter.
type Results struct {
	Places []dataset.Place `json:"places,omitempty"`
	Events []dataset.Event `json:"events,omitempty"`
}
