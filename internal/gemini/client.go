// Package gemini implements integration with Google's Gemini API.
// It classifies user intents, extracts clarification data and phrases
// verified results, falling back to deterministic output on failure.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/edgard/cityguide/internal/config"
	"github.com/edgard/cityguide/internal/metrics"
)

var (
	// ErrNotConfigured is returned by every call of a client created without an API key.
	ErrNotConfigured = errors.New("gemini client not configured")
	// ErrModelsUnavailable is returned when every model in the chain is rate limited.
	ErrModelsUnavailable = errors.New("all gemini models unavailable")
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("gemini returned empty content")
)

// Client defines the language model operations used by the assistant.
type Client interface {
	// ExtractIntent classifies a message. It never fails: on any error the
	// result is the unknown intent with zero confidence.
	ExtractIntent(ctx context.Context, input string, ic IntentContext) IntentResult

	// ExtractMissingData pulls previously missing fields out of a clarification
	// reply. It returns an empty map on failure.
	ExtractMissingData(ctx context.Context, input string, missingFields []string) map[string]string

	// GenerateClarification asks the model for one follow-up question.
	GenerateClarification(ctx context.Context, intent string, missingFields []string) (string, error)

	// FormatResponse phrases verified results, or lists them plainly on failure.
	FormatResponse(ctx context.Context, query string, results Results) string
}

// contentGenerator is the subset of *genai.Models used by the client.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type sdkClient struct {
	models     contentGenerator
	log        *slog.Logger
	modelNames []string
	city       string
	temp       float32
	maxRetries int
	retryDelay time.Duration
	today      func() time.Time
}

// NewClient creates a new Gemini client with the provided configuration.
// city is the city the assistant answers about.
func NewClient(ctx context.Context, cfg config.GeminiConfig, city string, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required: %w", ErrNotConfigured)
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	c := newSDKClient(gi.Models, cfg, city, log)
	c.log.Info("Gemini client initialized successfully", "models", strings.Join(cfg.Models, ","))
	return c, nil
}

// NewUnavailableClient returns a client whose every call fails with
// ErrNotConfigured, so callers always take their fallback path.
func NewUnavailableClient(city string, log *slog.Logger) Client {
	return newSDKClient(nil, config.GeminiConfig{}, city, log)
}

func newSDKClient(models contentGenerator, cfg config.GeminiConfig, city string, log *slog.Logger) *sdkClient {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &sdkClient{
		models:     models,
		log:        log.With("component", "gemini"),
		modelNames: cfg.Models,
		city:       city,
		temp:       cfg.Temperature,
		maxRetries: cfg.MaxRetries,
		retryDelay: time.Duration(cfg.RetryDelaySeconds) * time.Second,
		today:      time.Now,
	}
}

func (c *sdkClient) baseConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		Temperature: genai.Ptr(c.temp),
	}
}

// generate runs a prompt through the model chain. A 429 moves on to the next
// model, 500/503 are retried on the same model, anything else aborts.
func (c *sdkClient) generate(ctx context.Context, op string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (text string, err error) {
	start := time.Now()
	defer func() {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		metrics.LLMCallsTotal.WithLabelValues(op, outcome).Inc()
		metrics.LLMCallDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}()

	if c.models == nil {
		return "", ErrNotConfigured
	}

	for _, model := range c.modelNames {
		resp, err := c.generateWithRetries(ctx, model, contents, cfg)
		if err != nil {
			if apiErrorCode(err) == http.StatusTooManyRequests {
				c.log.WarnContext(ctx, "Gemini model rate limited, trying next model", "operation", op, "model", model)
				continue
			}
			return "", err
		}
		return c.extractTextFromResponse(ctx, op, resp)
	}

	c.log.ErrorContext(ctx, "All Gemini models unavailable", "operation", op)
	return "", ErrModelsUnavailable
}

func (c *sdkClient) generateWithRetries(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	var err error
	for i := 0; i <= c.maxRetries; i++ {
		var resp *genai.GenerateContentResponse
		resp, err = c.models.GenerateContent(ctx, model, contents, cfg)
		if err == nil {
			return resp, nil
		}

		code := apiErrorCode(err)
		if code != http.StatusInternalServerError && code != http.StatusServiceUnavailable {
			return nil, fmt.Errorf("gemini API call failed (model %s): %w", model, err)
		}

		if i < c.maxRetries {
			c.log.InfoContext(ctx, "Retrying Gemini API call due to retriable APIError", "model", model, "attempt", i+1, "code", code, "delay", c.retryDelay)
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelay):
			}
		}
	}
	return nil, fmt.Errorf("gemini API call failed after %d retries (model %s): %w", c.maxRetries, model, err)
}

// apiErrorCode returns the HTTP status of a genai API error, or 0.
func apiErrorCode(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code
	}
	return 0
}

func (c *sdkClient) extractTextFromResponse(ctx context.Context, op string, resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		c.log.ErrorContext(ctx, "Gemini request blocked", "operation", op, "reason", reasonMsg)
		return "", fmt.Errorf("%s blocked by safety filter: %s", op, reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		c.log.WarnContext(ctx, "Gemini response missing candidates or content", "operation", op, "finish_reason", finishReason)
		return "", fmt.Errorf("%s: %w (finish reason: %s)", op, ErrEmptyResponse, finishReason)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%s: %w", op, ErrEmptyResponse)
	}
	return text, nil
}

var nullableString = &genai.Schema{Type: genai.TypeString, Nullable: genai.Ptr(true)}

var intentSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"intent":        {Type: genai.TypeString, Description: "One of the allowed intents."},
		"missingFields": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"confidence":    {Type: genai.TypeNumber, Description: "Confidence between 0.0 and 1.0."},
		"extractedData": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				FieldCategory:  nullableString,
				FieldTimeOfDay: nullableString,
				FieldDate:      nullableString,
				FieldName:      nullableString,
			},
		},
	},
	Required: []string{"intent", "missingFields", "confidence", "extractedData"},
}

type intentResponse struct {
	Intent        string          `json:"intent"`
	MissingFields json.RawMessage `json:"missingFields"`
	Confidence    *float64        `json:"confidence"`
	ExtractedData *ExtractedData  `json:"extractedData"`
}

func (c *sdkClient) ExtractIntent(ctx context.Context, input string, ic IntentContext) IntentResult {
	if ic.City == "" {
		ic.City = c.city
	}
	if ic.Today == "" {
		ic.Today = c.today().Format("2006-01-02")
	}
	userName := ic.UserName
	if userName == "" {
		userName = "unknown"
	}

	cfg := c.baseConfig()
	cfg.SystemInstruction = genai.NewContentFromText(fmt.Sprintf(IntentSystemInstruction, strings.Join(AllowedIntents, ", ")), genai.RoleUser)
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = intentSchema

	prompt := fmt.Sprintf(IntentPromptTemplate, ic.City, ic.Today, userName, input)
	raw, err := c.generate(ctx, "extract_intent", genai.Text(prompt), cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Intent extraction failed", "error", err)
		return unknownIntent()
	}

	var parsed intentResponse
	if err := parseJSON(raw, &parsed); err != nil {
		c.log.ErrorContext(ctx, "Intent extraction returned invalid JSON", "error", err, "response_text", raw)
		return unknownIntent()
	}

	result := IntentResult{
		Intent:     parsed.Intent,
		Confidence: 0.5,
	}
	if !IsAllowedIntent(result.Intent) {
		c.log.WarnContext(ctx, "Model returned intent outside the allowed list", "intent", parsed.Intent)
		result.Intent = IntentUnknown
	}
	if parsed.Confidence != nil {
		result.Confidence = *parsed.Confidence
	}
	if len(parsed.MissingFields) > 0 {
		var fields []string
		if err := json.Unmarshal(parsed.MissingFields, &fields); err == nil {
			result.MissingFields = fields
		}
	}
	if parsed.ExtractedData != nil {
		result.Extracted = *parsed.ExtractedData
	}

	c.log.DebugContext(ctx, "Intent extracted", "intent", result.Intent, "confidence", result.Confidence, "missing_fields", result.MissingFields)
	return result
}

func unknownIntent() IntentResult {
	return IntentResult{Intent: IntentUnknown, Confidence: 0}
}

func (c *sdkClient) ExtractMissingData(ctx context.Context, input string, missingFields []string) map[string]string {
	cfg := c.baseConfig()
	cfg.ResponseMIMEType = "application/json"
	props := make(map[string]*genai.Schema, len(missingFields))
	for _, f := range missingFields {
		props[f] = nullableString
	}
	cfg.ResponseSchema = &genai.Schema{Type: genai.TypeObject, Properties: props}

	prompt := fmt.Sprintf(MissingDataPromptTemplate, strings.Join(missingFields, ", "), input)
	raw, err := c.generate(ctx, "extract_missing_data", genai.Text(prompt), cfg)
	if err != nil {
		c.log.ErrorContext(ctx, "Missing data extraction failed", "error", err)
		return map[string]string{}
	}

	var parsed map[string]*string
	if err := parseJSON(raw, &parsed); err != nil {
		c.log.ErrorContext(ctx, "Missing data extraction returned invalid JSON", "error", err, "response_text", raw)
		return map[string]string{}
	}

	out := make(map[string]string, len(parsed))
	for k, v := range parsed {
		if v != nil && strings.TrimSpace(*v) != "" {
			out[k] = strings.TrimSpace(*v)
		}
	}
	return out
}

func (c *sdkClient) GenerateClarification(ctx context.Context, intent string, missingFields []string) (string, error) {
	prompt := fmt.Sprintf(ClarificationPromptTemplate, intent, strings.Join(missingFields, ", "))
	text, err := c.generate(ctx, "generate_clarification", genai.Text(prompt), c.baseConfig())
	if err != nil {
		return "", fmt.Errorf("failed to generate clarification: %w", err)
	}
	return strings.Trim(text, "\"“” "), nil
}

func (c *sdkClient) FormatResponse(ctx context.Context, query string, results Results) string {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		c.log.ErrorContext(ctx, "Failed to marshal results for formatting", "error", err)
		return FallbackFormat(results)
	}

	prompt := fmt.Sprintf(FormatPromptTemplate, c.city, query, data)
	text, err := c.generate(ctx, "format_response", genai.Text(prompt), c.baseConfig())
	if err != nil {
		c.log.WarnContext(ctx, "Response formatting failed, using plain list", "error", err)
		return FallbackFormat(results)
	}
	return text
}

// FallbackFormat lists results without the language model.
func FallbackFormat(results Results) string {
	var lines []string

	if len(results.Places) > 0 {
		lines = append(lines, "Places:")
		for _, p := range results.Places {
			line := "- " + p.Name
			if p.Address != "" {
				line += " (" + p.Address + ")"
			}
			lines = append(lines, line)
		}
	}

	if len(results.Events) > 0 {
		lines = append(lines, "Events:")
		for _, e := range results.Events {
			line := "- " + e.Name
			if e.Date != "" {
				line += " on " + e.Date
			}
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return "I found some results."
	}
	return strings.Join(lines, "\n")
}

// parseJSON decodes model output, tolerating markdown code fences.
func parseJSON(text string, out any) error {
	cleaned := strings.ReplaceAll(text, "```json", "")
	cleaned = strings.ReplaceAll(cleaned, "```", "")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return ErrEmptyResponse
	}
	return json.Unmarshal([]byte(cleaned), out)
}
