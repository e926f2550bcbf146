package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/clinic-phone/internal/resilience"
	"github.com/sells-group/clinic-phone/pkg/perplexity"
)

// Contact is the structured answer of a web-grounded contact search.
// Both fields are "Not Found" when the search found nothing.
type Contact struct {
	PhoneNumber string `json:"phone_number"`
	SourceURL   string `json:"source_url"`
}

// WebSearcher asks a model with live web access for a clinic's phone number.
type WebSearcher interface {
	FindContact(ctx context.Context, query string) (Contact, error)
	Name() string
}

const webSearchSystemPrompt = "You are a web research agent.\n" +
	"Find the OFFICIAL public phone number of the medical clinic or doctor.\n" +
	"Return exactly ONE phone number and the PRECISE URL of the page where it was found, with no description and no other information.\n" +
	"If none is found, return 'Not Found' for both fields."

var contactSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"phone_number": map[string]any{"type": "string"},
		"source_url":   map[string]any{"type": "string"},
	},
	"required":             []string{"phone_number", "source_url"},
	"additionalProperties": false,
}

// PerplexitySearcher finds contacts with Perplexity's search-grounded models.
type PerplexitySearcher struct {
	client  perplexity.Client
	country string
}

// NewPerplexitySearcher creates a searcher biased toward country (ISO
// alpha-2, e.g. "IT"). An empty country disables the location hint.
func NewPerplexitySearcher(client perplexity.Client, country string) *PerplexitySearcher {
	return &PerplexitySearcher{client: client, country: strings.ToUpper(country)}
}

func (p *PerplexitySearcher) Name() string { return "perplexity" }

// FindContact issues one structured request. A reply that does not parse
// as a Contact is an error.
func (p *PerplexitySearcher) FindContact(ctx context.Context, query string) (Contact, error) {
	temp := 0.0
	req := perplexity.ChatCompletionRequest{
		Messages: []perplexity.Message{
			{Role: "system", Content: webSearchSystemPrompt},
			{Role: "user", Content: query},
		},
		Temperature: &temp,
		ResponseFormat: &perplexity.ResponseFormat{
			Type:       "json_schema",
			JSONSchema: &perplexity.JSONSchema{Schema: contactSchema},
		},
	}
	if p.country != "" {
		req.WebSearch = &perplexity.WebSearch{UserLocation: &perplexity.UserLocation{Country: p.country}}
	}

	resp, err := p.client.ChatCompletion(ctx, req)
	if err != nil {
		var se *perplexity.StatusError
		if errors.As(err, &se) && resilience.IsTransientHTTPStatus(se.StatusCode) {
			return Contact{}, resilience.NewTransientError(err, se.StatusCode)
		}
		return Contact{}, err
	}
	return ParseContact(resp.Content())
}

// ParseContact decodes the JSON object in a model reply, tolerating prose or
// code fences around it.
func ParseContact(reply string) (Contact, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end < start {
		return Contact{}, eris.New("llm: no JSON object in reply")
	}

	var c Contact
	if err := json.Unmarshal([]byte(reply[start:end+1]), &c); err != nil {
		return Contact{}, eris.Wrap(err, "llm: decode contact")
	}
	c.PhoneNumber = strings.TrimSpace(c.PhoneNumber)
	c.SourceURL = strings.TrimSpace(c.SourceURL)
	if c.PhoneNumber == "" {
		return Contact{}, eris.New("llm: contact has no phone_number")
	}
	return c, nil
}
