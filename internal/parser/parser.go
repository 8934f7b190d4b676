// Package parser extracts candidate URLs from a search provider's chat
// completion payload.
package parser

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Response is the subset of a chat completion the parser reads. Choices is
// nil when the key was absent.
type Response struct {
	Choices *[]Choice `json:"choices"`
}

// Choice is one completion alternative. Message is nil when absent.
type Choice struct {
	Message *Message `json:"message"`
}

// NewTextResponse wraps text as the content of a single-choice response.
func NewTextResponse(text string) Response {
	choices := []Choice{{Message: &Message{Role: "assistant", Content: TextContent(text)}}}
	return Response{Choices: &choices}
}

// Parse decodes raw and extracts its candidates. Every candidate is stamped
// with now(); all candidates of one call share the timestamp.
func Parse(raw []byte, now func() time.Time) ([]domain.Candidate, error) {
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrMalformedResponse, err)
	}
	return ParseResponse(&resp, now)
}

// ParseResponse extracts the candidates of the first choice. A response
// whose choices list is present but empty yields no candidates.
func ParseResponse(resp *Response, now func() time.Time) ([]domain.Candidate, error) {
	if resp == nil || resp.Choices == nil {
		return nil, fmt.Errorf("%w: missing choices", domain.ErrMalformedResponse)
	}
	if len(*resp.Choices) == 0 {
		return []domain.Candidate{}, nil
	}

	msg := (*resp.Choices)[0].Message
	if msg == nil {
		return nil, fmt.Errorf("%w: missing message", domain.ErrMalformedResponse)
	}
	if msg.Content == nil {
		return nil, fmt.Errorf("%w: missing content", domain.ErrMalformedResponse)
	}

	candidates, err := msg.Content.candidates()
	if err != nil {
		return nil, err
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}

	if now == nil {
		now = time.Now
	}
	stamp := domain.FormatTimestamp(now())
	for i := range candidates {
		candidates[i].Timestamp = stamp
	}
	return candidates, nil
}
