package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Content is a message body as sent by the provider. It is either a
// TextContent holding a JSON-encoded array, or a ListContent holding the
// already decoded array.
type Content interface {
	candidates() ([]domain.Candidate, error)
}

// TextContent is a JSON array of candidates encoded as a string.
type TextContent string

// ListContent is an inline array of candidates.
type ListContent []domain.Candidate

var errContentKind = errors.New("content must be a string or a list")

func (t TextContent) candidates() ([]domain.Candidate, error) {
	body := stripCodeFence(strings.TrimSpace(string(t)))
	if !strings.HasPrefix(body, "[") {
		return nil, fmt.Errorf("%w: content string is not a JSON array", domain.ErrMalformedResponse)
	}

	var list []domain.Candidate
	if err := json.Unmarshal([]byte(body), &list); err != nil {
		return nil, fmt.Errorf("%w: decode content: %w", domain.ErrMalformedResponse, err)
	}
	return list, nil
}

func (l ListContent) candidates() ([]domain.Candidate, error) {
	out := make([]domain.Candidate, len(l))
	copy(out, l)
	return out, nil
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "```"))
}

// Message is one completion message. Content is nil when the field was
// absent.
type Message struct {
	Role    string
	Content Content
}

// UnmarshalJSON decodes content into the matching Content variant.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	m.Role = raw.Role
	m.Content = nil

	body := bytes.TrimSpace(raw.Content)
	if len(body) == 0 {
		return nil
	}

	switch body[0] {
	case '"':
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return err
		}
		m.Content = TextContent(s)
	case '[':
		var list []domain.Candidate
		if err := json.Unmarshal(body, &list); err != nil {
			return fmt.Errorf("decode content list: %w", err)
		}
		m.Content = ListContent(list)
	default:
		return errContentKind
	}
	return nil
}

// MarshalJSON writes the variant back in its original form.
func (m Message) MarshalJSON() ([]byte, error) {
	out := struct {
		Role    string `json:"role,omitempty"`
		Content any    `json:"content"`
	}{Role: m.Role}

	switch c := m.Content.(type) {
	case TextContent:
		out.Content = string(c)
	case ListContent:
		out.Content = []domain.Candidate(c)
	}
	return json.Marshal(out)
}
