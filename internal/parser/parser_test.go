package parser_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)
}

const wantStamp = "2025-03-14T09:26:53Z"

func TestParse_StringContent(t *testing.T) {
	t.Parallel()

	raw := `{"choices":[{"message":{"role":"assistant","content":"[{\"url\":\"https://elastic.co/blog/x\",\"title\":\"X\",\"description\":\"d\"},{\"url\":\"https://techcrunch.com/a\",\"title\":\"A\",\"description\":\"news\"}]"}}]}`

	got, err := parser.Parse([]byte(raw), fixedNow)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, domain.Candidate{
		URL: "https://elastic.co/blog/x", Title: "X", Description: "d", Timestamp: wantStamp,
	}, got[0])
	assert.Equal(t, "https://techcrunch.com/a", got[1].URL)
	assert.Equal(t, wantStamp, got[1].Timestamp)
}

func TestParse_ListContent(t *testing.T) {
	t.Parallel()

	raw := `{"choices":[{"message":{"content":[{"url":"https://elastic.co","title":"Home","description":"Site","timestamp":"old"}]}}]}`

	got, err := parser.Parse([]byte(raw), fixedNow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://elastic.co", got[0].URL)
	assert.Equal(t, wantStamp, got[0].Timestamp)
}

func TestParse_EmptyArrayString(t *testing.T) {
	t.Parallel()

	got, err := parser.Parse([]byte(`{"choices":[{"message":{"content":"[]"}}]}`), fixedNow)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestParse_EmptyChoices(t *testing.T) {
	t.Parallel()

	got, err := parser.Parse([]byte(`{"choices":[]}`), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParse_CodeFence(t *testing.T) {
	t.Parallel()

	content := "  ```json\n[{\"url\":\"https://elastic.co\",\"title\":\"t\",\"description\":\"d\"}]\n```  "
	raw, err := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
	})
	require.NoError(t, err)

	got, err := parser.Parse(raw, fixedNow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://elastic.co", got[0].URL)
}

func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: `<html>`},
		{name: "missing choices", raw: `{"id":"x"}`},
		{name: "null choices", raw: `{"choices":null}`},
		{name: "missing message", raw: `{"choices":[{"index":0}]}`},
		{name: "missing content", raw: `{"choices":[{"message":{"role":"assistant"}}]}`},
		{name: "null content", raw: `{"choices":[{"message":{"content":null}}]}`},
		{name: "numeric content", raw: `{"choices":[{"message":{"content":42}}]}`},
		{name: "object content", raw: `{"choices":[{"message":{"content":{"url":"x"}}}]}`},
		{name: "prose content", raw: `{"choices":[{"message":{"content":"Here are some URLs"}}]}`},
		{name: "broken json string", raw: `{"choices":[{"message":{"content":"[{\"url\": "}}]}`},
		{name: "list of strings", raw: `{"choices":[{"message":{"content":["https://elastic.co"]}}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := parser.Parse([]byte(tt.raw), fixedNow)
			require.ErrorIs(t, err, domain.ErrMalformedResponse)
			assert.Nil(t, got)
		})
	}
}

func TestParse_DecodeErrorIsKept(t *testing.T) {
	t.Parallel()

	_, err := parser.Parse([]byte(`{"choices":[{"message":{"content":"[{\"url\": 1}]"}}]}`), fixedNow)
	require.ErrorIs(t, err, domain.ErrMalformedResponse)

	var typeErr *json.UnmarshalTypeError
	assert.ErrorAs(t, err, &typeErr)
}

func TestParse_FirstChoiceOnly(t *testing.T) {
	t.Parallel()

	raw := `{"choices":[{"message":{"content":"[]"}},{"message":{"content":[{"url":"https://x.com"}]}}]}`
	got, err := parser.Parse([]byte(raw), fixedNow)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestNewTextResponse_RoundTrip(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(parser.NewTextResponse(`[{"url":"https://elastic.co","title":"t","description":"d"}]`))
	require.NoError(t, err)

	got, err := parser.Parse(raw, fixedNow)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "https://elastic.co", got[0].URL)
}

func TestParseResponse_ListNotMutated(t *testing.T) {
	t.Parallel()

	list := parser.ListContent{{URL: "https://elastic.co"}}
	choices := []parser.Choice{{Message: &parser.Message{Content: list}}}

	got, err := parser.ParseResponse(&parser.Response{Choices: &choices}, fixedNow)
	require.NoError(t, err)
	assert.Equal(t, wantStamp, got[0].Timestamp)
	assert.Empty(t, list[0].Timestamp)
}

func TestParseResponse_Nil(t *testing.T) {
	t.Parallel()

	_, err := parser.ParseResponse(nil, fixedNow)
	require.ErrorIs(t, err, domain.ErrMalformedResponse)
}
