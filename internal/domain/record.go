// Package domain holds the collector's core types: URL records, search
// durations, collection results and error kinds.
package domain

import (
	"strings"
	"time"
)

// TimestampLayout formats extraction timestamps (ISO-8601, UTC).
const TimestampLayout = time.RFC3339Nano

// Candidate is one URL as returned by the search provider, before
// classification.
type Candidate struct {
	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

// HasWebScheme reports whether the candidate URL starts with http:// or https://.
func (c Candidate) HasWebScheme() bool {
	return strings.HasPrefix(c.URL, "http://") || strings.HasPrefix(c.URL, "https://")
}

// URLRecord is a validated candidate. It is never modified after validation.
type URLRecord struct {
	URL          string `json:"url"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Timestamp    string `json:"timestamp"`
	IsFirstParty bool   `json:"is_first_party"`
	IsRelevant   bool   `json:"is_relevant"`
}

// NewURLRecord builds a record from a candidate and its classification.
func NewURLRecord(c Candidate, firstParty, relevant bool) URLRecord {
	return URLRecord{
		URL:          c.URL,
		Title:        c.Title,
		Description:  c.Description,
		Timestamp:    c.Timestamp,
		IsFirstParty: firstParty,
		IsRelevant:   relevant,
	}
}

// FormatTimestamp renders t the way records store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// CompanyKey normalizes a company name into its storage key: lowercased,
// with spaces and dots replaced by underscores. Distinct names can share a
// key ("A.B" and "a b").
func CompanyKey(name string) string {
	return strings.NewReplacer(" ", "_", ".", "_").Replace(strings.ToLower(name))
}
