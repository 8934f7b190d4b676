// Package storage persists each company's deduplicated URL collection.
package storage

import (
	"context"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Store loads and merges per-company URL collections. Company arguments are
// display names; stores derive the key with domain.CompanyKey.
type Store interface {
	// Load returns the stored collection, or an empty one when nothing is
	// stored or the stored data cannot be decoded.
	Load(ctx context.Context, company string) ([]domain.URLRecord, error)
	// Merge appends the records whose URL is not stored yet, persists the
	// whole collection, and returns it.
	Merge(ctx context.Context, company string, records []domain.URLRecord) ([]domain.URLRecord, error)
	// Companies lists the keys that have a stored collection.
	Companies(ctx context.Context) ([]string, error)
}

// mergeRecords appends each incoming record whose URL is new. URLs seen
// earlier in the same batch count as stored, so only the first occurrence
// is kept. Existing records keep their order and are never rewritten.
func mergeRecords(existing, incoming []domain.URLRecord) ([]domain.URLRecord, int) {
	seen := make(map[string]struct{}, len(existing)+len(incoming))
	merged := make([]domain.URLRecord, 0, len(existing)+len(incoming))
	for _, r := range existing {
		seen[r.URL] = struct{}{}
		merged = append(merged, r)
	}

	added := 0
	for _, r := range incoming {
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		merged = append(merged, r)
		added++
	}
	return merged, added
}

// Filter returns the records matching the given flags. A nil flag matches
// both values.
func Filter(records []domain.URLRecord, firstParty, relevant *bool) []domain.URLRecord {
	out := make([]domain.URLRecord, 0, len(records))
	for _, r := range records {
		if firstParty != nil && r.IsFirstParty != *firstParty {
			continue
		}
		if relevant != nil && r.IsRelevant != *relevant {
			continue
		}
		out = append(out, r)
	}
	return out
}
