package domain

// CollectionRequest names the company and window for one collection.
type CollectionRequest struct {
	CompanyName string   `json:"company_name"`
	CompanyURL  string   `json:"company_url"`
	Duration    Duration `json:"duration"`
}

// Summary holds the counts and records of a successful collection. The six
// counts describe the validated batch, except TotalURLsStored which is the
// size of the merged collection.
type Summary struct {
	NewURLsFound    int         `json:"new_urls_found"`
	TotalURLsStored int         `json:"total_urls_stored"`
	FirstPartyCount int         `json:"first_party_count"`
	ThirdPartyCount int         `json:"third_party_count"`
	RelevantCount   int         `json:"relevant_count"`
	IrrelevantCount int         `json:"irrelevant_count"`
	NewURLs         []URLRecord `json:"new_urls"`
	AllURLs         []URLRecord `json:"all_urls"`
}

// Summarize counts validated and takes merged as the post-merge collection.
func Summarize(validated, merged []URLRecord) *Summary {
	s := &Summary{
		NewURLsFound:    len(validated),
		TotalURLsStored: len(merged),
		NewURLs:         validated,
		AllURLs:         merged,
	}
	for _, r := range validated {
		if r.IsFirstParty {
			s.FirstPartyCount++
		} else {
			s.ThirdPartyCount++
		}
		if r.IsRelevant {
			s.RelevantCount++
		} else {
			s.IrrelevantCount++
		}
	}
	if s.NewURLs == nil {
		s.NewURLs = []URLRecord{}
	}
	if s.AllURLs == nil {
		s.AllURLs = []URLRecord{}
	}
	return s
}

// CollectionResult is the outcome of one collection. Exactly one of Summary
// and Error is set.
type CollectionResult struct {
	Company    string   `json:"company"`
	CompanyURL string   `json:"company_url"`
	SearchTime string   `json:"search_time"`
	Duration   Duration `json:"duration"`
	Success    bool     `json:"success"`

	*Summary

	Error     string    `json:"error,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
}

// Failed builds an error result for req.
func Failed(req CollectionRequest, searchTime string, err error) CollectionResult {
	return CollectionResult{
		Company:    req.CompanyName,
		CompanyURL: req.CompanyURL,
		SearchTime: searchTime,
		Duration:   req.Duration,
		Error:      err.Error(),
		ErrorKind:  KindOf(err),
	}
}

// Succeeded builds a success result for req.
func Succeeded(req CollectionRequest, searchTime string, summary *Summary) CollectionResult {
	return CollectionResult{
		Company:    req.CompanyName,
		CompanyURL: req.CompanyURL,
		SearchTime: searchTime,
		Duration:   req.Duration,
		Success:    true,
		Summary:    summary,
	}
}
