// Package classifier decides whether a discovered URL belongs to the
// company (first party) and whether it is worth keeping (relevant).
package classifier

import (
	"sync/atomic"

	"github.com/jonesrussell/company-url-collector/internal/canonical"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Classifier applies domain matching and the relevance rules. Classify is
// a pure function of its inputs and the current rule set; the rule set can
// be swapped while classifications are running.
type Classifier struct {
	normalizer canonical.Normalizer
	rules      atomic.Pointer[compiledRules]
}

// New compiles rules into a Classifier that computes domains with normalizer.
func New(rules Rules, normalizer canonical.Normalizer) (*Classifier, error) {
	compiled, err := compile(rules)
	if err != nil {
		return nil, err
	}

	c := &Classifier{normalizer: normalizer}
	c.rules.Store(compiled)
	return c, nil
}

// NewDefault returns a Classifier with DefaultRules and fixed-mode domains.
func NewDefault() *Classifier {
	c, err := New(DefaultRules(), canonical.NewNormalizer(canonical.ModeFixed))
	if err != nil {
		panic(err)
	}
	return c
}

// SetRules compiles and installs a new rule set. On error the current set
// stays in place.
func (c *Classifier) SetRules(rules Rules) error {
	compiled, err := compile(rules)
	if err != nil {
		return err
	}
	c.rules.Store(compiled)
	return nil
}

// Rules returns the rule set in use.
func (c *Classifier) Rules() Rules {
	return c.rules.Load().source
}

// CompanyDomain returns the canonical domain of a company URL.
func (c *Classifier) CompanyDomain(companyURL string) string {
	return c.normalizer.Domain(companyURL)
}

// Classify returns the first-party and relevance flags for one URL.
// First-party URLs are always relevant.
func (c *Classifier) Classify(rawURL, title, description, companyDomain string) (firstParty, relevant bool) {
	if canonical.SameSite(c.normalizer.Domain(rawURL), companyDomain) {
		return true, true
	}

	rules := c.rules.Load()
	if rules.blocked(rawURL) || rules.hasIrrelevantTerm(title, description) {
		return false, false
	}
	return false, true
}

// Validate drops candidates without an http(s) URL and classifies the rest
// against companyURL, keeping input order.
func (c *Classifier) Validate(candidates []domain.Candidate, companyURL string) []domain.URLRecord {
	companyDomain := c.CompanyDomain(companyURL)

	records := make([]domain.URLRecord, 0, len(candidates))
	for _, cand := range candidates {
		if !cand.HasWebScheme() {
			continue
		}
		firstParty, relevant := c.Classify(cand.URL, cand.Title, cand.Description, companyDomain)
		records = append(records, domain.NewURLRecord(cand, firstParty, relevant))
	}
	return records
}
