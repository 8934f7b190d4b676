package classifier

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"gopkg.in/yaml.v3"
)

// Rules is the relevance heuristic table. BlockPatterns are regular
// expressions matched case-insensitively against the URL. IrrelevantTerms
// are literal substrings matched against the lowercased title and
// description.
type Rules struct {
	BlockPatterns   []string `yaml:"block_patterns"`
	IrrelevantTerms []string `yaml:"irrelevant_terms"`
}

// DefaultRules returns the built-in table.
func DefaultRules() Rules {
	return Rules{
		BlockPatterns: []string{
			`facebook\.com/login`,
			`linkedin\.com/jobs`,
			`/terms-of-service`,
			`/privacy-policy`,
			`/about-cookies`,
			`/sitemap\.xml`,
			`/robots\.txt`,
		},
		IrrelevantTerms: []string{
			"404",
			"not found",
			"error",
		},
	}
}

// LoadRules reads a YAML rules file. Sections left out of the file keep
// their default entries.
func LoadRules(path string) (Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read rules file: %w", err)
	}

	var r Rules
	if err = yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse rules file %s: %w", path, err)
	}

	defaults := DefaultRules()
	if r.BlockPatterns == nil {
		r.BlockPatterns = defaults.BlockPatterns
	}
	if r.IrrelevantTerms == nil {
		r.IrrelevantTerms = defaults.IrrelevantTerms
	}
	return r, nil
}

// compiledRules is the immutable, matchable form of Rules.
type compiledRules struct {
	source   Rules
	patterns []*regexp.Regexp
	terms    []string
	matcher  *ahocorasick.Matcher
}

func compile(r Rules) (*compiledRules, error) {
	c := &compiledRules{
		source:   r,
		patterns: make([]*regexp.Regexp, 0, len(r.BlockPatterns)),
		terms:    make([]string, 0, len(r.IrrelevantTerms)),
	}

	for _, p := range r.BlockPatterns {
		if strings.TrimSpace(p) == "" {
			continue
		}
		re, err := regexp.Compile("(?i)" + p)
		if err != nil {
			return nil, fmt.Errorf("compile block pattern %q: %w", p, err)
		}
		c.patterns = append(c.patterns, re)
	}

	for _, t := range r.IrrelevantTerms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		c.terms = append(c.terms, t)
	}
	if len(c.terms) > 0 {
		c.matcher = ahocorasick.NewStringMatcher(c.terms)
	}

	return c, nil
}

func (c *compiledRules) blocked(rawURL string) bool {
	for _, re := range c.patterns {
		if re.MatchString(rawURL) {
			return true
		}
	}
	return false
}

func (c *compiledRules) hasIrrelevantTerm(title, description string) bool {
	if c.matcher == nil {
		return false
	}
	text := strings.ToLower(title) + " " + strings.ToLower(description)
	return len(c.matcher.MatchThreadSafe([]byte(text))) > 0
}
