// Package canonical reduces URLs and hosts to the registrable domain used for
// first-party comparisons.
package canonical

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// secondLevelLabels are the labels that, in second-to-last position, make
// the canonical domain three labels long ("example.co.uk"). This is not a
// public suffix list: "example.org.uk" resolves correctly only by accident
// and "example.ac.uk" collapses to "ac.uk".
var secondLevelLabels = map[string]struct{}{
	"co":  {},
	"com": {},
	"org": {},
	"net": {},
	"gov": {},
	"edu": {},
}

// Mode selects how the registrable domain is computed.
type Mode string

const (
	// ModeFixed uses the fixed second-level label table.
	ModeFixed Mode = "fixed"
	// ModePublicSuffix uses the compiled-in public suffix list and falls back
	// to ModeFixed when the list cannot answer.
	ModePublicSuffix Mode = "publicsuffix"
)

// ParseMode validates a mode name. Empty means ModeFixed.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeFixed:
		return ModeFixed, nil
	case ModePublicSuffix:
		return ModePublicSuffix, nil
	default:
		return "", fmt.Errorf("unknown domain mode %q", s)
	}
}

// Normalizer computes canonical domains in one Mode.
type Normalizer struct {
	mode Mode
}

// NewNormalizer returns a Normalizer for mode.
func NewNormalizer(mode Mode) Normalizer {
	return Normalizer{mode: mode}
}

// Domain returns the canonical domain of urlOrHost, or "" if it has no
// parseable host.
func (n Normalizer) Domain(urlOrHost string) string {
	host := Host(urlOrHost)
	if host == "" {
		return ""
	}
	if net.ParseIP(host) != nil {
		return host
	}
	if n.mode == ModePublicSuffix {
		if d, err := publicsuffix.EffectiveTLDPlusOne(host); err == nil {
			return d
		}
	}
	return fixedRule(host)
}

// Domain is the canonical domain under ModeFixed.
func Domain(urlOrHost string) string {
	return NewNormalizer(ModeFixed).Domain(urlOrHost)
}

// Host extracts the lowercased host of urlOrHost without port or trailing
// dot. Input without a scheme is treated as https.
func Host(urlOrHost string) string {
	s := strings.TrimSpace(urlOrHost)
	if s == "" {
		return ""
	}
	if !hasScheme(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return ""
	}
	return strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
}

// hasScheme reports whether s starts with "scheme://". A "://" later in
// the path or query does not count.
func hasScheme(s string) bool {
	i := strings.Index(s, "://")
	if i <= 0 {
		return false
	}
	for j, r := range s[:i] {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z':
		case j > 0 && ('0' <= r && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

func fixedRule(host string) string {
	labels := strings.Split(host, ".")
	n := len(labels)
	if n >= 3 {
		if _, ok := secondLevelLabels[labels[n-2]]; ok {
			return strings.Join(labels[n-3:], ".")
		}
	}
	if n >= 2 {
		return strings.Join(labels[n-2:], ".")
	}
	return host
}

// SameSite reports whether candidate's canonical domain equals company or is
// a subdomain of it. Both sides are compared case-insensitively; an empty
// side never matches.
func SameSite(candidateDomain, companyDomain string) bool {
	if candidateDomain == "" || companyDomain == "" {
		return false
	}
	c := strings.ToLower(candidateDomain)
	d := strings.ToLower(companyDomain)
	return c == d || strings.HasSuffix(c, "."+d)
}
