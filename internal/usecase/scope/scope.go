// Package scope decides whether a query belongs to the assistant's domain.
package scope

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/genesis/internal/domain"
)

// Lists are the phrase and keyword sets of the scope gate.
type Lists struct {
	CapabilityPhrases []string
	Denylist          []string
	Allowlist         []string
}

// Matcher answers the keyword questions of the scope gate.
// Denylist entries match whole tokens; allowlist entries match token prefixes,
// so "container" also covers "containers".
type Matcher struct {
	capability map[string]struct{}
	deny       map[string]struct{}
	allow      []string
}

// NewMatcher normalizes the lists. Empty capability or allow lists are rejected.
func NewMatcher(l Lists) (*Matcher, error) {
	var errs []error
	if len(l.CapabilityPhrases) == 0 {
		errs = append(errs, errors.New("capability_phrases must not be empty"))
	}
	if len(l.Allowlist) == 0 {
		errs = append(errs, errors.New("allowlist must not be empty"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("scope: %w: %w", domain.ErrConfiguration, err)
	}

	m := &Matcher{
		capability: make(map[string]struct{}, len(l.CapabilityPhrases)),
		deny:       make(map[string]struct{}, len(l.Denylist)),
	}
	for _, p := range l.CapabilityPhrases {
		if n := domain.NormalizePhrase(p); n != "" {
			m.capability[n] = struct{}{}
		}
	}
	for _, w := range l.Denylist {
		for _, tok := range domain.Tokens(w) {
			m.deny[tok] = struct{}{}
		}
	}
	for _, w := range l.Allowlist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			m.allow = append(m.allow, w)
		}
	}
	return m, nil
}

// IsCapability reports whether query is one of the greeting/capability phrases,
// ignoring case, surrounding whitespace and punctuation.
func (m *Matcher) IsCapability(query string) bool {
	_, ok := m.capability[domain.NormalizePhrase(query)]
	return ok
}

// Denied returns the first denylisted keyword in query.
func (m *Matcher) Denied(query string) (string, bool) {
	for _, tok := range domain.Tokens(query) {
		if _, ok := m.deny[tok]; ok {
			return tok, true
		}
	}
	return "", false
}

// Allowed returns the first allowlisted keyword in query.
func (m *Matcher) Allowed(query string) (string, bool) {
	for _, tok := range domain.Tokens(query) {
		for _, kw := range m.allow {
			if strings.HasPrefix(tok, kw) {
				return kw, true
			}
		}
	}
	return "", false
}
