package routing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/aretw0/switchboard/pkg/domain"
)

// Rule sends the conversation to Target when the latest message contains Match.
type Rule struct {
	Match  string `json:"match" yaml:"match"`
	Target string `json:"target" yaml:"target"`
}

// Keyword routes on the content of the latest message.
// Rules are tested in declaration order and the first match wins.
// Matching is a case-insensitive substring test.
type Keyword struct {
	rules    []Rule
	fallback string
	fold     bool
}

// KeywordOption configures a Keyword router.
type KeywordOption func(*Keyword)

// WithDiacriticFolding makes matching ignore accents ("opcao 1" matches "opção 1").
func WithDiacriticFolding() KeywordOption {
	return func(k *Keyword) {
		k.fold = true
	}
}

// NewKeyword creates a keyword router that falls back to fallback when no rule matches.
func NewKeyword(fallback string, rules ...Rule) *Keyword {
	return NewKeywordWith(fallback, rules)
}

// NewKeywordWith is NewKeyword with options.
func NewKeywordWith(fallback string, rules []Rule, opts ...KeywordOption) *Keyword {
	k := &Keyword{fallback: fallback}
	for _, opt := range opts {
		opt(k)
	}
	k.rules = make([]Rule, len(rules))
	for i, r := range rules {
		k.rules[i] = Rule{Match: k.normalize(r.Match), Target: r.Target}
	}
	return k
}

// Route returns the target of the first rule whose keyword occurs in the latest message.
func (k *Keyword) Route(state domain.ConversationState) string {
	last, ok := state.Last()
	if !ok {
		return k.fallback
	}
	text := k.normalize(last.Content)
	for _, r := range k.rules {
		if strings.Contains(text, r.Match) {
			return r.Target
		}
	}
	return k.fallback
}

// Candidates returns every target the router can produce, rules first.
func (k *Keyword) Candidates() []string {
	seen := map[string]bool{}
	var out []string
	for _, t := range append(ruleTargets(k.rules), k.fallback) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func ruleTargets(rules []Rule) []string {
	out := make([]string, 0, len(rules)+1)
	for _, r := range rules {
		out = append(out, r.Target)
	}
	return out
}

func (k *Keyword) normalize(s string) string {
	s = strings.ToLower(s)
	if !k.fold {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}

// Always is a router with a single possible result.
type Always string

// Route returns the fixed target.
func (a Always) Route(domain.ConversationState) string { return string(a) }

// Candidates returns the fixed target.
func (a Always) Candidates() []string { return []string{string(a)} }
