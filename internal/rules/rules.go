// Package rules compiles the keyword and custom-site lists into declarative
// network blocking rules and reconciles them against a rule engine.
package rules

import (
	"regexp"

	"github.com/bnema/streakwatch/internal/classify"
)

// Reserved rule id ranges. Keyword rules occupy [KeywordIDBase,
// KeywordIDBase+KeywordIDSpan); custom-site rules occupy [CustomIDBase,
// CustomIDBase+CustomIDSpan). Reconciliation only ever touches ids inside
// these ranges, so rules installed by anything else survive untouched.
const (
	KeywordIDBase = 1000
	KeywordIDSpan = 1000
	CustomIDBase  = 2000
	CustomIDSpan  = 2000
)

// ActionBlock is the only action this compiler emits.
const ActionBlock = "block"

// ResourceMainFrame scopes rules to top-level document requests.
const ResourceMainFrame = "main_frame"

// Rule is a declarative network blocking rule in the engine's wire shape.
// Rules are derived state: recomputed wholesale on every custom-site change
// and never mutated individually.
type Rule struct {
	ID        int       `json:"id"`
	Priority  int       `json:"priority"`
	Action    Action    `json:"action"`
	Condition Condition `json:"condition"`
}

// Action describes what the engine does on a match.
type Action struct {
	Type string `json:"type"`
}

// Condition describes when a rule matches. Exactly one of URLFilter and
// RegexFilter is set.
type Condition struct {
	URLFilter     string   `json:"urlFilter,omitempty"`
	RegexFilter   string   `json:"regexFilter,omitempty"`
	ResourceTypes []string `json:"resourceTypes"`
}

// InKeywordRange reports whether id falls in the reserved keyword range.
func InKeywordRange(id int) bool {
	return id >= KeywordIDBase && id < KeywordIDBase+KeywordIDSpan
}

// InCustomRange reports whether id falls in the reserved custom-site range.
func InCustomRange(id int) bool {
	return id >= CustomIDBase && id < CustomIDBase+CustomIDSpan
}

// InReservedRange reports whether id belongs to either reserved range.
func InReservedRange(id int) bool {
	return InKeywordRange(id) || InCustomRange(id)
}

// Compiler builds rule sets from the active keyword list and custom sites.
type Compiler struct {
	keywords []string
}

// NewCompiler creates a compiler emitting one keyword rule per classifier
// keyword.
func NewCompiler(c *classify.Classifier) *Compiler {
	return &Compiler{keywords: c.Keywords()}
}

// Compile computes the full rule set for the given custom sites. Keyword
// rules get stable ids from the keyword range, custom rules from the custom
// range in list order. Custom entries that normalize to "" are skipped.
func (c *Compiler) Compile(customSites []string) []Rule {
	out := make([]Rule, 0, len(c.keywords)+len(customSites))

	for i, kw := range c.keywords {
		out = append(out, Rule{
			ID:       KeywordIDBase + i,
			Priority: 1,
			Action:   Action{Type: ActionBlock},
			Condition: Condition{
				URLFilter:     kw,
				ResourceTypes: []string{ResourceMainFrame},
			},
		})
	}

	idx := 0
	for _, site := range customSites {
		pattern := RegexForDomain(site)
		if pattern == "" {
			continue
		}
		out = append(out, Rule{
			ID:       CustomIDBase + idx,
			Priority: 1,
			Action:   Action{Type: ActionBlock},
			Condition: Condition{
				RegexFilter:   pattern,
				ResourceTypes: []string{ResourceMainFrame},
			},
		})
		idx++
	}

	return out
}

// RegexForDomain builds the anchored pattern for a custom domain:
// http/https, any number of subdomain labels, the exact domain, then a path
// separator. Example: ^https?://([^.]+\.)*example\.com/
// Returns "" when the domain normalizes to an empty string.
func RegexForDomain(domain string) string {
	d := classify.NormalizeDomain(domain)
	if d == "" {
		return ""
	}
	return `^https?://([^.]+\.)*` + regexp.QuoteMeta(d) + `/`
}
