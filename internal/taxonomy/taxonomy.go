// Package taxonomy maps external vulnerability feeds (OSV, pip-audit)
// into a single VulnerabilityFinding shape and assigns each one an OWASP
// LLM Top-10 and OWASP Agentic-AI category via a small declarative rule
// engine, deduplicating across feeds by (package, vulnerability id).
package taxonomy

import (
	"sort"
	"strconv"
	"strings"

	"github.com/agentic-radar/radar/pkg/types"
)

// VulnerabilityFinding is the unified representation of a dependency
// vulnerability sourced from OSV or pip-audit, prior to (and after)
// OWASP category assignment.
type VulnerabilityFinding struct {
	Name                   string
	Location               string
	Package                string
	Version                string
	Ecosystem              string
	VulnerabilityID        string
	Severity               string
	Summary                string
	Aliases                []string
	FixVersions            []string
	References             []string
	Source                 string
	Metadata               map[string]interface{}
	OWASPLLMCategories     []string
	OWASPAgenticCategories []string
}

// MappingRule maps a vulnerability's attributes to OWASP categories when
// it matches every configured constraint (unset constraints are
// skipped).
type MappingRule struct {
	LLMCodes         []string
	AgenticCodes     []string
	Keywords         []string
	Package          string
	Ecosystem        string
	IDPrefixes       []string
	SeverityAtLeast  string
}

// severityOrder mirrors the OWASP mapper's own severity ranking (distinct
// from pkg/types.SeverityRank, since "unknown" here has no rank entry and
// resolves to 0 like every other unrecognized value).
var severityOrder = map[string]int{
	"critical": 4,
	"high":     3,
	"medium":   2,
	"moderate": 2,
	"low":      1,
}

func normaliseString(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Matches reports whether finding satisfies every constraint on the rule.
func (r MappingRule) Matches(finding VulnerabilityFinding) bool {
	if r.Package != "" && normaliseString(finding.Package) != normaliseString(r.Package) {
		return false
	}
	if r.Ecosystem != "" && normaliseString(finding.Ecosystem) != normaliseString(r.Ecosystem) {
		return false
	}
	if len(r.IDPrefixes) > 0 {
		identifier := strings.ToUpper(finding.VulnerabilityID)
		matched := false
		for _, prefix := range r.IDPrefixes {
			prefix = strings.ToUpper(prefix)
			if strings.HasPrefix(identifier, prefix) {
				matched = true
				break
			}
			for _, alias := range finding.Aliases {
				if strings.HasPrefix(strings.ToUpper(alias), prefix) {
					matched = true
					break
				}
			}
			if matched {
				break
			}
		}
		if !matched {
			return false
		}
	}
	if len(r.Keywords) > 0 {
		haystack := strings.ToLower(strings.Join(append([]string{finding.Summary}, finding.Aliases...), " "))
		matched := false
		for _, keyword := range r.Keywords {
			if strings.Contains(haystack, strings.ToLower(keyword)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	if r.SeverityAtLeast != "" {
		required := severityOrder[strings.ToLower(r.SeverityAtLeast)]
		actual := severityOrder[strings.ToLower(finding.Severity)]
		if actual < required {
			return false
		}
	}
	return true
}

// DefaultRules is the built-in OWASP mapping rule table.
var DefaultRules = []MappingRule{
	{LLMCodes: []string{"LLM01"}, AgenticCodes: []string{"AA01"}, Keywords: []string{"prompt injection", "prompt-injection"}},
	{LLMCodes: []string{"LLM07"}, AgenticCodes: []string{"AA02"}, Keywords: []string{"remote code execution", "command injection", "arbitrary command"}},
	{LLMCodes: []string{"LLM06"}, AgenticCodes: []string{"AA04"}, Keywords: []string{"information disclosure", "sensitive data", "secret exposure"}},
	{LLMCodes: []string{"LLM04"}, AgenticCodes: []string{"AA10"}, Keywords: []string{"denial of service", "dos", "resource exhaustion"}},
	{LLMCodes: []string{"LLM07"}, AgenticCodes: []string{"AA03"}, Keywords: []string{"ssrf", "server-side request forgery", "unvalidated request"}},
	{LLMCodes: []string{"LLM05"}, AgenticCodes: []string{"AA06"}, Keywords: []string{"supply chain", "dependency", "package takeover"}},
	{LLMCodes: []string{"LLM07"}, AgenticCodes: []string{"AA07"}, Keywords: []string{"credential", "secret", "token leak"}},
}

// OWASPMapper applies a rule table to a VulnerabilityFinding, falling
// back to a default category pair when no rule matches.
type OWASPMapper struct {
	Rules               []MappingRule
	DefaultLLMCodes     []string
	DefaultAgenticCodes []string
}

// NewOWASPMapper builds an OWASPMapper with the default rule table and
// fallback categories.
func NewOWASPMapper() OWASPMapper {
	return OWASPMapper{
		Rules:               DefaultRules,
		DefaultLLMCodes:     []string{"LLM05"},
		DefaultAgenticCodes: []string{"AA06"},
	}
}

// Apply returns a copy of finding with its OWASP categories assigned; the
// caller's value is not modified.
func (m OWASPMapper) Apply(finding VulnerabilityFinding) VulnerabilityFinding {
	llmSet := map[string]struct{}{}
	agenticSet := map[string]struct{}{}
	for _, rule := range m.Rules {
		if rule.Matches(finding) {
			for _, code := range rule.LLMCodes {
				llmSet[code] = struct{}{}
			}
			for _, code := range rule.AgenticCodes {
				agenticSet[code] = struct{}{}
			}
		}
	}
	if len(llmSet) == 0 {
		for _, code := range m.DefaultLLMCodes {
			llmSet[code] = struct{}{}
		}
	}
	if len(agenticSet) == 0 {
		for _, code := range m.DefaultAgenticCodes {
			agenticSet[code] = struct{}{}
		}
	}

	finding.OWASPLLMCategories = formatSortedCategories(llmSet, types.LLMCategoryTitles)
	finding.OWASPAgenticCategories = formatSortedCategories(agenticSet, types.AgenticCategoryTitles)
	return finding
}

func formatSortedCategories(codes map[string]struct{}, titles map[string]string) []string {
	sorted := make([]string, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	sort.Strings(sorted)
	formatted := make([]string, 0, len(sorted))
	for _, code := range sorted {
		formatted = append(formatted, types.FormatCategory(code, titles))
	}
	return formatted
}

func sortedUnique(values []string) []string {
	set := map[string]struct{}{}
	for _, v := range values {
		set[v] = struct{}{}
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func scoreToFloat(score string) (float64, bool) {
	if idx := strings.Index(score, "/"); idx >= 0 {
		score = score[:idx]
	}
	value, err := strconv.ParseFloat(score, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
