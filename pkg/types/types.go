// Package types holds the domain model shared by every stage of the
// radar pipeline: parsed project inventory, findings, reports and the
// OWASP taxonomy tables used to label them.
package types

import (
	"sort"
	"strings"
	"time"
)

// Tool is a named callable exposed to an agent.
type Tool struct {
	Name    string  `json:"name"`
	Version *string `json:"version,omitempty"`
	Source  *string `json:"source,omitempty"`
	Scope   *string `json:"scope,omitempty"`
}

// MCPServer is a Model-Context-Protocol endpoint declared by the project.
type MCPServer struct {
	Name         string   `json:"name"`
	Endpoint     string   `json:"endpoint"`
	Capabilities []string `json:"capabilities"`
	AuthMode     *string  `json:"auth_mode,omitempty"`
}

// NewMCPServer builds an MCPServer with capabilities deduplicated and
// order-preserved, matching spec 4.A's "ordered set, duplicates collapsed".
func NewMCPServer(name, endpoint string, capabilities []string, authMode *string) MCPServer {
	return MCPServer{
		Name:         name,
		Endpoint:     endpoint,
		Capabilities: dedupeOrdered(capabilities),
		AuthMode:     authMode,
	}
}

func dedupeOrdered(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// DependencyVulnerability is a single vulnerability entry attached to a
// Dependency, as read straight from a manifest.
type DependencyVulnerability struct {
	ID          string  `json:"id,omitempty"`
	CVE         string  `json:"cve,omitempty"`
	Severity    string  `json:"severity"`
	Description string  `json:"description,omitempty"`
	FixVersion  *string `json:"fix_version,omitempty"`
}

// Identifier returns the vulnerability's id, falling back to its CVE.
func (v DependencyVulnerability) Identifier() string {
	if v.ID != "" {
		return v.ID
	}
	return v.CVE
}

// Dependency is a third-party package inventoried for a project.
type Dependency struct {
	Name            string                    `json:"name"`
	Version         *string                   `json:"version,omitempty"`
	License         *string                   `json:"license,omitempty"`
	Vulnerabilities []DependencyVulnerability `json:"vulnerabilities"`
}

// AgentComponent is a named agent that may reference tools by name.
type AgentComponent struct {
	Name        string   `json:"name"`
	Description *string  `json:"description,omitempty"`
	Tools       []string `json:"tools"`
}

// ParsedProject is the immutable snapshot the parser produces and every
// detector operates over.
type ParsedProject struct {
	Root         string                 `json:"root"`
	ProjectName  string                 `json:"project_name"`
	Agents       []AgentComponent       `json:"agents"`
	Tools        []Tool                 `json:"tools"`
	MCPServers   []MCPServer            `json:"mcp_servers"`
	Dependencies []Dependency           `json:"dependencies"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// RadarFinding is a structured security observation.
type RadarFinding struct {
	Identifier   string                 `json:"id"`
	Title        string                 `json:"title"`
	Severity     string                 `json:"severity"`
	Description  string                 `json:"description"`
	OWASPLLM     []string               `json:"owasp_llm"`
	OWASPAgentic []string               `json:"owasp_agentic"`
	Subject      *string                `json:"subject,omitempty"`
	Remediation  *string                `json:"remediation,omitempty"`
	Detector     string                 `json:"detector"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// NewRadarFinding normalizes severity and the OWASP LLM code list at
// construction time, per the "frozen records with post-init
// normalization" design. OWASPAgentic is a free-form label list (e.g.
// "Agentic-Tooling"), not a code, so it is sorted but otherwise passed
// through unchanged.
func NewRadarFinding(identifier, title, severity, description string, llm, agentic []string, detector string) RadarFinding {
	if llm == nil {
		llm = []string{}
	}
	if agentic == nil {
		agentic = []string{}
	}
	llmCodes := make([]string, len(llm))
	for i, code := range llm {
		llmCodes[i] = strings.ToUpper(code)
	}
	agenticCodes := make([]string, len(agentic))
	copy(agenticCodes, agentic)
	sort.Strings(llmCodes)
	sort.Strings(agenticCodes)
	return RadarFinding{
		Identifier:   identifier,
		Title:        title,
		Severity:     NormalizeSeverity(severity),
		Description:  description,
		OWASPLLM:     llmCodes,
		OWASPAgentic: agenticCodes,
		Detector:     detector,
		Metadata:     map[string]interface{}{},
	}
}

// ScenarioResult is the outcome of a single adversarial scenario check.
type ScenarioResult struct {
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Details *string `json:"details,omitempty"`
}

// Scenario statuses.
const (
	ScenarioStatusPassed  = "passed"
	ScenarioStatusWarning = "warning"
	ScenarioStatusFailed  = "failed"
)

// RadarReport is the final artifact produced by a scan or test run.
type RadarReport struct {
	ProjectName     string                 `json:"project_name"`
	Mode            string                 `json:"mode"`
	GeneratedAt     string                 `json:"generated_at"`
	Findings        []RadarFinding         `json:"findings"`
	ParsedProject   *ParsedProject         `json:"parsed_project,omitempty"`
	Summary         map[string]interface{} `json:"summary"`
	TraceIDs        []string               `json:"trace_ids"`
	ScenarioResults []ScenarioResult       `json:"scenario_results"`
	Metadata        map[string]interface{} `json:"metadata"`
}

// Report modes.
const (
	ModeScan = "scan"
	ModeTest = "test"
)

// EvidencePack describes a zip archive bundling report artifacts and logs.
type EvidencePack struct {
	PackPath   string                 `json:"pack_path"`
	Metadata   map[string]interface{} `json:"metadata"`
	StoredPath *string                `json:"stored_path,omitempty"`
}

// NowUTCISO renders the current instant as RFC-3339 UTC with a trailing Z,
// matching the original implementation's timestamp format exactly.
func NowUTCISO() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.999999999Z")
}

// --- severity & taxonomy tables (component 4.A) -----------------------

// Canonical severity levels, ranked highest to lowest.
const (
	SeverityCritical = "critical"
	SeverityHigh     = "high"
	SeverityMedium   = "medium"
	SeverityLow      = "low"
	SeverityInfo     = "info"
	SeverityUnknown  = "unknown"
)

var severityRank = map[string]int{
	SeverityCritical: 4,
	SeverityHigh:      3,
	SeverityMedium:    2,
	"moderate":        2,
	SeverityLow:       1,
	SeverityInfo:      0,
	SeverityUnknown:   0,
}

// SeverityRank returns the ordering rank for a (lowercased) severity
// string, defaulting to the rank of "unknown" for anything unrecognized.
func SeverityRank(severity string) int {
	rank, ok := severityRank[strings.ToLower(strings.TrimSpace(severity))]
	if !ok {
		return severityRank[SeverityUnknown]
	}
	return rank
}

// NormalizeSeverity canonicalizes a raw severity string into one of
// {critical, high, medium, low, info, unknown}, collapsing "moderate"
// into "medium" and any unrecognized value into "unknown".
func NormalizeSeverity(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	switch normalized {
	case SeverityCritical, SeverityHigh, SeverityLow, SeverityInfo:
		return normalized
	case SeverityMedium, "moderate":
		return SeverityMedium
	default:
		return SeverityUnknown
	}
}

// SeverityFromCVSS converts a numeric CVSS score into a canonical
// severity bucket.
func SeverityFromCVSS(score float64) string {
	switch {
	case score >= 9.0:
		return SeverityCritical
	case score >= 7.0:
		return SeverityHigh
	case score >= 4.0:
		return SeverityMedium
	case score > 0:
		return SeverityLow
	default:
		return SeverityUnknown
	}
}

// LLMCategoryTitles maps OWASP LLM Top-10 codes to their human titles.
var LLMCategoryTitles = map[string]string{
	"LLM01": "Prompt Injection",
	"LLM02": "Insecure Output Handling",
	"LLM03": "Training Data Poisoning",
	"LLM04": "Model Denial of Service",
	"LLM05": "Supply Chain Vulnerabilities",
	"LLM06": "Sensitive Information Disclosure",
	"LLM07": "Insecure Plugin Design",
	"LLM08": "Excessive Agency",
	"LLM09": "Overreliance",
	"LLM10": "Model Theft",
}

// AgenticCategoryTitles maps OWASP Agentic-AI codes to their human titles.
var AgenticCategoryTitles = map[string]string{
	"AA01": "Prompt & Input Integrity",
	"AA02": "Tool Misuse & Escalation",
	"AA03": "External Service Abuse",
	"AA04": "Sensitive Data Exposure",
	"AA05": "Model or Data Exfiltration",
	"AA06": "Supply Chain & Dependency Risk",
	"AA07": "Secrets & Credential Handling",
	"AA08": "Observability & Audit Gaps",
	"AA09": "Safety & Policy Violations",
	"AA10": "Resilience & Availability",
}

// FormatCategory renders "<code> - <title>" for a code, looking its title
// up in the given table and falling back to "Unknown".
func FormatCategory(code string, titles map[string]string) string {
	title, ok := titles[code]
	if !ok {
		title = "Unknown"
	}
	return code + " - " + title
}

// SeverityTotals computes the severity histogram required by
// RadarReport.summary.findings, including the "total" key.
func SeverityTotals(findings []RadarFinding) map[string]interface{} {
	totals := map[string]int{
		SeverityCritical: 0,
		SeverityHigh:     0,
		SeverityMedium:   0,
		SeverityLow:      0,
		SeverityInfo:     0,
		SeverityUnknown:  0,
	}
	for _, finding := range findings {
		severity := NormalizeSeverity(finding.Severity)
		totals[severity]++
	}
	sum := 0
	out := make(map[string]interface{}, len(totals)+1)
	for severity, count := range totals {
		out[severity] = count
		sum += count
	}
	out["total"] = sum
	return out
}
