package taxonomy

import (
	"fmt"
	"strings"

	"github.com/agentic-radar/radar/pkg/types"
)

// VulnerabilityMapper unifies OSV and pip-audit results into
// VulnerabilityFindings and merges them across feeds.
type VulnerabilityMapper struct {
	owaspMapper OWASPMapper
}

// NewVulnerabilityMapper builds a VulnerabilityMapper using the default
// OWASPMapper.
func NewVulnerabilityMapper() VulnerabilityMapper {
	return VulnerabilityMapper{owaspMapper: NewOWASPMapper()}
}

// OSVPayload and friends mirror just enough of the OSV batch-query
// response shape to extract the fields the mapper needs.
type OSVPayload struct {
	Results []OSVResult `json:"results"`
}

type OSVResult struct {
	Source   *OSVSource   `json:"source"`
	Packages []OSVPackage `json:"packages"`
}

type OSVSource struct {
	Path string `json:"path"`
	File string `json:"file"`
	Name string `json:"name"`
}

type OSVPackage struct {
	Package         OSVPackageMeta `json:"package"`
	Versions        []string       `json:"versions"`
	Vulnerabilities []OSVVuln      `json:"vulnerabilities"`
}

type OSVPackageMeta struct {
	Name      string `json:"name"`
	Ecosystem string `json:"ecosystem"`
}

type OSVVuln struct {
	ID                string                 `json:"id"`
	Summary           string                 `json:"summary"`
	Details           string                 `json:"details"`
	Aliases           []string               `json:"aliases"`
	Severity          []OSVSeverity          `json:"severity"`
	DatabaseSpecific  map[string]interface{} `json:"database_specific"`
	References        []OSVReference         `json:"references"`
	FixVersions       []string               `json:"fix_versions"`
	FixedVersions     []string               `json:"fixed_versions"`
	Affected          []OSVAffected          `json:"affected"`
}

type OSVSeverity struct {
	Score string `json:"score"`
}

type OSVReference struct {
	URL string `json:"url"`
}

type OSVAffected struct {
	Ranges []OSVRange `json:"ranges"`
}

type OSVRange struct {
	Events []OSVEvent `json:"events"`
}

type OSVEvent struct {
	Fixed string `json:"fixed"`
}

// FromOSV converts a decoded OSV batch response into VulnerabilityFindings
// with OWASP categories applied, emitting one finding per (package
// vulnerability, affected version) pair.
func (m VulnerabilityMapper) FromOSV(payload OSVPayload) []VulnerabilityFinding {
	var findings []VulnerabilityFinding

	for _, result := range payload.Results {
		sourcePath := extractSourcePath(result.Source)
		for _, pkg := range result.Packages {
			packageName := pkg.Package.Name
			if packageName == "" {
				packageName = "unknown"
			}
			versions := pkg.Versions
			if len(versions) == 0 {
				versions = []string{"unknown"}
			}
			for _, vuln := range pkg.Vulnerabilities {
				severity := extractOSVSeverity(vuln)
				summary := vuln.Summary
				if summary == "" {
					summary = vuln.Details
				}
				references := make([]string, 0, len(vuln.References))
				for _, ref := range vuln.References {
					if ref.URL != "" {
						references = append(references, ref.URL)
					}
				}
				fixVersions := extractOSVFixVersions(vuln)
				vulnID := vuln.ID
				if vulnID == "" && len(vuln.Aliases) > 0 {
					vulnID = vuln.Aliases[0]
				}
				if vulnID == "" {
					vulnID = packageName
				}

				for _, version := range versions {
					finding := VulnerabilityFinding{
						Name:            vulnID,
						Location:        sourcePath,
						Package:         packageName,
						Version:         version,
						Ecosystem:       pkg.Package.Ecosystem,
						VulnerabilityID: vulnID,
						Severity:        severity,
						Summary:         summary,
						Aliases:         vuln.Aliases,
						FixVersions:     fixVersions,
						References:      references,
						Source:          "osv",
						Metadata: map[string]interface{}{
							"source": "osv",
							"path":   sourcePath,
						},
					}
					findings = append(findings, m.owaspMapper.Apply(finding))
				}
			}
		}
	}

	return findings
}

func extractSourcePath(source *OSVSource) string {
	if source == nil {
		return ""
	}
	if source.Path != "" {
		return source.Path
	}
	if source.File != "" {
		return source.File
	}
	return source.Name
}

func extractOSVSeverity(vuln OSVVuln) string {
	var best float64
	found := false
	for _, entry := range vuln.Severity {
		if value, ok := scoreToFloat(entry.Score); ok {
			if !found || value > best {
				best = value
				found = true
			}
		}
	}
	if found {
		return types.SeverityFromCVSS(best)
	}
	if severity, ok := vuln.DatabaseSpecific["severity"].(string); ok {
		return strings.ToUpper(severity)
	}
	return ""
}

func extractOSVFixVersions(vuln OSVVuln) []string {
	set := map[string]struct{}{}
	for _, v := range vuln.FixVersions {
		set[v] = struct{}{}
	}
	for _, v := range vuln.FixedVersions {
		set[v] = struct{}{}
	}
	if raw, ok := vuln.DatabaseSpecific["fix_versions"].([]interface{}); ok {
		for _, v := range raw {
			if s, ok := v.(string); ok {
				set[s] = struct{}{}
			}
		}
	}
	for _, affected := range vuln.Affected {
		for _, r := range affected.Ranges {
			for _, event := range r.Events {
				if event.Fixed != "" {
					set[event.Fixed] = struct{}{}
				}
			}
		}
	}
	versions := make([]string, 0, len(set))
	for v := range set {
		versions = append(versions, v)
	}
	return sortedUnique(versions)
}

// PipAuditPayload mirrors pip-audit's JSON output shape.
type PipAuditPayload struct {
	Dependencies []PipAuditDependency `json:"dependencies"`
}

type PipAuditDependency struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Vulns   []PipAuditVuln  `json:"vulns"`
}

type PipAuditVuln struct {
	ID          string   `json:"id"`
	Aliases     []string `json:"aliases"`
	Severity    string   `json:"severity"`
	Description string   `json:"description"`
	Summary     string   `json:"summary"`
	FixVersions []string `json:"fix_versions"`
	References  []string `json:"references"`
}

// FromPipAudit converts a decoded pip-audit report into
// VulnerabilityFindings with OWASP categories applied.
func (m VulnerabilityMapper) FromPipAudit(payload PipAuditPayload) []VulnerabilityFinding {
	var findings []VulnerabilityFinding

	for _, dependency := range payload.Dependencies {
		packageName := dependency.Name
		if packageName == "" {
			packageName = "unknown"
		}
		version := dependency.Version
		if version == "" {
			version = "unknown"
		}
		for _, vuln := range dependency.Vulns {
			vulnID := vuln.ID
			if vulnID == "" {
				vulnID = packageName
			}
			summary := vuln.Description
			if summary == "" {
				summary = vuln.Summary
			}
			severity := vuln.Severity
			if severity != "" {
				severity = strings.ToUpper(severity)
			}

			finding := VulnerabilityFinding{
				Name:            vulnID,
				Location:        "pip-audit",
				Package:         packageName,
				Version:         version,
				Ecosystem:       "PyPI",
				VulnerabilityID: vulnID,
				Severity:        severity,
				Summary:         summary,
				Aliases:         vuln.Aliases,
				FixVersions:     vuln.FixVersions,
				References:      vuln.References,
				Source:          "pip-audit",
				Metadata:        map[string]interface{}{"source": "pip-audit"},
			}
			findings = append(findings, m.owaspMapper.Apply(finding))
		}
	}

	return findings
}

// Merge deduplicates findings across feeds by (package, vulnerability id),
// re-running the OWASP mapper over the merged record so categories stay
// consistent with the combined evidence.
func (m VulnerabilityMapper) Merge(groups ...[]VulnerabilityFinding) []VulnerabilityFinding {
	type key struct {
		pkg string
		id  string
	}
	merged := map[key]VulnerabilityFinding{}
	order := []key{}

	for _, group := range groups {
		for _, finding := range group {
			k := key{pkg: strings.ToLower(finding.Package), id: strings.ToUpper(finding.VulnerabilityID)}
			existing, ok := merged[k]
			if !ok {
				merged[k] = finding
				order = append(order, k)
				continue
			}
			merged[k] = m.mergeFindings(existing, finding)
		}
	}

	result := make([]VulnerabilityFinding, 0, len(order))
	for _, k := range order {
		result = append(result, merged[k])
	}
	return result
}

func (m VulnerabilityMapper) mergeFindings(left, right VulnerabilityFinding) VulnerabilityFinding {
	aliases := sortedUnique(append(append([]string{}, left.Aliases...), right.Aliases...))
	fixVersions := sortedUnique(append(append([]string{}, left.FixVersions...), right.FixVersions...))
	references := sortedUnique(append(append([]string{}, left.References...), right.References...))
	severity := pickMoreSevere(left.Severity, right.Severity)
	summary := left.Summary
	if summary == "" {
		summary = right.Summary
	}
	metadata := map[string]interface{}{}
	for k, v := range left.Metadata {
		metadata[k] = v
	}
	for k, v := range right.Metadata {
		metadata[k] = v
	}
	location := left.Location
	if location == "" {
		location = right.Location
	}
	version := left.Version
	if version == "" {
		version = right.Version
	}
	ecosystem := left.Ecosystem
	if ecosystem == "" {
		ecosystem = right.Ecosystem
	}
	source := left.Source
	if source == "" {
		source = right.Source
	}

	merged := VulnerabilityFinding{
		Name:            left.Name,
		Location:        location,
		Package:         left.Package,
		Version:         version,
		Ecosystem:       ecosystem,
		VulnerabilityID: left.VulnerabilityID,
		Severity:        severity,
		Summary:         summary,
		Aliases:         aliases,
		FixVersions:     fixVersions,
		References:      references,
		Source:          source,
		Metadata:        metadata,
	}
	return m.owaspMapper.Apply(merged)
}

// ToRadarFinding converts a mapped VulnerabilityFinding into the shared
// RadarFinding shape the detector layer and report builder consume, so
// OSV/pip-audit ingestion can be merged into a scan's findings list
// alongside the inline dependency-vulnerability detector's output.
func (f VulnerabilityFinding) ToRadarFinding() types.RadarFinding {
	finding := types.NewRadarFinding(
		fmt.Sprintf("DEP-VULN::%s::%s", f.Package, f.VulnerabilityID),
		fmt.Sprintf("Dependency '%s' has a known vulnerability (%s)", f.Package, f.VulnerabilityID),
		f.Severity,
		f.Summary,
		f.OWASPLLMCategories,
		f.OWASPAgenticCategories,
		"taxonomy-mapper",
	)
	subject := f.Package
	finding.Subject = &subject
	finding.Metadata["vulnerability_id"] = f.VulnerabilityID
	finding.Metadata["version"] = f.Version
	finding.Metadata["ecosystem"] = f.Ecosystem
	finding.Metadata["source"] = f.Source
	finding.Metadata["fix_versions"] = f.FixVersions
	finding.Metadata["references"] = f.References
	finding.Metadata["aliases"] = f.Aliases
	return finding
}

func pickMoreSevere(left, right string) string {
	leftLower := strings.ToLower(left)
	rightLower := strings.ToLower(right)
	leftLevel := severityOrder[leftLower]
	rightLevel := severityOrder[rightLower]

	var fallback string
	if left != "" {
		fallback = strings.ToUpper(left)
	} else if right != "" {
		fallback = strings.ToUpper(right)
	}

	if leftLevel == 0 && rightLevel == 0 {
		return fallback
	}
	if rightLevel > leftLevel {
		return strings.ToUpper(right)
	}
	if left != "" {
		return strings.ToUpper(left)
	}
	return fallback
}
