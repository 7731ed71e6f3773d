package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentic-radar/radar/pkg/types"
)

// DependencyVulnerabilityDetector emits one finding per vulnerability
// entry attached inline to a manifest dependency. It is intentionally
// simpler than internal/taxonomy's OSV/pip-audit mapper: it works
// directly off whatever severity/identifier the manifest already carries
// and does not attempt OWASP rule matching beyond a fixed category pair.
type DependencyVulnerabilityDetector struct{}

// Name identifies this detector in logs and finding metadata.
func (DependencyVulnerabilityDetector) Name() string { return "dependency-vulnerability" }

// Run emits a finding for every (dependency, vulnerability) pair found in
// the manifest.
func (d DependencyVulnerabilityDetector) Run(_ context.Context, project types.ParsedProject) ([]types.RadarFinding, error) {
	var findings []types.RadarFinding

	for _, dependency := range project.Dependencies {
		for _, vuln := range dependency.Vulnerabilities {
			severity := strings.ToLower(vuln.Severity)
			if severity == "" {
				severity = types.SeverityUnknown
			}
			identifier := vuln.Identifier()
			if identifier == "" {
				identifier = fmt.Sprintf("VULN::%s", dependency.Name)
			}

			description := vuln.Description
			if description == "" {
				description = "Dependency vulnerability reported by upstream advisory feeds."
			}

			finding := types.NewRadarFinding(
				fmt.Sprintf("DEP-VULN::%s::%s", dependency.Name, identifier),
				fmt.Sprintf("Dependency '%s' has a known vulnerability", dependency.Name),
				severity,
				description,
				[]string{"LLM06"},
				[]string{"Agentic-SupplyChain"},
				d.Name(),
			)
			finding.Subject = &dependency.Name
			finding.Remediation = vuln.FixVersion
			finding.Metadata["id"] = identifier
			finding.Metadata["severity"] = severity
			finding.Metadata["fix_version"] = vuln.FixVersion
			findings = append(findings, finding)
		}
	}

	return findings, nil
}
