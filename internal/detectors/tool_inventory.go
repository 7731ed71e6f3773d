package detectors

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentic-radar/radar/pkg/types"
)

// ToolInventoryDetector flags tools missing a pinned version and tools
// sourced from an external (http/https) endpoint.
type ToolInventoryDetector struct{}

// Name identifies this detector in logs and finding metadata.
func (ToolInventoryDetector) Name() string { return "tool-inventory" }

// Run inspects project.Tools for missing version pins and external
// sourcing, mirroring the original scanner's two independent checks.
func (d ToolInventoryDetector) Run(_ context.Context, project types.ParsedProject) ([]types.RadarFinding, error) {
	var findings []types.RadarFinding

	for _, tool := range project.Tools {
		if tool.Version == nil || *tool.Version == "" {
			finding := types.NewRadarFinding(
				fmt.Sprintf("TOOL-NOVERSION::%s", tool.Name),
				fmt.Sprintf("Tool '%s' is missing a pinned version", tool.Name),
				types.SeverityMedium,
				"Tools should be version pinned to ensure deterministic security reviews and facilitate patch management.",
				[]string{"LLM02"},
				[]string{"Agentic-Tooling"},
				d.Name(),
			)
			finding.Subject = &tool.Name
			remediation := "Add an explicit version for the tool in the agent manifest."
			finding.Remediation = &remediation
			finding.Metadata["source"] = tool.Source
			findings = append(findings, finding)
		}

		if tool.Source != nil && strings.HasPrefix(*tool.Source, "http") {
			finding := types.NewRadarFinding(
				fmt.Sprintf("TOOL-EXTERNAL::%s", tool.Name),
				fmt.Sprintf("Tool '%s' is sourced from an external endpoint", tool.Name),
				types.SeverityLow,
				"External tool sources should be evaluated for supply-chain exposure and guarded with allow-lists or sandboxes.",
				[]string{"LLM06"},
				[]string{"Agentic-External-Tool"},
				d.Name(),
			)
			finding.Subject = &tool.Name
			remediation := "Review the external tool source and enforce provenance controls."
			finding.Remediation = &remediation
			finding.Metadata["source"] = *tool.Source
			findings = append(findings, finding)
		}
	}

	return findings, nil
}
