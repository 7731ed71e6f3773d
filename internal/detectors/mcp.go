package detectors

import (
	"context"
	"fmt"

	"github.com/agentic-radar/radar/pkg/types"
)

// MCPDetector flags MCP servers that declare no capabilities (violating
// least privilege) or that have no authentication configured.
type MCPDetector struct{}

// Name identifies this detector in logs and finding metadata.
func (MCPDetector) Name() string { return "mcp-server" }

// hardeningAuthModes lists auth_mode values treated as "unauthenticated",
// preserved case-sensitively to match the original scanner exactly.
var hardeningAuthModes = map[string]struct{}{
	"":          {},
	"anonymous": {},
	"none":      {},
}

// Run inspects project.MCPServers for missing capabilities and weak auth.
func (d MCPDetector) Run(_ context.Context, project types.ParsedProject) ([]types.RadarFinding, error) {
	var findings []types.RadarFinding

	for _, server := range project.MCPServers {
		if len(server.Capabilities) == 0 {
			finding := types.NewRadarFinding(
				fmt.Sprintf("MCP-NOCAP::%s", server.Name),
				fmt.Sprintf("MCP server '%s' does not declare capabilities", server.Name),
				types.SeverityMedium,
				"Declare explicit MCP capabilities to apply least privilege controls and map permissions to security policies.",
				[]string{"LLM08"},
				[]string{"Agentic-MCP-LeastPrivilege"},
				d.Name(),
			)
			finding.Subject = &server.Name
			remediation := "Document the MCP server capabilities and enforce policy checks."
			finding.Remediation = &remediation
			finding.Metadata["endpoint"] = server.Endpoint
			findings = append(findings, finding)
		}

		authMode := ""
		if server.AuthMode != nil {
			authMode = *server.AuthMode
		}
		if _, weak := hardeningAuthModes[authMode]; weak {
			finding := types.NewRadarFinding(
				fmt.Sprintf("MCP-NOAUTH::%s", server.Name),
				fmt.Sprintf("MCP server '%s' has no authentication configured", server.Name),
				types.SeverityHigh,
				"Unprotected MCP servers expose powerful automation capabilities. Use mutual authentication and scoped tokens.",
				[]string{"LLM04"},
				[]string{"Agentic-MCP-Hardening"},
				d.Name(),
			)
			finding.Subject = &server.Name
			remediation := "Require authentication and audit access for the MCP server."
			finding.Remediation = &remediation
			finding.Metadata["endpoint"] = server.Endpoint
			finding.Metadata["auth_mode"] = server.AuthMode
			findings = append(findings, finding)
		}
	}

	return findings, nil
}
