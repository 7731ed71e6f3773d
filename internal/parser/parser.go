// Package parser turns a project directory on disk into a
// types.ParsedProject: either by reading an explicit radar manifest, or,
// failing that, by deriving a minimal inventory from the source tree.
package parser

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/agentic-radar/radar/internal/walker"
	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/types"
)

// manifestCandidates lists the manifest filenames looked up, in order, at
// the project root.
var manifestCandidates = []string{
	"agentic_radar.json",
	"agentic_radar_manifest.json",
	"radar_manifest.json",
}

// manifestPayload mirrors the on-disk manifest shape; every field is
// optional so a hand-written manifest can omit whole sections.
type manifestPayload struct {
	Project     string                   `json:"project"`
	ProjectName string                   `json:"project_name"`
	Agents      []agentPayload           `json:"agents"`
	Tools       []toolPayload            `json:"tools"`
	MCPServers  []mcpServerPayload       `json:"mcp_servers"`
	Dependencies []dependencyPayload     `json:"dependencies"`
	Metadata    map[string]interface{}  `json:"metadata"`
}

type agentPayload struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Tools       []string `json:"tools"`
}

type toolPayload struct {
	Name    string  `json:"name"`
	Version *string `json:"version"`
	Source  *string `json:"source"`
	Scope   *string `json:"scope"`
}

type mcpServerPayload struct {
	Name         string   `json:"name"`
	Endpoint     string   `json:"endpoint"`
	Capabilities []string `json:"capabilities"`
	AuthMode     *string  `json:"auth_mode"`
}

type dependencyPayload struct {
	Name            string                            `json:"name"`
	Version         *string                            `json:"version"`
	License         *string                            `json:"license"`
	Vulnerabilities []types.DependencyVulnerability    `json:"vulnerabilities"`
}

// ProjectParser parses a project root into a ParsedProject, preferring an
// explicit or discovered manifest over tree-derived heuristics.
type ProjectParser struct {
	// ExplicitManifest, if set, is read instead of the discovery walk.
	ExplicitManifest string
}

// New builds a ProjectParser. An empty explicitManifest means "discover".
func New(explicitManifest string) *ProjectParser {
	return &ProjectParser{ExplicitManifest: explicitManifest}
}

// Parse reads root and returns the resulting ParsedProject.
func (p *ProjectParser) Parse(root string) (types.ParsedProject, error) {
	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return types.ParsedProject{}, apperrors.NewParserError(
			"project root '" + root + "' does not exist or is not a directory")
	}

	manifestPath := p.ExplicitManifest
	discovered := manifestPath != ""
	if manifestPath == "" {
		manifestPath = discoverManifest(root)
		discovered = manifestPath != ""
	}

	var data manifestPayload
	if discovered {
		data, err = loadManifest(manifestPath)
		if err != nil {
			return types.ParsedProject{}, err
		}
	} else {
		data = deriveManifest(root)
	}

	projectName := data.Project
	if projectName == "" {
		projectName = data.ProjectName
	}
	if projectName == "" {
		projectName = filepath.Base(root)
	}

	agents := make([]types.AgentComponent, 0, len(data.Agents))
	for _, item := range data.Agents {
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		tools := item.Tools
		if tools == nil {
			tools = []string{}
		}
		agents = append(agents, types.AgentComponent{
			Name:        name,
			Description: item.Description,
			Tools:       tools,
		})
	}

	tools := make([]types.Tool, 0, len(data.Tools))
	for _, item := range data.Tools {
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		tools = append(tools, types.Tool{
			Name:    name,
			Version: item.Version,
			Source:  item.Source,
			Scope:   item.Scope,
		})
	}

	mcpServers := make([]types.MCPServer, 0, len(data.MCPServers))
	for _, item := range data.MCPServers {
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		mcpServers = append(mcpServers, types.NewMCPServer(name, item.Endpoint, item.Capabilities, item.AuthMode))
	}

	dependencies := make([]types.Dependency, 0, len(data.Dependencies))
	for _, item := range data.Dependencies {
		name := item.Name
		if name == "" {
			name = "unknown"
		}
		vulns := item.Vulnerabilities
		if vulns == nil {
			vulns = []types.DependencyVulnerability{}
		}
		dependencies = append(dependencies, types.Dependency{
			Name:            name,
			Version:         item.Version,
			License:         item.License,
			Vulnerabilities: vulns,
		})
	}

	metadata := map[string]interface{}{}
	for k, v := range data.Metadata {
		metadata[k] = v
	}
	if discovered {
		setDefault(metadata, "manifest_path", manifestPath)
		setDefault(metadata, "manifest_discovered", true)
	} else {
		setDefault(metadata, "manifest_generated", true)
	}

	return types.ParsedProject{
		Root:         root,
		ProjectName:  projectName,
		Agents:       agents,
		Tools:        tools,
		MCPServers:   mcpServers,
		Dependencies: dependencies,
		Metadata:     metadata,
	}, nil
}

func setDefault(m map[string]interface{}, key string, value interface{}) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

func discoverManifest(root string) string {
	for _, candidate := range manifestCandidates {
		path := filepath.Join(root, candidate)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

func loadManifest(path string) (manifestPayload, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifestPayload{}, apperrors.NewParserError(
			"failed to read manifest '" + path + "': " + err.Error())
	}
	var data manifestPayload
	if err := json.Unmarshal(raw, &data); err != nil {
		return manifestPayload{}, apperrors.NewParserError(
			"failed to parse manifest '" + path + "': " + err.Error())
	}
	return data, nil
}

// deriveManifest builds a flat heuristic manifest from the source tree:
// every non-test source file becomes a synthetic agent with no tools, and
// internal/walker's static scanners fill in the tool inventory and MCP
// server list that a hand-authored manifest would otherwise carry. Kept
// intentionally simple for parity with the original derivation pass.
func deriveManifest(root string) manifestPayload {
	seen := map[string]struct{}{}
	agents := []agentPayload{}

	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if !isSourceFile(info.Name()) {
			return nil
		}
		if strings.HasPrefix(info.Name(), "test_") || strings.HasSuffix(info.Name(), "_test.go") {
			return nil
		}
		stem := strings.TrimSuffix(info.Name(), filepath.Ext(info.Name()))
		agentName := strings.ReplaceAll(stem, "_", "-")
		if _, ok := seen[agentName]; ok {
			return nil
		}
		seen[agentName] = struct{}{}
		agents = append(agents, agentPayload{Name: agentName, Tools: []string{}})
		return nil
	})

	return manifestPayload{
		Project:      filepath.Base(root),
		Agents:       agents,
		Tools:        deriveTools(root),
		MCPServers:   deriveMCPServers(root),
		Dependencies: []dependencyPayload{},
		Metadata:     map[string]interface{}{"derived_from_source": true},
	}
}

// deriveTools runs the tool-definition walker over root and collapses its
// findings into manifest tool entries, one per distinct name.
func deriveTools(root string) []toolPayload {
	findings, err := walker.NewToolWalker().ScanPaths([]string{root})
	if err != nil {
		return []toolPayload{}
	}

	seen := map[string]struct{}{}
	tools := []toolPayload{}
	for _, finding := range findings {
		if _, ok := seen[finding.Name]; ok {
			continue
		}
		seen[finding.Name] = struct{}{}
		tools = append(tools, toolPayload{Name: finding.Name})
	}
	return tools
}

// deriveMCPServers runs the MCP walker over root and collapses its
// findings into manifest MCP server entries, one per distinct name,
// pulling capabilities and auth_mode out of each finding's metadata when
// the walker recovered them.
func deriveMCPServers(root string) []mcpServerPayload {
	findings, err := walker.NewMCPWalker().ScanPaths([]string{root})
	if err != nil {
		return []mcpServerPayload{}
	}

	seen := map[string]struct{}{}
	servers := []mcpServerPayload{}
	for _, finding := range findings {
		if _, ok := seen[finding.Name]; ok {
			continue
		}
		seen[finding.Name] = struct{}{}
		servers = append(servers, mcpServerPayload{
			Name:         finding.Name,
			Endpoint:     finding.Endpoint,
			Capabilities: mcpCapabilitiesFromMetadata(finding.Metadata),
			AuthMode:     mcpAuthModeFromMetadata(finding.Metadata),
		})
	}
	return servers
}

func mcpCapabilitiesFromMetadata(metadata map[string]interface{}) []string {
	for _, key := range []string{"capabilities", "tools", "permissions"} {
		raw, ok := metadata[key]
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case []string:
			return v
		case []interface{}:
			capabilities := make([]string, 0, len(v))
			for _, item := range v {
				if s, ok := item.(string); ok {
					capabilities = append(capabilities, s)
				}
			}
			return capabilities
		}
	}
	return nil
}

func mcpAuthModeFromMetadata(metadata map[string]interface{}) *string {
	raw, ok := metadata["auth_mode"]
	if !ok {
		return nil
	}
	if s, ok := raw.(string); ok {
		return &s
	}
	return nil
}

func isSourceFile(name string) bool {
	switch filepath.Ext(name) {
	case ".py", ".go", ".js", ".ts":
		return true
	default:
		return false
	}
}
