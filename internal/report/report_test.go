package report

import (
	"path/filepath"
	"testing"

	"github.com/agentic-radar/radar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleProject() types.ParsedProject {
	return types.ParsedProject{
		Root:        "/tmp/project",
		ProjectName: "demo-agent",
		Agents:      []types.AgentComponent{{Name: "planner", Tools: []string{"search"}}},
		Tools:       []types.Tool{{Name: "search"}},
		MCPServers:  []types.MCPServer{},
		Dependencies: []types.Dependency{
			{Name: "requests"},
		},
		Metadata: map[string]interface{}{},
	}
}

func sampleFindings() []types.RadarFinding {
	return []types.RadarFinding{
		types.NewRadarFinding("TOOL-NOVERSION::search", "Tool missing version", types.SeverityMedium, "no version", []string{"LLM02"}, []string{"AA06"}, "tool-inventory"),
	}
}

func TestBuilder_Build_SummaryAndInventory(t *testing.T) {
	builder := NewBuilder(true)
	report := builder.Build(sampleProject(), sampleFindings(), Options{Mode: types.ModeScan, TraceIDs: []string{"trace-1"}})

	assert.Equal(t, "demo-agent", report.ProjectName)
	assert.Equal(t, types.ModeScan, report.Mode)
	require.NotNil(t, report.ParsedProject)
	assert.Equal(t, "demo-agent", report.ParsedProject.ProjectName)

	inventory := report.Summary["inventory"].(map[string]interface{})
	assert.Equal(t, 1, inventory["agents"])
	assert.Equal(t, 1, inventory["tools"])
	assert.Equal(t, 0, inventory["mcp_servers"])
	assert.Equal(t, 1, inventory["dependencies"])

	findingTotals := report.Summary["findings"].(map[string]interface{})
	assert.Equal(t, 1, findingTotals["total"])
	assert.Equal(t, 1, findingTotals["medium"])
}

func TestBuilder_Build_ExcludesSnapshot(t *testing.T) {
	builder := NewBuilder(false)
	report := builder.Build(sampleProject(), nil, Options{Mode: types.ModeTest})
	assert.Nil(t, report.ParsedProject)
	assert.Empty(t, report.Findings)
	assert.Empty(t, report.TraceIDs)
}

func TestToDictFromDict_RoundTrip(t *testing.T) {
	builder := NewBuilder(true)
	original := builder.Build(sampleProject(), sampleFindings(), Options{
		Mode:     types.ModeScan,
		TraceIDs: []string{"trace-1", "trace-2"},
		Metadata: map[string]interface{}{"detectors": []interface{}{"tool-inventory"}},
	})

	dict, err := ToDict(original)
	require.NoError(t, err)

	restored, err := FromDict(dict)
	require.NoError(t, err)

	assert.Equal(t, original.ProjectName, restored.ProjectName)
	assert.Equal(t, original.Mode, restored.Mode)
	assert.Equal(t, original.TraceIDs, restored.TraceIDs)
	require.Len(t, restored.Findings, 1)
	assert.Equal(t, original.Findings[0].Identifier, restored.Findings[0].Identifier)
	require.NotNil(t, restored.ParsedProject)
	assert.Equal(t, original.ParsedProject.ProjectName, restored.ParsedProject.ProjectName)
}

func TestFromDict_DefaultsOnMissingFields(t *testing.T) {
	restored, err := FromDict(map[string]interface{}{})
	require.NoError(t, err)
	assert.Equal(t, "unknown", restored.ProjectName)
	assert.Equal(t, types.ModeScan, restored.Mode)
	assert.NotNil(t, restored.Findings)
	assert.NotNil(t, restored.TraceIDs)
	assert.NotNil(t, restored.ScenarioResults)
	assert.NotNil(t, restored.Metadata)
}

func TestWriteJSON_ReadJSON_RoundTrip(t *testing.T) {
	builder := NewBuilder(true)
	report := builder.Build(sampleProject(), sampleFindings(), Options{Mode: types.ModeScan})

	path := filepath.Join(t.TempDir(), "nested", "report.json")
	require.NoError(t, WriteJSON(report, path))

	restored, err := ReadJSON(path)
	require.NoError(t, err)
	assert.Equal(t, report.ProjectName, restored.ProjectName)
	require.Len(t, restored.Findings, 1)
	assert.Equal(t, report.Findings[0].Identifier, restored.Findings[0].Identifier)
}

func TestRenderHTML_ContainsFindingTitle(t *testing.T) {
	builder := NewBuilder(true)
	report := builder.Build(sampleProject(), sampleFindings(), Options{Mode: types.ModeScan})

	html, err := RenderHTML(report)
	require.NoError(t, err)
	assert.Contains(t, html, "Tool missing version")
	assert.Contains(t, html, "demo-agent")
}

func TestRenderPDF_ProducesNonEmptyDocument(t *testing.T) {
	builder := NewBuilder(true)
	report := builder.Build(sampleProject(), sampleFindings(), Options{Mode: types.ModeScan})

	pdf, err := RenderPDF(report)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)
	assert.Equal(t, "%PDF", string(pdf[:4]))
}
