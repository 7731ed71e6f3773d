package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentic-radar/radar/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, root string, manifest map[string]interface{}) {
	t.Helper()
	require.NoError(t, os.MkdirAll(root, 0755))
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "agentic_radar.json"), raw, 0644))
}

func sampleManifest() map[string]interface{} {
	return map[string]interface{}{
		"project_name": "demo-agent",
		"agents":       []interface{}{map[string]interface{}{"name": "planner", "tools": []interface{}{"search"}}},
		"tools":        []interface{}{map[string]interface{}{"name": "search"}},
		"mcp_servers":  []interface{}{},
		"dependencies": []interface{}{},
	}
}

func TestService_RunScan_WritesReport(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	service := NewService(DefaultConfig(), nil, "")
	outputPath := filepath.Join(root, "out", "report.json")

	result, err := service.RunScan(context.Background(), ScanRequest{
		Root:       root,
		OutputPath: outputPath,
		TraceIDs:   []string{"trace-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ModeScan, result.Report.Mode)
	assert.Equal(t, "demo-agent", result.Report.ProjectName)
	assert.FileExists(t, outputPath)
	require.NotNil(t, result.Report.ParsedProject)
}

func TestService_RunScan_ReplicatesToObjectStore(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	storeRoot := t.TempDir()
	service := NewService(DefaultConfig(), nil, "")

	result, err := service.RunScan(context.Background(), ScanRequest{
		Root:            root,
		OutputPath:      filepath.Join(root, "report.json"),
		ObjectStoreRoot: storeRoot,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.StoredArtifact)
	assert.FileExists(t, result.StoredArtifact)
}

func TestService_RunScan_RecordsDetectorMetadata(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	service := NewService(DefaultConfig(), nil, "")
	result, err := service.RunScan(context.Background(), ScanRequest{
		Root:       root,
		OutputPath: filepath.Join(root, "report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tool-inventory", "mcp-server", "dependency-vulnerability"}, result.Report.Metadata["detectors"])
}

func TestService_RunScan_IngestsOSVReport(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	osvReport := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{
				"source": map[string]interface{}{"path": "requirements.txt"},
				"packages": []interface{}{
					map[string]interface{}{
						"package":  map[string]interface{}{"name": "requests", "ecosystem": "PyPI"},
						"versions": []interface{}{"2.25.0"},
						"vulnerabilities": []interface{}{
							map[string]interface{}{
								"id":      "OSV-2023-0001",
								"summary": "supply chain package takeover",
							},
						},
					},
				},
			},
		},
	}
	osvPath := filepath.Join(root, "osv-report.json")
	raw, err := json.Marshal(osvReport)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(osvPath, raw, 0644))

	service := NewService(DefaultConfig(), nil, "")
	result, err := service.RunScan(context.Background(), ScanRequest{
		Root:          root,
		OutputPath:    filepath.Join(root, "report.json"),
		OSVReportPath: osvPath,
	})
	require.NoError(t, err)

	var sawMappedVuln bool
	for _, finding := range result.Report.Findings {
		if finding.Identifier == "DEP-VULN::requests::OSV-2023-0001" {
			sawMappedVuln = true
			assert.Equal(t, "taxonomy-mapper", finding.Detector)
		}
	}
	assert.True(t, sawMappedVuln)
}

func TestService_RunScan_MissingRoot(t *testing.T) {
	service := NewService(DefaultConfig(), nil, "")
	_, err := service.RunScan(context.Background(), ScanRequest{
		Root:       filepath.Join(t.TempDir(), "missing"),
		OutputPath: filepath.Join(t.TempDir(), "report.json"),
	})
	assert.Error(t, err)
}

func TestService_RunTest_AggregatesScenarioFindings(t *testing.T) {
	root := t.TempDir()
	manifest := sampleManifest()
	manifest["metadata"] = map[string]interface{}{
		"test_expectations": map[string]interface{}{"prompt-injection": "fail"},
		"test_notes":        map[string]interface{}{"prompt-injection": "leaked system prompt"},
	}
	writeManifest(t, root, manifest)

	service := NewService(DefaultConfig(), nil, "")
	result, err := service.RunTest(context.Background(), TestRequest{
		Root:       root,
		OutputPath: filepath.Join(root, "test-report.json"),
		Scenarios:  []string{"prompt-injection"},
	})
	require.NoError(t, err)
	assert.Equal(t, types.ModeTest, result.Report.Mode)
	require.Len(t, result.ScenarioResults, 1)
	assert.Equal(t, types.ScenarioStatusFailed, result.ScenarioResults[0].Status)

	var sawScenarioFailure bool
	for _, finding := range result.Report.Findings {
		if finding.Identifier == "SCENARIO-FAIL::prompt-injection" {
			sawScenarioFailure = true
		}
	}
	assert.True(t, sawScenarioFailure)
	assert.Equal(t, []string{"prompt-injection"}, result.Report.Metadata["scenario_failures"])
}

func TestService_RunTest_RecordsDetectorMetadataWithScenarioRunner(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	service := NewService(DefaultConfig(), nil, "")
	result, err := service.RunTest(context.Background(), TestRequest{
		Root:       root,
		OutputPath: filepath.Join(root, "test-report.json"),
	})
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"tool-inventory", "mcp-server", "dependency-vulnerability", "scenario-runner"},
		result.Report.Metadata["detectors"])
}

func TestService_RunTest_DefaultScenarios(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, sampleManifest())

	service := NewService(DefaultConfig(), nil, "")
	result, err := service.RunTest(context.Background(), TestRequest{
		Root:       root,
		OutputPath: filepath.Join(root, "test-report.json"),
	})
	require.NoError(t, err)
	require.Len(t, result.ScenarioResults, 4)
	for _, r := range result.ScenarioResults {
		assert.Equal(t, types.ScenarioStatusPassed, r.Status)
	}
}
