package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommonRunFlags_Defaults(t *testing.T) {
	flags, rest, err := parseCommonRunFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, ".", flags.path)
	assert.True(t, flags.includeSnapshot)
	assert.Empty(t, rest)
}

func TestParseCommonRunFlags_FullSurface(t *testing.T) {
	flags, rest, err := parseCommonRunFlags([]string{
		"/tmp/project",
		"--output=report.json",
		"--object-store=/tmp/store",
		"--trace-id=trace-1",
		"--trace-id=trace-2",
		"--label=team=platform",
		"--no-project-snapshot",
		"--scenario=prompt-injection",
	})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/project", flags.path)
	assert.Equal(t, "report.json", flags.output)
	assert.Equal(t, "/tmp/store", flags.objectStore)
	assert.Equal(t, []string{"trace-1", "trace-2"}, flags.traceIDs)
	assert.Equal(t, "platform", flags.labels["team"])
	assert.False(t, flags.includeSnapshot)
	assert.Equal(t, []string{"--scenario=prompt-injection"}, rest)
}

func TestParseCommonRunFlags_InvalidLabel(t *testing.T) {
	_, _, err := parseCommonRunFlags([]string{"--label=not-a-pair"})
	assert.Error(t, err)
}

func TestRunScan_WritesReportToDefaultPath(t *testing.T) {
	root := t.TempDir()
	manifest := map[string]interface{}{
		"project_name": "demo-agent",
		"tools":        []interface{}{map[string]interface{}{"name": "search"}},
	}
	raw, err := json.Marshal(manifest)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "agentic_radar.json"), raw, 0644))

	require.NoError(t, runScan([]string{root}))
	assert.FileExists(t, filepath.Join(root, "agentic-radar-report.json"))
}

func TestRunEvidence_RequiresFindings(t *testing.T) {
	err := runEvidence([]string{"pack"})
	assert.Error(t, err)
}

func TestRunEvidence_BuildsPack(t *testing.T) {
	root := t.TempDir()
	findingsPath := filepath.Join(root, "report.json")
	require.NoError(t, os.WriteFile(findingsPath, []byte(`{}`), 0644))

	err := runEvidence([]string{"pack", "--findings=" + findingsPath, "--output=" + filepath.Join(root, "pack.zip")})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(root, "pack.zip"))
}
