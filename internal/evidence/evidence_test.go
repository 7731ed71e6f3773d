package evidence

import (
	"archive/zip"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readZipNames(t *testing.T, path string) []string {
	t.Helper()
	reader, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer reader.Close()

	names := make([]string, 0, len(reader.File))
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	return names
}

func TestBuild_FindingsOnly(t *testing.T) {
	root := t.TempDir()
	findingsPath := filepath.Join(root, "report.json")
	writeFile(t, findingsPath, `{"findings":[]}`)

	builder := NewBuilder(nil)
	result, err := builder.Build(Options{FindingsPaths: []string{findingsPath}, TraceIDs: []string{"trace-1"}})
	require.NoError(t, err)

	names := readZipNames(t, result.PackPath)
	assert.Equal(t, []string{"findings/report.json", "metadata.json"}, names)
	assert.Equal(t, []string{"trace-1"}, result.Metadata["trace_ids"])
}

func TestBuild_WithLogsDirectory(t *testing.T) {
	root := t.TempDir()
	findingsPath := filepath.Join(root, "report.json")
	writeFile(t, findingsPath, `{}`)

	logsRoot := filepath.Join(root, "logs")
	writeFile(t, filepath.Join(logsRoot, "b.log"), "b")
	writeFile(t, filepath.Join(logsRoot, "a.log"), "a")

	builder := NewBuilder(nil)
	result, err := builder.Build(Options{
		FindingsPaths: []string{findingsPath},
		LogsPath:      logsRoot,
		OutputPath:    filepath.Join(root, "out.zip"),
	})
	require.NoError(t, err)

	names := readZipNames(t, result.PackPath)
	assert.Equal(t, []string{"findings/report.json", "logs/a.log", "logs/b.log", "metadata.json"}, names)
}

func TestBuild_MetadataIsLastEntry(t *testing.T) {
	root := t.TempDir()
	findingsPath := filepath.Join(root, "report.json")
	writeFile(t, findingsPath, `{}`)

	builder := NewBuilder(nil)
	result, err := builder.Build(Options{FindingsPaths: []string{findingsPath}})
	require.NoError(t, err)

	names := readZipNames(t, result.PackPath)
	assert.Equal(t, "metadata.json", names[len(names)-1])

	reader, err := zip.OpenReader(result.PackPath)
	require.NoError(t, err)
	defer reader.Close()

	for _, f := range reader.File {
		if f.Name == "metadata.json" {
			rc, err := f.Open()
			require.NoError(t, err)
			defer rc.Close()
			var metadata map[string]interface{}
			require.NoError(t, json.NewDecoder(rc).Decode(&metadata))
			assert.Equal(t, "agentic-radar-evidence", metadata["artifact_type"])
		}
	}
}

func TestBuild_NoFindingsPaths(t *testing.T) {
	builder := NewBuilder(nil)
	_, err := builder.Build(Options{})
	assert.Error(t, err)
}

func TestBuild_MissingFindingsFile(t *testing.T) {
	builder := NewBuilder(nil)
	_, err := builder.Build(Options{FindingsPaths: []string{filepath.Join(t.TempDir(), "missing.json")}})
	assert.Error(t, err)
}
