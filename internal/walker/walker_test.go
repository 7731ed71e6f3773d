package walker

import (
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

func TestSourceWalker_WalkFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.py"), "x = 1")
	writeFile(t, filepath.Join(root, "b.json"), "{}")
	writeFile(t, filepath.Join(root, "nested", "c.py"), "y = 2")

	w := NewSourceWalker(".py")
	files, err := w.WalkFiles([]string{root})
	require.NoError(t, err)
	assert.Len(t, files, 2)
}

func TestToolWalker_DecoratedFunction(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "agent.py")
	writeFile(t, path, "@tool\ndef search(query: str) -> str:\n    return query\n")

	findings, err := NewToolWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "search", findings[0].Name)
	assert.Equal(t, "function", findings[0].DefinitionType)
}

func TestToolWalker_ClassBase(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "agent.py")
	writeFile(t, path, "class WebSearchTool(BaseTool):\n    pass\n")

	findings, err := NewToolWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "WebSearchTool", findings[0].Name)
	assert.Equal(t, "class", findings[0].DefinitionType)
}

func TestToolWalker_AssignmentCall(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "agent.py")
	writeFile(t, path, "search_tool = StructuredTool(name=\"search\")\n")

	findings, err := NewToolWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "search_tool", findings[0].Name)
	assert.Equal(t, "assignment", findings[0].DefinitionType)
}

func TestToolWalker_NoMatch(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "agent.py")
	writeFile(t, path, "def helper():\n    pass\n")

	findings, err := NewToolWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	assert.Empty(t, findings)
}

func TestMCPWalker_PythonCall(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "client.py")
	writeFile(t, path, "client = MCPClient(endpoint=\"stdio://fs\", capabilities=[\"read\", \"write\"])\n")

	findings, err := NewMCPWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "stdio://fs", findings[0].Endpoint)
	assert.Equal(t, []string{"read", "write"}, findings[0].Metadata["capabilities"])
}

func TestMCPWalker_JSONConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mcp.json")
	writeFile(t, path, `{"servers": [{"name": "fs", "endpoint": "stdio://fs", "capabilities": ["read"]}]}`)

	findings, err := NewMCPWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "fs", findings[0].Name)
	assert.Equal(t, "stdio://fs", findings[0].Endpoint)
}

func TestMCPWalker_YAMLConfig(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mcp.yaml")
	writeFile(t, path, "mcp_servers:\n  - name: fs\n    endpoint: stdio://fs\n    capabilities: [read]\n")

	findings, err := NewMCPWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.NotEmpty(t, findings)
}

func TestMCPWalker_TextFallback(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "mcp.json")
	writeFile(t, path, "not valid json but has mcp://local/endpoint in it")

	findings, err := NewMCPWalker().ScanPaths([]string{root})
	require.NoError(t, err)
	require.Len(t, findings, 1)
	assert.Equal(t, "mcp://local/endpoint", findings[0].Endpoint)
	assert.Equal(t, "text", findings[0].Metadata["extracted_from"])
}
