package walker

import (
	"bufio"
	"encoding/json"
	"os"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// MCPServerFinding captures metadata about an MCP server or client
// discovered in source code or configuration.
type MCPServerFinding struct {
	Name     string
	Endpoint string
	Location string
	Metadata map[string]interface{}
}

var (
	endpointKeys    = map[string]struct{}{"uri": {}, "url": {}, "endpoint": {}, "server": {}, "server_url": {}, "base_url": {}, "address": {}}
	capabilityKeys  = map[string]struct{}{"capabilities": {}, "tools": {}, "permissions": {}}
	reMCPCall       = regexp.MustCompile(`([\w.]*[Mm][Cc][Pp][\w.]*)\s*\(([^)]*)\)`)
	reStringKwarg   = regexp.MustCompile(`(\w+)\s*=\s*["']([^"']+)["']`)
	reStringPos     = regexp.MustCompile(`\(\s*["']([^"']+)["']`)
	reMCPURL        = regexp.MustCompile(`(?P<endpoint>(?:mcp|https?)://[^\s'"]+)`)
)

// MCPWalker discovers MCP servers referenced from Python source files and
// from JSON/YAML configuration trees, falling back to a raw-text regex
// scan when a config file fails to parse as structured data.
type MCPWalker struct {
	walker SourceWalker
}

// NewMCPWalker builds an MCPWalker scoped to .py/.json/.yaml/.yml files.
func NewMCPWalker() MCPWalker {
	return MCPWalker{walker: NewSourceWalker(".py", ".json", ".yaml", ".yml")}
}

// ScanPaths walks paths and returns every MCP server finding across all
// matched files.
func (m MCPWalker) ScanPaths(paths []string) ([]MCPServerFinding, error) {
	files, err := m.walker.WalkFiles(paths)
	if err != nil {
		return nil, err
	}
	var findings []MCPServerFinding
	for _, path := range files {
		findings = append(findings, scanMCPFile(path)...)
	}
	return findings, nil
}

func scanMCPFile(path string) []MCPServerFinding {
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".py"):
		return scanMCPPython(path)
	case strings.HasSuffix(lower, ".json"), strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return scanMCPConfig(path)
	default:
		return nil
	}
}

func scanMCPPython(path string) []MCPServerFinding {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var findings []MCPServerFinding
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		matches := reMCPCall.FindAllStringSubmatch(line, -1)
		for _, m := range matches {
			callName := m[1]
			args := m[2]
			endpoint := extractEndpoint(args)
			capabilities := extractCapabilities(args)
			name := callName
			if idx := strings.LastIndex(callName, "."); idx >= 0 {
				name = callName[idx+1:]
			}
			findings = append(findings, MCPServerFinding{
				Name:     name,
				Endpoint: endpoint,
				Location: path,
				Metadata: map[string]interface{}{
					"call":         callName,
					"capabilities": capabilities,
				},
			})
		}
	}
	return findings
}

func extractEndpoint(args string) string {
	for _, kw := range reStringKwarg.FindAllStringSubmatch(args, -1) {
		key := strings.ToLower(kw[1])
		if _, ok := endpointKeys[key]; ok {
			return kw[2]
		}
	}
	if m := reStringPos.FindStringSubmatch("(" + args); m != nil {
		return m[1]
	}
	return ""
}

func extractCapabilities(args string) []string {
	for _, key := range sortedKeys(capabilityKeys) {
		re := regexp.MustCompile(key + `\s*=\s*\[([^\]]*)\]`)
		if m := re.FindStringSubmatch(args); m != nil {
			var items []string
			for _, lit := range regexp.MustCompile(`["']([^"']+)["']`).FindAllStringSubmatch(m[1], -1) {
				items = append(items, lit[1])
			}
			return items
		}
	}
	return nil
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scanMCPConfig(path string) []MCPServerFinding {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	text := string(raw)

	var data interface{}
	var parseErr error
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		parseErr = json.Unmarshal(raw, &data)
	} else {
		parseErr = yaml.Unmarshal(raw, &data)
	}

	if parseErr != nil || data == nil {
		return scanTextForMCP(text, path)
	}

	var findings []MCPServerFinding
	for _, entry := range findMCPInMapping(normalizeYAML(data), nil, map[uintptr]struct{}{}) {
		name, _ := entry["name"].(string)
		if name == "" {
			name = "mcp_server"
		}
		endpoint, _ := entry["endpoint"].(string)
		metadata := map[string]interface{}{}
		for k, v := range entry {
			if k == "name" || k == "endpoint" {
				continue
			}
			metadata[k] = v
		}
		findings = append(findings, MCPServerFinding{
			Name:     name,
			Endpoint: endpoint,
			Location: path,
			Metadata: metadata,
		})
	}
	return findings
}

// normalizeYAML converts map[interface{}]interface{} nodes (as produced by
// some YAML decoders) into map[string]interface{} so downstream mapping
// lookups can use plain string keys.
func normalizeYAML(node interface{}) interface{} {
	switch v := node.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(v))
		for k, val := range v {
			out[toString(k)] = normalizeYAML(val)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, val := range v {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

// findMCPInMapping walks a decoded JSON/YAML tree looking for mappings
// that either have an "mcp"-containing key or carry a recognized endpoint
// key, mirroring _find_mcp_in_mapping's trail-based recursive descent.
// visited tracks the identity (backing pointer) of every map/slice already
// descended into, so a cyclic tree (e.g. from a YAML anchor decoded into a
// self-referencing map[string]interface{}) is walked as the finite tree it
// represents instead of recursing forever.
func findMCPInMapping(node interface{}, trail []string, visited map[uintptr]struct{}) []map[string]interface{} {
	var findings []map[string]interface{}

	switch v := node.(type) {
	case map[string]interface{}:
		if len(v) > 0 {
			ptr := reflect.ValueOf(v).Pointer()
			if _, seen := visited[ptr]; seen {
				return nil
			}
			visited[ptr] = struct{}{}
		}

		isMCP := false
		var endpointKey string
		for key := range v {
			if strings.Contains(strings.ToLower(key), "mcp") {
				isMCP = true
			}
			if _, ok := endpointKeys[strings.ToLower(key)]; ok {
				endpointKey = key
			}
		}
		var endpoint interface{}
		if endpointKey != "" {
			endpoint = v[endpointKey]
		}
		if isMCP || endpoint != nil {
			name := ""
			if n, ok := v["name"].(string); ok {
				name = n
			} else if id, ok := v["id"].(string); ok {
				name = id
			} else if len(trail) > 0 {
				name = strings.Join(trail, ".")
			} else {
				name = "mcp"
			}
			entry := map[string]interface{}{"name": name}
			if endpointStr, ok := endpoint.(string); ok {
				entry["endpoint"] = endpointStr
			} else {
				entry["endpoint"] = nil
			}
			for key, value := range v {
				if _, ok := capabilityKeys[strings.ToLower(key)]; ok {
					if _, isList := value.([]interface{}); isList {
						entry[key] = value
					}
				}
			}
			findings = append(findings, entry)
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, key := range keys {
			findings = append(findings, findMCPInMapping(v[key], append(append([]string{}, trail...), key), visited)...)
		}
	case []interface{}:
		if len(v) > 0 {
			ptr := reflect.ValueOf(v).Pointer()
			if _, seen := visited[ptr]; seen {
				return nil
			}
			visited[ptr] = struct{}{}
		}
		for i, value := range v {
			findings = append(findings, findMCPInMapping(value, append(append([]string{}, trail...), strconv.Itoa(i)), visited)...)
		}
	}
	return findings
}

func scanTextForMCP(text, path string) []MCPServerFinding {
	var findings []MCPServerFinding
	for _, m := range reMCPURL.FindAllString(text, -1) {
		findings = append(findings, MCPServerFinding{
			Name:     "mcp_endpoint",
			Endpoint: m,
			Location: path + ":?",
			Metadata: map[string]interface{}{"extracted_from": "text"},
		})
	}
	return findings
}
