package walker

import (
	"bufio"
	"os"
	"regexp"
	"strings"
)

// ToolFinding is a single tool definition discovered in source.
type ToolFinding struct {
	Name           string
	Location       string
	DefinitionType string // "function", "class", "assignment"
	Metadata       map[string]interface{}
}

var (
	toolDecoratorKeywords = []string{"tool", "register_tool", "langchain.tool", "lc_tool"}
	toolClassSuffixes     = []string{"Tool", "BaseTool"}
	toolCallKeywords      = map[string]struct{}{"Tool": {}, "StructuredTool": {}, "PythonREPLTool": {}, "BaseTool": {}}

	reDecorator   = regexp.MustCompile(`^\s*@([\w.]+)`)
	reFuncDef     = regexp.MustCompile(`^\s*(?:async\s+)?def\s+([\w]+)\s*\(`)
	reClassDef    = regexp.MustCompile(`^\s*class\s+([\w]+)\s*\(([^)]*)\)\s*:`)
	reAssignCall  = regexp.MustCompile(`^\s*([\w, :]+?)\s*=\s*([\w.]+)\s*\(`)
)

// ToolWalker discovers tool definitions in Python source files: decorated
// functions, classes deriving from a *Tool base, and call-assignments to
// known tool constructors.
type ToolWalker struct {
	walker SourceWalker
}

// NewToolWalker builds a ToolWalker scoped to .py files.
func NewToolWalker() ToolWalker {
	return ToolWalker{walker: NewSourceWalker(".py")}
}

// ScanPaths walks paths and returns every tool finding across all files.
func (t ToolWalker) ScanPaths(paths []string) ([]ToolFinding, error) {
	files, err := t.walker.WalkFiles(paths)
	if err != nil {
		return nil, err
	}
	var findings []ToolFinding
	for _, path := range files {
		findings = append(findings, scanToolFile(path)...)
	}
	return findings, nil
}

func scanToolFile(path string) []ToolFinding {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	var findings []ToolFinding
	var pendingDecorators []string

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if m := reDecorator.FindStringSubmatch(line); m != nil {
			pendingDecorators = append(pendingDecorators, m[1])
			continue
		}

		if m := reFuncDef.FindStringSubmatch(line); m != nil {
			decorators := pendingDecorators
			pendingDecorators = nil
			if matches := filterDecorators(decorators); len(matches) > 0 {
				findings = append(findings, ToolFinding{
					Name:           m[1],
					Location:       path,
					DefinitionType: "function",
					Metadata: map[string]interface{}{
						"decorators": decorators,
					},
				})
			}
			continue
		}

		if m := reClassDef.FindStringSubmatch(line); m != nil {
			pendingDecorators = nil
			bases := splitBases(m[2])
			if matches := filterToolBases(bases); len(matches) > 0 {
				findings = append(findings, ToolFinding{
					Name:           m[1],
					Location:       path,
					DefinitionType: "class",
					Metadata: map[string]interface{}{
						"bases": bases,
					},
				})
			}
			continue
		}

		if m := reAssignCall.FindStringSubmatch(line); m != nil {
			pendingDecorators = nil
			callName := m[2]
			if isToolCall(callName) {
				targets := splitTargets(m[1])
				name := strings.Join(targets, ", ")
				if name == "" {
					name = callName
				}
				findings = append(findings, ToolFinding{
					Name:           name,
					Location:       path,
					DefinitionType: "assignment",
					Metadata: map[string]interface{}{
						"call": callName,
					},
				})
			}
			continue
		}

		if strings.TrimSpace(line) != "" {
			pendingDecorators = nil
		}
	}
	return findings
}

func filterDecorators(decorators []string) []string {
	var matches []string
	for _, name := range decorators {
		lower := strings.ToLower(name)
		for _, keyword := range toolDecoratorKeywords {
			if strings.HasSuffix(lower, keyword) || strings.Contains(lower, keyword) {
				matches = append(matches, name)
				break
			}
		}
	}
	return matches
}

func filterToolBases(bases []string) []string {
	var matches []string
	for _, base := range bases {
		for _, suffix := range toolClassSuffixes {
			if strings.HasSuffix(base, suffix) {
				matches = append(matches, base)
				break
			}
		}
	}
	return matches
}

func isToolCall(callName string) bool {
	parts := strings.Split(callName, ".")
	base := parts[len(parts)-1]
	if _, ok := toolCallKeywords[base]; ok {
		return true
	}
	return strings.HasSuffix(strings.ToLower(base), "tool")
}

func splitBases(raw string) []string {
	var bases []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			bases = append(bases, part)
		}
	}
	return bases
}

func splitTargets(raw string) []string {
	var targets []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(strings.Split(part, ":")[0])
		if part != "" {
			targets = append(targets, part)
		}
	}
	return targets
}
