// Package report builds the final RadarReport artifact from a parsed
// project, its findings and scenario results, and serializes it to JSON,
// HTML and PDF.
package report

import (
	"encoding/json"
	"os"
	"path/filepath"

	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/types"
)

// Builder constructs RadarReport values from a scan or test run.
type Builder struct {
	IncludeProjectSnapshot bool
}

// NewBuilder returns a Builder. includeProjectSnapshot controls whether
// the parsed project inventory is embedded in the report or omitted.
func NewBuilder(includeProjectSnapshot bool) Builder {
	return Builder{IncludeProjectSnapshot: includeProjectSnapshot}
}

// Options carries the inputs Build needs beyond the project and findings.
type Options struct {
	Mode             string
	TraceIDs         []string
	ScenarioResults  []types.ScenarioResult
	Metadata         map[string]interface{}
}

// Build assembles a RadarReport: a severity histogram and inventory
// counts over findings, plus whatever trace IDs, scenario results and
// metadata the caller supplies.
func (b Builder) Build(project types.ParsedProject, findings []types.RadarFinding, opts Options) types.RadarReport {
	traceIDs := opts.TraceIDs
	if traceIDs == nil {
		traceIDs = []string{}
	}
	scenarioResults := opts.ScenarioResults
	if scenarioResults == nil {
		scenarioResults = []types.ScenarioResult{}
	}
	metadata := opts.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}
	if findings == nil {
		findings = []types.RadarFinding{}
	}

	summary := map[string]interface{}{
		"findings": types.SeverityTotals(findings),
		"inventory": map[string]interface{}{
			"agents":       len(project.Agents),
			"tools":        len(project.Tools),
			"mcp_servers":  len(project.MCPServers),
			"dependencies": len(project.Dependencies),
		},
		"mode": opts.Mode,
	}

	report := types.RadarReport{
		ProjectName:     project.ProjectName,
		Mode:            opts.Mode,
		GeneratedAt:     types.NowUTCISO(),
		Findings:        findings,
		Summary:         summary,
		TraceIDs:        traceIDs,
		ScenarioResults: scenarioResults,
		Metadata:        metadata,
	}
	if b.IncludeProjectSnapshot {
		projectCopy := project
		report.ParsedProject = &projectCopy
	}
	return report
}

// ToDict renders a report as a plain JSON-compatible map, matching the
// shape produced by report.WriteJSON.
func ToDict(report types.RadarReport) (map[string]interface{}, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, apperrors.NewReportError("failed to encode report: " + err.Error())
	}
	var dict map[string]interface{}
	if err := json.Unmarshal(raw, &dict); err != nil {
		return nil, apperrors.NewReportError("failed to decode report: " + err.Error())
	}
	return dict, nil
}

// FromDict reconstructs a RadarReport from the map produced by ToDict (or
// any JSON payload with the same field names), filling missing fields with
// defaults ("unknown" project name, scan mode, empty lists and metadata).
// ReadJSON does not apply these defaults.
func FromDict(payload map[string]interface{}) (types.RadarReport, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return types.RadarReport{}, apperrors.NewReportError("failed to encode payload: " + err.Error())
	}
	var report types.RadarReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return types.RadarReport{}, apperrors.NewReportError("failed to decode payload: " + err.Error())
	}
	if report.ProjectName == "" {
		report.ProjectName = "unknown"
	}
	if report.Mode == "" {
		report.Mode = types.ModeScan
	}
	if report.Findings == nil {
		report.Findings = []types.RadarFinding{}
	}
	if report.TraceIDs == nil {
		report.TraceIDs = []string{}
	}
	if report.ScenarioResults == nil {
		report.ScenarioResults = []types.ScenarioResult{}
	}
	if report.Metadata == nil {
		report.Metadata = map[string]interface{}{}
	}
	return report, nil
}

// WriteJSON serializes a report to path as two-space-indented JSON,
// creating parent directories as needed.
func WriteJSON(report types.RadarReport, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return apperrors.NewReportError("failed to create output directory: " + err.Error())
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return apperrors.NewReportError("failed to encode report: " + err.Error())
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return apperrors.NewReportError("failed to write report: " + err.Error())
	}
	return nil
}

// ReadJSON loads a report previously written by WriteJSON.
func ReadJSON(path string) (types.RadarReport, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return types.RadarReport{}, apperrors.NewReportError("failed to read report: " + err.Error())
	}
	var report types.RadarReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return types.RadarReport{}, apperrors.NewReportError("failed to decode report: " + err.Error())
	}
	return report, nil
}
