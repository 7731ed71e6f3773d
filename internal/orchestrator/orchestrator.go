// Package orchestrator wires the parser, detectors, scenario runner and
// report builder into the two blocking entry points the CLI calls:
// RunScan and RunTest. There is no job queue or worker pool here: a run
// is a single synchronous call that returns (or fails) before the caller
// gets control back, per the project's "pure, deterministic pipeline"
// design.
package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/agentic-radar/radar/internal/detectors"
	"github.com/agentic-radar/radar/internal/objectstore"
	"github.com/agentic-radar/radar/internal/parser"
	"github.com/agentic-radar/radar/internal/report"
	"github.com/agentic-radar/radar/internal/scenario"
	"github.com/agentic-radar/radar/internal/taxonomy"
	apperrors "github.com/agentic-radar/radar/pkg/errors"
	"github.com/agentic-radar/radar/pkg/logging"
	"github.com/agentic-radar/radar/pkg/types"
)

// Config configures a Service run. It plays the same role as the
// teacher's orchestration Config, minus the queue/worker tunables that
// have no equivalent in a direct blocking call.
type Config struct {
	DefaultTimeout         time.Duration
	IncludeProjectSnapshot bool
}

// DefaultConfig returns the orchestrator defaults used when a caller
// does not override them.
func DefaultConfig() Config {
	return Config{
		DefaultTimeout:         10 * time.Minute,
		IncludeProjectSnapshot: true,
	}
}

// Service runs radar scans and tests against a project root.
type Service struct {
	config Config
	logger *logging.Logger
	parser *parser.ProjectParser
}

// NewService builds a Service. A zero Config falls back to DefaultConfig.
func NewService(config Config, logger *logging.Logger, explicitManifest string) *Service {
	if config.DefaultTimeout == 0 {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Service{
		config: config,
		logger: logger,
		parser: parser.New(explicitManifest),
	}
}

// ScanRequest configures a single scan run.
type ScanRequest struct {
	Root               string
	OutputPath         string
	ObjectStoreRoot    string
	TraceIDs           []string
	Metadata           map[string]interface{}
	Detectors          *detectors.Registry
	OSVReportPath      string
	PipAuditReportPath string
}

// ScanResult is the outcome of a scan run.
type ScanResult struct {
	Report        types.RadarReport
	OutputPath    string
	StoredArtifact string
}

// TestRequest configures a single adversarial-test run.
type TestRequest struct {
	Root               string
	OutputPath         string
	ObjectStoreRoot    string
	TraceIDs           []string
	Metadata           map[string]interface{}
	Detectors          *detectors.Registry
	Scenarios          []string
	OSVReportPath      string
	PipAuditReportPath string
}

// TestResult is the outcome of a test run.
type TestResult struct {
	Report          types.RadarReport
	OutputPath      string
	StoredArtifact  string
	ScenarioResults []types.ScenarioResult
}

// RunScan parses req.Root, runs the detector registry over it, builds a
// report in "scan" mode, and writes it to req.OutputPath (optionally
// replicating it into an object store).
func (s *Service) RunScan(ctx context.Context, req ScanRequest) (ScanResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	project, err := s.parser.Parse(req.Root)
	if err != nil {
		return ScanResult{}, err
	}

	registry := req.Detectors
	if registry == nil {
		registry = detectors.Default(s.logger)
	}
	findings := registry.Run(ctx, project)

	vulnFindings, err := s.taxonomyFindings(req.OSVReportPath, req.PipAuditReportPath)
	if err != nil {
		return ScanResult{}, err
	}
	findings = append(findings, vulnFindings...)

	if err := ctx.Err(); err != nil {
		return ScanResult{}, err
	}

	metadata := mergeMetadata(req.Metadata, map[string]interface{}{
		"mode":           types.ModeScan,
		"trace_id_count": len(req.TraceIDs),
		"detectors":      registry.Names(),
	})

	builder := report.NewBuilder(s.config.IncludeProjectSnapshot)
	built := builder.Build(project, findings, report.Options{
		Mode:     types.ModeScan,
		TraceIDs: req.TraceIDs,
		Metadata: metadata,
	})

	stored, err := s.writeAndStore(built, req.OutputPath, req.ObjectStoreRoot)
	if err != nil {
		return ScanResult{}, err
	}

	return ScanResult{Report: built, OutputPath: req.OutputPath, StoredArtifact: stored}, nil
}

// RunTest parses req.Root, runs detectors plus the adversarial scenario
// runner over it, builds a report in "test" mode, and writes it the same
// way RunScan does.
func (s *Service) RunTest(ctx context.Context, req TestRequest) (TestResult, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	project, err := s.parser.Parse(req.Root)
	if err != nil {
		return TestResult{}, err
	}

	registry := req.Detectors
	if registry == nil {
		registry = detectors.Default(s.logger)
	}
	findings := registry.Run(ctx, project)

	vulnFindings, err := s.taxonomyFindings(req.OSVReportPath, req.PipAuditReportPath)
	if err != nil {
		return TestResult{}, err
	}
	findings = append(findings, vulnFindings...)

	testRunner := scenario.NewTestRunner(req.Scenarios)
	scenarioNames := req.Scenarios
	if len(scenarioNames) == 0 {
		scenarioNames = testRunner.Scenarios
	}
	scenarioFindings, scenarioResults := testRunner.Run(project, scenarioNames)
	allFindings := append(append([]types.RadarFinding{}, findings...), scenarioFindings...)

	if err := ctx.Err(); err != nil {
		return TestResult{}, err
	}

	failures := []string{}
	for _, result := range scenarioResults {
		if result.Status == types.ScenarioStatusFailed {
			failures = append(failures, result.Name)
		}
	}

	metadata := mergeMetadata(req.Metadata, map[string]interface{}{
		"mode":              types.ModeTest,
		"trace_id_count":    len(req.TraceIDs),
		"scenarios":         scenarioNames,
		"scenario_failures": failures,
		"detectors":         append(registry.Names(), "scenario-runner"),
	})

	builder := report.NewBuilder(s.config.IncludeProjectSnapshot)
	built := builder.Build(project, allFindings, report.Options{
		Mode:            types.ModeTest,
		TraceIDs:        req.TraceIDs,
		ScenarioResults: scenarioResults,
		Metadata:        metadata,
	})

	stored, err := s.writeAndStore(built, req.OutputPath, req.ObjectStoreRoot)
	if err != nil {
		return TestResult{}, err
	}

	return TestResult{
		Report:          built,
		OutputPath:      req.OutputPath,
		StoredArtifact:  stored,
		ScenarioResults: scenarioResults,
	}, nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.config.DefaultTimeout)
}

// taxonomyFindings loads and maps any OSV and/or pip-audit reports given on
// the request into RadarFindings via internal/taxonomy, deduplicating
// across the two feeds when both are supplied. Returns (nil, nil) when
// neither path is set.
func (s *Service) taxonomyFindings(osvReportPath, pipAuditReportPath string) ([]types.RadarFinding, error) {
	if osvReportPath == "" && pipAuditReportPath == "" {
		return nil, nil
	}

	mapper := taxonomy.NewVulnerabilityMapper()
	var groups [][]taxonomy.VulnerabilityFinding

	if osvReportPath != "" {
		raw, err := os.ReadFile(osvReportPath)
		if err != nil {
			return nil, apperrors.NewParserError("failed to read OSV report '" + osvReportPath + "': " + err.Error())
		}
		var payload taxonomy.OSVPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, apperrors.NewParserError("failed to parse OSV report '" + osvReportPath + "': " + err.Error())
		}
		groups = append(groups, mapper.FromOSV(payload))
	}

	if pipAuditReportPath != "" {
		raw, err := os.ReadFile(pipAuditReportPath)
		if err != nil {
			return nil, apperrors.NewParserError("failed to read pip-audit report '" + pipAuditReportPath + "': " + err.Error())
		}
		var payload taxonomy.PipAuditPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, apperrors.NewParserError("failed to parse pip-audit report '" + pipAuditReportPath + "': " + err.Error())
		}
		groups = append(groups, mapper.FromPipAudit(payload))
	}

	merged := mapper.Merge(groups...)
	findings := make([]types.RadarFinding, 0, len(merged))
	for _, finding := range merged {
		findings = append(findings, finding.ToRadarFinding())
	}
	return findings, nil
}

func (s *Service) writeAndStore(built types.RadarReport, outputPath, objectStoreRoot string) (string, error) {
	if err := report.WriteJSON(built, outputPath); err != nil {
		return "", err
	}
	if objectStoreRoot == "" {
		return "", nil
	}
	store, err := objectstore.NewLocalObjectStore(objectStoreRoot)
	if err != nil {
		return "", err
	}
	stored, err := store.PutFile(outputPath, filepath.Base(outputPath))
	if err != nil {
		return "", apperrors.NewReportError("failed to replicate report to object store: " + err.Error())
	}
	return stored, nil
}

func mergeMetadata(base, defaults map[string]interface{}) map[string]interface{} {
	merged := map[string]interface{}{}
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range base {
		merged[k] = v
	}
	return merged
}
