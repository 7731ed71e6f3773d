// Package detectors implements the per-concern checks run over a parsed
// project: tool inventory hygiene, MCP server hardening, and inline
// dependency vulnerability findings. Each detector is a narrow,
// independently testable function over types.ParsedProject rather than a
// class hierarchy, matching the "no inheritance hierarchy" design note.
package detectors

import (
	"context"
	"fmt"
	"sync"

	"github.com/agentic-radar/radar/pkg/logging"
	"github.com/agentic-radar/radar/pkg/types"
)

// Detector inspects a parsed project and returns the findings it raises.
type Detector interface {
	Name() string
	Run(ctx context.Context, project types.ParsedProject) ([]types.RadarFinding, error)
}

// Registry runs a fixed, ordered set of detectors and splices their
// results back together in registration order, recovering from any
// individual detector panic or error into a synthetic finding rather than
// aborting the whole run.
type Registry struct {
	detectors []Detector
	logger    *logging.Logger
}

// NewRegistry builds a Registry over the given detectors, run in order.
func NewRegistry(logger *logging.Logger, detectors ...Detector) *Registry {
	if logger == nil {
		logger = logging.GetLogger()
	}
	return &Registry{detectors: detectors, logger: logger}
}

// Default returns a Registry with the standard detector set.
func Default(logger *logging.Logger) *Registry {
	return NewRegistry(logger, ToolInventoryDetector{}, MCPDetector{}, DependencyVulnerabilityDetector{})
}

// Names returns the registered detector names in registration order, for
// callers that need to record which detectors ran (e.g. report metadata).
func (r *Registry) Names() []string {
	names := make([]string, len(r.detectors))
	for i, detector := range r.detectors {
		names[i] = detector.Name()
	}
	return names
}

// Run executes every registered detector concurrently and splices their
// results back together in detector-registration order, so callers see a
// deterministic finding order regardless of which detector finished first.
func (r *Registry) Run(ctx context.Context, project types.ParsedProject) []types.RadarFinding {
	results := make([][]types.RadarFinding, len(r.detectors))

	var wg sync.WaitGroup
	for i, detector := range r.detectors {
		wg.Add(1)
		go func(i int, detector Detector) {
			defer wg.Done()
			results[i] = r.runOne(ctx, detector, project)
		}(i, detector)
	}
	wg.Wait()

	var findings []types.RadarFinding
	for _, result := range results {
		findings = append(findings, result...)
	}
	return findings
}

func (r *Registry) runOne(ctx context.Context, detector Detector, project types.ParsedProject) (result []types.RadarFinding) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.LogDetectorEvent(ctx, detector.Name(), 0, fmt.Errorf("panic: %v", rec))
			result = []types.RadarFinding{errorFinding(detector.Name(), fmt.Sprintf("%v", rec))}
		}
	}()

	findings, err := detector.Run(ctx, project)
	if err != nil {
		r.logger.LogDetectorEvent(ctx, detector.Name(), 0, err)
		return []types.RadarFinding{errorFinding(detector.Name(), err.Error())}
	}
	r.logger.LogDetectorEvent(ctx, detector.Name(), len(findings), nil)
	return findings
}

func errorFinding(detectorName, message string) types.RadarFinding {
	return types.NewRadarFinding(
		"DETECTOR-ERROR::"+detectorName,
		fmt.Sprintf("Detector '%s' failed to complete", detectorName),
		types.SeverityUnknown,
		message,
		nil,
		nil,
		detectorName,
	)
}
