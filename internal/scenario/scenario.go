// Package scenario runs adversarial test scenarios against a parsed
// project's declared expectations and maps failures/warnings into
// findings alongside a pass/warning/failed scorecard.
package scenario

import (
	"fmt"
	"strings"

	"github.com/agentic-radar/radar/pkg/types"
)

// DefaultScenarios is the built-in adversarial scenario list run by
// TestRunner when no override is given.
var DefaultScenarios = []string{
	"prompt-injection",
	"pii-leakage",
	"harmful-content",
	"tool-abuse",
}

// TestRunner runs a fixed scenario list against a project's
// metadata-declared expectations ("test_expectations"/"test_notes").
type TestRunner struct {
	Scenarios []string
}

// NewTestRunner builds a TestRunner over the given scenarios, falling
// back to DefaultScenarios when none are given.
func NewTestRunner(scenarios []string) TestRunner {
	if len(scenarios) == 0 {
		scenarios = append([]string{}, DefaultScenarios...)
	}
	return TestRunner{Scenarios: scenarios}
}

// Run evaluates overrideScenarios (or the runner's configured scenarios
// when nil/empty) against project.Metadata's declared expectations and
// returns the resulting findings and scenario scorecard, in scenario
// order.
func (r TestRunner) Run(project types.ParsedProject, overrideScenarios []string) ([]types.RadarFinding, []types.ScenarioResult) {
	scenarioNames := r.Scenarios
	if len(overrideScenarios) > 0 {
		scenarioNames = overrideScenarios
	}

	expectations := stringMap(project.Metadata["test_expectations"])
	notes := stringMap(project.Metadata["test_notes"])

	var findings []types.RadarFinding
	var results []types.ScenarioResult

	for _, scenarioName := range scenarioNames {
		expectation := strings.ToLower(valueOr(expectations, scenarioName, "pass"))
		var detail *string
		if note, ok := notes[scenarioName]; ok {
			detail = &note
		}

		switch expectation {
		case "fail", "failed":
			results = append(results, types.ScenarioResult{Name: scenarioName, Status: types.ScenarioStatusFailed, Details: detail})
			finding := types.NewRadarFinding(
				fmt.Sprintf("SCENARIO-FAIL::%s", scenarioName),
				fmt.Sprintf("Scenario '%s' failed security tests", scenarioName),
				types.SeverityHigh,
				fmt.Sprintf("Scenario '%s' produced an unsafe response during radar tests.", scenarioName),
				[]string{"LLM01"},
				[]string{"Agentic-Adversarial"},
				"scenario-runner",
			)
			finding.Subject = &scenarioName
			remediation := "Review guardrails and mitigations for this scenario."
			finding.Remediation = &remediation
			findings = append(findings, finding)
		case "warn", "warning":
			results = append(results, types.ScenarioResult{Name: scenarioName, Status: types.ScenarioStatusWarning, Details: detail})
			finding := types.NewRadarFinding(
				fmt.Sprintf("SCENARIO-WARN::%s", scenarioName),
				fmt.Sprintf("Scenario '%s' produced warning signals", scenarioName),
				types.SeverityMedium,
				fmt.Sprintf("Scenario '%s' triggered warning-level mitigations.", scenarioName),
				[]string{"LLM03"},
				[]string{"Agentic-Adversarial"},
				"scenario-runner",
			)
			finding.Subject = &scenarioName
			remediation := "Investigate mitigations and tighten guard thresholds."
			finding.Remediation = &remediation
			findings = append(findings, finding)
		default:
			results = append(results, types.ScenarioResult{Name: scenarioName, Status: types.ScenarioStatusPassed, Details: detail})
		}
	}

	return findings, results
}

// stringMap coerces a metadata value (expected to be a
// map[string]interface{} with string-ish values) into a plain
// map[string]string, tolerating absence or the wrong shape.
func stringMap(raw interface{}) map[string]string {
	out := map[string]string{}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return out
	}
	for k, v := range m {
		if s, ok := v.(string); ok {
			out[k] = s
		} else if v != nil {
			out[k] = fmt.Sprintf("%v", v)
		}
	}
	return out
}

func valueOr(m map[string]string, key, fallback string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return fallback
}
