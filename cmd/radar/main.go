// Command radar is the Agentic Radar CLI: scan a project for agentic-AI
// security findings, run adversarial test scenarios against it, or bundle
// findings and logs into an evidence pack.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"

	"github.com/agentic-radar/radar/internal/evidence"
	"github.com/agentic-radar/radar/internal/objectstore"
	"github.com/agentic-radar/radar/internal/orchestrator"
	"github.com/agentic-radar/radar/pkg/config"
	"github.com/agentic-radar/radar/pkg/logging"
	"github.com/agentic-radar/radar/pkg/types"
)

func main() {
	_ = godotenv.Load()
	initLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "scan":
		err = runScan(os.Args[2:])
	case "test":
		err = runTest(os.Args[2:])
	case "evidence":
		err = runEvidence(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func orchestratorConfigFromEnv() orchestrator.Config {
	envConfig := config.Load().Orchestrator
	return orchestrator.Config{
		DefaultTimeout:         envConfig.DefaultTimeout,
		IncludeProjectSnapshot: envConfig.IncludeProjectSnapshot,
	}
}

func initLogger() {
	cfg := config.Load()
	format := "text"
	if cfg.Logging.JSONFormat {
		format = "json"
	}
	logger, err := logging.NewLogger(&logging.Config{
		Level:       cfg.Logging.Level,
		Format:      format,
		Output:      "stdout",
		ServiceName: "agentic-radar",
	})
	if err != nil {
		return
	}
	logging.SetGlobalLogger(logger)
}

func printUsage() {
	fmt.Println("Agentic Radar CLI")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  radar scan [path] [options]")
	fmt.Println("  radar test [path] [options]")
	fmt.Println("  radar evidence pack --findings=PATH [options]")
	fmt.Println("  radar help")
	fmt.Println()
	fmt.Println("Common scan/test options:")
	fmt.Println("  -o=PATH, --output=PATH     Path to write the JSON report")
	fmt.Println("  --object-store=PATH        Directory-backed object store to replicate the report into")
	fmt.Println("  --trace-id=ID              Trace identifier to embed in the report (repeatable)")
	fmt.Println("  --label=KEY=VALUE          Metadata label to attach to the report (repeatable)")
	fmt.Println("  --no-project-snapshot      Skip embedding the parsed project in the report")
	fmt.Println("  --osv-report=PATH          OSV batch-query JSON response to ingest as dependency findings")
	fmt.Println("  --pip-audit-report=PATH    pip-audit JSON report to ingest as dependency findings")
	fmt.Println()
	fmt.Println("test-only options:")
	fmt.Println("  --scenario=NAME            Scenario to run (repeatable; defaults to the built-in set)")
	fmt.Println()
	fmt.Println("evidence pack options:")
	fmt.Println("  --findings=PATH            Findings JSON file to bundle (repeatable, required)")
	fmt.Println("  --logs=PATH                Logs file or directory to bundle")
	fmt.Println()
	fmt.Println("Option values must be attached with '=' (for example --output=PATH); a value given as the next argument is not read.")
}

// commonRunFlags mirrors the shared scan/test argument set.
type commonRunFlags struct {
	path               string
	output             string
	objectStore        string
	traceIDs           []string
	labels             map[string]string
	includeSnapshot    bool
	osvReportPath      string
	pipAuditReportPath string
}

func parseCommonRunFlags(args []string) (commonRunFlags, []string, error) {
	flags := commonRunFlags{path: ".", includeSnapshot: true, labels: map[string]string{}}
	var rest []string

	for _, arg := range args {
		switch {
		case arg == "--no-project-snapshot":
			flags.includeSnapshot = false
		case strings.HasPrefix(arg, "-o="):
			flags.output = strings.TrimPrefix(arg, "-o=")
		case strings.HasPrefix(arg, "--output="):
			flags.output = strings.TrimPrefix(arg, "--output=")
		case strings.HasPrefix(arg, "--object-store="):
			flags.objectStore = strings.TrimPrefix(arg, "--object-store=")
		case strings.HasPrefix(arg, "--osv-report="):
			flags.osvReportPath = strings.TrimPrefix(arg, "--osv-report=")
		case strings.HasPrefix(arg, "--pip-audit-report="):
			flags.pipAuditReportPath = strings.TrimPrefix(arg, "--pip-audit-report=")
		case strings.HasPrefix(arg, "--trace-id="):
			flags.traceIDs = append(flags.traceIDs, strings.TrimPrefix(arg, "--trace-id="))
		case strings.HasPrefix(arg, "--label="):
			pair := strings.TrimPrefix(arg, "--label=")
			key, value, ok := strings.Cut(pair, "=")
			if !ok {
				return flags, nil, fmt.Errorf("invalid label %q, expected KEY=VALUE", pair)
			}
			flags.labels[strings.TrimSpace(key)] = strings.TrimSpace(value)
		case strings.HasPrefix(arg, "-"):
			rest = append(rest, arg)
		default:
			flags.path = arg
		}
	}
	return flags, rest, nil
}

func labelsToMetadata(labels map[string]string) map[string]interface{} {
	metadata := make(map[string]interface{}, len(labels))
	for k, v := range labels {
		metadata[k] = v
	}
	return metadata
}

func runScan(args []string) error {
	flags, _, err := parseCommonRunFlags(args)
	if err != nil {
		return err
	}

	root, err := filepath.Abs(flags.path)
	if err != nil {
		return err
	}
	outputPath := flags.output
	if outputPath == "" {
		outputPath = filepath.Join(root, "agentic-radar-report.json")
	}

	orchestratorConfig := orchestratorConfigFromEnv()
	orchestratorConfig.IncludeProjectSnapshot = orchestratorConfig.IncludeProjectSnapshot && flags.includeSnapshot
	service := orchestrator.NewService(orchestratorConfig, nil, "")

	result, err := service.RunScan(context.Background(), orchestrator.ScanRequest{
		Root:               root,
		OutputPath:         outputPath,
		ObjectStoreRoot:    flags.objectStore,
		TraceIDs:           flags.traceIDs,
		Metadata:           labelsToMetadata(flags.labels),
		OSVReportPath:      flags.osvReportPath,
		PipAuditReportPath: flags.pipAuditReportPath,
	})
	if err != nil {
		return err
	}

	printReportSummary(result.Report, outputPath, result.StoredArtifact)
	return nil
}

func runTest(args []string) error {
	flags, rest, err := parseCommonRunFlags(args)
	if err != nil {
		return err
	}

	var scenarios []string
	for _, arg := range rest {
		if strings.HasPrefix(arg, "--scenario=") {
			scenarios = append(scenarios, strings.TrimPrefix(arg, "--scenario="))
		}
	}

	root, err := filepath.Abs(flags.path)
	if err != nil {
		return err
	}
	outputPath := flags.output
	if outputPath == "" {
		outputPath = filepath.Join(root, "agentic-radar-test-report.json")
	}

	orchestratorConfig := orchestratorConfigFromEnv()
	orchestratorConfig.IncludeProjectSnapshot = orchestratorConfig.IncludeProjectSnapshot && flags.includeSnapshot
	service := orchestrator.NewService(orchestratorConfig, nil, "")

	result, err := service.RunTest(context.Background(), orchestrator.TestRequest{
		Root:               root,
		OutputPath:         outputPath,
		ObjectStoreRoot:    flags.objectStore,
		TraceIDs:           flags.traceIDs,
		Metadata:           labelsToMetadata(flags.labels),
		Scenarios:          scenarios,
		OSVReportPath:      flags.osvReportPath,
		PipAuditReportPath: flags.pipAuditReportPath,
	})
	if err != nil {
		return err
	}

	printReportSummary(result.Report, outputPath, result.StoredArtifact)
	printScenarioSummary(result.ScenarioResults)
	return nil
}

func runEvidence(args []string) error {
	if len(args) == 0 || args[0] != "pack" {
		return fmt.Errorf("usage: radar evidence pack --findings=PATH [options]")
	}

	var findingsPaths []string
	var logsPath, output, objectStore string
	var traceIDs []string

	for _, arg := range args[1:] {
		switch {
		case strings.HasPrefix(arg, "--findings="):
			findingsPaths = append(findingsPaths, strings.TrimPrefix(arg, "--findings="))
		case strings.HasPrefix(arg, "--logs="):
			logsPath = strings.TrimPrefix(arg, "--logs=")
		case strings.HasPrefix(arg, "-o="):
			output = strings.TrimPrefix(arg, "-o=")
		case strings.HasPrefix(arg, "--output="):
			output = strings.TrimPrefix(arg, "--output=")
		case strings.HasPrefix(arg, "--object-store="):
			objectStore = strings.TrimPrefix(arg, "--object-store=")
		case strings.HasPrefix(arg, "--trace-id="):
			traceIDs = append(traceIDs, strings.TrimPrefix(arg, "--trace-id="))
		}
	}

	if len(findingsPaths) == 0 {
		return fmt.Errorf("at least one --findings path must be provided")
	}

	builder := evidence.NewBuilder(nil)
	if objectStore != "" {
		store, err := objectstore.NewLocalObjectStore(objectStore)
		if err != nil {
			return err
		}
		builder = evidence.NewBuilder(store)
	}

	result, err := builder.Build(evidence.Options{
		FindingsPaths: findingsPaths,
		LogsPath:      logsPath,
		TraceIDs:      traceIDs,
		OutputPath:    output,
	})
	if err != nil {
		return err
	}

	printEvidenceSummary(result)
	return nil
}

func printReportSummary(report types.RadarReport, outputPath, storedArtifact string) {
	fmt.Printf("Report written to %s\n", outputPath)
	fmt.Printf("Project: %s | mode=%s\n", report.ProjectName, report.Mode)
	if len(report.TraceIDs) > 0 {
		fmt.Printf("Trace IDs: %s\n", strings.Join(report.TraceIDs, ", "))
	}
	fmt.Println("Findings summary:")
	summary, _ := report.Summary["findings"].(map[string]interface{})
	for _, severity := range []string{"critical", "high", "medium", "low", "info", "unknown", "total"} {
		if count, ok := summary[severity]; ok {
			fmt.Printf("  %s: %v\n", severity, count)
		}
	}
	if storedArtifact != "" {
		fmt.Printf("Stored artifact at %s\n", storedArtifact)
	}
}

func printScenarioSummary(results []types.ScenarioResult) {
	if len(results) == 0 {
		return
	}
	fmt.Println("Scenario results:")
	for _, result := range results {
		suffix := ""
		if result.Details != nil {
			suffix = fmt.Sprintf(" (%s)", *result.Details)
		}
		fmt.Printf("  %s: %s%s\n", result.Name, result.Status, suffix)
	}
}

func printEvidenceSummary(result evidence.Result) {
	fmt.Printf("Evidence pack created at %s\n", result.PackPath)
	findings, _ := result.Metadata["findings"].([]string)
	logs, _ := result.Metadata["logs"].([]string)
	fmt.Printf("Includes %d findings file(s) and %d log file(s)\n", len(findings), len(logs))
	if traceIDs, ok := result.Metadata["trace_ids"].([]string); ok && len(traceIDs) > 0 {
		fmt.Printf("Trace IDs: %s\n", strings.Join(traceIDs, ", "))
	}
	if result.StoredPath != "" {
		fmt.Printf("Stored artifact at %s\n", result.StoredPath)
	}
}
