package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOWASPMapper_MatchesKeywordRule(t *testing.T) {
	mapper := NewOWASPMapper()
	finding := VulnerabilityFinding{
		Package:         "flask",
		VulnerabilityID: "GHSA-aaaa",
		Summary:         "Remote code execution via unsafe deserialization",
	}
	result := mapper.Apply(finding)
	require.Contains(t, result.OWASPLLMCategories, "LLM07 - Insecure Plugin Design")
	require.Contains(t, result.OWASPAgenticCategories, "AA02 - Tool Misuse & Escalation")
}

func TestOWASPMapper_DefaultFallback(t *testing.T) {
	mapper := NewOWASPMapper()
	finding := VulnerabilityFinding{
		Package:         "obscure-pkg",
		VulnerabilityID: "GHSA-zzzz",
		Summary:         "Unremarkable bug with no notable keyword",
	}
	result := mapper.Apply(finding)
	assert.Equal(t, []string{"LLM05 - Supply Chain Vulnerabilities"}, result.OWASPLLMCategories)
	assert.Equal(t, []string{"AA06 - Supply Chain & Dependency Risk"}, result.OWASPAgenticCategories)
}

func TestFromOSV(t *testing.T) {
	mapper := NewVulnerabilityMapper()
	payload := OSVPayload{
		Results: []OSVResult{
			{
				Source: &OSVSource{Path: "requirements.txt"},
				Packages: []OSVPackage{
					{
						Package:  OSVPackageMeta{Name: "flask", Ecosystem: "PyPI"},
						Versions: []string{"2.0.0"},
						Vulnerabilities: []OSVVuln{
							{
								ID:      "GHSA-1111",
								Summary: "Server-side request forgery in redirect handling",
								Severity: []OSVSeverity{
									{Score: "7.5"},
								},
								Affected: []OSVAffected{
									{Ranges: []OSVRange{{Events: []OSVEvent{{Fixed: "2.0.1"}}}}},
								},
							},
						},
					},
				},
			},
		},
	}

	findings := mapper.FromOSV(payload)
	require.Len(t, findings, 1)
	assert.Equal(t, "flask", findings[0].Package)
	assert.Equal(t, []string{"2.0.1"}, findings[0].FixVersions)
	assert.Contains(t, findings[0].OWASPAgenticCategories, "AA03 - External Service Abuse")
}

func TestFromPipAudit(t *testing.T) {
	mapper := NewVulnerabilityMapper()
	payload := PipAuditPayload{
		Dependencies: []PipAuditDependency{
			{
				Name:    "requests",
				Version: "2.25.0",
				Vulns: []PipAuditVuln{
					{ID: "PYSEC-1234", Description: "Credential leak in logging middleware"},
				},
			},
		},
	}

	findings := mapper.FromPipAudit(payload)
	require.Len(t, findings, 1)
	assert.Equal(t, "requests", findings[0].Package)
	assert.Contains(t, findings[0].OWASPAgenticCategories, "AA07 - Secrets & Credential Handling")
}

func TestMerge_CombinesAcrossFeeds(t *testing.T) {
	mapper := NewVulnerabilityMapper()
	osvFindings := []VulnerabilityFinding{
		{Package: "requests", VulnerabilityID: "CVE-2024-0001", Severity: "medium", FixVersions: []string{"2.31.1"}},
	}
	pipAuditFindings := []VulnerabilityFinding{
		{Package: "requests", VulnerabilityID: "cve-2024-0001", Severity: "high", FixVersions: []string{"2.31.2"}},
	}

	merged := mapper.Merge(osvFindings, pipAuditFindings)
	require.Len(t, merged, 1)
	assert.Equal(t, "HIGH", merged[0].Severity)
	assert.ElementsMatch(t, []string{"2.31.1", "2.31.2"}, merged[0].FixVersions)
}

func TestMerge_DistinctPackagesStaySeparate(t *testing.T) {
	mapper := NewVulnerabilityMapper()
	merged := mapper.Merge(
		[]VulnerabilityFinding{{Package: "a", VulnerabilityID: "CVE-1"}},
		[]VulnerabilityFinding{{Package: "b", VulnerabilityID: "CVE-2"}},
	)
	assert.Len(t, merged, 2)
}

func TestVulnerabilityFinding_ToRadarFinding(t *testing.T) {
	mapper := NewVulnerabilityMapper()
	findings := mapper.FromPipAudit(PipAuditPayload{
		Dependencies: []PipAuditDependency{
			{
				Name:    "requests",
				Version: "2.25.0",
				Vulns: []PipAuditVuln{
					{ID: "PYSEC-1234", Description: "Credential leak in logging middleware", Severity: "high"},
				},
			},
		},
	})
	require.Len(t, findings, 1)

	radarFinding := findings[0].ToRadarFinding()
	assert.Equal(t, "DEP-VULN::requests::PYSEC-1234", radarFinding.Identifier)
	assert.Equal(t, "taxonomy-mapper", radarFinding.Detector)
	assert.Equal(t, "high", radarFinding.Severity)
	require.NotNil(t, radarFinding.Subject)
	assert.Equal(t, "requests", *radarFinding.Subject)
	assert.Contains(t, radarFinding.OWASPAgentic, "AA07 - Secrets & Credential Handling")
}

func TestMappingRule_SeverityAtLeast(t *testing.T) {
	rule := MappingRule{SeverityAtLeast: "high"}
	assert.True(t, rule.Matches(VulnerabilityFinding{Severity: "critical"}))
	assert.False(t, rule.Matches(VulnerabilityFinding{Severity: "low"}))
}
