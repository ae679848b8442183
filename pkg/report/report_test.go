package report

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/rules"
)

func finding(detector string, sev rules.Severity) rules.Finding {
	return rules.Finding{
		Detector:  detector,
		Path:      "app.py",
		StartLine: 3,
		Severity:  sev,
		Message:   detector + " message",
	}
}

func TestScoreEmpty(t *testing.T) {
	hs := Score(nil, config.Default().SeverityWeights)
	assert.Equal(t, 100.0, hs.Score)
	assert.Empty(t, hs.Breakdown)
}

func TestScorePenalties(t *testing.T) {
	findings := []rules.Finding{
		finding(rules.LongMethod, rules.SeverityLow),       // 1
		finding(rules.LongMethod, rules.SeverityMedium),    // 3
		finding(rules.LargeClass, rules.SeverityHigh),      // 7
		finding(rules.DuplicatedCode, rules.SeverityCritical), // 15
	}
	hs := Score(findings, config.Default().SeverityWeights)

	assert.Equal(t, 74.0, hs.Score)
	assert.Equal(t, CategoryScore{Penalty: 4, Count: 2}, hs.Breakdown[rules.LongMethod])
	assert.Equal(t, CategoryScore{Penalty: 7, Count: 1}, hs.Breakdown[rules.LargeClass])
	assert.Equal(t, CategoryScore{Penalty: 15, Count: 1}, hs.Breakdown[rules.DuplicatedCode])
}

func TestScoreFlooredAtZero(t *testing.T) {
	var findings []rules.Finding
	for range 20 {
		findings = append(findings, finding(rules.LongMethod, rules.SeverityCritical))
	}
	hs := Score(findings, config.Default().SeverityWeights)
	assert.Equal(t, 0.0, hs.Score)
	// The breakdown still records the full penalty past the floor.
	assert.Equal(t, 300, hs.Breakdown[rules.LongMethod].Penalty)
}

func TestScorePure(t *testing.T) {
	findings := []rules.Finding{
		finding(rules.LongMethod, rules.SeverityLow),
		finding(rules.LargeClass, rules.SeverityHigh),
	}
	w := config.Default().SeverityWeights
	assert.Equal(t, Score(findings, w), Score(findings, w))
}

func TestScoreCustomWeights(t *testing.T) {
	findings := []rules.Finding{finding(rules.LongMethod, rules.SeverityLow)}
	w := config.SeverityWeights{Low: 10, Medium: 20, High: 30, Critical: 40}
	hs := Score(findings, w)
	assert.Equal(t, 90.0, hs.Score)
}

func TestRecommendations(t *testing.T) {
	findings := []rules.Finding{
		finding(rules.LongMethod, rules.SeverityLow),
		finding(rules.LargeClass, rules.SeverityCritical),
		finding(rules.ComplexConditional, rules.SeverityHigh),
	}
	recs := Recommendations(findings, 5)
	assert.Equal(t, []string{
		"app.py:3 large_class message: Extract Class",
		"app.py:3 complex_conditional message: Decompose Conditional",
	}, recs)
}

func TestRecommendationsCapped(t *testing.T) {
	var findings []rules.Finding
	for range 10 {
		findings = append(findings, finding(rules.LongMethod, rules.SeverityCritical))
	}
	assert.Len(t, Recommendations(findings, 5), 5)
}
