// Package report aggregates classified findings into an analysis
// report and a health score.
package report

import (
	"fmt"
	"sort"

	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/metrics"
	"github.com/whiffhq/whiff/pkg/model"
	"github.com/whiffhq/whiff/pkg/rules"
)

// CategoryScore is the scoring subtotal for one detector.
type CategoryScore struct {
	Penalty int `json:"penalty"`
	Count   int `json:"count"`
}

// HealthScore summarizes a run's smell burden on a 0-100 scale,
// higher meaning healthier.
type HealthScore struct {
	Score     float64
	Breakdown map[string]CategoryScore
}

// Report is the final result of an analysis run. Findings are sorted
// deterministically; the parse and invariant error lists record units
// that were skipped.
type Report struct {
	Findings        []rules.Finding
	ParseErrors     []*model.ParseError
	InvariantErrors []*model.InvariantError
	Skipped         []string
	Health          HealthScore
	Summary         metrics.Summary
	UnitsAnalyzed   int
}

// Score computes the health score for a finding sequence. It is a
// pure function of its inputs: the same findings and weights always
// yield the same score, so a report can be rescored under different
// weights without reanalyzing.
func Score(findings []rules.Finding, weights config.SeverityWeights) HealthScore {
	breakdown := make(map[string]CategoryScore)
	total := 0
	for _, f := range findings {
		p := penalty(f.Severity, weights)
		total += p
		cat := breakdown[f.Detector]
		cat.Penalty += p
		cat.Count++
		breakdown[f.Detector] = cat
	}
	return HealthScore{
		Score:     clamp(100-float64(total), 0, 100),
		Breakdown: breakdown,
	}
}

func penalty(s rules.Severity, w config.SeverityWeights) int {
	switch s {
	case rules.SeverityLow:
		return w.Low
	case rules.SeverityMedium:
		return w.Medium
	case rules.SeverityHigh:
		return w.High
	case rules.SeverityCritical:
		return w.Critical
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// refactorings maps each detector to the refactoring most commonly
// applied to resolve it.
var refactorings = map[string]string{
	rules.LongMethod:         "Extract Method",
	rules.LongParameterList:  "Introduce Parameter Object",
	rules.ComplexConditional: "Decompose Conditional",
	rules.LargeClass:         "Extract Class",
	rules.DuplicatedCode:     "Extract Method and share the common code",
}

// Recommendations returns refactoring suggestions for the most severe
// findings, worst first, capped at max. Ties keep finding order.
func Recommendations(findings []rules.Finding, max int) []string {
	ranked := make([]rules.Finding, len(findings))
	copy(ranked, findings)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Severity > ranked[j].Severity
	})

	var out []string
	for _, f := range ranked {
		if f.Severity < rules.SeverityHigh {
			break
		}
		rec := fmt.Sprintf("%s:%d %s", f.Path, f.StartLine, f.Message)
		if r, ok := refactorings[f.Detector]; ok {
			rec += ": " + r
		}
		out = append(out, rec)
		if len(out) == max {
			break
		}
	}
	return out
}
