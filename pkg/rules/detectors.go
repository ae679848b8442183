package rules

import (
	"fmt"

	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/metrics"
	"github.com/whiffhq/whiff/pkg/model"
)

// Detect runs every enabled per-element detector over the model and
// returns raw, classified findings in declared detector order, then
// element order. Duplication is cross-unit and handled separately by
// the Duplication detector.
func Detect(m *model.Model, cfg *config.Config) []Finding {
	var findings []Finding
	th := cfg.Thresholds

	callables := m.Callables()
	classes := m.Classes()

	callableMetrics := make(map[int]metrics.Callable, len(callables))
	for _, idx := range callables {
		callableMetrics[idx] = metrics.ForCallable(m, idx)
	}

	if cfg.DetectorEnabled(LongMethod) {
		for _, idx := range callables {
			findings = append(findings, detectLongMethod(m, idx, callableMetrics[idx], th)...)
		}
	}
	if cfg.DetectorEnabled(LongParameterList) {
		for _, idx := range callables {
			findings = append(findings, detectLongParameterList(m, idx, callableMetrics[idx], th)...)
		}
	}
	if cfg.DetectorEnabled(ComplexConditional) {
		for _, idx := range callables {
			findings = append(findings, detectComplexConditional(m, idx, callableMetrics[idx], th)...)
		}
	}
	if cfg.DetectorEnabled(LargeClass) {
		for _, idx := range classes {
			findings = append(findings, detectLargeClass(m, idx, th)...)
		}
	}
	return findings
}

func detectLongMethod(m *model.Model, idx int, mt metrics.Callable, th config.Thresholds) []Finding {
	if mt.LineCount <= th.LongMethodLines {
		return nil
	}
	el := &m.Elements[idx]
	msg := fmt.Sprintf("%s %s is %s long (threshold %d)",
		el.Kind, el.QualifiedName, plural(mt.LineCount, "line"), th.LongMethodLines)
	return []Finding{newFinding(LongMethod, m.Path, el.QualifiedName,
		el.StartLine, el.EndLine, "line_count",
		float64(mt.LineCount), float64(th.LongMethodLines), msg)}
}

func detectLongParameterList(m *model.Model, idx int, mt metrics.Callable, th config.Thresholds) []Finding {
	if mt.ParamCount <= th.ParamCountMax {
		return nil
	}
	el := &m.Elements[idx]
	msg := fmt.Sprintf("%s %s takes %s (threshold %d)",
		el.Kind, el.QualifiedName, plural(mt.ParamCount, "parameter"), th.ParamCountMax)
	return []Finding{newFinding(LongParameterList, m.Path, el.QualifiedName,
		el.StartLine, el.EndLine, "parameter_count",
		float64(mt.ParamCount), float64(th.ParamCountMax), msg)}
}

// detectComplexConditional checks both sub-conditions independently;
// a callable past both thresholds yields two findings.
func detectComplexConditional(m *model.Model, idx int, mt metrics.Callable, th config.Thresholds) []Finding {
	el := &m.Elements[idx]
	var findings []Finding

	if mt.Cyclomatic > th.ComplexityMax {
		msg := fmt.Sprintf("%s %s has cyclomatic complexity %d (threshold %d)",
			el.Kind, el.QualifiedName, mt.Cyclomatic, th.ComplexityMax)
		findings = append(findings, newFinding(ComplexConditional, m.Path, el.QualifiedName,
			el.StartLine, el.EndLine, "cyclomatic_complexity",
			float64(mt.Cyclomatic), float64(th.ComplexityMax), msg))
	}
	if mt.MaxNesting > th.NestingMax {
		msg := fmt.Sprintf("%s %s nests control flow %d deep (threshold %d)",
			el.Kind, el.QualifiedName, mt.MaxNesting, th.NestingMax)
		findings = append(findings, newFinding(ComplexConditional, m.Path, el.QualifiedName,
			el.StartLine, el.EndLine, "nesting_depth",
			float64(mt.MaxNesting), float64(th.NestingMax), msg))
	}
	return findings
}

// detectLargeClass checks member count and line count independently;
// a class past both thresholds yields two findings.
func detectLargeClass(m *model.Model, idx int, th config.Thresholds) []Finding {
	el := &m.Elements[idx]
	mt := metrics.ForClass(m, idx)
	var findings []Finding

	if mt.MemberCount > th.ClassMembersMax {
		msg := fmt.Sprintf("class %s has %s (threshold %d)",
			el.QualifiedName, plural(mt.MemberCount, "member"), th.ClassMembersMax)
		findings = append(findings, newFinding(LargeClass, m.Path, el.QualifiedName,
			el.StartLine, el.EndLine, "member_count",
			float64(mt.MemberCount), float64(th.ClassMembersMax), msg))
	}
	if mt.LineCount > th.ClassLinesMax {
		msg := fmt.Sprintf("class %s is %s long (threshold %d)",
			el.QualifiedName, plural(mt.LineCount, "line"), th.ClassLinesMax)
		findings = append(findings, newFinding(LargeClass, m.Path, el.QualifiedName,
			el.StartLine, el.EndLine, "line_count",
			float64(mt.LineCount), float64(th.ClassLinesMax), msg))
	}
	return findings
}
