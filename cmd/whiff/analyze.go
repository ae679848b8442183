package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/whiffhq/whiff/internal/output"
	"github.com/whiffhq/whiff/internal/progress"
	"github.com/whiffhq/whiff/pkg/engine"
	"github.com/whiffhq/whiff/pkg/metrics"
	"github.com/whiffhq/whiff/pkg/parser"
	"github.com/whiffhq/whiff/pkg/report"
	"github.com/whiffhq/whiff/pkg/rules"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Detect code smells and report findings with a health score",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("language", "", "Force a language instead of detecting by extension")
	analyzeCmd.Flags().Float64("fail-under", 0, "Exit non-zero when the health score is below this value")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	units, err := discoverUnits(cfg, getPaths(args))
	if err != nil {
		return err
	}
	if len(units) == 0 {
		color.Yellow("No source files found")
		return nil
	}

	opts := []engine.Option{engine.WithWorkers(workers)}
	if langStr, _ := cmd.Flags().GetString("language"); langStr != "" {
		lang := parser.ParseLanguage(langStr)
		if lang == parser.LangUnknown {
			return fmt.Errorf("unsupported language: %s", langStr)
		}
		opts = append(opts, engine.WithLanguage(lang))
	}

	tracker := progress.NewTracker("Analyzing...", len(units))
	opts = append(opts, engine.WithProgress(func(string) { tracker.Tick() }))

	a, err := engine.New(cfg, opts...)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	rep, err := a.Analyze(cmd.Context(), units)
	if err != nil {
		tracker.FinishError(err)
		return err
	}
	tracker.FinishSuccess()

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	defer formatter.Close()

	if err := formatter.Output(buildAnalysisReport(rep)); err != nil {
		return err
	}

	if failUnder, _ := cmd.Flags().GetFloat64("fail-under"); failUnder > 0 && rep.Health.Score < failUnder {
		return fmt.Errorf("health score %.1f is below --fail-under %.1f", rep.Health.Score, failUnder)
	}
	return nil
}

func buildAnalysisReport(rep *report.Report) *output.Report {
	out := &output.Report{
		Title: "Code Smell Analysis",
		Data:  reportData(rep),
	}

	if len(rep.Findings) > 0 {
		out.Sections = append(out.Sections, findingsTable(rep.Findings))
	} else {
		out.Sections = append(out.Sections, &output.Section{
			Title:   "Findings",
			Content: "No code smells detected.",
		})
	}

	out.Sections = append(out.Sections, summaryTable(rep))
	out.Sections = append(out.Sections, healthTable(rep.Health))

	if recs := report.Recommendations(rep.Findings, 5); len(recs) > 0 {
		out.Sections = append(out.Sections, &output.Section{
			Title:   "Recommendations",
			Content: "- " + strings.Join(recs, "\n- "),
		})
	}

	if len(rep.ParseErrors) > 0 || len(rep.InvariantErrors) > 0 {
		var lines []string
		for _, e := range rep.ParseErrors {
			lines = append(lines, fmt.Sprintf("parse error: %s (%s)", e.Path, e.Reason))
		}
		for _, e := range rep.InvariantErrors {
			lines = append(lines, fmt.Sprintf("engine bug: %s (%s)", e.Path, e.Reason))
		}
		out.Sections = append(out.Sections, &output.Section{
			Title:   "Skipped Files",
			Content: strings.Join(lines, "\n"),
		})
	}
	return out
}

func findingsTable(findings []rules.Finding) *output.Table {
	rows := make([][]string, 0, len(findings))
	for _, f := range findings {
		location := fmt.Sprintf("%s:%d-%d", f.Path, f.StartLine, f.EndLine)
		rows = append(rows, []string{
			output.SeverityColor(f.Severity.String(), strings.ToUpper(f.Severity.String())),
			f.Detector,
			truncate(location, 48),
			truncate(f.Element, 32),
			principleList(f.Principles),
		})
	}
	return output.NewTable(
		fmt.Sprintf("Findings (%d)", len(findings)),
		[]string{"Severity", "Smell", "Location", "Element", "Principles"},
		rows, nil, nil,
	)
}

func summaryTable(rep *report.Report) *output.Table {
	s := rep.Summary
	rows := [][]string{
		{"Files analyzed", strconv.Itoa(rep.UnitsAnalyzed)},
		{"Functions", strconv.Itoa(s.Functions)},
		{"Classes", strconv.Itoa(s.Classes)},
		{"Avg complexity", fmt.Sprintf("%.1f", s.AvgComplexity)},
		{"Max complexity", strconv.Itoa(s.MaxComplexity)},
		{"Avg function length", fmt.Sprintf("%.1f lines", s.AvgFunctionLines)},
	}
	return output.NewTable("Code Metrics", []string{"Metric", "Value"}, rows, nil, nil)
}

func healthTable(hs report.HealthScore) *output.Table {
	rows := make([][]string, 0, len(hs.Breakdown))
	for _, detector := range rules.DetectorOrder {
		cat, ok := hs.Breakdown[detector]
		if !ok {
			continue
		}
		rows = append(rows, []string{
			detector,
			strconv.Itoa(cat.Count),
			strconv.Itoa(cat.Penalty),
		})
	}
	score := fmt.Sprintf("%.1f / 100", hs.Score)
	return output.NewTable(
		"Health Score",
		[]string{"Category", "Findings", "Penalty"},
		rows,
		[]string{"Score", "", output.ScoreColor(hs.Score, score)},
		nil,
	)
}

func principleList(principles []rules.Principle) string {
	parts := make([]string, len(principles))
	for i, p := range principles {
		parts[i] = string(p)
	}
	return strings.Join(parts, ", ")
}

type spanJSON struct {
	Path      string `json:"path"`
	Element   string `json:"element"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
}

type findingJSON struct {
	Detector   string     `json:"detector"`
	Path       string     `json:"path"`
	Element    string     `json:"element"`
	StartLine  int        `json:"start_line"`
	EndLine    int        `json:"end_line"`
	Severity   string     `json:"severity"`
	Principles []string   `json:"principles"`
	Metric     string     `json:"metric"`
	Value      float64    `json:"value"`
	Threshold  float64    `json:"threshold"`
	Message    string     `json:"message"`
	Related    []spanJSON `json:"related,omitempty"`
}

type reportJSON struct {
	Findings      []findingJSON                   `json:"findings"`
	Score         float64                         `json:"score"`
	Breakdown     map[string]report.CategoryScore `json:"breakdown"`
	Summary       metrics.Summary                 `json:"summary"`
	UnitsAnalyzed int                             `json:"units_analyzed"`
	ParseErrors   []string                        `json:"parse_errors,omitempty"`
	Skipped       []string                        `json:"skipped,omitempty"`
}

func reportData(rep *report.Report) reportJSON {
	findings := make([]findingJSON, 0, len(rep.Findings))
	for _, f := range rep.Findings {
		principles := make([]string, len(f.Principles))
		for i, p := range f.Principles {
			principles[i] = string(p)
		}
		var related []spanJSON
		for _, s := range f.Related {
			related = append(related, spanJSON{
				Path:      s.Path,
				Element:   s.Element,
				StartLine: s.StartLine,
				EndLine:   s.EndLine,
			})
		}
		findings = append(findings, findingJSON{
			Detector:   f.Detector,
			Path:       f.Path,
			Element:    f.Element,
			StartLine:  f.StartLine,
			EndLine:    f.EndLine,
			Severity:   f.Severity.String(),
			Principles: principles,
			Metric:     f.Metric,
			Value:      f.Value,
			Threshold:  f.Threshold,
			Message:    f.Message,
			Related:    related,
		})
	}

	var parseErrs []string
	for _, e := range rep.ParseErrors {
		parseErrs = append(parseErrs, e.Path)
	}

	return reportJSON{
		Findings:      findings,
		Score:         rep.Health.Score,
		Breakdown:     rep.Health.Breakdown,
		Summary:       rep.Summary,
		UnitsAnalyzed: rep.UnitsAnalyzed,
		ParseErrors:   parseErrs,
		Skipped:       rep.Skipped,
	}
}
