// Package engine orchestrates the analysis pipeline: build the
// structural model per unit, extract metrics, run the detectors,
// classify findings, and aggregate a report.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/whiffhq/whiff/internal/unitproc"
	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/metrics"
	"github.com/whiffhq/whiff/pkg/model"
	"github.com/whiffhq/whiff/pkg/parser"
	"github.com/whiffhq/whiff/pkg/report"
	"github.com/whiffhq/whiff/pkg/rules"
	"github.com/whiffhq/whiff/pkg/source"
)

// Unit is one source file to analyze. Discovery and file reading
// happen upstream; the engine never touches the filesystem.
type Unit struct {
	Path    string
	Content []byte
}

// UnitsFromSource reads the given paths through a content source.
func UnitsFromSource(src source.ContentSource, paths []string) ([]Unit, error) {
	units := make([]Unit, 0, len(paths))
	for _, p := range paths {
		content, err := src.Read(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		units = append(units, Unit{Path: p, Content: content})
	}
	return units, nil
}

// ProgressFunc is called after each unit finishes, from worker
// goroutines.
type ProgressFunc func(path string)

// Analyzer runs the smell analysis pipeline over source units.
type Analyzer struct {
	cfg      *config.Config
	workers  int
	progress ProgressFunc
	language parser.Language
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithWorkers sets the number of concurrent unit workers.
func WithWorkers(n int) Option {
	return func(a *Analyzer) { a.workers = n }
}

// WithProgress registers a per-unit completion callback.
func WithProgress(fn ProgressFunc) Option {
	return func(a *Analyzer) { a.progress = fn }
}

// WithLanguage forces a language instead of detecting it per path.
func WithLanguage(lang parser.Language) Option {
	return func(a *Analyzer) { a.language = lang }
}

// New creates an Analyzer. The configuration is validated once here;
// the pipeline never re-reads raw configuration.
func New(cfg *config.Config, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &Analyzer{cfg: cfg, language: parser.LangUnknown}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type unitResult struct {
	model    *model.Model
	findings []rules.Finding
	skipped  bool
}

// Analyze runs the full pipeline over the given units. Units that
// fail to parse are recorded and skipped; the run continues. The
// returned finding sequence is ordered by path, start line, then
// detector, independent of worker completion timing.
func (a *Analyzer) Analyze(ctx context.Context, units []Unit) (*report.Report, error) {
	results := unitproc.Map(ctx, units, a.workers, func(u Unit) (unitResult, error) {
		res, err := a.analyzeUnit(u)
		if a.progress != nil {
			a.progress(u.Path)
		}
		return res, err
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rep := &report.Report{}
	var models []*model.Model
	for _, r := range results {
		if r.Err != nil {
			var parseErr *model.ParseError
			var invErr *model.InvariantError
			switch {
			case errors.As(r.Err, &parseErr):
				rep.ParseErrors = append(rep.ParseErrors, parseErr)
			case errors.As(r.Err, &invErr):
				rep.InvariantErrors = append(rep.InvariantErrors, invErr)
			default:
				return nil, r.Err
			}
			continue
		}
		if r.Value.skipped {
			rep.Skipped = append(rep.Skipped, r.Value.model.Path)
			continue
		}
		rep.UnitsAnalyzed++
		models = append(models, r.Value.model)
		rep.Findings = append(rep.Findings, r.Value.findings...)
	}

	rep.Findings = append(rep.Findings, rules.FindDuplicates(models, a.cfg)...)
	sortFindings(rep.Findings)
	rep.Health = report.Score(rep.Findings, a.cfg.SeverityWeights)
	rep.Summary = metrics.Summarize(models)
	return rep, nil
}

func (a *Analyzer) analyzeUnit(u Unit) (unitResult, error) {
	lang := a.language
	if lang == parser.LangUnknown {
		lang = parser.DetectLanguage(u.Path)
	}
	if lang == parser.LangUnknown {
		return unitResult{model: &model.Model{Path: u.Path}, skipped: true}, nil
	}

	p := parser.New()
	defer p.Close()

	parsed, err := p.Parse(u.Content, lang, u.Path)
	if err != nil {
		return unitResult{}, &model.ParseError{Path: u.Path, Reason: err.Error()}
	}
	m, err := model.Build(parsed)
	if err != nil {
		return unitResult{}, err
	}
	return unitResult{model: m, findings: rules.Detect(m, a.cfg)}, nil
}

// Score recomputes the health score for an existing report under the
// given weights, without reanalyzing.
func Score(rep *report.Report, weights config.SeverityWeights) report.HealthScore {
	return report.Score(rep.Findings, weights)
}

func sortFindings(findings []rules.Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := &findings[i], &findings[j]
		if a.Path != b.Path {
			return a.Path < b.Path
		}
		if a.StartLine != b.StartLine {
			return a.StartLine < b.StartLine
		}
		if a.Detector != b.Detector {
			return a.Detector < b.Detector
		}
		if a.Metric != b.Metric {
			return a.Metric < b.Metric
		}
		return a.Element < b.Element
	})
}
