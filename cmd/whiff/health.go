package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/whiffhq/whiff/internal/output"
	"github.com/whiffhq/whiff/internal/progress"
	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/engine"
)

var healthCmd = &cobra.Command{
	Use:   "health [path...]",
	Short: "Compute only the health score for a codebase",
	Long: `Runs the smell analysis and reports the 0-100 health score with its
per-category breakdown, without listing individual findings. Weight
flags rescore the findings without reanalyzing.`,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().Int("weight-low", -1, "Override penalty weight for low severity")
	healthCmd.Flags().Int("weight-medium", -1, "Override penalty weight for medium severity")
	healthCmd.Flags().Int("weight-high", -1, "Override penalty weight for high severity")
	healthCmd.Flags().Int("weight-critical", -1, "Override penalty weight for critical severity")
	healthCmd.Flags().Float64("fail-under", 0, "Exit non-zero when the health score is below this value")

	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	tracker := progress.NewTracker("Scoring...", len(units))
	a, err := engine.New(cfg,
		engine.WithWorkers(workers),
		engine.WithProgress(func(string) { tracker.Tick() }),
	)
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

	weights, overridden := weightOverrides(cmd, cfg.SeverityWeights)
	if overridden {
		rep.Health = engine.Score(rep, weights)
	}

	formatter, err := newFormatter()
	if err != nil {
		return err
	}
	defer formatter.Close()

	out := &output.Report{
		Title:    "Codebase Health",
		Sections: []output.Renderable{healthTable(rep.Health)},
		Data: map[string]any{
			"score":          rep.Health.Score,
			"breakdown":      rep.Health.Breakdown,
			"units_analyzed": rep.UnitsAnalyzed,
			"finding_count":  len(rep.Findings),
		},
	}
	if err := formatter.Output(out); err != nil {
		return err
	}

	if failUnder, _ := cmd.Flags().GetFloat64("fail-under"); failUnder > 0 && rep.Health.Score < failUnder {
		return fmt.Errorf("health score %.1f is below --fail-under %.1f", rep.Health.Score, failUnder)
	}
	return nil
}

// weightOverrides applies any weight flags over the configured
// severity weights.
func weightOverrides(cmd *cobra.Command, base config.SeverityWeights) (config.SeverityWeights, bool) {
	overridden := false
	apply := func(flag string, dst *int) {
		if v, _ := cmd.Flags().GetInt(flag); v >= 0 {
			*dst = v
			overridden = true
		}
	}
	apply("weight-low", &base.Low)
	apply("weight-medium", &base.Medium)
	apply("weight-high", &base.High)
	apply("weight-critical", &base.Critical)
	return base, overridden
}
