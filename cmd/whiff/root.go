package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	cfgFile   string
	formatStr string
	outPath   string
	noColor   bool
	workers   int
)

var rootCmd = &cobra.Command{
	Use:     "whiff",
	Short:   "Code smell detector",
	Version: version,
	Long: `Whiff statically analyzes a codebase for code smells: long methods,
long parameter lists, complex conditionals, large classes, and
duplicated code. Findings are graded by severity, mapped to the design
principles they violate, and rolled up into a 0-100 health score.

Supports: Go, Python, TypeScript, JavaScript, Java, Ruby`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColor {
			color.NoColor = true
		}
	},
}

// Execute runs the CLI, cancelling the run on SIGINT/SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		color.Red("Error: %v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Path to config file (TOML, YAML, or JSON)")
	rootCmd.PersistentFlags().StringVarP(&formatStr, "format", "f", "text", "Output format: text, json, markdown")
	rootCmd.PersistentFlags().StringVarP(&outPath, "output", "o", "", "Write output to file")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Number of concurrent workers (0 = auto)")
}
