package main

import (
	"fmt"

	"github.com/whiffhq/whiff/internal/output"
	"github.com/whiffhq/whiff/internal/scanner"
	"github.com/whiffhq/whiff/pkg/config"
	"github.com/whiffhq/whiff/pkg/engine"
	"github.com/whiffhq/whiff/pkg/source"
)

// getPaths returns paths from args, defaulting to ["."]
func getPaths(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}

// loadConfig loads the --config file when given, otherwise searches
// the working directory.
func loadConfig() (*config.Config, error) {
	if cfgFile != "" {
		return config.Load(cfgFile)
	}
	return config.LoadOrDefault(".")
}

// discoverUnits scans the given paths and reads the discovered files.
func discoverUnits(cfg *config.Config, paths []string) ([]engine.Unit, error) {
	s := scanner.New(cfg)
	var files []string
	for _, path := range paths {
		found, err := s.ScanDir(path)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", path, err)
		}
		files = append(files, found...)
	}
	return engine.UnitsFromSource(source.NewFilesystem(), files)
}

// newFormatter builds a formatter from the persistent flags.
func newFormatter() (*output.Formatter, error) {
	return output.New(output.ParseFormat(formatStr), outPath, outPath == "" && !noColor)
}

// truncate shortens a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen < 4 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
