package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/ProjectApnapan/apnapan-pulse/internal/ingest"
	"github.com/ProjectApnapan/apnapan-pulse/internal/survey"
)

// constructResult is one construct average in the analyze output.
type constructResult struct {
	Name  string  `json:"name" yaml:"name"`
	Score float64 `json:"score" yaml:"score"`
	Level string  `json:"level" yaml:"level"`
}

// fileResult is the analyze output for one survey file.
type fileResult struct {
	File             string            `json:"file" yaml:"file"`
	Error            string            `json:"error,omitempty" yaml:"error,omitempty"`
	Students         int               `json:"students" yaml:"students"`
	Overall          *float64          `json:"overall,omitempty" yaml:"overall,omitempty"`
	PerformanceLevel string            `json:"performance_level,omitempty" yaml:"performance_level,omitempty"`
	Highest          *string           `json:"highest,omitempty" yaml:"highest,omitempty"`
	Lowest           *string           `json:"lowest,omitempty" yaml:"lowest,omitempty"`
	Constructs       []constructResult `json:"constructs,omitempty" yaml:"constructs,omitempty"`
	Matched          map[string]int    `json:"matched_questions,omitempty" yaml:"matched_questions,omitempty"`
}

func summarize(path string, res *survey.Results) fileResult {
	out := fileResult{
		File:     path,
		Students: res.Students,
		Overall:  res.Overall,
		Highest:  res.Highest,
		Lowest:   res.Lowest,
		Matched:  make(map[string]int, len(res.Matched)),
	}
	if res.Overall != nil {
		out.PerformanceLevel = survey.PerformanceLevel(*res.Overall)
	}
	for _, a := range res.Averages {
		out.Constructs = append(out.Constructs, constructResult{
			Name:  a.Name,
			Score: a.Value,
			Level: survey.ConstructLevel(a.Value),
		})
	}
	for _, m := range res.Matched {
		out.Matched[m.Construct] = len(m.Columns)
	}
	return out
}

// analyzeFile reads and scores one local file.
func analyzeFile(path string, p *survey.Pipeline) (*survey.Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	ds, err := ingest.Load(filepath.Base(path), data)
	if err != nil {
		return nil, eris.Wrapf(err, "load %s", path)
	}
	return p.Run(ds)
}

// analyzeFiles scores paths concurrently. A failing file is reported in
// its result and never aborts the batch. Results keep the input order.
func analyzeFiles(ctx context.Context, paths []string, concurrency int, p *survey.Pipeline) ([]fileResult, error) {
	results := make([]fileResult, len(paths))

	zap.L().Info("analyzing files",
		zap.Int("files", len(paths)),
		zap.Int("concurrency", concurrency),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var succeeded, failed atomic.Int64

	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			log := zap.L().With(zap.String("file", path))

			res, err := analyzeFile(path, p)
			if err != nil {
				failed.Add(1)
				log.Error("analysis failed", zap.Error(err))
				results[i] = fileResult{File: path, Error: err.Error()}
				return nil // don't abort batch on individual failure
			}

			succeeded.Add(1)
			results[i] = summarize(path, res)
			log.Info("analysis complete", zap.Int("students", res.Students))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "analyze")
	}

	zap.L().Info("analysis batch complete",
		zap.Int64("succeeded", succeeded.Load()),
		zap.Int64("failed", failed.Load()),
	)
	return results, nil
}

func writeResults(w io.Writer, format string, results []fileResult) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(results); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return enc.Close()
	default:
		return eris.Errorf("unsupported output format: %s", format)
	}
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file>...",
	Short: "Score one or more local survey files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		concurrency, _ := cmd.Flags().GetInt("concurrency")
		if concurrency > 0 {
			cfg.Analyze.MaxConcurrentFiles = concurrency
		}
		if err := cfg.Validate("analyze"); err != nil {
			return err
		}
		format, _ := cmd.Flags().GetString("format")

		results, err := analyzeFiles(cmd.Context(), args, cfg.Analyze.MaxConcurrentFiles, newPipeline(cfg.Survey))
		if err != nil {
			return err
		}
		return writeResults(cmd.OutOrStdout(), format, results)
	},
}

func init() {
	analyzeCmd.Flags().Int("concurrency", 0, "files analysed in parallel (default from config)")
	analyzeCmd.Flags().String("format", "json", "output format: json or yaml")
	rootCmd.AddCommand(analyzeCmd)
}
