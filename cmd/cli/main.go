package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"modelcheck/adapters/glm"
	"modelcheck/adapters/render"
	rngadapter "modelcheck/adapters/rng"
	"modelcheck/adapters/tabular"
	"modelcheck/app"
	"modelcheck/domain/core"
	"modelcheck/domain/model"
	"modelcheck/internal"
	"modelcheck/internal/ppc"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "modelcheck",
		Short: "Fit candidate Bayesian GLMs, compare them by LOO ELPD, and run posterior predictive checks",
	}

	rootCmd.AddCommand(
		newRunCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var (
		models        []string
		seed          int64
		draws         int
		subsample     int
		maxParallel   int
		outputDir     string
		groupBy       string
		cutPoints     []float64
		countAbove    float64
		hasCountAbove bool
	)

	cmd := &cobra.Command{
		Use:   "run [data-file]",
		Short: "Run the full evaluation pipeline on a dataset file",
		Long: `Run the full evaluation pipeline: load the dataset, fit every candidate
model, rank them by PSIS-LOO ELPD, and produce posterior predictive check
data. Reports are written next to the data unless --out is given.

Candidate models are given as repeated --model flags in the form
  name=family:response~pred1+pred2

Example:
  modelcheck run congress.csv \
    --model "past_only=gaussian:vote_share~past_share" \
    --model "full=gaussian:vote_share~past_share+incumbency" \
    --group-by past_share --cuts 0,0.33,0.67,1 --seed 12345`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(models) == 0 {
				return fmt.Errorf("at least one --model is required")
			}
			specs := make([]model.Spec, 0, len(models))
			for _, m := range models {
				spec, err := parseModelFlag(m)
				if err != nil {
					return err
				}
				specs = append(specs, spec)
			}

			logger := internal.NewDefaultLogger()
			rngPort := rngadapter.NewAdapter()
			service := app.NewEvaluationService(glm.NewFitter(rngPort), rngPort, logger, maxParallel)

			ctx := context.Background()
			table, err := tabular.NewReader(logger).Read(ctx, args[0])
			if err != nil {
				return err
			}

			req := app.EvaluationRequest{
				Table:         table,
				Specs:         specs,
				Options:       model.FitOptions{Seed: seed, Draws: draws},
				SubsampleSize: subsample,
				Statistics:    []ppc.Statistic{ppc.Mean(), ppc.StdDev()},
			}
			if hasCountAbove {
				req.Statistics = append(req.Statistics, ppc.CountAbove(countAbove))
			}
			if groupBy != "" {
				if len(cutPoints) < 2 {
					return fmt.Errorf("--group-by requires at least two --cuts values")
				}
				req.GroupBy = &app.GroupingRequest{
					Covariate: core.VariableKey(groupBy),
					CutPoints: cutPoints,
				}
			}

			result, err := service.Run(ctx, req)
			if err != nil {
				return err
			}

			if outputDir == "" {
				outputDir = filepath.Dir(args[0])
			}
			md := render.NewMarkdownRenderer()
			data, ext, err := md.Render(result.Report)
			if err != nil {
				return err
			}
			path := filepath.Join(outputDir, table.Name()+"_report"+ext)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), string(data))
			fmt.Fprintf(cmd.OutOrStdout(), "report written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&models, "model", nil, "candidate model, name=family:response~pred1+pred2 (repeatable)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "base seed for deterministic draws")
	cmd.Flags().IntVar(&draws, "draws", 2000, "posterior draws per candidate")
	cmd.Flags().IntVar(&subsample, "subsample", 100, "replicate vectors per density overlay")
	cmd.Flags().IntVar(&maxParallel, "max-parallel", 4, "concurrent candidate fits")
	cmd.Flags().StringVar(&outputDir, "out", "", "output directory (defaults next to the data file)")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "covariate for stratified density overlays")
	cmd.Flags().Float64SliceVar(&cutPoints, "cuts", nil, "cut points for --group-by binning")
	cmd.Flags().Float64Var(&countAbove, "count-above", 0, "add a count-above-threshold statistic check")
	cmd.PreRun = func(c *cobra.Command, args []string) {
		hasCountAbove = c.Flags().Changed("count-above")
	}

	return cmd
}

// parseModelFlag parses "name=family:response~pred1+pred2". Family defaults
// to gaussian when omitted.
func parseModelFlag(s string) (model.Spec, error) {
	name, rest, ok := strings.Cut(s, "=")
	if !ok {
		return model.Spec{}, fmt.Errorf("model %q: expected name=family:response~predictors", s)
	}

	family := string(model.FamilyGaussian)
	if fam, formula, hasFamily := strings.Cut(rest, ":"); hasFamily {
		family = fam
		rest = formula
	}

	response, predictors, ok := strings.Cut(rest, "~")
	if !ok {
		return model.Spec{}, fmt.Errorf("model %q: formula needs response~predictors", s)
	}

	spec := model.Spec{
		Name:     core.ModelName(strings.TrimSpace(name)),
		Response: core.VariableKey(strings.TrimSpace(response)),
		Family:   model.Family(strings.TrimSpace(family)),
	}
	for _, p := range strings.Split(predictors, "+") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		spec.Predictors = append(spec.Predictors, core.VariableKey(p))
	}
	if err := spec.Validate(); err != nil {
		return model.Spec{}, err
	}
	return spec, nil
}
