package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jguan/model-catalog/pkg/unit/recommend"
)

var recommendView = TableView{
	Rows: "recommendations",
	Columns: []Column{
		{Header: "RANK", Path: "rank"},
		{Header: "MODEL", Path: "model_name"},
		{Header: "VERSION", Path: "version_id"},
		{Header: "QUANT", Path: "quantization"},
		{Header: "ACCURACY", Path: "avg_accuracy"},
		{Header: "P90 (ms)", Path: "avg_latency_p90_ms"},
		{Header: "THROUGHPUT", Path: "avg_throughput"},
		{Header: "GPU", Path: "recommended_gpu", Format: gpuSummary},
		{Header: "COST/HR", Path: "recommended_gpu.cost_per_hour_usd"},
		{Header: "SCORE", Path: "topsis_score", Format: score},
	},
}

func NewRecommendCommand(root *RootCommand) *cobra.Command {
	var (
		maxLatency    float64
		minThroughput float64
		minAccuracy   float64
		maxCost       float64
		preferSpot    bool
		limit         int
		weights       recommend.Weights
	)

	defaults := recommend.DefaultWeights()

	cmd := &cobra.Command{
		Use:   "recommend <use-case>",
		Short: "Rank model versions and GPU configurations for a use case",
		Long: `Rank the benchmarked model versions suitable for a use case.

Candidates failing a constraint are dropped; the rest are ranked with
TOPSIS over accuracy, p90 latency, throughput and hourly cost, each paired
with its cheapest fitting GPU configuration. Weights must sum to 1.`,
		Example: `  mcat recommend chatbot
  mcat recommend code_generation --max-latency 200 --max-cost 3
  mcat recommend chatbot --weight-cost 0.4 --weight-accuracy 0.2 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{
				"use_case":              args[0],
				"prefer_spot_instances": preferSpot,
				"limit":                 limit,
				"weight_accuracy":       weights.Accuracy,
				"weight_latency":        weights.Latency,
				"weight_throughput":     weights.Throughput,
				"weight_cost":           weights.Cost,
			}
			flags := cmd.Flags()
			if flags.Changed("max-latency") {
				input["max_latency_p90_ms"] = maxLatency
			}
			if flags.Changed("min-throughput") {
				input["min_throughput"] = minThroughput
			}
			if flags.Changed("min-accuracy") {
				input["min_accuracy"] = minAccuracy
			}
			if flags.Changed("max-cost") {
				input["max_cost_per_hour"] = maxCost
			}

			data, err := root.runUnit(cmd.Context(), "recommend.models", input)
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			if opts.Format == OutputTable && !opts.Quiet {
				if rec, ok := data.(*recommend.Recommendation); ok {
					fmt.Fprintf(opts.Writer, "Use case %q: %d candidate(s), showing %d\n\n",
						rec.UseCase, rec.TotalCandidates, len(rec.Recommendations))
				}
			}
			return Render(data, recommendView, opts)
		},
	}

	flags := cmd.Flags()
	flags.Float64Var(&maxLatency, "max-latency", 0, "Maximum p90 time to first token in ms")
	flags.Float64Var(&minThroughput, "min-throughput", 0, "Minimum throughput in tokens/s")
	flags.Float64Var(&minAccuracy, "min-accuracy", 0, "Minimum accuracy score (0-1)")
	flags.Float64Var(&maxCost, "max-cost", 0, "Maximum GPU cost per hour in USD")
	flags.BoolVar(&preferSpot, "prefer-spot", true, "Price GPUs at spot rates where available")
	flags.IntVar(&limit, "limit", recommend.DefaultLimit, "Maximum number of recommendations")
	flags.Float64Var(&weights.Accuracy, "weight-accuracy", defaults.Accuracy, "TOPSIS weight for accuracy")
	flags.Float64Var(&weights.Latency, "weight-latency", defaults.Latency, "TOPSIS weight for latency")
	flags.Float64Var(&weights.Throughput, "weight-throughput", defaults.Throughput, "TOPSIS weight for throughput")
	flags.Float64Var(&weights.Cost, "weight-cost", defaults.Cost, "TOPSIS weight for cost")

	return cmd
}

func gpuSummary(v any) string {
	gpu, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%sx%s", formatValue(gpu["count"]), formatValue(gpu["gpu_type"]))
}

func score(v any) string {
	f, ok := v.(float64)
	if !ok {
		return formatValue(v)
	}
	return fmt.Sprintf("%.4f", f)
}
