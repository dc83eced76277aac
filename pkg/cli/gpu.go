package cli

import (
	"github.com/spf13/cobra"
)

var (
	gpuConfigView = TableView{
		Rows: "configs",
		Columns: []Column{
			{Header: "GPU", Path: "gpu_type"},
			{Header: "COUNT", Path: "count"},
			{Header: "TOTAL VRAM (GB)", Path: "total_vram_gb"},
			{Header: "UTIL %", Path: "utilization_pct"},
			{Header: "COST/HR", Path: "cost_per_hour_usd"},
			{Header: "SPOT", Path: "spot_available"},
		},
	}

	gpuCatalogView = TableView{
		Rows: "gpus",
		Columns: []Column{
			{Header: "GPU", Path: "gpu_type"},
			{Header: "VRAM (GB)", Path: "vram_per_gpu_gb"},
			{Header: "ON-DEMAND/HR", Path: "cost_per_hour_usd"},
			{Header: "SPOT", Path: "spot_available"},
		},
	}
)

func NewGPUCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gpu",
		Short: "Match VRAM needs against the GPU catalog",
	}

	cmd.AddCommand(NewGPURecommendCommand(root))
	cmd.AddCommand(NewGPUListCommand(root))
	cmd.AddCommand(NewGPUSpotSavingsCommand(root))

	return cmd
}

func NewGPURecommendCommand(root *RootCommand) *cobra.Command {
	var (
		vramNeeded float64
		preferSpot bool
		maxCost    float64
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "List GPU configurations that fit a VRAM requirement",
		Long: `List GPU configurations with enough total VRAM, cheapest first.
With --prefer-spot (the default) costs use spot pricing where the GPU
offers it.`,
		Example: `  mcat gpu recommend --vram 40
  mcat gpu recommend --vram 140 --max-cost 10 --prefer-spot=false`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{
				"vram_needed_gb": vramNeeded,
				"prefer_spot":    preferSpot,
			}
			if cmd.Flags().Changed("max-cost") {
				input["max_cost_per_hour"] = maxCost
			}
			if limit > 0 {
				input["limit"] = limit
			}
			return root.renderUnit(cmd.Context(), "hardware.gpu_recommend", input, gpuConfigView)
		},
	}

	cmd.Flags().Float64Var(&vramNeeded, "vram", 0, "Required VRAM in GB")
	cmd.Flags().BoolVar(&preferSpot, "prefer-spot", true, "Price spot-capable GPUs at spot rates")
	cmd.Flags().Float64Var(&maxCost, "max-cost", 0, "Hourly budget in USD")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of configurations")
	_ = cmd.MarkFlagRequired("vram")

	return cmd
}

func NewGPUListCommand(root *RootCommand) *cobra.Command {
	var spotOnly bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the GPU catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{}
			if spotOnly {
				input["spot_only"] = true
			}
			return root.renderUnit(cmd.Context(), "hardware.gpu_catalog", input, gpuCatalogView)
		},
	}

	cmd.Flags().BoolVar(&spotOnly, "spot-only", false, "Only GPUs with spot capacity")

	return cmd
}

func NewGPUSpotSavingsCommand(root *RootCommand) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "spot-savings <gpu-type>",
		Short:   "Compare on-demand and spot cost for a configuration",
		Example: `  mcat gpu spot-savings A100-80GB --count 2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{"gpu_type": args[0], "count": count}
			return root.renderUnit(cmd.Context(), "hardware.spot_savings", input, TableView{})
		},
	}

	cmd.Flags().IntVar(&count, "count", 1, "Number of GPUs")

	return cmd
}
