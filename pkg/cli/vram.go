package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var vramCompareView = TableView{
	Rows: "estimates",
	Columns: []Column{
		{Header: "QUANTIZATION", Path: "quantization"},
		{Header: "VRAM (GB)", Path: "vram_gb"},
	},
}

func NewVRAMCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vram",
		Short: "Estimate GPU memory for serving a model",
		Long: `Estimate the GPU memory needed to serve a model of a given size.

Parameter counts accept plain integers or B/M suffixes: 7000000000, 7B, 1.5b.`,
	}

	cmd.AddCommand(NewVRAMEstimateCommand(root))
	cmd.AddCommand(NewVRAMCompareCommand(root))
	cmd.AddCommand(NewVRAMMaxBatchCommand(root))

	return cmd
}

func NewVRAMEstimateCommand(root *RootCommand) *cobra.Command {
	var (
		quantization string
		batchSize    int
		seqLen       int
	)

	cmd := &cobra.Command{
		Use:   "estimate <parameters>",
		Short: "Estimate VRAM for one quantization",
		Example: `  mcat vram estimate 7B --quantization fp16
  mcat vram estimate 70B -Q int4 --batch-size 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParameterCount(args[0])
			if err != nil {
				return err
			}
			input := map[string]any{
				"parameters":      params,
				"quantization":    quantization,
				"batch_size":      batchSize,
				"sequence_length": seqLen,
			}
			return root.renderUnit(cmd.Context(), "hardware.vram_estimate", input, TableView{})
		},
	}

	cmd.Flags().StringVarP(&quantization, "quantization", "Q", "fp16", "Quantization (fp32, fp16, bf16, int8, int4, awq, gptq)")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1, "Concurrent sequences")
	cmd.Flags().IntVar(&seqLen, "seq-len", 2048, "Tokens per sequence")

	return cmd
}

func NewVRAMCompareCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "compare <parameters>",
		Short:   "Compare VRAM across all quantizations",
		Example: `  mcat vram compare 8B`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParameterCount(args[0])
			if err != nil {
				return err
			}
			return root.renderUnit(cmd.Context(), "hardware.vram_compare", map[string]any{"parameters": params}, vramCompareView)
		},
	}

	return cmd
}

func NewVRAMMaxBatchCommand(root *RootCommand) *cobra.Command {
	var (
		quantization string
		available    float64
		seqLen       int
	)

	cmd := &cobra.Command{
		Use:     "max-batch <parameters>",
		Short:   "Largest batch that fits a VRAM budget",
		Example: `  mcat vram max-batch 7B --available 24 -Q int8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := parseParameterCount(args[0])
			if err != nil {
				return err
			}
			input := map[string]any{
				"parameters":        params,
				"quantization":      quantization,
				"available_vram_gb": available,
				"sequence_length":   seqLen,
			}
			return root.renderUnit(cmd.Context(), "hardware.max_batch", input, TableView{})
		},
	}

	cmd.Flags().StringVarP(&quantization, "quantization", "Q", "fp16", "Quantization (fp32, fp16, bf16, int8, int4, awq, gptq)")
	cmd.Flags().Float64Var(&available, "available", 0, "Available VRAM in GB")
	cmd.Flags().IntVar(&seqLen, "seq-len", 2048, "Tokens per sequence")
	_ = cmd.MarkFlagRequired("available")

	return cmd
}

// parseParameterCount accepts 7000000000, 7B, 7b, 1.5B or 350M.
func parseParameterCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	multiplier := 1.0
	switch {
	case strings.HasSuffix(strings.ToUpper(s), "B"):
		multiplier = 1e9
		s = s[:len(s)-1]
	case strings.HasSuffix(strings.ToUpper(s), "M"):
		multiplier = 1e6
		s = s[:len(s)-1]
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) {
		return 0, fmt.Errorf("invalid parameter count %q", s)
	}
	return int64(math.Round(f * multiplier)), nil
}
