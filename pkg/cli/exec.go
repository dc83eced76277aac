package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func NewExecCommand(root *RootCommand) *cobra.Command {
	var (
		inputJSON string
		params    map[string]string
	)

	cmd := &cobra.Command{
		Use:   "exec <unit> [flags]",
		Short: "Execute an atomic unit",
		Long: `Execute any atomic unit (command or query) directly.

The unit name has the form "domain.action", for example:
  - model.list
  - benchmark.stats
  - hardware.vram_estimate
  - recommend.models

Input is given as a JSON object with --input, as key=value pairs with
--param, or both. Parameters are converted to the types the unit's input
schema declares and override keys from --input.`,
		Example: `  # Estimate VRAM for a 7B model in int4
  mcat exec hardware.vram_estimate -p parameters=7000000000 -p quantization=int4

  # Same with JSON input
  mcat exec hardware.vram_estimate --input '{"parameters":7e9,"quantization":"int4"}'

  # Aggregate benchmark stats as JSON
  mcat exec benchmark.stats -p model_version_id=ver-llama-3-8b-fp16 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd.Context(), root, args[0], inputJSON, params)
		},
	}

	cmd.Flags().StringVarP(&inputJSON, "input", "i", "", "JSON input for the unit")
	cmd.Flags().StringToStringVarP(&params, "param", "p", nil, "Input parameter as key=value (repeatable)")

	return cmd
}

func runExec(ctx context.Context, root *RootCommand, unitName, inputJSON string, params map[string]string) error {
	input := make(map[string]any)

	if inputJSON != "" {
		if err := json.Unmarshal([]byte(inputJSON), &input); err != nil {
			return fmt.Errorf("parse input JSON: %w", err)
		}
	}

	if len(params) > 0 {
		coerced := make(map[string]any, len(params))
		if schema, ok := root.Registry().Schema(unitName); ok {
			coerced = schema.Coerce(params)
		} else {
			for k, v := range params {
				coerced[k] = v
			}
		}
		for k, v := range coerced {
			input[k] = v
		}
	}

	data, err := root.runUnit(ctx, unitName, input)
	if err != nil {
		return err
	}
	return PrintOutput(data, root.OutputOptions())
}
