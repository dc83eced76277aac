package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	modelListView = TableView{
		Rows: "items",
		Columns: []Column{
			{Header: "ID", Path: "id"},
			{Header: "NAME", Path: "name"},
			{Header: "ARCHITECTURE", Path: "architecture"},
			{Header: "PARAMS", Path: "parameters", Format: humanParams},
			{Header: "TAGS", Path: "tags"},
		},
	}

	searchView = TableView{
		Rows: "results",
		Columns: []Column{
			{Header: "ID", Path: "id"},
			{Header: "NAME", Path: "name"},
			{Header: "PARAMS", Path: "parameters", Format: humanParams},
			{Header: "VERSIONS", Path: "version_count"},
			{Header: "ACCURACY", Path: "avg_accuracy"},
			{Header: "THROUGHPUT", Path: "avg_throughput"},
		},
	}

	versionView = TableView{
		Rows: "versions",
		Columns: []Column{
			{Header: "VERSION ID", Path: "id"},
			{Header: "VERSION", Path: "version"},
			{Header: "QUANT", Path: "quantization"},
			{Header: "FORMAT", Path: "format"},
			{Header: "VRAM (GB)", Path: "vram_requirement_gb"},
		},
	}

	detailsView = TableView{
		Rows: "versions",
		Columns: []Column{
			{Header: "VERSION ID", Path: "version_id"},
			{Header: "QUANT", Path: "quantization"},
			{Header: "VRAM (GB)", Path: "vram_requirement_gb"},
			{Header: "BENCHMARKS", Path: "stats.total_benchmarks"},
			{Header: "ACCURACY", Path: "stats.avg_accuracy"},
			{Header: "TTFT P90 (ms)", Path: "stats.avg_ttft_p90_ms"},
			{Header: "THROUGHPUT", Path: "stats.avg_throughput"},
		},
	}
)

func NewModelCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Browse the model catalog",
		Long: `Browse models in the catalog together with their versions,
use cases and benchmark summaries.`,
	}

	cmd.AddCommand(NewModelListCommand(root))
	cmd.AddCommand(NewModelGetCommand(root))
	cmd.AddCommand(NewModelSearchCommand(root))
	cmd.AddCommand(NewModelDetailsCommand(root))
	cmd.AddCommand(NewModelDeleteCommand(root))

	return cmd
}

func NewModelListCommand(root *RootCommand) *cobra.Command {
	var (
		architecture string
		tag          string
		limit        int
		offset       int
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List models",
		Example: `  # List all models
  mcat model list

  # Only llama models, as JSON
  mcat model list --architecture llama -o json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{"limit": limit, "offset": offset}
			if architecture != "" {
				input["architecture"] = architecture
			}
			if tag != "" {
				input["tag"] = tag
			}
			return root.renderUnit(cmd.Context(), "model.list", input, modelListView)
		},
	}

	cmd.Flags().StringVar(&architecture, "architecture", "", "Filter by architecture")
	cmd.Flags().StringVar(&tag, "tag", "", "Filter by tag")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum number of results")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of results to skip")

	return cmd
}

func NewModelGetCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <model-id>",
		Short: "Show a model with its versions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModelGet(cmd.Context(), root, args[0])
		},
	}

	return cmd
}

func runModelGet(ctx context.Context, root *RootCommand, modelID string) error {
	data, err := root.runUnit(ctx, "model.get", map[string]any{"model_id": modelID})
	if err != nil {
		return err
	}

	opts := root.OutputOptions()
	if opts.Format != OutputTable {
		return PrintOutput(data, opts)
	}
	if err := printModelHeader(data, "model", opts); err != nil {
		return err
	}
	return Render(data, versionView, opts)
}

func NewModelSearchCommand(root *RootCommand) *cobra.Command {
	var (
		architecture string
		minParams    float64
		maxParams    float64
		limit        int
	)

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search models by name or tag",
		Long: `Search models by case-insensitive name substring or exact tag.
Each hit shows the benchmark averages of the model's newest version.`,
		Example: `  mcat model search llama
  mcat model search --architecture mistral --max-params 10000000000`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := map[string]any{"limit": limit}
			if len(args) > 0 {
				input["query"] = args[0]
			}
			if architecture != "" {
				input["architecture"] = architecture
			}
			if cmd.Flags().Changed("min-params") {
				input["min_parameters"] = minParams
			}
			if cmd.Flags().Changed("max-params") {
				input["max_parameters"] = maxParams
			}
			return root.renderUnit(cmd.Context(), "recommend.search", input, searchView)
		},
	}

	cmd.Flags().StringVar(&architecture, "architecture", "", "Filter by architecture")
	cmd.Flags().Float64Var(&minParams, "min-params", 0, "Minimum parameter count")
	cmd.Flags().Float64Var(&maxParams, "max-params", 0, "Maximum parameter count")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}

func NewModelDetailsCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "details <model-id>",
		Short: "Show per-version benchmark stats and VRAM needs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := root.runUnit(cmd.Context(), "recommend.model_details", map[string]any{"model_id": args[0]})
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			if opts.Format != OutputTable {
				return PrintOutput(data, opts)
			}
			if err := printModelHeader(data, "", opts); err != nil {
				return err
			}
			return Render(data, detailsView, opts)
		},
	}

	return cmd
}

func NewModelDeleteCommand(root *RootCommand) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <model-id>",
		Aliases: []string{"rm"},
		Short:   "Delete a model with its versions and use cases",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := root.runUnit(cmd.Context(), "model.delete", map[string]any{"model_id": args[0]}); err != nil {
				return err
			}
			PrintSuccess(fmt.Sprintf("Model %s deleted", args[0]), root.OutputOptions())
			return nil
		},
	}

	return cmd
}

// printModelHeader prints the one-line model summary above a version
// table. key names the object holding the model; empty means data itself.
func printModelHeader(data any, key string, opts *OutputOptions) error {
	if opts.Quiet {
		return nil
	}
	doc, err := normalize(data)
	if err != nil {
		return err
	}
	m, _ := lookupPath(doc, key).(map[string]any)
	if m == nil {
		return nil
	}
	fmt.Fprintf(opts.Writer, "%s (%s)  %s  %s params\n",
		formatValue(m["name"]), formatValue(m["id"]),
		formatValue(m["architecture"]), humanParams(m["parameters"]))
	if tags := formatValue(m["tags"]); tags != "" {
		fmt.Fprintf(opts.Writer, "tags: %s\n", tags)
	}
	fmt.Fprintln(opts.Writer)
	return nil
}

// renderUnit runs a unit and renders its result with view.
func (r *RootCommand) renderUnit(ctx context.Context, unitName string, input map[string]any, view TableView) error {
	data, err := r.runUnit(ctx, unitName, input)
	if err != nil {
		return err
	}
	return Render(data, view, r.OutputOptions())
}
