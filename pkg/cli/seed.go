package cli

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	catalogdata "github.com/jguan/model-catalog/catalog"
	"github.com/jguan/model-catalog/pkg/service"
)

func NewSeedCommand(root *RootCommand) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the sample catalog into the store",
		Long: `Load models, versions, use cases and benchmark results from YAML
files into the configured store. Without --dir the built-in sample catalog
is used. Models that already exist are skipped, so seeding is repeatable.`,
		Example: `  mcat seed
  mcat seed --dir ./my-catalog`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fsys, err := seedSource(dir)
			if err != nil {
				return err
			}

			report, err := newCatalogService(root).Seed(cmd.Context(), fsys)
			if err != nil {
				return err
			}

			opts := root.OutputOptions()
			if opts.Format != OutputTable {
				return PrintOutput(report, opts)
			}
			PrintSuccess(fmt.Sprintf("Seeded %d model(s), %d version(s), %d use case(s), %d benchmark(s); skipped %d existing model(s)",
				report.Models, report.Versions, report.UseCases, report.Benchmarks, report.Skipped), opts)
			return nil
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "Directory of *.yaml catalog files (default: built-in sample)")

	return cmd
}

func seedSource(dir string) (fs.FS, error) {
	if dir != "" {
		info, err := os.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("seed directory: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("seed directory: %s is not a directory", dir)
		}
		return os.DirFS(dir), nil
	}
	return fs.Sub(catalogdata.SeedFS, "seed")
}

func newCatalogService(root *RootCommand) *service.CatalogService {
	return service.NewCatalogService(root.Registry(), root.events())
}
