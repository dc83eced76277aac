package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/jguan/model-catalog/pkg/unit"
)

const EventTypeSeeded = "catalog.seeded"

// SeedFile is the layout of one catalog/seed/*.yaml file.
type SeedFile struct {
	Models []SeedModel `yaml:"models"`
}

type SeedModel struct {
	ID           string        `yaml:"id"`
	Name         string        `yaml:"name"`
	Architecture string        `yaml:"architecture"`
	Parameters   int64         `yaml:"parameters"`
	BaseModel    string        `yaml:"base_model"`
	Tags         []string      `yaml:"tags"`
	UseCases     []SeedUseCase `yaml:"use_cases"`
	Versions     []SeedVersion `yaml:"versions"`
}

type SeedUseCase struct {
	Category         string  `yaml:"category"`
	Subcategory      string  `yaml:"subcategory"`
	SuitabilityScore float64 `yaml:"suitability_score"`
	Recommended      *bool   `yaml:"recommended"`
}

// SeedVersion carries benchmark rows verbatim; they are passed to
// benchmark.record with the version id filled in.
type SeedVersion struct {
	ID           string           `yaml:"id"`
	Version      string           `yaml:"version"`
	Quantization string           `yaml:"quantization"`
	Format       string           `yaml:"format"`
	ArtifactURI  string           `yaml:"artifact_uri"`
	Benchmarks   []map[string]any `yaml:"benchmarks"`
}

type SeedReport struct {
	Models     int `json:"models" yaml:"models"`
	Versions   int `json:"versions" yaml:"versions"`
	UseCases   int `json:"use_cases" yaml:"use_cases"`
	Benchmarks int `json:"benchmarks" yaml:"benchmarks"`
	Skipped    int `json:"skipped" yaml:"skipped"`
}

// CatalogService runs multi-step catalog workflows through the registry so
// validation, events and metrics apply exactly as for single calls.
type CatalogService struct {
	registry *unit.Registry
	events   unit.EventPublisher
}

func NewCatalogService(registry *unit.Registry, events unit.EventPublisher) *CatalogService {
	return &CatalogService{registry: registry, events: events}
}

// LoadSeed reads every *.yaml file at the root of fsys, in name order.
func LoadSeed(fsys fs.FS) ([]SeedModel, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list seed files: %w", err)
	}
	sort.Strings(names)

	var models []SeedModel
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		var file SeedFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path.Base(name), err)
		}
		models = append(models, file.Models...)
	}
	return models, nil
}

// Seed loads the catalog in fsys. A model whose id or name already exists
// is skipped together with its versions and benchmarks, so seeding twice
// is a no-op.
func (s *CatalogService) Seed(ctx context.Context, fsys fs.FS) (*SeedReport, error) {
	models, err := LoadSeed(fsys)
	if err != nil {
		return nil, err
	}

	report := &SeedReport{}
	for _, m := range models {
		err := s.seedModel(ctx, m, report)
		if errors.Is(err, errModelExists) {
			slog.Debug("seed model already present", "model_id", m.ID, "name", m.Name)
			report.Skipped++
			continue
		}
		if err != nil {
			return report, fmt.Errorf("seed %s: %w", m.Name, err)
		}
	}

	if s.events != nil {
		if err := s.events.Publish(unit.NewDomainEvent("catalog", EventTypeSeeded, report)); err != nil {
			slog.Warn("failed to publish event", "type", EventTypeSeeded, "error", err)
		}
	}
	return report, nil
}

var errModelExists = errors.New("model exists")

func (s *CatalogService) seedModel(ctx context.Context, m SeedModel, report *SeedReport) error {
	out, err := s.execCommand(ctx, "model.create", map[string]any{
		"id":           m.ID,
		"name":         m.Name,
		"architecture": m.Architecture,
		"parameters":   m.Parameters,
		"base_model":   m.BaseModel,
		"tags":         m.Tags,
	})
	if unit.IsAlreadyExists(err) {
		return errModelExists
	}
	if err != nil {
		return err
	}
	modelID, _ := out["model_id"].(string)
	if modelID == "" {
		return fmt.Errorf("model_id not found in create result")
	}
	report.Models++

	for _, u := range m.UseCases {
		input := map[string]any{
			"model_id":          modelID,
			"category":          u.Category,
			"subcategory":       u.Subcategory,
			"suitability_score": u.SuitabilityScore,
		}
		if u.Recommended != nil {
			input["recommended"] = *u.Recommended
		}
		if _, err := s.execCommand(ctx, "model.assign_use_case", input); err != nil {
			return err
		}
		report.UseCases++
	}

	for _, v := range m.Versions {
		out, err := s.execCommand(ctx, "model.add_version", map[string]any{
			"id":           v.ID,
			"model_id":     modelID,
			"version":      v.Version,
			"quantization": v.Quantization,
			"format":       v.Format,
			"artifact_uri": v.ArtifactURI,
		})
		if err != nil {
			return err
		}
		versionID, _ := out["version_id"].(string)
		report.Versions++

		for _, b := range v.Benchmarks {
			input := make(map[string]any, len(b)+1)
			for k, val := range b {
				input[k] = val
			}
			input["model_version_id"] = versionID
			if _, err := s.execCommand(ctx, "benchmark.record", input); err != nil {
				return err
			}
			report.Benchmarks++
		}
	}
	return nil
}

func (s *CatalogService) execCommand(ctx context.Context, name string, input map[string]any) (map[string]any, error) {
	cmd := s.registry.GetCommand(name)
	if cmd == nil {
		return nil, fmt.Errorf("%s command not found", name)
	}
	schema := cmd.InputSchema()
	if err := schema.Validate(input); err != nil {
		return nil, fmt.Errorf("%s: %w", name, unit.NewError(unit.ErrCodeInvalidInput, err.Error()))
	}
	out, err := cmd.Execute(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	result, ok := out.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected result type %T", name, out)
	}
	return result, nil
}
