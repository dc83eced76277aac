package recommend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jguan/model-catalog/pkg/unit/benchmark"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
	"github.com/jguan/model-catalog/pkg/unit/model"
)

const detailsGPUCount = 3

// Details describes a model through its benchmarked versions: per-version
// stats, VRAM estimate and the three cheapest spot configurations.
// Versions without benchmarks are left out.
func (o *Orchestrator) Details(ctx context.Context, modelID string) (*ModelDetails, error) {
	if o.models == nil || o.stats == nil {
		return nil, ErrSourceNotSet
	}
	m, err := o.models.Get(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("get model %s: %w", modelID, err)
	}
	versions, err := o.models.ListVersions(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("list versions of %s: %w", modelID, err)
	}
	useCases, err := o.models.ListUseCases(ctx, modelID)
	if err != nil {
		return nil, fmt.Errorf("list use cases of %s: %w", modelID, err)
	}

	stats := make([]*benchmark.Stats, len(versions))
	err = o.fanOut(ctx, len(versions), func(ctx context.Context, i int) error {
		s, err := o.stats.AggregatedStats(ctx, versions[i].ID, "")
		if err != nil {
			return fmt.Errorf("aggregate stats of %s: %w", versions[i].ID, err)
		}
		stats[i] = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	details := &ModelDetails{
		Model:    *m,
		Versions: []VersionDetails{},
		UseCases: useCases,
	}
	opts := o.matcher.DefaultOptions()

	var accuracy, throughput, latency average
	for i, v := range versions {
		s := stats[i]
		if s == nil || s.TotalBenchmarks == 0 {
			continue
		}
		accuracy.add(s.AvgAccuracy)
		throughput.add(s.AvgThroughput)
		latency.add(s.AvgTTFTP90Ms)

		vd := VersionDetails{
			VersionID:       v.ID,
			Version:         v.Version,
			Quantization:    v.Quantization,
			RecommendedGPUs: []hardware.GPUConfig{},
			Stats:           *s,
		}
		vram, err := hardware.EstimateVRAM(m.Parameters, hardware.Quantization(v.Quantization), 1, hardware.DefaultSequenceLength)
		if err != nil {
			slog.Warn("no vram estimate for version", "model_id", m.ID, "version_id", v.ID, "error", err)
			details.Versions = append(details.Versions, vd)
			continue
		}
		configs, err := o.matcher.Recommend(vram, opts)
		if err != nil {
			return nil, fmt.Errorf("match hardware for %s: %w", v.ID, err)
		}
		vd.VRAMRequirementGB = vram
		vd.RecommendedGPUs = configs[:min(detailsGPUCount, len(configs))]
		details.Versions = append(details.Versions, vd)
	}

	details.AvgAccuracy = accuracy.value()
	details.AvgThroughput = throughput.value()
	details.AvgLatencyP90Ms = latency.value()
	return details, nil
}

// Search runs a catalog search and attaches the newest version's
// accuracy and throughput averages to each hit.
func (o *Orchestrator) Search(ctx context.Context, filter model.SearchFilter) ([]SearchHit, error) {
	if o.models == nil || o.stats == nil {
		return nil, ErrSourceNotSet
	}
	models, err := o.models.Search(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("search models: %w", err)
	}

	hits := make([]SearchHit, len(models))
	err = o.fanOut(ctx, len(models), func(ctx context.Context, i int) error {
		m := models[i]
		versions, err := o.models.ListVersions(ctx, m.ID)
		if err != nil {
			return fmt.Errorf("list versions of %s: %w", m.ID, err)
		}
		hit := SearchHit{
			ID:           m.ID,
			Name:         m.Name,
			Architecture: m.Architecture,
			Parameters:   m.Parameters,
			Tags:         m.Tags,
			VersionCount: len(versions),
		}
		if len(versions) > 0 {
			newest := versions[len(versions)-1]
			s, err := o.stats.AggregatedStats(ctx, newest.ID, "")
			if err != nil {
				return fmt.Errorf("aggregate stats of %s: %w", newest.ID, err)
			}
			if s != nil {
				hit.AvgAccuracy, hit.AvgThroughput = s.AvgAccuracy, s.AvgThroughput
			}
		}
		hits[i] = hit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return hits, nil
}

type average struct {
	sum float64
	n   int
}

func (a *average) add(v *float64) {
	if v != nil {
		a.sum += *v
		a.n++
	}
}

func (a *average) value() *float64 {
	if a.n == 0 {
		return nil
	}
	v := a.sum / float64(a.n)
	return &v
}
