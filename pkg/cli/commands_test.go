package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jguan/model-catalog/pkg/gateway"
)

func run(t *testing.T, cmd *cobra.Command, args ...string) error {
	t.Helper()
	cmd.SetArgs(args)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	return cmd.Execute()
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var info *gateway.ErrorInfo
	require.ErrorAs(t, err, &info)
	assert.Equal(t, code, info.Code)
}

func TestModelCommands(t *testing.T) {
	t.Run("list table", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelListCommand(root)))
		out := buf.String()
		assert.True(t, strings.HasPrefix(out, "ID"), out)
		assert.Contains(t, out, "llama-3-8b-instruct")
		assert.Contains(t, out, "8B")
		assert.Contains(t, out, "1.5B")
	})

	t.Run("list filtered json", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelListCommand(root), "--architecture", "llama"))
		out := decodeJSON(t, buf)
		assert.EqualValues(t, 2, out["total"])
	})

	t.Run("get shows versions", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelGetCommand(root), "model-llama-3-8b"))
		out := buf.String()
		assert.Contains(t, out, "llama-3-8b-instruct (model-llama-3-8b)")
		assert.Contains(t, out, "ver-llama-3-8b-fp16")
		assert.Contains(t, out, "ver-llama-3-8b-awq")
	})

	t.Run("get missing model", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputTable)
		err := run(t, NewModelGetCommand(root), "nope")
		requireCode(t, err, gateway.ErrCodeNotFound)
	})

	t.Run("search", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelSearchCommand(root), "mixtral"))
		out := decodeJSON(t, buf)
		assert.EqualValues(t, 1, out["total"])
		assert.Contains(t, buf.String(), "model-mixtral-8x7b")
	})

	t.Run("details", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelDetailsCommand(root), "model-mistral-7b"))
		out := buf.String()
		assert.Contains(t, out, "VERSION ID")
		assert.Contains(t, out, "ver-mistral-7b-int8")
	})

	t.Run("delete", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewModelDeleteCommand(root), "model-qwen2-1.5b"))
		assert.Equal(t, "Model model-qwen2-1.5b deleted\n", buf.String())

		err := run(t, NewModelGetCommand(root), "model-qwen2-1.5b")
		requireCode(t, err, gateway.ErrCodeNotFound)
	})
}

func TestVRAMCommands(t *testing.T) {
	t.Run("estimate", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewVRAMEstimateCommand(root), "7B", "-Q", "fp16"))
		out := decodeJSON(t, buf)
		assert.InDelta(t, 16.8, out["vram_gb"], 1e-9)
		assert.EqualValues(t, 7e9, out["parameters"])
	})

	t.Run("estimate rejects unknown quantization", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		err := run(t, NewVRAMEstimateCommand(root), "7B", "-Q", "fp12")
		requireCode(t, err, gateway.ErrCodeValidationFailed)
	})

	t.Run("estimate rejects bad parameter count", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		assert.ErrorContains(t, run(t, NewVRAMEstimateCommand(root), "lots"), "invalid parameter count")
	})

	t.Run("compare", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)

		require.NoError(t, run(t, NewVRAMCompareCommand(root), "8B"))
		out := buf.String()
		assert.Contains(t, out, "QUANTIZATION")
		assert.Contains(t, out, "fp16")
		assert.Contains(t, out, "int4")
	})

	t.Run("max batch", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewVRAMMaxBatchCommand(root), "7B", "--available", "19"))
		out := decodeJSON(t, buf)
		assert.EqualValues(t, 2, out["max_batch_size"])
	})

	t.Run("max batch requires budget", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		assert.Error(t, run(t, NewVRAMMaxBatchCommand(root), "7B"))
	})
}

func TestParseParameterCount(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "7000000000", want: 7_000_000_000},
		{in: "7B", want: 7_000_000_000},
		{in: "1.5b", want: 1_500_000_000},
		{in: "350M", want: 350_000_000},
		{in: " 70B ", want: 70_000_000_000},
		{in: "0", wantErr: true},
		{in: "-7B", wantErr: true},
		{in: "B", wantErr: true},
		{in: "seven", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseParameterCount(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGPUCommands(t *testing.T) {
	t.Run("list", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)

		require.NoError(t, run(t, NewGPUListCommand(root)))
		out := buf.String()
		assert.Contains(t, out, "H100")
		assert.Contains(t, out, "V100")
	})

	t.Run("list spot only", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)

		require.NoError(t, run(t, NewGPUListCommand(root), "--spot-only"))
		assert.NotContains(t, buf.String(), "V100")
	})

	t.Run("recommend", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewGPURecommendCommand(root), "--vram", "20", "--limit", "3"))
		out := decodeJSON(t, buf)
		configs, ok := out["configs"].([]any)
		require.True(t, ok)
		require.Len(t, configs, 3)
		first := configs[0].(map[string]any)
		assert.Equal(t, "L4", first["gpu_type"])
		assert.EqualValues(t, 1, first["count"])
	})

	t.Run("recommend requires vram", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		assert.Error(t, run(t, NewGPURecommendCommand(root)))
	})

	t.Run("spot savings", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewGPUSpotSavingsCommand(root), "A100-80GB", "--count", "2"))
		out := decodeJSON(t, buf)
		assert.InDelta(t, 4.8, out["on_demand_cost_per_hour"], 1e-9)
		assert.InDelta(t, 1.2, out["spot_cost_per_hour"], 1e-9)
		assert.InDelta(t, 75.0, out["savings_percent"], 1e-9)
	})

	t.Run("spot savings unknown gpu", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		err := run(t, NewGPUSpotSavingsCommand(root), "TPU")
		requireCode(t, err, gateway.ErrCodeNotFound)
	})
}

func TestRecommendCommand(t *testing.T) {
	t.Run("table", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputTable)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewRecommendCommand(root), "chatbot", "--limit", "3"))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.GreaterOrEqual(t, len(lines), 4)
		assert.Equal(t, `Use case "chatbot": 6 candidate(s), showing 3`, lines[0])
		assert.True(t, strings.HasPrefix(lines[2], "RANK"), lines[2])
		assert.True(t, strings.HasPrefix(lines[3], "1 "), lines[3])
	})

	t.Run("json", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)
		seedTestRoot(t, root)

		require.NoError(t, run(t, NewRecommendCommand(root), "chatbot"))
		out := decodeJSON(t, buf)
		assert.EqualValues(t, 6, out["total_candidates"])
		recs := out["recommendations"].([]any)
		require.NotEmpty(t, recs)
		assert.EqualValues(t, 1, recs[0].(map[string]any)["rank"])
	})

	t.Run("weights must sum to one", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		seedTestRoot(t, root)

		err := run(t, NewRecommendCommand(root), "chatbot", "--weight-cost", "0.9")
		requireCode(t, err, gateway.ErrCodeValidationFailed)
	})
}

func TestExecCommand(t *testing.T) {
	t.Run("params are coerced by schema", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewExecCommand(root), "hardware.vram_estimate",
			"-p", "parameters=7000000000", "-p", "quantization=int4", "-p", "batch_size=2"))
		out := decodeJSON(t, buf)
		assert.Equal(t, "int4", out["quantization"])
		assert.EqualValues(t, 2, out["batch_size"])
	})

	t.Run("json input with param override", func(t *testing.T) {
		root, buf := newTestRoot(t, OutputJSON)

		require.NoError(t, run(t, NewExecCommand(root), "hardware.vram_estimate",
			"--input", `{"parameters":7e9,"quantization":"fp32"}`, "-p", "quantization=fp16"))
		out := decodeJSON(t, buf)
		assert.Equal(t, "fp16", out["quantization"])
	})

	t.Run("unknown unit", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		err := run(t, NewExecCommand(root), "nonexistent.unit")
		requireCode(t, err, gateway.ErrCodeUnitNotFound)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		root, _ := newTestRoot(t, OutputJSON)
		err := run(t, NewExecCommand(root), "model.list", "--input", "{invalid json")
		assert.ErrorContains(t, err, "parse input JSON")
	})
}

func TestSeedCommand(t *testing.T) {
	root, buf := newTestRoot(t, OutputTable)

	require.NoError(t, run(t, NewSeedCommand(root)))
	assert.Contains(t, buf.String(), "Seeded 5 model(s), 8 version(s)")

	buf.Reset()
	require.NoError(t, run(t, NewSeedCommand(root)))
	assert.Contains(t, buf.String(), "skipped 5 existing model(s)")
}

func TestSeedCommand_Dir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.yaml"), []byte(`models:
  - id: model-tiny
    name: tiny-llm
    architecture: llama
    parameters: 100000000
    versions:
      - id: ver-tiny-fp16
        version: v1
        quantization: fp16
`), 0o644))

	root, buf := newTestRoot(t, OutputJSON)
	require.NoError(t, run(t, NewSeedCommand(root), "--dir", dir))
	out := decodeJSON(t, buf)
	assert.EqualValues(t, 1, out["models"])
	assert.EqualValues(t, 1, out["versions"])

	assert.ErrorContains(t, run(t, NewSeedCommand(root), "--dir", filepath.Join(dir, "tiny.yaml")), "not a directory")
}

func TestNewServer_FromConfig(t *testing.T) {
	root, _ := newTestRoot(t, OutputTable)
	root.Config().API.EnableCORS = true
	root.Config().Security.RateLimitPerMin = 30

	s := newServer(root, "127.0.0.1:0")
	assert.Equal(t, "127.0.0.1:0", s.Config().Addr)
	assert.True(t, s.Config().EnableCORS)
	assert.Equal(t, 30, s.Config().RateLimitPerMin)
	assert.NotNil(t, s.Config().Gatherer)
	assert.Equal(t, "/metrics", s.Config().MetricsPath)

	root.Config().Metrics.Enabled = false
	assert.Nil(t, newServer(root, "").Config().Gatherer)
	assert.Equal(t, root.Config().API.ListenAddr, newServer(root, "").Config().Addr)
}
