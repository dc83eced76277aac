package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jguan/model-catalog/pkg/config"
	"github.com/jguan/model-catalog/pkg/gateway"
	"github.com/jguan/model-catalog/pkg/infra/cache"
	"github.com/jguan/model-catalog/pkg/infra/eventbus"
	"github.com/jguan/model-catalog/pkg/infra/logger"
	"github.com/jguan/model-catalog/pkg/infra/metrics"
	"github.com/jguan/model-catalog/pkg/infra/store"
	"github.com/jguan/model-catalog/pkg/registry"
	"github.com/jguan/model-catalog/pkg/unit"
	"github.com/jguan/model-catalog/pkg/unit/hardware"
)

var (
	cliVersion   = "dev"
	cliBuildDate = "unknown"
	cliGitCommit = "unknown"
)

// Commands annotated with noRuntime skip opening the store.
const noRuntime = "mcat/no-runtime"

type RootCommand struct {
	cmd       *cobra.Command
	cfg       *config.Config
	gateway   *gateway.Gateway
	registry  *unit.Registry
	bus       *eventbus.InMemoryEventBus
	recorder  *metrics.Recorder
	gatherer  prometheus.Gatherer
	closers   []func() error
	opts      *OutputOptions
	formatStr string
}

func NewRootCommand() *RootCommand {
	root := &RootCommand{
		opts: NewOutputOptions(),
	}

	cmd := &cobra.Command{
		Use:   "mcat",
		Short: "mcat - AI model catalog and deployment recommender",
		Long: `mcat keeps a catalog of AI models, their quantized versions and
benchmark results, and recommends model and GPU configurations for a
use case by ranking candidates with TOPSIS.

Every operation is an atomic unit, reachable from this CLI and from the
HTTP API started with "mcat start".`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  root.persistentPreRunE,
		PersistentPostRunE: root.persistentPostRunE,
	}

	pflags := cmd.PersistentFlags()

	pflags.StringVarP(&root.formatStr, "output", "o", "table", "Output format (table, json, yaml)")
	pflags.BoolVarP(&root.opts.Quiet, "quiet", "q", false, "Suppress output")
	pflags.String("config", "", "Config file path (TOML)")

	viper.SetEnvPrefix("MCAT")
	_ = viper.BindEnv("config")
	_ = viper.BindPFlag("output", pflags.Lookup("output"))
	_ = viper.BindPFlag("quiet", pflags.Lookup("quiet"))
	_ = viper.BindPFlag("config", pflags.Lookup("config"))

	root.cmd = cmd

	root.addSubCommands()

	return root
}

func (r *RootCommand) persistentPreRunE(cmd *cobra.Command, args []string) error {
	format, err := ParseOutputFormat(viper.GetString("output"))
	if err != nil {
		return err
	}
	r.opts.Format = format
	r.opts.Quiet = viper.GetBool("quiet")

	if cmd.Annotations[noRuntime] == "true" || r.gateway != nil {
		return nil
	}

	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	return r.initRuntime(cfg)
}

func (r *RootCommand) persistentPostRunE(cmd *cobra.Command, args []string) error {
	return r.Close()
}

// initRuntime builds the stores, event bus, metrics and registry that
// every catalog command runs against.
func (r *RootCommand) initRuntime(cfg *config.Config) error {
	r.cfg = cfg

	stores, err := r.openStores(cfg.Store)
	if err != nil {
		return err
	}

	r.bus = eventbus.NewInMemoryEventBus()
	r.closers = append(r.closers, r.bus.Close)
	if _, err := r.bus.Subscribe(eventbus.LogHandler(slog.Default())); err != nil {
		return fmt.Errorf("subscribe event log: %w", err)
	}

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r.recorder, err = metrics.NewRecorder(promReg)
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}
	r.gatherer = promReg

	opts := []registry.Option{
		registry.WithStores(stores),
		registry.WithMatcherOptions(hardware.WithStrictSpot(cfg.Hardware.StrictSpot)),
		registry.WithMaxConcurrency(cfg.Recommend.MaxConcurrency),
		registry.WithEventPublisher(r.bus),
		registry.WithObserver(r.recorder),
	}
	if cfg.Cache.Enabled {
		c := cache.New(cache.WithTTL(cfg.Cache.TTLD), cache.WithMaxSize(cfg.Cache.MaxEntries))
		opts = append(opts, registry.WithCache(c, cfg.Cache.TTLD))
	}

	r.registry = unit.NewRegistry()
	if err := registry.RegisterAll(r.registry, opts...); err != nil {
		return fmt.Errorf("register units: %w", err)
	}

	r.gateway = gateway.NewGateway(r.registry,
		gateway.WithTimeout(cfg.Gateway.RequestTimeoutD),
		gateway.WithObserver(r.recorder),
	)
	return nil
}

func (r *RootCommand) openStores(cfg config.StoreConfig) (registry.Stores, error) {
	if cfg.Driver == config.StoreDriverMemory {
		slog.Debug("using in-memory catalog store")
		return registry.Stores{}, nil
	}

	if cfg.Path != store.MemoryDSN {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return registry.Stores{}, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := store.Open(cfg.Path)
	if err != nil {
		return registry.Stores{}, err
	}
	r.closers = append(r.closers, db.Close)

	models, err := store.NewSQLiteModelStore(db)
	if err != nil {
		return registry.Stores{}, fmt.Errorf("init model store: %w", err)
	}
	benchmarks, err := store.NewSQLiteBenchmarkStore(db)
	if err != nil {
		return registry.Stores{}, fmt.Errorf("init benchmark store: %w", err)
	}

	slog.Debug("using sqlite catalog store", "path", cfg.Path)
	return registry.Stores{ModelStore: models, BenchmarkStore: benchmarks}, nil
}

// Close releases runtime resources in reverse order of creation.
func (r *RootCommand) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

func (r *RootCommand) addSubCommands() {
	r.cmd.AddCommand(NewVersionCommand(r))
	r.cmd.AddCommand(NewExecCommand(r))
	r.cmd.AddCommand(NewStartCommand(r))
	r.cmd.AddCommand(NewSeedCommand(r))
	r.cmd.AddCommand(NewModelCommand(r))
	r.cmd.AddCommand(NewVRAMCommand(r))
	r.cmd.AddCommand(NewGPUCommand(r))
	r.cmd.AddCommand(NewRecommendCommand(r))
}

// runUnit executes a unit through the gateway so CLI calls get the same
// validation, timeout and metrics as HTTP calls.
func (r *RootCommand) runUnit(ctx context.Context, unitName string, input map[string]any) (any, error) {
	reqType := gateway.TypeCommand
	if r.registry.GetQuery(unitName) != nil {
		reqType = gateway.TypeQuery
	}

	resp := r.gateway.Handle(ctx, &gateway.Request{
		Type:  reqType,
		Unit:  unitName,
		Input: input,
	})
	if !resp.Success {
		return nil, resp.Error
	}
	return resp.Data, nil
}

// events returns the runtime event bus, or nil before initRuntime.
func (r *RootCommand) events() unit.EventPublisher {
	if r.bus == nil {
		return nil
	}
	return r.bus
}

func (r *RootCommand) Command() *cobra.Command {
	return r.cmd
}

func (r *RootCommand) Gateway() *gateway.Gateway {
	return r.gateway
}

func (r *RootCommand) Registry() *unit.Registry {
	return r.registry
}

func (r *RootCommand) Config() *config.Config {
	return r.cfg
}

func (r *RootCommand) OutputOptions() *OutputOptions {
	return r.opts
}

func (r *RootCommand) SetOutputWriter(w io.Writer) {
	r.opts.Writer = w
}

func (r *RootCommand) Execute() error {
	return r.cmd.Execute()
}

func (r *RootCommand) ExecuteContext(ctx context.Context) error {
	return r.cmd.ExecuteContext(ctx)
}

func Execute() {
	root := NewRootCommand()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := root.ExecuteContext(ctx); err != nil {
		PrintError(err, root.OutputOptions())
		_ = root.Close()
		cancel()
		os.Exit(1)
	}
}

func SetVersion(version, buildDate, gitCommit string) {
	cliVersion = version
	cliBuildDate = buildDate
	cliGitCommit = gitCommit
}

func GetVersion() string {
	return cliVersion
}

func GetBuildDate() string {
	return cliBuildDate
}

func GetGitCommit() string {
	return cliGitCommit
}
