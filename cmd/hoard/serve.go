package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hoardlab/hoard/pkg/action"
	"github.com/hoardlab/hoard/pkg/config"
	"github.com/hoardlab/hoard/pkg/gateway"
	"github.com/hoardlab/hoard/pkg/identity"
	"github.com/hoardlab/hoard/pkg/log"
	"github.com/hoardlab/hoard/pkg/metrics"
	"github.com/hoardlab/hoard/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the asset store daemon",
	Long: `Run the asset store daemon: load persisted state, mount the
registered system assets and serve queries until interrupted.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML configuration file")
	serveCmd.Flags().String("data-dir", "", "Data directory (overrides config)")
	serveCmd.Flags().String("backend", "", "Persistence backend: file, bolt or memory (overrides config)")
	serveCmd.Flags().String("gateway-addr", "", "Query endpoint address (overrides config)")
	serveCmd.Flags().String("health-addr", "", "Health and metrics address (overrides config)")
	serveCmd.Flags().String("log-level", "", "Log level: debug, info, warn or error (overrides config)")

	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if v, _ := cmd.Flags().GetString("backend"); v != "" {
		cfg.Backend = v
	}
	if v, _ := cmd.Flags().GetString("gateway-addr"); v != "" {
		cfg.Listen.Gateway = v
	}
	if v, _ := cmd.Flags().GetString("health-addr"); v != "" {
		cfg.Listen.Health = v
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openBackend(cfg *config.Config) (store.Backend, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFileBackend(cfg.DataDir)
	case config.BackendBolt:
		return store.NewBoltBackend(cfg.DataDir)
	case config.BackendMemory:
		return store.NewMemoryBackend(), nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

// buildRegistry seeds the entity registry from the configuration. The
// daemon identity is created even when the entity list omits it.
func buildRegistry(cfg *config.Config) (*identity.Registry, error) {
	reg := identity.NewRegistry()

	for _, spec := range cfg.Identity.Entities {
		if _, err := reg.MakeEntity(spec.Name, nil); err != nil {
			return nil, fmt.Errorf("failed to create entity %q: %w", spec.Name, err)
		}
	}
	for _, spec := range cfg.Identity.Entities {
		for _, layer := range spec.Layers {
			if !reg.AddLayerToEntity(spec.Name, layer) {
				return nil, fmt.Errorf("entity %q layers unknown entity %q", spec.Name, layer)
			}
		}
	}

	for _, name := range []string{cfg.Identity.User, cfg.Identity.Group} {
		if !reg.IsKnownEntity(name) {
			if _, err := reg.MakeEntity(name, nil); err != nil {
				return nil, fmt.Errorf("failed to create entity %q: %w", name, err)
			}
		}
	}
	return reg, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log.Init(log.Config{
		Level:      log.Level(cfg.Log.Level),
		JSONOutput: cfg.Log.JSON,
		Output:     os.Stdout,
	})
	logger := log.WithComponent("main")

	backend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	metrics.RegisterComponent("backend", true, cfg.Backend)

	st := store.New(backend)
	if err := st.Load(); err != nil {
		return fmt.Errorf("failed to load store state: %w", err)
	}
	metrics.RegisterComponent("store", true, "")

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	baseCtx := store.NewUpdateContext(st, reg, cfg.Identity.User, cfg.Identity.Group)

	// Registered assets are re-mounted on every start so new releases can
	// add system assets without a migration step.
	if err := action.CreateRegisteredAssets(baseCtx); err != nil {
		return fmt.Errorf("failed to mount system assets: %w", err)
	}
	if err := st.Save(); err != nil {
		return fmt.Errorf("failed to persist store state: %w", err)
	}
	logger.Info().Str("backend", cfg.Backend).Str("data_dir", cfg.DataDir).Msg("store ready")

	metrics.SetVersion(Version)
	collector := metrics.NewCollector(st.Stats)
	collector.Start()
	defer collector.Stop()

	hs := gateway.NewHealthServer()
	go func() {
		if err := hs.Start(cfg.Listen.Health); err != nil {
			logger.Error().Err(err).Msg("health server stopped")
		}
	}()

	gw := gateway.New(baseCtx)
	gw.SetDefaultAsset(cfg.Gateway.DefaultAsset)
	gw.SetMaxBodySize(cfg.Gateway.MaxBodySize)
	metrics.RegisterComponent("gateway", true, "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := gw.Start(ctx, cfg.Listen.Gateway); err != nil {
		return fmt.Errorf("gateway error: %w", err)
	}

	logger.Info().Msg("shutting down")
	return st.Save()
}
