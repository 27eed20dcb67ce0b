package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hoardlab/hoard/pkg/action"
	"github.com/hoardlab/hoard/pkg/config"
	"github.com/hoardlab/hoard/pkg/log"
	"github.com/hoardlab/hoard/pkg/store"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a data directory and configuration file",
	Long: `Initialize a fresh asset store: write a configuration file,
create the data directory and persist the initial namespace with
the registered system assets mounted.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().String("config", "hoard.yaml", "Where to write the configuration file")
	initCmd.Flags().String("data-dir", "./hoard-data", "Data directory for store state")
	initCmd.Flags().String("backend", config.BackendFile, "Persistence backend: file or bolt")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	backendName, _ := cmd.Flags().GetString("backend")

	log.Init(log.Config{Level: log.WarnLevel, Output: os.Stdout})

	cfg := config.Default()
	cfg.DataDir = dataDir
	cfg.Backend = backendName
	if err := cfg.Validate(); err != nil {
		return err
	}

	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file %s already exists", configPath)
	}
	if err := cfg.Write(configPath); err != nil {
		return err
	}
	fmt.Printf("✓ Configuration written to %s\n", configPath)

	backend, err := openBackend(cfg)
	if err != nil {
		return fmt.Errorf("failed to open backend: %w", err)
	}
	if closer, ok := backend.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	st := store.New(backend)
	if err := st.Load(); err != nil {
		return fmt.Errorf("failed to initialize store state: %w", err)
	}

	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}
	ctx := store.NewUpdateContext(st, reg, cfg.Identity.User, cfg.Identity.Group)
	if err := action.CreateRegisteredAssets(ctx); err != nil {
		return fmt.Errorf("failed to mount system assets: %w", err)
	}
	if err := st.Save(); err != nil {
		return fmt.Errorf("failed to persist store state: %w", err)
	}
	fmt.Printf("✓ Store initialized in %s (%s backend)\n", dataDir, cfg.Backend)
	fmt.Println()
	fmt.Println("Start the daemon with:")
	fmt.Printf("  hoard serve --config %s\n", configPath)
	return nil
}
