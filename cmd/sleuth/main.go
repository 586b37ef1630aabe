package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/steveyegge/sleuth/internal/config"
	"github.com/steveyegge/sleuth/internal/logging"
	"github.com/steveyegge/sleuth/internal/storage"
)

// Set up by the root command before any subcommand runs.
var (
	store  storage.Storage
	appCfg *config.Config
)

var (
	dbPath     string
	configPath string
	logLevel   string
	logFormat  string
)

// Commands annotated with noStore run without opening the database.
const noStore = "no-store"

var rootCmd = &cobra.Command{
	Use:   "sleuth",
	Short: "Sleuth - hypothesis-driven debugging",
	Long: `Sleuth investigates bug reports the way a careful engineer would:
brainstorm theories, design cheap experiments, run the ones with the best
return on investment, and feed what was learned into the next round.

Investigations, lab results and events are kept in .sleuth/sleuth.db.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		logging.Init(level, logFormat)

		if cmd.Annotations[noStore] != "" {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			appCfg = cfg
			return nil
		}

		path := dbPath
		if path == "" {
			if path, err = storage.DiscoverDatabase(); err != nil {
				return err
			}
		}

		cfgFile, err := resolveConfigPath(configPath, path)
		if err != nil {
			return err
		}
		if appCfg, err = config.Load(cfgFile); err != nil {
			return err
		}

		store, err = storage.NewStorage(context.Background(), &storage.Config{Path: path})
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", path, err)
		}
		return nil
	},
}

// resolveConfigPath returns the explicit --config path, or the project's
// .sleuth/config.yaml when it exists next to the database.
func resolveConfigPath(explicit, dbPath string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	root, err := storage.GetProjectRoot(dbPath)
	if err != nil {
		// Databases outside a .sleuth/ directory have no project config.
		return "", nil
	}
	candidate := filepath.Join(root, ".sleuth", "config.yaml")
	if _, err := os.Stat(candidate); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("checking %s: %w", candidate, err)
	}
	return candidate, nil
}

// closeStore runs after every command, including failed ones.
func closeStore() {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to close database: %v\n", err)
	}
	store = nil
}

func init() {
	cobra.OnFinalize(closeStore)

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default: discover .sleuth/sleuth.db)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default: .sleuth/config.yaml if present)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
