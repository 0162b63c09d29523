package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"passage/config"
	"passage/contract"
	"passage/observability/logging"
	"passage/storage"
)

const envVar = "PASSAGE_ENV"

// rootOptions holds global flags.
type rootOptions struct {
	ConfigPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "passaged",
		Short:         "Passage NFT minter and marketplace node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "./config.toml", "path to the node configuration file")

	cmd.AddCommand(newInitCommand(opts))
	cmd.AddCommand(newExecCommand(opts))
	cmd.AddCommand(newQueryCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newKeysCommand(opts))
	return cmd
}

// node bundles what every state-touching command opens.
type node struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       storage.Database
	contract *contract.Contract
}

func openNode(opts *rootOptions) (*node, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := setupLogger(opts.ConfigPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	blocked, err := cfg.Blocked()
	if err != nil {
		return nil, err
	}
	db, err := storage.Open(cfg.Backend, statePath(opts.ConfigPath, cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Backend, err)
	}
	c := contract.New(db,
		contract.WithLogger(logger),
		contract.WithBlockedRecipients(blocked),
	)
	return &node{cfg: cfg, logger: logger, db: db, contract: c}, nil
}

func (n *node) Close() { n.db.Close() }

func setupLogger(configPath string, cfg *config.Config) (*slog.Logger, error) {
	opts := logging.Options{Level: logging.ParseLevel(cfg.Log.Level)}
	if strings.TrimSpace(cfg.Log.File) != "" {
		opts.File = &logging.FileSink{
			Path:       config.ResolvePath(configPath, cfg.Log.File),
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
			Compress:   cfg.Log.Compress,
		}
	}
	// CLI output owns stdout; logs go to stderr.
	opts.Output = os.Stderr
	return logging.SetupWithOptions("passaged", os.Getenv(envVar), opts)
}

func statePath(configPath string, cfg *config.Config) string {
	dir := config.ResolvePath(configPath, cfg.DataDir)
	if cfg.Backend == storage.BackendBolt {
		return filepath.Join(dir, "state.db")
	}
	return filepath.Join(dir, "state")
}
