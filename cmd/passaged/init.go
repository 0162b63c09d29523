package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"passage/config"
	"passage/core/types"
)

type initOptions struct {
	*rootOptions
	Genesis string
}

func newInitCommand(root *rootOptions) *cobra.Command {
	opts := &initOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the node config and instantiate the contract from a genesis file",
		Long: `Create the node config when missing and instantiate the contract from the
YAML genesis file. Instantiation runs once per data directory.

Example:
  passaged init --config ./node/config.toml --genesis ./genesis.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Genesis, "genesis", "", "genesis YAML (defaults to GenesisFile from the config)")
	return cmd
}

func runInit(cmd *cobra.Command, opts *initOptions) error {
	n, err := openNode(opts.rootOptions)
	if err != nil {
		return err
	}
	defer n.Close()

	path := opts.Genesis
	if path == "" {
		path = config.ResolvePath(opts.ConfigPath, n.cfg.GenesisFile)
	}
	gen, err := config.LoadGenesis(path)
	if err != nil {
		return fmt.Errorf("load genesis: %w", err)
	}
	chainID := gen.ChainID
	if chainID == "" {
		chainID = n.cfg.ChainID
	}
	env := envFlags{Time: int64(gen.Time)}.env(chainID, n.cfg.Contract())
	resp, err := n.contract.Instantiate(context.Background(), env, types.MessageInfo{Sender: gen.Contract.Admin}, gen.Contract)
	if err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}
	n.logger.Info("contract instantiated",
		slog.String("chainId", chainID),
		slog.String("genesis", path),
		slog.String("changeset", resp.Changeset.Hex()))
	return printJSON(cmd.OutOrStdout(), resp)
}
