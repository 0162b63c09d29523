package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"passage/contract"
	"passage/core/types"
)

type migrateOptions struct {
	*rootOptions
	envFlags
	Sender            string
	Version           string
	NumMintableTokens uint64
}

func newMigrateCommand(root *rootOptions) *cobra.Command {
	opts := &migrateOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Upgrade the stored contract version",
		Long: `Upgrade the stored contract version as the admin. The mint cap changes only
when --num-mintable-tokens is given.

Example:
  passaged migrate --sender pasg1... --version 1.1.0 --num-mintable-tokens 5000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd, opts)
		},
	}
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "bech32 address of the admin")
	cmd.Flags().StringVar(&opts.Version, "version", contract.ContractVersion, "target contract version")
	cmd.Flags().Uint64Var(&opts.NumMintableTokens, "num-mintable-tokens", 0, "new mint cap")
	addEnvFlags(cmd, &opts.envFlags)
	return cmd
}

func runMigrate(cmd *cobra.Command, opts *migrateOptions) error {
	sender, err := parseSender(opts.Sender)
	if err != nil {
		return err
	}
	msg := contract.MigrateMsg{Version: opts.Version}
	if cmd.Flags().Changed("num-mintable-tokens") {
		limit := opts.NumMintableTokens
		msg.NumMintableTokens = &limit
	}

	n, err := openNode(opts.rootOptions)
	if err != nil {
		return err
	}
	defer n.Close()

	resp, err := n.contract.Migrate(context.Background(), opts.env(n.cfg.ChainID, n.cfg.Contract()), types.MessageInfo{Sender: sender}, msg)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
