package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"passage/contract"
	"passage/core/types"
)

type execOptions struct {
	*rootOptions
	envFlags
	Sender string
	Funds  string
}

func newExecCommand(root *rootOptions) *cobra.Command {
	opts := &execOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "exec <msg-json>",
		Short: "Execute a contract message",
		Long: `Execute one JSON execute message as --sender with optional attached funds.

Example:
  passaged exec '{"mint":{}}' --sender pasg1... --funds 100ustars`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, opts, args[0])
		},
	}
	cmd.Flags().StringVar(&opts.Sender, "sender", "", "bech32 address of the caller")
	cmd.Flags().StringVar(&opts.Funds, "funds", "", "attached funds, e.g. 100ustars")
	addEnvFlags(cmd, &opts.envFlags)
	return cmd
}

func addEnvFlags(cmd *cobra.Command, f *envFlags) {
	cmd.Flags().Int64Var(&f.Time, "time", 0, "block time in unix seconds (defaults to now)")
	cmd.Flags().Uint64Var(&f.Height, "height", 0, "block height")
}

func runExec(cmd *cobra.Command, opts *execOptions, raw string) error {
	sender, err := parseSender(opts.Sender)
	if err != nil {
		return err
	}
	funds, err := parseFunds(opts.Funds)
	if err != nil {
		return err
	}
	msg, err := contract.ParseExecuteMsg([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return err
	}

	n, err := openNode(opts.rootOptions)
	if err != nil {
		return err
	}
	defer n.Close()

	env := opts.env(n.cfg.ChainID, n.cfg.Contract())
	resp, err := n.contract.Execute(context.Background(), env, types.MessageInfo{Sender: sender, Funds: funds}, msg)
	if err != nil {
		return fmt.Errorf("execute: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), resp)
}
