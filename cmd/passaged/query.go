package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"passage/contract"
)

type queryOptions struct {
	*rootOptions
	envFlags
}

func newQueryCommand(root *rootOptions) *cobra.Command {
	opts := &queryOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "query <msg-json>",
		Short: "Run a read-only contract query",
		Long: `Run one JSON query message. Queries never write state.

Example:
  passaged query '{"ask":{"tokenId":1}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, opts, args[0])
		},
	}
	addEnvFlags(cmd, &opts.envFlags)
	return cmd
}

func runQuery(cmd *cobra.Command, opts *queryOptions, raw string) error {
	msg, err := contract.ParseQueryMsg([]byte(strings.TrimSpace(raw)))
	if err != nil {
		return err
	}
	n, err := openNode(opts.rootOptions)
	if err != nil {
		return err
	}
	defer n.Close()

	data, err := n.contract.Query(context.Background(), opts.env(n.cfg.ChainID, n.cfg.Contract()), msg)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), json.RawMessage(data))
}
