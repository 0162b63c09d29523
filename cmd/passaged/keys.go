package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"passage/cmd/internal/passphrase"
	"passage/config"
	"passage/crypto"
)

const keystorePassEnv = "PASSAGE_KEYSTORE_PASS"

type keysOptions struct {
	*rootOptions
	Out   string
	Light bool
}

func newKeysCommand(root *rootOptions) *cobra.Command {
	opts := &keysOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "keys",
		Short: "Manage signer keys",
	}
	newCmd := &cobra.Command{
		Use:   "new",
		Short: "Generate a secp256k1 key and print its address",
		Long: "Generate a key, encrypt it into a keystore file and print its bech32 address.\n" +
			"The passphrase is read from " + keystorePassEnv + " or prompted for.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysNew(cmd, opts)
		},
	}
	newCmd.Flags().StringVar(&opts.Out, "out", "", "keystore path (defaults to <DataDir>/keys/signer.keystore)")
	newCmd.Flags().BoolVar(&opts.Light, "light", false, "use light scrypt parameters")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Decrypt a keystore and print its address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runKeysShow(cmd, opts)
		},
	}
	showCmd.Flags().StringVar(&opts.Out, "out", "", "keystore path (defaults to <DataDir>/keys/signer.keystore)")

	cmd.AddCommand(newCmd, showCmd)
	return cmd
}

func (o *keysOptions) keystorePath() (string, error) {
	if o.Out != "" {
		return o.Out, nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return "", fmt.Errorf("load config: %w", err)
	}
	if cfg.KeystorePath != "" {
		return config.ResolvePath(o.ConfigPath, cfg.KeystorePath), nil
	}
	return crypto.DefaultKeystorePath(config.ResolvePath(o.ConfigPath, cfg.DataDir)), nil
}

func runKeysNew(cmd *cobra.Command, opts *keysOptions) error {
	path, err := opts.keystorePath()
	if err != nil {
		return err
	}
	pass, err := passphrase.NewSource(keystorePassEnv, "signer keystore").Get()
	if err != nil {
		return err
	}
	key, err := crypto.GeneratePrivateKey()
	if err != nil {
		return err
	}
	params := crypto.StandardScrypt
	if opts.Light {
		params = crypto.LightScrypt
	}
	if err := crypto.SaveToKeystoreWithParams(path, key, pass, params); err != nil {
		return fmt.Errorf("write keystore: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]string{
		"address":  key.PubKey().Address().String(),
		"keystore": path,
	})
}

func runKeysShow(cmd *cobra.Command, opts *keysOptions) error {
	path, err := opts.keystorePath()
	if err != nil {
		return err
	}
	pass, err := passphrase.NewSource(keystorePassEnv, "signer keystore").Get()
	if err != nil {
		return err
	}
	key, err := crypto.LoadFromKeystore(path, pass)
	if err != nil {
		return fmt.Errorf("read keystore: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), map[string]string{
		"address":  key.PubKey().Address().String(),
		"keystore": path,
	})
}
