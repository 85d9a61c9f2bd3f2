package main

import (
	"fmt"
	"voting-ledger/internal/signkeys"

	"github.com/spf13/cobra"
)

var flagKeyOut string

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a secp256k1 key pair; the public key is the ledger address",
	RunE: func(cmd *cobra.Command, args []string) error {
		keys, err := signkeys.GenerateKeys()
		if err != nil {
			return err
		}
		if err := signkeys.WriteKeyFile(flagKeyOut, keys); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "key written to %s.priv\naddress: %s\n", flagKeyOut, keys.Address())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(keygenCmd)
	keygenCmd.Flags().StringVar(&flagKeyOut, "out", "./keys/voter", "key file path without extension")
}
