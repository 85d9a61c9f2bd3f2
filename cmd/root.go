package main

import (
	"voting-ledger/internal/config"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	flagConfigFile string

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "votingd",
	Short: "Phase-gated voting ledger: REST API, transaction processor and chain client",
	// errors are printed by main
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if flagConfigFile != "" {
			if err := config.ReadFile(flagConfigFile); err != nil {
				return err
			}
		}

		var err error
		logger, err = getLogger(config.GetLogLevel())
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigFile, "config", "", "config file (yaml, json or toml); environment variables take precedence")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
	bindFlag(rootCmd.PersistentFlags().Lookup("log-level"), config.KeyLogLevel)
}

// bindFlag lets a flag override the configuration key when it is set.
func bindFlag(flag *pflag.Flag, key string) {
	if err := viper.BindPFlag(key, flag); err != nil {
		panic(err)
	}
}
