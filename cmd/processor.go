package main

import (
	"syscall"
	"voting-ledger/internal/blockchain/processor"
	"voting-ledger/internal/config"

	sdkprocessor "github.com/hyperledger/sawtooth-sdk-go/processor"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var processorCmd = &cobra.Command{
	Use:   "processor",
	Short: "Run the voting transaction processor against a Sawtooth validator",
	RunE: func(cmd *cobra.Command, args []string) error {
		endpoint := config.GetValidatorEndpoint()

		tp := sdkprocessor.NewTransactionProcessor(endpoint)
		tp.AddHandler(processor.NewVotingHandler(logger))
		tp.ShutdownOnSignal(syscall.SIGINT, syscall.SIGTERM)

		logger.Info("transaction processor started", zap.String("validator", endpoint))
		return tp.Start()
	},
}

func init() {
	rootCmd.AddCommand(processorCmd)

	processorCmd.Flags().String("validator", "", "validator component endpoint, e.g. tcp://validator:4004")
	bindFlag(processorCmd.Flags().Lookup("validator"), config.KeyValidatorAddr)
}
