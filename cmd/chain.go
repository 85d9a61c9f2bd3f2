package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"voting-ledger/internal/blockchain"
	"voting-ledger/internal/blockchain/events"
	"voting-ledger/internal/blockchain/votingfamily"
	"voting-ledger/internal/config"
	"voting-ledger/internal/model"
	"voting-ledger/internal/signkeys"
	"voting-ledger/internal/voting"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var chainCmd = &cobra.Command{
	Use:   "chain",
	Short: "Operate on the ledger deployed on a Sawtooth network",
	Long: `Signs voting transactions with the key in KEY_FILE, submits them to the
validator REST API and waits until they are committed or rejected.`,
}

func init() {
	rootCmd.AddCommand(chainCmd)

	chainCmd.PersistentFlags().String("key-file", "", "hex encoded private key of the caller")
	chainCmd.PersistentFlags().String("url", "", "validator REST API address")
	bindFlag(chainCmd.PersistentFlags().Lookup("key-file"), config.KeyKeyFile)
	bindFlag(chainCmd.PersistentFlags().Lookup("url"), config.KeyRestAPIAddr)

	chainCmd.AddCommand(
		commandCmd("deploy", "Create the ledger with the caller as the owner", cobra.NoArgs,
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionDeploy}, nil
			}),
		commandCmd("register-voter <address>", "Add a voter to the registry", cobra.ExactArgs(1),
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionRegisterVoter, Address: args[0]}, nil
			}),
		commandCmd("remove-voter <address>", "Remove a voter from the registry", cobra.ExactArgs(1),
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionRemoveVoter, Address: args[0]}, nil
			}),
		commandCmd("add-proposal <description>", "Submit a proposal", cobra.MinimumNArgs(1),
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionAddProposal, Description: strings.Join(args, " ")}, nil
			}),
		commandCmd("vote <proposal-id>", "Vote for a proposal", cobra.ExactArgs(1),
			func(args []string) (voting.Command, error) {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return voting.Command{}, errors.New("proposal id must be a number")
				}
				return voting.Command{Action: voting.ActionVote, ProposalID: id}, nil
			}),
		commandCmd("cancel-vote", "Withdraw the caller's vote", cobra.NoArgs,
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionCancelVote}, nil
			}),
		commandCmd("reset-session", "Wipe proposals and voters and start over", cobra.NoArgs,
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: voting.ActionResetSession}, nil
			}),
		chainStateCmd,
		chainWatchCmd,
	)

	for _, transition := range []string{
		"start-proposals-registration",
		"end-proposals-registration",
		"start-voting-session",
		"end-voting-session",
		"tally-votes",
	} {
		action, _ := voting.WorkflowAction(transition)
		chainCmd.AddCommand(commandCmd(transition, "Owner only: "+string(action), cobra.NoArgs,
			func(args []string) (voting.Command, error) {
				return voting.Command{Action: action}, nil
			}))
	}
}

func newChainClient() (*blockchain.Client, error) {
	keys, err := signkeys.ReadKeyFile(config.GetKeyFile())
	if err != nil {
		return nil, err
	}
	return blockchain.NewClient(logger, config.GetValidatorRestAPIAddr(), keys.GetSigner()), nil
}

// commandCmd builds a subcommand that submits the command returned by build.
func commandCmd(use, short string, args cobra.PositionalArgs, build func(args []string) (voting.Command, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			command, err := build(args)
			if err != nil {
				return err
			}

			client, err := newChainClient()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), config.GetBatchWaitTimeout())
			defer cancel()

			batchID, err := client.Execute(ctx, command)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s committed in batch %s\n", command, batchID)
			return nil
		},
	}
}

var chainStateCmd = &cobra.Command{
	Use:   "state",
	Short: "Print the committed ledger",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, err := newChainClient()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), config.GetRequestTimeout())
		defer cancel()

		state, err := client.GetLedger(ctx)
		if err != nil {
			return err
		}

		printLedger(cmd.OutOrStdout(), state)
		return nil
	},
}

func printLedger(w io.Writer, state voting.State) {
	fmt.Fprintf(w, "owner:  %s\n", state.Owner)
	fmt.Fprintf(w, "phase:  %s\n", state.Phase)

	registered := 0
	for _, v := range state.Voters {
		if v.IsRegistered {
			registered++
		}
	}
	fmt.Fprintf(w, "voters: %d\n", registered)

	fmt.Fprintf(w, "proposals: %d\n", len(state.Proposals))
	for i, p := range state.Proposals {
		fmt.Fprintf(w, "  [%d] %-40s %d votes\n", i, p.Description, p.VoteCount)
	}

	if state.Phase == model.PhaseVotesTallied {
		winner, err := state.WinningProposal()
		if err != nil {
			fmt.Fprintf(w, "winner: none (%v)\n", err)
			return
		}
		fmt.Fprintf(w, "winner: [%d] %s with %d votes\n", winner.ProposalID, winner.Description, winner.VoteCount)
	}
}

var chainWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream the voting events emitted by the transaction processor",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		listener := events.NewEventListener(logger, config.GetValidatorEndpoint())
		out := cmd.OutOrStdout()
		for _, eventType := range votingfamily.EventTypes() {
			listener.SetHandler(eventType, func(event events.Event) error {
				fmt.Fprintln(out, describeEvent(event))
				return nil
			})
		}

		if err := listener.Start(); err != nil {
			return err
		}
		<-ctx.Done()

		if err := listener.Stop(); err != nil {
			logger.Warn("event listener did not stop cleanly", zap.Error(err))
		}
		return nil
	},
}

func describeEvent(event events.Event) string {
	line := fmt.Sprintf("%s caller=%s phase=%s", event.Type, event.Attributes["caller"], event.Attributes["phase"])
	if cmd, err := votingfamily.DecodeCommand(event.Data); err == nil {
		line += " " + cmd.String()
	}
	return line
}
