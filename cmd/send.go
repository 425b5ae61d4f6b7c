package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/stellar/evm-batch-transfer/cmd/utils"
	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/crashtracker"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
	"github.com/stellar/evm-batch-transfer/internal/recipients"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
	"github.com/stellar/evm-batch-transfer/internal/ui"
)

const crashTrackerFlushTimeout = 2 * time.Second

type SendCommand struct{}

// SendOptions is everything a send run needs, gathered from the global and the send options.
type SendOptions struct {
	Kind                transfer.AssetKind
	RPCURL              string
	Senders             []transfer.SenderAccount
	TokenContract       string
	Recipients          recipients.Options
	Dispatch            cmdUtils.DispatchOptions
	CrashTrackerOptions crashtracker.CrashTrackerOptions
	MetricOptions       monitor.MetricOptions
}

type SendServiceInterface interface {
	Send(ctx context.Context, opts SendOptions) ([]transfer.Result, error)
}

// SendService collects the plan of a run and dispatches it.
type SendService struct {
	Prompter       ui.Prompter
	MonitorService monitor.MonitorServiceInterface
	// Out receives the plan summary and the results. Defaults to os.Stdout.
	Out io.Writer
	// NewChainClient and NewCrashTracker default to chain.NewEthClient and crashtracker.GetClient.
	NewChainClient  func(ctx context.Context, opts chain.EthClientOptions) (chain.Client, error)
	NewCrashTracker func(ctx context.Context, opts crashtracker.CrashTrackerOptions) (crashtracker.CrashTrackerClient, error)
}

var _ SendServiceInterface = (*SendService)(nil)

func (s *SendService) Send(ctx context.Context, opts SendOptions) ([]transfer.Result, error) {
	if len(opts.Senders) == 0 {
		return nil, transfer.NewConfigurationError("private key", errors.New("no private key was provided, use --private-key or the PRIVATE_KEY variable"))
	}
	out := s.Out
	if out == nil {
		out = os.Stdout
	}

	crashTracker, err := s.crashTrackerClient(ctx, opts.CrashTrackerOptions)
	if err != nil {
		return nil, fmt.Errorf("creating crash tracker client: %w", err)
	}
	defer crashTracker.FlushEvents(crashTrackerFlushTimeout)
	defer crashTracker.Recover()

	report := func(err error) error {
		if !isUserInterruption(err) {
			crashTracker.LogAndReportErrors(ctx, err, "sending transfers")
		}
		return err
	}

	client, err := s.dialChain(ctx, chain.EthClientOptions{
		RPCURL:              opts.RPCURL,
		ConfirmationTimeout: opts.Dispatch.ConfirmationTimeout(),
	})
	if err != nil {
		return nil, report(transfer.NewConfigurationError("rpc url", err))
	}
	defer client.Close()

	crashTracker = crashTracker.WithTags(map[string]string{
		"command":  "send " + string(opts.Kind),
		"chain_id": client.ChainID().String(),
	})
	log.Ctx(ctx).Infof("Connected to chain %s", client.ChainID())

	monitorService := s.startMonitor(ctx, opts.MetricOptions)

	resolver, err := transfer.NewTokenResolver(client, 0)
	if err != nil {
		return nil, report(fmt.Errorf("creating token resolver: %w", err))
	}

	collector, err := ui.NewCollector(s.Prompter, client, resolver, ui.CollectorOptions{
		Interactive: opts.Dispatch.Interactive,
		AssumeYes:   opts.Dispatch.AssumeYes,
		Out:         out,
	})
	if err != nil {
		return nil, report(fmt.Errorf("creating input collector: %w", err))
	}

	plan, err := collector.Collect(ctx, ui.Input{
		Senders:             opts.Senders,
		Kind:                opts.Kind,
		NativeSymbol:        opts.Dispatch.NativeSymbol,
		TokenContract:       opts.TokenContract,
		Recipients:          opts.Recipients,
		Amount:              opts.Dispatch.Amount,
		PacingDelay:         opts.Dispatch.PacingDelay(opts.Kind == transfer.NativeAsset),
		WaitForConfirmation: opts.Dispatch.WaitForConfirmation,
	})
	if err != nil {
		return nil, report(err)
	}

	dispatcher, err := transfer.NewDispatcher(client, monitorService, transfer.Options{
		GasLimit:        uint64(opts.Dispatch.GasLimit),
		ParallelSenders: opts.Dispatch.ParallelSenders,
	})
	if err != nil {
		return nil, report(fmt.Errorf("creating dispatcher: %w", err))
	}

	results, err := dispatcher.Dispatch(ctx, plan)
	printResults(out, results)

	if monitorService != nil {
		// The run context may be canceled already, the push gets its own deadline.
		pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if pushErr := monitorService.Push(pushCtx); pushErr != nil {
			log.Ctx(ctx).Errorf("Could not push the metrics of the run: %v", pushErr)
		}
	}

	if err != nil {
		return results, report(err)
	}
	return results, nil
}

func (s *SendService) dialChain(ctx context.Context, opts chain.EthClientOptions) (chain.Client, error) {
	if s.NewChainClient != nil {
		return s.NewChainClient(ctx, opts)
	}

	client, err := chain.NewEthClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func (s *SendService) crashTrackerClient(ctx context.Context, opts crashtracker.CrashTrackerOptions) (crashtracker.CrashTrackerClient, error) {
	if s.NewCrashTracker != nil {
		return s.NewCrashTracker(ctx, opts)
	}
	return crashtracker.GetClient(ctx, opts)
}

// startMonitor starts the monitor service. A failure disables the metrics of the run.
func (s *SendService) startMonitor(ctx context.Context, opts monitor.MetricOptions) monitor.MonitorServiceInterface {
	if s.MonitorService == nil {
		return nil
	}
	if err := s.MonitorService.Start(opts); err != nil {
		log.Ctx(ctx).Warnf("Metrics are disabled: %v", err)
		return nil
	}
	return s.MonitorService
}

func isUserInterruption(err error) bool {
	return errors.Is(err, ui.ErrInterrupted) || errors.Is(err, ui.ErrAborted) || errors.Is(err, context.Canceled)
}

func printResults(out io.Writer, results []transfer.Result) {
	if len(results) == 0 {
		return
	}

	fmt.Fprintln(out, "Results:")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "  #\tSTATUS\tSENDER\tRECIPIENT\tDETAILS")
	for i, result := range results {
		details := "tx " + result.TxHash.Hex()
		if !result.Succeeded() {
			details = result.Reason()
			if result.TxHash != (common.Hash{}) {
				details = fmt.Sprintf("tx %s: %s", result.TxHash.Hex(), details)
			}
		}
		fmt.Fprintf(w, "  %d\t%s\t%s\t%s\t%s\n", i+1, result.Status, result.Request.Sender, result.Request.Recipient.Hex(), details)
	}
	_ = w.Flush()

	summary := transfer.Summarize(results)
	fmt.Fprintf(out, "%d transfer(s): %d succeeded, %d failed\n", summary.Total, summary.Succeeded, summary.Failed)
}

func (c *SendCommand) Command(sendService SendServiceInterface) *cobra.Command {
	recipientOpts := recipients.Options{}
	dispatchOpts := cmdUtils.DispatchOptions{}
	crashTrackerOptions := crashtracker.CrashTrackerOptions{}

	sendCmdConfigOpts := config.ConfigOptions{
		cmdUtils.CrashTrackerTypeConfigOption(&crashTrackerOptions.CrashTrackerType),
	}
	sendCmdConfigOpts = append(sendCmdConfigOpts, cmdUtils.DispatchConfigOptions(&dispatchOpts)...)
	sendCmdConfigOpts = append(sendCmdConfigOpts, cmdUtils.RecipientsConfigOptions(&recipientOpts)...)

	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send the same amount to a list of recipients",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)
			ctx := cmd.Context()

			// Validate & ingest input parameters
			sendCmdConfigOpts.Require()
			if err := sendCmdConfigOpts.SetValues(); err != nil {
				log.Ctx(ctx).Fatalf("Error setting values of config options: %s", err.Error())
			}
			if err := dispatchOpts.ValidateFlags(); err != nil {
				log.Ctx(ctx).Fatalf("Error validating send options: %s", err.Error())
			}

			// Inject dependencies:
			globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)
		},
		Run: func(cmd *cobra.Command, _ []string) {
			err := cmd.Help()
			if err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error calling help command: %s", err.Error())
			}
		},
	}
	err := sendCmdConfigOpts.Init(sendCmd)
	if err != nil {
		log.Ctx(sendCmd.Context()).Fatalf("Error initializing sendCmd config option: %s", err.Error())
	}

	sendOptions := func(kind transfer.AssetKind) SendOptions {
		return SendOptions{
			Kind:                kind,
			RPCURL:              globalOptions.RPCURL,
			Senders:             globalOptions.Senders,
			Recipients:          recipientOpts,
			Dispatch:            dispatchOpts,
			CrashTrackerOptions: crashTrackerOptions,
			MetricOptions:       globalOptions.MetricOptions(),
		}
	}

	sendCmd.AddCommand(c.nativeCommand(sendService, sendOptions))
	sendCmd.AddCommand(c.tokenCommand(sendService, sendOptions))

	return sendCmd
}

func (c *SendCommand) nativeCommand(sendService SendServiceInterface, sendOptions func(transfer.AssetKind) SendOptions) *cobra.Command {
	return &cobra.Command{
		Use:              "native",
		Short:            "Send the native currency of the chain",
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		Run: func(cmd *cobra.Command, _ []string) {
			runSend(cmd, sendService, sendOptions(transfer.NativeAsset))
		},
	}
}

func (c *SendCommand) tokenCommand(sendService SendServiceInterface, sendOptions func(transfer.AssetKind) SendOptions) *cobra.Command {
	var tokenContract string
	tokenCmdConfigOpts := config.ConfigOptions{
		cmdUtils.TokenContractConfigOption(&tokenContract),
	}

	tokenCmd := &cobra.Command{
		Use:   "token",
		Short: "Send an ERC-20 token",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			tokenCmdConfigOpts.Require()
			if err := tokenCmdConfigOpts.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %s", err.Error())
			}
		},
		Run: func(cmd *cobra.Command, _ []string) {
			opts := sendOptions(transfer.TokenAsset)
			opts.TokenContract = tokenContract
			runSend(cmd, sendService, opts)
		},
	}
	err := tokenCmdConfigOpts.Init(tokenCmd)
	if err != nil {
		log.Ctx(tokenCmd.Context()).Fatalf("Error initializing tokenCmd config option: %s", err.Error())
	}

	return tokenCmd
}

// runSend runs the send service until the dispatch sequence completes. Failed transfers do not change the exit
// code, configuration and resolution errors do.
func runSend(cmd *cobra.Command, sendService SendServiceInterface, opts SendOptions) {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	_, err := sendService.Send(ctx, opts)
	switch {
	case err == nil:
		return
	case errors.Is(err, ui.ErrAborted):
		log.Ctx(ctx).Info("Aborted, no transfer was sent")
	case errors.Is(err, ui.ErrInterrupted), errors.Is(err, context.Canceled):
		log.Ctx(ctx).Warn("Interrupted")
		stop()
		os.Exit(ui.SIGINT)
	default:
		log.Ctx(ctx).Fatalf("Error sending transfers: %s", err.Error())
	}
}
