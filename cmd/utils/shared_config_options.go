package utils

import (
	"fmt"
	"go/types"
	"time"

	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/crashtracker"
	"github.com/stellar/evm-batch-transfer/internal/recipients"
)

const (
	DefaultRPCURL = "https://tea-sepolia.g.alchemy.com/public"
	// AutoPacingDelay selects the default pacing delay of the asset kind.
	AutoPacingDelay            = -1
	DefaultNativePacingDelayMs = 0
	DefaultTokenPacingDelayMs  = 3000
	DefaultNativeSymbol        = "TEA"
)

func CrashTrackerTypeConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "crash-tracker-type",
		Usage:          `Crash tracker type. Options: "SENTRY", "DRY_RUN"`,
		OptType:        types.String,
		CustomSetValue: SetConfigOptionCrashTrackerType,
		ConfigKey:      targetPointer,
		FlagDefault:    string(crashtracker.CrashTrackerTypeDryRun),
		Required:       true,
	}
}

func RPCURLConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "rpc-url",
		Usage:          "The URL of the EVM JSON-RPC endpoint",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionRPCURL,
		ConfigKey:      targetPointer,
		FlagDefault:    DefaultRPCURL,
		Required:       true,
	}
}

func PrivateKeysConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "private-key",
		Usage:          "Comma separated list of the hex encoded private keys of the sender accounts",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionPrivateKeys,
		ConfigKey:      targetPointer,
		Required:       false,
	}
}

func MetricsPushgatewayURLConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "metrics-pushgateway-url",
		Usage:          "The URL of a Prometheus Pushgateway where the metrics of the run are pushed. Metrics are not pushed when empty.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionOptionalURLString,
		ConfigKey:      targetPointer,
		Required:       false,
	}
}

func TokenContractConfigOption(targetPointer interface{}) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "token-contract",
		Usage:          "The address of the ERC-20 contract. Prompted for in interactive mode when missing.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionEVMAddress,
		ConfigKey:      targetPointer,
		Required:       false,
	}
}

// RecipientsConfigOptions returns the config options of the recipient sources. At most one of them can be set.
func RecipientsConfigOptions(opts *recipients.Options) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:      "recipients",
			Usage:     "Recipient addresses separated by commas or spaces",
			OptType:   types.String,
			ConfigKey: &opts.List,
			Required:  false,
		},
		{
			Name:      "recipients-file",
			Usage:     `Path of a CSV file with an "address" column`,
			OptType:   types.String,
			ConfigKey: &opts.FilePath,
			Required:  false,
		},
		{
			Name:        "generate-recipients",
			Usage:       fmt.Sprintf("Number of random recipient addresses to generate, at most %d", recipients.MaxGeneratedAccounts),
			OptType:     types.Int,
			ConfigKey:   &opts.GenerateCount,
			FlagDefault: 0,
			Required:    false,
		},
	}
}

// DispatchOptions holds the tunables of a transfer run.
type DispatchOptions struct {
	Amount                     string
	NativeSymbol               string
	PacingDelayMs              int
	WaitForConfirmation        bool
	ConfirmationTimeoutSeconds int
	GasLimit                   int
	ParallelSenders            bool
	Interactive                bool
	AssumeYes                  bool
}

func (o *DispatchOptions) ValidateFlags() error {
	if o.PacingDelayMs < AutoPacingDelay {
		return fmt.Errorf("pacing-delay-ms cannot be negative")
	}
	if o.ConfirmationTimeoutSeconds <= 0 {
		return fmt.Errorf("confirmation-timeout-seconds must be greater than zero")
	}
	if o.GasLimit < 0 {
		return fmt.Errorf("gas-limit cannot be negative")
	}
	return nil
}

// PacingDelay returns the configured pacing delay, or the default one of the asset kind.
func (o *DispatchOptions) PacingDelay(isNative bool) time.Duration {
	if o.PacingDelayMs != AutoPacingDelay {
		return time.Duration(o.PacingDelayMs) * time.Millisecond
	}
	if isNative {
		return DefaultNativePacingDelayMs * time.Millisecond
	}
	return DefaultTokenPacingDelayMs * time.Millisecond
}

func (o *DispatchOptions) ConfirmationTimeout() time.Duration {
	return time.Duration(o.ConfirmationTimeoutSeconds) * time.Second
}

func DispatchConfigOptions(opts *DispatchOptions) []*config.ConfigOption {
	return []*config.ConfigOption{
		{
			Name:      "amount",
			Usage:     "The amount sent to each recipient, in whole units of the asset (e.g. 0.01). Prompted for in interactive mode when missing.",
			OptType:   types.String,
			ConfigKey: &opts.Amount,
			Required:  false,
		},
		{
			Name:        "native-symbol",
			Usage:       "The symbol of the native currency of the chain",
			OptType:     types.String,
			ConfigKey:   &opts.NativeSymbol,
			FlagDefault: DefaultNativeSymbol,
			Required:    true,
		},
		{
			Name:        "pacing-delay-ms",
			Usage:       fmt.Sprintf("Delay between two consecutive transfers, in milliseconds. Defaults to %d for native transfers and %d for token transfers.", DefaultNativePacingDelayMs, DefaultTokenPacingDelayMs),
			OptType:     types.Int,
			ConfigKey:   &opts.PacingDelayMs,
			FlagDefault: AutoPacingDelay,
			Required:    false,
		},
		{
			Name:        "wait-for-confirmation",
			Usage:       "Wait for each transaction to be included in a block before sending the next one",
			OptType:     types.Bool,
			ConfigKey:   &opts.WaitForConfirmation,
			FlagDefault: true,
			Required:    false,
		},
		{
			Name:        "confirmation-timeout-seconds",
			Usage:       "How long to wait for the confirmation of a transaction, in seconds",
			OptType:     types.Int,
			ConfigKey:   &opts.ConfirmationTimeoutSeconds,
			FlagDefault: int(chain.DefaultConfirmationTimeout / time.Second),
			Required:    false,
		},
		{
			Name:        "gas-limit",
			Usage:       fmt.Sprintf("Gas limit of each transfer. Defaults to %d for native transfers and %d for token transfers.", chain.DefaultNativeGasLimit, chain.DefaultTokenGasLimit),
			OptType:     types.Int,
			ConfigKey:   &opts.GasLimit,
			FlagDefault: 0,
			Required:    false,
		},
		{
			Name:        "parallel-senders",
			Usage:       "Process distinct senders concurrently. The transfers of one sender are always sequential.",
			OptType:     types.Bool,
			ConfigKey:   &opts.ParallelSenders,
			FlagDefault: false,
			Required:    false,
		},
		{
			Name:        "interactive",
			Usage:       "Prompt for the values that were not provided",
			OptType:     types.Bool,
			ConfigKey:   &opts.Interactive,
			FlagDefault: true,
			Required:    false,
		},
		{
			Name:        "yes",
			Usage:       "Skip the confirmation prompt",
			OptType:     types.Bool,
			ConfigKey:   &opts.AssumeYes,
			FlagDefault: false,
			Required:    false,
		},
	}
}
