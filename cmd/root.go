package cmd

import (
	"go/types"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/stellar/evm-batch-transfer/cmd/utils"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
	"github.com/stellar/evm-batch-transfer/internal/ui"
)

// globalOptions is a variable that holds the global CLI options that can be
// applied to any command or subcommand.
var globalOptions cmdUtils.GlobalOptionsType

func rootCmd() *cobra.Command {
	configOpts := config.ConfigOptions{
		{
			Name:           "log-level",
			Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
			OptType:        types.String,
			FlagDefault:    "INFO",
			ConfigKey:      &globalOptions.LogLevel,
			CustomSetValue: cmdUtils.SetConfigOptionLogLevel,
			Required:       true,
		},
		{
			Name:      "sentry-dsn",
			Usage:     "The DSN (client key) of the Sentry project. If not provided, Sentry will not be used.",
			OptType:   types.String,
			ConfigKey: &globalOptions.SentryDSN,
			Required:  false,
		},
		{
			Name:        "environment",
			Usage:       `The environment where the application is running. Example: "development", "staging", "production".`,
			OptType:     types.String,
			FlagDefault: "development",
			ConfigKey:   &globalOptions.Environment,
			Required:    true,
		},
		cmdUtils.RPCURLConfigOption(&globalOptions.RPCURL),
		cmdUtils.PrivateKeysConfigOption(&globalOptions.Senders),
		cmdUtils.MetricsPushgatewayURLConfigOption(&globalOptions.MetricsPushgatewayURL),
	}

	rootCmd := &cobra.Command{
		Use:     "evm-batch-transfer",
		Short:   "EVM batch transfer",
		Long:    "Sends the same amount of a native currency or an ERC-20 token from one or more sender accounts to a list of recipients on an EVM chain, one transaction at a time.",
		Version: globalOptions.Version,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			configOpts.Require()
			err := configOpts.SetValues()
			if err != nil {
				log.Fatalf("Error setting values of config options: %s", err.Error())
			}
			log.Debug("Version: ", globalOptions.Version)
			log.Debug("GitCommit: ", globalOptions.GitCommit)
		},
		Run: func(cmd *cobra.Command, args []string) {
			err := cmd.Help()
			if err != nil {
				log.Fatalf("Error calling help command: %s", err.Error())
			}
		},
	}

	err := configOpts.Init(rootCmd)
	if err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	// The env file is loaded before the command line is parsed, the flag is only declared so that cobra accepts it.
	rootCmd.PersistentFlags().String(cmdUtils.EnvFileFlagName, "", "Path of an env file with the configuration. Defaults to the ENV_FILE variable, then to ./.env")

	return rootCmd
}

// SetupCLI sets up the CLI and returns the root command with the subcommands
// attached.
func SetupCLI(version, gitCommit string) *cobra.Command {
	globalOptions.Version = version
	globalOptions.GitCommit = gitCommit
	rootCmd := rootCmd()

	// Add subcommands
	rootCmd.AddCommand((&SendCommand{}).Command(&SendService{
		Prompter:       &ui.PromptUI{},
		MonitorService: &monitor.MonitorService{},
	}))
	rootCmd.AddCommand((&AddressesCommand{}).Command())

	return rootCmd
}
