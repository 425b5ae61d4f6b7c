package cmd

import (
	"fmt"
	"go/types"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	cmdUtils "github.com/stellar/evm-batch-transfer/cmd/utils"
	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/recipients"
)

type AddressesCommand struct{}

type generateAddressesOptions struct {
	Count           int
	ShowPrivateKeys bool
	OutputFile      string
}

func (c *AddressesCommand) Command() *cobra.Command {
	addressesCmd := &cobra.Command{
		Use:              "addresses",
		Short:            "Address related commands",
		PersistentPreRun: cmdUtils.PropagatePersistentPreRun,
		Run: func(cmd *cobra.Command, _ []string) {
			err := cmd.Help()
			if err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error calling help command: %s", err.Error())
			}
		},
	}

	addressesCmd.AddCommand(c.generateCommand())

	return addressesCmd
}

func (c *AddressesCommand) generateCommand() *cobra.Command {
	opts := generateAddressesOptions{}
	configOpts := config.ConfigOptions{
		{
			Name:        "count",
			Usage:       fmt.Sprintf("The number of addresses to generate, at most %d", recipients.MaxGeneratedAccounts),
			OptType:     types.Int,
			ConfigKey:   &opts.Count,
			FlagDefault: 1,
			Required:    true,
		},
		{
			Name:        "show-private-keys",
			Usage:       "Print the private keys of the generated addresses",
			OptType:     types.Bool,
			ConfigKey:   &opts.ShowPrivateKeys,
			FlagDefault: false,
			Required:    false,
		},
		{
			Name:      "output-file",
			Usage:     "Path of a CSV file where the generated addresses are written, usable with --recipients-file",
			OptType:   types.String,
			ConfigKey: &opts.OutputFile,
			Required:  false,
		},
	}

	generateCmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate random addresses, e.g. to use them as test recipients",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cmdUtils.PropagatePersistentPreRun(cmd, args)

			configOpts.Require()
			if err := configOpts.SetValues(); err != nil {
				log.Ctx(cmd.Context()).Fatalf("Error setting values of config options: %s", err.Error())
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			accounts, err := recipients.GenerateAccounts(opts.Count)
			if err != nil {
				return fmt.Errorf("generating addresses: %w", err)
			}

			printAccounts(cmd.OutOrStdout(), accounts, opts.ShowPrivateKeys)

			if opts.OutputFile != "" {
				if err = writeAccountsFile(opts.OutputFile, accounts, opts.ShowPrivateKeys); err != nil {
					return err
				}
				log.Ctx(cmd.Context()).Infof("🎉 Wrote %d address(es) to %s", len(accounts), opts.OutputFile)
			}
			return nil
		},
		SilenceUsage: true,
	}
	err := configOpts.Init(generateCmd)
	if err != nil {
		log.Ctx(generateCmd.Context()).Fatalf("Error initializing generateCmd config option: %s", err.Error())
	}

	return generateCmd
}

func printAccounts(out io.Writer, accounts []chain.Account, showPrivateKeys bool) {
	for i, account := range accounts {
		if showPrivateKeys {
			fmt.Fprintf(out, "#%d %s %s\n", i+1, account.Address.Hex(), account.PrivateKeyHex())
		} else {
			fmt.Fprintf(out, "#%d %s\n", i+1, account.Address.Hex())
		}
	}
}

func writeAccountsFile(path string, accounts []chain.Account, withPrivateKeys bool) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err = recipients.WriteCSV(file, accounts, withPrivateKeys); err != nil {
		_ = file.Close()
		return fmt.Errorf("writing output file: %w", err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}
