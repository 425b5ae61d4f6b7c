package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cmdUtils "github.com/stellar/evm-batch-transfer/cmd/utils"
)

func Test_noArgsAndHelpHaveSameResultAndDoDontPanic(t *testing.T) {
	cmdUtils.ClearTestEnvironment(t)

	cmdArgsTestCases := [][]string{
		{"--help"},
		{},
	}

	for i, cmdArgs := range cmdArgsTestCases {
		// setup
		rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
		rootCmd.SetArgs(cmdArgs)
		var out bytes.Buffer
		rootCmd.SetOut(&out)

		// test
		err := rootCmd.Execute()
		assert.NoErrorf(t, err, "test case %d returned an error", i)

		// assert printed text
		assert.Containsf(t, out.String(), "Use \"evm-batch-transfer [command] --help\" for more information about a command.", "test case %d did not print help message as expected", i)
	}
}

func Test_SetupCLI_subcommands(t *testing.T) {
	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")

	var commands []string
	for _, cmd := range rootCmd.Commands() {
		commands = append(commands, cmd.Use)
	}
	assert.Subset(t, commands, []string{"send", "addresses"})
	assert.Equal(t, "x.y.z", rootCmd.Version)
}

func Test_rootCmd_globalFlags(t *testing.T) {
	cmdUtils.ClearTestEnvironment(t)

	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
	for _, flagName := range []string{"log-level", "environment", "sentry-dsn", "rpc-url", "private-key", "metrics-pushgateway-url", cmdUtils.EnvFileFlagName} {
		require.NotNilf(t, rootCmd.PersistentFlags().Lookup(flagName), "flag %s not found", flagName)
	}

	assert.Equal(t, cmdUtils.DefaultRPCURL, rootCmd.PersistentFlags().Lookup("rpc-url").DefValue)
}

func Test_rootCmd_version(t *testing.T) {
	cmdUtils.ClearTestEnvironment(t)

	rootCmd := SetupCLI("x.y.z", "1234567890abcdef")
	rootCmd.SetArgs([]string{"--version"})
	var out bytes.Buffer
	rootCmd.SetOut(&out)

	err := rootCmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "x.y.z")
}
