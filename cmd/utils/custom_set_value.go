package utils

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/evm-batch-transfer/internal/chain"
	"github.com/stellar/evm-batch-transfer/internal/crashtracker"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
	"github.com/stellar/evm-batch-transfer/internal/utils"
)

func SetConfigOptionMetricType(co *config.ConfigOption) error {
	metricType := viper.GetString(co.Name)

	metricTypeParsed, err := monitor.ParseMetricType(metricType)
	if err != nil {
		return fmt.Errorf("couldn't parse metric type: %w", err)
	}

	*(co.ConfigKey.(*monitor.MetricType)) = metricTypeParsed
	return nil
}

func SetConfigOptionCrashTrackerType(co *config.ConfigOption) error {
	ctType := viper.GetString(co.Name)

	ctTypeParsed, err := crashtracker.ParseCrashTrackerType(ctType)
	if err != nil {
		return fmt.Errorf("couldn't parse crash tracker type: %w", err)
	}

	*(co.ConfigKey.(*crashtracker.CrashTrackerType)) = ctTypeParsed
	return nil
}

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	// parse string to logLevel object
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level: %w", err)
	}

	// update the configKey
	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("configKey has an invalid type %T", co.ConfigKey)
	}
	*key = logLevel

	// Log for debugging
	if config.IsExplicitlySet(co) {
		log.Debugf("Setting log level to: %q", logLevel)
	} else {
		log.Debugf("Using default log level: %q", logLevel)
	}
	log.DefaultLogger.SetLevel(*key)
	return nil
}

// SetConfigOptionRPCURL validates the JSON-RPC endpoint of the chain.
func SetConfigOptionRPCURL(co *config.ConfigOption) error {
	rpcURL := strings.TrimSpace(viper.GetString(co.Name))

	if err := utils.ValidateRPCURL(rpcURL); err != nil {
		return fmt.Errorf("error validating rpc url: %w", err)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string, but got a %T instead", co.ConfigKey)
	}
	*key = rpcURL

	return nil
}

// SetConfigOptionOptionalURLString validates the url when one is provided. An empty value is accepted.
func SetConfigOptionOptionalURLString(co *config.ConfigOption) error {
	u := strings.TrimSpace(viper.GetString(co.Name))

	if u != "" {
		if _, err := url.ParseRequestURI(u); err != nil {
			return fmt.Errorf("error parsing %s: %w", co.Name, err)
		}
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string, but got a %T instead", co.ConfigKey)
	}
	*key = u

	return nil
}

// SetConfigOptionPrivateKeys parses a comma separated list of hex encoded private keys into sender accounts. An empty
// value is accepted so that the commands that do not sign anything can run without credentials.
func SetConfigOptionPrivateKeys(co *config.ConfigOption) error {
	rawKeys := utils.SplitAndTrim(viper.GetString(co.Name), ',')

	key, ok := co.ConfigKey.(*[]transfer.SenderAccount)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a sender account slice, but got a %T instead", co.ConfigKey)
	}

	if len(rawKeys) == 0 {
		*key = nil
		return nil
	}

	senders, err := transfer.ParseSenderAccounts(rawKeys)
	if err != nil {
		return fmt.Errorf("error validating private keys: %w", err)
	}
	*key = senders

	return nil
}

// SetConfigOptionEVMAddress validates an optional EVM address.
func SetConfigOptionEVMAddress(co *config.ConfigOption) error {
	address := strings.TrimSpace(viper.GetString(co.Name))

	if address != "" && !chain.IsValidAddress(address) {
		return fmt.Errorf("error validating %s: %q is not a valid address", co.Name, address)
	}

	key, ok := co.ConfigKey.(*string)
	if !ok {
		return fmt.Errorf("the expected type for this config key is a string, but got a %T instead", co.ConfigKey)
	}
	*key = address

	return nil
}
