package utils

import (
	"github.com/sirupsen/logrus"

	"github.com/stellar/evm-batch-transfer/internal/crashtracker"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
	"github.com/stellar/evm-batch-transfer/internal/transfer"
)

type GlobalOptionsType struct {
	LogLevel              logrus.Level
	SentryDSN             string
	Environment           string
	Version               string
	GitCommit             string
	RPCURL                string
	Senders               []transfer.SenderAccount
	MetricsPushgatewayURL string
}

// PopulateCrashTrackerOptions populates the CrashTrackerOptions from the global options.
func (g GlobalOptionsType) PopulateCrashTrackerOptions(crashTrackerOptions *crashtracker.CrashTrackerOptions) {
	if crashTrackerOptions.CrashTrackerType == crashtracker.CrashTrackerTypeSentry {
		crashTrackerOptions.SentryDSN = g.SentryDSN
	}
	crashTrackerOptions.Environment = g.Environment
	crashTrackerOptions.GitCommit = g.GitCommit
}

// MetricOptions builds the metric options of a run from the global options.
func (g GlobalOptionsType) MetricOptions() monitor.MetricOptions {
	return monitor.MetricOptions{
		MetricType:     monitor.MetricTypePrometheus,
		Environment:    g.Environment,
		PushgatewayURL: g.MetricsPushgatewayURL,
		PushJobName:    monitor.DefaultPushJobName,
	}
}
