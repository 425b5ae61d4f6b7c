package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stellar/evm-batch-transfer/internal/crashtracker"
	"github.com/stellar/evm-batch-transfer/internal/monitor"
)

func Test_globalOptions_PopulateCrashTrackerOptions(t *testing.T) {
	globalOptions := GlobalOptionsType{
		Environment: "test",
		GitCommit:   "1234567890abcdef",
		SentryDSN:   "test-sentry-dsn",
	}

	t.Run("CrashTrackerType is not Sentry", func(t *testing.T) {
		crashTrackerOptions := crashtracker.CrashTrackerOptions{}
		globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

		wantCrashTrackerOptions := crashtracker.CrashTrackerOptions{
			Environment: "test",
			GitCommit:   "1234567890abcdef",
		}
		assert.Equal(t, wantCrashTrackerOptions, crashTrackerOptions)
	})

	t.Run("CrashTrackerType is Sentry", func(t *testing.T) {
		crashTrackerOptions := crashtracker.CrashTrackerOptions{
			CrashTrackerType: crashtracker.CrashTrackerTypeSentry,
		}
		globalOptions.PopulateCrashTrackerOptions(&crashTrackerOptions)

		wantCrashTrackerOptions := crashtracker.CrashTrackerOptions{
			Environment:      "test",
			GitCommit:        "1234567890abcdef",
			SentryDSN:        "test-sentry-dsn",
			CrashTrackerType: crashtracker.CrashTrackerTypeSentry,
		}
		assert.Equal(t, wantCrashTrackerOptions, crashTrackerOptions)
	})
}

func Test_globalOptions_MetricOptions(t *testing.T) {
	globalOptions := GlobalOptionsType{
		Environment:           "staging",
		MetricsPushgatewayURL: "http://localhost:9091",
	}

	wantOptions := monitor.MetricOptions{
		MetricType:     monitor.MetricTypePrometheus,
		Environment:    "staging",
		PushgatewayURL: "http://localhost:9091",
		PushJobName:    monitor.DefaultPushJobName,
	}
	assert.Equal(t, wantOptions, globalOptions.MetricOptions())
}
