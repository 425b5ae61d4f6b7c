package crashtracker

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ParseCrashTrackerType(t *testing.T) {
	testCases := []struct {
		crashTrackerTypeStr      string
		expectedCrashTrackerType CrashTrackerType
		wantErr                  error
	}{
		{wantErr: fmt.Errorf("invalid crash tracker type \"\"")},
		{crashTrackerTypeStr: "MOCKCRASHTRACKERTYPE", wantErr: fmt.Errorf("invalid crash tracker type \"MOCKCRASHTRACKERTYPE\"")},
		{crashTrackerTypeStr: "sentry", expectedCrashTrackerType: CrashTrackerTypeSentry},
		{crashTrackerTypeStr: "SENtry", expectedCrashTrackerType: CrashTrackerTypeSentry},
		{crashTrackerTypeStr: "DRY_run", expectedCrashTrackerType: CrashTrackerTypeDryRun},
		{crashTrackerTypeStr: "dry_run", expectedCrashTrackerType: CrashTrackerTypeDryRun},
	}
	for _, tc := range testCases {
		t.Run("crashTrackerType: "+tc.crashTrackerTypeStr, func(t *testing.T) {
			crashTrackerType, err := ParseCrashTrackerType(tc.crashTrackerTypeStr)
			assert.Equal(t, tc.expectedCrashTrackerType, crashTrackerType)
			assert.Equal(t, tc.wantErr, err)
		})
	}
}

func Test_GetClient(t *testing.T) {
	ctx := context.Background()

	t.Run("get sentry crash tracker client", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{
			CrashTrackerType: CrashTrackerTypeSentry,
			SentryDSN:        "https://public@sentry.example.com/1",
			Environment:      "test",
		})
		assert.NoError(t, err)
		assert.IsType(t, &sentryClient{}, gotClient)
	})

	t.Run("sentry crash tracker requires a dsn", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: CrashTrackerTypeSentry})
		assert.Nil(t, gotClient)
		assert.EqualError(t, err, "sentry dsn is required for the \"SENTRY\" crash tracker")
	})

	t.Run("get dry run crash tracker client", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: CrashTrackerTypeDryRun})
		assert.NoError(t, err)
		assert.IsType(t, &dryRunClient{}, gotClient)
	})

	t.Run("error crash tracker type is invalid", func(t *testing.T) {
		gotClient, err := GetClient(ctx, CrashTrackerOptions{CrashTrackerType: "MOCKCRASHTRACKERTYPE"})
		assert.Nil(t, gotClient)
		assert.EqualError(t, err, "unknown crash tracker type: \"MOCKCRASHTRACKERTYPE\"")
	})
}
