package crashtracker

import (
	"context"
	"time"
)

// CrashTrackerClient reports fatal command errors and panics.
type CrashTrackerClient interface {
	LogAndReportErrors(ctx context.Context, err error, msg string)
	LogAndReportMessages(ctx context.Context, msg string)
	FlushEvents(waitTime time.Duration) bool
	Recover()
	// WithTags returns a copy of the client whose reports carry the given tags, e.g. the command name and the chain id.
	WithTags(tags map[string]string) CrashTrackerClient
}
