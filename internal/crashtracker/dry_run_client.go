package crashtracker

import (
	"context"
	"fmt"
	"maps"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
)

type dryRunClient struct {
	tags map[string]string
}

func (s *dryRunClient) logger(ctx context.Context) *log.Entry {
	if len(s.tags) == 0 {
		return log.Ctx(ctx)
	}

	fields := log.F{}
	for k, v := range s.tags {
		fields[k] = v
	}
	return log.Ctx(ctx).WithFields(fields)
}

func (s *dryRunClient) LogAndReportErrors(ctx context.Context, err error, msg string) {
	if msg != "" {
		err = fmt.Errorf("%s: %w", msg, err)
	}
	s.logger(ctx).Errorf("[DRY_RUN Crash Reporter] %+v", err)
}

func (s *dryRunClient) LogAndReportMessages(ctx context.Context, msg string) {
	s.logger(ctx).Infof("[DRY_RUN Crash Reporter] %s", msg)
}

func (s *dryRunClient) FlushEvents(waitTime time.Duration) bool {
	return false
}

func (s *dryRunClient) Recover() {}

func (s *dryRunClient) WithTags(tags map[string]string) CrashTrackerClient {
	merged := maps.Clone(s.tags)
	if merged == nil {
		merged = make(map[string]string, len(tags))
	}
	maps.Copy(merged, tags)
	return &dryRunClient{tags: merged}
}

func NewDryRunClient() *dryRunClient {
	return &dryRunClient{}
}

// Ensuring that dryRunClient is implementing CrashTrackerClient interface
var _ CrashTrackerClient = (*dryRunClient)(nil)
