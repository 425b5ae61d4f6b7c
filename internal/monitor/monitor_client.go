package monitor

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type MonitorClient interface {
	GetMetricType() MetricType
	GetGatherer() prometheus.Gatherer
	MonitorCounters(tag MetricTag, labels map[string]string)
	MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string)
	Push(ctx context.Context) error
}
