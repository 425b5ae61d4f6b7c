package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/stellar/go-stellar-sdk/support/log"
)

type prometheusClient struct {
	registry *prometheus.Registry
	metrics  prometheusMetrics
	// pusher is nil when no Pushgateway is configured.
	pusher *push.Pusher
}

func (prometheusClient) GetMetricType() MetricType {
	return MetricTypePrometheus
}

func (p *prometheusClient) GetGatherer() prometheus.Gatherer {
	return p.registry
}

func (p *prometheusClient) MonitorDuration(duration time.Duration, tag MetricTag, labels map[string]string) {
	summary, ok := p.metrics.SummaryVecMetrics[tag]
	if !ok {
		log.Errorf("metric not registered in Prometheus SummaryVecMetrics: %s", tag)
		return
	}
	summary.With(labels).Observe(duration.Seconds())
}

func (p *prometheusClient) MonitorCounters(tag MetricTag, labels map[string]string) {
	counterVecMetric, ok := p.metrics.CounterVecMetrics[tag]
	if !ok {
		log.Errorf("metric not registered in Prometheus CounterVecMetrics: %s", tag)
		return
	}
	counterVecMetric.With(labels).Inc()
}

// Push sends the gathered metrics to the Pushgateway, replacing the ones previously pushed under the same job and
// environment.
func (p *prometheusClient) Push(ctx context.Context) error {
	if p.pusher == nil {
		return nil
	}

	if err := p.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("pushing metrics to the pushgateway: %w", err)
	}

	return nil
}

func NewPrometheusClient(opts MetricOptions) (*prometheusClient, error) {
	// register Prometheus metrics
	metricsRegistry := prometheus.NewRegistry()
	metrics := newPrometheusMetrics()

	var metricTag MetricTag
	for _, tag := range metricTag.ListAll() {
		collector, ok := metrics.collector(tag)
		if !ok {
			return nil, fmt.Errorf("metric not registered in prometheus metrics: %s", tag)
		}
		if err := metricsRegistry.Register(collector); err != nil {
			return nil, fmt.Errorf("registering metric %s: %w", tag, err)
		}
	}

	client := &prometheusClient{registry: metricsRegistry, metrics: metrics}

	if opts.PushgatewayURL != "" {
		jobName := opts.PushJobName
		if jobName == "" {
			jobName = DefaultPushJobName
		}

		client.pusher = push.New(opts.PushgatewayURL, jobName).Gatherer(metricsRegistry)
		if opts.Environment != "" {
			client.pusher = client.pusher.Grouping("environment", opts.Environment)
		}
	}

	return client, nil
}

// Ensuring that prometheusClient is implementing MonitorClient interface
var _ MonitorClient = (*prometheusClient)(nil)
