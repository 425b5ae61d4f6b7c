package monitor

import (
	"fmt"
	"strings"
)

type MetricType string

const (
	MetricTypePrometheus MetricType = "PROMETHEUS"
)

func ParseMetricType(metricTypeStr string) (MetricType, error) {
	metricTypeStrUpper := strings.ToUpper(metricTypeStr)
	mType := MetricType(metricTypeStrUpper)

	switch mType {
	case MetricTypePrometheus:
		return mType, nil
	default:
		return "", fmt.Errorf("invalid metric type %q", metricTypeStrUpper)
	}
}

const DefaultPushJobName = "evm_batch_transfer"

type MetricOptions struct {
	MetricType  MetricType
	Environment string
	// PushgatewayURL is the address of a Prometheus Pushgateway. When empty, Push is a no-op.
	PushgatewayURL string
	PushJobName    string
}

func GetClient(opts MetricOptions) (MonitorClient, error) {
	switch opts.MetricType {
	case MetricTypePrometheus:
		return NewPrometheusClient(opts)
	default:
		return nil, fmt.Errorf("unknown metric type: %q", opts.MetricType)
	}
}
