package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "evm_batch_transfer"

// prometheusMetrics holds the collectors of one client.
type prometheusMetrics struct {
	SummaryVecMetrics map[MetricTag]*prometheus.SummaryVec
	CounterVecMetrics map[MetricTag]*prometheus.CounterVec
}

func newPrometheusMetrics() prometheusMetrics {
	return prometheusMetrics{
		SummaryVecMetrics: map[MetricTag]*prometheus.SummaryVec{
			TransferDurationTag: prometheus.NewSummaryVec(prometheus.SummaryOpts{
				Namespace: metricsNamespace, Subsystem: "dispatcher", Name: string(TransferDurationTag),
				Help: "Duration of a transfer, from the balance check to the confirmation",
			},
				[]string{"asset", "status"},
			),
		},
		CounterVecMetrics: map[MetricTag]*prometheus.CounterVec{
			TransfersCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace, Subsystem: "dispatcher", Name: string(TransfersCounterTag),
				Help: "Transfers processed by the dispatcher",
			},
				[]string{"asset", "status"},
			),
			DispatchRunsCounterTag: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: metricsNamespace, Subsystem: "dispatcher", Name: string(DispatchRunsCounterTag),
				Help: "Dispatch runs started",
			},
				[]string{"asset"},
			),
		},
	}
}

func (pm prometheusMetrics) collector(tag MetricTag) (prometheus.Collector, bool) {
	if summaryVec, ok := pm.SummaryVecMetrics[tag]; ok {
		return summaryVec, true
	}
	if counterVec, ok := pm.CounterVecMetrics[tag]; ok {
		return counterVec, true
	}
	return nil, false
}
