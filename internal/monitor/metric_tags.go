package monitor

type MetricTag string

const (
	TransfersCounterTag    MetricTag = "transfers_total"
	TransferDurationTag    MetricTag = "transfer_duration_seconds"
	DispatchRunsCounterTag MetricTag = "dispatch_runs_total"
)

func (m MetricTag) ListAll() []MetricTag {
	return []MetricTag{
		TransfersCounterTag,
		TransferDurationTag,
		DispatchRunsCounterTag,
	}
}
