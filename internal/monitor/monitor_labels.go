package monitor

type TransferLabels struct {
	Asset  string
	Status string
}

func (t TransferLabels) ToMap() map[string]string {
	return map[string]string{
		"asset":  t.Asset,
		"status": t.Status,
	}
}

type DispatchRunLabels struct {
	Asset string
}

func (d DispatchRunLabels) ToMap() map[string]string {
	return map[string]string{
		"asset": d.Asset,
	}
}
