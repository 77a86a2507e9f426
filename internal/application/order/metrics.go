package order

import "time"

// Outcome labels reported to SettlementMetrics
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// SettlementMetrics receives settlement and compensation outcomes
type SettlementMetrics interface {
	ObserveSettlement(outcome string, kind string, duration time.Duration)
	IncCompensation(outcome string)
}

type noopMetrics struct{}

func (noopMetrics) ObserveSettlement(string, string, time.Duration) {}
func (noopMetrics) IncCompensation(string)                          {}
