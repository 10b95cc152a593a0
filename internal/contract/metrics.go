package contract

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/louisbranch/milestonefund/internal/campaign"
)

// Metrics records invocation outcomes and the committed campaign state.
type Metrics struct {
	invocations   *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	currentAmount prometheus.Gauge
	targetAmount  prometheus.Gauge
	milestones    *prometheus.GaugeVec
}

// NewMetrics registers contract metrics with reg. A nil reg uses a private
// registry so tests and embedded contracts never collide on the default one.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Metrics{
		invocations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "milestonefund_invocations_total",
				Help: "Contract invocations by operation, outcome, and error code",
			},
			[]string{"operation", "outcome", "code"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "milestonefund_invocation_duration_seconds",
				Help:    "Contract invocation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
			},
			[]string{"operation"},
		),
		currentAmount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "milestonefund_campaign_current_amount",
			Help: "Committed donation total (approximate beyond 2^53)",
		}),
		targetAmount: factory.NewGauge(prometheus.GaugeOpts{
			Name: "milestonefund_campaign_target_amount",
			Help: "Campaign fundraising target (approximate beyond 2^53)",
		}),
		milestones: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "milestonefund_campaign_milestones",
				Help: "Milestones by status",
			},
			[]string{"status"},
		),
	}
}

func (m *Metrics) observeInvocation(op campaign.Operation, outcome outcome, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.invocations.WithLabelValues(op.String(), string(outcome), code).Inc()
	m.duration.WithLabelValues(op.String()).Observe(elapsed.Seconds())
}

func (m *Metrics) observeState(data campaign.Data) {
	if m == nil {
		return
	}
	m.currentAmount.Set(data.CurrentAmount.Float64())
	m.targetAmount.Set(data.TargetAmount.Float64())

	counts := map[campaign.MilestoneStatus]int{
		campaign.MilestonePending:   0,
		campaign.MilestoneCompleted: 0,
		campaign.MilestoneApproved:  0,
	}
	for _, milestone := range data.Milestones {
		counts[milestone.Status]++
	}
	for status, count := range counts {
		m.milestones.WithLabelValues(string(status)).Set(float64(count))
	}
}
