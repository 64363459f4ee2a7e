package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes
const (
	OutcomeAccepted = "accepted"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Delivery outcomes
const (
	DeliverySuccess    = "success"
	DeliveryTimeout    = "timeout"
	DeliveryConnection = "connection"
	DeliveryStatus     = "status"
	DeliverySkipped    = "skipped"
)

type Collector struct {
	submissionsTotal *prometheus.CounterVec
	deliveriesTotal  *prometheus.CounterVec
	deliveryDuration *prometheus.HistogramVec

	sweepsTotal    *prometheus.CounterVec
	errorsRecorded *prometheus.CounterVec
	alertsTotal    *prometheus.CounterVec
	lastSweepTime  *prometheus.GaugeVec
}

func NewCollector() *Collector {
	return NewCollectorWith(prometheus.DefaultRegisterer)
}

// NewCollectorWith registers all metrics against reg. Tests pass their
// own registry to avoid duplicate registration on the default one.
func NewCollectorWith(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		submissionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexio_form_submissions_total",
				Help: "Form submissions by tenant and outcome",
			},
			[]string{"tenant_id", "outcome"},
		),
		deliveriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexio_webhook_deliveries_total",
				Help: "Webhook delivery attempts by tenant and outcome",
			},
			[]string{"tenant_id", "outcome"},
		),
		deliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nexio_webhook_delivery_duration_seconds",
				Help:    "Webhook delivery round-trip time",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8},
			},
			[]string{"tenant_id"},
		),
		sweepsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexio_monitor_sweeps_total",
				Help: "Automation monitor sweeps by instance and outcome",
			},
			[]string{"instance", "outcome"},
		),
		errorsRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexio_automation_errors_recorded_total",
				Help: "New automation errors recorded by instance and severity",
			},
			[]string{"instance", "severity"},
		),
		alertsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nexio_alerts_sent_total",
				Help: "Outbound alerts by outcome",
			},
			[]string{"outcome"},
		),
		lastSweepTime: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "nexio_monitor_last_sweep_timestamp_seconds",
				Help: "Unix time of the last completed sweep per instance",
			},
			[]string{"instance"},
		),
	}
}

func (c *Collector) RecordSubmission(tenantID, outcome string) {
	c.submissionsTotal.WithLabelValues(tenantID, outcome).Inc()
}

func (c *Collector) RecordDelivery(tenantID, outcome string, elapsed time.Duration) {
	c.deliveriesTotal.WithLabelValues(tenantID, outcome).Inc()
	if outcome != DeliverySkipped {
		c.deliveryDuration.WithLabelValues(tenantID).Observe(elapsed.Seconds())
	}
}

func (c *Collector) RecordSweep(instance, outcome string) {
	c.sweepsTotal.WithLabelValues(instance, outcome).Inc()
	c.lastSweepTime.WithLabelValues(instance).SetToCurrentTime()
}

func (c *Collector) RecordAutomationError(instance, severity string) {
	c.errorsRecorded.WithLabelValues(instance, severity).Inc()
}

func (c *Collector) RecordAlert(success bool) {
	outcome := "success"
	if !success {
		outcome = "failure"
	}
	c.alertsTotal.WithLabelValues(outcome).Inc()
}
