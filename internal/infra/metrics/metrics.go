package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_notifications_sent_total",
		Help: "Push notifications accepted by the delivery service, by alert kind.",
	}, []string{"kind"})

	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_notifications_failed_total",
		Help: "Push notifications rejected or errored, by alert kind.",
	}, []string{"kind"})

	WebhookEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_stripe_webhook_events_total",
		Help: "Stripe webhook events received, by event type.",
	}, []string{"type"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notifier_job_runs_total",
		Help: "Scheduled job executions, by job name and outcome.",
	}, []string{"job", "outcome"})
)
