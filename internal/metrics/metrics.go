package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapblast_messages_total",
			Help: "Campaign message lifecycle counter by stage",
		},
		[]string{"stage"}, // sent|failed|delivered|read
	)

	CampaignRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapblast_campaign_runs_total",
			Help: "Dispatch loop runs by outcome",
		},
		[]string{"result"}, // completed|stopped|locked|failed
	)

	WebhookEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "zapblast_webhook_events_total",
			Help: "Gateway webhook events received by type",
		},
		[]string{"event"},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		MessagesTotal,
		CampaignRunsTotal,
		WebhookEventsTotal,
	)
}
