package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const metricPrefix = "facility_"

var (
	registerOnce sync.Once

	// WarningsCreated counts fresh draft warnings, including re-drafts from
	// renewals.
	WarningsCreated prometheus.Counter

	// WarningTransitions counts status transitions by target status.
	WarningTransitions *prometheus.CounterVec

	// WarningRenewals counts delete-and-redraft cycles.
	WarningRenewals prometheus.Counter

	// NotificationsDelivered counts deliveries by channel (bell, email, push).
	NotificationsDelivered *prometheus.CounterVec

	// WatchdogDisconnects counts access points the watchdog marked offline.
	WatchdogDisconnects prometheus.Counter
)

func init() {
	registerOnce.Do(func() {
		WarningsCreated = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "warnings_created_total",
			Help: "Total draft warnings created",
		})
		WarningTransitions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "warning_transitions_total",
			Help: "Total warning status transitions by target status",
		}, []string{"status"})
		WarningRenewals = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "warning_renewals_total",
			Help: "Total warning renewals (delete and redraft)",
		})
		NotificationsDelivered = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: metricPrefix + "notifications_delivered_total",
			Help: "Total notifications delivered by channel",
		}, []string{"channel"})
		WatchdogDisconnects = prometheus.NewCounter(prometheus.CounterOpts{
			Name: metricPrefix + "watchdog_disconnects_total",
			Help: "Total access points marked disconnected by the watchdog",
		})

		prometheus.MustRegister(
			WarningsCreated,
			WarningTransitions,
			WarningRenewals,
			NotificationsDelivered,
			WatchdogDisconnects,
		)
	})
}
