package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics groups the Prometheus collectors of SPEC_FULL §4.L, grounded on
// svalcken-fritzbox_exporter/main.go's counter registration pattern and
// rebound to SSDP/SOAP traffic.
type metrics struct {
	searches      *prometheus.CounterVec
	advertisements *prometheus.CounterVec
	actions       *prometheus.CounterVec
	actionLatency *prometheus.HistogramVec
}

func newMetrics(registry prometheus.Registerer) *metrics {
	m := &metrics{
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upnpd_ssdp_searches_total",
			Help: "Number of SSDP M-SEARCH responses sent, by search target kind.",
		}, []string{"kind"}),
		advertisements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upnpd_ssdp_advertisements_total",
			Help: "Number of SSDP NOTIFY advertisements sent, by notification sub-type.",
		}, []string{"nts"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "upnpd_soap_actions_total",
			Help: "Number of SOAP action invocations, by service, action and outcome.",
		}, []string{"service", "action", "outcome"}),
		actionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name: "upnpd_soap_action_duration_seconds",
			Help: "SOAP action handler latency in seconds.",
		}, []string{"service", "action"}),
	}
	registry.MustRegister(m.searches, m.advertisements, m.actions, m.actionLatency)
	return m
}

func (m *metrics) observeSearchHit(kind string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(kind).Inc()
}

func (m *metrics) observeAdvertisement(nts string) {
	if m == nil {
		return
	}
	m.advertisements.WithLabelValues(nts).Inc()
}

// observeAction records one SOAP dispatch outcome, labeled by the outcome
// DispatchSOAP reported through its onResult callback (see routes.go).
func (m *metrics) observeAction(serviceType, action, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.actions.WithLabelValues(serviceType, action, outcome).Inc()
	m.actionLatency.WithLabelValues(serviceType, action).Observe(elapsed.Seconds())
}
