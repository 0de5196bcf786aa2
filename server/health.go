package server

import (
	"errors"
	"net/http"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var errNotReady = errors.New("not ready")

// healthRoutes mounts the liveness/readiness probes and the Prometheus
// scrape endpoint of SPEC_FULL §4.L, grounded on
// svalcken-fritzbox_exporter/health.go's healthcheck.Handler wiring,
// rebound here to the SSDP responder and announcer instead of a FRITZ!Box
// connection. Readiness reports whether both have started; the HTTP
// listener is not checked.
func (s *Server) healthRoutes() http.Handler {
	health := healthcheck.NewHandler()
	health.AddLivenessCheck("go-routines", healthcheck.GoroutineCountCheck(200))
	health.AddReadinessCheck("ssdp-responder", func() error {
		if !s.responderReady.Load() {
			return errNotReady
		}
		return nil
	})
	health.AddReadinessCheck("ssdp-announcer", func() error {
		if !s.announcerReady.Load() {
			return errNotReady
		}
		return nil
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", health.LiveEndpoint)
	mux.HandleFunc("/readyz", health.ReadyEndpoint)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

// logWriteError logs a failure writing an HTTP response body; by the time
// this is called the status line is already sent, so there is nothing left
// to do but record it.
func (s *Server) logWriteError(req *http.Request, err error) {
	if err == nil {
		return
	}
	s.accessLogger.WithField("path", req.URL.Path).WithError(err).Debug("failed writing response body")
}
