package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/upnp"
)

// Routes wires the fixed HTTP surface of spec.md §6 for root's whole
// device tree: a description GET per device and per service, a control
// POST per service, and a stub SUBSCRIBE returning 404, plus the ambient
// health/metrics endpoints of SPEC_FULL §4.L.
func Routes(srv *Server) chi.Router {
	r := chi.NewRouter()
	r.Use(accessLogMiddleware)

	for _, d := range srv.Root.AllDevices() {
		d := d
		r.Get(devicePath(d), func(w http.ResponseWriter, req *http.Request) {
			if err := WriteDeviceDescription(w, d); err != nil {
				srv.logWriteError(req, err)
			}
		})
	}

	for _, s := range srv.Root.AllServices() {
		s := s
		r.Get(s.SCPDURL, func(w http.ResponseWriter, req *http.Request) {
			if err := WriteServiceDescription(w, s); err != nil {
				srv.logWriteError(req, err)
			}
		})
		r.Post(s.ControlURL, func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			DispatchSOAP(w, req, s, func(action, outcome string) {
				srv.metrics.observeAction(s.ServiceType, action, outcome, time.Since(start))
			})
		})
		r.MethodFunc("SUBSCRIBE", s.EventSubURL, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
	}

	r.Mount("/", srv.healthRoutes())

	return r
}

// accessLogMiddleware routes every request through log.Access, per
// spec.md §4.I's "access logs routed to a traffic logger" and
// SPEC_FULL §4.J's named-sub-logger split.
func accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, req)
		log.Access.WithField("method", req.Method).
			WithField("path", req.URL.Path).
			WithField("status", ww.Status()).
			WithField("duration", time.Since(start)).
			Debug("http request")
	})
}

// devicePath is a device's description path: "/device.xml" for the root,
// "/device/<UDN>.xml" for an embedded device. Routes serves a description
// at each of them, but only the root's is published as LOCATION, per
// spec.md §4.E/§4.I.
func devicePath(d *upnp.Device) string {
	if d == d.Root() {
		return "/device.xml"
	}
	return "/device/" + d.UDN + ".xml"
}
