package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/ssdp"
	"github.com/upnpstack/upnpd/upnp"
)

// Server composes the device/service model and the ssdp package into a
// runnable UPnP device server, per spec.md §4.I: it binds the HTTP
// surface of §6, and starts/stops the search responder and advertisement
// announcer in the order §4.I specifies, using golang.org/x/sync/errgroup
// for goroutine coordination per SPEC_FULL §5.
type Server struct {
	Root              *upnp.Device
	Addr              *net.TCPAddr // HTTP bind address
	Interface         *net.Interface
	ServerTokens      string // SSDP/HTTP SERVER header product tokens
	AdvertiseInterval time.Duration

	httpServer   *http.Server
	responder    *ssdp.Responder
	announcer    *ssdp.Announcer
	metrics      *metrics
	registry     *prometheus.Registry
	accessLogger *logrus.Entry

	responderReady atomic.Bool
	announcerReady atomic.Bool

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New builds an unstarted Server. root's base URI must already be set to
// the same host:port Addr will bind, so descriptions and LOCATION headers
// are self-consistent.
func New(root *upnp.Device, addr *net.TCPAddr, serverTokens string) *Server {
	registry := prometheus.NewRegistry()
	s := &Server{
		Root:              root,
		Addr:              addr,
		ServerTokens:      serverTokens,
		AdvertiseInterval: 30 * time.Second,
		registry:          registry,
		metrics:           newMetrics(registry),
		accessLogger:      log.Access,
	}
	return s
}

// deviceURL is the absolute LOCATION URL of the root device description:
// base_uri + the root's well-known description path.
func (s *Server) deviceURL(baseURI string) string {
	return baseURI + devicePath(s.Root.Root())
}

// Start binds the HTTP listener and starts the search responder and
// advertisement announcer, in that order per spec.md §4.I. The device
// tree's root.BaseURI must already be set (per spec.md §4.I point 1) to
// the HTTP origin Addr will bind to.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Root.Validate(); err != nil {
		return fmt.Errorf("server: device tree validation: %w", err)
	}
	baseURI := s.Root.Root().BaseURI
	if baseURI == "" {
		return fmt.Errorf("server: root device BaseURI is not set")
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	s.cancel = cancel
	s.group = group

	location := s.deviceURL(baseURI)

	listener, err := net.ListenTCP("tcp", s.Addr)
	if err != nil {
		cancel()
		return fmt.Errorf("server: listen http: %w", err)
	}

	s.httpServer = &http.Server{Handler: Routes(s)}
	group.Go(func() error {
		err := s.httpServer.Serve(listener)
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	})

	s.responder = &ssdp.Responder{
		Root:         s.Root,
		DeviceURL:    location,
		ServerTokens: s.ServerTokens,
		OnHit:        s.metrics.observeSearchHit,
	}
	if err := s.responder.Start(groupCtx, s.Interface); err != nil {
		cancel()
		_ = listener.Close()
		return fmt.Errorf("server: start ssdp responder: %w", err)
	}
	s.responderReady.Store(true)

	s.announcer = &ssdp.Announcer{
		Root:         s.Root,
		DeviceURL:    location,
		ServerTokens: s.ServerTokens,
		Interval:     s.AdvertiseInterval,
		OnSend:       s.metrics.observeAdvertisement,
	}
	if err := s.announcer.Start(groupCtx); err != nil {
		cancel()
		s.responder.Stop()
		_ = listener.Close()
		return fmt.Errorf("server: start ssdp announcer: %w", err)
	}
	s.announcerReady.Store(true)

	log.Info(ctx, "upnp server started", "addr", listener.Addr().String(), "location", location)
	return nil
}

// Stop reverses Start's order: announcer (sends byebye) → responder →
// HTTP server, per spec.md §4.I.
func (s *Server) Stop(ctx context.Context) error {
	if s.announcer != nil {
		s.announcer.Stop(ctx)
		s.announcerReady.Store(false)
	}
	if s.responder != nil {
		s.responder.Stop()
		s.responderReady.Store(false)
	}
	if s.cancel != nil {
		s.cancel()
	}

	var httpErr error
	if s.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		httpErr = s.httpServer.Shutdown(shutdownCtx)
	}

	var groupErr error
	if s.group != nil {
		groupErr = s.group.Wait()
	}

	log.Info(ctx, "upnp server stopped")

	if httpErr != nil {
		return httpErr
	}
	return groupErr
}
