package ssdp

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/upnp"
)

const (
	cacheMaxAge = 150 * time.Second
	readTimeout = time.Second
)

// SearchHitFunc is invoked once per response the responder emits, letting
// the caller wire a metrics counter without the responder depending on a
// particular metrics library.
type SearchHitFunc func(searchTargetKind string)

// Responder listens for M-SEARCH probes on the SSDP multicast group and
// answers them per spec.md §4.E, classifying probes against the device
// tree rooted at Root.
type Responder struct {
	Root         *upnp.Device
	DeviceURL    string // absolute LOCATION URL of the root device description
	ServerTokens string // SERVER header product tokens

	OnHit SearchHitFunc

	mu     sync.Mutex
	conn   *net.UDPConn
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Start joins the SSDP multicast group on iface (nil means the default
// multicast interface) and begins answering M-SEARCH probes in a
// background goroutine.
func (r *Responder) Start(ctx context.Context, iface *net.Interface) error {
	mcast := MulticastAddr(nil)
	network := Network(nil)

	conn, err := net.ListenMulticastUDP(network, iface, mcast)
	if err != nil {
		return fmt.Errorf("ssdp responder: listen multicast: %w", err)
	}
	if err := conn.SetReadBuffer(65536); err != nil {
		log.Warn(ctx, "ssdp responder: failed to set read buffer", err)
	}

	if iface != nil {
		pconn := ipv4.NewPacketConn(conn)
		if err := pconn.JoinGroup(iface, mcast); err != nil {
			conn.Close()
			return fmt.Errorf("ssdp responder: join group on %s: %w", iface.Name, err)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.conn = conn
	r.cancel = cancel
	r.mu.Unlock()

	r.wg.Add(1)
	go r.listen(runCtx)

	return nil
}

// Stop closes the responder's socket and waits for its goroutine to exit.
func (r *Responder) Stop() {
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	conn := r.conn
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	r.wg.Wait()
}

func (r *Responder) listen(ctx context.Context) {
	defer r.wg.Done()

	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := r.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			continue
		}
		n, remoteAddr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			select {
			case <-ctx.Done():
				return
			default:
			}
			log.Error(ctx, "ssdp responder: read error", err)
			continue
		}

		msg, err := ParseMessage(buf[:n])
		if err != nil {
			continue // SSDP parse error: silently dropped, per spec.md §7
		}
		msg.Header.Set(RemoteAddrHeader, remoteAddr.String())
		r.handle(ctx, msg, remoteAddr)
	}
}

func (r *Responder) handle(ctx context.Context, msg *Message, remoteAddr *net.UDPAddr) {
	if msg.StartLine != "M-SEARCH * HTTP/1.1" {
		return
	}
	man, ok := msg.Header.Get("MAN")
	if !ok || strings.Trim(man, `"`) != "ssdp:discover" {
		return
	}
	st, ok := msg.Header.Get("ST")
	if !ok {
		return
	}

	log.Traffic.WithField("from", remoteAddr.String()).WithField("st", st).Debug("received M-SEARCH")

	for _, resp := range r.responsesFor(st) {
		r.send(ctx, resp, remoteAddr)
	}
}

// searchResponse is one (st, usn, kind) triple ready to be rendered.
type searchResponse struct {
	st   string
	usn  string
	kind string
}

// responsesFor computes the response set for a given ST header, per the
// table in spec.md §4.E.
func (r *Responder) responsesFor(st string) []searchResponse {
	root := r.Root.Root()
	devices := root.AllDevices()
	services := root.AllServices()

	switch {
	case strings.EqualFold(st, "ssdp:all"):
		var out []searchResponse
		out = append(out, searchResponse{st: "upnp:rootdevice", usn: root.UDN + "::upnp:rootdevice", kind: "root"})
		for _, d := range devices {
			out = append(out, searchResponse{st: d.UDN, usn: d.UDN, kind: "udn"})
			out = append(out, searchResponse{st: d.DeviceType, usn: root.UDN + "::" + d.DeviceType, kind: "device-type"})
		}
		for _, s := range services {
			out = append(out, searchResponse{st: s.ServiceType, usn: root.UDN + "::" + s.ServiceType, kind: "service-type"})
		}
		return out

	case strings.EqualFold(st, "upnp:rootdevice"):
		return []searchResponse{{st: "upnp:rootdevice", usn: root.UDN + "::upnp:rootdevice", kind: "root"}}
	}

	var out []searchResponse
	for _, d := range devices {
		if d.UDN == st {
			out = append(out, searchResponse{st: d.UDN, usn: d.UDN, kind: "udn"})
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, d := range devices {
		if strings.EqualFold(d.DeviceType, st) {
			out = append(out, searchResponse{st: d.DeviceType, usn: root.UDN + "::" + d.DeviceType, kind: "device-type"})
		}
	}
	if len(out) > 0 {
		return out
	}
	for _, s := range services {
		if strings.EqualFold(s.ServiceType, st) {
			out = append(out, searchResponse{st: s.ServiceType, usn: root.UDN + "::" + s.ServiceType, kind: "service-type"})
		}
	}
	return out
}

func (r *Responder) send(ctx context.Context, resp searchResponse, remoteAddr *net.UDPAddr) {
	h := NewHeader()
	h.Set("CACHE-CONTROL", "max-age="+strconv.Itoa(int(cacheMaxAge.Seconds())))
	h.Set("SERVER", r.ServerTokens)
	h.Set("ST", resp.st)
	h.Set("USN", resp.usn)
	h.Set("EXT", "")
	h.Set("LOCATION", r.DeviceURL)

	wire := Build(&Message{StartLine: "HTTP/1.1 200 OK", Header: h})

	conn, err := net.DialUDP(Network(remoteAddr.IP), nil, remoteAddr)
	if err != nil {
		log.Error(ctx, "ssdp responder: dial response", err)
		return
	}
	defer conn.Close()

	if _, err := conn.Write(wire); err != nil {
		log.Error(ctx, "ssdp responder: send response", err)
		return
	}
	if r.OnHit != nil {
		r.OnHit(resp.kind)
	}
}
