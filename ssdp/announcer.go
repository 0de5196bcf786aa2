package ssdp

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/upnpstack/upnpd/log"
	"github.com/upnpstack/upnpd/upnp"
)

// AnnounceFunc is invoked once per NOTIFY the announcer sends, letting the
// caller wire a metrics counter.
type AnnounceFunc func(nts string)

type advertisement struct {
	nt  string
	usn string
}

// Announcer cycles through a fixed, startup-computed list of NOTIFY
// bodies — one per (root, per-device-UDN, per-device-type, per-service)
// slot — advancing a round-robin cursor one slot per tick, per spec.md
// §4.F. This is a deliberate conformance deviation from full UPnP 2.0
// burst semantics — see DESIGN.md's Open Question decisions.
type Announcer struct {
	Root         *upnp.Device
	DeviceURL    string
	ServerTokens string
	Interval     time.Duration // default 30s per spec.md §4.F

	OnSend AnnounceFunc

	target net.Addr

	mu             sync.Mutex
	conn           *net.UDPConn
	cancel         context.CancelFunc
	done           chan struct{}
	advertisements []advertisement
	cursor         int
}

// buildAdvertisements computes the fixed ordered advertisement list for
// root: one root-device slot, then a UDN slot and a device-type slot per
// device in AllDevices order, then a service-type slot per service in
// AllServices order — totaling 1 + 2·D + K entries.
func buildAdvertisements(root *upnp.Device) []advertisement {
	root = root.Root()
	var out []advertisement
	out = append(out, advertisement{nt: "upnp:rootdevice", usn: root.UDN + "::upnp:rootdevice"})
	for _, d := range root.AllDevices() {
		out = append(out, advertisement{nt: d.UDN, usn: d.UDN})
		out = append(out, advertisement{nt: d.DeviceType, usn: root.UDN + "::" + d.DeviceType})
	}
	for _, s := range root.AllServices() {
		out = append(out, advertisement{nt: s.ServiceType, usn: root.UDN + "::" + s.ServiceType})
	}
	return out
}

// Start resolves the multicast target and sends the first advertisement
// slot immediately, then one more every Interval, wrapping round-robin.
func (a *Announcer) Start(ctx context.Context) error {
	if a.Interval <= 0 {
		a.Interval = 30 * time.Second
	}
	a.advertisements = buildAdvertisements(a.Root)
	a.cursor = 0

	mcast := MulticastAddr(nil)
	conn, err := net.DialUDP(Network(nil), nil, mcast)
	if err != nil {
		return err
	}
	a.target = mcast

	runCtx, cancel := context.WithCancel(ctx)
	a.mu.Lock()
	a.conn = conn
	a.cancel = cancel
	a.done = make(chan struct{})
	a.mu.Unlock()

	go a.run(runCtx)
	return nil
}

func (a *Announcer) run(ctx context.Context) {
	defer close(a.done)

	a.announceNext(ctx)

	timer := time.NewTimer(a.Interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			a.announceNext(ctx)
			timer.Reset(a.Interval)
		}
	}
}

func (a *Announcer) announceNext(ctx context.Context) {
	if len(a.advertisements) == 0 {
		return
	}
	adv := a.advertisements[a.cursor]
	a.cursor = (a.cursor + 1) % len(a.advertisements)
	a.sendNotify(ctx, adv.nt, adv.usn, "ssdp:alive", true)
}

// Stop sends a single byebye NOTIFY for the root device, then closes the
// announcer's socket, per spec.md §4.F / §4.I.
func (a *Announcer) Stop(ctx context.Context) {
	root := a.Root.Root()
	a.sendNotify(ctx, "upnp:rootdevice", root.UDN+"::upnp:rootdevice", "ssdp:byebye", false)

	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	conn := a.conn
	done := a.done
	a.mu.Unlock()

	if done != nil {
		<-done
	}
	if conn != nil {
		conn.Close()
	}
}

func (a *Announcer) sendNotify(ctx context.Context, nt, usn, nts string, includeLocation bool) {
	h := NewHeader()
	h.Set("HOST", MulticastAddr(nil).String())
	h.Set("NT", nt)
	h.Set("NTS", nts)
	h.Set("USN", usn)
	h.Set("SERVER", a.ServerTokens)
	if includeLocation {
		h.Set("LOCATION", a.DeviceURL)
	}
	h.Set("BOOTID.UPNP.ORG", "1")
	h.Set("CONFIGID.UPNP.ORG", "1")

	wire := Build(&Message{StartLine: "NOTIFY * HTTP/1.1", Header: h})

	a.mu.Lock()
	conn := a.conn
	a.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.Write(wire); err != nil {
		log.Error(ctx, "ssdp announcer: send NOTIFY", err, "nt", nt, "nts", nts)
		return
	}
	log.Traffic.WithField("nt", nt).WithField("nts", nts).Debug("sent NOTIFY")
	if a.OnSend != nil {
		a.OnSend(nts)
	}
}
