package ssdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upnpstack/upnpd/upnp"
)

func buildDummyTree(t *testing.T) *upnp.Device {
	t.Helper()
	root := upnp.NewDevice("uuid:11111111-1111-1111-1111-111111111111", "urn:schemas-upnp-org:device:Dummy:1")
	svc := upnp.NewService("urn:schemas-upnp-org:service:DummySvc:1", "urn:upnp-org:serviceId:DummySvc", "/scpd", "/control", "/event")
	require.NoError(t, root.AddService("DummySvc", svc))
	return root
}

// TestResponsesForSsdpAllCount covers Testable Property 1 / Scenario S2:
// exactly 1 + 2*|all_devices| + |all_services| responses.
func TestResponsesForSsdpAllCount(t *testing.T) {
	root := buildDummyTree(t)
	r := &Responder{Root: root}

	resp := r.responsesFor("ssdp:all")
	want := 1 + 2*len(root.AllDevices()) + len(root.AllServices())
	assert.Len(t, resp, want)
	assert.Equal(t, 4, want) // S2: 1 root + 2*1 device + 1*1 service
}

// TestResponsesForRootDevice covers Scenario S1.
func TestResponsesForRootDevice(t *testing.T) {
	root := buildDummyTree(t)
	r := &Responder{Root: root}

	resp := r.responsesFor("upnp:rootdevice")
	require.Len(t, resp, 1)
	assert.Equal(t, "upnp:rootdevice", resp[0].st)
	assert.Equal(t, root.UDN+"::upnp:rootdevice", resp[0].usn)
}

// TestResponsesForServiceType covers Scenario S3.
func TestResponsesForServiceType(t *testing.T) {
	root := buildDummyTree(t)
	r := &Responder{Root: root}

	resp := r.responsesFor("urn:schemas-upnp-org:service:DummySvc:1")
	require.Len(t, resp, 1)
	assert.Equal(t, "urn:schemas-upnp-org:service:DummySvc:1", resp[0].st)
	assert.Equal(t, root.UDN+"::urn:schemas-upnp-org:service:DummySvc:1", resp[0].usn)
}

func TestResponsesForUnknownTargetIsEmpty(t *testing.T) {
	root := buildDummyTree(t)
	r := &Responder{Root: root}
	assert.Empty(t, r.responsesFor("urn:not-a-real-target:1"))
}

// TestUSNPrefixMatchesRootUDN covers Testable Property 2.
func TestUSNPrefixMatchesRootUDN(t *testing.T) {
	root := buildDummyTree(t)
	r := &Responder{Root: root}

	for _, st := range []string{"ssdp:all", "upnp:rootdevice", root.UDN, "urn:schemas-upnp-org:service:DummySvc:1"} {
		for _, resp := range r.responsesFor(st) {
			prefix := resp.usn
			if idx := indexOfDoubleColon(resp.usn); idx >= 0 {
				prefix = resp.usn[:idx]
			}
			assert.Equal(t, root.UDN, prefix, "usn %q should be prefixed by root UDN", resp.usn)
		}
	}
}

func indexOfDoubleColon(s string) int {
	for i := 0; i+1 < len(s); i++ {
		if s[i] == ':' && s[i+1] == ':' {
			return i
		}
	}
	return -1
}
