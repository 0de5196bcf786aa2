package ssdp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/upnpstack/upnpd/upnp"
)

func TestBuildAdvertisementsCount(t *testing.T) {
	root := buildDummyTree(t)
	advs := buildAdvertisements(root)
	want := 1 + 2*len(root.AllDevices()) + len(root.AllServices())
	require.Len(t, advs, want)
	assert.Equal(t, "upnp:rootdevice", advs[0].nt)
}

// TestAnnouncerCursorWrapsRoundRobin covers Testable Property 6: the
// cursor visits every slot exactly once per len(advertisements) ticks, in
// insertion order.
func TestAnnouncerCursorWrapsRoundRobin(t *testing.T) {
	root := buildDummyTree(t)
	a := &Announcer{Root: root}
	a.advertisements = buildAdvertisements(root)

	var seen []string
	ctx := context.Background()
	n := len(a.advertisements)
	for i := 0; i < 2*n; i++ {
		seen = append(seen, a.advertisements[a.cursor].nt)
		a.announceNext(ctx)
	}

	for lap := 0; lap < 2; lap++ {
		for i, adv := range a.advertisements {
			assert.Equal(t, adv.nt, seen[lap*n+i])
		}
	}
}

func TestAnnouncerStopWithoutStartDoesNotPanic(t *testing.T) {
	root := upnp.NewDevice("uuid:11111111-1111-1111-1111-111111111111", "urn:schemas-upnp-org:device:Dummy:1")
	a := &Announcer{Root: root}
	// Stop() without Start() must not panic even though conn/done are nil.
	a.Stop(context.Background())
}
