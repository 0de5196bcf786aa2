package upnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildDummyTree(t *testing.T) *Device {
	t.Helper()
	root := NewDevice("uuid:11111111-1111-1111-1111-111111111111", "urn:schemas-upnp-org:device:Dummy:1")
	svc := NewService("urn:schemas-upnp-org:service:DummySvc:1", "urn:upnp-org:serviceId:DummySvc", "/scpd/dummy.xml", "/control/dummy", "/event/dummy")
	target, err := NewStateVariable("Target", TypeBoolean, false, "0")
	require.NoError(t, err)
	require.NoError(t, svc.AddStateVariable(target))
	require.NoError(t, root.AddService("DummySvc", svc))
	return root
}

func TestAllDevicesAndAllServicesCounts(t *testing.T) {
	root := buildDummyTree(t)

	child := NewDevice("uuid:22222222-2222-2222-2222-222222222222", "urn:schemas-upnp-org:device:Child:1")
	require.NoError(t, root.AddDevice("child", child))

	devices := root.AllDevices()
	assert.Len(t, devices, 2)
	assert.Equal(t, root, devices[0])

	services := root.AllServices()
	assert.Len(t, services, 1)
}

func TestValidateRejectsDuplicateUDN(t *testing.T) {
	root := buildDummyTree(t)
	dup := NewDevice(root.UDN, "urn:schemas-upnp-org:device:Child:1")
	require.NoError(t, root.AddDevice("dup", dup))

	err := root.Validate()
	require.Error(t, err)
	var cfg *ConfigError
	assert.ErrorAs(t, err, &cfg)
}

func TestAddServiceRejectsDuplicateName(t *testing.T) {
	root := buildDummyTree(t)
	svc2 := NewService("urn:schemas-upnp-org:service:DummySvc:1", "urn:upnp-org:serviceId:DummySvc", "/a", "/b", "/c")
	err := root.AddService("DummySvc", svc2)
	require.Error(t, err)
}

func TestRootOfEmbeddedDeviceIsTreeRoot(t *testing.T) {
	root := buildDummyTree(t)
	child := NewDevice("uuid:33333333-3333-3333-3333-333333333333", "urn:schemas-upnp-org:device:Child:1")
	require.NoError(t, root.AddDevice("child", child))
	assert.Same(t, root, child.Root())
}
