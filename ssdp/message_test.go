package ssdp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageHeadersAreCaseInsensitive(t *testing.T) {
	raw := "M-SEARCH * HTTP/1.1\r\nHOST: 239.255.255.250:1900\r\nMan: \"ssdp:discover\"\r\nst: ssdp:all\r\nMX: 2\r\n\r\n"
	msg, err := ParseMessage([]byte(raw))
	require.NoError(t, err)
	assert.Equal(t, "M-SEARCH * HTTP/1.1", msg.StartLine)

	v, ok := msg.Header.Get("MAN")
	require.True(t, ok)
	assert.Equal(t, `"ssdp:discover"`, v)

	v, ok = msg.Header.Get("ST")
	require.True(t, ok)
	assert.Equal(t, "ssdp:all", v)
}

func TestParseMessageRejectsEmptyDatagram(t *testing.T) {
	_, err := ParseMessage([]byte(""))
	require.Error(t, err)
}

func TestParseMessageRejectsMalformedHeaderLine(t *testing.T) {
	_, err := ParseMessage([]byte("M-SEARCH * HTTP/1.1\r\nnotaheader\r\n\r\n"))
	require.Error(t, err)
}

func TestBuildPreservesHeaderOrder(t *testing.T) {
	h := NewHeader()
	h.Set("ST", "upnp:rootdevice")
	h.Set("USN", "uuid:x::upnp:rootdevice")
	h.Set("EXT", "")

	wire := Build(&Message{StartLine: "HTTP/1.1 200 OK", Header: h})

	expected := "HTTP/1.1 200 OK\r\nST: upnp:rootdevice\r\nUSN: uuid:x::upnp:rootdevice\r\nEXT: \r\n\r\n"
	assert.Equal(t, expected, string(wire))
}

func TestSetOverwritesExistingHeaderCaseInsensitively(t *testing.T) {
	h := NewHeader()
	h.Set("St", "a")
	h.Set("ST", "b")
	assert.Len(t, h.Names(), 1)
	v, _ := h.Get("st")
	assert.Equal(t, "b", v)
}
