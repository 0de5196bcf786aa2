package upnp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRenderRoundTrip(t *testing.T) {
	cases := []struct {
		dt DataType
		in string
	}{
		{TypeUI1, "7"},
		{TypeUI4, "4000000000"},
		{TypeI4, "-42"},
		{TypeInt, "0"},
		{TypeR4, "3.5"},
		{TypeNumber, "-12.25"},
		{TypeString, "hello world"},
		{TypeBoolean, "1"},
		{TypeBoolean, "0"},
		{TypeURI, "http://example.com/a"},
		{TypeUUID, "uuid:11111111-1111-1111-1111-111111111111"},
		{TypeDate, "2024-01-02"},
		{TypeDateTime, "2024-01-02T03:04:05"},
		{TypeBinHex, "deadbeef"},
	}

	for _, c := range cases {
		v, err := Parse(c.dt, c.in)
		require.NoError(t, err, "parse %s %q", c.dt, c.in)
		out, err := Render(c.dt, v)
		require.NoError(t, err, "render %s", c.dt)
		assert.Equal(t, c.in, out, "round trip for %s %q", c.dt, c.in)
	}
}

func TestParseBooleanAcceptsWordForms(t *testing.T) {
	v, err := Parse(TypeBoolean, "true")
	require.NoError(t, err)
	assert.Equal(t, true, v)

	v, err = Parse(TypeBoolean, "no")
	require.NoError(t, err)
	assert.Equal(t, false, v)
}

func TestParseRejectsMalformedInput(t *testing.T) {
	_, err := Parse(TypeUI4, "not-a-number")
	require.Error(t, err)
	var ve *ValueError
	assert.ErrorAs(t, err, &ve)
}

func TestParseRejectsUnknownDataType(t *testing.T) {
	_, err := Parse(DataType("not-a-type"), "x")
	require.Error(t, err)
}

func TestBinHexRendersLowercase(t *testing.T) {
	v, err := Parse(TypeBinHex, "DEADBEEF")
	require.NoError(t, err)
	out, err := Render(TypeBinHex, v)
	require.NoError(t, err)
	assert.Equal(t, "deadbeef", out)
}
