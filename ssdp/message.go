// Package ssdp implements the SSDP (Simple Service Discovery Protocol)
// wire format and the search responder and advertisement announcer that
// use it: HTTP-like multicast UDP datagrams with case-insensitive headers,
// classified M-SEARCH probes, and periodic NOTIFY advertisements.
package ssdp

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// RemoteAddrHeader is the synthetic header spec.md §4.B adds to every
// inbound message, carrying the sender's address.
const RemoteAddrHeader = "_remote_addr"

// Header is an order-preserving, case-insensitively-matched collection of
// SSDP header lines. Unlike net/textproto.MIMEHeader it does not
// canonicalize or sort names, so Build can reproduce deterministic output.
type Header struct {
	names  []string
	values []string
}

// NewHeader returns an empty Header.
func NewHeader() *Header { return &Header{} }

// Set adds a header, or overwrites the value of the first existing header
// with a case-insensitively matching name.
func (h *Header) Set(name, value string) {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			h.values[i] = value
			return
		}
	}
	h.names = append(h.names, name)
	h.values = append(h.values, value)
}

// Get returns the value of the first header matching name
// case-insensitively, and whether it was found.
func (h *Header) Get(name string) (string, bool) {
	for i, n := range h.names {
		if strings.EqualFold(n, name) {
			return h.values[i], true
		}
	}
	return "", false
}

// GetDefault returns Get's value, or def if the header is absent.
func (h *Header) GetDefault(name, def string) string {
	if v, ok := h.Get(name); ok {
		return v
	}
	return def
}

// Names returns the header names in insertion order.
func (h *Header) Names() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Message is a parsed or to-be-built SSDP datagram: a start line (e.g.
// "M-SEARCH * HTTP/1.1" or "NOTIFY * HTTP/1.1" or "HTTP/1.1 200 OK")
// followed by headers.
type Message struct {
	StartLine string
	Header    *Header
}

// ParseMessage parses an SSDP datagram. Malformed input yields an error;
// per spec.md §7 the caller (the responder) is expected to silently drop
// such datagrams rather than propagate the error further.
func ParseMessage(data []byte) (*Message, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 4096), 65536)
	if !scanner.Scan() {
		return nil, fmt.Errorf("ssdp: empty datagram")
	}
	startLine := strings.TrimRight(scanner.Text(), "\r")
	if startLine == "" {
		return nil, fmt.Errorf("ssdp: empty start line")
	}

	h := NewHeader()
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		idx := strings.Index(line, ":")
		if idx < 0 {
			return nil, fmt.Errorf("ssdp: malformed header line %q", line)
		}
		name := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		h.Set(name, value)
	}
	return &Message{StartLine: startLine, Header: h}, nil
}

// Build serializes a Message back to wire bytes, preserving header order.
func Build(msg *Message) []byte {
	var buf bytes.Buffer
	buf.WriteString(msg.StartLine)
	buf.WriteString("\r\n")
	for _, name := range msg.Header.Names() {
		v, _ := msg.Header.Get(name)
		buf.WriteString(name)
		buf.WriteString(": ")
		buf.WriteString(v)
		buf.WriteString("\r\n")
	}
	buf.WriteString("\r\n")
	return buf.Bytes()
}
