package ssdp

import "net"

// MulticastPort is the fixed SSDP multicast port for both address families.
const MulticastPort = 1900

// MulticastAddrV4 is the IPv4 SSDP multicast group.
const MulticastAddrV4 = "239.255.255.250"

// MulticastAddrV6LinkLocal is the IPv6 SSDP multicast group (link-local scope).
const MulticastAddrV6LinkLocal = "FF02::C"

// MulticastAddrV6SiteLocal is the IPv6 SSDP multicast group (site-local scope).
const MulticastAddrV6SiteLocal = "FF05::C"

// MulticastAddr resolves the SSDP multicast address to use for the given
// source address's family, per spec.md §4.E / §6.
func MulticastAddr(source net.IP) *net.UDPAddr {
	if source != nil && source.To4() == nil {
		return &net.UDPAddr{IP: net.ParseIP(MulticastAddrV6LinkLocal), Port: MulticastPort}
	}
	return &net.UDPAddr{IP: net.ParseIP(MulticastAddrV4), Port: MulticastPort}
}

// Network returns the net.ListenMulticastUDP/JoinGroup network name for an
// address family ("udp4" or "udp6").
func Network(source net.IP) string {
	if source != nil && source.To4() == nil {
		return "udp6"
	}
	return "udp4"
}
