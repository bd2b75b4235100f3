// Copyright 2015 Matthew Holt and The Caddy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package field

import (
	"encoding/binary"
	"fmt"
	"net"
)

// IPAddr is a 128-bit address slot, grounded on original_source/unirec/
// ipaddr.h's ip_addr_t union: an IPv4 address is stored with its upper 64
// bits zero, octets in network order at bytes 8..11, and bytes 12..15 set
// to 0xFF, per spec.md §3.
type IPAddr [16]byte

// IPv4FromBytes builds an IPAddr from four IPv4 octets in network order,
// using the IPv4-in-128 convention.
func IPv4FromBytes(a, b, c, d byte) IPAddr {
	var ip IPAddr
	ip[8], ip[9], ip[10], ip[11] = a, b, c, d
	ip[12], ip[13], ip[14], ip[15] = 0xFF, 0xFF, 0xFF, 0xFF
	return ip
}

// IPv6FromBytes builds an IPAddr directly from 16 already-ordered bytes.
func IPv6FromBytes(b [16]byte) IPAddr { return IPAddr(b) }

// FromNetIP converts a net.IP (4- or 16-byte form) to an IPAddr.
func FromNetIP(ip net.IP) (IPAddr, error) {
	if v4 := ip.To4(); v4 != nil {
		return IPv4FromBytes(v4[0], v4[1], v4[2], v4[3]), nil
	}
	v6 := ip.To16()
	if v6 == nil {
		return IPAddr{}, fmt.Errorf("invalid IP address %v", ip)
	}
	var out IPAddr
	copy(out[:], v6)
	return out, nil
}

// IsIPv4 classifies the address: true iff the upper 64 bits are zero and
// bytes 12..15 are 0xFFFFFFFF, per spec.md §3.
func (ip IPAddr) IsIPv4() bool {
	for i := 0; i < 8; i++ {
		if ip[i] != 0 {
			return false
		}
	}
	return ip[12] == 0xFF && ip[13] == 0xFF && ip[14] == 0xFF && ip[15] == 0xFF
}

// IsIPv6 is the negation of IsIPv4, per spec.md §3.
func (ip IPAddr) IsIPv6() bool { return !ip.IsIPv4() }

// NetIP converts an IPAddr to the standard library's net.IP, returning the
// 4-byte form for IPv4-mapped addresses.
func (ip IPAddr) NetIP() net.IP {
	if ip.IsIPv4() {
		return net.IP{ip[8], ip[9], ip[10], ip[11]}
	}
	out := make(net.IP, 16)
	copy(out, ip[:])
	return out
}

// String renders the canonical text form: dotted-decimal for IPv4, the
// standard colon-hex form for IPv6, per spec.md §4.3/§6.
func (ip IPAddr) String() string {
	return ip.NetIP().String()
}

// ParseIPAddr parses the canonical text form (dotted or colon-hex) into an
// IPAddr, the inverse of String, per spec.md §4.3.
func ParseIPAddr(s string) (IPAddr, error) {
	parsed := net.ParseIP(s)
	if parsed == nil {
		return IPAddr{}, fmt.Errorf("invalid IP address %q", s)
	}
	return FromNetIP(parsed)
}

// MACAddr is a 48-bit hardware address, stored as 6 bytes in network
// order, per spec.md §3.
type MACAddr [6]byte

// String renders the canonical colon-hex form (aa:bb:cc:dd:ee:ff).
func (m MACAddr) String() string {
	return net.HardwareAddr(m[:]).String()
}

// ParseMACAddr parses the canonical colon-hex form into a MACAddr.
func ParseMACAddr(s string) (MACAddr, error) {
	hw, err := net.ParseMAC(s)
	if err != nil {
		return MACAddr{}, fmt.Errorf("invalid MAC address %q: %w", s, err)
	}
	if len(hw) != 6 {
		return MACAddr{}, fmt.Errorf("invalid MAC address %q: expected 6 bytes, got %d", s, len(hw))
	}
	var m MACAddr
	copy(m[:], hw)
	return m, nil
}

// PutIPAddr/IPAddrFromBytes and PutMACAddr/MACAddrFromBytes are the raw
// byte-order helpers used by the record package's fixed-field accessors;
// kept here alongside the types so the wire representation and the Go
// type stay in lockstep.

func PutIPAddr(b []byte, ip IPAddr) { copy(b, ip[:]) }

func IPAddrFromBytes16(b []byte) IPAddr {
	var ip IPAddr
	copy(ip[:], b)
	return ip
}

func PutMACAddr(b []byte, m MACAddr) { copy(b, m[:]) }

func MACAddrFromBytes6(b []byte) MACAddr {
	var m MACAddr
	copy(m[:], b)
	return m
}

// PutUint64 and GetUint64 are tiny big-endian (network byte order)
// helpers, the same byte order as the container header framing in
// spec.md §4.4.
func PutUint64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
func GetUint64(b []byte) uint64    { return binary.BigEndian.Uint64(b) }
