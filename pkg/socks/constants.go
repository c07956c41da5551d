// Package socks implements the shared SOCKS5/SOCKS6 data model: addresses,
// proxy chain entries, the SOCKS6 options vector, and the error taxonomy
// mapped to wire reply codes. The handshake state machines themselves live
// in sockschain/pkg/socks5 and sockschain/pkg/socks6.
package socks

// Protocol versions.
const (
	Version5 byte = 0x05
	Version6 byte = 0x06
)

// SOCKS5 authentication methods (RFC 1928 section 3).
const (
	AuthNoneRequired    byte = 0x00
	AuthGSSAPI          byte = 0x01
	AuthUsernamePassword byte = 0x02
	AuthNoAcceptable    byte = 0xFF
)

// SubnegotiationVersion is the fixed VER byte of the RFC 1929
// username/password subnegotiation.
const SubnegotiationVersion byte = 0x01

// Commands a client may request. Only Connect is supported by this
// implementation; Bind and UDPAssociate are recognized on the wire solely
// so they can be rejected with CommandNotSupported.
const (
	CmdConnect      byte = 0x01
	CmdBind         byte = 0x02
	CmdUDPAssociate byte = 0x03
)

// Address type tags, shared verbatim between SOCKS5 and SOCKS6.
const (
	AddrIPv4   byte = 0x01
	AddrDomain byte = 0x03
	AddrIPv6   byte = 0x04
)

// MaxMethods bounds the SOCKS5 method-selection list; a client proposing
// more methods than this is malformed.
const MaxMethods = 255

// MaxDomainLength is the largest domain name SOCKS can address.
const MaxDomainLength = 255
