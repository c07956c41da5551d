package socks

// Request is the protocol-neutral shape of a client's connection request,
// produced by the socks5 and socks6 handshake engines and consumed by the
// chain driver and relay (spec section 3). Options is always nil for
// SOCKS5 requests.
type Request struct {
	Version  byte
	Command  byte
	Target   Address
	Options  []Option
	Chain    []ProxyAddress // residual chain parsed from an inbound chain option, if any
	Initial  []byte         // initial data sent along with the request, if any
}

// Reply is the protocol-neutral shape of a server's response to a
// Request: a Kind (mapped to the wire reply code by each protocol's own
// encoder) and the bound address the server used, if any.
type Reply struct {
	Kind  Kind
	Bound Address
}
