package socks

import (
	"encoding/binary"
	"fmt"
)

// SOCKS6 option kind numbers. OptKindStack, OptKindAuthMethodAdvertisement
// and OptKindAuthMethodSelection sit in the kind range the draft reserves
// for standard options; this implementation never constructs or
// interprets them itself (authentication negotiation is moot under the
// no-auth-only deviation, and stack hints have no semantics this engine
// acts on), so DecodeOptions/EncodeOptions treat them exactly like any
// other unrecognized kind: carried opaquely and forwarded verbatim by the
// chain driver. They stay here named so a caller who does need to
// construct one (e.g. talking to a hop that isn't this implementation)
// has the reserved number instead of a magic literal. OptKindChain is the
// one kind this engine actually produces and consumes; it is a
// private/experimental kind (see SPEC_FULL.md section 5 for why 0x7F01
// was picked).
const (
	OptKindStack                   uint16 = 0x0001
	OptKindAuthMethodAdvertisement uint16 = 0x0002
	OptKindAuthMethodSelection     uint16 = 0x0003
	OptKindChain                   uint16 = 0x7F01
)

// optionHeaderSize is the 16-bit kind + 16-bit length prefix every option
// carries before its payload.
const optionHeaderSize = 4

// Option is one entry of the SOCKS6 options vector: a kind and its raw
// payload. Unknown kinds are carried verbatim so a chain hop can forward
// them unchanged (spec section 4.2 / Design Notes).
type Option struct {
	Kind    uint16
	Payload []byte
}

// Encode serializes a single option as kind(2) + total-length(2) + payload.
// This implementation does not pad to 4-byte alignment; spec section 4.2
// permits an unpadded encoding as long as it round-trips byte-exact, which
// the decoder below guarantees.
func (o Option) Encode() []byte {
	total := optionHeaderSize + len(o.Payload)
	buf := make([]byte, optionHeaderSize, total)
	binary.BigEndian.PutUint16(buf[0:2], o.Kind)
	binary.BigEndian.PutUint16(buf[2:4], uint16(total))
	return append(buf, o.Payload...)
}

// EncodeOptions concatenates options into the raw bytes that follow a
// SOCKS6 request header's declared options length.
func EncodeOptions(opts []Option) []byte {
	var buf []byte
	for _, o := range opts {
		buf = append(buf, o.Encode()...)
	}
	return buf
}

// DecodeOptions parses exactly len(data) bytes of options-vector payload
// into a sequence of (kind, payload) options. The caller is expected to
// have already sliced data to the declared options length from the
// request header (spec section 4.4): this function does not itself read
// a length prefix.
func DecodeOptions(data []byte) ([]Option, error) {
	var opts []Option
	for len(data) > 0 {
		if len(data) < optionHeaderSize {
			return nil, NewError(ProtocolError, fmt.Errorf("truncated option header"))
		}
		kind := binary.BigEndian.Uint16(data[0:2])
		total := binary.BigEndian.Uint16(data[2:4])
		if int(total) < optionHeaderSize || int(total) > len(data) {
			return nil, NewError(ProtocolError, fmt.Errorf("option length %d out of range", total))
		}

		payload := make([]byte, int(total)-optionHeaderSize)
		copy(payload, data[optionHeaderSize:total])

		opts = append(opts, Option{Kind: kind, Payload: payload})
		data = data[total:]
	}
	return opts, nil
}

// FindOption returns the first option of the given kind, if present.
func FindOption(opts []Option, kind uint16) (Option, bool) {
	for _, o := range opts {
		if o.Kind == kind {
			return o, true
		}
	}
	return Option{}, false
}
