// Package socks6 implements the server-role and client-role SOCKS6
// handshake (draft-olteanu-intarea-socks-6-11), CONNECT only, no-auth
// only. The single-message request/options/initial-data framing has no
// direct analogue in the teacher (Patrick-DE-proxyblob never speaks raw
// SOCKS6), so the step-function shape below is grounded on
// proxyblob/pkg/proxy/socks/socks.go's fixed-then-variable-length read
// sequence (handleAuthNegotiation/handleCommand), generalized to a single
// combined request message per spec section 4.4.
package socks6

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"sockschain/pkg/socks"
)

// authMethodNoAuth is the only authentication method this implementation
// ever selects. It never inspects a client's AuthMethodAdvertisement
// option (OptKindAuthMethodAdvertisement in pkg/socks) even if present in
// the request's options vector — that option, and its
// OptKindAuthMethodSelection counterpart, flow through the generic
// options codec like any other kind this engine doesn't act on. The
// AUTH reply is always NO AUTH, matching spec section 6's "only no-auth"
// deviation.
const authMethodNoAuth byte = 0x00

// Server drives the server role of a single SOCKS6 session: parsing the
// client's request and writing the two-part reply (authentication reply,
// then operation reply).
type Server struct{}

// Negotiate reads the fixed header, options vector, and initial data of a
// SOCKS6 request, and writes the authentication reply (always NO AUTH).
// A command other than CONNECT is answered here with a CommandNotSupported
// operation reply and returned as an error. Otherwise it returns the
// parsed Request; the caller attempts to dial (directly or via a chain
// hop) before calling WriteReply with the outcome.
func (s *Server) Negotiate(conn net.Conn) (*socks.Request, error) {
	req, err := s.readRequest(conn)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Write([]byte{socks.Version6, authMethodNoAuth}); err != nil {
		return nil, socks.NewError(socks.GeneralFailure, err)
	}

	if req.Command != socks.CmdConnect {
		_ = s.WriteReply(conn, socks.Reply{Kind: socks.CommandNotSupported})
		return nil, socks.NewError(socks.CommandNotSupported, fmt.Errorf("unsupported command 0x%02x", req.Command))
	}

	return req, nil
}

// readRequest parses the fixed header:
//
//	VER(1) CMD(1) DST.ADDR(var) PAD(1) FLAGS(1) INITLEN(2) OPTLEN(2)
//
// followed by OPTLEN bytes of options vector and INITLEN bytes of initial
// data, per spec section 4.4.
func (s *Server) readRequest(conn net.Conn) (*socks.Request, error) {
	var verCmd [2]byte
	if _, err := io.ReadFull(conn, verCmd[:]); err != nil {
		return nil, socks.NewError(socks.ProtocolError, err)
	}
	if verCmd[0] != socks.Version6 {
		return nil, socks.NewError(socks.ProtocolError, fmt.Errorf("unexpected socks version 0x%02x", verCmd[0]))
	}

	target, err := socks.DecodeAddress(conn)
	if err != nil {
		return nil, err
	}

	var tail [6]byte // PAD, FLAGS, INITLEN(2), OPTLEN(2)
	if _, err := io.ReadFull(conn, tail[:]); err != nil {
		return nil, socks.NewError(socks.ProtocolError, err)
	}
	initialLen := binary.BigEndian.Uint16(tail[2:4])
	optionsLen := binary.BigEndian.Uint16(tail[4:6])

	optionsRaw := make([]byte, optionsLen)
	if _, err := io.ReadFull(conn, optionsRaw); err != nil {
		return nil, socks.NewError(socks.ProtocolError, err)
	}
	opts, err := socks.DecodeOptions(optionsRaw)
	if err != nil {
		return nil, err
	}

	initial := make([]byte, initialLen)
	if _, err := io.ReadFull(conn, initial); err != nil {
		return nil, socks.NewError(socks.ProtocolError, err)
	}

	var chain []socks.ProxyAddress
	if chainOpt, ok := socks.FindOption(opts, socks.OptKindChain); ok {
		chain, err = socks.DecodeChainOption(chainOpt.Payload)
		if err != nil {
			return nil, err
		}
	}

	return &socks.Request{
		Version: socks.Version6,
		Command: verCmd[1],
		Target:  target,
		Options: opts,
		Chain:   chain,
		Initial: initial,
	}, nil
}

// WriteReply writes the operation reply:
//
//	VER(1) CODE(1) PAD(1) BND.ADDR(var)
func (s *Server) WriteReply(conn net.Conn, reply socks.Reply) error {
	bound := reply.Bound
	if bound.IsZero() {
		bound = socks.ZeroIPv4
	}
	buf := make([]byte, 0, 3+19)
	buf = append(buf, socks.Version6, reply.Kind.ReplyCode(), 0x00)
	buf = append(buf, bound.Encode()...)
	_, err := conn.Write(buf)
	return err
}
