// Package socks5 implements the server-role SOCKS5 handshake (RFC 1928),
// CONNECT only. Grounded on
// proxyblob/pkg/proxy/socks/socks.go's handleAuthNegotiation/handleCommand
// and on original_source/socksx/src/socks5/s5_handler.rs's Socks5Handler,
// generalized from the teacher's channel-fed packet protocol to reading
// directly off a net.Conn since there is no framing layer underneath.
package socks5

import (
	"fmt"
	"io"
	"net"

	"sockschain/pkg/socks"
)

// Server drives the server role of a single SOCKS5 session. Per spec
// section 6's explicit deviation ("only no-auth"), it never offers or
// accepts RFC 1929 USERNAME/PASSWORD — method negotiation always resolves
// to NO AUTHENTICATION REQUIRED or, if the client doesn't offer it, NO
// ACCEPTABLE METHODS.
type Server struct{}

// Negotiate runs the method-negotiation and request phases of a SOCKS5
// handshake on conn and returns the parsed client Request. When the client
// offers no acceptable method, or requests an unsupported command or
// address type, it writes the matching SOCKS5 reply itself before
// returning an error; malformed input (ProtocolError) is returned without
// any reply. The caller is responsible for writing the reply once it
// knows the outcome of dialing the target (see WriteReply).
func (s *Server) Negotiate(conn net.Conn) (*socks.Request, error) {
	if err := s.negotiateMethod(conn); err != nil {
		return nil, err
	}
	return s.readRequest(conn)
}

// negotiateMethod implements RFC 1928 section 3: the client offers a list
// of methods, the server picks NO AUTHENTICATION REQUIRED if offered, else
// NO ACCEPTABLE METHODS.
func (s *Server) negotiateMethod(conn net.Conn) error {
	var hdr [2]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return socks.NewError(socks.ProtocolError, err)
	}
	if hdr[0] != socks.Version5 {
		return socks.NewError(socks.ProtocolError, fmt.Errorf("unexpected socks version 0x%02x", hdr[0]))
	}

	methods := make([]byte, hdr[1])
	if _, err := io.ReadFull(conn, methods); err != nil {
		return socks.NewError(socks.ProtocolError, err)
	}

	selected := socks.AuthNoAcceptable
	for _, m := range methods {
		if m == socks.AuthNoneRequired {
			selected = socks.AuthNoneRequired
			break
		}
	}

	if _, err := conn.Write([]byte{socks.Version5, selected}); err != nil {
		return socks.NewError(socks.GeneralFailure, err)
	}
	if selected == socks.AuthNoAcceptable {
		return socks.NewError(socks.NotAllowed, fmt.Errorf("no acceptable authentication method"))
	}
	return nil
}

// readRequest parses the CMD request:
//
//	+-----+-----+-----+------+----------+----------+
//	| VER | CMD | RSV | ATYP | DST.ADDR | DST.PORT |
//	+-----+-----+-----+------+----------+----------+
//	|  1  |  1  |  1  |  1   | Variable |    2     |
//
// Only CONNECT is supported; any other command is rejected with
// CommandNotSupported, matching RFC 1928 section 4 and spec section 4.4's
// Non-goals (BIND, UDP ASSOCIATE).
func (s *Server) readRequest(conn net.Conn) (*socks.Request, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return nil, socks.NewError(socks.ProtocolError, err)
	}
	if hdr[0] != socks.Version5 {
		return nil, socks.NewError(socks.ProtocolError, fmt.Errorf("unexpected socks version 0x%02x", hdr[0]))
	}

	target, err := socks.DecodeAddress(conn)
	if err != nil {
		// A malformed address (ProtocolError) is closed without a reply.
		if kind := socks.KindOf(err); kind != socks.ProtocolError {
			s.writeErrorReply(conn, kind)
		}
		return nil, err
	}

	if hdr[1] != socks.CmdConnect {
		s.writeErrorReply(conn, socks.CommandNotSupported)
		return nil, socks.NewError(socks.CommandNotSupported, fmt.Errorf("unsupported command 0x%02x", hdr[1]))
	}

	return &socks.Request{Version: socks.Version5, Command: hdr[1], Target: target}, nil
}

// WriteReply writes the CONNECT reply: success with the bound local
// address, or the mapped error reply code with the zero address.
func (s *Server) WriteReply(conn net.Conn, reply socks.Reply) error {
	if reply.Kind != socks.Success {
		return s.writeReply(conn, reply.Kind, socks.ZeroIPv4)
	}
	return s.writeReply(conn, socks.Success, reply.Bound)
}

func (s *Server) writeErrorReply(conn net.Conn, kind socks.Kind) {
	_ = s.writeReply(conn, kind, socks.ZeroIPv4)
}

func (s *Server) writeReply(conn net.Conn, kind socks.Kind, bound socks.Address) error {
	buf := make([]byte, 0, 3+1+16+2)
	buf = append(buf, socks.Version5, kind.ReplyCode(), 0x00)
	buf = append(buf, bound.Encode()...)
	_, err := conn.Write(buf)
	return err
}
