package socks6

import (
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"sockschain/pkg/socks"
)

// Client drives the client role of a SOCKS6 session: the chain driver uses
// it to speak to an upstream hop, forwarding the final destination and
// the residual chain. Grounded on
// original_source/socksx/src/socks6/chain.rs's SocksChain (the hop-list
// semantics) combined with this package's own Server wire format, since
// original_source has no SOCKS6 handler of its own to imitate directly.
type Client struct{}

// Request sends a SOCKS6 request for target, carrying opts (which may
// include a chain option for the residual hop list) and initial, then
// reads back the authentication reply and operation reply. It returns the
// hop's Reply and, if Reply.Kind is Success, leaves conn ready for the
// relay phase.
func (c *Client) Request(conn net.Conn, target socks.Address, opts []socks.Option, initial []byte) (socks.Reply, error) {
	if err := c.sendRequest(conn, target, opts, initial); err != nil {
		return socks.Reply{}, err
	}

	var authReply [2]byte
	if _, err := io.ReadFull(conn, authReply[:]); err != nil {
		return socks.Reply{}, socks.NewError(socks.ProtocolError, err)
	}
	if authReply[0] != socks.Version6 {
		return socks.Reply{}, socks.NewError(socks.ProtocolError, fmt.Errorf("unexpected socks version 0x%02x in auth reply", authReply[0]))
	}
	if authReply[1] != authMethodNoAuth {
		return socks.Reply{}, socks.NewError(socks.NotAllowed, fmt.Errorf("hop selected unsupported auth method 0x%02x", authReply[1]))
	}

	return c.readOperationReply(conn)
}

func (c *Client) sendRequest(conn net.Conn, target socks.Address, opts []socks.Option, initial []byte) error {
	optionsRaw := socks.EncodeOptions(opts)

	buf := make([]byte, 0, 2+len(target.Encode())+6+len(optionsRaw)+len(initial))
	buf = append(buf, socks.Version6, socks.CmdConnect)
	buf = append(buf, target.Encode()...)
	buf = append(buf, 0x00, 0x00) // PAD, FLAGS

	var lens [4]byte
	binary.BigEndian.PutUint16(lens[0:2], uint16(len(initial)))
	binary.BigEndian.PutUint16(lens[2:4], uint16(len(optionsRaw)))
	buf = append(buf, lens[:]...)

	buf = append(buf, optionsRaw...)
	buf = append(buf, initial...)

	if _, err := conn.Write(buf); err != nil {
		return socks.NewError(socks.GeneralFailure, err)
	}
	return nil
}

func (c *Client) readOperationReply(conn net.Conn) (socks.Reply, error) {
	var hdr [3]byte
	if _, err := io.ReadFull(conn, hdr[:]); err != nil {
		return socks.Reply{}, socks.NewError(socks.ProtocolError, err)
	}
	if hdr[0] != socks.Version6 {
		return socks.Reply{}, socks.NewError(socks.ProtocolError, fmt.Errorf("unexpected socks version 0x%02x in operation reply", hdr[0]))
	}

	bound, err := socks.DecodeAddress(conn)
	if err != nil {
		return socks.Reply{}, err
	}

	return socks.Reply{Kind: socks.KindFromReplyCode(hdr[1]), Bound: bound}, nil
}
