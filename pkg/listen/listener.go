// Package listen implements the dispatcher: binding the configured
// listening address, accepting connections, sniffing the SOCKS protocol
// version off the first byte, and handing each session to the matching
// handshake engine, the chain driver, and the relay. Grounded on
// proxyblob/pkg/proxy/server/server.go's acceptLoop (the
// transient-error-continue pattern) and handleConnection (per-session
// lifecycle), generalized from its agent-forwarding flow to a direct
// dial-or-chain flow.
package listen

import (
	"bufio"
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sockschain/pkg/chain"
	"sockschain/pkg/relay"
	"sockschain/pkg/socks"
	"sockschain/pkg/socks5"
	"sockschain/pkg/socks6"
	"sockschain/pkg/sockopt"
)

// bufConn layers a buffered reader over a net.Conn so the dispatcher can
// peek the protocol version byte without consuming it, while everything
// else (Write, Close, deadlines) still goes straight to the underlying
// connection. CloseWrite is promoted explicitly below: the embedded
// net.Conn is an interface without a CloseWrite method, so Go's normal
// method promotion can't reach the concrete connection's CloseWrite
// through it.
type bufConn struct {
	*bufio.Reader
	net.Conn
}

func newBufConn(c net.Conn) *bufConn {
	return &bufConn{Reader: bufio.NewReader(c), Conn: c}
}

func (b *bufConn) Read(p []byte) (int, error) { return b.Reader.Read(p) }

// CloseWrite half-closes the underlying connection's write side, if it
// supports that, so pkg/relay's half-close propagation reaches the client
// side of the dispatcher's bufConn wrapper and not just the raw target
// conn.
func (b *bufConn) CloseWrite() error {
	hc, ok := b.Conn.(interface{ CloseWrite() error })
	if !ok {
		return fmt.Errorf("underlying connection does not support CloseWrite")
	}
	return hc.CloseWrite()
}

// Listener accepts inbound SOCKS connections and dispatches each to the
// SOCKS5 or SOCKS6 engine, then to the chain driver and relay.
type Listener struct {
	Driver    *chain.Driver
	Keepalive sockopt.KeepaliveConfig
	Log       zerolog.Logger

	ln net.Listener
}

// Listen binds addr (host:port) and returns a Listener ready to Serve.
func Listen(addr string) (*Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &Listener{ln: ln}, nil
}

// Addr returns the bound local address, useful when Listen was given port 0.
func (l *Listener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *Listener) Close() error { return l.ln.Close() }

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed. Transient per-connection accept errors are logged and the loop
// continues; anything else ends Serve.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { l.ln.Close() })
	defer stop()

	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				l.Log.Warn().Err(err).Msg("transient accept error, continuing")
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		go l.handle(ctx, conn)
	}
}

// handle runs one session end to end: sniff protocol, negotiate, resolve
// (direct dial or chain hop), reply, relay.
func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	sessionID := uuid.New()
	log := l.Log.With().Str("session", sessionID.String()).Str("remote", conn.RemoteAddr().String()).Logger()

	_ = sockopt.ApplyKeepalive(conn, l.Keepalive)

	bc := newBufConn(conn)
	version, err := bc.Peek(1)
	if err != nil {
		log.Debug().Err(err).Msg("failed to sniff protocol byte")
		conn.Close()
		return
	}

	var req *socks.Request
	var writeReply func(socks.Reply) error

	switch version[0] {
	case socks.Version5:
		srv := &socks5.Server{}
		req, err = srv.Negotiate(bc)
		writeReply = func(r socks.Reply) error { return srv.WriteReply(bc, r) }

	case socks.Version6:
		srv := &socks6.Server{}
		req, err = srv.Negotiate(bc)
		writeReply = func(r socks.Reply) error { return srv.WriteReply(bc, r) }

	default:
		log.Debug().Uint8("byte", version[0]).Msg("unrecognized protocol byte, closing")
		conn.Close()
		return
	}

	if err != nil {
		log.Debug().Err(err).Msg("handshake failed")
		conn.Close()
		return
	}

	log.Info().Str("target", req.Target.String()).Int("chain_len", len(req.Chain)+len(l.Driver.Configured)).Msg("request")

	outcome := l.Driver.Resolve(req)
	if err := writeReply(outcome.Reply); err != nil {
		log.Debug().Err(err).Msg("failed to write reply")
		conn.Close()
		if outcome.Conn != nil {
			outcome.Conn.Close()
		}
		return
	}
	if outcome.Reply.Kind != socks.Success {
		log.Info().Str("kind", outcome.Reply.Kind.String()).Msg("request failed")
		conn.Close()
		return
	}

	_ = sockopt.ApplyKeepalive(outcome.Conn, l.Keepalive)
	if _, err := relay.Relay(bc, outcome.Conn, log); err != nil {
		log.Debug().Err(err).Msg("relay ended with error")
	}
}
