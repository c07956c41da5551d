package listen

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sockschain/pkg/chain"
	"sockschain/pkg/relay"
	"sockschain/pkg/socks"
	"sockschain/pkg/sockopt"
)

// RedirectListener accepts transparently-redirected TCP connections (for
// example ones an iptables REDIRECT/TPROXY rule routed to this port) and
// forwards each to its pre-NAT destination through the chain driver,
// skipping the SOCKS handshake entirely: a client speaking to a redirect
// listener never sent a SOCKS request, so there is nothing to negotiate.
// Grounded on original_source/socksx/examples/redirector.rs's
// redirect_v5/redirect_v6 (get_original_dst then dial through a
// configured proxy client), generalized from its per-protocol-version
// duplicated pair into a single handler that asks the chain driver for an
// outbound connection regardless of whether that connection ends up being
// a direct dial or a hop through a SOCKS6 chain.
type RedirectListener struct {
	Driver    *chain.Driver
	Keepalive sockopt.KeepaliveConfig
	Log       zerolog.Logger

	ln net.Listener
}

// ListenRedirect binds addr and returns a RedirectListener ready to Serve.
func ListenRedirect(addr string) (*RedirectListener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	return &RedirectListener{ln: ln}, nil
}

// Addr returns the bound local address, useful when ListenRedirect was
// given port 0.
func (l *RedirectListener) Addr() net.Addr { return l.ln.Addr() }

// Close stops accepting new connections.
func (l *RedirectListener) Close() error { return l.ln.Close() }

// Serve runs the accept loop until ctx is cancelled or the listener is
// closed, mirroring Listener.Serve's transient-error-continue shape.
func (l *RedirectListener) Serve(ctx context.Context) error {
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

// handle recovers the connection's original destination via SO_ORIGINAL_DST,
// resolves it through the chain driver (direct dial or a configured SOCKS6
// chain), and relays.
func (l *RedirectListener) handle(ctx context.Context, conn net.Conn) {
	sessionID := uuid.New()
	log := l.Log.With().Str("session", sessionID.String()).Str("remote", conn.RemoteAddr().String()).Logger()

	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		log.Debug().Msg("redirect listener requires a TCP connection")
		conn.Close()
		return
	}

	_ = sockopt.ApplyKeepalive(conn, l.Keepalive)

	dst, err := sockopt.OriginalDestination(tcpConn)
	if err != nil {
		log.Debug().Err(err).Msg("failed to read original destination")
		conn.Close()
		return
	}

	target := socks.NewIPAddress(dst.IP, uint16(dst.Port))
	log.Info().Str("target", target.String()).Msg("redirected connection")

	outcome := l.Driver.Resolve(&socks.Request{Command: socks.CmdConnect, Target: target})
	if outcome.Reply.Kind != socks.Success {
		log.Info().Str("kind", outcome.Reply.Kind.String()).Msg("redirect resolve failed")
		conn.Close()
		return
	}

	_ = sockopt.ApplyKeepalive(outcome.Conn, l.Keepalive)
	if _, err := relay.Relay(conn, outcome.Conn, log); err != nil {
		log.Debug().Err(err).Msg("relay ended with error")
	}
}
