// Package chain implements the proxy's client role toward an upstream
// SOCKS6 hop: resolving the effective hop list, dialing the next hop, and
// composing the outgoing request with the residual chain. Grounded on
// original_source/socksx/src/socks6/chain.rs's SocksChain head-pop
// semantics, reimplemented as a plain slice split rather than an
// index-tracking struct, and on
// proxyblob/pkg/proxy/socks/connect.go's dial-timeout/error-mapping style.
package chain

import (
	"net"
	"time"

	"github.com/rs/zerolog"

	"sockschain/pkg/socks"
	"sockschain/pkg/socks6"
)

// DialTimeout bounds how long dialing a hop or the final destination may
// take, matching proxyblob/pkg/proxy/socks/connect.go's
// net.DialTimeout(..., 10*time.Second).
const DialTimeout = 10 * time.Second

// Driver resolves and dials the next step for a Request: either a direct
// connection to the destination, or a connection to the next configured
// chain hop with the remainder of the chain forwarded onward.
type Driver struct {
	// Configured is the listener's statically configured chain, appended
	// after any chain carried in the inbound request's chain option (spec
	// section 4.5: "inbound chain option entries first, then locally
	// configured chain entries").
	Configured []socks.ProxyAddress
	Log        zerolog.Logger
}

// Outcome is the result of resolving and dialing the next step: either a
// live connection to relay, or a Reply to send back to our own client
// when dialing failed.
type Outcome struct {
	Conn  net.Conn
	Reply socks.Reply
}

// Resolve merges req's residual chain with the locally configured chain,
// then either dials the destination directly (empty hop list) or dials
// the head hop and forwards the remainder.
func (d *Driver) Resolve(req *socks.Request) Outcome {
	hops := append(append([]socks.ProxyAddress(nil), req.Chain...), d.Configured...)

	if len(hops) == 0 {
		return d.dialDirect(req.Target, req.Initial)
	}
	return d.dialHop(hops[0], hops[1:], req.Target, req.Options, req.Initial)
}

// dialDirect opens a plain TCP connection to target, the terminal case of
// the chain (spec section 4.5 step 1 with an empty hop list).
func (d *Driver) dialDirect(target socks.Address, initial []byte) Outcome {
	conn, err := net.DialTimeout("tcp", target.String(), DialTimeout)
	if err != nil {
		kind := socks.ClassifyDialError(err)
		d.Log.Error().Err(err).Str("target", target.String()).Str("kind", kind.String()).Msg("direct dial failed")
		return Outcome{Reply: socks.Reply{Kind: kind}}
	}

	if len(initial) > 0 {
		if _, err := conn.Write(initial); err != nil {
			conn.Close()
			return Outcome{Reply: socks.Reply{Kind: socks.GeneralFailure}}
		}
	}

	localAddr := socks.ZeroIPv4
	if tcpAddr, ok := conn.LocalAddr().(*net.TCPAddr); ok {
		localAddr = socks.NewIPAddress(tcpAddr.IP, uint16(tcpAddr.Port))
	}

	return Outcome{Conn: conn, Reply: socks.Reply{Kind: socks.Success, Bound: localAddr}}
}

// dialHop opens a connection to hop, acting as a SOCKS6 client: it sends
// a request for the original target carrying residual as the outgoing
// chain option (omitted when residual is empty, per spec section 4.2:
// "the final hop sees an empty chain option (or no chain option)"). It
// never sends hop.Credentials: every SOCKS6 role in this implementation
// is no-auth-only (spec section 6), so there is no subnegotiation for a
// hop's credentials to drive.
func (d *Driver) dialHop(hop socks.ProxyAddress, residual []socks.ProxyAddress, target socks.Address, inboundOpts []socks.Option, initial []byte) Outcome {
	conn, err := net.DialTimeout("tcp", hop.Addr.String(), DialTimeout)
	if err != nil {
		d.Log.Error().Err(err).Str("hop", hop.String()).Str("kind", socks.ClassifyDialError(err).String()).Msg("hop dial failed")
		// The client is unaware the chain exists; a connect-level failure
		// against the hop itself is reported as GeneralFailure (spec
		// section 7's propagation rule).
		return Outcome{Reply: socks.Reply{Kind: socks.GeneralFailure}}
	}

	outboundOpts := forwardableOptions(inboundOpts)
	if len(residual) > 0 {
		outboundOpts = append(outboundOpts, socks.EncodeChainOption(residual))
	}

	client := &socks6.Client{}
	reply, err := client.Request(conn, target, outboundOpts, initial)
	if err != nil {
		conn.Close()
		d.Log.Error().Err(err).Str("hop", hop.String()).Msg("hop handshake failed")
		return Outcome{Reply: socks.Reply{Kind: socks.GeneralFailure}}
	}
	if reply.Kind != socks.Success {
		conn.Close()
		// A standard reply code from the hop itself is forwarded as-is
		// (spec section 7).
		return Outcome{Reply: socks.Reply{Kind: reply.Kind}}
	}

	return Outcome{Conn: conn, Reply: reply}
}

// forwardableOptions strips the chain option (which this hop consumed and
// will re-encode for the residual) while preserving every other option,
// including unrecognized kinds, verbatim (spec section 4.2).
func forwardableOptions(opts []socks.Option) []socks.Option {
	out := make([]socks.Option, 0, len(opts))
	for _, o := range opts {
		if o.Kind == socks.OptKindChain {
			continue
		}
		out = append(out, o)
	}
	return out
}
