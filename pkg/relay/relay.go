// Package relay implements the bidirectional byte pump between a SOCKS
// client connection and the dialed target (or next chain hop). Grounded
// on proxyblob/pkg/proxy/socks/connect.go's handleTCPDataTransfer, adapted
// from its channel-multiplexed packet protocol to two goroutines copying
// directly between a pair of net.Conn, since this implementation has no
// framing layer between client and target.
package relay

import (
	"io"
	"net"
	"sync"

	"github.com/rs/zerolog"
)

// BufferSize is the per-direction copy buffer, matching the teacher's
// 128KiB read buffer in handleTCPDataTransfer.
const BufferSize = 128 * 1024

// Stats reports how many bytes moved in each direction once a relay ends.
type Stats struct {
	ClientToTarget int64
	TargetToClient int64
}

// halfCloser is satisfied by *net.TCPConn and *net.UnixConn; it lets a
// finished read direction signal EOF to the peer without tearing down the
// whole connection.
type halfCloser interface {
	CloseWrite() error
}

// Relay copies data bidirectionally between client and target until both
// directions finish, propagating half-close (CloseWrite) when one side's
// read loop hits EOF, and fully closing both connections once both
// directions are done. It returns byte counters and the first non-EOF
// error encountered, if any.
func Relay(client, target net.Conn, log zerolog.Logger) (Stats, error) {
	var stats Stats
	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		n, err := pump(target, client)
		stats.ClientToTarget = n
		errCh <- err
	}()
	go func() {
		defer wg.Done()
		n, err := pump(client, target)
		stats.TargetToClient = n
		errCh <- err
	}()

	wg.Wait()
	close(errCh)

	var firstErr error
	for err := range errCh {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	client.Close()
	target.Close()

	log.Debug().
		Int64("client_to_target", stats.ClientToTarget).
		Int64("target_to_client", stats.TargetToClient).
		Msg("relay finished")

	return stats, firstErr
}

// pump copies from src to dst until src reaches EOF or an error occurs,
// then half-closes dst's write side so the peer observes EOF in turn
// without losing the still-open read direction.
func pump(dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, BufferSize)
	n, err := io.CopyBuffer(dst, src, buf)

	if hc, ok := dst.(halfCloser); ok {
		hc.CloseWrite()
	}

	return n, err
}
