// Package sockopt applies low-level socket tuning to listener and dialed
// connections: TCP keepalive, and (on Linux) reading back the original
// destination of a transparently redirected connection. Grounded on
// yuhaiin-yuhaiin/pkg/net/dialer/setopt_linux.go's syscall.RawConn.Control
// idiom and on original_source/socksx/src/common/util.rs's get_original_dst
// (which dispatches on GOOS via #[cfg] the way this package dispatches via
// build-tagged files).
package sockopt

import (
	"net"
	"time"
)

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}

// KeepaliveConfig tunes a listening or dialed TCP connection's keepalive
// behavior. A zero value leaves the OS defaults in place.
type KeepaliveConfig struct {
	Enabled bool
	Period  int // seconds; 0 lets the OS pick
}

// ApplyKeepalive enables TCP keepalive on conn per cfg. Non-TCP
// connections and a disabled cfg are left untouched; an error from the
// platform while setting the option is returned to the caller.
func ApplyKeepalive(conn net.Conn, cfg KeepaliveConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok || !cfg.Enabled {
		return nil
	}
	if err := tcpConn.SetKeepAlive(true); err != nil {
		return err
	}
	if cfg.Period > 0 {
		return tcpConn.SetKeepAlivePeriod(secondsToDuration(cfg.Period))
	}
	return nil
}
