//go:build !linux

package sockopt

import (
	"errors"
	"net"
)

// OriginalDestination is unsupported outside Linux; transparent redirection
// here is OS-specific (macOS pf, Windows WFP) and out of scope for this
// toolkit. Mirrors original_source/socksx/src/common/util.rs's non-Linux
// get_original_dst branch, which is itself an unimplemented todo!().
func OriginalDestination(conn *net.TCPConn) (*net.TCPAddr, error) {
	return nil, errors.New("sockopt: SO_ORIGINAL_DST is only supported on linux")
}
