//go:build linux

package sockopt

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// OriginalDestination reads SO_ORIGINAL_DST from a TCP connection that
// arrived via an iptables REDIRECT/TPROXY rule, returning the address the
// client originally dialed. The intent mirrors
// original_source/socksx/src/common/util.rs's get_original_dst (which
// reaches for nix::sys::socket::sockopt::OriginalDst on Linux); reaching
// the raw file descriptor via conn.SyscallConn().Control follows
// yuhaiin-yuhaiin/pkg/net/dialer/setopt_linux.go's syscall.RawConn.Control
// pattern. x/sys/unix has no sockaddr_in-shaped getsockopt helper, so this
// borrows the IPv6Mreq struct as the buffer: its leading 16-byte Multiaddr
// field has room for the sockaddr_in the kernel writes back (the struct as
// a whole is 20 bytes), the same trick several SOCKS/transparent-proxy implementations in the
// ecosystem use for lack of a purpose-built binding.
func OriginalDestination(conn *net.TCPConn) (*net.TCPAddr, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, err
	}

	var addr *net.TCPAddr
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		addr, sockErr = getOriginalDestination(int(fd))
	})
	if ctrlErr != nil {
		return nil, ctrlErr
	}
	return addr, sockErr
}

func getOriginalDestination(fd int) (*net.TCPAddr, error) {
	// SO_ORIGINAL_DST writes a sockaddr_in into Multiaddr: bytes 2-3 are
	// the big-endian port, bytes 4-7 the IPv4 address. Only the IPv4
	// option is queried; IPv6 original destinations are not read.
	v4, err := unix.GetsockoptIPv6Mreq(fd, unix.IPPROTO_IP, unix.SO_ORIGINAL_DST)
	if err == nil {
		ip := net.IPv4(v4.Multiaddr[4], v4.Multiaddr[5], v4.Multiaddr[6], v4.Multiaddr[7])
		port := int(v4.Multiaddr[2])<<8 | int(v4.Multiaddr[3])
		return &net.TCPAddr{IP: ip, Port: port}, nil
	}

	return nil, fmt.Errorf("sockopt: SO_ORIGINAL_DST: %w", err)
}
