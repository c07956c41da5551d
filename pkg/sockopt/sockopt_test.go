package sockopt

import (
	"net"
	"testing"
)

func TestApplyKeepaliveOnTCP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		acceptCh <- c
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	server := <-acceptCh
	defer server.Close()

	if err := ApplyKeepalive(conn, KeepaliveConfig{Enabled: true, Period: 30}); err != nil {
		t.Fatalf("ApplyKeepalive: %v", err)
	}
}

func TestApplyKeepaliveDisabledIsNoop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		acceptCh <- c
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	server := <-acceptCh
	defer server.Close()

	if err := ApplyKeepalive(conn, KeepaliveConfig{}); err != nil {
		t.Fatalf("ApplyKeepalive: %v", err)
	}
}
