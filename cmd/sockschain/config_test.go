package main

import (
	"testing"

	"sockschain/pkg/socks"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Host != "127.0.0.1" {
		t.Fatalf("got host %q, want 127.0.0.1", cfg.Host)
	}
	if cfg.Port != 1080 {
		t.Fatalf("got port %d, want 1080", cfg.Port)
	}
	if cfg.Protocol != socks.Version5 {
		t.Fatalf("got protocol 0x%02x, want socks5", cfg.Protocol)
	}
	if len(cfg.Chain) != 0 {
		t.Fatalf("got %d chain hops, want 0", len(cfg.Chain))
	}
}

func TestParseConfigChainRepeatable(t *testing.T) {
	cfg, err := ParseConfig([]string{
		"--chain", "socks6://192.0.2.1:1080",
		"--chain", "socks6://192.0.2.2:1081",
		"--protocol", "socks6",
	})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if len(cfg.Chain) != 2 {
		t.Fatalf("got %d chain hops, want 2", len(cfg.Chain))
	}
	if cfg.Chain[0].Addr.Port != 1080 || cfg.Chain[1].Addr.Port != 1081 {
		t.Fatalf("chain hops out of order: %v", cfg.Chain)
	}
	if cfg.Protocol != socks.Version6 {
		t.Fatal("expected socks6 protocol")
	}
}

func TestParseConfigRejectsBadProtocol(t *testing.T) {
	if _, err := ParseConfig([]string{"--protocol", "socks4"}); err == nil {
		t.Fatal("expected error for unsupported protocol")
	}
}

func TestParseConfigRejectsSocks5ChainHop(t *testing.T) {
	if _, err := ParseConfig([]string{"--chain", "socks5://192.0.2.1:1080"}); err == nil {
		t.Fatal("expected error for socks5 chain hop")
	}
}

func TestParseConfigRejectsBadPort(t *testing.T) {
	if _, err := ParseConfig([]string{"--port", "70000"}); err == nil {
		t.Fatal("expected error for out-of-range port")
	}
}

func TestParseConfigRedirectFlag(t *testing.T) {
	cfg, err := ParseConfig(nil)
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if cfg.Redirect {
		t.Fatal("expected --redirect to default false")
	}

	cfg, err = ParseConfig([]string{"--redirect"})
	if err != nil {
		t.Fatalf("ParseConfig: %v", err)
	}
	if !cfg.Redirect {
		t.Fatal("expected --redirect to set cfg.Redirect")
	}
}
