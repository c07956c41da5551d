package socks

import (
	"net"
	"testing"
)

func TestOptionsRoundTrip(t *testing.T) {
	opts := []Option{
		{Kind: OptKindStack, Payload: []byte{0x01, 0x02}},
		{Kind: OptKindAuthMethodAdvertisement, Payload: []byte{0x00, 0x10, AuthUsernamePassword}},
		{Kind: 0xBEEF, Payload: []byte("unknown kind preserved")},
	}

	encoded := EncodeOptions(opts)
	decoded, err := DecodeOptions(encoded)
	if err != nil {
		t.Fatalf("DecodeOptions: %v", err)
	}
	if len(decoded) != len(opts) {
		t.Fatalf("got %d options, want %d", len(decoded), len(opts))
	}
	for i := range opts {
		if decoded[i].Kind != opts[i].Kind {
			t.Fatalf("option %d: got kind 0x%04x, want 0x%04x", i, decoded[i].Kind, opts[i].Kind)
		}
		if string(decoded[i].Payload) != string(opts[i].Payload) {
			t.Fatalf("option %d: got payload %v, want %v", i, decoded[i].Payload, opts[i].Payload)
		}
	}

	if _, ok := FindOption(decoded, 0xBEEF); !ok {
		t.Fatal("expected unknown-kind option to be preserved")
	}
}

func TestDecodeOptionsTruncatedHeader(t *testing.T) {
	_, err := DecodeOptions([]byte{0x00, 0x01})
	if err == nil {
		t.Fatal("expected error decoding truncated option header")
	}
}

func TestDecodeOptionsLengthOutOfRange(t *testing.T) {
	_, err := DecodeOptions([]byte{0x00, 0x01, 0xFF, 0xFF})
	if err == nil {
		t.Fatal("expected error decoding option with out-of-range length")
	}
}

func TestChainOptionRoundTrip(t *testing.T) {
	hops := []ProxyAddress{
		{Version: Version6, Addr: NewIPAddress(net.ParseIP("192.0.2.1"), 1080)},
		{Version: Version6, Addr: NewDomainAddress("hop2.example.com", 1081)},
		{Version: Version5, Addr: NewIPAddress(net.ParseIP("2001:db8::2"), 1082)},
	}

	opt := EncodeChainOption(hops)
	if opt.Kind != OptKindChain {
		t.Fatalf("got kind 0x%04x, want OptKindChain", opt.Kind)
	}

	decoded, err := DecodeChainOption(opt.Payload)
	if err != nil {
		t.Fatalf("DecodeChainOption: %v", err)
	}
	if len(decoded) != len(hops) {
		t.Fatalf("got %d hops, want %d", len(decoded), len(hops))
	}
	for i := range hops {
		if decoded[i].Version != hops[i].Version {
			t.Fatalf("hop %d: got version 0x%02x, want 0x%02x", i, decoded[i].Version, hops[i].Version)
		}
		if decoded[i].Addr.String() != hops[i].Addr.String() {
			t.Fatalf("hop %d: got addr %v, want %v", i, decoded[i].Addr, hops[i].Addr)
		}
	}
}

func TestChainOptionEmpty(t *testing.T) {
	opt := EncodeChainOption(nil)
	decoded, err := DecodeChainOption(opt.Payload)
	if err != nil {
		t.Fatalf("DecodeChainOption: %v", err)
	}
	if len(decoded) != 0 {
		t.Fatalf("got %d hops, want 0", len(decoded))
	}
}

func TestChainOptionTruncated(t *testing.T) {
	hops := []ProxyAddress{{Version: Version6, Addr: NewIPAddress(net.ParseIP("192.0.2.1"), 1080)}}
	opt := EncodeChainOption(hops)
	_, err := DecodeChainOption(opt.Payload[:len(opt.Payload)-2])
	if err == nil {
		t.Fatal("expected error decoding truncated chain option")
	}
}
