package socks

import (
	"bytes"
	"net"
	"testing"
)

func TestAddressRoundTrip(t *testing.T) {
	cases := []Address{
		NewIPAddress(net.ParseIP("127.0.0.1"), 1080),
		NewIPAddress(net.ParseIP("2001:db8::1"), 443),
		NewDomainAddress("example.com", 8080),
	}

	for _, want := range cases {
		encoded := want.Encode()
		got, err := DecodeAddress(bytes.NewReader(encoded))
		if err != nil {
			t.Fatalf("DecodeAddress(%v): %v", want, err)
		}
		if got.String() != want.String() {
			t.Fatalf("round trip mismatch: got %v, want %v", got, want)
		}
		if got.Type != want.Type {
			t.Fatalf("type mismatch: got 0x%02x, want 0x%02x", got.Type, want.Type)
		}
	}
}

func TestDecodeAddressTruncated(t *testing.T) {
	encoded := NewIPAddress(net.ParseIP("10.0.0.1"), 80).Encode()
	_, err := DecodeAddress(bytes.NewReader(encoded[:3]))
	if err == nil {
		t.Fatal("expected error decoding truncated address")
	}
	if KindOf(err) != ProtocolError {
		t.Fatalf("expected ProtocolError, got %v", KindOf(err))
	}
}

func TestDecodeAddressUnknownType(t *testing.T) {
	_, err := DecodeAddress(bytes.NewReader([]byte{0x7f, 0x00, 0x00}))
	if err == nil {
		t.Fatal("expected error decoding unknown address type")
	}
	if KindOf(err) != AddressTypeNotSupported {
		t.Fatalf("expected AddressTypeNotSupported, got %v", KindOf(err))
	}
}

func TestDecodeAddressZeroLengthDomain(t *testing.T) {
	_, err := DecodeAddress(bytes.NewReader([]byte{AddrDomain, 0x00}))
	if err == nil {
		t.Fatal("expected error decoding zero-length domain")
	}
}

func TestAddressIsZero(t *testing.T) {
	var a Address
	if !a.IsZero() {
		t.Fatal("expected zero-value Address to report IsZero() == true")
	}
}
