package main

import (
	"flag"
	"fmt"
	"os"

	"sockschain/pkg/socks"
)

// Config holds the resolved, validated CLI configuration for one listener.
// Assembled once at startup from flags, then treated as immutable and
// shared read-only by every accepted session, the way the teacher's
// Config/LoadConfig/Validate trio works for Azure credentials
// (cmd/proxy/main.go), generalized here to flags instead of a JSON file
// since spec section 6's CLI surface is flags only. --redirect supplements
// that surface with the original's transparent-redirector mode
// (original_source/socksx/examples/redirector.rs): when set, --protocol is
// ignored since a redirect listener never sees a SOCKS preamble to sniff.
type Config struct {
	Host     string
	Port     int
	Protocol byte // socks.Version5 or socks.Version6; only labels the startup summary, the listener accepts both
	Chain    []socks.ProxyAddress
	Debug    bool
	Redirect bool // transparent-redirect mode: skip the SOCKS handshake, read SO_ORIGINAL_DST
}

// chainFlag implements flag.Value to accumulate repeated --chain flags in
// the order given, per spec section 6 ("--chain URL repeatable; each
// appends a hop. Hops are traversed in the order given.").
type chainFlag struct {
	hops *[]socks.ProxyAddress
}

func (c *chainFlag) String() string {
	if c.hops == nil {
		return ""
	}
	out := ""
	for i, h := range *c.hops {
		if i > 0 {
			out += ","
		}
		out += h.String()
	}
	return out
}

func (c *chainFlag) Set(raw string) error {
	hop, err := socks.ParseProxyURL(raw)
	if err != nil {
		return fmt.Errorf("--chain %q: %w", raw, err)
	}
	*c.hops = append(*c.hops, hop)
	return nil
}

// ParseConfig parses args (excluding the program name) into a validated
// Config. It returns a usage error suitable for printing to stderr with a
// non-zero exit, matching spec section 6's "non-zero on bind failure or
// bad config."
func ParseConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("sockschain", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	host := fs.String("host", "127.0.0.1", "bind address")
	port := fs.Int("port", 1080, "bind port")
	protocol := fs.String("protocol", "socks5", "protocol shown in the startup summary: socks5 or socks6 (the listener accepts both, chosen per connection by the first byte)")
	debug := fs.Bool("debug", false, "enable debug logging")
	redirect := fs.Bool("redirect", false, "transparent-redirect mode: skip the SOCKS handshake and read the pre-NAT destination via SO_ORIGINAL_DST (linux only)")

	cfg := &Config{}
	fs.Var(&chainFlag{hops: &cfg.Chain}, "chain", "socks6 chain hop URL, repeatable: socks6://[user:pass@]host:port")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg.Host = *host
	cfg.Port = *port
	cfg.Debug = *debug
	cfg.Redirect = *redirect

	switch *protocol {
	case "socks5":
		cfg.Protocol = socks.Version5
	case "socks6":
		cfg.Protocol = socks.Version6
	default:
		return nil, fmt.Errorf("--protocol must be socks5 or socks6, got %q", *protocol)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks invariants ParseConfig's flag types can't express on
// their own, matching the teacher's Config.Validate in cmd/proxy/main.go.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("--port %d out of range", c.Port)
	}
	for _, hop := range c.Chain {
		if hop.Version != socks.Version6 {
			return fmt.Errorf("chain hop %s: only socks6 hops are supported", hop.String())
		}
	}
	return nil
}
