// Package main is the sockschain CLI: a flag-driven SOCKS5/SOCKS6 proxy
// that optionally chains through a sequence of upstream SOCKS6 hops.
package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/jedib0t/go-pretty/table"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"sockschain/pkg/chain"
	"sockschain/pkg/listen"
	"sockschain/pkg/sockopt"
	"sockschain/pkg/socks"
)

func main() {
	cfg, err := ParseConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	configureLogging(cfg.Debug)

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("sockschain exited with error")
		os.Exit(1)
	}
}

// configureLogging sets up zerolog with a pretty console writer for
// interactive use, matching
// Patrick-DE-proxyblob/cmd/proxy/main.go's configureLogging.
func configureLogging(debug bool) {
	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "15:04:05",
	})
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
}

// renderChainSummary formats the configured chain as a human-readable
// startup table, repurposing the teacher's
// RenderAgentTable(cmd/proxy/main.go) / go-pretty/table usage from an
// Azure-agent listing to a proxy-chain listing.
func renderChainSummary(protocol byte, bindAddr string, redirect bool, chain []socks.ProxyAddress) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Hop", "Version", "Address"})

	protoName := "socks5"
	switch {
	case redirect:
		protoName = "redirect"
	case protocol == socks.Version6:
		protoName = "socks6"
	}
	t.AppendRow(table.Row{"listen", protoName, bindAddr})

	for i, hop := range chain {
		version := "socks5"
		if hop.Version == socks.Version6 {
			version = "socks6"
		}
		t.AppendRow(table.Row{i + 1, version, hop.Addr.String()})
	}
	if len(chain) == 0 {
		t.AppendRow(table.Row{"-", "-", "(direct, no chain)"})
	}

	return t.Render()
}

// run binds the listener, prints the chain summary, and serves until an
// interrupt signal arrives. In --redirect mode it binds a
// listen.RedirectListener instead of the SOCKS dispatcher, per
// original_source's transparent-redirector example.
func run(cfg *Config) error {
	bindAddr := net.JoinHostPort(cfg.Host, fmt.Sprintf("%d", cfg.Port))
	keepalive := sockopt.KeepaliveConfig{Enabled: true, Period: 60}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Redirect {
		rln, err := listen.ListenRedirect(bindAddr)
		if err != nil {
			return err
		}
		defer rln.Close()

		rln.Driver = &chain.Driver{Configured: cfg.Chain, Log: log.Logger}
		rln.Log = log.Logger
		rln.Keepalive = keepalive

		fmt.Println(renderChainSummary(cfg.Protocol, rln.Addr().String(), true, cfg.Chain))
		log.Info().Str("addr", rln.Addr().String()).Msg("listening in redirect mode")

		return rln.Serve(ctx)
	}

	ln, err := listen.Listen(bindAddr)
	if err != nil {
		return err
	}
	defer ln.Close()

	ln.Driver = &chain.Driver{Configured: cfg.Chain, Log: log.Logger}
	ln.Log = log.Logger
	ln.Keepalive = keepalive

	fmt.Println(renderChainSummary(cfg.Protocol, ln.Addr().String(), false, cfg.Chain))
	log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	return ln.Serve(ctx)
}
