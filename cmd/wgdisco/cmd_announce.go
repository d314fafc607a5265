package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/wgdisco/internal/dnssd"
	"gitlab.bluewillows.net/root/wgdisco/internal/reconciler"
)

func newCmdAnnounce() *cobra.Command {
	var (
		domain    string
		hostname  string
		publicKey string
		ipv4Addr  string
		ipv6Addr  string
		allowed   string
		ttl       int
	)

	cmd := &cobra.Command{
		Use:   "announce",
		Short: "Publish a WireGuard endpoint as DNS-SD records",
		Long: `Announce publishes the PTR, SRV, TXT and optional A/AAAA records that
advertise one WireGuard endpoint under _wireguard._udp.{domain}.
Announcing the same endpoint again converges the records; nothing is
duplicated.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.writeMetrics()

			p, err := app.buildProvider(domain)
			if err != nil {
				return err
			}
			if err := p.Ping(cmd.Context()); err != nil {
				return err
			}

			if ttl == 0 {
				ttl = app.cfg.TTL()
			}

			rec := reconciler.New(p, domain,
				reconciler.WithTTL(ttl),
				reconciler.WithLogger(app.logger),
			)

			node := dnssd.AdvertisedNode{
				Hostname:  hostname,
				PublicKey: publicKey,
				IPv4Addr:  ipv4Addr,
				IPv6Addr:  ipv6Addr,
				Allowed:   allowed,
			}

			if err := rec.Announce(cmd.Context(), node); err != nil {
				return err
			}

			app.logger.Info("endpoint announced",
				slog.String("hostname", hostname),
				slog.String("domain", domain),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "DNS domain to announce under (required)")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Endpoint hostname, the instance label (required)")
	cmd.Flags().StringVar(&publicKey, "publickey", "", "WireGuard public key (required)")
	cmd.Flags().StringVar(&ipv4Addr, "ipv4addr", "", "IPv4 address for the A record; empty clears it")
	cmd.Flags().StringVar(&ipv6Addr, "ipv6addr", "", "IPv6 address for the AAAA record; empty clears it")
	cmd.Flags().StringVar(&allowed, "allowed", "", "Allowed-IPs list published in the TXT record")
	cmd.Flags().IntVar(&ttl, "ttl", 0, "Record TTL (default from config, 300)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("hostname")
	_ = cmd.MarkFlagRequired("publickey")

	return cmd
}
