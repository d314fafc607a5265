package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/wgdisco/internal/discover"
)

func newCmdDiscover() *cobra.Command {
	var (
		domain      string
		server      string
		skipInvalid bool
		ipv6        bool
	)

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Resolve all WireGuard endpoints advertised in a domain",
		Long: `Discover queries _wireguard._udp.{domain} for PTR records and resolves
each instance's SRV, TXT and address records. One line is printed per
endpoint:

    {publicKey} {port} {target} {address}

Lines follow the PTR response order.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.writeMetrics()

			if server == "" {
				server = app.cfg.Discovery.Server
			}

			resolverOpts := []discover.ResolverOption{
				discover.WithResolverLogger(app.logger),
			}
			if server != "" {
				resolverOpts = append(resolverOpts, discover.WithServer(server))
			}
			if app.cfg.Discovery.TimeoutSeconds > 0 {
				timeout := time.Duration(app.cfg.Discovery.TimeoutSeconds) * time.Second
				resolverOpts = append(resolverOpts, discover.WithTimeout(timeout))
			}

			resolver, err := discover.NewUnicastResolver(resolverOpts...)
			if err != nil {
				return err
			}

			d := discover.New(resolver,
				discover.WithLogger(app.logger),
				discover.WithSkipInvalid(skipInvalid || app.cfg.Discovery.SkipInvalid),
				discover.WithIPv6(ipv6),
			)

			peers, err := d.Discover(cmd.Context(), domain)
			if err != nil {
				return err
			}

			for _, peer := range peers {
				fmt.Fprintln(cmd.OutOrStdout(), peer.String())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "DNS domain to discover endpoints in (required)")
	cmd.Flags().StringVar(&server, "server", "", "DNS server to query (host or host:port); default uses the system resolver")
	cmd.Flags().BoolVar(&skipInvalid, "skip-invalid", false, "Skip malformed endpoints instead of failing")
	cmd.Flags().BoolVar(&ipv6, "ipv6", false, "Resolve AAAA records instead of A")
	_ = cmd.MarkFlagRequired("domain")

	return cmd
}
