package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"gitlab.bluewillows.net/root/wgdisco/internal/reconciler"
)

func newCmdRenounce() *cobra.Command {
	var (
		domain   string
		hostname string
	)

	cmd := &cobra.Command{
		Use:   "renounce",
		Short: "Withdraw a WireGuard endpoint from DNS-SD",
		Long: `Renounce removes the endpoint's SRV, TXT, A and AAAA records and its
PTR membership. Renouncing an endpoint that was never announced is a
successful no-op.`,
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

			rec := reconciler.New(p, domain,
				reconciler.WithLogger(app.logger),
			)

			if err := rec.Renounce(cmd.Context(), hostname); err != nil {
				return err
			}

			app.logger.Info("endpoint renounced",
				slog.String("hostname", hostname),
				slog.String("domain", domain),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "DNS domain the endpoint was announced under (required)")
	cmd.Flags().StringVar(&hostname, "hostname", "", "Endpoint hostname to withdraw (required)")
	_ = cmd.MarkFlagRequired("domain")
	_ = cmd.MarkFlagRequired("hostname")

	return cmd
}
