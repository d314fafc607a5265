package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newCmdPing() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check connectivity to the configured DNS providers",
		Long: `Ping instantiates each configured provider and checks that its backend
is reachable and accepts the configured credentials. With --domain only
the provider serving that domain is checked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer app.writeMetrics()

			if len(app.cfg.Providers) == 0 {
				return errors.New("no providers configured")
			}

			registry := newProviderRegistry()
			var failed int
			for _, pc := range app.cfg.Providers {
				if domain != "" && !pc.Matches(domain) {
					continue
				}

				p, err := registry.CreateInstance(pc.Type, pc.Name, pc.Settings)
				if err != nil {
					app.logger.Error("provider setup failed",
						slog.String("provider", pc.Name),
						slog.String("error", err.Error()),
					)
					failed++
					continue
				}

				if err := p.Ping(cmd.Context()); err != nil {
					app.logger.Error("provider unreachable",
						slog.String("provider", pc.Name),
						slog.String("type", pc.Type),
						slog.String("error", err.Error()),
					)
					failed++
					continue
				}

				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): ok\n", pc.Name, pc.Type)
			}

			if failed > 0 {
				return fmt.Errorf("%d provider(s) failed", failed)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Only check the provider serving this domain")

	return cmd
}
