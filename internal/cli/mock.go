package cli

import (
	"github.com/spf13/cobra"

	"github.com/trekkers/tour-client/internal/api"
	"github.com/trekkers/tour-client/internal/api/auth"
	"github.com/trekkers/tour-client/internal/api/handler"
	"github.com/trekkers/tour-client/internal/api/store"
	"github.com/trekkers/tour-client/pkg/logger"
)

func newMockServerCmd(o *options) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-memory tour service for local development",
		Long: `mock-server serves the users and tours API from memory with a few seeded
tours. Password reset tokens are written to the log instead of being mailed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := o.loadConfig(ctx)
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Mock.Addr
			}
			logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
			log := logger.Component("mock")

			mem := store.NewMemory()
			mem.SeedTours()
			e := api.NewRouter(api.Deps{
				Store:  mem,
				Issuer: auth.NewIssuer(cfg.Mock.JWTSecret, cfg.Mock.TokenTTL),
				Mailer: handler.LogMailer{Log: log},
				Log:    log,
			})

			log.Info().Str("addr", addr).Str("prefix", api.Prefix).Msg("mock tour service listening")
			if err := api.Serve(ctx, e, addr); err != nil {
				return err
			}
			log.Info().Msg("mock tour service stopped")
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides MOCK_ADDR)")
	return cmd
}
