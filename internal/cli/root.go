// Package cli is the trekkers command line: a headless client of the tour
// service built on the session and vote services.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trekkers/tour-client/internal/pkg/config"
)

// options are the global flags shared by every command.
type options struct {
	apiURL     string
	jsonOutput bool
	logLevel   string
	backend    string
}

// NewRootCmd builds the command tree. Each call returns an independent tree
// so tests can run commands side by side.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "trekkers",
		Short: "Command-line client for the tour service",
		Long: `trekkers signs in to the tour service and votes on tours.

The credential is stored between runs. Configuration comes from the
environment (or a .env file in the working directory):

  TREKKERS_API_URL             Tour service base URL (default: http://localhost:3000/api/v1)
  TREKKERS_CREDENTIAL_BACKEND  file, redis or memory (default: file)
  TREKKERS_CONFIG_DIR          Directory of the credential file
  REDIS_ADDR                   Redis address for the redis backend
  LOG_LEVEL                    trace, debug, info, warn, error`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", "", "Tour service base URL (overrides TREKKERS_API_URL)")
	flags.BoolVar(&opts.jsonOutput, "json", false, "Output JSON instead of human-readable text")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
	flags.StringVar(&opts.backend, "credentials", "", "Credential backend: file, redis or memory (overrides TREKKERS_CREDENTIAL_BACKEND)")

	root.AddCommand(
		newLoginCmd(opts),
		newSignupCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newUpdateMeCmd(opts),
		newPasswordCmd(opts),
		newForgotPasswordCmd(opts),
		newResetPasswordCmd(opts),
		newDeleteMeCmd(opts),
		newToursCmd(opts),
		newVoteCmd(opts),
		newVoteStatusCmd(opts),
		newMockServerCmd(opts),
	)
	return root
}

// Execute runs the command tree with ctx.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

// loadConfig reads the environment and applies flag overrides.
func (o *options) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, err
	}
	if o.apiURL != "" {
		cfg.APIURL = o.apiURL
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if o.backend != "" {
		cfg.Credentials.Backend = o.backend
	}
	return cfg, nil
}
