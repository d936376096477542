package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzbill/nak/internal/config"
	"github.com/rzbill/nak/pkg/cli/format"
	"github.com/rzbill/nak/pkg/gateway"
	"github.com/rzbill/nak/pkg/version"
	"github.com/spf13/cobra"
)

// Flag names. The credential flags keep their underscore spelling so that
// existing scripts and NAK_* variables line up with the stored keys.
const (
	flagUserEmail  = "user_email"
	flagPassword   = "password"
	flagClientID   = "client_id"
	flagEnv        = "env"
	flagDir        = "dir"
	flagAPIURL     = "api-url"
	flagTimeout    = "timeout"
	flagLogLevel   = "log-level"
	flagLogFormat  = "log-format"
	flagNoProgress = "no-progress"
	flagNoColor    = "no-color"

	envPrefix = "NAK"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nak",
		Short: "nak - package and deploy apps",
		Long: `nak packages a project directory into a zip artifact and uploads
it to the app management API.

Credentials are stored in .env and the app client id in config.yml,
one entry per environment.`,
		Example: `  nak setup -u dev@example.com -p secret -c ABCD1234
  nak build
  nak push -e production`,
		Version:       version.Resolved(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringP(flagUserEmail, "u", "", "User email for authenticate")
	flags.StringP(flagPassword, "p", "", "User password for authenticate")
	flags.StringP(flagClientID, "c", "", "App client id")
	flags.StringP(flagEnv, "e", config.DefaultEnv, "Configuration environment")
	flags.String(flagDir, ".", "Project directory")
	flags.String(flagAPIURL, gateway.DefaultBaseURL, "App management API URL")
	flags.Duration(flagTimeout, gateway.DefaultTimeout, "Upload request timeout")
	flags.String(flagLogLevel, "info", "Log level (debug, info, warn, error)")
	flags.String(flagLogFormat, "text", "Log format (text, json)")
	flags.Bool(flagNoProgress, false, "Disable the build progress bar")
	flags.Bool(flagNoColor, false, "Disable colored output")

	cmd.AddCommand(newSetupCmd())
	cmd.AddCommand(newBuildCmd())
	cmd.AddCommand(newPushCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		format.PrintFailure(rootCmd.ErrOrStderr(), err, hintFor(err))
		os.Exit(1)
	}
}
