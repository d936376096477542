package cmd

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/rzbill/nak/internal/config"
	"github.com/rzbill/nak/pkg/artifact"
	"github.com/rzbill/nak/pkg/cli/format"
	"github.com/rzbill/nak/pkg/gateway"
	"github.com/rzbill/nak/pkg/log"
	"github.com/rzbill/nak/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"
)

// uploader is the part of the gateway the push command needs.
type uploader interface {
	UpdateApp(ctx context.Context, files map[string]gateway.File) (*gateway.Response, error)
}

// newUploader is a variable so tests can replace the gateway.
var newUploader = func(opts gateway.Options, logger log.Logger) uploader {
	return gateway.New(opts, logger)
}

// isTerminal is a variable so tests can force plain output.
var isTerminal = func(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// runtime is what every command works with: resolved flags, a logger and the
// loaded configuration store.
type runtime struct {
	v      *viper.Viper
	logger log.Logger
	store  *config.Store
	// dir is the absolute project directory.
	dir string

	// persist is set when the user passed credential overrides.
	persist bool
}

// bindFlags returns a viper instance where flags win over NAK_* environment
// variables, which win over flag defaults.
func bindFlags(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return nil, err
	}
	return v, nil
}

func newRuntime(cmd *cobra.Command) (*runtime, error) {
	v, err := bindFlags(cmd.Flags())
	if err != nil {
		return nil, err
	}

	if v.GetBool(flagNoColor) {
		format.EnableColor(false)
	}

	logger, err := log.ApplyConfig(&log.Config{
		Level:          v.GetString(flagLogLevel),
		Format:         v.GetString(flagLogFormat),
		DisableColors:  !format.IsColorEnabled(),
		RedactedFields: []string{string(config.FieldPassword)},
		Writer:         cmd.OutOrStdout(),
		ErrorWriter:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	dir, err := utils.ProjectDir(v.GetString(flagDir))
	if err != nil {
		return nil, err
	}
	store, err := config.Open(config.Options{Dir: dir, Env: v.GetString(flagEnv)}, logger)
	if err != nil {
		return nil, err
	}

	credentials := config.Overrides{
		config.FieldUserEmail: v.GetString(flagUserEmail),
		config.FieldPassword:  v.GetString(flagPassword),
		config.FieldClientID:  v.GetString(flagClientID),
	}
	if err := store.ApplyOverrides(credentials); err != nil {
		return nil, err
	}

	return &runtime{
		v:       v,
		logger:  logger,
		store:   store,
		dir:     dir,
		persist: !credentials.Empty(),
	}, nil
}

// envLogger tags messages with the active environment.
func (r *runtime) envLogger() log.Logger {
	return r.logger.With(log.Env(r.store.Env()))
}

// appName is the base name of the project directory.
func (r *runtime) appName() string {
	return filepath.Base(r.dir)
}

func (r *runtime) outputDir() string {
	return filepath.Join(r.dir, config.BuildDirName)
}

func hintFor(err error) string {
	var cfgErr *config.ConfigurationError
	switch {
	case errors.As(err, &cfgErr) && len(cfgErr.Missing) > 0:
		return "Pass the missing flags or run 'nak setup' to store them."
	case errors.As(err, &cfgErr):
		return "Run nak from the project directory or pass --dir."
	case artifact.IsNoBuildArtifact(err):
		return "Run 'nak build' first."
	default:
		return ""
	}
}
