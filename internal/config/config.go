// Package config resolves the settings nak needs to reach a remote app: the
// per-environment client id stored in config.yml, the credentials stored in
// .env, and the overrides given on the command line.
package config

import (
	"path/filepath"
)

const (
	// SettingsFileName is the structured settings store, keyed by environment.
	SettingsFileName = "config.yml"
	// SecretsFileName holds the credentials as key=value lines.
	SecretsFileName = ".env"
	// BuildDirName is the directory build artifacts are written to.
	BuildDirName = ".tmp"
	// DefaultEnv is the namespace used when no environment is selected.
	DefaultEnv = "development"
)

// Field names a configuration value that can be overridden and required.
type Field string

const (
	FieldUserEmail Field = "user_email"
	FieldPassword  Field = "password"
	FieldClientID  Field = "client_id"
	FieldEnv       Field = "env"
)

// RequiredFields lists every credential field in the order validation
// reports them.
var RequiredFields = []Field{FieldUserEmail, FieldPassword, FieldClientID}

var fieldFlags = map[Field]string{
	FieldUserEmail: "-u/--user_email",
	FieldPassword:  "-p/--password",
	FieldClientID:  "-c/--client_id",
	FieldEnv:       "-e/--env",
}

// Flag returns the command-line spelling of the field.
func (f Field) Flag() string {
	if flag, ok := fieldFlags[f]; ok {
		return flag
	}
	return string(f)
}

// Known reports whether f is one of the overridable fields.
func (f Field) Known() bool {
	_, ok := fieldFlags[f]
	return ok
}

// Settings is one environment's entry in the settings store.
type Settings struct {
	ClientID string `yaml:"client_id"`
}

// Secrets is the content of the secrets store.
type Secrets struct {
	Email    string
	Password string
}

// Config is the resolved configuration.
type Config struct {
	Env      string
	ClientID string
	Email    string
	Password string
}

// Settings returns the settings-store part of the configuration.
func (c Config) Settings() Settings {
	return Settings{ClientID: c.ClientID}
}

// Secrets returns the secrets-store part of the configuration.
func (c Config) Secrets() Secrets {
	return Secrets{Email: c.Email, Password: c.Password}
}

// Get returns the value of a field.
func (c Config) Get(f Field) string {
	switch f {
	case FieldUserEmail:
		return c.Email
	case FieldPassword:
		return c.Password
	case FieldClientID:
		return c.ClientID
	case FieldEnv:
		return c.Env
	default:
		return ""
	}
}

// Overrides holds values supplied on the command line or through the
// environment. Blank values never replace persisted ones.
type Overrides map[Field]string

// Empty reports whether no override carries a value.
func (o Overrides) Empty() bool {
	for _, v := range o {
		if v != "" {
			return false
		}
	}
	return true
}

// Options configures a Store.
type Options struct {
	// Dir is the project directory holding both stores.
	Dir string
	// SettingsFile and SecretsFile default to SettingsFileName and SecretsFileName.
	SettingsFile string
	SecretsFile  string
	// Env selects the initial namespace; defaults to DefaultEnv.
	Env string
}

func (o Options) withDefaults() Options {
	if o.Dir == "" {
		o.Dir = "."
	}
	if o.SettingsFile == "" {
		o.SettingsFile = SettingsFileName
	}
	if o.SecretsFile == "" {
		o.SecretsFile = SecretsFileName
	}
	if o.Env == "" {
		o.Env = DefaultEnv
	}
	return o
}

func (o Options) settingsPath() string {
	return filepath.Join(o.Dir, o.SettingsFile)
}

func (o Options) secretsPath() string {
	return filepath.Join(o.Dir, o.SecretsFile)
}
