package config

import (
	"fmt"

	"github.com/rzbill/nak/pkg/log"
)

// Store loads, merges, validates and persists the project configuration.
//
// Settings are namespaced by environment; secrets are shared by all
// environments. Each store is written only when its content changed.
type Store struct {
	opts   Options
	logger log.Logger

	cfg Config

	settings      map[string]Settings
	settingsFound bool
	secretsFound  bool

	// clientIDOverridden keeps an explicit client id across env switches.
	clientIDOverridden bool
}

// PersistResult tells which stores a Persist call rewrote.
type PersistResult struct {
	SettingsWritten bool
	SecretsWritten  bool
}

// Changed reports whether anything was written.
func (r PersistResult) Changed() bool {
	return r.SettingsWritten || r.SecretsWritten
}

// SaveOptions controls Save.
type SaveOptions struct {
	// Required fields must be non-empty or Save fails before writing.
	Required []Field
	// Persist must be set for Save to write anything.
	Persist bool
}

// NewStore creates a store; call Load before reading the configuration.
func NewStore(opts Options, logger log.Logger) *Store {
	opts = opts.withDefaults()
	return &Store{
		opts:     opts,
		logger:   logger.WithComponent("config"),
		cfg:      Config{Env: opts.Env},
		settings: map[string]Settings{},
	}
}

// Open creates a store and loads the persisted state.
func Open(opts Options, logger log.Logger) (*Store, error) {
	s := NewStore(opts, logger)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Load reads both stores. Missing files are not an error.
func (s *Store) Load() error {
	settings, settingsFound, err := readSettings(s.opts.settingsPath())
	if err != nil {
		return err
	}
	secrets, secretsFound, err := readSecrets(s.opts.secretsPath())
	if err != nil {
		return err
	}

	s.settings = settings
	s.settingsFound = settingsFound
	s.secretsFound = secretsFound
	s.clientIDOverridden = false

	s.cfg.ClientID = settings[s.cfg.Env].ClientID
	s.cfg.Email = secrets.Email
	s.cfg.Password = secrets.Password

	s.logger.Debug("Loaded configuration",
		log.Env(s.cfg.Env),
		log.Bool("settings_found", settingsFound),
		log.Bool("secrets_found", secretsFound))
	return nil
}

// Config returns the resolved configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Env returns the active environment.
func (s *Store) Env() string {
	return s.cfg.Env
}

// ApplyOverrides merges non-empty overrides into the configuration. The
// environment is switched first so a client id override lands on the selected
// namespace. Unknown fields are rejected and nothing is applied.
func (s *Store) ApplyOverrides(overrides Overrides) error {
	for f := range overrides {
		if !f.Known() {
			return &ConfigurationError{
				Env:    s.cfg.Env,
				Reason: fmt.Sprintf("unknown configuration field %q.", string(f)),
			}
		}
	}

	if env := overrides[FieldEnv]; env != "" && env != s.cfg.Env {
		s.cfg.Env = env
		if !s.clientIDOverridden {
			s.cfg.ClientID = s.settings[env].ClientID
		}
	}
	if v := overrides[FieldClientID]; v != "" {
		s.cfg.ClientID = v
		s.clientIDOverridden = true
	}
	if v := overrides[FieldUserEmail]; v != "" {
		s.cfg.Email = v
	}
	if v := overrides[FieldPassword]; v != "" {
		s.cfg.Password = v
	}
	return nil
}

// Validate fails with a ConfigurationError listing every required field that
// is empty.
func (s *Store) Validate(required ...Field) error {
	var missing []Field
	for _, f := range RequiredFields {
		if !containsField(required, f) {
			continue
		}
		if s.cfg.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &ConfigurationError{Env: s.cfg.Env, Missing: missing}
	}
	return nil
}

// CheckPrerequisites fails when neither store exists in the project directory.
func (s *Store) CheckPrerequisites() error {
	if s.settingsFound || s.secretsFound {
		return nil
	}
	return &ConfigurationError{
		Env:    s.cfg.Env,
		Reason: "Please check you are in correct directory.",
	}
}

// Persist writes each store whose on-disk content differs from the resolved
// configuration. The active namespace entry is replaced as a whole; other
// namespaces are kept. A store that does not exist yet is only created when
// it would hold a value.
func (s *Store) Persist() (PersistResult, error) {
	var res PersistResult
	logger := s.logger.With(log.Env(s.cfg.Env))

	settings, settingsFound, err := readSettings(s.opts.settingsPath())
	if err != nil {
		return res, err
	}
	current, ok := settings[s.cfg.Env]
	wanted := s.cfg.Settings()
	if (settingsFound || wanted != Settings{}) && (!ok || current != wanted) {
		settings[s.cfg.Env] = wanted
		if err := writeSettings(s.opts.settingsPath(), settings); err != nil {
			return res, err
		}
		res.SettingsWritten = true
		settingsFound = true
		logger.Info("Configuration was updated.", log.Str("file", s.opts.SettingsFile))
	}
	s.settings = settings
	s.settingsFound = settingsFound

	secrets, secretsFound, err := readSecrets(s.opts.secretsPath())
	if err != nil {
		return res, err
	}
	wantedSecrets := s.cfg.Secrets()
	if (secretsFound || wantedSecrets != Secrets{}) && (!secretsFound || secrets != wantedSecrets) {
		if err := writeSecrets(s.opts.secretsPath(), wantedSecrets); err != nil {
			return res, err
		}
		res.SecretsWritten = true
		secretsFound = true
		logger.Info("Environment was updated.", log.Str("file", s.opts.SecretsFile))
	}
	s.secretsFound = secretsFound

	return res, nil
}

// Save validates the required fields, then persists when opts.Persist is set.
// Nothing is written when validation fails.
func (s *Store) Save(opts SaveOptions) (PersistResult, error) {
	if err := s.Validate(opts.Required...); err != nil {
		return PersistResult{}, err
	}
	if !opts.Persist {
		return PersistResult{}, nil
	}
	return s.Persist()
}

func containsField(fields []Field, f Field) bool {
	for _, candidate := range fields {
		if candidate == f {
			return true
		}
	}
	return false
}
