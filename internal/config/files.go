package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	settingsFileMode = 0o644
	secretsFileMode  = 0o600

	secretsEmailKey    = "email"
	secretsPasswordKey = "password"
)

// readSettings decodes the settings document. A missing file yields an empty
// document and found=false.
func readSettings(path string) (doc map[string]Settings, found bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]Settings{}, false, nil
		}
		return nil, false, err
	}

	doc = map[string]Settings{}
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, true, nil
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, true, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if doc == nil {
		doc = map[string]Settings{}
	}
	return doc, true, nil
}

func writeSettings(path string, doc map[string]Settings) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, settingsFileMode)
}

// readSecrets decodes the key=value secrets file. Values are taken verbatim
// after the first '=' so passwords keep '#', '$', quotes and trailing spaces.
func readSecrets(path string) (secrets Secrets, found bool, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Secrets{}, false, nil
		}
		return Secrets{}, false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case secretsEmailKey:
			secrets.Email = value
		case secretsPasswordKey:
			secrets.Password = value
		}
	}
	if err := scanner.Err(); err != nil {
		return Secrets{}, true, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return secrets, true, nil
}

// writeSecrets rewrites the whole secrets file; it is never patched in place.
func writeSecrets(path string, secrets Secrets) error {
	content := fmt.Sprintf("%s=%s\n%s=%s\n",
		secretsEmailKey, secrets.Email,
		secretsPasswordKey, secrets.Password)
	return os.WriteFile(path, []byte(content), secretsFileMode)
}
