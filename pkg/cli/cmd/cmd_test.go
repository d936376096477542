package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/rzbill/nak/internal/config"
	"github.com/rzbill/nak/pkg/artifact"
	"github.com/rzbill/nak/pkg/gateway"
	"github.com/rzbill/nak/pkg/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type uploadCall struct {
	opts    gateway.Options
	field   string
	name    string
	content []byte
}

type fakeUploader struct {
	opts  gateway.Options
	calls *[]uploadCall
	err   error
}

func (f *fakeUploader) UpdateApp(ctx context.Context, files map[string]gateway.File) (*gateway.Response, error) {
	for field, file := range files {
		data, err := io.ReadAll(file.Reader)
		if err != nil {
			return nil, err
		}
		*f.calls = append(*f.calls, uploadCall{opts: f.opts, field: field, name: file.Name, content: data})
	}
	if f.err != nil {
		var uploadErr *gateway.UploadError
		if errors.As(f.err, &uploadErr) {
			return &gateway.Response{StatusCode: uploadErr.StatusCode}, f.err
		}
		return nil, f.err
	}
	return &gateway.Response{OK: true, StatusCode: 200}, nil
}

// stubUploader swaps the gateway for a recorder that fails with err.
func stubUploader(t *testing.T, err error) *[]uploadCall {
	t.Helper()
	calls := &[]uploadCall{}
	orig := newUploader
	newUploader = func(opts gateway.Options, logger log.Logger) uploader {
		return &fakeUploader{opts: opts, calls: calls, err: err}
	}
	t.Cleanup(func() { newUploader = orig })
	return calls
}

type result struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, dir string, args ...string) result {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--dir", dir, "--no-color", "--no-progress"))

	err := root.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func newProject(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "shop")
	files := map[string]string{
		"index.html":       "<html></html>",
		"assets/site.css":  "body{}",
		"assets/logo.svg":  "<svg/>",
		"README.md":        "not packaged",
		"templates/a.html": "{{ a }}",
	}
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func zips(t *testing.T, dir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, config.BuildDirName, "*.zip"))
	require.NoError(t, err)
	return matches
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestSetupBuildPush(t *testing.T) {
	dir := newProject(t)
	calls := stubUploader(t, nil)

	res := run(t, dir, "build")
	require.Error(t, res.err)
	assert.Equal(t, "[development] Please check you are in correct directory.", res.err.Error())
	assert.NoDirExists(t, filepath.Join(dir, config.BuildDirName))

	res = run(t, dir, "push")
	require.Error(t, res.err)
	assert.True(t, config.IsConfigurationError(res.err))

	res = run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[development] App with client_id[ABCD1234] has been setup successfully.")
	assert.Contains(t, res.stdout, "Configuration was updated.")
	assert.Contains(t, res.stdout, "Environment was updated.")
	assert.Equal(t, "development:\n    client_id: ABCD1234\n", readFile(t, filepath.Join(dir, config.SettingsFileName)))
	assert.Equal(t, "email=dev@example.com\npassword=secret\n", readFile(t, filepath.Join(dir, config.SecretsFileName)))

	res = run(t, dir, "push")
	require.Error(t, res.err)
	assert.True(t, artifact.IsNoBuildArtifact(res.err))
	assert.Equal(t, "[development] Please run build before push command.", res.err.Error())
	assert.Empty(t, *calls)

	res = run(t, dir, "build")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[development] Build successfully.")
	assert.NotContains(t, res.stdout, "Configuration was updated.")
	built := zips(t, dir)
	require.Len(t, built, 1)
	assert.Regexp(t, `^shop-\d{14}\.zip$`, filepath.Base(built[0]))

	res = run(t, dir, "push")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[development] Pushing to app with client_id ABCD1234")
	assert.Contains(t, res.stdout, "[development] with filename "+filepath.Base(built[0]))
	assert.Contains(t, res.stdout, "[development] by username dev@example.com")
	assert.Contains(t, res.stdout, "[development] Push update file to app successfully.")
	assert.NotContains(t, res.stdout, "secret")

	require.Len(t, *calls, 1)
	call := (*calls)[0]
	assert.Equal(t, "file", call.field)
	assert.Equal(t, filepath.Base(built[0]), call.name)
	assert.Equal(t, readFile(t, built[0]), string(call.content))
	assert.Equal(t, "dev@example.com", call.opts.Email)
	assert.Equal(t, "secret", call.opts.Password)
	assert.Equal(t, "ABCD1234", call.opts.ClientID)
	assert.Equal(t, gateway.DefaultBaseURL, call.opts.BaseURL)
	assert.Equal(t, gateway.DefaultTimeout, call.opts.Timeout)
}

func TestSetupMissingFields(t *testing.T) {
	dir := newProject(t)

	res := run(t, dir, "setup", "-u", "dev@example.com")
	require.Error(t, res.err)
	assert.Equal(t, "[development] argument -p/--password, -c/--client_id are required.", res.err.Error())
	assert.NoFileExists(t, filepath.Join(dir, config.SettingsFileName))
	assert.NoFileExists(t, filepath.Join(dir, config.SecretsFileName))

	res = run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-e", "staging")
	require.Error(t, res.err)
	assert.Equal(t, "[staging] argument -c/--client_id is required.", res.err.Error())
}

func TestSetupIsIdempotent(t *testing.T) {
	dir := newProject(t)
	args := []string{"setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234"}

	require.NoError(t, run(t, dir, args...).err)
	res := run(t, dir, args...)
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "Configuration was updated.")
	assert.NotContains(t, res.stdout, "Environment was updated.")
	assert.Contains(t, res.stdout, "has been setup successfully.")
}

func TestSetupKeepsOtherEnvironments(t *testing.T) {
	dir := newProject(t)

	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "DEV1").err)
	res := run(t, dir, "setup", "-e", "production", "-c", "PROD1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "[production] App with client_id[PROD1] has been setup successfully.")

	assert.Equal(t,
		"development:\n    client_id: DEV1\nproduction:\n    client_id: PROD1\n",
		readFile(t, filepath.Join(dir, config.SettingsFileName)))
}

func TestSetupFromEnvironment(t *testing.T) {
	dir := newProject(t)
	t.Setenv("NAK_USER_EMAIL", "env@example.com")
	t.Setenv("NAK_PASSWORD", "from-env")
	t.Setenv("NAK_CLIENT_ID", "ENV1")

	res := run(t, dir, "setup", "-c", "FLAG1")
	require.NoError(t, res.err)
	assert.Equal(t, "development:\n    client_id: FLAG1\n", readFile(t, filepath.Join(dir, config.SettingsFileName)))
	assert.Equal(t, "email=env@example.com\npassword=from-env\n", readFile(t, filepath.Join(dir, config.SecretsFileName)))
}

func TestBuildPersistsOverrides(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234").err)

	res := run(t, dir, "build", "-c", "NEW1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Configuration was updated.")
	assert.NotContains(t, res.stdout, "Environment was updated.")
	assert.Equal(t, "development:\n    client_id: NEW1\n", readFile(t, filepath.Join(dir, config.SettingsFileName)))
	assert.Len(t, zips(t, dir), 1)
}

func TestBuildClientIDOverrideLeavesSecretsAlone(t *testing.T) {
	dir := newProject(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.SettingsFileName), []byte("development:\n    client_id: abc\n"), 0o644))

	res := run(t, dir, "build", "-c", "abc2")
	require.NoError(t, res.err)
	assert.Equal(t, "development:\n    client_id: abc2\n", readFile(t, filepath.Join(dir, config.SettingsFileName)))
	assert.NoFileExists(t, filepath.Join(dir, config.SecretsFileName))
	assert.NotContains(t, res.stdout, "Environment was updated.")
}

func TestPushKeepsSpecialCharactersInPassword(t *testing.T) {
	dir := newProject(t)
	calls := stubUploader(t, nil)
	const password = `Pa$SW0RD #1 'x' `

	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", password, "-c", "ABCD1234").err)
	res := run(t, dir, "setup", "-u", "dev@example.com", "-p", password, "-c", "ABCD1234")
	require.NoError(t, res.err)
	assert.NotContains(t, res.stdout, "Environment was updated.")

	require.NoError(t, run(t, dir, "build").err)
	require.NoError(t, run(t, dir, "push").err)
	require.Len(t, *calls, 1)
	assert.Equal(t, password, (*calls)[0].opts.Password)
}

func TestPushRejectedUpload(t *testing.T) {
	dir := newProject(t)
	calls := stubUploader(t, &gateway.UploadError{StatusCode: 400, Messages: []string{"Invalid archive."}})

	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234").err)
	require.NoError(t, run(t, dir, "build").err)

	res := run(t, dir, "push")
	require.NoError(t, res.err)
	assert.Len(t, *calls, 1)
	assert.Contains(t, res.stderr, "Uploading file to server failed. -> Invalid archive.")
	assert.NotContains(t, res.stdout, "Push update file to app successfully.")
}

func TestPushTransportError(t *testing.T) {
	dir := newProject(t)
	stubUploader(t, errors.New("connection refused"))

	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234").err)
	require.NoError(t, run(t, dir, "build").err)

	res := run(t, dir, "push")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "connection refused")
	assert.NotContains(t, res.stdout, "Push update file to app successfully.")
}

func TestPushUsesFlagOverrides(t *testing.T) {
	dir := newProject(t)
	calls := stubUploader(t, nil)

	require.NoError(t, run(t, dir, "setup", "-u", "dev@example.com", "-p", "secret", "-c", "ABCD1234").err)
	require.NoError(t, run(t, dir, "build").err)

	res := run(t, dir, "push", "--api-url", "http://localhost:8000", "--timeout", "30s")
	require.NoError(t, res.err)
	require.Len(t, *calls, 1)
	assert.Equal(t, "http://localhost:8000", (*calls)[0].opts.BaseURL)
	assert.Equal(t, "30s", (*calls)[0].opts.Timeout.String())
}

func TestVersionCommand(t *testing.T) {
	res := run(t, t.TempDir(), "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "nak ")
}

func TestHintFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "missing fields",
			err:  &config.ConfigurationError{Env: "development", Missing: []config.Field{config.FieldPassword}},
			want: "Pass the missing flags or run 'nak setup' to store them.",
		},
		{
			name: "wrong directory",
			err:  &config.ConfigurationError{Env: "development", Reason: "Please check you are in correct directory."},
			want: "Run nak from the project directory or pass --dir.",
		},
		{
			name: "no artifact",
			err:  &artifact.NoBuildArtifactError{Dir: ".tmp"},
			want: "Run 'nak build' first.",
		},
		{
			name: "other",
			err:  errors.New("boom"),
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, hintFor(tt.err))
		})
	}
}
