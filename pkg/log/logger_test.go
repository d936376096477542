package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func TestTextFormatter(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(
		WithFormatter(&TextFormatter{DisableColors: true}),
		WithOutput(NewConsoleOutput(WithCustomWriter(&out))),
		WithClock(fixedClock),
	)

	logger.With(Env("development")).Info("Build successfully.", Str("file", "app.zip"), Int("files", 3))

	assert.Equal(t, "2024-03-09 14:05:07 INFO [development] Build successfully. file=app.zip files=3\n", out.String())
}

func TestLevelFiltering(t *testing.T) {
	var out bytes.Buffer
	logger := NewLogger(
		WithLevel(WarnLevel),
		WithFormatter(&TextFormatter{DisableColors: true, DisableTimestamp: true}),
		WithOutput(NewConsoleOutput(WithCustomWriter(&out))),
	)

	logger.Info("hidden")
	logger.Debugf("hidden %d", 1)
	logger.Warnf("shown %d", 2)

	assert.Equal(t, "WARN shown 2\n", out.String())
}

func TestErrorsGoToErrorWriter(t *testing.T) {
	var out, errOut bytes.Buffer
	logger, err := ApplyConfig(&Config{
		Level:         "debug",
		Format:        "text",
		DisableColors: true,
		Writer:        &out,
		ErrorWriter:   &errOut,
	})
	require.NoError(t, err)

	logger.WithError(errors.New("boom")).Error("upload failed")
	logger.Info("ok")

	assert.Contains(t, errOut.String(), "ERROR upload failed error=boom")
	assert.NotContains(t, out.String(), "upload failed")
	assert.Contains(t, out.String(), "INFO ok")
}

func TestJSONFormatterAndRedaction(t *testing.T) {
	var out bytes.Buffer
	logger, err := ApplyConfig(&Config{
		Level:          "info",
		Format:         "json",
		RedactedFields: []string{"password"},
		Writer:         &out,
	})
	require.NoError(t, err)

	logger.Info("credentials", Str("password", "hunter2"), Str("user_email", "dev@example.com"))

	var data map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &data))
	assert.Equal(t, "INFO", data["level"])
	assert.Equal(t, "credentials", data["message"])
	assert.Equal(t, RedactedValue, data["password"])
	assert.Equal(t, "dev@example.com", data["user_email"])
}

func TestApplyConfigRejectsUnknownValues(t *testing.T) {
	_, err := ApplyConfig(&Config{Level: "loud"})
	assert.Error(t, err)

	_, err = ApplyConfig(&Config{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

func TestTestLoggerSharesCapture(t *testing.T) {
	logger := NewTestLogger()
	child := logger.With(Env("production")).WithComponent("store")

	child.Info("Configuration was updated.")
	logger.Infof("done %s", "now")

	assert.Equal(t, 1, logger.CountMessages("Configuration was updated."))
	assert.True(t, logger.AssertLoggedWithField(InfoLevel, "Configuration", EnvKey, "production"))
	assert.True(t, logger.AssertLogged(InfoLevel, "done now"))
	assert.Len(t, logger.GetEntries(), 2)
}
