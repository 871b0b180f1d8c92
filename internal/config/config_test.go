package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/labstack/gommon/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{"OCR_SERVER_URL", "OCR_API_KEY", "MISTRAL_API_KEY", "OCR_DOWNLOAD_DIR", "OCR_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "ocrclient.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8000/ocr", cfg.GetEndpointURL())
	assert.Equal(t, "ar", cfg.Output.Language)
	assert.Equal(t, filepath.Join(dir, "downloads"), cfg.Output.DownloadDirectory)
	assert.Equal(t, []string{".pdf"}, cfg.GetAllowedExtensions())
	assert.Equal(t, "single", cfg.Server.Flow)
}

func TestLoadConfig_ParsesYAML(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "ocrclient.yaml")
	content := `
server:
  baseUrl: https://tools.example.net/
  endpoint: api/ocr
  apiKey: from-file
  flow: two-step
upload:
  maxUploadSize: 10MB
  allowedFileTypes: "PDF, .tiff"
output:
  language: en
  downloadDirectory: /tmp/ocr-out
advanced:
  logLevel: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://tools.example.net/api/ocr", cfg.GetEndpointURL())
	assert.Equal(t, "from-file", cfg.Server.APIKey)
	assert.Equal(t, "two-step", cfg.Server.Flow)
	assert.Equal(t, "en", cfg.Output.Language)
	assert.Equal(t, "/tmp/ocr-out", cfg.Output.DownloadDirectory)
	assert.Equal(t, []string{".pdf", ".tiff"}, cfg.GetAllowedExtensions())
	assert.Equal(t, log.DEBUG, cfg.GetLogLevel())

	limit, err := cfg.MaxUploadBytes()
	require.NoError(t, err)
	assert.Greater(t, limit, int64(9_000_000))
	assert.Less(t, limit, int64(11_000_000))

	// Fields left out of the file keep their defaults
	assert.Equal(t, 300, cfg.Server.TimeoutSeconds)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_SERVER_URL", "http://ocr.internal:9000")
	t.Setenv("MISTRAL_API_KEY", "mistral-key")
	t.Setenv("OCR_TIMEOUT_SECONDS", "12")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "http://ocr.internal:9000/ocr", cfg.GetEndpointURL())
	assert.Equal(t, "mistral-key", cfg.Server.APIKey)
	assert.Equal(t, 12, cfg.Server.TimeoutSeconds)

	t.Setenv("OCR_API_KEY", "explicit-key")
	cfg, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "explicit-key", cfg.Server.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	clearEnv(t)
	tests := []struct {
		name    string
		content string
	}{
		{"malformed yaml", "server: [unterminated"},
		{"bad size", "upload:\n  maxUploadSize: lots\n"},
		{"unknown language", "output:\n  language: fr\n"},
		{"empty base url", "server:\n  baseUrl: \"\"\n"},
		{"unknown flow", "server:\n  flow: batch\n"},
		{"negative timeout", "server:\n  timeoutSeconds: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "ocrclient.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_NonNumericTimeoutIsRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("OCR_TIMEOUT_SECONDS", "5m")

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OCR_TIMEOUT_SECONDS")
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "ocrclient.yaml")

	cfg := DefaultConfig()
	cfg.Server.BaseURL = "https://tools.example.net"
	cfg.Output.Language = "en"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "https://tools.example.net", loaded.Server.BaseURL)
	assert.Equal(t, "en", loaded.Output.Language)
}

func TestGetLogLevel(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, log.INFO, cfg.GetLogLevel())

	cfg.Advanced.LogLevel = "WARN"
	assert.Equal(t, log.WARN, cfg.GetLogLevel())

	cfg.Advanced.LogLevel = "off"
	assert.Equal(t, log.OFF, cfg.GetLogLevel())
}
