// Package config provides YAML-based configuration for the OCR client.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/gommon/bytes"
	"github.com/labstack/gommon/log"
	"gopkg.in/yaml.v3"
)

// AppConfig represents the root configuration structure
type AppConfig struct {
	// Server configuration
	Server ServerConfig `yaml:"server"`

	// Upload configuration
	Upload UploadConfig `yaml:"upload"`

	// Output configuration
	Output OutputConfig `yaml:"output"`

	// Advanced options
	Advanced AdvancedConfig `yaml:"advanced"`
}

// ServerConfig contains the OCR server location and HTTP settings
type ServerConfig struct {
	BaseURL        string `yaml:"baseUrl"`
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"apiKey"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	// Flow is "single" (one POST to endpoint) or "two-step"
	// (POST endpoint/upload, then POST endpoint/commit).
	Flow string `yaml:"flow"`
}

// UploadConfig contains pre-flight checks and progress settings
type UploadConfig struct {
	MaxUploadSize          string `yaml:"maxUploadSize"`
	AllowedFileTypes       string `yaml:"allowedFileTypes"`
	ProgressIntervalMillis int    `yaml:"progressIntervalMillis"`
}

// OutputConfig contains result presentation and download settings
type OutputConfig struct {
	Language          string `yaml:"language"`
	DownloadDirectory string `yaml:"downloadDirectory"`
	AutoDownload      bool   `yaml:"autoDownload"`
	Color             bool   `yaml:"color"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `yaml:"logLevel"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			BaseURL:        "http://localhost:8000",
			Endpoint:       "/ocr",
			TimeoutSeconds: 300,
			Flow:           "single",
		},
		Upload: UploadConfig{
			MaxUploadSize:          "50MB",
			AllowedFileTypes:       ".pdf",
			ProgressIntervalMillis: 100,
		},
		Output: OutputConfig{
			Language:          "ar",
			DownloadDirectory: "./downloads",
			AutoDownload:      false,
			Color:             true,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			EnableRequestLogging: false,
		},
	}
}

// LoadConfig loads configuration from a YAML file. A missing file yields
// the defaults; environment overrides apply either way.
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		// defaults
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	if err := config.applyEnvironmentOverrides(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves the configuration to a YAML file
func (c *AppConfig) Save(configPath string) error {
	output, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# OCR client configuration\n\n")
	content := append(header, output...)

	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks values that cannot be defaulted
func (c *AppConfig) Validate() error {
	if c.Server.BaseURL == "" {
		return fmt.Errorf("server.baseUrl must not be empty")
	}
	if c.Server.TimeoutSeconds < 0 {
		return fmt.Errorf("server.timeoutSeconds must not be negative")
	}
	switch c.Server.Flow {
	case "", "single", "two-step":
	default:
		return fmt.Errorf("unsupported server.flow %q (expected single or two-step)", c.Server.Flow)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return fmt.Errorf("invalid upload.maxUploadSize %q: %w", c.Upload.MaxUploadSize, err)
	}
	switch c.Output.Language {
	case "ar", "en":
	default:
		return fmt.Errorf("unsupported output.language %q", c.Output.Language)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() error {
	if url := os.Getenv("OCR_SERVER_URL"); url != "" {
		c.Server.BaseURL = url
	}

	// OCR_API_KEY wins over the upstream provider's own variable
	if key := os.Getenv("OCR_API_KEY"); key != "" {
		c.Server.APIKey = key
	} else if key := os.Getenv("MISTRAL_API_KEY"); key != "" && c.Server.APIKey == "" {
		c.Server.APIKey = key
	}

	if dir := os.Getenv("OCR_DOWNLOAD_DIR"); dir != "" {
		c.Output.DownloadDirectory = dir
	}

	if timeout := os.Getenv("OCR_TIMEOUT_SECONDS"); timeout != "" {
		t, err := strconv.Atoi(strings.TrimSpace(timeout))
		if err != nil {
			return fmt.Errorf("invalid OCR_TIMEOUT_SECONDS %q: %w", timeout, err)
		}
		c.Server.TimeoutSeconds = t
	}

	return nil
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.Output.DownloadDirectory) {
		c.Output.DownloadDirectory = filepath.Join(configDir, c.Output.DownloadDirectory)
	}
}

// GetEndpointURL returns the full URL of the OCR endpoint
func (c *AppConfig) GetEndpointURL() string {
	endpoint := c.Server.Endpoint
	if endpoint == "" {
		endpoint = "/ocr"
	}
	if !strings.HasPrefix(endpoint, "/") {
		endpoint = "/" + endpoint
	}
	return strings.TrimRight(c.Server.BaseURL, "/") + endpoint
}

// MaxUploadBytes returns the parsed upload size limit; 0 means unlimited
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	if strings.TrimSpace(c.Upload.MaxUploadSize) == "" {
		return 0, nil
	}
	return bytes.Parse(c.Upload.MaxUploadSize)
}

// GetAllowedExtensions returns the lower-cased list of allowed extensions
func (c *AppConfig) GetAllowedExtensions() []string {
	var exts []string
	for _, ext := range strings.Split(c.Upload.AllowedFileTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		exts = append(exts, ext)
	}
	return exts
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	if err := os.MkdirAll(c.Output.DownloadDirectory, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", c.Output.DownloadDirectory, err)
	}
	return nil
}

// GetLogLevel maps advanced.logLevel onto a logger level
func (c *AppConfig) GetLogLevel() log.Lvl {
	switch strings.ToLower(c.Advanced.LogLevel) {
	case "debug":
		return log.DEBUG
	case "warn", "warning":
		return log.WARN
	case "error":
		return log.ERROR
	case "off":
		return log.OFF
	default:
		return log.INFO
	}
}
