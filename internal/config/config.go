package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = "harding.yaml"

// Config holds application configuration.
type Config struct {
	// Provider is the AI service: gemini, openai or ollama.
	Provider string `yaml:"provider"`

	// EditModel generates and edits pixels. Empty means the provider default.
	EditModel string `yaml:"edit_model"`

	// EnhanceModel suggests auto-enhancement values. Empty means the provider default.
	EnhanceModel string `yaml:"enhance_model"`

	Temperature float64 `yaml:"temperature"`

	// ExportPrefix is prepended to every exported file name.
	ExportPrefix string `yaml:"export_prefix"`

	// ExportDir is where the server writes exports.
	ExportDir string `yaml:"export_dir"`

	// ExportDelay paces consecutive exports.
	ExportDelay time.Duration `yaml:"export_delay"`

	// MinPreviewBytes is the smallest embedded JPEG kept when scanning RAW files.
	MinPreviewBytes int `yaml:"min_preview_bytes"`

	JPEGQuality    int   `yaml:"jpeg_quality"`
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`
	Port           int   `yaml:"port"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider:        "gemini",
		ExportPrefix:    "harding-",
		ExportDir:       "exports",
		ExportDelay:     500 * time.Millisecond,
		MinPreviewBytes: 20 * 1024,
		JPEGQuality:     92,
		MaxUploadBytes:  100 << 20,
		Port:            8888,
	}
}

// Load reads path (DefaultFile when empty), lays it over the defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultFile
	}
	file, err := loadFileRaw(path)
	if err != nil {
		return nil, err
	}
	cfg := Merge(DefaultConfig(), file)
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// loadFileRaw returns a zero config when the file doesn't exist.
func loadFileRaw(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Merge combines base and overlay configs. Non-zero overlay values win.
func Merge(base, overlay *Config) *Config {
	result := *base
	if overlay.Provider != "" {
		result.Provider = overlay.Provider
	}
	if overlay.EditModel != "" {
		result.EditModel = overlay.EditModel
	}
	if overlay.EnhanceModel != "" {
		result.EnhanceModel = overlay.EnhanceModel
	}
	if overlay.Temperature != 0 {
		result.Temperature = overlay.Temperature
	}
	if overlay.ExportPrefix != "" {
		result.ExportPrefix = overlay.ExportPrefix
	}
	if overlay.ExportDir != "" {
		result.ExportDir = overlay.ExportDir
	}
	if overlay.ExportDelay != 0 {
		result.ExportDelay = overlay.ExportDelay
	}
	if overlay.MinPreviewBytes != 0 {
		result.MinPreviewBytes = overlay.MinPreviewBytes
	}
	if overlay.JPEGQuality != 0 {
		result.JPEGQuality = overlay.JPEGQuality
	}
	if overlay.MaxUploadBytes != 0 {
		result.MaxUploadBytes = overlay.MaxUploadBytes
	}
	if overlay.Port != 0 {
		result.Port = overlay.Port
	}
	return &result
}

// ApplyEnv overrides fields from HARDING_* variables and the provider model
// variables. API keys are read by the providers themselves.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("HARDING_PROVIDER"); v != "" {
		c.Provider = v
	}
	if v := os.Getenv("GEMINI_IMAGE_MODEL"); v != "" && c.Provider == "gemini" {
		c.EditModel = v
	}
	if v := os.Getenv("HARDING_ENHANCE_MODEL"); v != "" {
		c.EnhanceModel = v
	}
	if v := os.Getenv("HARDING_EXPORT_PREFIX"); v != "" {
		c.ExportPrefix = v
	}
	if v := os.Getenv("HARDING_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
	if v := os.Getenv("HARDING_EXPORT_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid HARDING_EXPORT_DELAY %q: %w", v, err)
		}
		c.ExportDelay = d
	}
	if v := os.Getenv("HARDING_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid HARDING_PORT %q: %w", v, err)
		}
		c.Port = port
	}
	return nil
}

// Validate rejects values the rest of the application cannot use.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "ollama":
	default:
		return fmt.Errorf("unsupported provider: %s", c.Provider)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality)
	}
	if c.ExportDelay < 0 {
		return fmt.Errorf("export_delay must not be negative, got %s", c.ExportDelay)
	}
	if c.MinPreviewBytes < 0 || c.MaxUploadBytes <= 0 {
		return fmt.Errorf("min_preview_bytes and max_upload_bytes must be positive")
	}
	return nil
}

// EditModelName returns EditModel or the provider's default image model.
func (c *Config) EditModelName() string {
	if c.EditModel != "" {
		return c.EditModel
	}
	switch c.Provider {
	case "gemini":
		return "gemini-2.5-flash-image"
	case "openai":
		return "gpt-image-1"
	default:
		return ""
	}
}

// EnhanceModelName returns EnhanceModel or the provider's default vision model.
func (c *Config) EnhanceModelName() string {
	if c.EnhanceModel != "" {
		return c.EnhanceModel
	}
	switch c.Provider {
	case "gemini":
		return "gemini-2.5-flash"
	case "openai":
		model := os.Getenv("OPENAI_MODEL")
		if model == "" {
			return "gpt-4o"
		}
		return model
	case "ollama":
		model := os.Getenv("OLLAMA_MODEL")
		if model == "" {
			return "llava"
		}
		return strings.TrimSpace(model)
	default:
		return ""
	}
}
