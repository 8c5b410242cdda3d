package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	LogLevel   string           `yaml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat  string           `yaml:"log_format" validate:"oneof=console json"`
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Generation GenerationConfig `yaml:"generation"`
	Report     ReportConfig     `yaml:"report"`
	Hotkey     HotkeyConfig     `yaml:"hotkey"`
}

// ServerConfig holds the HTTP UI settings.
type ServerConfig struct {
	Addr string `yaml:"addr" validate:"required,hostname_port"`
}

// AudioConfig holds audio capture settings.
type AudioConfig struct {
	SampleRate     uint32        `yaml:"sample_rate" validate:"gt=0"`
	Channels       uint32        `yaml:"channels" validate:"gt=0"`
	RecordDuration time.Duration `yaml:"record_duration" validate:"gt=0"`
}

// TranscribeConfig holds speech-to-text settings.
type TranscribeConfig struct {
	Backend           string        `yaml:"backend" validate:"oneof=whisper"`
	ModelPath         string        `yaml:"model_path" validate:"required"`
	ModelVariant      string        `yaml:"model_variant" validate:"required"` // e.g. "base", "base.en", "small"
	Language          string        `yaml:"language" validate:"required"`      // "auto" or an ISO code
	TempDir           string        `yaml:"temp_dir"`                          // empty means os.TempDir()
	CleanupRetryDelay time.Duration `yaml:"cleanup_retry_delay" validate:"gte=0"`
}

// GenerationConfig holds language model settings. The API key itself is
// never stored here, only the name of the environment variable holding it.
type GenerationConfig struct {
	Provider    string   `yaml:"provider" validate:"oneof=gemini"`
	Model       string   `yaml:"model" validate:"required"`
	APIKeyEnv   string   `yaml:"api_key_env" validate:"required"`
	Temperature *float32 `yaml:"temperature,omitempty" validate:"omitempty,gte=0,lte=2"`
}

// ReportConfig holds PDF report settings.
type ReportConfig struct {
	// FontDir and FontFile select a UTF-8 TrueType font. When FontFile is
	// empty the core Helvetica font is used.
	FontDir  string `yaml:"font_dir"`
	FontFile string `yaml:"font_file"`
}

// HotkeyConfig holds the optional push-to-talk hotkey.
type HotkeyConfig struct {
	Enabled bool     `yaml:"enabled"`
	Keys    []string `yaml:"keys" validate:"required_if=Enabled true,dive,required"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "mock-interviewer")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// DefaultModelsDir returns the directory whisper models are downloaded to.
func DefaultModelsDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "mock-interviewer", "models")
}

// WhisperModelFile returns the ggml file name for a whisper model variant.
func WhisperModelFile(variant string) string {
	return "ggml-" + variant + ".bin"
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		LogLevel:  "info",
		LogFormat: "console",
		Server: ServerConfig{
			Addr: "127.0.0.1:8501",
		},
		Audio: AudioConfig{
			SampleRate:     44100,
			Channels:       1,
			RecordDuration: 10 * time.Second,
		},
		Transcribe: TranscribeConfig{
			Backend:           "whisper",
			ModelPath:         filepath.Join(DefaultModelsDir(), WhisperModelFile("base")),
			ModelVariant:      "base",
			Language:          "auto",
			CleanupRetryDelay: 100 * time.Millisecond,
		},
		Generation: GenerationConfig{
			Provider:  "gemini",
			Model:     "gemini-2.5-flash-lite",
			APIKeyEnv: "GEMINI_API_KEY",
		},
		Hotkey: HotkeyConfig{
			Enabled: false,
			Keys:    []string{"ctrl", "shift", "r"},
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in paths is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Transcribe.ModelPath = expandTilde(cfg.Transcribe.ModelPath)
	cfg.Transcribe.TempDir = expandTilde(cfg.Transcribe.TempDir)
	cfg.Report.FontDir = expandTilde(cfg.Report.FontDir)

	return cfg, nil
}

// WriteDefault writes the default config to DefaultConfigPath if no file
// exists there yet, and returns the path.
func WriteDefault() (string, error) {
	return WriteDefaultTo(DefaultConfigPath())
}

// WriteDefaultTo writes the default config to path unless a file already
// exists there.
func WriteDefaultTo(path string) (string, error) {
	if _, err := os.Stat(path); err == nil {
		return path, fmt.Errorf("config file already exists: %s", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

// APIKey reads the generation API key from the configured environment variable.
func (c *Config) APIKey() (string, error) {
	key := strings.TrimSpace(os.Getenv(c.Generation.APIKeyEnv))
	if key == "" {
		return "", fmt.Errorf("%s environment variable is required", c.Generation.APIKeyEnv)
	}
	return key, nil
}

// describe turns a validator field error into a message naming the YAML key.
func describe(fe validator.FieldError) string {
	key := yamlKey(fe.Namespace())
	switch fe.Tag() {
	case "required", "required_if":
		return fmt.Sprintf("%s must not be empty", key)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fmt.Sprint(fe.Value()))
	case "gt":
		return fmt.Sprintf("%s must be > %s", key, fe.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s)", key, fe.Tag(), fe.Param())
	case "hostname_port":
		return fmt.Sprintf("%s must be host:port, got %q", key, fmt.Sprint(fe.Value()))
	default:
		return fmt.Sprintf("%s failed %q validation", key, fe.Tag())
	}
}

// yamlKey maps "Config.Audio.SampleRate" to "audio.sample_rate".
func yamlKey(namespace string) string {
	parts := strings.Split(namespace, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		parts[i] = snake(p)
	}
	return strings.Join(parts, ".")
}

func snake(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		upper := r >= 'A' && r <= 'Z'
		if upper && i > 0 {
			prevLower := runes[i-1] >= 'a' && runes[i-1] <= 'z'
			nextLower := i+1 < len(runes) && runes[i+1] >= 'a' && runes[i+1] <= 'z'
			if prevLower || nextLower {
				b.WriteByte('_')
			}
		}
		if upper {
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
