// Command mock-interviewer runs a voice-driven mock technical interview in
// the browser and writes a PDF performance report at the end.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/config"
	"github.com/chaz8081/mock-interviewer/internal/logging"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:           "mock-interviewer",
	Short:         "Voice-driven mock technical interviews",
	Long:          "mock-interviewer asks resume-based interview questions, transcribes spoken answers with whisper.cpp, and produces a PDF performance analysis.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: ~/.config/mock-interviewer/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log_level from config (debug, info, warn, error)")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig loads the config from the specified path, or falls back to
// the default config path, or uses built-in defaults. The result is validated.
func loadConfig(path string) (*config.Config, string, error) {
	cfg, source, err := readConfig(path)
	if err != nil {
		return nil, "", err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("config validation: %w", err)
	}
	return cfg, source, nil
}

func readConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}

	defaultPath := config.DefaultConfigPath()
	if _, err := os.Stat(defaultPath); err == nil {
		cfg, err := config.Load(defaultPath)
		if err != nil {
			return nil, "", fmt.Errorf("loading %s: %w", defaultPath, err)
		}
		return cfg, defaultPath, nil
	}

	return config.Default(), "", nil
}

func newLogger(cfg *config.Config) zerolog.Logger {
	return logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
}

// printBanner displays the startup configuration summary.
func printBanner(w io.Writer, cfg *config.Config, source string) {
	title := color.New(color.FgCyan, color.Bold)
	label := color.New(color.FgHiBlack)

	if source == "" {
		source = "built-in defaults"
	}
	hotkey := "disabled"
	if cfg.Hotkey.Enabled {
		hotkey = strings.Join(cfg.Hotkey.Keys, "+")
	}

	title.Fprintln(w, "=== mock-interviewer ===")
	rows := [][2]string{
		{"Config", source},
		{"UI", "http://" + cfg.Server.Addr},
		{"Model", cfg.Transcribe.ModelPath},
		{"Language", cfg.Transcribe.Language},
		{"LLM", cfg.Generation.Provider + "/" + cfg.Generation.Model},
		{"Audio", fmt.Sprintf("%dHz, %dch, %s per answer", cfg.Audio.SampleRate, cfg.Audio.Channels, cfg.Audio.RecordDuration)},
		{"Hotkey", hotkey},
		{"Log", cfg.LogLevel},
	}
	for _, r := range rows {
		label.Fprintf(w, "  %-9s", r[0]+":")
		fmt.Fprintln(w, r[1])
	}
	title.Fprintln(w, "========================")
}
