package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/config"
	"github.com/chaz8081/mock-interviewer/internal/models"
)

var (
	downloadVariant string
	downloadDir     string
)

var downloadModelCmd = &cobra.Command{
	Use:   "download-model",
	Short: "Download a whisper.cpp speech model",
	Long:  "Download the ggml whisper model for the configured (or given) variant from Hugging Face.",
	RunE:  runDownloadModel,
}

func init() {
	downloadModelCmd.Flags().StringVar(&downloadVariant, "variant", "", "model variant, e.g. base, base.en, small (default: transcribe.model_variant)")
	downloadModelCmd.Flags().StringVar(&downloadDir, "dir", "", "destination directory (default: ~/.local/share/mock-interviewer/models)")
	rootCmd.AddCommand(downloadModelCmd)
}

func runDownloadModel(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	variant := downloadVariant
	if variant == "" {
		variant = cfg.Transcribe.ModelVariant
	}
	dir := downloadDir
	if dir == "" {
		dir = config.DefaultModelsDir()
	}

	out := cmd.OutOrStdout()
	path, err := models.NewDownloader(out).DownloadWhisper(cmd.Context(), variant, dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Model ready: %s\n", path)
	if path != cfg.Transcribe.ModelPath {
		fmt.Fprintf(out, "Set transcribe.model_path to %s to use it.\n", path)
	}
	return nil
}
