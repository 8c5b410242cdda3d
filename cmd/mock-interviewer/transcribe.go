package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/chaz8081/mock-interviewer/internal/audio"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
)

var transcribeCmd = &cobra.Command{
	Use:   "transcribe [file.wav]",
	Short: "Transcribe a WAV file or one microphone recording",
	Long:  "Run the answer transcription path on a WAV file, or record one answer from the microphone when no file is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runTranscribe,
}

func init() {
	rootCmd.AddCommand(transcribeCmd)
}

func runTranscribe(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	log := newLogger(cfg)

	engine, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return fmt.Errorf("load speech model: %w", err)
	}
	defer func() { _ = engine.Close() }()

	var clip audio.Clip
	if len(args) == 1 {
		clip, err = audio.ReadWAVFile(args[0])
		if err != nil {
			return err
		}
	} else {
		rec, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
		if err != nil {
			return fmt.Errorf("init audio recorder: %w", err)
		}
		defer func() { _ = rec.Close() }()

		fmt.Fprintf(cmd.OutOrStdout(), "Recording %s, speak now...\n", cfg.Audio.RecordDuration)
		clip, err = rec.Record(cmd.Context(), cfg.Audio.RecordDuration, func(elapsed, total time.Duration) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r  %4.1fs / %.0fs", elapsed.Seconds(), total.Seconds())
		})
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return err
		}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Transcribing..."
	s.Writer = os.Stderr
	s.Start()
	adapter := transcribe.NewFileAdapter(engine, cfg.Transcribe.TempDir, cfg.Transcribe.CleanupRetryDelay, log)
	res, err := adapter.Transcribe(cmd.Context(), clip)
	s.Stop()

	for _, w := range res.Warnings {
		fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Text)
	return nil
}
