package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/chaz8081/mock-interviewer/internal/audio"
	"github.com/chaz8081/mock-interviewer/internal/extract"
	"github.com/chaz8081/mock-interviewer/internal/hotkey"
	"github.com/chaz8081/mock-interviewer/internal/interview"
	"github.com/chaz8081/mock-interviewer/internal/llm"
	"github.com/chaz8081/mock-interviewer/internal/report"
	"github.com/chaz8081/mock-interviewer/internal/server"
	"github.com/chaz8081/mock-interviewer/internal/transcribe"
	"github.com/chaz8081/mock-interviewer/web"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the interview UI",
	Long:  "Load the speech model, open the microphone, and serve the interview UI over HTTP until interrupted.",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, source, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}
	log := newLogger(cfg)

	apiKey, err := cfg.APIKey()
	if err != nil {
		return err
	}

	printBanner(cmd.OutOrStdout(), cfg, source)

	log.Info().Str("path", cfg.Transcribe.ModelPath).Msg("loading speech model")
	modelStart := time.Now()
	engine, err := transcribe.New(&cfg.Transcribe)
	if err != nil {
		return fmt.Errorf("load speech model: %w\n\nCheck that the model file exists at: %s\nRun 'mock-interviewer download-model' to download it", err, cfg.Transcribe.ModelPath)
	}
	defer func() { _ = engine.Close() }()
	log.Info().Dur("took", time.Since(modelStart).Round(time.Millisecond)).Msg("speech model loaded")

	recorder, err := audio.NewRecorder(cfg.Audio.SampleRate, cfg.Audio.Channels)
	if err != nil {
		return fmt.Errorf("init audio recorder: %w\n\nEnsure microphone access is granted for this terminal", err)
	}
	defer func() { _ = recorder.Close() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := llm.NewClient(ctx, &cfg.Generation, apiKey)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	ctrl := interview.NewController(interview.Deps{
		Extractor:      extract.New(),
		Recorder:       recorder,
		Transcriber:    transcribe.NewFileAdapter(engine, cfg.Transcribe.TempDir, cfg.Transcribe.CleanupRetryDelay, log),
		Generator:      llm.NewInterviewer(client, log),
		Renderer:       report.NewRenderer(cfg.Report),
		RecordDuration: cfg.Audio.RecordDuration,
	}, log)
	dispatcher := interview.NewDispatcher(ctrl, interview.NewSession(), log)

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(dispatcher, web.SPAHandler(), log).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return dispatcher.Run(gctx)
	})

	g.Go(func() error {
		log.Info().Str("addr", "http://"+srv.Addr).Msg("interview UI listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Hotkey.Enabled {
		listener := hotkey.NewListener(cfg.Hotkey.Keys, log)
		g.Go(func() error {
			return listener.Run(gctx)
		})
		g.Go(func() error {
			return hotkey.Trigger(gctx, listener.Presses(), func(ctx context.Context) {
				res, err := dispatcher.Dispatch(ctx, interview.Command{Kind: interview.KindRecordAnswer})
				if err != nil {
					log.Debug().Err(err).Msg("hotkey recording not delivered")
					return
				}
				for _, n := range res.Snapshot.Notices {
					log.Info().Str("notice", string(n.Level)).Msg(n.Message)
				}
			})
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info().Msg("goodbye")
	return nil
}
