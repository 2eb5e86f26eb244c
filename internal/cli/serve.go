package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"sidestack/internal/api"
	"sidestack/internal/compare"
	"sidestack/internal/jobs"
	"sidestack/internal/logging"
	"sidestack/internal/media"
	"sidestack/internal/render"
)

var serveListen string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP comparison service",
		RunE:  runServe,
	}
	cmd.Flags().StringVar(&serveListen, "listen", "", "Listen address (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	listen := cfg.Serve.Listen
	if serveListen != "" {
		listen = serveListen
	}

	runner := media.CmdRunner{}
	store := jobs.NewStore(cfg.Serve.JobsDir)
	log := logging.WithComponent("api")

	srv := api.NewServer(api.ServerConfig{
		Listen:    listen,
		Version:   version,
		StartTime: time.Now(),
		Resolver:  compare.NewService(media.NewFFprobe(cfg.Tools.FFprobe, runner), logging.WithComponent("compare")),
		Renderer:  render.NewService(cfg.Tools.FFmpeg, runner, logging.WithComponent("render")),
		Store:     store,
		Render:    cfg.Render,
		Log:       log,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	log.Info().Str("listen", listen).Str("jobs_dir", store.Root()).Msg("serving")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
