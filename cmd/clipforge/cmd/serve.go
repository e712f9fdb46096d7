package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clipforge/clipforge/internal/config"
	"github.com/clipforge/clipforge/internal/database"
	"github.com/clipforge/clipforge/internal/encoder"
	internalhttp "github.com/clipforge/clipforge/internal/http"
	"github.com/clipforge/clipforge/internal/http/handlers"
	"github.com/clipforge/clipforge/internal/media"
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/project"
	"github.com/clipforge/clipforge/internal/render"
	"github.com/clipforge/clipforge/internal/repository"
	"github.com/clipforge/clipforge/internal/version"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the clipforge server",
	Long: `Start the clipforge HTTP server and API.

The server provides:
- REST API for starting, inspecting and cancelling render jobs
- Project document load, save and validation endpoints
- Health check endpoint
- OpenAPI documentation at /docs`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().Int("port", 8080, "Port to listen on")
	serveCmd.Flags().String("database", "clipforge.db", "Job history database file path")
	serveCmd.Flags().String("output-dir", "output", "Directory for rendered output files")

	viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("database.path", serveCmd.Flags().Lookup("database"))
	viper.BindPFlag("storage.output_dir", serveCmd.Flags().Lookup("output-dir"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := slog.Default()

	db, err := database.New(cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return err
	}
	historyRepo := repository.NewRenderJobRepository(db.DB)

	if err := os.MkdirAll(cfg.Storage.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	manager := newRenderManager(cfg, logger, historyRepo)
	manager.Start()

	server := internalhttp.NewServer(internalhttp.ServerConfig{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, logger, version.Version)

	handlers.NewHealthHandler(version.Version).WithDB(db.DB).Register(server.API())
	handlers.NewRenderHandler(manager, historyRepo, cfg.Storage.OutputDir).Register(server.API())
	handlers.NewProjectHandler(project.NewStore()).Register(server.API())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = server.ListenAndServe(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if merr := manager.Shutdown(shutdownCtx); merr != nil {
		logger.Warn("render manager shutdown incomplete", slog.String("error", merr.Error()))
	}

	return err
}

// newRenderManager wires the manager with ffmpeg decode and encode
// collaborators built from configuration.
func newRenderManager(cfg *config.Config, logger *slog.Logger, history render.HistoryRecorder) *render.Manager {
	format := media.AudioFormat{
		SampleRate: cfg.Render.SampleRate,
		Channels:   cfg.Render.AudioChannels,
	}

	openSource := func(p *models.Project) (media.Source, error) {
		return media.NewFFmpegSource(cfg.FFmpeg.BinaryPath, &p.Assets, format, logger)
	}
	newSink := encoder.NewFFmpegFactory(cfg.FFmpeg.BinaryPath, logger)

	opts := []render.Option{
		render.WithLogger(logger),
		render.WithHistory(history),
		render.WithRetention(cfg.Render.JobRetention),
	}
	if cfg.Render.MaxConcurrentJobs > 0 {
		opts = append(opts, render.WithMaxConcurrent(cfg.Render.MaxConcurrentJobs))
	}
	return render.NewManager(openSource, newSink, opts...)
}
