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
	"github.com/clipforge/clipforge/internal/models"
	"github.com/clipforge/clipforge/internal/project"
	"github.com/clipforge/clipforge/internal/render"
)

var renderCmd = &cobra.Command{
	Use:   "render <project.json>",
	Short: "Render a project file",
	Long: `Render a project document to a media file without starting the server.

The command blocks until the render finishes, printing progress to stderr.
Interrupting with Ctrl-C cancels the job cooperatively and removes the
partial output file.`,
	Args: cobra.ExactArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringP("output", "o", "", "Output file path (required)")
	renderCmd.Flags().String("format", "mp4", "Container format (mp4, mkv, webm)")
	renderCmd.Flags().Int("width", 0, "Output width (default: project setting)")
	renderCmd.Flags().Int("height", 0, "Output height (default: project setting)")
	renderCmd.Flags().Float64("fps", 0, "Output frame rate (default: project setting)")
	renderCmd.Flags().String("quality", "medium", "Quality tier (low, medium, high, lossless)")
	renderCmd.MarkFlagRequired("output")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger := slog.Default()

	p, err := project.NewStore().Load(args[0])
	if err != nil {
		return err
	}

	settings := settingsFromFlags(cmd, p)
	output, _ := cmd.Flags().GetString("output")

	manager := newRenderManager(cfg, logger, nil)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		manager.Shutdown(ctx)
	}()

	jobID, err := manager.StartRender(p, settings, output)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	progress, err := waitForJob(ctx, manager, jobID)
	if err != nil {
		return err
	}

	switch progress.Status {
	case models.StatusCompleted:
		fmt.Fprintf(os.Stderr, "\nrendered %s\n", progress.OutputPath)
		return nil
	case models.StatusCancelled:
		return fmt.Errorf("render cancelled")
	default:
		return fmt.Errorf("render failed: %s", progress.Message)
	}
}

// waitForJob polls the job until it reaches a terminal status, printing
// progress and forwarding a context cancellation as a job cancellation.
func waitForJob(ctx context.Context, manager *render.Manager, jobID string) (models.RenderProgress, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	done := ctx.Done()
	for {
		select {
		case <-done:
			if err := manager.CancelRender(jobID); err != nil {
				return models.RenderProgress{}, err
			}
			done = nil
		case <-ticker.C:
		}

		progress, err := manager.GetProgress(jobID)
		if err != nil {
			return models.RenderProgress{}, err
		}
		fmt.Fprintf(os.Stderr, "\r%-60s %5.1f%%", progress.Message, progress.Progress*100)
		if progress.Status.IsTerminal() {
			return progress, nil
		}
	}
}

// settingsFromFlags merges explicit flags over the project's own settings.
func settingsFromFlags(cmd *cobra.Command, p *models.Project) models.RenderSettings {
	settings := models.RenderSettings{
		Resolution: p.Settings.Resolution,
		FrameRate:  p.Settings.FrameRate,
	}
	settings.Format, _ = cmd.Flags().GetString("format")

	quality, _ := cmd.Flags().GetString("quality")
	settings.Quality = models.RenderQuality(quality)

	if w, _ := cmd.Flags().GetInt("width"); w > 0 {
		settings.Resolution.Width = w
	}
	if h, _ := cmd.Flags().GetInt("height"); h > 0 {
		settings.Resolution.Height = h
	}
	if fps, _ := cmd.Flags().GetFloat64("fps"); fps > 0 {
		settings.FrameRate = fps
	}
	return settings
}
