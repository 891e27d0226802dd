// Package rendering implements the video stage: it submits a project's audio
// assets and render configuration to the video service and records the final
// video file.
package rendering

import (
	"context"
	"strings"

	"log/slog"

	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/services/render"
	"loom/internal/stage"
)

// Renderer describes the render surface the stage depends on.
type Renderer interface {
	Render(ctx context.Context, assets []queue.RenderedAsset, videoConfigJSON string) (string, error)
	HealthCheck(ctx context.Context) error
}

// Handler renders videos for video-stage jobs.
type Handler struct {
	cfg      *config.Config
	logger   *slog.Logger
	renderer Renderer
	notifier notifications.Service
}

// NewHandler constructs the video stage handler using default dependencies.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	client := render.NewClient(render.Config{
		APIKey:         cfg.Video.APIKey,
		BaseURL:        cfg.Video.BaseURL,
		TimeoutSeconds: cfg.Video.RequestTimeout,
	})
	return NewHandlerWithDependencies(cfg, logger, client, notifications.NewService(cfg))
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, logger *slog.Logger, renderer Renderer, notifier notifications.Service) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "rendering"))
	}
	return &Handler{cfg: cfg, logger: stageLogger, renderer: renderer, notifier: notifier}
}

func (h *Handler) Prepare(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)
	assets, err := project.RenderedAssets()
	if err != nil {
		return services.Wrap(services.ErrValidation, "video", "decode assets", "Voice output is corrupt; rerun the voice stage", err)
	}
	if len(assets) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"video",
			"validate inputs",
			"Project has no voice output; run the voice stage first",
			nil,
		)
	}
	project.ErrorMessage = ""
	logger.Info("starting video render",
		logging.String("title", strings.TrimSpace(project.Title)),
		logging.Int("assets", len(assets)),
	)
	return nil
}

func (h *Handler) Execute(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)

	assets, err := project.RenderedAssets()
	if err != nil {
		return services.Wrap(services.ErrValidation, "video", "decode assets", "", err)
	}

	fileRef, err := h.renderer.Render(ctx, assets, job.VideoConfigJSON)
	if err != nil {
		return services.Wrap(
			services.ErrStageOperation,
			"video",
			"render video",
			"Video render failed; check video settings and retry the job",
			err,
		)
	}
	project.VideoFile = fileRef

	logger.Info("video render complete", logging.String("file", fileRef))
	if h.notifier != nil {
		payload := notifications.Payload{"title": project.Title, "file": fileRef}
		if err := h.notifier.Publish(ctx, notifications.EventRendered, payload); err != nil {
			logger.Warn("rendered notification failed", logging.Error(err))
		}
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(h.cfg.Video.BaseURL) == "" {
		return stage.Unhealthy("rendering", "video base url not configured")
	}
	if err := h.renderer.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("rendering", err.Error())
	}
	return stage.Healthy("rendering")
}
