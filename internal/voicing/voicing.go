// Package voicing implements the voice stage: it submits a project's voice
// manifest to the synthesis service and records the produced audio assets.
package voicing

import (
	"context"
	"strings"

	"log/slog"

	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/services/voice"
	"loom/internal/stage"
)

// Synthesizer describes the synthesis surface the stage depends on.
type Synthesizer interface {
	Synthesize(ctx context.Context, manifest []queue.VoiceSegment) ([]queue.RenderedAsset, error)
	HealthCheck(ctx context.Context) error
}

// Handler synthesizes audio for voice-stage jobs.
type Handler struct {
	cfg         *config.Config
	logger      *slog.Logger
	synthesizer Synthesizer
	notifier    notifications.Service
}

// NewHandler constructs the voice stage handler using default dependencies.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	client := voice.NewClient(voice.Config{
		APIKey:         cfg.Voice.APIKey,
		BaseURL:        cfg.Voice.BaseURL,
		TimeoutSeconds: cfg.Voice.RequestTimeout,
	})
	return NewHandlerWithDependencies(cfg, logger, client, notifications.NewService(cfg))
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, logger *slog.Logger, synthesizer Synthesizer, notifier notifications.Service) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "voicing"))
	}
	return &Handler{cfg: cfg, logger: stageLogger, synthesizer: synthesizer, notifier: notifier}
}

func (h *Handler) Prepare(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)
	manifest, err := project.VoiceManifest()
	if err != nil {
		return services.Wrap(services.ErrValidation, "voice", "decode manifest", "Voice manifest is corrupt; rerun the text stage", err)
	}
	if len(manifest) == 0 {
		return services.Wrap(
			services.ErrValidation,
			"voice",
			"validate inputs",
			"Project has no voice manifest; run the text stage first",
			nil,
		)
	}
	project.ErrorMessage = ""
	logger.Info("starting voice synthesis",
		logging.String("title", strings.TrimSpace(project.Title)),
		logging.Int("segments", len(manifest)),
	)
	return nil
}

func (h *Handler) Execute(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)

	manifest, err := project.VoiceManifest()
	if err != nil {
		return services.Wrap(services.ErrValidation, "voice", "decode manifest", "", err)
	}

	assets, err := h.synthesizer.Synthesize(ctx, manifest)
	if err != nil {
		return services.Wrap(
			services.ErrStageOperation,
			"voice",
			"synthesize audio",
			"Voice synthesis failed; check voice settings and retry the job",
			err,
		)
	}
	if err := project.SetRenderedAssets(assets); err != nil {
		return services.Wrap(services.ErrChaining, "voice", "encode assets", "", err)
	}

	logger.Info("voice synthesis complete", logging.Int("assets", len(assets)))
	if h.notifier != nil {
		if err := h.notifier.Publish(ctx, notifications.EventProjectVoiced, notifications.Payload{"title": project.Title}); err != nil {
			logger.Warn("voiced notification failed", logging.Error(err))
		}
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(h.cfg.Voice.BaseURL) == "" {
		return stage.Unhealthy("voicing", "voice base url not configured")
	}
	if err := h.synthesizer.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("voicing", err.Error())
	}
	return stage.Healthy("voicing")
}
