// Package scripting implements the text stage: it turns a project's prompt
// into a generated script and the voice manifest consumed by the voice stage.
package scripting

import (
	"context"
	"strings"

	"log/slog"

	"loom/internal/config"
	"loom/internal/logging"
	"loom/internal/notifications"
	"loom/internal/queue"
	"loom/internal/services"
	"loom/internal/services/llm"
	"loom/internal/stage"
)

// ScriptGenerator describes the LLM surface the stage depends on.
type ScriptGenerator interface {
	GenerateScript(ctx context.Context, prompt string) (llm.Script, error)
	HealthCheck(ctx context.Context) error
}

// Handler generates scripts for text-stage jobs.
type Handler struct {
	cfg       *config.Config
	logger    *slog.Logger
	generator ScriptGenerator
	notifier  notifications.Service
}

// NewHandler constructs the text stage handler using default dependencies.
func NewHandler(cfg *config.Config, logger *slog.Logger) *Handler {
	client := llm.NewClient(llm.Config{
		APIKey:                  cfg.LLM.APIKey,
		BaseURL:                 cfg.LLM.BaseURL,
		Model:                   cfg.LLM.Model,
		Referer:                 cfg.LLM.Referer,
		Title:                   cfg.LLM.Title,
		StructureTimeoutSeconds: cfg.LLM.StructureTimeout,
		SegmentTimeoutSeconds:   cfg.LLM.SegmentTimeout,
		MaxConcurrentSegments:   cfg.LLM.MaxConcurrentSegments,
	})
	return NewHandlerWithDependencies(cfg, logger, client, notifications.NewService(cfg))
}

// NewHandlerWithDependencies allows injecting collaborators (used in tests).
func NewHandlerWithDependencies(cfg *config.Config, logger *slog.Logger, generator ScriptGenerator, notifier notifications.Service) *Handler {
	stageLogger := logger
	if stageLogger != nil {
		stageLogger = stageLogger.With(logging.String(logging.FieldComponent, "scripting"))
	}
	return &Handler{cfg: cfg, logger: stageLogger, generator: generator, notifier: notifier}
}

func (h *Handler) Prepare(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)
	if strings.TrimSpace(project.Prompt) == "" {
		return services.Wrap(
			services.ErrValidation,
			"text",
			"validate inputs",
			"Project has no prompt; recreate it with a prompt before generating",
			nil,
		)
	}
	project.ErrorMessage = ""
	logger.Info("starting script generation",
		logging.String("title", strings.TrimSpace(project.Title)),
		logging.String(logging.FieldResource, job.ResourceID),
	)
	return nil
}

func (h *Handler) Execute(ctx context.Context, job *queue.Job, project *queue.Project) error {
	logger := logging.WithContext(ctx, h.logger)

	script, err := h.generator.GenerateScript(ctx, project.Prompt)
	if err != nil {
		return services.Wrap(
			services.ErrStageOperation,
			"text",
			"generate script",
			"Text generation failed; check llm settings and retry the job",
			err,
		)
	}

	manifest := buildVoiceManifest(script)
	if len(manifest) == 0 {
		return services.Wrap(
			services.ErrChaining,
			"text",
			"build voice manifest",
			"Generated script produced no valid voice segments",
			nil,
		)
	}

	project.Content = renderScriptText(script)
	if err := project.SetVoiceManifest(manifest); err != nil {
		return services.Wrap(services.ErrChaining, "text", "encode voice manifest", "", err)
	}
	if title := strings.TrimSpace(script.Title); title != "" && strings.TrimSpace(project.Title) == "" {
		project.Title = title
	}

	logger.Info("script generated",
		logging.Int("sections", len(script.Sections)),
		logging.Int("voice_segments", len(manifest)),
	)
	if h.notifier != nil {
		if err := h.notifier.Publish(ctx, notifications.EventProjectReady, notifications.Payload{"title": project.Title}); err != nil {
			logger.Warn("ready notification failed", logging.Error(err))
		}
	}
	return nil
}

func (h *Handler) HealthCheck(ctx context.Context) stage.Health {
	if strings.TrimSpace(h.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy("scripting", "llm api key not configured")
	}
	if err := h.generator.HealthCheck(ctx); err != nil {
		return stage.Unhealthy("scripting", err.Error())
	}
	return stage.Healthy("scripting")
}

// buildVoiceManifest concatenates the named segments of every section in
// insertion order, discarding segments missing narration text or a voice.
func buildVoiceManifest(script llm.Script) []queue.VoiceSegment {
	var manifest []queue.VoiceSegment
	for _, section := range script.Sections {
		for _, segment := range section.Segments {
			if strings.TrimSpace(segment.Name) == "" {
				continue
			}
			if strings.TrimSpace(segment.Text) == "" || strings.TrimSpace(segment.VoiceID) == "" {
				continue
			}
			manifest = append(manifest, queue.VoiceSegment{
				ID:      segment.Name,
				Text:    segment.Text,
				VoiceID: segment.VoiceID,
			})
		}
	}
	return manifest
}

// renderScriptText flattens the script into the displayable content payload.
func renderScriptText(script llm.Script) string {
	var builder strings.Builder
	for _, section := range script.Sections {
		if heading := strings.TrimSpace(section.Heading); heading != "" {
			if builder.Len() > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString("# ")
			builder.WriteString(heading)
		}
		for _, segment := range section.Segments {
			text := strings.TrimSpace(segment.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString(text)
		}
	}
	return builder.String()
}
