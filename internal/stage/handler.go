package stage

import (
	"context"

	"loom/internal/queue"
)

// Handler describes the contract the workflow manager needs from each stage.
// Prepare validates inputs before the project is marked active; Execute runs
// the stage's collaborator call and fills the project's outputs.
type Handler interface {
	Prepare(context.Context, *queue.Job, *queue.Project) error
	Execute(context.Context, *queue.Job, *queue.Project) error
	HealthCheck(context.Context) Health
}
