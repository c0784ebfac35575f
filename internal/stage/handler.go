package stage

import (
	"context"

	"salient/internal/jobs"
)

// Handler describes the contract the workflow manager needs from a stage.
type Handler interface {
	Prepare(context.Context, *jobs.Job) error
	Execute(context.Context, *jobs.Job) error
	HealthCheck(context.Context) Health
}
