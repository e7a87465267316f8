package stage

import (
	"context"
	"time"
)

// Handler describes the contract the pipeline needs from each stage.
// Run processes the bucket for one calendar date. Item-level problems are
// counted inside the Result; a non-nil error signals a systemic failure
// that prevented the stage from doing its work at all.
type Handler interface {
	Name() string
	Run(ctx context.Context, day time.Time) (Result, error)
}
