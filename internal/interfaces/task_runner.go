package interfaces

import (
	"context"

	"github.com/ternarybob/colligo/internal/models"
)

// TaskRunner executes one task to completion, including its internal retry
// budget, and reports how many attempts were made. The scheduler treats the
// runner as opaque: a nil error is a Succeeded task, anything else Failed.
type TaskRunner interface {
	RunTask(ctx context.Context, task *models.Task) (attempts int, err error)
}
