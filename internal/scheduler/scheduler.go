package scheduler

import (
	"context"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/models"
)

// Result aggregates the terminal outcomes of one batch. Succeeded+Failed
// always equals the number of submitted tasks.
type Result struct {
	Succeeded int
	Failed    int
	Tasks     []*models.Task
}

// ProgressFunc is invoked as each task resolves, in completion order, with a
// monotonically increasing completed count.
type ProgressFunc func(completed, total int, task *models.Task)

// Scheduler executes a batch of independent tasks with a fixed maximum
// parallelism. Tasks are dispatched to free workers as capacity opens up;
// there is no fixed batching into rounds. One task's failure never cancels
// its siblings, and every task reaches a terminal status because each attempt
// is bounded by the task runner's deadline.
type Scheduler struct {
	concurrency int
	runner      interfaces.TaskRunner
	logger      arbor.ILogger
	onProgress  ProgressFunc
}

// New creates a scheduler with the given worker count.
func New(concurrency int, runner interfaces.TaskRunner, logger arbor.ILogger) *Scheduler {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scheduler{
		concurrency: concurrency,
		runner:      runner,
		logger:      logger,
	}
}

// OnProgress registers a progress callback. Must be called before Run.
func (s *Scheduler) OnProgress(fn ProgressFunc) {
	s.onProgress = fn
}

// Run executes all tasks and returns once every task is terminal. Result
// aggregation is driven by draining the completion channel until all tasks
// are accounted for; completion order is unconstrained.
func (s *Scheduler) Run(ctx context.Context, tasks []*models.Task) Result {
	total := len(tasks)
	result := Result{Tasks: tasks}
	if total == 0 {
		return result
	}

	workers := s.concurrency
	if workers > total {
		workers = total
	}

	taskCh := make(chan *models.Task)
	doneCh := make(chan *models.Task)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(workerIndex int) {
			defer wg.Done()
			for task := range taskCh {
				s.runOne(ctx, task, workerIndex)
				doneCh <- task
			}
		}(i)
	}

	go func() {
		for _, task := range tasks {
			taskCh <- task
		}
		close(taskCh)
	}()

	go func() {
		wg.Wait()
		close(doneCh)
	}()

	completed := 0
	for task := range doneCh {
		completed++
		if task.Status == models.TaskStatusSucceeded {
			result.Succeeded++
		} else {
			result.Failed++
		}
		s.logger.Info().
			Str("task", task.ID).
			Str("status", string(task.Status)).
			Int("completed", completed).
			Int("total", total).
			Msgf("Task resolved (%d/%d)", completed, total)
		if s.onProgress != nil {
			s.onProgress(completed, total, task)
		}
	}

	s.logger.Info().
		Int("succeeded", result.Succeeded).
		Int("failed", result.Failed).
		Int("total", total).
		Msg("Batch complete")

	return result
}

// runOne drives a single task to its terminal status. The task is owned
// exclusively by this worker until it resolves.
func (s *Scheduler) runOne(ctx context.Context, task *models.Task, workerIndex int) {
	task.Status = models.TaskStatusRunning

	attempts, err := s.runner.RunTask(ctx, task)
	task.Attempts = attempts

	if err != nil {
		task.Status = models.TaskStatusFailed
		task.Err = err.Error()
		s.logger.Warn().
			Err(err).
			Str("task", task.ID).
			Int("attempts", attempts).
			Int("worker", workerIndex).
			Msg("Task failed")
		return
	}
	task.Status = models.TaskStatusSucceeded
}
