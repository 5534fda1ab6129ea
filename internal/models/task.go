package models

// TaskStatus is the lifecycle state of one batch task. Once a task reaches
// Succeeded or Failed it is immutable.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusSucceeded TaskStatus = "succeeded"
	TaskStatusFailed    TaskStatus = "failed"
)

// Task is one independently retryable unit of batch work dispatched to an
// external process. Tasks in the same batch never share mutable state: each
// is owned exclusively by the scheduler worker executing it.
type Task struct {
	ID         string     `json:"id"`       // Unique within a batch, e.g. "Blog/blog_real_3.html"
	Category   string     `json:"category"` // Page category the task belongs to
	Filename   string     `json:"filename"`
	URL        string     `json:"url"`         // Source URL to download
	OutputPath string     `json:"output_path"` // Required artifact location
	Attempts   int        `json:"attempts"`    // Attempts actually made, 0..max_retries
	Status     TaskStatus `json:"status"`
	Err        string     `json:"error,omitempty"` // Cause of the terminal failure, if any
}

// Terminal reports whether the task has reached a final status.
func (t *Task) Terminal() bool {
	return t.Status == TaskStatusSucceeded || t.Status == TaskStatusFailed
}
