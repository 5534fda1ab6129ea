package checkpoint

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// Store persists checkpoints for unit-indexed jobs. The canonical file per
// job is written with an atomic temp-then-rename, so a reader always sees
// either the previous valid checkpoint or the new one, never a torn write.
// Numbered historical copies use the same atomic path but are best-effort:
// resume only ever relies on the canonical file.
type Store struct {
	dir    string
	logger arbor.ILogger
}

// NewStore creates a checkpoint store rooted at dir.
func NewStore(dir string, logger arbor.ILogger) *Store {
	return &Store{dir: dir, logger: logger}
}

// LatestPath returns the canonical checkpoint path for a job. The name is
// stable per job so a restart finds it without scanning.
func (s *Store) LatestPath(jobID string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_latest.ckpt", jobID))
}

// NumberedPath returns the historical checkpoint path for a unit index.
func (s *Store) NumberedPath(jobID string, unit int) string {
	return filepath.Join(s.dir, fmt.Sprintf("%s_unit_%04d.ckpt", jobID, unit))
}

// SaveLatest atomically replaces the canonical checkpoint for the job.
func (s *Store) SaveLatest(jobID string, ck *models.Checkpoint) error {
	if err := s.write(s.LatestPath(jobID), ck); err != nil {
		return fmt.Errorf("failed to save checkpoint for %s: %w", jobID, err)
	}
	s.logger.Debug().
		Str("job", jobID).
		Int("unit", ck.Unit).
		Float64("metric", ck.Metric).
		Msg("Checkpoint saved")
	return nil
}

// SaveNumbered writes a non-overwritten historical copy.
func (s *Store) SaveNumbered(jobID string, ck *models.Checkpoint) error {
	path := s.NumberedPath(jobID, ck.Unit)
	if err := s.write(path, ck); err != nil {
		return fmt.Errorf("failed to save historical checkpoint for %s: %w", jobID, err)
	}
	s.logger.Info().Str("job", jobID).Str("path", path).Msg("Historical checkpoint saved")
	return nil
}

// Load reads the canonical checkpoint. ok is false when no checkpoint
// exists; an unreadable or wrong-version file is an error, not a silent
// fresh start, because the canonical path is never torn by construction.
func (s *Store) Load(jobID string) (ck *models.Checkpoint, ok bool, err error) {
	data, err := os.ReadFile(s.LatestPath(jobID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read checkpoint for %s: %w", jobID, err)
	}

	ck = &models.Checkpoint{}
	if err := json.Unmarshal(data, ck); err != nil {
		return nil, false, fmt.Errorf("failed to decode checkpoint for %s: %w", jobID, err)
	}
	if ck.Version != models.CheckpointVersion {
		return nil, false, fmt.Errorf("checkpoint for %s has unknown version %d", jobID, ck.Version)
	}
	return ck, true, nil
}

// write performs the atomic replace: temp file in the same directory, then
// rename over the target.
func (s *Store) write(path string, ck *models.Checkpoint) error {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return err
	}
	data, err := json.Marshal(ck)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
