package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/models"
)

// Store persists the set of completed pipeline phases and an opaque result
// payload per phase. It is accessed by a single logical owner (the driver)
// per run, so no locking is required. Every mutation is flushed to durable
// storage before the in-memory change is considered committed.
type Store struct {
	path   string
	logger arbor.ILogger
	state  *models.PipelineState
}

// NewStore creates a phase state store backed by the given file path.
func NewStore(path string, logger arbor.ILogger) *Store {
	return &Store{
		path:   path,
		logger: logger,
		state:  models.NewPipelineState(),
	}
}

// Load reads the persisted state. An absent, unparsable, or unknown-version
// file yields an empty state: corruption means "start fresh", never a fatal
// error.
func (s *Store) Load() *models.PipelineState {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to read pipeline state, starting fresh")
		}
		s.state = models.NewPipelineState()
		return s.state
	}

	state := models.NewPipelineState()
	if err := json.Unmarshal(data, state); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Pipeline state is corrupt, starting fresh")
		s.state = models.NewPipelineState()
		return s.state
	}
	if state.Version != models.PipelineStateVersion {
		s.logger.Warn().
			Int("found", state.Version).
			Int("expected", models.PipelineStateVersion).
			Msg("Pipeline state has unknown version, starting fresh")
		s.state = models.NewPipelineState()
		return s.state
	}
	if state.PhaseData == nil {
		state.PhaseData = map[string]json.RawMessage{}
	}

	s.logger.Info().
		Str("path", s.path).
		Strs("completed_phases", state.CompletedPhases).
		Msg("Loaded pipeline state")

	s.state = state
	return s.state
}

// IsCompleted reports whether the phase is durably marked complete.
func (s *Store) IsCompleted(phaseID string) bool {
	return s.state.IsCompleted(phaseID)
}

// MarkCompleted adds the phase to the completed set, stores its result data
// if non-nil, and durably persists the entire state before returning. The
// in-memory state is only updated once the write has succeeded.
func (s *Store) MarkCompleted(phaseID string, data any) error {
	next := &models.PipelineState{
		Version:         models.PipelineStateVersion,
		CompletedPhases: append([]string{}, s.state.CompletedPhases...),
		PhaseData:       map[string]json.RawMessage{},
	}
	for k, v := range s.state.PhaseData {
		next.PhaseData[k] = v
	}

	if !next.IsCompleted(phaseID) {
		next.CompletedPhases = append(next.CompletedPhases, phaseID)
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to encode phase data for %s: %w", phaseID, err)
		}
		next.PhaseData[phaseID] = raw
	}

	if err := s.persist(next); err != nil {
		return fmt.Errorf("failed to persist pipeline state for %s: %w", phaseID, err)
	}

	s.state = next
	s.logger.Info().Str("phase", phaseID).Msg("Phase marked completed")
	return nil
}

// Reset deletes the durable record entirely and clears the in-memory state.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to reset pipeline state: %w", err)
	}
	s.state = models.NewPipelineState()
	s.logger.Info().Str("path", s.path).Msg("Pipeline state reset")
	return nil
}

// persist writes the state with an atomic temp-file-then-rename so the state
// file on disk is always either the previous or the new complete record.
func (s *Store) persist(state *models.PipelineState) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}
