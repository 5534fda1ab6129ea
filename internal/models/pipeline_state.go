package models

import (
	"encoding/json"
)

// PipelineStateVersion is the current on-disk schema version. A persisted
// state with any other version is treated as unreadable and the pipeline
// starts fresh rather than guessing at field meanings.
const PipelineStateVersion = 1

// PipelineState is the durable record of phase completion for one pipeline
// lifetime. CompletedPhases only grows; PhaseData holds an opaque summary
// per completed phase.
type PipelineState struct {
	Version         int                        `json:"version"`
	CompletedPhases []string                   `json:"completed_phases"`
	PhaseData       map[string]json.RawMessage `json:"phase_data"`
}

// NewPipelineState returns an empty state at the current schema version.
func NewPipelineState() *PipelineState {
	return &PipelineState{
		Version:         PipelineStateVersion,
		CompletedPhases: []string{},
		PhaseData:       map[string]json.RawMessage{},
	}
}

// IsCompleted reports whether the phase has a durable completion record.
func (s *PipelineState) IsCompleted(phaseID string) bool {
	for _, p := range s.CompletedPhases {
		if p == phaseID {
			return true
		}
	}
	return false
}
