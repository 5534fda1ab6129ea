package models

import (
	"time"
)

// CheckpointVersion is the on-disk checkpoint schema version.
const CheckpointVersion = 1

// Checkpoint is a fully self-contained snapshot of a long-running job's
// resumable state at a given unit index. The State blob is opaque to the
// engine: it belongs to whatever produced it (model/optimizer/scheduler
// parameters for a training job). A checkpoint at Unit u means units 0..u
// completed; resume starts at u+1.
type Checkpoint struct {
	Version   int       `json:"version"`
	Unit      int       `json:"unit"`
	State     []byte    `json:"state"` // base64 in the JSON encoding
	Metric    float64   `json:"metric"`
	Timestamp time.Time `json:"timestamp"`
}
