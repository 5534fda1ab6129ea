package phases

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/checkpoint"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/supervisor"
)

// TrainPhase runs one checkpointed training job for one monitor's dataset.
// Each unit invokes the configured external trainer command for a single
// epoch; the engine only supervises, checkpoints, and resumes around it.
//
// Trainer contract: invoked as `<step_command> <monitor> <epoch>`, it must
// leave its opaque resumable state at <state_dir>/<monitor>/state.bin and
// the epoch's monitored metric as a decimal number at
// <state_dir>/<monitor>/metric.txt.
type TrainPhase struct {
	config  common.TrainingConfig
	monitor string
	logger  arbor.ILogger
}

func NewTrainPhase(config common.TrainingConfig, monitor string, logger arbor.ILogger) *TrainPhase {
	return &TrainPhase{config: config, monitor: monitor, logger: logger}
}

// JobID names the checkpoint files for this monitor's training job.
func (p *TrainPhase) JobID() string {
	return "train_" + strings.ToLower(p.monitor)
}

func (p *TrainPhase) Run(ctx context.Context) (any, error) {
	store := checkpoint.NewStore(p.config.CheckpointDir, p.logger)
	runner := checkpoint.NewRunner(store, p.config.SaveInterval, p.config.CoarseInterval, p.logger)
	sup := supervisor.New(p.config.StepRetries, 0, p.logger)

	stateDir := filepath.Join(p.config.StateDir, p.monitor)
	statePath := filepath.Join(stateDir, "state.bin")
	metricPath := filepath.Join(stateDir, "metric.txt")
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create training state directory: %w", err)
	}

	step := func(ctx context.Context, unit int) ([]byte, float64, error) {
		_, err := sup.Run(ctx, supervisor.Command{
			Path:            p.config.StepCommand,
			Args:            []string{p.monitor, strconv.Itoa(unit)},
			Timeout:         p.config.StepTimeout,
			SuccessExit:     0,
			Artifact:        statePath,
			MinArtifactSize: 1,
		})
		if err != nil {
			return nil, 0, err
		}

		state, err := os.ReadFile(statePath)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read trainer state: %w", err)
		}
		metric, err := readMetric(metricPath)
		if err != nil {
			return nil, 0, err
		}
		return state, metric, nil
	}

	if err := runner.Run(ctx, p.JobID(), p.config.Epochs, step); err != nil {
		return nil, err
	}
	return map[string]any{"monitor": p.monitor, "epochs": p.config.Epochs}, nil
}

func readMetric(path string) (float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read trainer metric: %w", err)
	}
	metric, err := strconv.ParseFloat(strings.TrimSpace(string(data)), 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse trainer metric: %w", err)
	}
	return metric, nil
}
