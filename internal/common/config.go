package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
// The pipeline takes no command-line flags: behavior is fully determined by
// the configuration loaded at startup (defaults -> file -> env).
type Config struct {
	Pipeline PipelineConfig `toml:"pipeline"`
	Crawler  CrawlerConfig  `toml:"crawler"`
	Render   RenderConfig   `toml:"render"`
	Training TrainingConfig `toml:"training"`
	Storage  StorageConfig  `toml:"storage"`
	Logging  LoggingConfig  `toml:"logging"`
}

// PipelineConfig controls which phases run and where durable state lives.
type PipelineConfig struct {
	StateFile      string `toml:"state_file" validate:"required"` // Durable phase-completion record (JSON)
	DataDir        string `toml:"data_dir" validate:"required"`   // Root for all phase artifacts
	RunCrawler     bool   `toml:"run_crawler"`                    // Phase "crawl" (needs downloader binary + network)
	RunSynthesizer bool   `toml:"run_synthesizer"`                // Phase "synthesize"
	RunTraining    bool   `toml:"run_training"`                   // Phase "train:<monitor>" (needs trainer binary)
}

// CrawlerConfig contains search and download configuration for the crawl phase.
type CrawlerConfig struct {
	Categories       []string            `toml:"categories" validate:"min=1"` // Page categories (Blog, Commerce, ...)
	Queries          map[string][]string `toml:"queries"`                     // Search queries per category
	PagesPerCategory int                 `toml:"pages_per_category" validate:"gte=1"`
	ResultsPerQuery  int                 `toml:"results_per_query" validate:"gte=1"`
	SearchEngine     string              `toml:"search_engine" validate:"oneof=google bing duckduckgo"`
	SearchInterval   time.Duration       `toml:"search_interval"` // Minimum delay between search queries
	SearchRetries    int                 `toml:"search_retries" validate:"gte=1"`
	CaptchaTimeout   time.Duration       `toml:"captcha_timeout"` // Max wait for a human to clear a challenge
	UserAgent        string              `toml:"user_agent"`
	DownloaderBin    string              `toml:"downloader_bin" validate:"required"` // single-file style page downloader
	DownloadTimeout  time.Duration       `toml:"download_timeout"`                   // Hard wall-clock deadline per download attempt
	MaxRetries       int                 `toml:"max_retries" validate:"gte=1"`
	RetryDelay       time.Duration       `toml:"retry_delay"`                        // Fixed delay between attempts
	Concurrency      int                 `toml:"concurrency" validate:"gte=1"`       // Max parallel download attempts
	MinArtifactSize  int64               `toml:"min_artifact_size" validate:"gte=1"` // Bytes below which an output is garbage
}

// MonitorSpec describes one target display for the render phase. Each page is
// rendered once per monitor: a raw screenshot plus a color-transformed variant.
type MonitorSpec struct {
	Name   string  `toml:"name" validate:"required"`
	Width  int     `toml:"width" validate:"gte=320"`
	Height int     `toml:"height" validate:"gte=240"`
	Gamma  float64 `toml:"gamma"` // Per-monitor transfer curve applied to the raw capture
}

// RenderConfig contains headless rendering configuration.
type RenderConfig struct {
	Monitors    []MonitorSpec `toml:"monitors" validate:"min=1,dive"`
	PageTimeout time.Duration `toml:"page_timeout"` // Per-page navigate+capture deadline
	SettleTime  time.Duration `toml:"settle_time"`  // Wait after navigation before capture
}

// TrainingConfig drives the checkpointed training phases. The per-epoch work
// is an external command; the engine only checkpoints and resumes around it.
type TrainingConfig struct {
	Epochs         int           `toml:"epochs" validate:"gte=1"`
	SaveInterval   int           `toml:"save_interval" validate:"gte=1"`   // Checkpoint every N epochs
	CoarseInterval int           `toml:"coarse_interval" validate:"gte=1"` // Numbered historical copy every N epochs
	CheckpointDir  string        `toml:"checkpoint_dir" validate:"required"`
	StateDir       string        `toml:"state_dir" validate:"required"` // Where the trainer leaves its state artifact
	StepCommand    string        `toml:"step_command"`                  // Trainer binary, one invocation per epoch
	StepTimeout    time.Duration `toml:"step_timeout"`
	StepRetries    int           `toml:"step_retries" validate:"gte=1"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"`
	ResetOnStartup bool   `toml:"reset_on_startup"`
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability; only
// user-facing settings should be exposed in colligo.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			StateFile:      "./data/pipeline_state.json",
			DataDir:        "./data",
			RunCrawler:     false, // Needs downloader binary + network - user must opt in
			RunSynthesizer: true,
			RunTraining:    false, // Needs trainer binary - user must opt in
		},
		Crawler: CrawlerConfig{
			Categories:       []string{"Blog", "Commerce", "Education", "Healthcare", "Portfolio"},
			Queries:          map[string][]string{},
			PagesPerCategory: 10,
			ResultsPerQuery:  10,
			SearchEngine:     "duckduckgo", // Works without a visible browser session
			SearchInterval:   3 * time.Second,
			SearchRetries:    2,
			CaptchaTimeout:   300 * time.Second,
			UserAgent:        "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
			DownloaderBin:    "single-file",
			DownloadTimeout:  120 * time.Second,
			MaxRetries:       3,
			RetryDelay:       5 * time.Second,
			Concurrency:      4,
			MinArtifactSize:  100,
		},
		Render: RenderConfig{
			Monitors: []MonitorSpec{
				{Name: "iMac_M1_24", Width: 4480, Height: 2520, Gamma: 2.2},
				{Name: "Dell_S2722QC", Width: 3840, Height: 2160, Gamma: 2.4},
			},
			PageTimeout: 60 * time.Second,
			SettleTime:  2 * time.Second,
		},
		Training: TrainingConfig{
			Epochs:         200,
			SaveInterval:   1,
			CoarseInterval: 10,
			CheckpointDir:  "./data/checkpoints",
			StateDir:       "./data/training",
			StepTimeout:    30 * time.Minute,
			StepRetries:    1,
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/db",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
	}
}

// LoadFromFile loads configuration with priority: default -> file -> env.
// An empty path skips the file layer and returns defaults plus env overrides.
func LoadFromFile(path string) (*Config, error) {
	config := NewDefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// Validate checks the loaded configuration before the run starts. A run that
// would fail hours in because of a bad retry count should fail here instead.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Crawler.DownloadTimeout <= 0 {
		return fmt.Errorf("invalid configuration: crawler download_timeout must be positive")
	}
	if c.Render.PageTimeout <= 0 {
		return fmt.Errorf("invalid configuration: render page_timeout must be positive")
	}
	if c.Pipeline.RunTraining && c.Training.StepCommand == "" {
		return fmt.Errorf("invalid configuration: training step_command is required when run_training is enabled")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if level := os.Getenv("COLLIGO_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if dir := os.Getenv("COLLIGO_DATA_DIR"); dir != "" {
		config.Pipeline.DataDir = dir
	}
	if path := os.Getenv("COLLIGO_STATE_FILE"); path != "" {
		config.Pipeline.StateFile = path
	}
	if path := os.Getenv("COLLIGO_BADGER_PATH"); path != "" {
		config.Storage.Badger.Path = path
	}
	if c := os.Getenv("COLLIGO_CRAWLER_CONCURRENCY"); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			config.Crawler.Concurrency = n
		}
	}
	if engine := os.Getenv("COLLIGO_SEARCH_ENGINE"); engine != "" {
		config.Crawler.SearchEngine = engine
	}
}
