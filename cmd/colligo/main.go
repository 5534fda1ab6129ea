package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/colligo/internal/browser"
	"github.com/ternarybob/colligo/internal/common"
	"github.com/ternarybob/colligo/internal/interfaces"
	"github.com/ternarybob/colligo/internal/phases"
	"github.com/ternarybob/colligo/internal/pipeline"
	"github.com/ternarybob/colligo/internal/search"
	"github.com/ternarybob/colligo/internal/storage/badger"
)

var (
	config *common.Config
	logger arbor.ILogger
)

func main() {
	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file -> env)
	// 2. Initialize logger
	// 3. Print banner
	// No command-line flags: behavior is fully config-driven.
	configPath := ""
	if _, err := os.Stat("colligo.toml"); err == nil {
		configPath = "colligo.toml"
	}

	var err error
	config, err = common.LoadFromFile(configPath)
	if err != nil {
		// Startup errors land on the default console logger; the
		// configured logger does not exist yet.
		common.GetLogger().Fatal().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		os.Exit(1)
	}
	if err := config.Validate(); err != nil {
		common.GetLogger().Fatal().Err(err).Msg("Invalid configuration")
		os.Exit(1)
	}

	logger = common.InitLogger(config)
	common.PrintBanner(common.GetVersion())

	logger.Info().
		Str("version", common.GetFullVersion()).
		Str("config_file", configPath).
		Str("data_dir", config.Pipeline.DataDir).
		Str("state_file", config.Pipeline.StateFile).
		Bool("crawler_enabled", config.Pipeline.RunCrawler).
		Bool("training_enabled", config.Pipeline.RunTraining).
		Msg("Pipeline configuration loaded")

	if err := run(); err != nil {
		logger.Error().Err(err).Msg("Pipeline failed")
		os.Exit(1)
	}
	logger.Info().Msg("Pipeline completed")
}

func run() error {
	// Interrupt cancels the run; completed phases stay durable and the
	// next invocation resumes after them.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := badger.NewManager(logger, &config.Storage.Badger)
	if err != nil {
		return err
	}
	defer storage.Close()

	// The search browser launches lazily on first use; Close is a no-op
	// when a run never needed it.
	session := browser.NewSession(browser.SessionConfig{
		UserAgent: config.Crawler.UserAgent,
		Headless:  false,
	}, logger)
	defer session.Close()

	gate := browser.NewGate(0, logger)
	searchService, err := search.NewService(config.Crawler, session, gate, logger)
	if err != nil {
		return err
	}

	store := pipeline.NewStore(config.Pipeline.StateFile, logger)
	store.Load()

	driver := pipeline.NewDriver(store, logger)
	return driver.Run(ctx, buildPhases(searchService, storage.DocumentStorage()))
}

func buildPhases(searchService *search.Service, docs interfaces.DocumentStorage) []pipeline.Phase {
	dataDir := config.Pipeline.DataDir

	crawl := phases.NewCrawlPhase(config.Crawler, dataDir, searchService, docs, logger)
	synthesize := phases.NewSynthesizePhase(config.Crawler.Categories, config.Crawler.PagesPerCategory, dataDir, docs, logger)
	prompts := phases.NewPromptsPhase(dataDir, docs, logger)
	histories := phases.NewHistoriesPhase(dataDir, docs, logger)
	render := phases.NewRenderPhase(config.Render, dataDir, docs, logger)
	metadata := phases.NewMetadataPhase(dataDir, docs, logger)

	list := []pipeline.Phase{
		{ID: "crawl", Enabled: config.Pipeline.RunCrawler, Run: crawl.Run},
		{ID: "synthesize", Enabled: config.Pipeline.RunSynthesizer, Run: synthesize.Run},
		{ID: "prompts", Enabled: true, Run: prompts.Run},
		{ID: "histories", Enabled: true, Run: histories.Run},
		{ID: "render", Enabled: true, Run: render.Run},
		{ID: "metadata", Enabled: true, Run: metadata.Run},
	}

	// One independently checkpointed training job per monitor.
	for _, monitor := range config.Render.Monitors {
		train := phases.NewTrainPhase(config.Training, monitor.Name, logger)
		list = append(list, pipeline.Phase{
			ID:      "train:" + monitor.Name,
			Enabled: config.Pipeline.RunTraining,
			Run:     train.Run,
		})
	}
	return list
}
