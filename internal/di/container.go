package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/agents"
	"github.com/truthline/truthline/internal/auth"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/factory"
	"github.com/truthline/truthline/internal/logging"
	"github.com/truthline/truthline/internal/server"
	"github.com/truthline/truthline/internal/storage"
	"github.com/truthline/truthline/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	// Register factories
	if err := container.Provide(factory.NewTextProcessorFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewProviderFactory); err != nil {
		return nil, err
	}
	if err := container.Provide(factory.NewCacheFactory); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.TextProcessorFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register stage providers
	if err := container.Provide(func(f *factory.ProviderFactory) core.CleaningProvider {
		return f.CreateCleaningProvider()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ProviderFactory) core.ClassificationProvider {
		return f.CreateClassificationProvider()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.ProviderFactory) core.SummaryProvider {
		return f.CreateSummaryProvider()
	}); err != nil {
		return nil, err
	}

	// Register stage cache and enabled flag
	if err := container.Provide(func(f *factory.CacheFactory) (core.StageCache, error) {
		return f.CreateStageCache()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.CacheFactory) bool {
		return f.IsCacheEnabled()
	}); err != nil {
		return nil, err
	}

	// Register stage agents
	if err := container.Provide(agents.NewCleaningAgent); err != nil {
		return nil, err
	}
	if err := container.Provide(agents.NewClassificationAgent); err != nil {
		return nil, err
	}
	if err := container.Provide(agents.NewExtractionAgent); err != nil {
		return nil, err
	}
	if err := container.Provide(agents.NewSummaryAgent); err != nil {
		return nil, err
	}

	// Register orchestrator
	if err := container.Provide(func(
		cleaning *agents.CleaningAgent,
		classification *agents.ClassificationAgent,
		extraction *agents.ExtractionAgent,
		summary *agents.SummaryAgent,
		logger *zap.Logger,
	) core.Orchestrator {
		return agents.NewOrchestrator(cleaning, classification, extraction, summary, logger)
	}); err != nil {
		return nil, err
	}

	// Register analysis service
	if err := container.Provide(core.NewAnalysisService); err != nil {
		return nil, err
	}

	// Register persistent store
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) (*storage.Store, error) {
		return storage.NewStore(cfg.GetString("storage.sqlite_path"), logger)
	}); err != nil {
		return nil, err
	}

	// Register auth
	if err := container.Provide(func(cfg *config.Config) (*auth.TokenManager, error) {
		return auth.NewTokenManager(cfg.GetAuth())
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(auth.NewService); err != nil {
		return nil, err
	}

	// Register HTTP server
	if err := container.Provide(server.NewServer); err != nil {
		return nil, err
	}

	return container, nil
}
