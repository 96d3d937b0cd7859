//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/support-assistant/internal/bootstrap"
	"github.com/yanqian/support-assistant/internal/domain/qa"
	"github.com/yanqian/support-assistant/internal/domain/support"
	"github.com/yanqian/support-assistant/internal/infra/config"
	"github.com/yanqian/support-assistant/internal/infra/llm/tokens"
	httpiface "github.com/yanqian/support-assistant/internal/interface/http"
	"github.com/yanqian/support-assistant/pkg/logger"
	"github.com/yanqian/support-assistant/pkg/metrics"
)

func initializeApp() (*bootstrap.App, error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewRegistry,
		provideRecorder,
		provideKnowledgeSource,
		provideCollections,
		provideMatcher,
		provideDetector,
		provideSupportConfig,
		provideSupportStore,
		provideLLMBackend,
		provideGenerator,
		provideModelCatalog,
		provideTokenCounter,
		support.NewService,
		wire.Bind(new(support.Matcher), new(*qa.Matcher)),
		wire.Bind(new(support.LanguageDetector), new(*qa.Detector)),
		wire.Bind(new(support.TokenCounter), new(*tokens.Counter)),
		httpiface.NewHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil
}
