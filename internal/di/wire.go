//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"AMDScope/pkg/config"
	"AMDScope/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideEventPublisher,

		// Repositories
		ProvideBarSource,

		// Services and use cases
		ProvideDetector,
		ProvideAMDUseCase,

		// Transport
		ProvideAMDHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
