//go:build wireinject
// +build wireinject

package di

import (
	"SwapGate/pkg/config"
	"SwapGate/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient infrastructure
		ProvideLogger,
		ProvideMetrics,

		// Validation core
		ProvideCatalog,
		ProvideReplayDetector,
		ProvideThreatFilter,
		ProvideGateEngine,
		ProvidePipeline,
		ProvideProofIssuer,

		// Audit and caching
		ProvideClickHouseAuditStore,
		ProvideAuditPipeline,
		ProvideDecisionCache,

		// Use cases
		ProvideQuoteValidator,
		ProvidePlanReleaser,
		ProvideAuditQuery,

		// Transport
		ProvideThreatStream,
		ProvideGateway,
		ProvideLimiter,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
