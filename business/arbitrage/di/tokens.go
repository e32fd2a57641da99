// Package di contains dependency injection tokens for the arbitrage context.
package di

import (
	"github.com/fd1az/flasharb/business/arbitrage/app"
	"github.com/fd1az/flasharb/internal/di"
)

// Public service tokens - exposed to other modules
var (
	Orchestrator = di.NewToken[*app.Orchestrator]("arbitrage.Orchestrator")
	Scanner      = di.NewToken[*app.Scanner]("arbitrage.Scanner")
)

// Private dependency tokens - internal to arbitrage module
var (
	ReserveResolver = di.NewToken[app.ReserveResolver]("arbitrage:reserveResolver")
	Reporter        = di.NewToken[app.Reporter]("arbitrage:reporter")
)

// Helper functions for type-safe access
func GetOrchestrator(c di.ServiceRegistry) *app.Orchestrator {
	return di.GetToken(c, Orchestrator)
}

func GetScanner(c di.ServiceRegistry) *app.Scanner {
	return di.GetToken(c, Scanner)
}

func GetReserveResolver(c di.ServiceRegistry) app.ReserveResolver {
	return di.GetToken(c, ReserveResolver)
}

func GetReporter(c di.ServiceRegistry) app.Reporter {
	return di.GetToken(c, Reporter)
}
