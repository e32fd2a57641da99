// Package arbitrage implements the arbitrage bounded context: the
// flash-swap orchestrator, reserve resolution, and opportunity scanning.
package arbitrage

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/fd1az/flasharb/business/arbitrage/app"
	arbitrageDI "github.com/fd1az/flasharb/business/arbitrage/di"
	"github.com/fd1az/flasharb/business/arbitrage/infra"
	exchangeDI "github.com/fd1az/flasharb/business/exchange/di"
	"github.com/fd1az/flasharb/internal/asset"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/di"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/monolith"
)

// Module implements the arbitrage bounded context.
type Module struct{}

// RegisterServices registers all arbitrage services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	// Reserve resolver - reads the in-memory exchange, or an Ethereum
	// node when one is configured.
	di.RegisterToken(c, arbitrageDI.ReserveResolver, func(sr di.ServiceRegistry) app.ReserveResolver {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		if cfg.Ethereum.Enabled {
			ethClient := sr.Get("ethClient").(*ethclient.Client)
			resolver, err := infra.NewRemoteResolver(ethClient, cfg.Engine.CodeHashBytes(), log)
			if err != nil {
				panic("failed to create remote resolver: " + err.Error())
			}
			return resolver
		}

		ex := exchangeDI.GetExchange(sr)
		return infra.NewExchangeResolver(ex, cfg.Engine.CodeHashBytes())
	})

	di.RegisterToken(c, arbitrageDI.Reporter, func(sr di.ServiceRegistry) app.Reporter {
		return infra.NewConsoleReporter()
	})

	di.RegisterToken(c, arbitrageDI.Orchestrator, func(sr di.ServiceRegistry) *app.Orchestrator {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)
		registry := sr.Get("assetRegistry").(*asset.Registry)

		orch, err := app.NewOrchestrator(
			exchangeDI.GetExchange(sr),
			arbitrageDI.GetReserveResolver(sr),
			app.OrchestratorConfig{
				Address:     cfg.Engine.AddressHex(),
				RegistryOne: cfg.Engine.RegistryOneHex(),
				RegistryTwo: cfg.Engine.RegistryTwoHex(),
				CodeHash:    cfg.Engine.CodeHashBytes(),
				Beneficiary: cfg.Engine.BeneficiaryHex(),
				Operator:    cfg.Engine.OperatorHex(),
			},
			registry,
			log,
		)
		if err != nil {
			panic("failed to create orchestrator: " + err.Error())
		}
		return orch
	})

	di.RegisterToken(c, arbitrageDI.Scanner, func(sr di.ServiceRegistry) *app.Scanner {
		cfg := sr.Get("config").(*config.Config)
		log := sr.Get("logger").(logger.LoggerInterface)

		return app.NewScanner(
			arbitrageDI.GetOrchestrator(sr),
			arbitrageDI.GetReserveResolver(sr),
			arbitrageDI.GetReporter(sr),
			scannerConfig(cfg),
			log,
		)
	})

	return nil
}

// scannerConfig converts the configured whole-unit borrow sizes and
// profit floor into raw token units, per direction: each borrow size is
// denominated in the borrowed token, and each floor in the debt token
// the profit of that direction is realized in.
func scannerConfig(cfg *config.Config) app.ScannerConfig {
	decimalsA := cfg.Simulation.TokenA.Decimals
	decimalsB := cfg.Simulation.TokenB.Decimals

	return app.ScannerConfig{
		TokenA:        cfg.Simulation.TokenA.AddressHex(),
		TokenB:        cfg.Simulation.TokenB.AddressHex(),
		BorrowSizesA:  borrowSizes(cfg, decimalsA),
		BorrowSizesB:  borrowSizes(cfg, decimalsB),
		MinProfitA:    profitFloor(cfg, decimalsB),
		MinProfitB:    profitFloor(cfg, decimalsA),
		Operator:      cfg.Engine.OperatorHex(),
		RegistryOne:   cfg.Engine.RegistryOneHex(),
		RegistryTwo:   cfg.Engine.RegistryTwoHex(),
		PollPerMinute: cfg.Scanner.PollPerMinute,
	}
}

func borrowSizes(cfg *config.Config, decimals uint8) []*uint256.Int {
	sizes := make([]*uint256.Int, 0, len(cfg.Scanner.BorrowSizes))
	for _, size := range cfg.Scanner.BorrowSizesDecimal() {
		raw, ok := asset.FromDecimal(size, decimals)
		if !ok || raw.IsZero() {
			continue
		}
		sizes = append(sizes, raw)
	}
	return sizes
}

func profitFloor(cfg *config.Config, decimals uint8) *uint256.Int {
	floor := cfg.Scanner.MinProfitDecimal()
	if !floor.GreaterThan(decimal.Zero) {
		return nil
	}
	raw, ok := asset.FromDecimal(floor, decimals)
	if !ok {
		return nil
	}
	return raw
}

// Startup registers the orchestrator as the flash callback receiver on
// the exchange.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	log := mono.Logger()

	orch := arbitrageDI.GetOrchestrator(mono.Services())
	ex := exchangeDI.GetExchange(mono.Services())
	ex.RegisterCallee(orch.Address(), orch)

	log.Info(ctx, "arbitrage module started",
		"engine", orch.Address().Hex(),
	)
	return nil
}
