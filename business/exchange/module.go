// Package exchange implements the exchange bounded context: the in-memory
// execution environment the arbitrage engine runs against.
package exchange

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	exchangeDI "github.com/fd1az/flasharb/business/exchange/di"
	"github.com/fd1az/flasharb/business/exchange/domain"
	"github.com/fd1az/flasharb/internal/asset"
	"github.com/fd1az/flasharb/internal/config"
	"github.com/fd1az/flasharb/internal/di"
	"github.com/fd1az/flasharb/internal/monolith"
)

// liquidityProvider is the ledger account the simulation seeds pool
// liquidity from.
var liquidityProvider = common.HexToAddress("0x0000000000000000000000000000000000001111")

// Module implements the exchange bounded context.
type Module struct{}

// RegisterServices registers all exchange services with the DI container.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, exchangeDI.Exchange, func(sr di.ServiceRegistry) *domain.Exchange {
		return domain.NewExchange()
	})
	return nil
}

// Startup seeds the exchange with the configured simulation pair: one
// pool per registry, funded with the configured reserves.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	ex := exchangeDI.GetExchange(mono.Services())

	sim := cfg.Simulation
	tokenA := sim.TokenA.AddressHex()
	tokenB := sim.TokenB.AddressHex()

	mono.AssetRegistry().Register(asset.NewAsset(tokenA, sim.TokenA.Symbol, sim.TokenA.Decimals))
	mono.AssetRegistry().Register(asset.NewAsset(tokenB, sim.TokenB.Symbol, sim.TokenB.Decimals))

	seed := func(registryHex string, pool config.PoolSeedConfig) error {
		rawA, ok := asset.FromDecimal(decimal.NewFromFloat(pool.ReserveA), sim.TokenA.Decimals)
		if !ok {
			return fmt.Errorf("invalid pool seed reserve: %v", pool.ReserveA)
		}
		rawB, ok := asset.FromDecimal(decimal.NewFromFloat(pool.ReserveB), sim.TokenB.Decimals)
		if !ok {
			return fmt.Errorf("invalid pool seed reserve: %v", pool.ReserveB)
		}

		p, err := ex.CreatePool(common.HexToAddress(registryHex), tokenA, tokenB, cfg.Engine.CodeHashBytes())
		if err != nil {
			return err
		}
		if err := ex.Ledger().Mint(tokenA, liquidityProvider, rawA); err != nil {
			return err
		}
		if err := ex.Ledger().Mint(tokenB, liquidityProvider, rawB); err != nil {
			return err
		}

		amount0, amount1 := rawA, rawB
		if p.Token0() != tokenA {
			amount0, amount1 = rawB, rawA
		}
		if err := p.Mint(liquidityProvider, amount0, amount1); err != nil {
			return err
		}

		log.Info(ctx, "seeded pool",
			"registry", registryHex,
			"pool", p.Address().Hex(),
			"reserve_a", rawA.String(),
			"reserve_b", rawB.String(),
		)
		return nil
	}

	if err := seed(cfg.Engine.RegistryOne, sim.PoolOne); err != nil {
		return err
	}
	if err := seed(cfg.Engine.RegistryTwo, sim.PoolTwo); err != nil {
		return err
	}

	log.Info(ctx, "exchange module started")
	return nil
}
