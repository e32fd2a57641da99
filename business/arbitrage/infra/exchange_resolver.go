// Package infra contains infrastructure adapters for the arbitrage context.
package infra

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/business/arbitrage/app"
	exchangeDomain "github.com/fd1az/flasharb/business/exchange/domain"
	"github.com/fd1az/flasharb/internal/apperror"
)

// Ensure ExchangeResolver implements ReserveResolver.
var _ app.ReserveResolver = (*ExchangeResolver)(nil)

// ExchangeResolver reads reserves from the in-memory exchange. It holds
// no locks: callers read either inside an exchange execution or through
// the exchange's view entry point.
type ExchangeResolver struct {
	exchange *exchangeDomain.Exchange
	codeHash common.Hash
}

// NewExchangeResolver creates a resolver over the given exchange.
func NewExchangeResolver(exchange *exchangeDomain.Exchange, codeHash common.Hash) *ExchangeResolver {
	return &ExchangeResolver{
		exchange: exchange,
		codeHash: codeHash,
	}
}

// ReservesFor locates the pool for (registry, tokenA, tokenB) and returns
// its last-settled reserves reordered to the argument order.
func (r *ExchangeResolver) ReservesFor(ctx context.Context, registry, tokenA, tokenB common.Address) (*uint256.Int, *uint256.Int, error) {
	address, err := ammDomain.PairFor(registry, tokenA, tokenB, r.codeHash)
	if err != nil {
		return nil, nil, err
	}

	pool, ok := r.exchange.Pool(address)
	if !ok {
		return nil, nil, apperror.Validation(apperror.CodePoolNotFound, address.Hex())
	}

	reserve0, reserve1, _ := pool.Reserves()
	if pool.Token0() == tokenA {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}
