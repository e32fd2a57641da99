// Package app contains application services and port definitions for the arbitrage context.
package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/business/arbitrage/domain"
)

// ReserveResolver reads a pool's last-settled reserves for a token pair,
// reordered to match the caller's argument order. Implementations locate
// the pool deterministically from the registry and the sorted pair.
type ReserveResolver interface {
	ReservesFor(ctx context.Context, registry, tokenA, tokenB common.Address) (reserveA, reserveB *uint256.Int, err error)
}

// Reporter receives the outcome of arbitrage runs.
type Reporter interface {
	// Start initializes the reporter.
	Start(ctx context.Context) error

	// Report records the outcome of one run, settled or reverted.
	Report(report *domain.Report)

	// Stop gracefully shuts down the reporter.
	Stop() error
}
