package app

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/internal/logger"
	"github.com/fd1az/flasharb/internal/ratelimit"
)

// ScannerConfig holds the opportunity-scanner settings. Sizes and
// floors are direction-specific because the pair's tokens may carry
// different decimals: a borrow size is denominated in the borrowed
// token, while the profit of a run is realized in the debt token.
type ScannerConfig struct {
	TokenA common.Address
	TokenB common.Address

	// BorrowSizesA are the candidate borrow amounts of token A, in raw
	// token A units, simulated each poll; BorrowSizesB likewise for
	// token B.
	BorrowSizesA []*uint256.Int
	BorrowSizesB []*uint256.Int

	// MinProfitA is the smallest profit worth executing when borrowing
	// token A, denominated in token B (the debt token of that
	// direction); MinProfitB mirrors it for token B borrows.
	MinProfitA *uint256.Int
	MinProfitB *uint256.Int

	// Operator is the account the scanner starts runs as.
	Operator common.Address

	RegistryOne common.Address
	RegistryTwo common.Address

	PollPerMinute int
}

// Scanner polls both pools' reserves, simulates candidate borrow sizes
// off-ledger, and hands anything that clears the profit floor to the
// orchestrator. Simulation and execution read the same last-settled
// reserves, so a simulated win can still revert if reserves moved in
// between; the scanner just reports the revert and keeps polling.
type Scanner struct {
	orchestrator *Orchestrator
	resolver     ReserveResolver
	reporter     Reporter
	limiter      *ratelimit.Limiter
	cfg          ScannerConfig
	logger       logger.LoggerInterface
}

// NewScanner creates an opportunity scanner.
func NewScanner(
	orchestrator *Orchestrator,
	resolver ReserveResolver,
	reporter Reporter,
	cfg ScannerConfig,
	log logger.LoggerInterface,
) *Scanner {
	return &Scanner{
		orchestrator: orchestrator,
		resolver:     resolver,
		reporter:     reporter,
		limiter:      ratelimit.New(cfg.PollPerMinute),
		cfg:          cfg,
		logger:       log,
	}
}

// Start begins the scan loop.
func (s *Scanner) Start(ctx context.Context) error {
	s.logger.Info(ctx, "starting opportunity scanner",
		"token_a", s.cfg.TokenA.Hex(),
		"token_b", s.cfg.TokenB.Hex(),
		"borrow_sizes", len(s.cfg.BorrowSizesA)+len(s.cfg.BorrowSizesB),
	)

	if err := s.reporter.Start(ctx); err != nil {
		return err
	}

	go s.run(ctx)

	return nil
}

func (s *Scanner) run(ctx context.Context) {
	for {
		if err := s.limiter.Wait(ctx); err != nil {
			s.logger.Info(ctx, "scanner stopping", "reason", ctx.Err())
			return
		}
		s.scan(ctx)
	}
}

// scan simulates every (direction, size) candidate and executes the best
// profitable one, if any.
func (s *Scanner) scan(ctx context.Context) {
	type candidate struct {
		borrowed  common.Address
		debt      common.Address
		size      *uint256.Int
		profit    *uint256.Int
		minProfit *uint256.Int
	}

	var best *candidate
	directions := []struct {
		borrowed  common.Address
		debt      common.Address
		sizes     []*uint256.Int
		minProfit *uint256.Int
	}{
		{s.cfg.TokenA, s.cfg.TokenB, s.cfg.BorrowSizesA, s.cfg.MinProfitA},
		{s.cfg.TokenB, s.cfg.TokenA, s.cfg.BorrowSizesB, s.cfg.MinProfitB},
	}
	for _, dir := range directions {
		for _, size := range dir.sizes {
			profit, err := s.simulate(ctx, dir.borrowed, dir.debt, size, dir.minProfit)
			if err != nil {
				s.logger.Debug(ctx, "simulation failed",
					"borrowed", dir.borrowed.Hex(),
					"size", size.String(),
					"error", err,
				)
				continue
			}
			if profit == nil {
				continue
			}
			// Cross-direction profits are raw amounts of different
			// tokens; each direction is gated by its own floor, the
			// comparison only orders same-decimals pairs exactly.
			if best == nil || profit.Cmp(best.profit) > 0 {
				best = &candidate{
					borrowed:  dir.borrowed,
					debt:      dir.debt,
					size:      size,
					profit:    profit,
					minProfit: dir.minProfit,
				}
			}
		}
	}

	if best == nil {
		return
	}

	s.logger.Info(ctx, "opportunity detected",
		"borrowed", best.borrowed.Hex(),
		"size", best.size.String(),
		"simulated_profit", best.profit.String(),
	)

	amountA, amountB := best.size, (*uint256.Int)(nil)
	if best.borrowed != s.cfg.TokenA {
		amountA, amountB = nil, best.size
	}

	report, err := s.orchestrator.StartArbitrage(ctx, s.cfg.Operator,
		s.cfg.TokenA, s.cfg.TokenB, amountA, amountB, best.minProfit)
	if err != nil {
		s.logger.Warn(ctx, "arbitrage run reverted", "error", err)
	}
	if report != nil {
		s.reporter.Report(report)
	}
}

// simulate computes the profit of borrowing size of borrowedToken from
// the origin pool and converting it through the target pool, without
// touching any balance. Returns nil profit when the trade would not
// clear minProfit, which is denominated in debtToken.
func (s *Scanner) simulate(ctx context.Context, borrowedToken, debtToken common.Address, size, minProfit *uint256.Int) (*uint256.Int, error) {
	reserveBorrowed, reserveDebt, err := s.resolver.ReservesFor(ctx, s.cfg.RegistryOne, borrowedToken, debtToken)
	if err != nil {
		return nil, err
	}
	debt, err := ammDomain.AmountIn(size, reserveDebt, reserveBorrowed)
	if err != nil {
		return nil, err
	}

	targetReserveBorrowed, targetReserveDebt, err := s.resolver.ReservesFor(ctx, s.cfg.RegistryTwo, borrowedToken, debtToken)
	if err != nil {
		return nil, err
	}
	received, err := ammDomain.AmountOut(size, targetReserveBorrowed, targetReserveDebt)
	if err != nil {
		return nil, err
	}

	if received.Cmp(debt) <= 0 {
		return nil, nil
	}
	profit := new(uint256.Int).Sub(received, debt)
	if minProfit != nil && profit.Cmp(minProfit) < 0 {
		return nil, nil
	}
	return profit, nil
}

// Stop gracefully shuts down the scanner.
func (s *Scanner) Stop() error {
	return s.reporter.Stop()
}
