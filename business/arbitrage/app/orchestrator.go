package app

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/business/arbitrage/domain"
	exchangeDomain "github.com/fd1az/flasharb/business/exchange/domain"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/asset"
	"github.com/fd1az/flasharb/internal/logger"
)

const (
	tracerName = "arbitrage"
	meterName  = "arbitrage"
)

// Ensure the orchestrator can receive the flash callback.
var _ exchangeDomain.FlashCallee = (*Orchestrator)(nil)

// OrchestratorConfig wires the orchestrator to its pools and accounts.
type OrchestratorConfig struct {
	// Address is the orchestrator's own ledger account: the recipient of
	// borrowed tokens and the holder of mid-run balances.
	Address common.Address

	// RegistryOne locates the origin pool, RegistryTwo the target pool.
	RegistryOne common.Address
	RegistryTwo common.Address

	// CodeHash pins the pool implementation the locator derives
	// addresses for.
	CodeHash common.Hash

	// Beneficiary receives forwarded profit.
	Beneficiary common.Address

	// Operator is the sole account allowed to start runs and sweep.
	Operator common.Address
}

// orchestratorMetrics holds OTEL metric instruments.
type orchestratorMetrics struct {
	runsTotal  metric.Int64Counter
	runsFailed metric.Int64Counter
	profit     metric.Int64Counter
	runLatency metric.Float64Histogram
}

// Orchestrator drives the borrow-swap-repay-settle state machine. A run
// is all-or-nothing: it executes inside the exchange's atomic unit of
// execution, and any failure at any step rolls every effect back.
//
// The orchestrator holds no state across runs beyond its configuration;
// the single in-flight run's context lives in the run field and is
// discarded when the run ends.
type Orchestrator struct {
	exchange *exchangeDomain.Exchange
	resolver ReserveResolver
	cfg      OrchestratorConfig

	registry *asset.Registry
	logger   logger.LoggerInterface

	tracer  trace.Tracer
	metrics *orchestratorMetrics

	// run is the single in-flight run. Only touched inside the
	// exchange's exclusive execution, so it needs no lock of its own.
	run *domain.Run
}

// NewOrchestrator creates an arbitrage orchestrator.
func NewOrchestrator(
	exchange *exchangeDomain.Exchange,
	resolver ReserveResolver,
	cfg OrchestratorConfig,
	registry *asset.Registry,
	log logger.LoggerInterface,
) (*Orchestrator, error) {
	o := &Orchestrator{
		exchange: exchange,
		resolver: resolver,
		cfg:      cfg,
		registry: registry,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
	if err := o.initMetrics(); err != nil {
		return nil, err
	}
	return o, nil
}

func (o *Orchestrator) initMetrics() error {
	meter := otel.Meter(meterName)
	var err error

	o.metrics = &orchestratorMetrics{}

	o.metrics.runsTotal, err = meter.Int64Counter(
		"arbitrage_runs_total",
		metric.WithDescription("Total arbitrage runs started"),
	)
	if err != nil {
		return err
	}

	o.metrics.runsFailed, err = meter.Int64Counter(
		"arbitrage_runs_reverted_total",
		metric.WithDescription("Arbitrage runs that reverted"),
	)
	if err != nil {
		return err
	}

	o.metrics.profit, err = meter.Int64Counter(
		"arbitrage_profit_units_total",
		metric.WithDescription("Cumulative forwarded profit in raw token units"),
	)
	if err != nil {
		return err
	}

	o.metrics.runLatency, err = meter.Float64Histogram(
		"arbitrage_run_latency_ms",
		metric.WithDescription("Run duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// Address returns the orchestrator's own ledger account.
func (o *Orchestrator) Address() common.Address {
	return o.cfg.Address
}

// StartArbitrage initiates one atomic arbitrage run: borrow the positive
// amount from the origin pool (registry one), convert it through the
// target pool (registry two), repay the origin pool and forward the
// surplus to the beneficiary. Exactly one of amountA/amountB must be
// positive; it names the token to borrow.
//
// The returned report describes the run's outcome in both the success
// and the reverted case. A reverted run has no effect on any balance.
func (o *Orchestrator) StartArbitrage(ctx context.Context, caller, tokenA, tokenB common.Address, amountA, amountB, minProfit *uint256.Int) (*domain.Report, error) {
	ctx, span := o.tracer.Start(ctx, "arbitrage.start",
		trace.WithAttributes(
			attribute.String("token_a", tokenA.Hex()),
			attribute.String("token_b", tokenB.Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	o.metrics.runsTotal.Add(ctx, 1)

	report := &domain.Report{
		State:         domain.StateReverted,
		BorrowedToken: tokenA,
		DebtToken:     tokenB,
	}

	run, err := o.startArbitrage(ctx, caller, tokenA, tokenB, amountA, amountB, minProfit)
	if run != nil {
		report.State = run.State
		report.OriginPool = run.Context.OriginPool
		report.TargetPool = run.Context.TargetPool
		report.BorrowedToken = run.Context.BorrowedToken
		report.DebtToken = run.Context.DebtToken
		report.BorrowedAmount = run.Context.BorrowedAmount
		report.DebtAmount = run.Context.DebtAmount
		report.Received = run.Received
		report.Profit = run.Profit
	}
	report.Duration = time.Since(start)
	report.Err = err

	o.metrics.runLatency.Record(ctx, float64(report.Duration.Milliseconds()))

	if err != nil {
		report.State = domain.StateReverted
		o.metrics.runsFailed.Add(ctx, 1)
		span.SetStatus(codes.Error, string(apperror.GetCode(err)))
		o.logger.Debug(ctx, "arbitrage run reverted",
			"token_a", tokenA.Hex(),
			"token_b", tokenB.Hex(),
			"error", err,
		)
		return report, err
	}

	report.ProfitDisplay = o.registry.GetOrGeneric(report.DebtToken).Format(report.Profit)
	if report.Profit.IsUint64() {
		o.metrics.profit.Add(ctx, int64(report.Profit.Uint64()))
	}

	span.SetAttributes(
		attribute.String("borrowed", report.BorrowedAmount.String()),
		attribute.String("profit", report.Profit.String()),
	)
	span.SetStatus(codes.Ok, "profit forwarded")

	o.logger.Info(ctx, "arbitrage settled",
		"origin_pool", report.OriginPool.Hex(),
		"target_pool", report.TargetPool.Hex(),
		"borrowed", report.BorrowedAmount.String(),
		"debt", report.DebtAmount.String(),
		"received", report.Received.String(),
		"profit", report.Profit.String(),
	)

	return report, nil
}

func (o *Orchestrator) startArbitrage(ctx context.Context, caller, tokenA, tokenB common.Address, amountA, amountB, minProfit *uint256.Int) (*domain.Run, error) {
	if caller != o.cfg.Operator {
		return nil, apperror.Validation(apperror.CodeUnauthorizedCaller, caller.Hex())
	}
	if tokenA == tokenB {
		return nil, apperror.Validation(apperror.CodeInvalidTokenPair, tokenA.Hex())
	}
	if amountA == nil {
		amountA = uint256.NewInt(0)
	}
	if amountB == nil {
		amountB = uint256.NewInt(0)
	}
	// Exactly one side names the borrow; anything else is rejected here,
	// before any pool is touched.
	if amountA.IsZero() == amountB.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidAmount,
			"exactly one of amountA, amountB must be positive")
	}

	originPool, err := ammDomain.PairFor(o.cfg.RegistryOne, tokenA, tokenB, o.cfg.CodeHash)
	if err != nil {
		return nil, err
	}
	targetPool, err := ammDomain.PairFor(o.cfg.RegistryTwo, tokenA, tokenB, o.cfg.CodeHash)
	if err != nil {
		return nil, err
	}

	// Orient the requested amounts to the canonical token ordering.
	token0, _, err := ammDomain.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, err
	}
	amount0, amount1 := amountA, amountB
	if token0 != tokenA {
		amount0, amount1 = amountB, amountA
	}

	var run *domain.Run
	err = o.exchange.Execute(ctx, func(ctx context.Context) error {
		if o.run != nil {
			return apperror.Validation(apperror.CodeRunInProgress, "")
		}

		origin, ok := o.exchange.Pool(originPool)
		if !ok {
			return apperror.Validation(apperror.CodePoolNotFound, originPool.Hex())
		}

		run = domain.NewRun(domain.ArbitrageContext{
			OriginPool: originPool,
			TargetPool: targetPool,
		})
		run.MinProfit = minProfit
		o.run = run
		defer func() { o.run = nil }()

		data, err := domain.EncodeCallbackData(targetPool)
		if err != nil {
			return err
		}

		// The origin pool releases the tokens and re-enters via
		// OnFlashSwap before this call returns.
		return origin.Swap(ctx, amount0, amount1, o.cfg.Address, data)
	})
	if err != nil {
		if run != nil {
			run.State = domain.StateReverted
		}
		return run, err
	}
	return run, nil
}

// OnFlashSwap is the orchestrator's sole re-entry point, invoked by the
// origin pool mid-swap after it optimistically released the borrowed
// tokens. It recovers the run context, verifies profitability, realizes
// the debt token on the target pool, repays the origin pool, and
// forwards the residual to the beneficiary. Returning an error reverts
// the entire run.
func (o *Orchestrator) OnFlashSwap(ctx context.Context, caller common.Address, amount0, amount1 *uint256.Int, data []byte) error {
	if amount0 == nil {
		amount0 = uint256.NewInt(0)
	}
	if amount1 == nil {
		amount1 = uint256.NewInt(0)
	}

	run := o.run
	if run == nil || run.State != domain.StateBorrowRequested {
		return apperror.Validation(apperror.CodeUnauthorizedCallback, "no borrow in flight")
	}
	// The callback must come from the locator-derived origin pool for
	// this run; anything else is a forged callback.
	if caller != run.Context.OriginPool {
		return apperror.Validation(apperror.CodeUnauthorizedCallback, caller.Hex())
	}

	if amount0.IsZero() && amount1.IsZero() {
		return apperror.Validation(apperror.CodeNoAmountBorrowed, caller.Hex())
	}
	if !amount0.IsZero() && !amount1.IsZero() {
		return apperror.Validation(apperror.CodeAmbiguousBorrow, caller.Hex())
	}

	targetPool, err := domain.DecodeCallbackData(data)
	if err != nil {
		return err
	}
	if targetPool != run.Context.TargetPool {
		return apperror.Validation(apperror.CodeInvalidCallbackData,
			"callback target pool does not match the in-flight run")
	}

	origin, ok := o.exchange.Pool(caller)
	if !ok {
		return apperror.Validation(apperror.CodePoolNotFound, caller.Hex())
	}

	// Recover which token was borrowed from the non-zero slot.
	borrowedToken, debtToken := origin.Token0(), origin.Token1()
	borrowed := amount0
	if amount0.IsZero() {
		borrowedToken, debtToken = origin.Token1(), origin.Token0()
		borrowed = amount1
	}
	run.State = domain.StateInCallback
	run.Context.BorrowedToken = borrowedToken
	run.Context.DebtToken = debtToken
	run.Context.BorrowedAmount = borrowed

	// Debt: how much debtToken the origin pool's invariant demands for
	// the borrowed amount, from its last-settled reserves.
	reserveBorrowed, reserveDebt, err := o.resolver.ReservesFor(ctx, o.cfg.RegistryOne, borrowedToken, debtToken)
	if err != nil {
		return err
	}
	debt, err := ammDomain.AmountIn(borrowed, reserveDebt, reserveBorrowed)
	if err != nil {
		return err
	}
	run.Context.DebtAmount = debt

	// Move the borrowed tokens to the target pool ahead of its swap.
	// If the run fails after this point the rollback undoes it.
	if err := o.exchange.Ledger().Transfer(borrowedToken, o.cfg.Address, targetPool, borrowed); err != nil {
		return err
	}

	targetReserveBorrowed, targetReserveDebt, err := o.resolver.ReservesFor(ctx, o.cfg.RegistryTwo, borrowedToken, debtToken)
	if err != nil {
		return err
	}
	received, err := ammDomain.AmountOut(borrowed, targetReserveBorrowed, targetReserveDebt)
	if err != nil {
		return err
	}
	run.Received = received

	if received.Cmp(debt) <= 0 {
		return apperror.Validation(apperror.CodeUnprofitable,
			"received "+received.String()+", debt "+debt.String())
	}
	profit := new(uint256.Int).Sub(received, debt)
	if run.MinProfit != nil && profit.Cmp(run.MinProfit) < 0 {
		return apperror.Validation(apperror.CodeUnprofitable,
			"profit "+profit.String()+" below floor "+run.MinProfit.String())
	}
	run.State = domain.StateReceiptVerified

	// Realize the debt token on the target pool. The borrowed tokens
	// already sit in its balance, so the swap's invariant is satisfied.
	target, ok := o.exchange.Pool(targetPool)
	if !ok {
		return apperror.Validation(apperror.CodePoolNotFound, targetPool.Hex())
	}
	var out0, out1 *uint256.Int
	if target.Token0() == debtToken {
		out0 = received
	} else {
		out1 = received
	}
	if err := target.Swap(ctx, out0, out1, o.cfg.Address, nil); err != nil {
		return err
	}

	// Repay exactly the debt; the origin pool verifies its invariant
	// when this callback returns.
	if err := o.exchange.Ledger().Transfer(debtToken, o.cfg.Address, caller, debt); err != nil {
		return err
	}
	run.State = domain.StateRepaid

	if err := o.exchange.Ledger().Transfer(debtToken, o.cfg.Address, o.cfg.Beneficiary, profit); err != nil {
		return err
	}
	run.Profit = profit
	run.State = domain.StateProfitForwarded

	return nil
}

// Sweep forwards the orchestrator's entire balance of token to the given
// account. It exists to recover residue left by external transfers; it
// is not part of the run state machine.
func (o *Orchestrator) Sweep(ctx context.Context, caller, token, to common.Address) (*uint256.Int, error) {
	if caller != o.cfg.Operator {
		return nil, apperror.Validation(apperror.CodeUnauthorizedCaller, caller.Hex())
	}

	var swept *uint256.Int
	err := o.exchange.Execute(ctx, func(ctx context.Context) error {
		swept = o.exchange.Ledger().BalanceOf(token, o.cfg.Address)
		if swept.IsZero() {
			return nil
		}
		return o.exchange.Ledger().Transfer(token, o.cfg.Address, to, swept)
	})
	if err != nil {
		return nil, err
	}

	o.logger.Info(ctx, "swept residual balance",
		"token", token.Hex(),
		"to", to.Hex(),
		"amount", swept.String(),
	)
	return swept, nil
}
