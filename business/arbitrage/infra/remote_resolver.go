package infra

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/business/arbitrage/app"
	"github.com/fd1az/flasharb/internal/apperror"
	"github.com/fd1az/flasharb/internal/circuitbreaker"
	"github.com/fd1az/flasharb/internal/logger"
)

const (
	remoteTracerName = "remote-resolver"
	remoteMeterName  = "remote-resolver"
)

// Ensure RemoteResolver implements ReserveResolver.
var _ app.ReserveResolver = (*RemoteResolver)(nil)

// resolverMetrics holds OTEL metric instruments.
type resolverMetrics struct {
	readsTotal  metric.Int64Counter
	readErrors  metric.Int64Counter
	readLatency metric.Float64Histogram
}

// RemoteResolver reads pair reserves from an Ethereum node via eth_call.
// Reads go through a circuit breaker so a flapping node degrades to fast
// failures instead of piling up timeouts.
type RemoteResolver struct {
	caller   ethereum.ContractCaller
	pairABI  abi.ABI
	codeHash common.Hash

	logger logger.LoggerInterface
	cb     *circuitbreaker.CircuitBreaker[[]byte]

	tracer  trace.Tracer
	metrics *resolverMetrics
}

// NewRemoteResolver creates a resolver backed by an Ethereum node.
func NewRemoteResolver(caller ethereum.ContractCaller, codeHash common.Hash, log logger.LoggerInterface) (*RemoteResolver, error) {
	parsedABI, err := abi.JSON(strings.NewReader(PairABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pair ABI: %w", err)
	}

	r := &RemoteResolver{
		caller:   caller,
		pairABI:  parsedABI,
		codeHash: codeHash,
		logger:   log,
		tracer:   otel.Tracer(remoteTracerName),
	}

	cbCfg := circuitbreaker.DefaultConfig("pair-reserves")
	r.cb = circuitbreaker.New[[]byte](cbCfg)

	if err := r.initMetrics(); err != nil {
		return nil, fmt.Errorf("failed to init metrics: %w", err)
	}

	return r, nil
}

func (r *RemoteResolver) initMetrics() error {
	meter := otel.Meter(remoteMeterName)
	var err error

	r.metrics = &resolverMetrics{}

	r.metrics.readsTotal, err = meter.Int64Counter(
		"reserve_reads_total",
		metric.WithDescription("Total remote reserve reads"),
	)
	if err != nil {
		return err
	}

	r.metrics.readErrors, err = meter.Int64Counter(
		"reserve_read_errors_total",
		metric.WithDescription("Total remote reserve read errors"),
	)
	if err != nil {
		return err
	}

	r.metrics.readLatency, err = meter.Float64Histogram(
		"reserve_read_latency_ms",
		metric.WithDescription("Remote reserve read latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return err
	}

	return nil
}

// ReservesFor derives the pair address for (registry, tokenA, tokenB),
// calls getReserves on it, and reorders the result to the argument order.
func (r *RemoteResolver) ReservesFor(ctx context.Context, registry, tokenA, tokenB common.Address) (*uint256.Int, *uint256.Int, error) {
	pair, err := ammDomain.PairFor(registry, tokenA, tokenB, r.codeHash)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := r.tracer.Start(ctx, "resolver.reserves_for",
		trace.WithAttributes(
			attribute.String("registry", registry.Hex()),
			attribute.String("pair", pair.Hex()),
		),
	)
	defer span.End()

	start := time.Now()
	r.metrics.readsTotal.Add(ctx, 1)

	reserve0, reserve1, err := r.getReserves(ctx, pair)

	r.metrics.readLatency.Record(ctx, float64(time.Since(start).Milliseconds()))

	if err != nil {
		r.metrics.readErrors.Add(ctx, 1)
		span.SetStatus(codes.Error, "read failed")
		return nil, nil, err
	}

	span.SetAttributes(
		attribute.String("reserve0", reserve0.String()),
		attribute.String("reserve1", reserve1.String()),
	)
	span.SetStatus(codes.Ok, "reserves read")

	token0, _, err := ammDomain.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, nil, err
	}
	if token0 == tokenA {
		return reserve0, reserve1, nil
	}
	return reserve1, reserve0, nil
}

func (r *RemoteResolver) getReserves(ctx context.Context, pair common.Address) (*uint256.Int, *uint256.Int, error) {
	callData, err := r.pairABI.Pack("getReserves")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode call: %w", err)
	}

	result, err := r.cb.Execute(func() ([]byte, error) {
		return r.caller.CallContract(ctx, ethereum.CallMsg{
			To:   &pair,
			Data: callData,
		}, nil)
	})
	if err != nil {
		if apperror.IsCode(err, apperror.CodeCircuitOpen) {
			return nil, nil, err
		}
		return nil, nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext(fmt.Sprintf("getReserves on %s", pair.Hex())))
	}

	outputs, err := r.pairABI.Unpack("getReserves", result)
	if err != nil {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithCause(err),
			apperror.WithContext("failed to decode getReserves result"))
	}
	if len(outputs) < 2 {
		return nil, nil, apperror.New(apperror.CodeContractCallFailed,
			apperror.WithContext(fmt.Sprintf("unexpected output length: %d", len(outputs))))
	}

	reserve0, overflow0 := uint256.FromBig(outputs[0].(*big.Int))
	reserve1, overflow1 := uint256.FromBig(outputs[1].(*big.Int))
	if overflow0 || overflow1 {
		return nil, nil, apperror.Validation(apperror.CodeArithmeticOverflow, "reserve exceeds 256 bits")
	}

	r.logger.Debug(ctx, "remote reserves",
		"pair", pair.Hex(),
		"reserve0", reserve0.String(),
		"reserve1", reserve1.String(),
	)

	return reserve0, reserve1, nil
}
