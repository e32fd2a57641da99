// Package domain contains the core domain types for the arbitrage context.
package domain

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// RunState is the lifecycle state of a single arbitrage run.
type RunState int

const (
	// StateIdle means no run is in flight.
	StateIdle RunState = iota
	// StateBorrowRequested means the uncollateralized withdrawal was issued
	// against the origin pool and the callback has not yet arrived.
	StateBorrowRequested
	// StateInCallback means the origin pool has re-entered via the flash
	// callback and the run context is being recovered.
	StateInCallback
	// StateReceiptVerified means the profitability check passed.
	StateReceiptVerified
	// StateRepaid means the debt was forwarded to the origin pool.
	StateRepaid
	// StateProfitForwarded is the terminal success state.
	StateProfitForwarded
	// StateReverted is the terminal failure state. All effects of the run
	// were rolled back.
	StateReverted
)

// String returns a human-readable state name.
func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateBorrowRequested:
		return "borrow_requested"
	case StateInCallback:
		return "in_callback"
	case StateReceiptVerified:
		return "receipt_verified"
	case StateRepaid:
		return "repaid"
	case StateProfitForwarded:
		return "profit_forwarded"
	case StateReverted:
		return "reverted"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a run.
func (s RunState) Terminal() bool {
	return s == StateProfitForwarded || s == StateReverted
}

// ArbitrageContext is the ephemeral record threaded through one run, from
// borrow initiation to settlement. It is owned by the single in-flight
// execution and discarded when the run ends; it is never persisted.
type ArbitrageContext struct {
	OriginPool     common.Address
	TargetPool     common.Address
	BorrowedToken  common.Address
	DebtToken      common.Address
	BorrowedAmount *uint256.Int
	DebtAmount     *uint256.Int
}

// Run tracks one arbitrage attempt as it moves through the state machine.
type Run struct {
	State     RunState
	Context   ArbitrageContext
	MinProfit *uint256.Int
	Received  *uint256.Int
	Profit    *uint256.Int
	StartedAt time.Time
}

// NewRun creates a run in the borrow-requested state.
func NewRun(arbCtx ArbitrageContext) *Run {
	return &Run{
		State:     StateBorrowRequested,
		Context:   arbCtx,
		StartedAt: time.Now(),
	}
}

// Report is the caller-visible outcome of one run.
type Report struct {
	State          RunState
	OriginPool     common.Address
	TargetPool     common.Address
	BorrowedToken  common.Address
	DebtToken      common.Address
	BorrowedAmount *uint256.Int
	DebtAmount     *uint256.Int
	Received       *uint256.Int
	Profit         *uint256.Int
	ProfitDisplay  string
	Duration       time.Duration
	Err            error
}

// Succeeded reports whether the run reached the terminal success state.
func (r *Report) Succeeded() bool {
	return r.State == StateProfitForwarded
}
