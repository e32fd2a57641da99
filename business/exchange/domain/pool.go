package domain

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/internal/apperror"
)

// FlashCallee receives the mid-swap callback when a swap carries opaque
// data. caller is the address of the pool performing the swap.
type FlashCallee interface {
	OnFlashSwap(ctx context.Context, caller common.Address, amount0, amount1 *uint256.Int, data []byte) error
}

// feeThousandths is the swap fee in thousandths applied by the invariant
// check: a 0.3% fee means 3/1000 of every input is not counted toward k.
const feeThousandths = 3

var thousand = uint256.NewInt(1000)

// Pool is a constant-product pool over a canonically ordered token pair.
// Reserves are settled snapshots: they change only when a swap or mint
// completes, never mid-flight.
type Pool struct {
	address common.Address
	token0  common.Address
	token1  common.Address

	reserve0    *uint256.Int
	reserve1    *uint256.Int
	lastSettled time.Time

	exchange *Exchange
}

// Address returns the pool's derived address.
func (p *Pool) Address() common.Address { return p.address }

// Token0 returns the lower-ordered token of the pair.
func (p *Pool) Token0() common.Address { return p.token0 }

// Token1 returns the higher-ordered token of the pair.
func (p *Pool) Token1() common.Address { return p.token1 }

// Reserves returns the last-settled reserve snapshot. Transfers made
// earlier in an in-flight execution are not reflected until the pool
// settles them.
func (p *Pool) Reserves() (*uint256.Int, *uint256.Int, time.Time) {
	return new(uint256.Int).Set(p.reserve0), new(uint256.Int).Set(p.reserve1), p.lastSettled
}

// Mint pulls (amount0, amount1) of the pair from the provider account
// into the pool and settles reserves. Liquidity-share accounting is not
// modeled; the pool only needs funded reserves to trade against.
func (p *Pool) Mint(from common.Address, amount0, amount1 *uint256.Int) error {
	if err := p.exchange.ledger.Transfer(p.token0, from, p.address, amount0); err != nil {
		return err
	}
	if err := p.exchange.ledger.Transfer(p.token1, from, p.address, amount1); err != nil {
		return err
	}
	p.settle()
	return nil
}

// Swap optimistically pays out the requested amounts to the recipient,
// invokes the recipient's flash callback when data is non-empty, and
// then enforces the fee-adjusted constant-product invariant against the
// pool's actual balances. Any violation aborts with an error; the
// surrounding executor rolls the whole run back.
func (p *Pool) Swap(ctx context.Context, amount0Out, amount1Out *uint256.Int, to common.Address, data []byte) error {
	if amount0Out == nil {
		amount0Out = uint256.NewInt(0)
	}
	if amount1Out == nil {
		amount1Out = uint256.NewInt(0)
	}
	if amount0Out.IsZero() && amount1Out.IsZero() {
		return apperror.Validation(apperror.CodeInvalidAmount, "no output requested")
	}
	if amount0Out.Cmp(p.reserve0) >= 0 || amount1Out.Cmp(p.reserve1) >= 0 {
		return apperror.Validation(apperror.CodeInsufficientLiquidity,
			fmt.Sprintf("pool %s", p.address.Hex()))
	}

	// Optimistic release: tokens leave before payment arrives.
	if !amount0Out.IsZero() {
		if err := p.exchange.ledger.Transfer(p.token0, p.address, to, amount0Out); err != nil {
			return err
		}
	}
	if !amount1Out.IsZero() {
		if err := p.exchange.ledger.Transfer(p.token1, p.address, to, amount1Out); err != nil {
			return err
		}
	}

	if len(data) > 0 {
		callee, ok := p.exchange.callee(to)
		if !ok {
			return apperror.Validation(apperror.CodeUnknownAccount, to.Hex())
		}
		if err := callee.OnFlashSwap(ctx, p.address, amount0Out, amount1Out, data); err != nil {
			return err
		}
	}

	balance0 := p.exchange.ledger.BalanceOf(p.token0, p.address)
	balance1 := p.exchange.ledger.BalanceOf(p.token1, p.address)

	amount0In := inputAmount(balance0, p.reserve0, amount0Out)
	amount1In := inputAmount(balance1, p.reserve1, amount1Out)
	if amount0In.IsZero() && amount1In.IsZero() {
		return apperror.Validation(apperror.CodeInsufficientRepayment, p.address.Hex())
	}

	ok, err := p.checkInvariant(balance0, balance1, amount0In, amount1In)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.Validation(apperror.CodeInvariantViolated, p.address.Hex())
	}

	p.settle()
	return nil
}

// inputAmount recovers how much of one token was paid in during the
// swap: anything above the optimistically reduced reserve.
func inputAmount(balance, reserve, amountOut *uint256.Int) *uint256.Int {
	floor := new(uint256.Int).Sub(reserve, amountOut)
	if balance.Cmp(floor) <= 0 {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Sub(balance, floor)
}

// checkInvariant verifies, in thousandths to keep the fee integral:
//
//	(balance0*1000 - in0*3) * (balance1*1000 - in1*3) >= reserve0 * reserve1 * 1000²
func (p *Pool) checkInvariant(balance0, balance1, amount0In, amount1In *uint256.Int) (bool, error) {
	adjusted0, err := adjustedBalance(balance0, amount0In)
	if err != nil {
		return false, err
	}
	adjusted1, err := adjustedBalance(balance1, amount1In)
	if err != nil {
		return false, err
	}

	left := new(uint256.Int)
	if _, overflow := left.MulOverflow(adjusted0, adjusted1); overflow {
		return false, apperror.Validation(apperror.CodeArithmeticOverflow, "adjusted balance product")
	}

	right := new(uint256.Int)
	if _, overflow := right.MulOverflow(p.reserve0, p.reserve1); overflow {
		return false, apperror.Validation(apperror.CodeArithmeticOverflow, "reserve product")
	}
	if _, overflow := right.MulOverflow(right, thousand); overflow {
		return false, apperror.Validation(apperror.CodeArithmeticOverflow, "reserve product scaling")
	}
	if _, overflow := right.MulOverflow(right, thousand); overflow {
		return false, apperror.Validation(apperror.CodeArithmeticOverflow, "reserve product scaling")
	}

	return left.Cmp(right) >= 0, nil
}

func adjustedBalance(balance, amountIn *uint256.Int) (*uint256.Int, error) {
	adjusted := new(uint256.Int)
	if _, overflow := adjusted.MulOverflow(balance, thousand); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "balance scaling")
	}

	fee := new(uint256.Int)
	if _, overflow := fee.MulOverflow(amountIn, uint256.NewInt(feeThousandths)); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "fee scaling")
	}

	// balance includes amountIn, so the scaled balance always covers
	// the fee term.
	return adjusted.Sub(adjusted, fee), nil
}

// settle records the pool's actual balances as the new reserve snapshot.
func (p *Pool) settle() {
	p.reserve0 = p.exchange.ledger.BalanceOf(p.token0, p.address)
	p.reserve1 = p.exchange.ledger.BalanceOf(p.token1, p.address)
	p.lastSettled = time.Now()
}
