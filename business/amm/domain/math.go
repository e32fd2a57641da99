// Package domain implements constant-product pool arithmetic and
// deterministic pool addressing. All math is integer-only over 256-bit
// unsigned values; any overflow is surfaced as an error, never wrapped.
package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/internal/apperror"
)

// The swap fee is fixed at 0.3%, applied as 997/1000 on the input amount
// before the constant-product relation is solved. Working in thousandths
// keeps every intermediate value integral.
var (
	feeNumerator   = uint256.NewInt(997)
	feeDenominator = uint256.NewInt(1000)
)

// AmountOut returns the maximum output a pool pays for amountIn given its
// reserves. The result is floor-rounded: the recipient never receives
// more than the invariant allows.
//
//	amountOut = (amountIn*997) * reserveOut / (reserveIn*1000 + amountIn*997)
func AmountOut(amountIn, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountIn == nil || amountIn.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "amountIn must be positive")
	}
	if reserveIn == nil || reserveIn.IsZero() || reserveOut == nil || reserveOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "reserves must be positive")
	}

	amountInWithFee := new(uint256.Int)
	if _, overflow := amountInWithFee.MulOverflow(amountIn, feeNumerator); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "amountIn * fee")
	}

	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(amountInWithFee, reserveOut); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "numerator")
	}

	denominator := new(uint256.Int)
	if _, overflow := denominator.MulOverflow(reserveIn, feeDenominator); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "reserveIn * 1000")
	}
	if _, overflow := denominator.AddOverflow(denominator, amountInWithFee); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "denominator")
	}

	return new(uint256.Int).Div(numerator, denominator), nil
}

// AmountIn returns the input a pool requires to pay out exactly
// amountOut. The result rounds up (floor division plus one), so the
// returned input is never insufficient to produce the requested output.
//
//	amountIn = reserveIn*amountOut*1000 / ((reserveOut-amountOut)*997) + 1
func AmountIn(amountOut, reserveIn, reserveOut *uint256.Int) (*uint256.Int, error) {
	if amountOut == nil || amountOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "amountOut must be positive")
	}
	if reserveIn == nil || reserveIn.IsZero() || reserveOut == nil || reserveOut.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "reserves must be positive")
	}
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, apperror.Validation(apperror.CodeInsufficientLiquidity, "amountOut exceeds reserveOut")
	}

	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(reserveIn, amountOut); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "reserveIn * amountOut")
	}
	if _, overflow := numerator.MulOverflow(numerator, feeDenominator); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "numerator * 1000")
	}

	// reserveOut > amountOut was checked above, so the subtraction
	// cannot underflow and the denominator is nonzero.
	denominator := new(uint256.Int).Sub(reserveOut, amountOut)
	if _, overflow := denominator.MulOverflow(denominator, feeNumerator); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "denominator * 997")
	}

	amountIn := new(uint256.Int).Div(numerator, denominator)
	if _, overflow := amountIn.AddOverflow(amountIn, uint256.NewInt(1)); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "amountIn + 1")
	}
	return amountIn, nil
}

// Quote returns the fee-free proportional conversion of amountA through
// the reserve ratio, floor-rounded.
//
//	amountB = amountA * reserveB / reserveA
func Quote(amountA, reserveA, reserveB *uint256.Int) (*uint256.Int, error) {
	if amountA == nil || amountA.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "amountA must be positive")
	}
	if reserveA == nil || reserveA.IsZero() || reserveB == nil || reserveB.IsZero() {
		return nil, apperror.Validation(apperror.CodeInvalidInput, "reserves must be positive")
	}

	numerator := new(uint256.Int)
	if _, overflow := numerator.MulOverflow(amountA, reserveB); overflow {
		return nil, apperror.Validation(apperror.CodeArithmeticOverflow, "amountA * reserveB")
	}
	return numerator.Div(numerator, reserveA), nil
}

// PairReserves supplies the reserves of the pool joining two adjacent
// path tokens, oriented to the given in/out order.
type PairReserves func(tokenIn, tokenOut common.Address) (reserveIn, reserveOut *uint256.Int, err error)

// AmountsOut chains AmountOut across a swap path of at least two tokens.
// amounts[0] is amountIn; amounts[len(path)-1] is the final output. The
// first hop whose preconditions fail aborts the whole computation.
func AmountsOut(amountIn *uint256.Int, path []common.Address, reserves PairReserves) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, apperror.Validation(apperror.CodeInvalidPath, "path too short")
	}

	amounts := make([]*uint256.Int, len(path))
	amounts[0] = new(uint256.Int).Set(amountIn)

	for i := 0; i < len(path)-1; i++ {
		reserveIn, reserveOut, err := reserves(path[i], path[i+1])
		if err != nil {
			return nil, err
		}
		out, err := AmountOut(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i+1] = out
	}
	return amounts, nil
}

// AmountsIn chains AmountIn backwards across a swap path: given the
// desired final output it returns the required input at every hop.
// amounts[0] is the total required input.
func AmountsIn(amountOut *uint256.Int, path []common.Address, reserves PairReserves) ([]*uint256.Int, error) {
	if len(path) < 2 {
		return nil, apperror.Validation(apperror.CodeInvalidPath, "path too short")
	}

	amounts := make([]*uint256.Int, len(path))
	amounts[len(path)-1] = new(uint256.Int).Set(amountOut)

	for i := len(path) - 1; i > 0; i-- {
		reserveIn, reserveOut, err := reserves(path[i-1], path[i])
		if err != nil {
			return nil, err
		}
		in, err := AmountIn(amounts[i], reserveIn, reserveOut)
		if err != nil {
			return nil, err
		}
		amounts[i-1] = in
	}
	return amounts, nil
}
