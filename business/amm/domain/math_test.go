package domain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/internal/apperror"
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   uint64
		reserveIn  uint64
		reserveOut uint64
		want       uint64
	}{
		{
			name:       "balanced_pool",
			amountIn:   10,
			reserveIn:  1000,
			reserveOut: 1000,
			want:       9, // floor(9970*1000 / (1000000+9970))
		},
		{
			name:       "skewed_pool",
			amountIn:   10,
			reserveIn:  1000,
			reserveOut: 1100,
			want:       10, // floor(9970*1100 / 1009970)
		},
		{
			name:       "large_trade",
			amountIn:   500,
			reserveIn:  1000,
			reserveOut: 1000,
			want:       332,
		},
		{
			name:       "tiny_trade_rounds_to_zero",
			amountIn:   1,
			reserveIn:  1_000_000,
			reserveOut: 1,
			want:       0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountOut(u(tt.amountIn), u(tt.reserveIn), u(tt.reserveOut))
			if err != nil {
				t.Fatalf("AmountOut error: %v", err)
			}
			if got.Uint64() != tt.want {
				t.Errorf("AmountOut = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountOut_InvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   *uint256.Int
		reserveIn  *uint256.Int
		reserveOut *uint256.Int
	}{
		{"zero_amount_in", u(0), u(1000), u(1000)},
		{"nil_amount_in", nil, u(1000), u(1000)},
		{"zero_reserve_in", u(10), u(0), u(1000)},
		{"zero_reserve_out", u(10), u(1000), u(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AmountOut(tt.amountIn, tt.reserveIn, tt.reserveOut)
			if !apperror.IsCode(err, apperror.CodeInvalidInput) {
				t.Errorf("expected INVALID_INPUT, got %v", err)
			}
		})
	}
}

func TestAmountOut_Overflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()

	_, err := AmountOut(max, u(1000), u(1000))
	if !apperror.IsCode(err, apperror.CodeArithmeticOverflow) {
		t.Errorf("expected ARITHMETIC_OVERFLOW, got %v", err)
	}
}

func TestAmountOut_NeverDrainsReserve(t *testing.T) {
	// For any positive inputs, the output must stay strictly below
	// reserveOut.
	reserves := []uint64{1, 2, 997, 1000, 1_000_000, 1 << 40}
	amounts := []uint64{1, 10, 999, 123_456, 1 << 50}

	for _, rIn := range reserves {
		for _, rOut := range reserves {
			for _, in := range amounts {
				out, err := AmountOut(u(in), u(rIn), u(rOut))
				if err != nil {
					t.Fatalf("AmountOut(%d,%d,%d) error: %v", in, rIn, rOut, err)
				}
				if out.Cmp(u(rOut)) >= 0 {
					t.Errorf("AmountOut(%d,%d,%d) = %s, not below reserveOut", in, rIn, rOut, out)
				}
			}
		}
	}
}

func TestAmountOut_Monotonic(t *testing.T) {
	prev := uint256.NewInt(0)
	for in := uint64(1); in <= 2000; in += 7 {
		out, err := AmountOut(u(in), u(10_000), u(15_000))
		if err != nil {
			t.Fatalf("AmountOut error at %d: %v", in, err)
		}
		if out.Cmp(prev) < 0 {
			t.Fatalf("output decreased at amountIn=%d: %s < %s", in, out, prev)
		}
		prev = out
	}
}

func TestAmountIn(t *testing.T) {
	tests := []struct {
		name       string
		amountOut  uint64
		reserveIn  uint64
		reserveOut uint64
		want       uint64
	}{
		{
			name:       "balanced_pool",
			amountOut:  10,
			reserveIn:  1000,
			reserveOut: 1000,
			want:       11, // floor(10000000/987030)+1
		},
		{
			name:       "skewed_pool",
			amountOut:  10,
			reserveIn:  1000,
			reserveOut: 1100,
			want:       10, // floor(10000000/1086730)+1
		},
		{
			name:       "large_request",
			amountOut:  500,
			reserveIn:  1000,
			reserveOut: 1000,
			want:       1004,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AmountIn(u(tt.amountOut), u(tt.reserveIn), u(tt.reserveOut))
			if err != nil {
				t.Fatalf("AmountIn error: %v", err)
			}
			if got.Uint64() != tt.want {
				t.Errorf("AmountIn = %s, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountIn_Preconditions(t *testing.T) {
	tests := []struct {
		name       string
		amountOut  *uint256.Int
		reserveIn  *uint256.Int
		reserveOut *uint256.Int
		wantCode   apperror.Code
	}{
		{"zero_amount_out", u(0), u(1000), u(1000), apperror.CodeInvalidInput},
		{"zero_reserve_in", u(10), u(0), u(1000), apperror.CodeInvalidInput},
		{"zero_reserve_out", u(10), u(1000), u(0), apperror.CodeInvalidInput},
		{"request_equals_reserve", u(1000), u(1000), u(1000), apperror.CodeInsufficientLiquidity},
		{"request_exceeds_reserve", u(1001), u(1000), u(1000), apperror.CodeInsufficientLiquidity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AmountIn(tt.amountOut, tt.reserveIn, tt.reserveOut)
			if !apperror.IsCode(err, tt.wantCode) {
				t.Errorf("expected %s, got %v", tt.wantCode, err)
			}
		})
	}
}

func TestAmountIn_RoundsUp(t *testing.T) {
	// Wherever the exact quotient is not integral, the result must be
	// floor(exact)+1. Recompute the floor with big.Int and compare.
	cases := []struct{ out, rIn, rOut uint64 }{
		{10, 1000, 1000},
		{7, 12345, 67890},
		{999, 100_000, 50_000},
		{1, 3, 2},
	}

	for _, c := range cases {
		got, err := AmountIn(u(c.out), u(c.rIn), u(c.rOut))
		if err != nil {
			t.Fatalf("AmountIn(%d,%d,%d) error: %v", c.out, c.rIn, c.rOut, err)
		}

		num := new(big.Int).SetUint64(c.rIn)
		num.Mul(num, new(big.Int).SetUint64(c.out))
		num.Mul(num, big.NewInt(1000))
		den := new(big.Int).SetUint64(c.rOut - c.out)
		den.Mul(den, big.NewInt(997))

		floor, rem := new(big.Int).QuoRem(num, den, new(big.Int))
		want := new(big.Int).Add(floor, big.NewInt(1))
		if rem.Sign() == 0 {
			// Exact division still rounds in the pool's favor.
			want = new(big.Int).Add(floor, big.NewInt(1))
		}
		if got.ToBig().Cmp(want) != 0 {
			t.Errorf("AmountIn(%d,%d,%d) = %s, want %s", c.out, c.rIn, c.rOut, got, want)
		}
	}
}

func TestAmountIn_RoundTrip(t *testing.T) {
	// The input computed for a given output must always buy at least the
	// original amount back: AmountIn(AmountOut(x)) >= x never under-quotes.
	for x := uint64(1); x < 500; x += 13 {
		out, err := AmountOut(u(x), u(10_000), u(20_000))
		if err != nil {
			t.Fatalf("AmountOut error: %v", err)
		}
		if out.IsZero() {
			continue
		}
		back, err := AmountIn(out, u(10_000), u(20_000))
		if err != nil {
			t.Fatalf("AmountIn error: %v", err)
		}
		if back.Cmp(u(x)) < 0 {
			t.Errorf("round trip under-quotes: x=%d out=%s back=%s", x, out, back)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		name     string
		amountA  uint64
		reserveA uint64
		reserveB uint64
		want     uint64
	}{
		{"proportional", 10, 1000, 1100, 11},
		{"floor_rounded", 10, 3000, 1000, 3},
		{"one_to_one", 42, 500, 500, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Quote(u(tt.amountA), u(tt.reserveA), u(tt.reserveB))
			if err != nil {
				t.Fatalf("Quote error: %v", err)
			}
			if got.Uint64() != tt.want {
				t.Errorf("Quote = %s, want %d", got, tt.want)
			}
		})
	}

	if _, err := Quote(u(0), u(1000), u(1000)); !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT for zero amount, got %v", err)
	}
}

func staticReserves(rIn, rOut uint64) PairReserves {
	return func(_, _ common.Address) (*uint256.Int, *uint256.Int, error) {
		return u(rIn), u(rOut), nil
	}
}

func TestAmountsOut(t *testing.T) {
	path := []common.Address{
		common.HexToAddress("0xa1"),
		common.HexToAddress("0xb2"),
		common.HexToAddress("0xc3"),
	}

	amounts, err := AmountsOut(u(100), path, staticReserves(10_000, 10_000))
	if err != nil {
		t.Fatalf("AmountsOut error: %v", err)
	}
	if len(amounts) != 3 {
		t.Fatalf("expected 3 amounts, got %d", len(amounts))
	}
	if amounts[0].Uint64() != 100 {
		t.Errorf("amounts[0] = %s, want 100", amounts[0])
	}
	// Each hop pays 0.3% fee, so output shrinks monotonically.
	if amounts[1].Cmp(amounts[0]) >= 0 || amounts[2].Cmp(amounts[1]) >= 0 {
		t.Errorf("outputs not decreasing: %v", amounts)
	}
}

func TestAmountsOut_ShortPath(t *testing.T) {
	path := []common.Address{common.HexToAddress("0xa1")}

	_, err := AmountsOut(u(100), path, staticReserves(1000, 1000))
	if !apperror.IsCode(err, apperror.CodeInvalidPath) {
		t.Errorf("expected INVALID_PATH, got %v", err)
	}
}

func TestAmountsOut_FailsFast(t *testing.T) {
	path := []common.Address{
		common.HexToAddress("0xa1"),
		common.HexToAddress("0xb2"),
		common.HexToAddress("0xc3"),
	}

	calls := 0
	reserves := func(_, _ common.Address) (*uint256.Int, *uint256.Int, error) {
		calls++
		return u(0), u(1000), nil // first hop violates the precondition
	}

	_, err := AmountsOut(u(100), path, reserves)
	if !apperror.IsCode(err, apperror.CodeInvalidInput) {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	if calls != 1 {
		t.Errorf("expected computation to stop at first hop, reserves read %d times", calls)
	}
}

func TestAmountsIn(t *testing.T) {
	path := []common.Address{
		common.HexToAddress("0xa1"),
		common.HexToAddress("0xb2"),
	}

	amounts, err := AmountsIn(u(10), path, staticReserves(1000, 1000))
	if err != nil {
		t.Fatalf("AmountsIn error: %v", err)
	}
	if amounts[1].Uint64() != 10 {
		t.Errorf("amounts[1] = %s, want 10", amounts[1])
	}
	if amounts[0].Uint64() != 11 {
		t.Errorf("amounts[0] = %s, want 11", amounts[0])
	}
}

func BenchmarkAmountOut(b *testing.B) {
	amountIn := u(123_456)
	reserveIn := u(10_000_000)
	reserveOut := u(20_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = AmountOut(amountIn, reserveIn, reserveOut)
	}
}
