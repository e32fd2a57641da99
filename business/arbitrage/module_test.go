package arbitrage

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/internal/config"
)

func TestScannerConfig_ScalesPerDirection(t *testing.T) {
	cfg := &config.Config{}
	cfg.Simulation.TokenA = config.TokenConfig{
		Symbol:   "TKA",
		Address:  "0x00000000000000000000000000000000000000Aa",
		Decimals: 18,
	}
	cfg.Simulation.TokenB = config.TokenConfig{
		Symbol:   "TKB",
		Address:  "0x00000000000000000000000000000000000000Bb",
		Decimals: 6,
	}
	cfg.Scanner.BorrowSizes = []float64{10}
	cfg.Scanner.MinProfit = 1

	sc := scannerConfig(cfg)

	wantSizeA := new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(1e18))
	if len(sc.BorrowSizesA) != 1 || sc.BorrowSizesA[0].Cmp(wantSizeA) != 0 {
		t.Errorf("token A sizes = %v, want [%s]", sc.BorrowSizesA, wantSizeA)
	}
	if len(sc.BorrowSizesB) != 1 || sc.BorrowSizesB[0].Uint64() != 10_000_000 {
		t.Errorf("token B sizes = %v, want [10000000]", sc.BorrowSizesB)
	}

	// A borrow of token A realizes its profit in token B, so that
	// direction's floor carries token B's decimals, and vice versa.
	if sc.MinProfitA == nil || sc.MinProfitA.Uint64() != 1_000_000 {
		t.Errorf("floor for token A borrows = %v, want 1000000", sc.MinProfitA)
	}
	wantFloorB := uint256.NewInt(1e18)
	if sc.MinProfitB == nil || sc.MinProfitB.Cmp(wantFloorB) != 0 {
		t.Errorf("floor for token B borrows = %v, want %s", sc.MinProfitB, wantFloorB)
	}
}

func TestScannerConfig_NoFloorWhenUnset(t *testing.T) {
	cfg := &config.Config{}
	cfg.Simulation.TokenA = config.TokenConfig{Address: "0xAa", Decimals: 18}
	cfg.Simulation.TokenB = config.TokenConfig{Address: "0xBb", Decimals: 18}
	cfg.Scanner.BorrowSizes = []float64{1}

	sc := scannerConfig(cfg)
	if sc.MinProfitA != nil || sc.MinProfitB != nil {
		t.Errorf("floors = (%v, %v), want unset", sc.MinProfitA, sc.MinProfitB)
	}
}
