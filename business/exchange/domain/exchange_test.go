package domain

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/internal/apperror"
)

var (
	registry = common.HexToAddress("0x0000000000000000000000000000000000000101")
	tokenA   = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	tokenB   = common.HexToAddress("0x00000000000000000000000000000000000000Bb")
	trader   = common.HexToAddress("0x0000000000000000000000000000000000007777")
)

func u(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

func TestLedger_MintAndTransfer(t *testing.T) {
	ledger := NewLedger()

	if err := ledger.Mint(tokenA, trader, u(100)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if got := ledger.BalanceOf(tokenA, trader); got.Uint64() != 100 {
		t.Errorf("balance = %s, want 100", got)
	}

	other := common.HexToAddress("0x8888")
	if err := ledger.Transfer(tokenA, trader, other, u(40)); err != nil {
		t.Fatalf("Transfer error: %v", err)
	}
	if got := ledger.BalanceOf(tokenA, trader); got.Uint64() != 60 {
		t.Errorf("sender balance = %s, want 60", got)
	}
	if got := ledger.BalanceOf(tokenA, other); got.Uint64() != 40 {
		t.Errorf("recipient balance = %s, want 40", got)
	}
}

func TestLedger_InsufficientBalance(t *testing.T) {
	ledger := NewLedger()

	err := ledger.Transfer(tokenA, trader, common.HexToAddress("0x8888"), u(1))
	if !apperror.IsCode(err, apperror.CodeInsufficientBalance) {
		t.Errorf("expected INSUFFICIENT_BALANCE, got %v", err)
	}
}

func TestLedger_OverflowLeavesBalancesIntact(t *testing.T) {
	ledger := NewLedger()
	other := common.HexToAddress("0x8888")
	max := new(uint256.Int).SetAllOne()

	if err := ledger.Mint(tokenA, other, max); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := ledger.Mint(tokenA, trader, u(5)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	err := ledger.Transfer(tokenA, trader, other, u(5))
	if !apperror.IsCode(err, apperror.CodeArithmeticOverflow) {
		t.Fatalf("expected ARITHMETIC_OVERFLOW, got %v", err)
	}
	if got := ledger.BalanceOf(tokenA, other); got.Cmp(max) != 0 {
		t.Errorf("recipient balance = %s, want max uint256", got)
	}
	if got := ledger.BalanceOf(tokenA, trader); got.Uint64() != 5 {
		t.Errorf("sender balance = %s, want 5", got)
	}

	if err := ledger.Mint(tokenA, other, u(1)); !apperror.IsCode(err, apperror.CodeArithmeticOverflow) {
		t.Fatalf("expected ARITHMETIC_OVERFLOW, got %v", err)
	}
	if got := ledger.BalanceOf(tokenA, other); got.Cmp(max) != 0 {
		t.Errorf("balance after failed mint = %s, want max uint256", got)
	}
}

func TestLedger_BalanceOfReturnsCopy(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Mint(tokenA, trader, u(100)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	balance := ledger.BalanceOf(tokenA, trader)
	balance.SetUint64(1)

	if got := ledger.BalanceOf(tokenA, trader); got.Uint64() != 100 {
		t.Errorf("caller mutated internal balance: %s", got)
	}
}

func TestExchange_CreatePool(t *testing.T) {
	ex := NewExchange()

	pool, err := ex.CreatePool(registry, tokenB, tokenA, ammDomain.DefaultCodeHash)
	if err != nil {
		t.Fatalf("CreatePool error: %v", err)
	}

	want, err := ammDomain.PairFor(registry, tokenA, tokenB, ammDomain.DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if pool.Address() != want {
		t.Errorf("pool address = %s, want %s", pool.Address().Hex(), want.Hex())
	}
	if pool.Token0() != tokenA || pool.Token1() != tokenB {
		t.Errorf("pair not in canonical order: (%s, %s)", pool.Token0().Hex(), pool.Token1().Hex())
	}

	if _, err := ex.CreatePool(registry, tokenA, tokenB, ammDomain.DefaultCodeHash); !apperror.IsCode(err, apperror.CodePoolExists) {
		t.Errorf("expected POOL_EXISTS, got %v", err)
	}
}

// seedPool creates and funds a pool with the given reserves.
func seedPool(t *testing.T, ex *Exchange, reg common.Address, r0, r1 uint64) *Pool {
	t.Helper()

	provider := common.HexToAddress("0x9999")
	pool, err := ex.CreatePool(reg, tokenA, tokenB, ammDomain.DefaultCodeHash)
	if err != nil {
		t.Fatalf("CreatePool error: %v", err)
	}
	if err := ex.Ledger().Mint(tokenA, provider, u(r0)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := ex.Ledger().Mint(tokenB, provider, u(r1)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := pool.Mint(provider, u(r0), u(r1)); err != nil {
		t.Fatalf("pool Mint error: %v", err)
	}
	return pool
}

func TestPool_SwapWithPrepayment(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	// Pay 10 token0 in, then take the 9 token1 the invariant allows.
	if err := ex.Ledger().Mint(tokenA, trader, u(10)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := ex.Ledger().Transfer(tokenA, trader, pool.Address(), u(10)); err != nil {
		t.Fatalf("Transfer error: %v", err)
	}

	if err := pool.Swap(context.Background(), nil, u(9), trader, nil); err != nil {
		t.Fatalf("Swap error: %v", err)
	}

	r0, r1, _ := pool.Reserves()
	if r0.Uint64() != 1010 || r1.Uint64() != 991 {
		t.Errorf("reserves = (%s, %s), want (1010, 991)", r0, r1)
	}
	if got := ex.Ledger().BalanceOf(tokenB, trader); got.Uint64() != 9 {
		t.Errorf("trader token1 balance = %s, want 9", got)
	}
}

func TestPool_SwapRejectsExcessOutput(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	if err := ex.Ledger().Mint(tokenA, trader, u(10)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}
	if err := ex.Ledger().Transfer(tokenA, trader, pool.Address(), u(10)); err != nil {
		t.Fatalf("Transfer error: %v", err)
	}

	// 10 out for 10 in cannot cover the fee.
	err := pool.Swap(context.Background(), nil, u(10), trader, nil)
	if !apperror.IsCode(err, apperror.CodeInvariantViolated) {
		t.Errorf("expected INVARIANT_VIOLATED, got %v", err)
	}
}

func TestPool_SwapRejectsUnpaidOutput(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	err := pool.Swap(context.Background(), nil, u(9), trader, nil)
	if !apperror.IsCode(err, apperror.CodeInsufficientRepayment) {
		t.Errorf("expected INSUFFICIENT_REPAYMENT, got %v", err)
	}
}

func TestPool_SwapPreconditions(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	if err := pool.Swap(context.Background(), nil, nil, trader, nil); !apperror.IsCode(err, apperror.CodeInvalidAmount) {
		t.Errorf("expected INVALID_AMOUNT for zero outputs, got %v", err)
	}
	if err := pool.Swap(context.Background(), u(1000), nil, trader, nil); !apperror.IsCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("expected INSUFFICIENT_LIQUIDITY for full drain, got %v", err)
	}
}

// repayingCallee repays borrow+premium from its own pre-funded balance.
type repayingCallee struct {
	ex        *Exchange
	address   common.Address
	repayWith common.Address
	repay     *uint256.Int
	fail      error
}

func (c *repayingCallee) OnFlashSwap(ctx context.Context, caller common.Address, amount0, amount1 *uint256.Int, data []byte) error {
	if c.fail != nil {
		return c.fail
	}
	return c.ex.Ledger().Transfer(c.repayWith, c.address, caller, c.repay)
}

func TestPool_FlashSwapCallback(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	calleeAddr := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	callee := &repayingCallee{
		ex:        ex,
		address:   calleeAddr,
		repayWith: tokenB,
		repay:     u(11), // AmountIn(10, 1000, 1000)
	}
	ex.RegisterCallee(calleeAddr, callee)

	if err := ex.Ledger().Mint(tokenB, calleeAddr, u(11)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	// Borrow 10 token0, repay 11 token1 inside the callback.
	if err := pool.Swap(context.Background(), u(10), nil, calleeAddr, []byte{0x01}); err != nil {
		t.Fatalf("flash swap error: %v", err)
	}

	r0, r1, _ := pool.Reserves()
	if r0.Uint64() != 990 || r1.Uint64() != 1011 {
		t.Errorf("reserves = (%s, %s), want (990, 1011)", r0, r1)
	}
}

func TestPool_FlashSwapCalleeErrorPropagates(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	calleeAddr := common.HexToAddress("0x00000000000000000000000000000000000000ee")
	boom := errors.New("callee failed")
	ex.RegisterCallee(calleeAddr, &repayingCallee{fail: boom})

	err := pool.Swap(context.Background(), u(10), nil, calleeAddr, []byte{0x01})
	if !errors.Is(err, boom) {
		t.Errorf("expected callee error to propagate, got %v", err)
	}
}

func TestPool_FlashSwapUnknownCallee(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	err := pool.Swap(context.Background(), u(10), nil, trader, []byte{0x01})
	if !apperror.IsCode(err, apperror.CodeUnknownAccount) {
		t.Errorf("expected UNKNOWN_ACCOUNT, got %v", err)
	}
}

func TestExchange_ExecuteRollsBackOnError(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	if err := ex.Ledger().Mint(tokenA, trader, u(50)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	boom := errors.New("abort")
	err := ex.Execute(context.Background(), func(ctx context.Context) error {
		if err := ex.Ledger().Transfer(tokenA, trader, pool.Address(), u(50)); err != nil {
			return err
		}
		if err := pool.Swap(ctx, nil, u(40), trader, nil); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected fn error, got %v", err)
	}

	// Every effect inside the run must be undone.
	if got := ex.Ledger().BalanceOf(tokenA, trader); got.Uint64() != 50 {
		t.Errorf("trader token0 balance = %s, want 50", got)
	}
	if got := ex.Ledger().BalanceOf(tokenB, trader); !got.IsZero() {
		t.Errorf("trader token1 balance = %s, want 0", got)
	}
	r0, r1, _ := pool.Reserves()
	if r0.Uint64() != 1000 || r1.Uint64() != 1000 {
		t.Errorf("reserves = (%s, %s), want (1000, 1000)", r0, r1)
	}
}

func TestExchange_ExecuteCommitsOnSuccess(t *testing.T) {
	ex := NewExchange()
	pool := seedPool(t, ex, registry, 1000, 1000)

	if err := ex.Ledger().Mint(tokenA, trader, u(10)); err != nil {
		t.Fatalf("Mint error: %v", err)
	}

	err := ex.Execute(context.Background(), func(ctx context.Context) error {
		if err := ex.Ledger().Transfer(tokenA, trader, pool.Address(), u(10)); err != nil {
			return err
		}
		return pool.Swap(ctx, nil, u(9), trader, nil)
	})
	if err != nil {
		t.Fatalf("Execute error: %v", err)
	}

	if got := ex.Ledger().BalanceOf(tokenB, trader); got.Uint64() != 9 {
		t.Errorf("trader token1 balance = %s, want 9", got)
	}
}

func TestExchange_ExecuteSerializes(t *testing.T) {
	ex := NewExchange()

	const workers = 8
	const rounds = 25

	var wg sync.WaitGroup
	errs := make(chan error, workers+1)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < rounds; j++ {
				err := ex.Execute(context.Background(), func(ctx context.Context) error {
					// With exclusive execution no other unit can credit
					// the account between the read and the re-read.
					before := ex.Ledger().BalanceOf(tokenA, trader)
					if err := ex.Ledger().Mint(tokenA, trader, u(1)); err != nil {
						return err
					}
					after := ex.Ledger().BalanceOf(tokenA, trader)
					if after.Cmp(new(uint256.Int).AddUint64(before, 1)) != 0 {
						return errors.New("interleaved execution observed")
					}
					return nil
				})
				if err != nil {
					errs <- err
					return
				}
			}
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < rounds; j++ {
			err := ex.View(context.Background(), func(ctx context.Context) error {
				if ex.Ledger().BalanceOf(tokenA, trader).Uint64() > workers*rounds {
					return errors.New("view observed more credits than issued")
				}
				return nil
			})
			if err != nil {
				errs <- err
				return
			}
		}
	}()

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent execution error: %v", err)
	}

	if got := ex.Ledger().BalanceOf(tokenA, trader); got.Uint64() != workers*rounds {
		t.Errorf("final balance = %s, want %d", got, workers*rounds)
	}
}
