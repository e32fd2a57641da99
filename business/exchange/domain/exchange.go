package domain

import (
	"context"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	ammDomain "github.com/fd1az/flasharb/business/amm/domain"
	"github.com/fd1az/flasharb/internal/apperror"
)

// Exchange is the aggregate root of the execution environment: one
// ledger, the pools created under it, and the registered flash callees.
//
// Lock discipline: Exchange methods do not lock individually. All
// mutation goes through Execute, all outside reading through View; code
// running inside either already holds the lock and uses pools and the
// ledger directly.
type Exchange struct {
	mu sync.RWMutex

	ledger  *Ledger
	pools   map[common.Address]*Pool
	callees map[common.Address]FlashCallee
}

// NewExchange creates an empty exchange.
func NewExchange() *Exchange {
	return &Exchange{
		ledger:  NewLedger(),
		pools:   make(map[common.Address]*Pool),
		callees: make(map[common.Address]FlashCallee),
	}
}

// Ledger exposes the exchange's token ledger.
func (e *Exchange) Ledger() *Ledger {
	return e.ledger
}

// CreatePool derives the pool address for (registry, pair, codeHash) and
// instantiates a pool there. One pool per derived address.
func (e *Exchange) CreatePool(registry, tokenA, tokenB common.Address, codeHash common.Hash) (*Pool, error) {
	token0, token1, err := ammDomain.SortTokens(tokenA, tokenB)
	if err != nil {
		return nil, err
	}

	address, err := ammDomain.PairFor(registry, token0, token1, codeHash)
	if err != nil {
		return nil, err
	}

	if _, exists := e.pools[address]; exists {
		return nil, apperror.Validation(apperror.CodePoolExists, address.Hex())
	}

	pool := &Pool{
		address:     address,
		token0:      token0,
		token1:      token1,
		reserve0:    uint256.NewInt(0),
		reserve1:    uint256.NewInt(0),
		lastSettled: time.Now(),
		exchange:    e,
	}
	e.pools[address] = pool
	return pool, nil
}

// Pool returns the pool at the given derived address.
func (e *Exchange) Pool(address common.Address) (*Pool, bool) {
	pool, ok := e.pools[address]
	return pool, ok
}

// RegisterCallee binds a flash-swap callback to an account address.
func (e *Exchange) RegisterCallee(address common.Address, callee FlashCallee) {
	e.callees[address] = callee
}

func (e *Exchange) callee(address common.Address) (FlashCallee, bool) {
	callee, ok := e.callees[address]
	return callee, ok
}

// Execute runs fn as one atomic unit: the exchange is exclusively
// locked for the duration, and every ledger and reserve mutation fn
// makes is rolled back if fn returns an error. There is no partial
// completion observable afterwards.
func (e *Exchange) Execute(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := e.snapshot()
	if err := fn(ctx); err != nil {
		e.restore(snap)
		return err
	}
	return nil
}

// View runs fn under a shared lock for consistent reads. fn must not
// mutate exchange state.
func (e *Exchange) View(ctx context.Context, fn func(ctx context.Context) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(ctx)
}

type poolState struct {
	reserve0    *uint256.Int
	reserve1    *uint256.Int
	lastSettled time.Time
}

type exchangeSnapshot struct {
	balances map[common.Address]map[common.Address]*uint256.Int
	pools    map[common.Address]poolState
}

func (e *Exchange) snapshot() exchangeSnapshot {
	snap := exchangeSnapshot{
		balances: e.ledger.snapshot(),
		pools:    make(map[common.Address]poolState, len(e.pools)),
	}
	for address, pool := range e.pools {
		snap.pools[address] = poolState{
			reserve0:    new(uint256.Int).Set(pool.reserve0),
			reserve1:    new(uint256.Int).Set(pool.reserve1),
			lastSettled: pool.lastSettled,
		}
	}
	return snap
}

func (e *Exchange) restore(snap exchangeSnapshot) {
	e.ledger.restore(snap.balances)
	for address, state := range snap.pools {
		pool := e.pools[address]
		pool.reserve0 = state.reserve0
		pool.reserve1 = state.reserve1
		pool.lastSettled = state.lastSettled
	}
	// Pools created inside the failed run are discarded.
	for address := range e.pools {
		if _, ok := snap.pools[address]; !ok {
			delete(e.pools, address)
		}
	}
}
