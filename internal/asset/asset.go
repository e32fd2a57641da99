// Package asset provides token metadata used to render raw pool amounts
// in human units. Identity is the token address; the symbol is display
// metadata only.
package asset

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// Asset describes a fungible token.
type Asset struct {
	address  common.Address
	symbol   string
	decimals uint8
}

// NewAsset creates a new Asset with the given parameters.
func NewAsset(address common.Address, symbol string, decimals uint8) *Asset {
	if symbol == "" {
		panic("asset: empty symbol")
	}
	if decimals > 30 {
		panic("asset: suspicious decimals (>30)")
	}

	return &Asset{
		address:  address,
		symbol:   symbol,
		decimals: decimals,
	}
}

// Address returns the token address.
func (a *Asset) Address() common.Address {
	return a.address
}

// Symbol returns the ticker symbol (e.g. "WETH").
func (a *Asset) Symbol() string {
	return a.symbol
}

// Decimals returns the number of decimal places.
func (a *Asset) Decimals() uint8 {
	return a.decimals
}

// Registry is a thread-safe registry of known assets.
type Registry struct {
	byAddress map[common.Address]*Asset
	mu        sync.RWMutex
}

// NewRegistry creates a new empty asset registry.
func NewRegistry() *Registry {
	return &Registry{
		byAddress: make(map[common.Address]*Asset),
	}
}

// Register adds an asset to the registry.
// Panics if an asset with the same address is already registered.
func (r *Registry) Register(a *Asset) {
	if a == nil {
		panic("asset: cannot register nil asset")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byAddress[a.address]; exists {
		panic(fmt.Sprintf("asset: %s already registered", a.address.Hex()))
	}
	r.byAddress[a.address] = a
}

// Get retrieves an asset by its address.
func (r *Registry) Get(address common.Address) (*Asset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.byAddress[address]
	return a, ok
}

// GetOrGeneric retrieves an asset, falling back to an 18-decimal
// placeholder named after the address prefix.
func (r *Registry) GetOrGeneric(address common.Address) *Asset {
	if a, ok := r.Get(address); ok {
		return a
	}
	return NewAsset(address, address.Hex()[:8], 18)
}

// Count returns the number of registered assets.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byAddress)
}
