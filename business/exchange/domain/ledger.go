// Package domain implements the in-memory execution environment the
// engine runs against: a fungible token ledger, constant-product pools
// with flash-swap support, and the atomic executor that makes a whole
// run all-or-nothing.
package domain

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/fd1az/flasharb/internal/apperror"
)

// Ledger tracks fungible token balances per (token, account).
// Transfers move exact amounts; fee-on-transfer semantics are out of
// scope. The ledger performs no locking: callers serialize access
// through the Exchange.
type Ledger struct {
	balances map[common.Address]map[common.Address]*uint256.Int
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[common.Address]map[common.Address]*uint256.Int),
	}
}

// Mint credits amount of token to the account. Used to seed liquidity
// and operator balances.
func (l *Ledger) Mint(token, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return apperror.Validation(apperror.CodeInvalidAmount, "mint amount must be positive")
	}

	balance := l.balance(token, to)
	sum, overflow := new(uint256.Int).AddOverflow(balance, amount)
	if overflow {
		return apperror.Validation(apperror.CodeArithmeticOverflow, "balance overflow on mint")
	}
	balance.Set(sum)
	return nil
}

// Transfer moves amount of token between accounts.
func (l *Ledger) Transfer(token, from, to common.Address, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return apperror.Validation(apperror.CodeInvalidAmount, "transfer amount must be positive")
	}

	fromBalance := l.balance(token, from)
	if fromBalance.Cmp(amount) < 0 {
		return apperror.Validation(apperror.CodeInsufficientBalance,
			fmt.Sprintf("token %s: %s < %s", token.Hex(), fromBalance, amount))
	}

	// Credit is computed into a temporary so a failed transfer has no
	// effect even outside an executor snapshot.
	toBalance := l.balance(token, to)
	sum, overflow := new(uint256.Int).AddOverflow(toBalance, amount)
	if overflow {
		return apperror.Validation(apperror.CodeArithmeticOverflow, "balance overflow on transfer")
	}

	fromBalance.Sub(fromBalance, amount)
	toBalance.Set(sum)
	return nil
}

// BalanceOf returns a copy of the account's balance of token.
func (l *Ledger) BalanceOf(token, account common.Address) *uint256.Int {
	accounts, ok := l.balances[token]
	if !ok {
		return uint256.NewInt(0)
	}
	balance, ok := accounts[account]
	if !ok {
		return uint256.NewInt(0)
	}
	return new(uint256.Int).Set(balance)
}

// balance returns the mutable balance cell, creating it when absent.
func (l *Ledger) balance(token, account common.Address) *uint256.Int {
	accounts, ok := l.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		l.balances[token] = accounts
	}
	balance, ok := accounts[account]
	if !ok {
		balance = uint256.NewInt(0)
		accounts[account] = balance
	}
	return balance
}

// snapshot deep-copies the balance table.
func (l *Ledger) snapshot() map[common.Address]map[common.Address]*uint256.Int {
	snap := make(map[common.Address]map[common.Address]*uint256.Int, len(l.balances))
	for token, accounts := range l.balances {
		accountsCopy := make(map[common.Address]*uint256.Int, len(accounts))
		for account, balance := range accounts {
			accountsCopy[account] = new(uint256.Int).Set(balance)
		}
		snap[token] = accountsCopy
	}
	return snap
}

// restore replaces the balance table with a snapshot.
func (l *Ledger) restore(snap map[common.Address]map[common.Address]*uint256.Int) {
	l.balances = snap
}
