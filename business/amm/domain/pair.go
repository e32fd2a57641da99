package domain

import (
	"bytes"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/fd1az/flasharb/internal/apperror"
)

// DefaultCodeHash fingerprints the pool implementation the locator
// derives addresses for. Deploying a different pool implementation means
// changing this constant; a stale value silently yields a wrong address,
// so it has to be verified against the deployed artifact out of band.
var DefaultCodeHash = common.HexToHash("0x96e8ac4277198ff8b6f785478aa9a39f403cb768dd02cbee326c3e7da348845f")

// pairTag is the domain-separation prefix of the derivation preimage.
const pairTag = 0xff

// SortTokens returns the pair in canonical ascending byte order.
func SortTokens(tokenA, tokenB common.Address) (common.Address, common.Address, error) {
	if tokenA == tokenB {
		return common.Address{}, common.Address{}, apperror.Validation(
			apperror.CodeIdenticalTokens, tokenA.Hex())
	}
	if bytes.Compare(tokenA.Bytes(), tokenB.Bytes()) > 0 {
		tokenA, tokenB = tokenB, tokenA
	}
	if tokenA == (common.Address{}) {
		return common.Address{}, common.Address{}, apperror.New(apperror.CodeZeroToken)
	}
	return tokenA, tokenB, nil
}

// PairFor derives the pool address for a token pair under a registry.
// The derivation is pure content addressing over the canonicalized
// inputs; no registry lookup is involved:
//
//	address(keccak256(0xff ‖ registry ‖ keccak256(token0 ‖ token1) ‖ codeHash)[12:])
//
// Distinct registries yield distinct pools for the same pair.
func PairFor(registry, tokenA, tokenB common.Address, codeHash common.Hash) (common.Address, error) {
	token0, token1, err := SortTokens(tokenA, tokenB)
	if err != nil {
		return common.Address{}, err
	}

	pairHash := crypto.Keccak256(token0.Bytes(), token1.Bytes())

	preimage := make([]byte, 0, 1+common.AddressLength+2*common.HashLength)
	preimage = append(preimage, pairTag)
	preimage = append(preimage, registry.Bytes()...)
	preimage = append(preimage, pairHash...)
	preimage = append(preimage, codeHash.Bytes()...)

	return common.BytesToAddress(crypto.Keccak256(preimage)[12:]), nil
}
