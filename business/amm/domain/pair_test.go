package domain

import (
	"bytes"
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/internal/apperror"
)

var (
	testRegistryOne = common.HexToAddress("0x0000000000000000000000000000000000000101")
	testRegistryTwo = common.HexToAddress("0x0000000000000000000000000000000000000202")
	tokenA          = common.HexToAddress("0x00000000000000000000000000000000000000Aa")
	tokenB          = common.HexToAddress("0x00000000000000000000000000000000000000Bb")
)

func TestSortTokens(t *testing.T) {
	t0, t1, err := SortTokens(tokenB, tokenA)
	if err != nil {
		t.Fatalf("SortTokens error: %v", err)
	}
	if t0 != tokenA || t1 != tokenB {
		t.Errorf("SortTokens = (%s, %s), want (%s, %s)", t0.Hex(), t1.Hex(), tokenA.Hex(), tokenB.Hex())
	}
	if bytes.Compare(t0.Bytes(), t1.Bytes()) >= 0 {
		t.Error("tokens not in ascending order")
	}
}

func TestSortTokens_IdenticalTokens(t *testing.T) {
	_, _, err := SortTokens(tokenA, tokenA)
	if !apperror.IsCode(err, apperror.CodeIdenticalTokens) {
		t.Errorf("expected IDENTICAL_TOKENS, got %v", err)
	}
}

func TestSortTokens_ZeroToken(t *testing.T) {
	_, _, err := SortTokens(common.Address{}, tokenA)
	if !apperror.IsCode(err, apperror.CodeZeroToken) {
		t.Errorf("expected ZERO_TOKEN, got %v", err)
	}

	// Argument order must not matter: the zero address always sorts low.
	_, _, err = SortTokens(tokenA, common.Address{})
	if !apperror.IsCode(err, apperror.CodeZeroToken) {
		t.Errorf("expected ZERO_TOKEN, got %v", err)
	}
}

func TestPairFor_Deterministic(t *testing.T) {
	first, err := PairFor(testRegistryOne, tokenA, tokenB, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	second, err := PairFor(testRegistryOne, tokenA, tokenB, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if first != second {
		t.Errorf("derivation not deterministic: %s != %s", first.Hex(), second.Hex())
	}
	if first == (common.Address{}) {
		t.Error("derived pool address is zero")
	}
}

func TestPairFor_OrderInsensitive(t *testing.T) {
	ab, err := PairFor(testRegistryOne, tokenA, tokenB, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	ba, err := PairFor(testRegistryOne, tokenB, tokenA, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if ab != ba {
		t.Errorf("swapped argument order changed the address: %s != %s", ab.Hex(), ba.Hex())
	}
}

func TestPairFor_DistinctInputsDistinctPools(t *testing.T) {
	base, err := PairFor(testRegistryOne, tokenA, tokenB, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}

	otherRegistry, err := PairFor(testRegistryTwo, tokenA, tokenB, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if base == otherRegistry {
		t.Error("different registries produced the same pool address")
	}

	tokenC := common.HexToAddress("0x00000000000000000000000000000000000000Cc")
	otherPair, err := PairFor(testRegistryOne, tokenA, tokenC, DefaultCodeHash)
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if base == otherPair {
		t.Error("different pairs produced the same pool address")
	}

	otherCode, err := PairFor(testRegistryOne, tokenA, tokenB, common.HexToHash("0x01"))
	if err != nil {
		t.Fatalf("PairFor error: %v", err)
	}
	if base == otherCode {
		t.Error("different code fingerprints produced the same pool address")
	}
}

func TestPairFor_InvalidPairs(t *testing.T) {
	if _, err := PairFor(testRegistryOne, tokenA, tokenA, DefaultCodeHash); !apperror.IsCode(err, apperror.CodeIdenticalTokens) {
		t.Errorf("expected IDENTICAL_TOKENS, got %v", err)
	}
	if _, err := PairFor(testRegistryOne, common.Address{}, tokenA, DefaultCodeHash); !apperror.IsCode(err, apperror.CodeZeroToken) {
		t.Errorf("expected ZERO_TOKEN, got %v", err)
	}
}
