package domain

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/internal/apperror"
)

// Flash callback data is an abi-encoded single address: the target pool
// the borrowed tokens will be converted through. The format is fixed so
// the callback can validate the payload's shape before trusting it.
var callbackArgs abi.Arguments

func init() {
	addressType, err := abi.NewType("address", "", nil)
	if err != nil {
		panic("abi address type: " + err.Error())
	}
	callbackArgs = abi.Arguments{{Name: "targetPool", Type: addressType}}
}

// EncodeCallbackData serializes the target pool for the flash callback.
func EncodeCallbackData(targetPool common.Address) ([]byte, error) {
	data, err := callbackArgs.Pack(targetPool)
	if err != nil {
		return nil, apperror.New(apperror.CodeInvalidCallbackData,
			apperror.WithCause(err),
			apperror.WithContext("encoding callback data"))
	}
	return data, nil
}

// DecodeCallbackData recovers the target pool from callback data,
// rejecting payloads that are not exactly one abi-encoded address.
func DecodeCallbackData(data []byte) (common.Address, error) {
	if len(data) != common.HashLength {
		return common.Address{}, apperror.New(apperror.CodeInvalidCallbackData,
			apperror.WithContext("callback data is not a single encoded address"))
	}
	values, err := callbackArgs.Unpack(data)
	if err != nil {
		return common.Address{}, apperror.New(apperror.CodeInvalidCallbackData,
			apperror.WithCause(err),
			apperror.WithContext("decoding callback data"))
	}
	target, ok := values[0].(common.Address)
	if !ok {
		return common.Address{}, apperror.New(apperror.CodeInvalidCallbackData,
			apperror.WithContext("callback data decoded to a non-address value"))
	}
	return target, nil
}
