package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"

	"github.com/fd1az/flasharb/internal/apperror"
)

func TestCallbackData_RoundTrip(t *testing.T) {
	target := common.HexToAddress("0x00000000000000000000000000000000000000ab")

	data, err := EncodeCallbackData(target)
	if err != nil {
		t.Fatalf("EncodeCallbackData error: %v", err)
	}
	if len(data) != 32 {
		t.Fatalf("encoded length = %d, want 32", len(data))
	}

	got, err := DecodeCallbackData(data)
	if err != nil {
		t.Fatalf("DecodeCallbackData error: %v", err)
	}
	if got != target {
		t.Errorf("decoded = %s, want %s", got.Hex(), target.Hex())
	}
}

func TestDecodeCallbackData_RejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"truncated", make([]byte, 31)},
		{"oversized", make([]byte, 64)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCallbackData(tt.data)
			if !apperror.IsCode(err, apperror.CodeInvalidCallbackData) {
				t.Errorf("expected INVALID_CALLBACK_DATA, got %v", err)
			}
		})
	}
}

func TestRunState_String(t *testing.T) {
	tests := []struct {
		state RunState
		want  string
	}{
		{StateIdle, "idle"},
		{StateBorrowRequested, "borrow_requested"},
		{StateInCallback, "in_callback"},
		{StateReceiptVerified, "receipt_verified"},
		{StateRepaid, "repaid"},
		{StateProfitForwarded, "profit_forwarded"},
		{StateReverted, "reverted"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("RunState(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
	if !StateProfitForwarded.Terminal() || !StateReverted.Terminal() {
		t.Error("terminal states not reported as terminal")
	}
	if StateInCallback.Terminal() {
		t.Error("in_callback reported as terminal")
	}
}
