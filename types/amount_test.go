package types_test

import (
	"encoding/json"
	"testing"

	"github.com/xraph/subgate/types"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "integer", input: "100", want: "100"},
		{name: "zero", input: "0", want: "0"},
		{name: "large", input: "250000000000000000", want: "250000000000000000"},
		{name: "decimal", input: "10.50", want: "10.5"},
		{name: "negative", input: "-5", want: "-5"},
		{name: "empty", input: "", wantErr: true},
		{name: "garbage", input: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := types.ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.String() != tt.want {
				t.Errorf("got %q, want %q", got.String(), tt.want)
			}
		})
	}
}

func TestUnits(t *testing.T) {
	if got := types.Units(100).String(); got != "100" {
		t.Errorf("got %q, want %q", got, "100")
	}
	if !types.Units(0).IsZero() {
		t.Error("Units(0) should be zero")
	}
}

func TestAmountAdd(t *testing.T) {
	a := types.Units(100)
	b := types.Units(250)
	if got := a.Add(b).String(); got != "350" {
		t.Errorf("got %q, want %q", got, "350")
	}

	// Add does not mutate its receiver.
	if a.String() != "100" {
		t.Errorf("receiver mutated: %q", a.String())
	}
}

func TestAmountComparisons(t *testing.T) {
	small := types.Units(1)
	big := types.Units(2)

	if !small.LessThan(big) {
		t.Error("1 should be less than 2")
	}
	if !big.GreaterThan(small) {
		t.Error("2 should be greater than 1")
	}
	if !small.Equal(types.Units(1)) {
		t.Error("1 should equal 1")
	}
	if small.Equal(big) {
		t.Error("1 should not equal 2")
	}
	if !types.Units(-1).IsNegative() {
		t.Error("-1 should be negative")
	}
	if !types.Units(1).IsPositive() {
		t.Error("1 should be positive")
	}
}

func TestAmountZeroValue(t *testing.T) {
	var a types.Amount
	if !a.IsZero() {
		t.Error("zero-value Amount should be zero")
	}
	if !a.Equal(types.ZeroAmount()) {
		t.Error("zero-value Amount should equal ZeroAmount()")
	}
	if got := a.String(); got != "0" {
		t.Errorf("got %q, want %q", got, "0")
	}
}

func TestAmountJSON(t *testing.T) {
	original := types.MustAmount("250000000000000000")

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	// Amounts serialize as strings to survive arbitrary precision.
	if string(data) != `"250000000000000000"` {
		t.Errorf("got %s, want quoted string", data)
	}

	var restored types.Amount
	if err := json.Unmarshal(data, &restored); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !restored.Equal(original) {
		t.Errorf("round-trip mismatch: %s != %s", restored, original)
	}
}

func TestAmountValueScan(t *testing.T) {
	original := types.MustAmount("10.5")
	val, err := original.Value()
	if err != nil {
		t.Fatalf("Value failed: %v", err)
	}

	var scanned types.Amount
	if err := scanned.Scan(val); err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if !scanned.Equal(original) {
		t.Errorf("round-trip mismatch: %s != %s", scanned, original)
	}

	var fromInt types.Amount
	if err := fromInt.Scan(int64(42)); err != nil {
		t.Fatalf("Scan(int64) failed: %v", err)
	}
	if !fromInt.Equal(types.Units(42)) {
		t.Errorf("got %s, want 42", fromInt)
	}

	var fromNil types.Amount
	if err := fromNil.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) failed: %v", err)
	}
	if !fromNil.IsZero() {
		t.Error("scan of nil should yield zero")
	}

	var bad types.Amount
	if err := bad.Scan(3.14); err == nil {
		t.Error("expected error scanning float64")
	}
}

func TestSumAmounts(t *testing.T) {
	got := types.SumAmounts(types.Units(1), types.Units(2), types.Units(3))
	if !got.Equal(types.Units(6)) {
		t.Errorf("got %s, want 6", got)
	}
	if !types.SumAmounts().IsZero() {
		t.Error("empty sum should be zero")
	}
}
