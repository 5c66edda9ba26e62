package types

import (
	"encoding/json"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		amount  int64
		wantErr bool
	}{
		{"TwoDigits", "50.00", 5000, false},
		{"OneDigit", "9.5", 950, false},
		{"NoFraction", "175", 17500, false},
		{"Zero", "0", 0, false},
		{"Negative", "-9.99", -999, false},
		{"LeadingZero", "0.01", 1, false},
		{"TooManyDigits", "1.005", 0, true},
		{"NotANumber", "abc", 0, true},
		{"Empty", "", 0, true},
		{"TrailingGarbage", "10.00x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error parsing %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parse %q failed: %v", tt.input, err)
			}
			if got.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", got.Amount, tt.amount)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return Cents(100).Add(Cents(200)) }, Cents(300)},
		{"Subtract", func() Money { return Cents(500).Subtract(Cents(200)) }, Cents(300)},
		{"Multiply", func() Money { return Cents(5000).Multiply(2) }, Cents(10000)},
		{"Negate", func() Money { return Cents(100).Negate() }, Cents(-100)},
		{"AbsPositive", func() Money { return Cents(100).Abs() }, Cents(100)},
		{"AbsNegative", func() Money { return Cents(-100).Abs() }, Cents(100)},
		{"Sum", func() Money { return Sum(Cents(10000), Cents(7500)) }, Cents(17500)},
		{"SumEmpty", func() Money { return Sum() }, Zero()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.op()
			if !result.Equal(tt.expected) {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

// Sums of parsed decimal strings must be exact. 0.1 is the classic binary
// float trap: 0.1 added ten times must equal exactly 1.00.
func TestExactDecimalSums(t *testing.T) {
	var total Money
	tenth := MustParse("0.10")
	for i := 0; i < 10; i++ {
		total = total.Add(tenth)
	}

	if !total.Equal(MustParse("1.00")) {
		t.Errorf("got %s, want 1.00", total)
	}
}

func TestString(t *testing.T) {
	tests := []struct {
		name  string
		money Money
		want  string
	}{
		{"Whole", Cents(17500), "175.00"},
		{"Fraction", Cents(950), "9.50"},
		{"Cent", Cents(1), "0.01"},
		{"Zero", Zero(), "0.00"},
		{"Negative", Cents(-500), "-5.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.money.String(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestComparison(t *testing.T) {
	tests := []struct {
		name    string
		a, b    Money
		less    bool
		greater bool
		equal   bool
	}{
		{"Equal", Cents(100), Cents(100), false, false, true},
		{"Less", Cents(50), Cents(100), true, false, false},
		{"Greater", Cents(200), Cents(100), false, true, false},
		{"NegativeLess", Cents(-100), Cents(100), true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.LessThan(tt.b); got != tt.less {
				t.Errorf("LessThan: got %v, want %v", got, tt.less)
			}
			if got := tt.a.GreaterThan(tt.b); got != tt.greater {
				t.Errorf("GreaterThan: got %v, want %v", got, tt.greater)
			}
			if got := tt.a.Equal(tt.b); got != tt.equal {
				t.Errorf("Equal: got %v, want %v", got, tt.equal)
			}
		})
	}
}

func TestJSONRoundTrip(t *testing.T) {
	original := Cents(17500)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != `"175.00"` {
		t.Errorf("marshal: got %s, want %q", data, "175.00")
	}

	var decoded Money
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !decoded.Equal(original) {
		t.Errorf("round-trip mismatch: %v != %v", decoded, original)
	}

	// Bare JSON numbers are accepted too.
	var fromNumber Money
	if err := json.Unmarshal([]byte(`50.25`), &fromNumber); err != nil {
		t.Fatalf("unmarshal number failed: %v", err)
	}
	if fromNumber.Amount != 5025 {
		t.Errorf("unmarshal number: got %d, want 5025", fromNumber.Amount)
	}
}
