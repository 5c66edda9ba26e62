package invoice

import (
	"strings"
	"testing"

	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/types"
)

func TestNewLineItem(t *testing.T) {
	invID := id.NewInvoiceID()

	tests := []struct {
		name      string
		quantity  int64
		unitPrice types.Money
		total     types.Money
		wantErr   bool
	}{
		{"Simple", 2, types.MustParse("50.00"), types.MustParse("100.00"), false},
		{"Single", 1, types.MustParse("9.99"), types.MustParse("9.99"), false},
		{"Large", 1000, types.MustParse("0.01"), types.MustParse("10.00"), false},
		{"ZeroQuantity", 0, types.MustParse("50.00"), types.Zero(), true},
		{"NegativeQuantity", -3, types.MustParse("50.00"), types.Zero(), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewLineItem(invID, "widget", tt.quantity, tt.unitPrice)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !item.TotalPrice.Equal(tt.total) {
				t.Errorf("TotalPrice: got %s, want %s", item.TotalPrice, tt.total)
			}
			if item.InvoiceID.String() != invID.String() {
				t.Errorf("InvoiceID: got %s, want %s", item.InvoiceID, invID)
			}
			if item.ID.Prefix() != id.PrefixLineItem {
				t.Errorf("ID prefix: got %q", item.ID.Prefix())
			}
		})
	}
}

func TestRecalculateTotal(t *testing.T) {
	tests := []struct {
		name   string
		prices []string
		want   string
	}{
		{"TwoItems", []string{"100.00", "75.00"}, "175.00"},
		{"OneItem", []string{"9.50"}, "9.50"},
		{"NoItems", nil, "0.00"},
		{"ManySmall", []string{"0.10", "0.10", "0.10"}, "0.30"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := &Invoice{ID: id.NewInvoiceID(), Total: types.MustParse("999.99")}
			for _, p := range tt.prices {
				inv.LineItems = append(inv.LineItems, LineItem{TotalPrice: types.MustParse(p)})
			}

			got := inv.RecalculateTotal()
			if got.String() != tt.want {
				t.Errorf("returned total: got %s, want %s", got, tt.want)
			}
			if inv.Total.String() != tt.want {
				t.Errorf("stored total: got %s, want %s", inv.Total, tt.want)
			}
		})
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusPaid, StatusCancelled} {
		if !s.Valid() {
			t.Errorf("%q should be valid", s)
		}
	}
	if Status("draft").Valid() {
		t.Error(`"draft" should not be valid`)
	}
	if Status("").Valid() {
		t.Error("empty status should not be valid")
	}
}

func TestTransitionPolicy(t *testing.T) {
	tests := []struct {
		name   string
		policy TransitionPolicy
		from   Status
		want   bool
	}{
		{"StrictFromPending", PolicyStrict, StatusPending, true},
		{"StrictFromPaid", PolicyStrict, StatusPaid, false},
		{"StrictFromCancelled", PolicyStrict, StatusCancelled, false},
		{"PermissiveFromPending", PolicyPermissive, StatusPending, true},
		{"PermissiveFromPaid", PolicyPermissive, StatusPaid, true},
		{"PermissiveFromCancelled", PolicyPermissive, StatusCancelled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.CanMarkPaid(tt.from); got != tt.want {
				t.Errorf("CanMarkPaid(%s): got %v, want %v", tt.from, got, tt.want)
			}
		})
	}
}

func TestNewReferenceNumber(t *testing.T) {
	ref := NewReferenceNumber()
	if !strings.HasPrefix(ref, "INV-") {
		t.Errorf("expected INV- prefix, got %q", ref)
	}
	if len(ref) != len("INV-")+8 {
		t.Errorf("unexpected length: %q", ref)
	}
	if ref == NewReferenceNumber() {
		t.Error("consecutive references should differ")
	}
}
