package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/store/memory"
)

// headerAuth resolves the actor from the X-User header, close to what a
// gateway-terminated deployment injects.
var headerAuth = AuthenticatorFunc(func(r *http.Request) (string, error) {
	user := r.Header.Get("X-User")
	if user == "" {
		return "", errors.New("no identity")
	}
	return user, nil
})

func newTestHandler(t *testing.T) *Handler {
	t.Helper()

	eng := invoicing.New(memory.New())
	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { _ = eng.Stop() })

	return NewHandler(eng, headerAuth)
}

func doJSON(t *testing.T, h http.Handler, method, path, user string, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

const createBody = `{
	"customer_name": "ACME Corp",
	"customer_email": "billing@acme.example",
	"items": [
		{"description": "Design work", "quantity": 2, "unit_price": "50.00"},
		{"description": "Hosting", "quantity": 3, "unit_price": "25.00"}
	]
}`

func TestHealthNoAuth(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := decode[healthResponse](t, rec); got.Status != "ok" {
		t.Errorf("status = %q, want ok", got.Status)
	}
}

func TestUnauthenticated(t *testing.T) {
	h := newTestHandler(t)

	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/invoices"},
		{http.MethodGet, "/invoices"},
		{http.MethodGet, "/transactions"},
	}
	for _, p := range paths {
		rec := doJSON(t, h, p.method, p.path, "", "")
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s %s status = %d, want 401", p.method, p.path, rec.Code)
		}
	}
}

func TestCreateInvoice(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (body %s)", rec.Code, rec.Body.String())
	}

	inv := decode[invoiceResponse](t, rec)
	if inv.TotalAmount != "175.00" {
		t.Errorf("total_amount = %q, want 175.00", inv.TotalAmount)
	}
	if inv.Status != "pending" {
		t.Errorf("status = %q, want pending", inv.Status)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(inv.Items))
	}
	if inv.Items[1].TotalPrice != "75.00" {
		t.Errorf("items[1].total_price = %q, want 75.00", inv.Items[1].TotalPrice)
	}
	if !strings.HasPrefix(inv.ReferenceNumber, "INV-") {
		t.Errorf("reference_number = %q, want INV- prefix", inv.ReferenceNumber)
	}

	// The sale transaction shows up on the ledger.
	rec = doJSON(t, h, http.MethodGet, "/transactions?invoice_id="+inv.ID, "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list transactions status = %d", rec.Code)
	}
	txns := decode[[]transactionResponse](t, rec)
	if len(txns) != 1 || txns[0].Type != "sale" || txns[0].Amount != "175.00" {
		t.Errorf("transactions = %+v, want one sale of 175.00", txns)
	}
}

func TestCreateInvoiceValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"customer_name": `},
		{"missing name", `{"customer_email": "a@b.c"}`},
		{"bad email", `{"customer_name": "ACME", "customer_email": "nope"}`},
		{"bad unit price", `{"customer_name": "ACME", "customer_email": "a@b.c",
			"items": [{"description": "x", "quantity": 1, "unit_price": "abc"}]}`},
		{"three decimal places", `{"customer_name": "ACME", "customer_email": "a@b.c",
			"items": [{"description": "x", "quantity": 1, "unit_price": "1.005"}]}`},
		{"zero quantity", `{"customer_name": "ACME", "customer_email": "a@b.c",
			"items": [{"description": "x", "quantity": 0, "unit_price": "1.00"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400 (body %s)", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDuplicateReferenceConflict(t *testing.T) {
	h := newTestHandler(t)

	body := `{"customer_name": "ACME", "customer_email": "a@b.c", "reference_number": "INV-SAME0001"}`
	if rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", body); rec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", body)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}
}

func TestInvoiceLifecycle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decode[invoiceResponse](t, rec)

	// Retrieve.
	rec = doJSON(t, h, http.MethodGet, "/invoices/"+created.ID, "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}

	// Update: rename and replace the items.
	rec = doJSON(t, h, http.MethodPut, "/invoices/"+created.ID, "user-1",
		`{"customer_name": "Renamed Corp", "items": [{"description": "Rework", "quantity": 4, "unit_price": "10.50"}]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update status = %d (body %s)", rec.Code, rec.Body.String())
	}
	updated := decode[invoiceResponse](t, rec)
	if updated.CustomerName != "Renamed Corp" || updated.TotalAmount != "42.00" {
		t.Errorf("updated = %s/%s, want Renamed Corp/42.00", updated.CustomerName, updated.TotalAmount)
	}

	// Mark paid.
	rec = doJSON(t, h, http.MethodPatch, "/invoices/"+created.ID+"/mark-paid", "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-paid status = %d", rec.Code)
	}
	if paid := decode[invoiceResponse](t, rec); paid.Status != "paid" {
		t.Errorf("status = %q, want paid", paid.Status)
	}

	// Mark pending again.
	rec = doJSON(t, h, http.MethodPatch, "/invoices/"+created.ID+"/mark-pending", "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("mark-pending status = %d", rec.Code)
	}

	// Delete, then a second lookup 404s.
	rec = doJSON(t, h, http.MethodDelete, "/invoices/"+created.ID, "user-1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
	rec = doJSON(t, h, http.MethodGet, "/invoices/"+created.ID, "user-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", rec.Code)
	}
}

func TestForeignInvoiceHidden(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/invoices", "owner", createBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	created := decode[invoiceResponse](t, rec)

	for _, probe := range []struct {
		method, path string
	}{
		{http.MethodGet, "/invoices/" + created.ID},
		{http.MethodDelete, "/invoices/" + created.ID},
		{http.MethodPatch, "/invoices/" + created.ID + "/mark-paid"},
	} {
		rec := doJSON(t, h, probe.method, probe.path, "intruder", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("%s %s as intruder status = %d, want 404", probe.method, probe.path, rec.Code)
		}
	}

	rec = doJSON(t, h, http.MethodGet, "/invoices", "intruder", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decode[[]invoiceResponse](t, rec); len(list) != 0 {
		t.Errorf("intruder sees %d invoices, want 0", len(list))
	}
}

func TestMalformedInvoiceID(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/invoices/not-a-typeid", "user-1", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestListInvoicesStatusFilter(t *testing.T) {
	h := newTestHandler(t)

	if rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", createBody); rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1", createBody)
	created := decode[invoiceResponse](t, rec)
	if rec := doJSON(t, h, http.MethodPatch, "/invoices/"+created.ID+"/mark-paid", "user-1", ""); rec.Code != http.StatusOK {
		t.Fatalf("mark-paid status = %d", rec.Code)
	}

	rec = doJSON(t, h, http.MethodGet, "/invoices?status=paid", "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	if list := decode[[]invoiceResponse](t, rec); len(list) != 1 || list[0].ID != created.ID {
		t.Errorf("paid filter returned %d invoices", len(list))
	}

	rec = doJSON(t, h, http.MethodGet, "/invoices?status=bogus", "user-1", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bogus filter status = %d, want 400", rec.Code)
	}
}

func TestRecordTransaction(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/invoices", "user-1",
		`{"customer_name": "ACME", "customer_email": "a@b.c"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", rec.Code)
	}
	inv := decode[invoiceResponse](t, rec)

	// Negative amounts are legal ledger entries.
	rec = doJSON(t, h, http.MethodPost, "/transactions", "user-1",
		`{"invoice_id": "`+inv.ID+`", "transaction_type": "payment", "amount": "-25.50"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("record status = %d (body %s)", rec.Code, rec.Body.String())
	}
	txn := decode[transactionResponse](t, rec)
	if txn.Amount != "-25.50" || txn.Status != "completed" || txn.CreatedBy != "user-1" {
		t.Errorf("transaction = %+v", txn)
	}

	// Retrieve it back.
	rec = doJSON(t, h, http.MethodGet, "/transactions/"+txn.ID, "user-1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get transaction status = %d", rec.Code)
	}

	// Foreign actors see nothing.
	rec = doJSON(t, h, http.MethodGet, "/transactions/"+txn.ID, "intruder", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("foreign get transaction status = %d, want 404", rec.Code)
	}
}

func TestRecordTransactionValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing invoice", `{"transaction_type": "sale", "amount": "1.00"}`, http.StatusBadRequest},
		{"malformed json", `{"invoice_id": "`, http.StatusBadRequest},
		{"invalid invoice id", `{"invoice_id": "x", "transaction_type": "sale", "amount": "1.00"}`, http.StatusBadRequest},
		{"bad amount", `{"transaction_type": "sale", "amount": "abc"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/transactions", "user-1", tt.body)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
