// Package rest exposes the invoicing engine over HTTP with explicit,
// hand-written request and response schemas.
//
// Identity comes from a pluggable Authenticator; every route except /health
// requires one successful authentication, and the resolved actor is carried
// to the engine on the request context.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/xraph/invoicing"
	"github.com/xraph/invoicing/id"
	"github.com/xraph/invoicing/invoice"
	"github.com/xraph/invoicing/transaction"
	"github.com/xraph/invoicing/types"
)

// Authenticator resolves the acting user from an incoming request.
// Implementations return the actor ID, or an error for anonymous or invalid
// credentials.
type Authenticator interface {
	Authenticate(r *http.Request) (string, error)
}

// AuthenticatorFunc is an adapter to use a plain function as an Authenticator.
type AuthenticatorFunc func(r *http.Request) (string, error)

// Authenticate implements Authenticator.
func (f AuthenticatorFunc) Authenticate(r *http.Request) (string, error) {
	return f(r)
}

// Handler serves the invoicing REST API.
type Handler struct {
	engine *invoicing.Engine
	auth   Authenticator
	logger *slog.Logger
	mux    *http.ServeMux
}

// Option configures a Handler.
type Option func(*Handler)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) { h.logger = logger }
}

// NewHandler builds the route table for the given engine. All routes except
// GET /health go through auth.
func NewHandler(engine *invoicing.Engine, auth Authenticator, opts ...Option) *Handler {
	h := &Handler{
		engine: engine,
		auth:   auth,
		logger: slog.Default(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /health", h.handleHealth)

	h.mux.HandleFunc("POST /invoices", h.authed(h.handleCreateInvoice))
	h.mux.HandleFunc("GET /invoices", h.authed(h.handleListInvoices))
	h.mux.HandleFunc("GET /invoices/{id}", h.authed(h.handleGetInvoice))
	h.mux.HandleFunc("PUT /invoices/{id}", h.authed(h.handleUpdateInvoice))
	h.mux.HandleFunc("DELETE /invoices/{id}", h.authed(h.handleDeleteInvoice))
	h.mux.HandleFunc("PATCH /invoices/{id}/mark-paid", h.authed(h.handleMarkPaid))
	h.mux.HandleFunc("PATCH /invoices/{id}/mark-pending", h.authed(h.handleMarkPending))

	h.mux.HandleFunc("POST /transactions", h.authed(h.handleCreateTransaction))
	h.mux.HandleFunc("GET /transactions", h.authed(h.handleListTransactions))
	h.mux.HandleFunc("GET /transactions/{id}", h.authed(h.handleGetTransaction))

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	h.mux.ServeHTTP(w, r)
	h.logger.Debug("request handled",
		"method", r.Method,
		"path", r.URL.Path,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// authed authenticates the request and stashes the actor on the context.
func (h *Handler) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.auth.Authenticate(r)
		if err != nil || actor == "" {
			h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		next(w, r.WithContext(invoicing.WithActor(r.Context(), actor)))
	}
}

// ==================== Health ====================

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

// ==================== Invoices ====================

func (h *Handler) handleCreateInvoice(w http.ResponseWriter, r *http.Request) {
	var req createInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	items, err := toItemInputs(req.Items)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	inv := &invoice.Invoice{
		CustomerName:    req.CustomerName,
		CustomerEmail:   req.CustomerEmail,
		ReferenceNumber: req.ReferenceNumber,
	}
	if err := h.engine.CreateInvoice(r.Context(), inv, items); err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusCreated, toInvoiceResponse(inv))
}

func (h *Handler) handleListInvoices(w http.ResponseWriter, r *http.Request) {
	opts := invoice.ListOpts{
		Status: invoice.Status(r.URL.Query().Get("status")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if opts.Status != "" && !opts.Status.Valid() {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown status filter", Field: "status"})
		return
	}

	invs, err := h.engine.ListInvoices(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInvoiceResponses(invs))
}

func (h *Handler) handleGetInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.engine.GetInvoice(r.Context(), invID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) handleUpdateInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	var req updateInvoiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	upd := invoicing.InvoiceUpdate{
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	}
	if req.Status != nil {
		status := invoice.Status(*req.Status)
		upd.Status = &status
	}
	if req.Items != nil {
		items, err := toItemInputs(*req.Items)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		upd.Items = items
	}

	inv, err := h.engine.UpdateInvoice(r.Context(), invID, upd)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) handleDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	if err := h.engine.DeleteInvoice(r.Context(), invID); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleMarkPaid(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.engine.MarkPaid(r.Context(), invID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

func (h *Handler) handleMarkPending(w http.ResponseWriter, r *http.Request) {
	invID, ok := h.invoiceID(w, r)
	if !ok {
		return
	}

	inv, err := h.engine.MarkPending(r.Context(), invID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toInvoiceResponse(inv))
}

// ==================== Transactions ====================

func (h *Handler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req createTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed JSON body"})
		return
	}

	var invID id.InvoiceID
	if req.InvoiceID != "" {
		parsed, err := id.ParseInvoiceID(req.InvoiceID)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid invoice_id", Field: "invoice_id"})
			return
		}
		invID = parsed
	}

	amount, err := types.Parse(req.Amount)
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid amount", Field: "amount"})
		return
	}

	txn := &transaction.Transaction{
		InvoiceID: invID,
		Type:      transaction.Type(req.Type),
		Amount:    amount,
		Status:    req.Status,
	}
	if err := h.engine.RecordTransaction(r.Context(), txn); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, toTransactionResponse(txn))
}

func (h *Handler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	opts := transaction.ListOpts{
		Type:   transaction.Type(r.URL.Query().Get("type")),
		Limit:  queryInt(r, "limit"),
		Offset: queryInt(r, "offset"),
	}
	if opts.Type != "" && !opts.Type.Valid() {
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "unknown type filter", Field: "type"})
		return
	}
	if raw := r.URL.Query().Get("invoice_id"); raw != "" {
		invID, err := id.ParseInvoiceID(raw)
		if err != nil {
			h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid invoice_id", Field: "invoice_id"})
			return
		}
		opts.InvoiceID = invID
	}

	txns, err := h.engine.ListTransactions(r.Context(), opts)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransactionResponses(txns))
}

func (h *Handler) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	txnID, err := id.ParseTransactionID(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "transaction not found"})
		return
	}

	txn, err := h.engine.GetTransaction(r.Context(), txnID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, toTransactionResponse(txn))
}

// ==================== Helpers ====================

// invoiceID parses the {id} path segment. A malformed ID is reported as 404:
// it can never name an existing invoice.
func (h *Handler) invoiceID(w http.ResponseWriter, r *http.Request) (id.InvoiceID, bool) {
	invID, err := id.ParseInvoiceID(r.PathValue("id"))
	if err != nil {
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: "invoice not found"})
		return id.InvoiceID{}, false
	}
	return invID, true
}

func queryInt(r *http.Request, key string) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// writeError maps engine errors to HTTP status codes.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, invoicing.ErrMissingActor):
		h.writeJSON(w, http.StatusUnauthorized, errorResponse{Error: "authentication required"})
	case invoicing.IsNotFound(err):
		h.writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case invoicing.IsConflict(err):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error()})
	case errors.Is(err, invoicing.ErrInvalidTransition):
		h.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case invoicing.IsValidation(err):
		resp := errorResponse{Error: err.Error()}
		var ve invoicing.ValidationError
		if errors.As(err, &ve) {
			resp.Field = ve.Field
		}
		h.writeJSON(w, http.StatusBadRequest, resp)
	default:
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		h.writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("encode response", "error", err)
	}
}
