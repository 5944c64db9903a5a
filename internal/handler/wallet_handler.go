package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/models"
)

func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	wallet, err := h.wallet.GetWallet(r.Context(), userID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, wallet)
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	limit, offset := pagination(r)
	transactions, err := h.wallet.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
}

func (h *Handler) CreateRecharge(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		Amount        decimal.Decimal `json:"amount"`
		PaymentMethod string          `json:"payment_method"`
		ExternalRef   string          `json:"external_ref"`
		RequestID     string          `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.RequestID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("request_id is required"))
		return
	}

	recharge, err := h.wallet.CreateRecharge(r.Context(), userID, req.Amount, req.PaymentMethod, req.ExternalRef, req.RequestID)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	// The caller hands the external ref to the gateway; confirmations are
	// matched on it.
	h.writeJSON(w, http.StatusCreated, struct {
		*models.Recharge
		ExternalRef string `json:"external_ref"`
	}{recharge, recharge.ExternalRef.String})
}

// CompleteRecharge is the manual confirmation path for gateways that do not
// publish to payment.confirmations.
func (h *Handler) CompleteRecharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.wallet.CompleteRecharge(r.Context(), id); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}

// AdjustWallet credits or debits a wallet out of band (support corrections).
func (h *Handler) AdjustWallet(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	walletID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid wallet id"))
		return
	}

	var req struct {
		Amount decimal.Decimal `json:"amount"`
		Reason string          `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	ledger, err := h.wallet.AdjustWallet(r.Context(), walletID, req.Amount, req.Reason, adminID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ledger)
}

func (h *Handler) FailRecharge(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.wallet.FailRecharge(r.Context(), id, models.RechargeFailed); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "failed"})
}
