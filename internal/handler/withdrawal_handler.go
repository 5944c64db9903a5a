package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/models"
)

func (h *Handler) CreateWithdrawal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		Amount         decimal.Decimal `json:"amount"`
		PaymentMethod  string          `json:"payment_method"`
		PaymentDetails string          `json:"payment_details"`
		RequestID      string          `json:"request_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}
	if req.RequestID == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("request_id is required"))
		return
	}

	withdrawal, err := h.withdrawal.Create(r.Context(), userID, req.Amount, req.PaymentMethod, req.PaymentDetails, req.RequestID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, withdrawal)
}

// ListPendingWithdrawals is the validator queue. Payment details come back
// decrypted since the validator needs them to execute the payout.
func (h *Handler) ListPendingWithdrawals(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	requests, err := h.withdrawal.ListPending(r.Context(), limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}

	type pendingWithdrawal struct {
		models.WithdrawalRequest
		PaymentDetails string `json:"payment_details"`
	}
	out := make([]pendingWithdrawal, 0, len(requests))
	for i := range requests {
		out = append(out, pendingWithdrawal{
			WithdrawalRequest: requests[i],
			PaymentDetails:    h.withdrawal.DecryptedDetails(&requests[i]),
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": out})
}

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	validatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid withdrawal id"))
		return
	}

	if err := h.withdrawal.Approve(r.Context(), id, validatorID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	validatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid withdrawal id"))
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.withdrawal.Reject(r.Context(), id, validatorID, req.Reason); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) CompleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	validatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid withdrawal id"))
		return
	}

	if err := h.withdrawal.Complete(r.Context(), id, validatorID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "completed"})
}
