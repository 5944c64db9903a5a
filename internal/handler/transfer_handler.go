package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
)

func (h *Handler) ListPendingFundEntries(w http.ResponseWriter, r *http.Request) {
	validatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	entries, err := h.transfer.ListPendingEntries(r.Context(), validatorID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}

func (h *Handler) SubmitTransfer(w http.ResponseWriter, r *http.Request) {
	validatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		EntryIDs []int64 `json:"entry_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	transfer, err := h.transfer.Submit(r.Context(), validatorID, req.EntryIDs)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, transfer)
}

func (h *Handler) ApproveTransfer(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid transfer id"))
		return
	}

	if err := h.transfer.Approve(r.Context(), id, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectTransfer(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid transfer id"))
		return
	}

	if err := h.transfer.Reject(r.Context(), id, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
