package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/models"
)

func (h *Handler) OpenDispute(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		PurchaseID       uuid.UUID       `json:"purchase_id"`
		Amount           decimal.Decimal `json:"amount"`
		SellerWalletID   int64           `json:"seller_wallet_id"`
		ProviderWalletID int64           `json:"provider_wallet_id"`
		Reason           string          `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	dispute := &models.Dispute{
		PurchaseID:       req.PurchaseID,
		Amount:           req.Amount,
		SellerWalletID:   req.SellerWalletID,
		ProviderWalletID: req.ProviderWalletID,
		Reason:           req.Reason,
	}
	if err := h.dispute.Open(r.Context(), sellerID, dispute); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, dispute)
}

func (h *Handler) GetDispute(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid dispute id"))
		return
	}

	dispute, sla, err := h.dispute.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"dispute": dispute,
		"sla":     sla,
	})
}

func (h *Handler) ListOpenDisputes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	disputes, err := h.dispute.ListOpen(r.Context(), limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"disputes": disputes})
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	conciliatorID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathUUID(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid dispute id"))
		return
	}

	var req struct {
		Resolution string `json:"resolution"`
		Percentage int64  `json:"percentage,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	refund, err := h.dispute.Resolve(r.Context(), id, models.ResolutionType(req.Resolution), req.Percentage, conciliatorID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "resolved",
		"seller_refund": refund.String(),
	})
}
