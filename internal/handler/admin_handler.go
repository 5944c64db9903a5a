package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/models"
)

func (h *Handler) ListValidators(w http.ResponseWriter, r *http.Request) {
	validators, err := h.admin.ListValidators(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}

	type validatorView struct {
		ID      int64             `json:"id"`
		Email   string            `json:"email"`
		Status  models.UserStatus `json:"status"`
		Country string            `json:"country,omitempty"`
	}
	out := make([]validatorView, 0, len(validators))
	for _, v := range validators {
		out = append(out, validatorView{
			ID:      v.ID,
			Email:   v.Email,
			Status:  v.Status,
			Country: v.Country.String,
		})
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"validators": out})
}

func (h *Handler) ApproveValidator(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid validator id"))
		return
	}

	var req struct {
		Country string `json:"country"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := h.admin.ApproveValidator(r.Context(), id, req.Country, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectValidator(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid validator id"))
		return
	}

	if err := h.admin.RejectValidator(r.Context(), id, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}

func (h *Handler) GetPricing(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.pricing.Get(r.Context())
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}

func (h *Handler) UpdatePricing(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		MarkupPercent       decimal.Decimal `json:"markup_percent"`
		WithdrawalFee       decimal.Decimal `json:"withdrawal_fee"`
		ReferralApprovalFee decimal.Decimal `json:"referral_approval_fee"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	cfg := &models.PricingConfig{
		MarkupPercent:       req.MarkupPercent,
		WithdrawalFee:       req.WithdrawalFee,
		ReferralApprovalFee: req.ReferralApprovalFee,
		UpdatedBy:           adminID,
	}
	if err := h.pricing.Update(r.Context(), cfg); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, cfg)
}
