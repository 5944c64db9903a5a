package handler

import (
	"errors"
	"net/http"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
)

func (h *Handler) ListAffiliateProfiles(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	profiles, err := h.referral.ListProfiles(r.Context(), limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"profiles": profiles})
}

func (h *Handler) ListAffiliateApplications(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	applications, err := h.referral.ListApplications(r.Context(), limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"applications": applications})
}

func (h *Handler) ApproveReferral(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	referralID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid referral id"))
		return
	}

	if err := h.referral.Approve(r.Context(), referralID, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "approved"})
}

func (h *Handler) RejectReferral(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	referralID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid referral id"))
		return
	}

	if err := h.referral.Reject(r.Context(), referralID, adminID); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "rejected"})
}
