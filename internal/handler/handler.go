package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	service "github.com/keymarket/ledger-service/internal/services"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type Handler struct {
	auth       service.AuthService
	wallet     service.WalletService
	withdrawal service.WithdrawalService
	referral   service.ReferralService
	transfer   service.TransferService
	dispute    service.DisputeService
	product    service.ProductService
	pricing    service.PricingService
	admin      service.AdminService
}

func NewHandler(
	auth service.AuthService,
	wallet service.WalletService,
	withdrawal service.WithdrawalService,
	referral service.ReferralService,
	transfer service.TransferService,
	dispute service.DisputeService,
	product service.ProductService,
	pricing service.PricingService,
	admin service.AdminService,
) *Handler {
	return &Handler{
		auth:       auth,
		wallet:     wallet,
		withdrawal: withdrawal,
		referral:   referral,
		transfer:   transfer,
		dispute:    dispute,
		product:    product,
		pricing:    pricing,
		admin:      admin,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// serviceError maps the error taxonomy to HTTP statuses and writes the
// response.
func (h *Handler) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, pkgerrors.ErrInvalidCredentials):
		h.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, pkgerrors.ErrForbidden),
		errors.Is(err, pkgerrors.ErrNotOwner):
		h.writeError(w, http.StatusForbidden, err)
	case errors.Is(err, pkgerrors.ErrUserNotFound),
		errors.Is(err, pkgerrors.ErrWalletNotFound),
		errors.Is(err, pkgerrors.ErrRechargeNotFound),
		errors.Is(err, pkgerrors.ErrWithdrawalNotFound),
		errors.Is(err, pkgerrors.ErrAffiliateNotFound),
		errors.Is(err, pkgerrors.ErrReferralNotFound),
		errors.Is(err, pkgerrors.ErrTransferNotFound),
		errors.Is(err, pkgerrors.ErrDisputeNotFound),
		errors.Is(err, pkgerrors.ErrProductNotFound),
		errors.Is(err, pkgerrors.ErrInventoryNotFound),
		errors.Is(err, pkgerrors.ErrPricingNotFound),
		errors.Is(err, pkgerrors.ErrValidatorNotFound):
		h.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, pkgerrors.ErrEmailExists),
		errors.Is(err, pkgerrors.ErrRequestAlreadyProcessed),
		errors.Is(err, pkgerrors.ErrVersionConflict),
		errors.Is(err, pkgerrors.ErrWalletLocked),
		errors.Is(err, pkgerrors.ErrInvalidStatusTransition),
		errors.Is(err, pkgerrors.ErrDisputeAlreadyResolved),
		errors.Is(err, pkgerrors.ErrInventorySold):
		h.writeError(w, http.StatusConflict, err)
	case errors.Is(err, pkgerrors.ErrInsufficientFunds),
		errors.Is(err, pkgerrors.ErrWalletNotActive),
		errors.Is(err, pkgerrors.ErrZeroAmount),
		errors.Is(err, pkgerrors.ErrRejectionReasonRequired),
		errors.Is(err, pkgerrors.ErrInvalidRefundPercentage),
		errors.Is(err, pkgerrors.ErrNoFundEntries),
		errors.Is(err, pkgerrors.ErrProviderNotApproved),
		errors.Is(err, pkgerrors.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, err)
	default:
		// Unexpected errors stay server-side; the client gets a fixed body.
		slog.Error("internal error", "error", err)
		h.writeError(w, http.StatusInternalServerError, errors.New("internal error"))
	}
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func pathInt64(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(mux.Vars(r)[name], 10, 64)
}

// pagination reads limit/offset query parameters with sane bounds.
func pagination(r *http.Request) (limit, offset int) {
	limit = 50
	offset = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 && v <= 200 {
			limit = v
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}
