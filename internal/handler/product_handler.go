package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/keymarket/ledger-service/internal/infrastructure/auth"
	"github.com/keymarket/ledger-service/internal/models"
)

func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Credentials []string        `json:"credentials"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	product := &models.Product{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      true,
	}
	if err := h.product.Create(r.Context(), providerID, product, req.Credentials); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, product)
}

func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	product, err := h.product.Get(r.Context(), id)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}

	limit, offset := pagination(r)
	products, err := h.product.ListByProvider(r.Context(), providerID, limit, offset)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"products": products})
}

func (h *Handler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	var req struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		Price       decimal.Decimal `json:"price"`
		Active      bool            `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	product := &models.Product{
		ID:          id,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      req.Active,
	}
	if err := h.product.Update(r.Context(), providerID, product); err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, product)
}

func (h *Handler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	id, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid product id"))
		return
	}

	if err := h.product.Delete(r.Context(), providerID, id); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) RevealInventory(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid inventory account id"))
		return
	}

	credentials, err := h.product.RevealCredentials(r.Context(), providerID, accountID)
	if err != nil {
		h.serviceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"credentials": credentials})
}

func (h *Handler) DeleteInventory(w http.ResponseWriter, r *http.Request) {
	providerID, ok := auth.UserID(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, errors.New("user not authenticated"))
		return
	}
	accountID, err := pathInt64(r, "accountID")
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid inventory account id"))
		return
	}

	if err := h.product.DeleteInventory(r.Context(), providerID, accountID); err != nil {
		h.serviceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
