package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body.Error
}

func TestServiceError(t *testing.T) {
	h := &Handler{}

	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"InvalidCredentials", pkgerrors.ErrInvalidCredentials, http.StatusUnauthorized},
		{"NotOwner", pkgerrors.ErrNotOwner, http.StatusForbidden},
		{"WalletNotFound", pkgerrors.ErrWalletNotFound, http.StatusNotFound},
		{"AlreadyProcessed", pkgerrors.ErrRequestAlreadyProcessed, http.StatusConflict},
		{"InvalidTransition", pkgerrors.ErrInvalidStatusTransition, http.StatusConflict},
		{"InsufficientFunds", pkgerrors.ErrInsufficientFunds, http.StatusBadRequest},
		{"WrappedSentinel", fmt.Errorf("completing withdrawal: %w", pkgerrors.ErrInsufficientFunds), http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.serviceError(rec, tc.err)
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.err.Error(), decodeError(t, rec))
		})
	}
}

func TestServiceError_InternalDetailsStayServerSide(t *testing.T) {
	h := &Handler{}

	rec := httptest.NewRecorder()
	h.serviceError(rec, errors.New(`failed to get wallet: pq: password authentication failed for user "postgres"`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeError(t, rec))
	assert.NotContains(t, rec.Body.String(), "pq:")
}
