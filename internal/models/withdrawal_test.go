package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithdrawalCanTransition(t *testing.T) {
	tests := []struct {
		from    WithdrawalStatus
		to      WithdrawalStatus
		allowed bool
	}{
		{WithdrawalPending, WithdrawalApproved, true},
		{WithdrawalPending, WithdrawalRejected, true},
		{WithdrawalPending, WithdrawalCompleted, false},
		{WithdrawalApproved, WithdrawalCompleted, true},
		{WithdrawalApproved, WithdrawalRejected, false},
		{WithdrawalApproved, WithdrawalPending, false},
		{WithdrawalRejected, WithdrawalApproved, false},
		{WithdrawalCompleted, WithdrawalPending, false},
	}
	for _, tt := range tests {
		req := &WithdrawalRequest{Status: tt.from}
		assert.Equal(t, tt.allowed, req.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}
