package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSellerRefund(t *testing.T) {
	amount := decimal.RequireFromString("100.00")

	tests := []struct {
		name       string
		resolution ResolutionType
		percentage int64
		want       string
	}{
		{"FullRefund", ResolutionRefundSeller, 0, "100"},
		{"FavorProvider", ResolutionFavorProvider, 0, "0"},
		{"NoAction", ResolutionNoAction, 0, "0"},
		{"PartialZero", ResolutionPartialRefund, 0, "0"},
		{"PartialQuarter", ResolutionPartialRefund, 25, "25"},
		{"PartialFull", ResolutionPartialRefund, 100, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SellerRefund(amount, tt.resolution, tt.percentage)
			assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "got %s want %s", got, tt.want)
		})
	}

	t.Run("PartialRoundsToCents", func(t *testing.T) {
		got := SellerRefund(decimal.RequireFromString("33.33"), ResolutionPartialRefund, 33)
		assert.True(t, got.Equal(decimal.RequireFromString("11.00")), "got %s", got)
	})

	t.Run("SplitSumsExactly", func(t *testing.T) {
		amount := decimal.RequireFromString("99.99")
		refund := SellerRefund(amount, ResolutionPartialRefund, 37)
		retained := amount.Sub(refund)
		assert.True(t, refund.Add(retained).Equal(amount))
	})
}

func TestSLAIndicator(t *testing.T) {
	now := time.Now()

	fresh := &Dispute{Status: DisputeOpen, OpenedAt: now.Add(-time.Hour)}
	assert.Equal(t, "on_time", fresh.SLAIndicator(now))

	warning := &Dispute{Status: DisputeOpen, OpenedAt: now.Add(-50 * time.Hour)}
	assert.Equal(t, "warning", warning.SLAIndicator(now))

	overdue := &Dispute{Status: DisputeUnderReview, OpenedAt: now.Add(-80 * time.Hour)}
	assert.Equal(t, "overdue", overdue.SLAIndicator(now))

	resolved := &Dispute{Status: DisputeResolved, OpenedAt: now.Add(-200 * time.Hour)}
	assert.Equal(t, "on_time", resolved.SLAIndicator(now))
}
