package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/keymarket/ledger-service/internal/infrastructure/observability"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

const updateWalletBalanceQuery = `
	UPDATE wallets
	SET balance = balance + $1, version = version + 1, updated_at = NOW()
	WHERE id = $2 AND status = 'active' AND balance + $1 >= 0
	RETURNING balance`

const insertLedgerRowQuery = `
	INSERT INTO wallet_transactions (wallet_id, type, amount, balance_after, related_entity_type, related_entity_id, description)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING id, created_at`

// applyLedgerEntry adjusts the wallet balance and appends the ledger row
// using q, which must be the transaction the caller will commit. The balance
// guard lives in the UPDATE itself, so a debit can never race past zero.
func applyLedgerEntry(ctx context.Context, q querier, entry repository.LedgerEntry) (*models.WalletTransaction, error) {
	if entry.Amount.IsZero() {
		return nil, pkgerrors.ErrZeroAmount
	}

	ledger := &models.WalletTransaction{
		WalletID:          entry.WalletID,
		Type:              entry.Type,
		Amount:            entry.Amount,
		RelatedEntityType: entry.RelatedEntityType,
		RelatedEntityID:   entry.RelatedEntityID,
		Description:       entry.Description,
	}

	err := q.QueryRowContext(ctx, updateWalletBalanceQuery, entry.Amount, entry.WalletID).Scan(&ledger.BalanceAfter)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, classifyWalletFailure(ctx, q, entry.WalletID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	err = q.QueryRowContext(ctx, insertLedgerRowQuery,
		ledger.WalletID, ledger.Type, ledger.Amount, ledger.BalanceAfter,
		ledger.RelatedEntityType, ledger.RelatedEntityID, ledger.Description,
	).Scan(&ledger.ID, &ledger.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	observability.LedgerEntriesTotal.WithLabelValues(string(ledger.Type)).Inc()
	return ledger, nil
}

// classifyWalletFailure turns a zero-row conditional update into the right
// sentinel: missing wallet, frozen/closed wallet, or insufficient funds.
func classifyWalletFailure(ctx context.Context, q querier, walletID int64) error {
	var status models.WalletStatus
	err := q.QueryRowContext(ctx, `SELECT status FROM wallets WHERE id = $1`, walletID).Scan(&status)
	if stderrors.Is(err, sql.ErrNoRows) {
		return pkgerrors.ErrWalletNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect wallet %d: %w", walletID, err)
	}
	if status != models.WalletActive {
		return pkgerrors.ErrWalletNotActive
	}
	return pkgerrors.ErrInsufficientFunds
}
