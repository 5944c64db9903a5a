package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/keymarket/ledger-service/internal/infrastructure/observability"
	"github.com/keymarket/ledger-service/internal/models"
	"github.com/keymarket/ledger-service/internal/repository"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

// maxApplyAttempts bounds the optimistic-concurrency retry loop on the
// wallet version column.
const maxApplyAttempts = 3

type PostgresWalletRepository struct {
	db *sql.DB
}

func NewPostgresWalletRepository(db *sql.DB) *PostgresWalletRepository {
	return &PostgresWalletRepository{db: db}
}

const insertWalletQuery = `
	INSERT INTO wallets (user_id, balance, currency, status, version)
	VALUES ($1, $2, $3, $4, 0)
	RETURNING id, created_at, updated_at`

// insertWallet runs against q so callers can bundle the insert with other
// writes in one transaction.
func insertWallet(ctx context.Context, q querier, wallet *models.Wallet) error {
	err := q.QueryRowContext(ctx, insertWalletQuery, wallet.UserID, wallet.Balance, wallet.Currency, wallet.Status).
		Scan(&wallet.ID, &wallet.CreatedAt, &wallet.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	return nil
}

func (r *PostgresWalletRepository) Create(ctx context.Context, wallet *models.Wallet) error {
	if wallet == nil {
		return pkgerrors.ErrInvalidInput
	}
	return insertWallet(ctx, r.db, wallet)
}

func (r *PostgresWalletRepository) GetByID(ctx context.Context, id int64) (*models.Wallet, error) {
	return r.getWallet(ctx, `SELECT id, user_id, balance, currency, status, version, created_at, updated_at FROM wallets WHERE id = $1`, id)
}

func (r *PostgresWalletRepository) GetByUserID(ctx context.Context, userID int64) (*models.Wallet, error) {
	return r.getWallet(ctx, `SELECT id, user_id, balance, currency, status, version, created_at, updated_at FROM wallets WHERE user_id = $1`, userID)
}

func (r *PostgresWalletRepository) getWallet(ctx context.Context, query string, arg any) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&w.ID, &w.UserID, &w.Balance, &w.Currency, &w.Status, &w.Version, &w.CreatedAt, &w.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrWalletNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	return &w, nil
}

// ApplyEntry performs the debit/credit under optimistic concurrency: the
// wallet is read, the mutation is attempted with a version-guarded
// conditional update, and a version conflict re-reads and retries. An
// insufficient balance is rejected before any write.
func (r *PostgresWalletRepository) ApplyEntry(ctx context.Context, entry repository.LedgerEntry) (*models.WalletTransaction, error) {
	var err error
	tracer := otel.Tracer("wallet-repository")
	ctx, span := tracer.Start(ctx, "ApplyEntry")
	span.SetAttributes(
		attribute.Int64("wallet_id", entry.WalletID),
		attribute.String("amount", entry.Amount.String()),
		attribute.String("type", string(entry.Type)),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		observability.RepositoryCalls.WithLabelValues("ApplyEntry", status).Inc()
		observability.RepositoryDuration.WithLabelValues("ApplyEntry").Observe(time.Since(start).Seconds())
	}()

	if entry.Amount.IsZero() {
		err = pkgerrors.ErrZeroAmount
		return nil, err
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		var wallet *models.Wallet
		wallet, err = r.GetByID(ctx, entry.WalletID)
		if err != nil {
			return nil, err
		}
		if wallet.Status != models.WalletActive {
			err = pkgerrors.ErrWalletNotActive
			return nil, err
		}
		if wallet.Balance.Add(entry.Amount).IsNegative() {
			err = pkgerrors.ErrInsufficientFunds
			return nil, err
		}

		var ledger *models.WalletTransaction
		ledger, err = r.applyAtVersion(ctx, entry, wallet.Version)
		if stderrors.Is(err, pkgerrors.ErrVersionConflict) {
			slog.Warn("wallet version conflict, retrying", "wallet_id", entry.WalletID, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		slog.Info("ledger entry applied",
			"wallet_id", entry.WalletID,
			"type", ledger.Type,
			"amount", ledger.Amount.String(),
			"balance_after", ledger.BalanceAfter.String(),
		)
		return ledger, nil
	}

	err = pkgerrors.ErrVersionConflict
	return nil, err
}

func (r *PostgresWalletRepository) applyAtVersion(ctx context.Context, entry repository.LedgerEntry, version int64) (*models.WalletTransaction, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	ledger := &models.WalletTransaction{
		WalletID:          entry.WalletID,
		Type:              entry.Type,
		Amount:            entry.Amount,
		RelatedEntityType: entry.RelatedEntityType,
		RelatedEntityID:   entry.RelatedEntityID,
		Description:       entry.Description,
	}

	query := `
		UPDATE wallets
		SET balance = balance + $1, version = version + 1, updated_at = NOW()
		WHERE id = $2 AND version = $3 AND status = 'active' AND balance + $1 >= 0
		RETURNING balance`
	err = tx.QueryRowContext(ctx, query, entry.Amount, entry.WalletID, version).Scan(&ledger.BalanceAfter)
	if stderrors.Is(err, sql.ErrNoRows) {
		// Either another writer bumped the version or the balance check
		// failed in between; the caller re-reads and decides.
		return nil, pkgerrors.ErrVersionConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update wallet balance: %w", err)
	}

	err = tx.QueryRowContext(ctx, insertLedgerRowQuery,
		ledger.WalletID, ledger.Type, ledger.Amount, ledger.BalanceAfter,
		ledger.RelatedEntityType, ledger.RelatedEntityID, ledger.Description,
	).Scan(&ledger.ID, &ledger.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append ledger entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ledger entry: %w", err)
	}

	observability.LedgerEntriesTotal.WithLabelValues(string(ledger.Type)).Inc()
	return ledger, nil
}

func (r *PostgresWalletRepository) ListTransactions(ctx context.Context, walletID int64, limit, offset int) ([]models.WalletTransaction, error) {
	query := `
		SELECT id, wallet_id, type, amount, balance_after, related_entity_type, related_entity_id, description, created_at
		FROM wallet_transactions
		WHERE wallet_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`
	rows, err := r.db.QueryContext(ctx, query, walletID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallet transactions: %w", err)
	}
	defer rows.Close()

	var out []models.WalletTransaction
	for rows.Next() {
		var t models.WalletTransaction
		if err := rows.Scan(&t.ID, &t.WalletID, &t.Type, &t.Amount, &t.BalanceAfter,
			&t.RelatedEntityType, &t.RelatedEntityID, &t.Description, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wallet transaction: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
