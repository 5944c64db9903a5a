package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"

	"github.com/keymarket/ledger-service/internal/models"
	pkgerrors "github.com/keymarket/ledger-service/pkg/errors"
)

type PostgresProductRepository struct {
	db *sql.DB
}

func NewPostgresProductRepository(db *sql.DB) *PostgresProductRepository {
	return &PostgresProductRepository{db: db}
}

// Create inserts the product together with its initial inventory accounts in
// one transaction.
func (r *PostgresProductRepository) Create(ctx context.Context, product *models.Product, inventory []models.InventoryAccount) error {
	if product == nil || product.Name == "" || !product.Price.IsPositive() {
		return pkgerrors.ErrInvalidInput
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO products (provider_id, name, description, price, active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		product.ProviderID, product.Name, product.Description, product.Price, product.Active,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}

	for i := range inventory {
		inventory[i].ProductID = product.ID
		err = tx.QueryRowContext(ctx, `
			INSERT INTO inventory_accounts (product_id, credentials, sold)
			VALUES ($1, $2, FALSE)
			RETURNING id, created_at`,
			product.ID, inventory[i].Credentials,
		).Scan(&inventory[i].ID, &inventory[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to create inventory account: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit product creation: %w", err)
	}
	return nil
}

const selectProductQuery = `
	SELECT id, provider_id, name, description, price, active, created_at, updated_at
	FROM products`

func (r *PostgresProductRepository) GetByID(ctx context.Context, id int64) (*models.Product, error) {
	var p models.Product
	err := r.db.QueryRowContext(ctx, selectProductQuery+` WHERE id = $1`, id).Scan(
		&p.ID, &p.ProviderID, &p.Name, &p.Description, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &p, nil
}

func (r *PostgresProductRepository) ListByProvider(ctx context.Context, providerID int64, limit, offset int) ([]models.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		selectProductQuery+` WHERE provider_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		providerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var out []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.ProviderID, &p.Name, &p.Description, &p.Price, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PostgresProductRepository) Update(ctx context.Context, product *models.Product) error {
	if product == nil {
		return pkgerrors.ErrInvalidInput
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, active = $4, updated_at = NOW()
		WHERE id = $5`,
		product.Name, product.Description, product.Price, product.Active, product.ID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return checkAffected(res, pkgerrors.ErrProductNotFound)
}

func (r *PostgresProductRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	return checkAffected(res, pkgerrors.ErrProductNotFound)
}

func (r *PostgresProductRepository) GetInventory(ctx context.Context, accountID int64) (*models.InventoryAccount, error) {
	var acc models.InventoryAccount
	err := r.db.QueryRowContext(ctx,
		`SELECT id, product_id, credentials, sold, created_at FROM inventory_accounts WHERE id = $1`,
		accountID,
	).Scan(&acc.ID, &acc.ProductID, &acc.Credentials, &acc.Sold, &acc.CreatedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, pkgerrors.ErrInventoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get inventory account: %w", err)
	}
	return &acc, nil
}

// DeleteInventory removes an account only while it is unsold.
func (r *PostgresProductRepository) DeleteInventory(ctx context.Context, accountID int64) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM inventory_accounts WHERE id = $1 AND sold = FALSE`, accountID)
	if err != nil {
		return fmt.Errorf("failed to delete inventory account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		var sold bool
		err := r.db.QueryRowContext(ctx, `SELECT sold FROM inventory_accounts WHERE id = $1`, accountID).Scan(&sold)
		if stderrors.Is(err, sql.ErrNoRows) {
			return pkgerrors.ErrInventoryNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to inspect inventory account %d: %w", accountID, err)
		}
		return pkgerrors.ErrInventorySold
	}
	return nil
}

func checkAffected(res sql.Result, notFound error) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
