package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          int64           `json:"id"`
	ProviderID  int64           `json:"provider_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// InventoryAccount holds the credentials a buyer receives. Credentials are
// stored encrypted with an explicit algorithm tag.
type InventoryAccount struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"product_id"`
	Credentials string    `json:"-"`
	Sold        bool      `json:"sold"`
	CreatedAt   time.Time `json:"created_at"`
}
