package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a product in the store.
// Stock is only changed through the inventory ledger or an explicit admin stock edit.
type Product struct {
	ID          string          `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string          `json:"name" gorm:"type:varchar(100);not null;index" validate:"required,min=3,max=100"`
	Description string          `json:"description" gorm:"type:text" validate:"omitempty,max=2000"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(12,2);not null" validate:"gt=0"`
	Stock       int             `json:"stock" gorm:"not null;default:0;check:stock >= 0" validate:"gte=0"`
	ImageURL    string          `json:"image_url,omitempty" gorm:"type:varchar(500)" validate:"omitempty,max=500"`
	CategoryID  *string         `json:"category_id,omitempty" gorm:"type:varchar(36);index" validate:"omitempty,uuid"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate assigns a UUID when the caller did not provide one.
func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// ProductUpdate is the allow-list of product fields an admin may change.
// Stock is deliberately absent; it goes through the inventory ledger.
type ProductUpdate struct {
	Name        *string          `json:"name" validate:"omitempty,min=3,max=100"`
	Description *string          `json:"description" validate:"omitempty,max=2000"`
	Price       *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	ImageURL    *string          `json:"image_url" validate:"omitempty,max=500"`
	CategoryID  *string          `json:"category_id" validate:"omitempty,uuid"`
}

// Columns returns the column assignments for the non-nil fields.
func (u ProductUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	if u.Description != nil {
		cols["description"] = *u.Description
	}
	if u.Price != nil {
		cols["price"] = *u.Price
	}
	if u.ImageURL != nil {
		cols["image_url"] = *u.ImageURL
	}
	if u.CategoryID != nil {
		if *u.CategoryID == "" {
			cols["category_id"] = nil
		} else {
			cols["category_id"] = *u.CategoryID
		}
	}
	return cols
}

// ProductFilter holds the catalog listing parameters.
type ProductFilter struct {
	Search     string
	CategoryID string
	// CategoryIDs is CategoryID plus its subcategories, resolved by the catalog service.
	CategoryIDs []string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	SortBy      string // price, created_at, name
	SortOrder   string // asc, desc
	Page        int
	PerPage     int
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Items   []Product `json:"items"`
	Total   int64     `json:"total"`
	Page    int       `json:"page"`
	PerPage int       `json:"per_page"`
	Pages   int       `json:"pages"`
}
