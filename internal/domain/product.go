package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Status values shared by categories and products.
const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// MaxProductImages bounds the image list of a single product.
const MaxProductImages = 10

// Product represents a product in the catalog
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	CategoryID  uuid.UUID       `json:"-" db:"category_id"`
	Category    CategoryRef     `json:"category"`
	Images      []string        `json:"images" db:"images"`
	Ingredients string          `json:"ingredients,omitempty" db:"ingredients"`
	Usage       string          `json:"usage,omitempty" db:"usage"`
	Featured    bool            `json:"featured" db:"featured"`
	Status      string          `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time       `json:"updatedAt" db:"updated_at"`
}

// CategoryRef is the category summary embedded in product reads.
type CategoryRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductFilter selects and orders a page of products.
type ProductFilter struct {
	Page       int
	Limit      int
	CategoryID *uuid.UUID
	Featured   bool
	Search     string
	Status     string // empty means any status
	SortBy     string
	SortOrder  string
}

// Offset is the number of rows skipped before the requested page.
func (f ProductFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// Pagination describes where a page sits in the full result set.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes the page count for total rows split by limit.
func NewPagination(page, limit, total int) Pagination {
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// ProductPage is one page of a product listing.
type ProductPage struct {
	Products   []*Product `json:"products"`
	Pagination Pagination `json:"pagination"`
}
