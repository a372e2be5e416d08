package models

import (
	"math"
	"strconv"
	"time"

	"github.com/gosimple/slug"
	"gorm.io/gorm"
)

// Category groups products for browsing.
type Category struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `json:"name" gorm:"uniqueIndex;type:varchar(100);not null" validate:"required,min=3,max=100"`
	Slug      string    `json:"slug" gorm:"type:varchar(120)"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeSave keeps the slug in sync with the name.
func (c *Category) BeforeSave(*gorm.DB) error {
	c.Slug = slug.Make(c.Name)
	return nil
}

// Product represents a product in the store, listed by a seller under a category.
type Product struct {
	ID           string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name         string    `json:"name" gorm:"type:varchar(100);not null" validate:"required,min=3,max=100"`
	Slug         string    `json:"slug" gorm:"index;type:varchar(120)"`
	Description  string    `json:"description" validate:"omitempty,max=500"`
	Price        float64   `json:"price" validate:"required,gt=0"`
	Discount     float64   `json:"discount" validate:"gte=0,lte=100"`
	SpecialPrice float64   `json:"special_price"`
	Stock        int       `json:"stock" validate:"gte=0"`
	CategoryID   string    `json:"category_id" gorm:"index;type:varchar(36)"`
	SellerID     string    `json:"seller_id" gorm:"index;type:varchar(36)"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// BeforeSave derives the slug and the discounted price.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.Slug = slug.Make(p.Name)
	p.SpecialPrice = SpecialPrice(p.Price, p.Discount)
	return nil
}

// SpecialPrice applies a percentage discount and rounds to cents.
func SpecialPrice(price, discount float64) float64 {
	return math.Round(price*(1-discount/100)*100) / 100
}

// Page is one page of a sorted listing.
type Page[T any] struct {
	Content       []T   `json:"content"`
	PageNumber    int   `json:"page_number"`
	PageSize      int   `json:"page_size"`
	TotalElements int64 `json:"total_elements"`
	TotalPages    int   `json:"total_pages"`
	LastPage      bool  `json:"last_page"`
}

// NewPage assembles a Page from a slice and the total row count.
func NewPage[T any](content []T, q PageQuery, total int64) Page[T] {
	pages := 0
	if q.Size > 0 {
		pages = int((total + int64(q.Size) - 1) / int64(q.Size))
	}
	if content == nil {
		content = []T{}
	}
	return Page[T]{
		Content:       content,
		PageNumber:    q.Page,
		PageSize:      q.Size,
		TotalElements: total,
		TotalPages:    pages,
		LastPage:      q.Page+1 >= pages,
	}
}

// PageQuery describes pagination and ordering of a listing. Page is zero based.
type PageQuery struct {
	Page    int
	Size    int
	SortBy  string
	SortDir string // "asc" or "desc"
}

// CacheKey renders the query as a stable cache key fragment.
func (q PageQuery) CacheKey() string {
	return strconv.Itoa(q.Page) + "_" + strconv.Itoa(q.Size) + "_" + q.SortBy + "_" + q.SortDir
}
