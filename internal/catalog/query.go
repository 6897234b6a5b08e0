// Package catalog translates product listing parameters into a database
// filter, sort order and page window.
package catalog

import (
	"math"
	"strings"

	"gorm.io/gorm"

	"github.com/srai007/storefront/internal/models"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query is the set of optional listing parameters. Nil numeric bounds are
// unconstrained; an empty Sort falls back to newest-first.
type Query struct {
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	MinRating *float64
	Search    string
	Sort      string
	Page      int
	Limit     int
}

type Page struct {
	Items       []models.Product
	Total       int64
	TotalPages  int
	CurrentPage int
}

func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}
	return page, limit
}

// scope applies the filter conditions, leaving ordering and pagination to
// the caller so the same conditions can back both the count and the page.
func (q Query) scope(db *gorm.DB) *gorm.DB {
	if q.Category != "" {
		db = db.Where("category = ?", strings.ToLower(q.Category))
	}
	if q.MinPrice != nil {
		db = db.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		db = db.Where("price <= ?", *q.MaxPrice)
	}
	if q.MinRating != nil {
		db = db.Where("rating >= ?", *q.MinRating)
	}
	if q.Search != "" {
		pattern := "%" + strings.ToLower(q.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	return db
}

func (q Query) order() string {
	switch q.Sort {
	case "price-asc":
		return "price ASC"
	case "price-desc":
		return "price DESC"
	case "oldest":
		return "created_at ASC"
	case "rating-desc":
		return "rating DESC"
	case "rating-asc":
		return "rating ASC"
	case "newest":
		return "created_at DESC"
	default:
		return "created_at DESC"
	}
}

// Run executes the query. An empty page is a valid result, not an error.
func Run(db *gorm.DB, q Query) (Page, error) {
	q.Page, q.Limit = NormalizePage(q.Page, q.Limit)

	base := func() *gorm.DB {
		return q.scope(db.Model(&models.Product{}))
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return Page{}, err
	}

	var items []models.Product
	if err := base().
		Order(q.order()).
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&items).Error; err != nil {
		return Page{}, err
	}

	return Page{
		Items:       items,
		Total:       total,
		TotalPages:  int(math.Ceil(float64(total) / float64(q.Limit))),
		CurrentPage: q.Page,
	}, nil
}
