package utils

import (
	"math"
	"strconv"

	"gorm.io/gorm"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset within an int32 for any page size
	MaxPage = math.MaxInt32 / MaxPageSize
)

// Pagination is a 1-based page request
type Pagination struct {
	Page  int
	Limit int
}

// NewPagination normalizes raw page/limit query values. Invalid values fall back to defaults.
func NewPagination(rawPage, rawLimit string) Pagination {
	page, err := strconv.Atoi(rawPage)
	if err != nil || page <= 0 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	limit, err := strconv.Atoi(rawLimit)
	if err != nil || limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return Pagination{Page: page, Limit: limit}
}

// Offset is the number of rows skipped before this page
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is one page of items plus the total row count
type Page[T any] struct {
	Items    []T   `json:"items"`
	Total    int64 `json:"total"`
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
}

// NewPage wraps items fetched for p
func NewPage[T any](items []T, total int64, p Pagination) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, Total: total, Page: p.Page, PageSize: p.Limit}
}

// FindPage counts the rows matched by base and fetches page p of them.
// decorate adds ordering and preloads to the fetch query only.
func FindPage[T any](base *gorm.DB, p Pagination, decorate func(*gorm.DB) *gorm.DB) (Page[T], error) {
	base = base.Session(&gorm.Session{})

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return Page[T]{}, err
	}

	query := base
	if decorate != nil {
		query = decorate(query)
	}

	var items []T
	if err := query.Offset(p.Offset()).Limit(p.Limit).Find(&items).Error; err != nil {
		return Page[T]{}, err
	}
	return NewPage(items, total, p), nil
}
