// Package controllers owns persistence for each entity. Every exported call
// is one unit of work: a transaction scoped to the caller's context that
// commits on success and rolls back on error.
package controllers

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"cafe-pos-api/apperr"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Page is limit/offset pagination as accepted on every list endpoint.
type Page struct {
	Limit  int `form:"limit" json:"limit"`
	Offset int `form:"offset" json:"offset"`
}

func (p Page) normalized() Page {
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

func (p Page) apply(q *gorm.DB) *gorm.DB {
	n := p.normalized()
	return q.Limit(n.Limit).Offset(n.Offset)
}

// List is a page of results plus the unpaginated total.
type List[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}

func newList[T any](items []T, total int64, p Page) List[T] {
	n := p.normalized()
	if items == nil {
		items = []T{}
	}
	return List[T]{Items: items, Total: total, Limit: n.Limit, Offset: n.Offset}
}

func unitOfWork(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// first loads one row by primary key, mapping a miss to NOT_FOUND.
func first[T any](tx *gorm.DB, entity, id string) (*T, error) {
	var row T
	if err := tx.Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(entity, id)
		}
		return nil, err
	}
	return &row, nil
}

// isUniqueViolation matches the duplicate-key errors of sqlite, postgres and mysql.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// setIf records column=value when the API field was supplied.
func setIf[T any](cols map[string]any, column string, v *T) {
	if v != nil {
		cols[column] = *v
	}
}
