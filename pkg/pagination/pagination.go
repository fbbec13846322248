// Package pagination slices record lists into pages with the metadata the
// API exposes alongside them.
package pagination

import (
	"errors"
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

var (
	// ErrInvalidLimit is returned for a page size outside [1, MaxLimit]; a
	// zero limit would make the page-count computation divide by zero.
	ErrInvalidLimit = errors.New("limit must be between 1 and 100")
	// ErrInvalidPage is returned for a page that is not a non-negative integer.
	ErrInvalidPage = errors.New("page must be a non-negative integer")
)

// Params selects a page. Page is zero-indexed.
type Params struct {
	Page  int
	Limit int
}

// Meta describes the position of a page within the full result set.
type Meta struct {
	TotalItems   int  `json:"totalItems"`
	ItemsPerPage int  `json:"itemsPerPage"`
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// Result is one page of items plus its metadata.
type Result[T any] struct {
	Items []T  `json:"items"`
	Meta  Meta `json:"meta"`
}

// ParseQuery reads the page and limit query parameters, applying the
// defaults for absent values and rejecting anything out of bounds. An
// explicit limit of zero is rejected, not defaulted.
func ParseQuery(q url.Values) (Params, error) {
	p := Params{Page: 0, Limit: DefaultLimit}

	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 0 {
			return Params{}, ErrInvalidPage
		}
		p.Page = page
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > MaxLimit {
			return Params{}, ErrInvalidLimit
		}
		p.Limit = limit
	}
	return p, nil
}

// Paginate returns the slice [page*limit, page*limit+limit) of items together
// with the page metadata. A page past the end yields an empty item list with
// the metadata still computed; a limit of zero is rejected.
func Paginate[T any](items []T, p Params) (Result[T], error) {
	if p.Limit <= 0 {
		return Result[T]{}, ErrInvalidLimit
	}
	if p.Page < 0 {
		p.Page = 0
	}

	total := len(items)
	totalPages := (total + p.Limit - 1) / p.Limit
	if totalPages < 1 {
		totalPages = 1
	}

	start := p.Page * p.Limit
	end := start + p.Limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	page := make([]T, end-start)
	copy(page, items[start:end])

	return Result[T]{
		Items: page,
		Meta: Meta{
			TotalItems:   total,
			ItemsPerPage: p.Limit,
			CurrentPage:  p.Page,
			TotalPages:   totalPages,
			HasNextPage:  p.Page < totalPages-1,
			HasPrevPage:  p.Page > 0,
		},
	}, nil
}
