package models

// DefaultPageLimit is used by history-style endpoints when no limit is given.
const DefaultPageLimit = 20

// Pagination describes one page of a collection.
type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// NewPagination derives page count and navigation flags from the total.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if page <= 0 {
		page = 1
	}
	totalPages := 0
	if total > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
	}
}

// Consistent reports whether the flags agree with total and totalPages.
func (p Pagination) Consistent() bool {
	return p == NewPagination(p.Page, p.Limit, p.Total)
}

// Offset returns the number of records before this page.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page is a slice of a collection plus its pagination.
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}
