package catalog

import (
	"strconv"
	"strings"
)

const DefaultPageSize = 12

// PageMeta describes one page window over a (possibly filtered) product
// list. Every field is derived; nothing here is ever stored.
type PageMeta struct {
	Page       int  `json:"page"`
	PageSize   int  `json:"page_size"`
	TotalItems int  `json:"total_items"`
	TotalPages int  `json:"total_pages"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// ParsePage coerces a raw page query parameter. Anything non-numeric or
// non-positive clamps to 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Paginate computes the page window for totalItems items. The requested
// page clamps into [1, totalPages]; an empty set still advertises one
// page so callers never render a zero-page result.
func Paginate(totalItems, page, size int) PageMeta {
	if size < 1 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}

	totalPages := (totalItems + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}

	return PageMeta{
		Page:       page,
		PageSize:   size,
		TotalItems: totalItems,
		TotalPages: totalPages,
		HasPrev:    page > 1,
		HasNext:    page < totalPages,
	}
}

// Bounds returns the half-open slice window [start, end) for this page.
func (m PageMeta) Bounds() (start, end int) {
	start = (m.Page - 1) * m.PageSize
	if start > m.TotalItems {
		start = m.TotalItems
	}
	end = start + m.PageSize
	if end > m.TotalItems {
		end = m.TotalItems
	}
	return start, end
}

// Filter keeps products whose description or code contains the query,
// case-insensitively. An empty query keeps everything. Filtering runs
// before pagination so page counts reflect the filtered set.
func Filter(products []Product, query string) []Product {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return products
	}

	out := make([]Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.Description), q) ||
			strings.Contains(strings.ToLower(p.Code), q) {
			out = append(out, p)
		}
	}
	return out
}
