package core

// DefaultPageSize is the grid's page size.
const DefaultPageSize = 10

// PageInfo describes one page of a row list. Page is 1-based.
type PageInfo struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalRows  int `json:"totalRows"`
	TotalPages int `json:"totalPages"`
}

// HasPrev reports whether a previous page exists.
func (p PageInfo) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p PageInfo) HasNext() bool { return p.Page < p.TotalPages }

// Paginate returns the rows of the requested page. Pages below 1 map to the
// first page and pages past the end to the last; a non-positive size uses
// DefaultPageSize. An empty list has one empty page.
func Paginate(rows []Row, page, size int) ([]Row, PageInfo) {
	if size <= 0 {
		size = DefaultPageSize
	}
	total := len(rows)
	pages := max(1, (total+size-1)/size)
	page = min(max(page, 1), pages)

	start := min((page-1)*size, total)
	end := min(start+size, total)

	return rows[start:end], PageInfo{
		Page:       page,
		PageSize:   size,
		TotalRows:  total,
		TotalPages: pages,
	}
}
