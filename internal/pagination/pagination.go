// Package pagination derives page counts and control availability from a
// total item count and a page size. All functions are pure.
package pagination

// Meta describes one page position within a paginated collection.
type Meta struct {
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// TotalPages returns ceil(totalCount / pageSize), never less than 1. A count
// of zero still yields one page so "page 1 of 1" is always representable.
func TotalPages(totalCount int64, pageSize int) int {
	if pageSize < 1 {
		return 1
	}
	pages := int((totalCount + int64(pageSize) - 1) / int64(pageSize))
	if pages < 1 {
		return 1
	}
	return pages
}

func HasPrevious(page int) bool {
	return page > 1
}

func HasNext(page, totalPages int) bool {
	return page < totalPages
}

// Normalize maps an invalid or missing page number to 1.
func Normalize(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// NewMeta builds the full position descriptor for a normalized page.
func NewMeta(page, pageSize int, totalCount int64) Meta {
	return Meta{
		CurrentPage: Normalize(page),
		PageSize:    pageSize,
		TotalItems:  totalCount,
		TotalPages:  TotalPages(totalCount, pageSize),
	}
}
