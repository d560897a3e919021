package pagination

// PageSize is the number of rows shown per page in listings.
const PageSize = 5

type Page[T any] struct {
	Items      []T `json:"items"`
	Page       int `json:"page"`
	TotalPages int `json:"total_pages"`
	TotalItems int `json:"total_items"`
	// Offset is the index of Items[0] in the full listing.
	Offset int `json:"offset"`
}

func (p Page[T]) HasNext() bool { return p.Page < p.TotalPages }
func (p Page[T]) HasPrev() bool { return p.Page > 1 }

// Paginate returns the 1-based page of items. Out of range pages are clamped.
func Paginate[T any](items []T, page, size int) Page[T] {
	if size <= 0 {
		size = PageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		return Page[T]{Items: []T{}, Page: 1, TotalPages: 1}
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}

	start := (page - 1) * size
	end := min(start+size, total)
	return Page[T]{
		Items:      items[start:end],
		Page:       page,
		TotalPages: pages,
		TotalItems: total,
		Offset:     start,
	}
}
