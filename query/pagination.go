package query

// DefaultPageSize is used when a non-positive page size is requested.
const DefaultPageSize = 10

// Paginator slices result lists into fixed-size pages. Pages are numbered
// from zero.
type Paginator[T any] struct {
	pageSize int
}

// NewPaginator creates a paginator.
func NewPaginator[T any](pageSize int) Paginator[T] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Paginator[T]{pageSize: pageSize}
}

// PageSize returns the number of items per page.
func (p Paginator[T]) PageSize() int {
	if p.pageSize <= 0 {
		return DefaultPageSize
	}
	return p.pageSize
}

// Paginate returns page number page of items, or an empty slice when the
// page is out of range.
func (p Paginator[T]) Paginate(items []T, page int) []T {
	size := p.PageSize()
	start := page * size
	if page < 0 || start >= len(items) {
		return []T{}
	}
	end := min(start+size, len(items))
	return items[start:end]
}

// TotalPages returns the number of pages needed for n items.
func (p Paginator[T]) TotalPages(n int) int {
	if n <= 0 {
		return 0
	}
	size := p.PageSize()
	return (n + size - 1) / size
}
