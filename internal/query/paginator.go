package query

// Paginator carries the pagination state surfaced to views: derived once per
// request, immutable after construction.
type Paginator struct {
	PageSize      int
	CurrentPage   int
	TotalCount    int
	SortField     string
	SortDirection string
}

// DefaultPageSize applies when neither an option nor a parameter sets one.
const DefaultPageSize = 20

func NewPaginator(total, pageSize, page int) Paginator {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if page < 1 {
		page = 1
	}
	return Paginator{PageSize: pageSize, CurrentPage: page, TotalCount: total}
}

func (p Paginator) Offset() int {
	return (p.CurrentPage - 1) * p.PageSize
}

func (p Paginator) PageCount() int {
	if p.TotalCount == 0 {
		return 1
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p Paginator) HasNext() bool { return p.CurrentPage < p.PageCount() }
func (p Paginator) HasPrev() bool { return p.CurrentPage > 1 }
