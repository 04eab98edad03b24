package mysql

const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
	// MaxPage keeps Offset far from overflow.
	MaxPage         = 1_000_000
)

type PageRequest struct {
	Page     int
	PageSize int
}

type PageResult[T any] struct {
	Items    []T
	Page     int
	PageSize int
	Total    int64
}

func NormalizePageRequest(in PageRequest) PageRequest {
	page := in.Page
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		page = MaxPage
	}
	pageSize := in.PageSize
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return PageRequest{Page: page, PageSize: pageSize}
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}
