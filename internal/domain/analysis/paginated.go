package analysis

// Filter narrows a listing. Zero fields match everything.
type Filter struct {
	Status   Status
	Language string
}

// PaginatedResult represents a paginated response with data and metadata
type PaginatedResult struct {
	Data       []*Analysis `json:"data"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	Total      int64       `json:"totalItems"`
	TotalPages int         `json:"totalPages"`
}

// NewPaginatedResult fills in TotalPages and never leaves Data nil.
func NewPaginatedResult(data []*Analysis, page, pageSize int, total int64) PaginatedResult {
	if data == nil {
		data = []*Analysis{}
	}
	pages := 0
	if pageSize > 0 {
		pages = int((total + int64(pageSize) - 1) / int64(pageSize))
	}
	return PaginatedResult{Data: data, Page: page, PageSize: pageSize, Total: total, TotalPages: pages}
}

// NormalizePage applies the listing defaults: page 1, 20 per page.
func NormalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return page, pageSize
}
