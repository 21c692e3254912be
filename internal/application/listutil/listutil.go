package listutil

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// PageParams carries pagination parameters parsed from a request.
type PageParams struct {
	Page    int // 1-indexed page number
	PerPage int // cards per page
}

// ListParams combines the catalog list parameters.
type ListParams struct {
	PageParams
	Search string // free-text query from ?q=
	Tag    string // exact tag filter from ?tag=, lowercased
}

// PageInfo carries pagination metadata for rendering.
type PageInfo struct {
	Page       int // current page (1-indexed)
	PerPage    int // cards per page
	Total      int // total matching lessons
	TotalPages int // ceil(Total / PerPage)

	params url.Values // query carried into page links
}

// DefaultPerPage is the default number of lesson cards per page.
const DefaultPerPage = 24

// PerPageOptions are the allowed per_page values.
var PerPageOptions = []int{12, 24, 48, 96}

// ParsePageParams extracts page and per_page from URL query values.
// PRE: none
// POST: returns valid PageParams with defaults applied
func ParsePageParams(q url.Values) PageParams {
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if !slices.Contains(PerPageOptions, perPage) {
		perPage = DefaultPerPage
	}
	return PageParams{Page: page, PerPage: perPage}
}

// ParseListParams parses page, search, and tag values from a catalog URL.
func ParseListParams(q url.Values) ListParams {
	return ListParams{
		PageParams: ParsePageParams(q),
		Search:     strings.TrimSpace(q.Get("q")),
		Tag:        strings.ToLower(strings.TrimSpace(q.Get("tag"))),
	}
}

// Query returns the non-default filters as URL values for page links.
func (lp ListParams) Query() url.Values {
	q := url.Values{}
	if lp.Search != "" {
		q.Set("q", lp.Search)
	}
	if lp.Tag != "" {
		q.Set("tag", lp.Tag)
	}
	if lp.PerPage != DefaultPerPage {
		q.Set("per_page", strconv.Itoa(lp.PerPage))
	}
	return q
}

// NewPageInfo computes pagination metadata.
// PRE: total >= 0
// POST: returns PageInfo with TotalPages computed; Page clamped to valid range
func NewPageInfo(page, perPage, total int) PageInfo {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	totalPages := max(1, (total+perPage-1)/perPage)
	return PageInfo{
		Page:       max(1, min(page, totalPages)),
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}
}

// WithParams returns a copy whose page links preserve q.
func (p PageInfo) WithParams(q url.Values) PageInfo {
	p.params = q
	return p
}

// Offset returns the index of the first item on the current page.
func (p PageInfo) Offset() int {
	return (p.Page - 1) * p.PerPage
}

// StartRow returns the 1-indexed first item number on the current page.
// POST: Returns 0 if Total is 0, otherwise Offset+1
func (p PageInfo) StartRow() int {
	if p.Total == 0 {
		return 0
	}
	return p.Offset() + 1
}

// EndRow returns the 1-indexed last item number on the current page.
func (p PageInfo) EndRow() int {
	return min(p.Offset()+p.PerPage, p.Total)
}

// PageNumbers returns at most 5 page numbers centered on the current page.
func (p PageInfo) PageNumbers() []int {
	const maxButtons = 5
	start := max(1, p.Page-maxButtons/2)
	end := start + maxButtons - 1
	if end > p.TotalPages {
		end = p.TotalPages
		start = max(1, end-maxButtons+1)
	}
	pages := make([]int, 0, end-start+1)
	for i := start; i <= end; i++ {
		pages = append(pages, i)
	}
	return pages
}

// ShowPagination reports whether there is more than one page.
func (p PageInfo) ShowPagination() bool {
	return p.Total > p.PerPage
}

// Href returns the relative link to page n with the carried query.
func (p PageInfo) Href(n int) string {
	q := url.Values{}
	for k, v := range p.params {
		q[k] = v
	}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if len(q) == 0 {
		return "?"
	}
	return "?" + q.Encode()
}

// Paginate returns the slice of items on the page described by p.
// POST: never panics on out-of-range pages; returns an empty slice instead
func Paginate[T any](items []T, p PageInfo) []T {
	start := min(p.Offset(), len(items))
	end := min(start+p.PerPage, len(items))
	return items[start:end]
}
