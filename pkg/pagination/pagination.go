// Package pagination slices an ordered result set into pages and generates
// navigation URLs and links. Page numbers come from a request parameter and
// are clamped, never rejected: garbage input lands on the nearest valid page.
package pagination

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/castlegateit/memberdir/pkg/hooks"
)

// DefaultPageKey is the request parameter carrying the page number.
const DefaultPageKey = "page_number"

// Options configures a paginator.
type Options struct {
	// PageKey overrides the page-number parameter name.
	PageKey string

	// Params holds the request parameters the page number is read from.
	Params url.Values

	// BaseURL is the current request URL used for page link generation.
	// Nil produces bare query-string URLs.
	BaseURL *url.URL

	// Hooks customize the page key, page size, URLs, and rendered links.
	Hooks *hooks.Pagination
}

// Paginator holds one paginated result set.
type Paginator[T any] struct {
	items   []T
	perPage int

	pageKey string
	baseURL *url.URL
	hooks   *hooks.Pagination

	firstPage   int
	lastPage    int
	currentPage int

	firstVisibleIndex int
	lastVisibleIndex  int
}

// New builds a paginator over items. A perPage of zero or less disables
// pagination: one page holding everything. The requested page number is read
// from opts.Params and clamped into the valid range.
func New[T any](items []T, perPage int, opts Options) *Paginator[T] {
	h := opts.Hooks
	if h == nil {
		h = &hooks.Pagination{}
	}

	pageKey := opts.PageKey
	if pageKey == "" {
		pageKey = DefaultPageKey
	}
	pageKey = h.PageKey.Apply(pageKey)
	perPage = h.PerPage.Apply(perPage)

	p := &Paginator[T]{
		items:     items,
		perPage:   perPage,
		pageKey:   pageKey,
		baseURL:   opts.BaseURL,
		hooks:     h,
		firstPage: 1,
		lastPage:  1,
	}

	if perPage > 0 {
		p.lastPage = (len(items) + perPage - 1) / perPage
		if p.lastPage < 1 {
			p.lastPage = 1
		}
	}

	p.currentPage = p.clamp(requestedPage(opts.Params, pageKey))
	p.generateIndexes()

	return p
}

// requestedPage reads the page parameter; anything non-numeric becomes 1.
func requestedPage(params url.Values, key string) int {
	if params == nil {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(params.Get(key)))
	if err != nil {
		return 1
	}
	return n
}

// clamp forces a page number into [firstPage, lastPage].
func (p *Paginator[T]) clamp(n int) int {
	if n < p.firstPage {
		return p.firstPage
	}
	if n > p.lastPage {
		return p.lastPage
	}
	return n
}

// generateIndexes computes the visible window for the current page.
func (p *Paginator[T]) generateIndexes() {
	if p.perPage <= 0 {
		p.firstVisibleIndex = 0
		p.lastVisibleIndex = len(p.items) - 1
		if p.lastVisibleIndex < 0 {
			p.lastVisibleIndex = 0
		}
		return
	}

	p.firstVisibleIndex = (p.currentPage - 1) * p.perPage
	p.lastVisibleIndex = p.firstVisibleIndex + p.perPage - 1
	if max := len(p.items) - 1; p.lastVisibleIndex > max {
		p.lastVisibleIndex = max
		if p.lastVisibleIndex < 0 {
			p.lastVisibleIndex = 0
		}
	}
}

// Pages returns every page number from first to last.
func (p *Paginator[T]) Pages() []int {
	pages := make([]int, 0, p.lastPage)
	for n := p.firstPage; n <= p.lastPage; n++ {
		pages = append(pages, n)
	}
	return pages
}

// Page returns the current page number.
func (p *Paginator[T]) Page() int {
	return p.currentPage
}

// LastPage returns the last page number.
func (p *Paginator[T]) LastPage() int {
	return p.lastPage
}

// PageURL returns the current request URL pointing at the given page. The
// number is clamped into range; page one gets a canonical URL with the page
// parameter removed entirely.
func (p *Paginator[T]) PageURL(number int) string {
	number = p.clamp(number)

	u := url.URL{}
	if p.baseURL != nil {
		u = *p.baseURL
	}

	query := u.Query()
	if number == p.firstPage {
		query.Del(p.pageKey)
	} else {
		query.Set(p.pageKey, strconv.Itoa(number))
	}
	u.RawQuery = query.Encode()

	return u.String()
}

// URLs returns a page-number-to-URL map. Empty when there are no items or
// only one page.
func (p *Paginator[T]) URLs() map[int]string {
	urls := make(map[int]string)

	if len(p.items) == 0 || p.firstPage == p.lastPage {
		return p.hooks.URLs.Apply(urls)
	}

	for _, page := range p.Pages() {
		urls[page] = p.PageURL(page)
	}

	return p.hooks.URLs.Apply(urls)
}

// Links renders the navigation markup: a previous link when not on the
// first page, an anchor for every other page, a non-link marker for the
// current page, and a next link when not on the last page. The element list
// passes through the links hook before assembly. Empty when there is
// nothing to navigate.
func (p *Paginator[T]) Links() string {
	urls := p.URLs()
	if len(urls) == 0 {
		return ""
	}

	var links []string

	if p.currentPage != p.firstPage {
		links = append(links, fmt.Sprintf(
			`<a href="%s" class="page-numbers prev">&lt;</a>`,
			p.PageURL(p.currentPage-1)))
	}

	for _, page := range p.Pages() {
		if page == p.currentPage {
			links = append(links, fmt.Sprintf(
				`<span class="page-numbers current">%d</span>`, page))
			continue
		}
		links = append(links, fmt.Sprintf(
			`<a href="%s" class="page-numbers">%d</a>`, p.PageURL(page), page))
	}

	if p.currentPage != p.lastPage {
		links = append(links, fmt.Sprintf(
			`<a href="%s" class="page-numbers next">&gt;</a>`,
			p.PageURL(p.currentPage+1)))
	}

	links = p.hooks.Links.Apply(links)

	return strings.Join(links, "\n")
}

// Results returns the slice of items visible on the current page. Always a
// contiguous, order-preserving window of the full item sequence.
func (p *Paginator[T]) Results() []T {
	if len(p.items) == 0 {
		return []T{}
	}
	return p.items[p.firstVisibleIndex : p.lastVisibleIndex+1]
}

// FirstVisibleIndex returns the zero-based index of the first item on the
// current page.
func (p *Paginator[T]) FirstVisibleIndex() int {
	return p.firstVisibleIndex
}

// LastVisibleIndex returns the zero-based index of the last item on the
// current page.
func (p *Paginator[T]) LastVisibleIndex() int {
	return p.lastVisibleIndex
}

// Len returns the total number of items across all pages.
func (p *Paginator[T]) Len() int {
	return len(p.items)
}
