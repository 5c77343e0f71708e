package pagination

import (
	"fmt"
	"net/url"
	"strings"
	"testing"

	"github.com/castlegateit/memberdir/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i+1)
	}
	return items
}

func params(page string) url.Values {
	v := url.Values{}
	if page != "" {
		v.Set(DefaultPageKey, page)
	}
	return v
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		perPage int
		want    int
	}{
		{"exact multiple", 20, 10, 2},
		{"remainder adds a page", 21, 10, 3},
		{"fewer items than a page", 3, 10, 1},
		{"empty set still has one page", 0, 10, 1},
		{"per page zero disables pagination", 50, 0, 1},
		{"per page negative disables pagination", 50, -5, 1},
		{"one item per page", 4, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(makeItems(tt.items), tt.perPage, Options{})
			assert.Equal(t, tt.want, p.LastPage())
			assert.Len(t, p.Pages(), tt.want)
		})
	}
}

func TestCurrentPageClamping(t *testing.T) {
	tests := []struct {
		name string
		page string
		want int
	}{
		{"valid page", "2", 2},
		{"missing parameter", "", 1},
		{"zero clamps to first", "0", 1},
		{"negative clamps to first", "-3", 1},
		{"too large clamps to last", "99", 3},
		{"garbage becomes first", "abc", 1},
		{"whitespace tolerated", " 2 ", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := New(makeItems(25), 10, Options{Params: params(tt.page)})
			assert.Equal(t, tt.want, p.Page())
		})
	}
}

func TestResults(t *testing.T) {
	items := makeItems(25)

	t.Run("full middle page", func(t *testing.T) {
		p := New(items, 10, Options{Params: params("2")})
		assert.Equal(t, items[10:20], p.Results())
		assert.Equal(t, 10, p.FirstVisibleIndex())
		assert.Equal(t, 19, p.LastVisibleIndex())
	})

	t.Run("short last page", func(t *testing.T) {
		p := New(items, 10, Options{Params: params("3")})
		assert.Equal(t, items[20:], p.Results())
		assert.Len(t, p.Results(), 5)
	})

	t.Run("pagination disabled returns everything", func(t *testing.T) {
		p := New(items, 0, Options{})
		assert.Equal(t, items, p.Results())
	})

	t.Run("empty set", func(t *testing.T) {
		p := New([]string{}, 10, Options{})
		assert.Empty(t, p.Results())
		assert.Equal(t, 0, p.Len())
	})

	t.Run("windows cover the sequence without overlap", func(t *testing.T) {
		var seen []string
		for page := 1; page <= 3; page++ {
			p := New(items, 10, Options{Params: params(fmt.Sprint(page))})
			seen = append(seen, p.Results()...)
		}
		assert.Equal(t, items, seen)
	})
}

func TestPageURL(t *testing.T) {
	base, err := url.Parse("https://example.com/members?search=smith&page_number=2")
	require.NoError(t, err)

	p := New(makeItems(25), 10, Options{Params: base.Query(), BaseURL: base})

	t.Run("page one drops the page parameter", func(t *testing.T) {
		assert.Equal(t, "https://example.com/members?search=smith", p.PageURL(1))
	})

	t.Run("other pages carry the parameter", func(t *testing.T) {
		assert.Equal(t, "https://example.com/members?page_number=3&search=smith", p.PageURL(3))
	})

	t.Run("other query parameters survive", func(t *testing.T) {
		assert.Contains(t, p.PageURL(2), "search=smith")
	})

	t.Run("out of range numbers clamp", func(t *testing.T) {
		assert.Equal(t, p.PageURL(3), p.PageURL(99))
		assert.Equal(t, p.PageURL(1), p.PageURL(-1))
	})

	t.Run("nil base URL yields bare query string", func(t *testing.T) {
		bare := New(makeItems(25), 10, Options{})
		assert.Equal(t, "?page_number=2", bare.PageURL(2))
	})
}

func TestURLs(t *testing.T) {
	t.Run("one entry per page", func(t *testing.T) {
		p := New(makeItems(25), 10, Options{})
		urls := p.URLs()
		require.Len(t, urls, 3)
		assert.Contains(t, urls[2], "page_number=2")
	})

	t.Run("empty when single page", func(t *testing.T) {
		p := New(makeItems(5), 10, Options{})
		assert.Empty(t, p.URLs())
	})

	t.Run("empty when no items", func(t *testing.T) {
		p := New([]string{}, 10, Options{})
		assert.Empty(t, p.URLs())
	})

	t.Run("urls hook applies", func(t *testing.T) {
		h := &hooks.Pagination{}
		h.URLs.Register(func(urls map[int]string) map[int]string {
			for k, v := range urls {
				urls[k] = v + "#directory"
			}
			return urls
		})

		p := New(makeItems(25), 10, Options{Hooks: h})
		assert.True(t, strings.HasSuffix(p.URLs()[2], "#directory"))
	})
}

func TestLinks(t *testing.T) {
	t.Run("empty when nothing to navigate", func(t *testing.T) {
		assert.Empty(t, New(makeItems(5), 10, Options{}).Links())
		assert.Empty(t, New([]string{}, 10, Options{}).Links())
	})

	t.Run("first page has no previous link", func(t *testing.T) {
		links := New(makeItems(25), 10, Options{}).Links()
		assert.NotContains(t, links, "prev")
		assert.Contains(t, links, "next")
		assert.Contains(t, links, `<span class="page-numbers current">1</span>`)
	})

	t.Run("last page has no next link", func(t *testing.T) {
		links := New(makeItems(25), 10, Options{Params: params("3")}).Links()
		assert.Contains(t, links, "prev")
		assert.NotContains(t, links, "next")
		assert.Contains(t, links, `<span class="page-numbers current">3</span>`)
	})

	t.Run("middle page links to neighbours", func(t *testing.T) {
		links := New(makeItems(30), 10, Options{Params: params("2")}).Links()

		lines := strings.Split(links, "\n")
		require.Len(t, lines, 5)
		assert.Contains(t, lines[0], "prev")
		assert.NotContains(t, lines[0], "page_number=3")
		assert.Contains(t, lines[4], "next")
		assert.Contains(t, lines[4], "page_number=3")
	})

	t.Run("links hook rewrites elements", func(t *testing.T) {
		h := &hooks.Pagination{}
		h.Links.Register(func(links []string) []string {
			return append([]string{"<nav>"}, links...)
		})

		links := New(makeItems(25), 10, Options{Hooks: h}).Links()
		assert.True(t, strings.HasPrefix(links, "<nav>"))
	})
}

func TestHookOverrides(t *testing.T) {
	t.Run("page key hook changes the parameter", func(t *testing.T) {
		h := &hooks.Pagination{}
		h.PageKey.Register(func(string) string { return "p" })

		v := url.Values{}
		v.Set("p", "2")

		p := New(makeItems(25), 10, Options{Params: v, Hooks: h})
		assert.Equal(t, 2, p.Page())
		assert.Contains(t, p.PageURL(2), "p=2")
	})

	t.Run("per page hook changes the page size", func(t *testing.T) {
		h := &hooks.Pagination{}
		h.PerPage.Register(func(int) int { return 5 })

		p := New(makeItems(25), 10, Options{Hooks: h})
		assert.Equal(t, 5, p.LastPage())
	})
}
