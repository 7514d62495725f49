package site

import (
	"strconv"

	"github.com/starford/ghmd/internal/models"
)

// Page is one slice of a paginated listing.
type Page struct {
	Items  []models.Listable
	Number int
	Total  int
}

// Paginate splits items into pages of size. A size of 0 puts everything on
// one page. There is always at least one page, possibly empty.
func Paginate(items []models.Listable, size int) []Page {
	if size <= 0 || size > len(items) {
		size = len(items)
	}
	total := 1
	if size > 0 {
		total = (len(items) + size - 1) / size
	}

	pages := make([]Page, 0, total)
	for n := 1; n <= total; n++ {
		start := (n - 1) * size
		end := min(start+size, len(items))
		pages = append(pages, Page{Items: items[start:end], Number: n, Total: total})
	}
	return pages
}

// PageFile is the file name of listing page n: index.html, index2.html, ...
func PageFile(n int) string {
	if n <= 1 {
		return "index.html"
	}
	return "index" + strconv.Itoa(n) + ".html"
}
