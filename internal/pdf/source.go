package pdf

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pagelift/pagelift/internal/domain"
)

// BuildItems assembles the ordered work list for a batch: embedded
// images first, then page renders, with sequence indexes assigned in
// that order.
func BuildItems(embedded, pages []string) []domain.WorkItem {
	items := make([]domain.WorkItem, 0, len(embedded)+len(pages))
	for _, path := range embedded {
		items = append(items, domain.WorkItem{
			Index: len(items),
			Name:  filepath.Base(path),
			Path:  path,
		})
	}
	for _, path := range pages {
		items = append(items, domain.WorkItem{
			Index: len(items),
			Name:  filepath.Base(path),
			Path:  path,
		})
	}
	return items
}

// ItemsFromImages builds the work list for a batch of standalone image
// files, sorted naturally so img2 precedes img10.
func ItemsFromImages(paths []string) []domain.WorkItem {
	sorted := make([]string, len(paths))
	copy(sorted, paths)
	SortNatural(sorted)

	items := make([]domain.WorkItem, len(sorted))
	for i, path := range sorted {
		items[i] = domain.WorkItem{Index: i, Name: filepath.Base(path), Path: path}
	}
	return items
}

// SortNatural sorts paths with digit runs compared numerically, so
// "img2.png" sorts before "img10.png".
func SortNatural(paths []string) {
	sort.Slice(paths, func(i, j int) bool {
		return naturalLess(filepath.Base(paths[i]), filepath.Base(paths[j]))
	})
}

func naturalLess(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := takeNumber(a)
			nb, rb := takeNumber(b)
			if na != nb {
				return numberLess(na, nb)
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// takeNumber splits the leading digit run off s, stripped of leading
// zeros so the runs compare by value.
func takeNumber(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	num := strings.TrimLeft(s[:i], "0")
	return num, s[i:]
}

func numberLess(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}
