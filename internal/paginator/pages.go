package paginator

// TotalPages returns the number of pages needed to show n items, size per
// page. An empty list still has one (empty) page.
func TotalPages(n, size int) int {
	if size < 1 {
		size = 1
	}
	if n <= 0 {
		return 1
	}
	return (n + size - 1) / size
}

// Clamp forces page into [1, total].
func Clamp(page, total int) int {
	if total < 1 {
		total = 1
	}
	switch {
	case page < 1:
		return 1
	case page > total:
		return total
	default:
		return page
	}
}

// Bounds returns the half-open index range [start, end) of page within a
// list of n items. Pages past the end yield an empty range.
func Bounds(page, n, size int) (start, end int) {
	if size < 1 {
		size = 1
	}
	start = (page - 1) * size
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end = start + size
	if end > n {
		end = n
	}
	return start, end
}
