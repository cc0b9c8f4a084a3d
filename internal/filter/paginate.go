package filter

// Paginate returns the 1-indexed page of items and the total page count.
// Out-of-range pages and non-positive page sizes yield an empty page.
func Paginate[T any](items []T, page, pageSize int) ([]T, int) {
	if pageSize <= 0 {
		return []T{}, 0
	}

	totalPages := (len(items) + pageSize - 1) / pageSize
	if page < 1 || page > totalPages {
		return []T{}, totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end], totalPages
}

// ClampPage keeps page inside [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}
