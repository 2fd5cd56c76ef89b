package internal

import (
	"net/http"
	"strconv"
	"strings"
)

// listParams holds the equipment list endpoint's query parameters.
type listParams struct {
	q            string
	category     string
	status       string
	commentCount *int
	page         int
	perPage      int
}

// parseListParams parses q, category, status, comment_count, page and
// per_page from the request. Defaults: page=1, per_page=20 (max 200).
// A non-integer comment_count is ignored.
func parseListParams(r *http.Request) listParams {
	values := r.URL.Query()

	params := listParams{
		q:        strings.TrimSpace(values.Get("q")),
		category: strings.TrimSpace(values.Get("category")),
		status:   strings.TrimSpace(values.Get("status")),
		page:     1,
		perPage:  20,
	}

	if s := strings.TrimSpace(values.Get("comment_count")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			params.commentCount = &v
		}
	}

	if s := strings.TrimSpace(values.Get("page")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			params.page = v
		}
	}

	if s := strings.TrimSpace(values.Get("per_page")); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			if v > 200 {
				v = 200
			}
			params.perPage = v
		}
	}

	return params
}

// totalPages returns ceil(total/perPage), or 1 when perPage is 0 to avoid
// division by zero.
func totalPages(total, perPage int) int {
	if perPage == 0 {
		return 1
	}
	return (total + perPage - 1) / perPage
}
