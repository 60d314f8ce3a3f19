package api

import (
	"net/http"
	"strconv"
)

// QueryParamInt extracts an integer query parameter with a default value
func QueryParamInt(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return i
}

// PathParamInt64 parses a path wildcard as a base-10 integer.
func PathParamInt64(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Pagination reads page and per_page. Values that are missing, malformed or
// below 1 fall back to defaults; per_page is capped at maxPerPage when it is
// positive.
func Pagination(r *http.Request, defaultPerPage, maxPerPage int) (page, perPage int) {
	page = QueryParamInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	perPage = QueryParamInt(r, "per_page", defaultPerPage)
	if perPage < 1 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 && perPage > maxPerPage {
		perPage = maxPerPage
	}
	return page, perPage
}
