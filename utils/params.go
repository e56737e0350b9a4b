package utils

import (
	"net/http"
	_ "net/http/pprof"
	"strconv"
)

type QueryOptions struct {
	Page     int
	Limit    int
	Active   *bool
	Search   string
	Category string
}

func ParseQueryOptions(r *http.Request) QueryOptions {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	var active *bool
	if actStr := q.Get("active"); actStr != "" {
		val := actStr == "true"
		active = &val
	}

	return QueryOptions{
		Page:     page,
		Limit:    limit,
		Active:   active,
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
}
