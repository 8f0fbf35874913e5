package repository

import (
	"net/url"
	"sort"
	"strings"
)

// Pagination bounds shared by every list endpoint.
const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// ListPolicy declares which query-string parameters an endpoint accepts and
// how they translate into SQL.  Parameters outside the allow-lists are
// silently ignored, which keeps arbitrary filter injection out of the WHERE
// clause.  Exact and Like map parameter names to column expressions; Sort
// maps accepted sortBy values to column expressions.
type ListPolicy struct {
	Exact       map[string]string
	Like        map[string]string
	Sort        map[string]string
	DefaultSort string // full ORDER BY expression, e.g. "r.created_at DESC"
}

// ListQuery is the compiled form of a ListPolicy applied to a request.
type ListQuery struct {
	Where  []string
	Args   []any
	Order  string
	Page   int
	Limit  int
	Offset int
}

// Cond joins the WHERE fragments, defaulting to a tautology so the query
// text stays valid with no filters.
func (q ListQuery) Cond() string {
	if len(q.Where) == 0 {
		return "1=1"
	}
	return strings.Join(q.Where, " AND ")
}

// Pages computes the page count for a total row count.
func (q ListQuery) Pages(total int64) int64 {
	if q.Limit <= 0 {
		return 0
	}
	return (total + int64(q.Limit) - 1) / int64(q.Limit)
}

// Build compiles raw query parameters into a ListQuery.  Exact-match fields
// become equality clauses (only when present and non-empty), Like fields
// become case-insensitive substring clauses, sortBy values outside the
// allow-list fall back to the default sort, and the page window defaults to
// page 1 / limit 10 with the limit clamped to MaxLimit.
func (p ListPolicy) Build(values url.Values) ListQuery {
	q := ListQuery{Order: p.DefaultSort}

	// Iterate in sorted parameter order so the generated SQL is stable.
	for _, param := range sortedKeys(p.Exact) {
		if v := strings.TrimSpace(values.Get(param)); v != "" {
			q.Where = append(q.Where, p.Exact[param]+" = ?")
			q.Args = append(q.Args, coerceBool(v))
		}
	}
	for _, param := range sortedKeys(p.Like) {
		if v := strings.TrimSpace(values.Get(param)); v != "" {
			q.Where = append(q.Where, "LOWER("+p.Like[param]+") LIKE ?")
			q.Args = append(q.Args, "%"+strings.ToLower(v)+"%")
		}
	}

	if sortBy := values.Get("sortBy"); sortBy != "" {
		if col, ok := p.Sort[sortBy]; ok {
			dir := "ASC"
			if strings.EqualFold(values.Get("order"), "desc") {
				dir = "DESC"
			}
			q.Order = col + " " + dir
		}
	}

	q.Page = atoi(values.Get("page"))
	if q.Page < 1 {
		q.Page = DefaultPage
	}
	q.Limit = atoi(values.Get("limit"))
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	q.Offset = (q.Page - 1) * q.Limit
	return q
}

// coerceBool maps textual booleans to the TINYINT form MySQL stores; every
// other value passes through untouched.
func coerceBool(v string) any {
	switch strings.ToLower(v) {
	case "true":
		return 1
	case "false":
		return 0
	}
	return v
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return -1
		}
		n = n*10 + int(r-'0')
		if n > 1<<30 {
			return -1
		}
	}
	if s == "" {
		return -1
	}
	return n
}
