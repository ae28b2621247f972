package models

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// DefaultPerPage matches the server's default page size
const DefaultPerPage = 10

// Page is one server page of a collection. Total and Pages are authoritative
// and must never be recomputed from Items.
type Page[T any] struct {
	Items   []T `json:"items"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// ListQuery selects one page of a collection under a filter
type ListQuery struct {
	Page    int
	PerPage int
	Filters map[string]string
}

// Normalized returns a copy with page >= 1 and perPage > 0
func (q ListQuery) Normalized() ListQuery {
	out := ListQuery{Page: q.Page, PerPage: q.PerPage}
	if out.Page < 1 {
		out.Page = 1
	}
	if out.PerPage <= 0 {
		out.PerPage = DefaultPerPage
	}
	if len(q.Filters) > 0 {
		out.Filters = make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			if v != "" {
				out.Filters[k] = v
			}
		}
	}
	return out
}

// Values encodes the query as URL parameters
func (q ListQuery) Values() url.Values {
	n := q.Normalized()
	v := url.Values{}
	v.Set("page", strconv.Itoa(n.Page))
	v.Set("per_page", strconv.Itoa(n.PerPage))
	for k, val := range n.Filters {
		v.Set(k, val)
	}
	return v
}

// FilterKey identifies the filter portion of the query, ignoring pagination
func (q ListQuery) FilterKey() string {
	n := q.Normalized()
	keys := make([]string, 0, len(n.Filters))
	for k := range n.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+n.Filters[k])
	}
	return strings.Join(parts, "&")
}

// Result is the outcome of one fetch: a value, an error, or pending when
// nothing has been loaded yet
type Result[T any] struct {
	Value   T
	Err     error
	Pending bool
}

// Ok wraps a successful value
func Ok[T any](v T) Result[T] {
	return Result[T]{Value: v}
}

// Failed wraps an error
func Failed[T any](err error) Result[T] {
	return Result[T]{Err: err}
}

// Pending marks a result that has not been loaded yet
func Pending[T any]() Result[T] {
	return Result[T]{Pending: true}
}

// OK reports whether the result holds a value
func (r Result[T]) OK() bool {
	return r.Err == nil && !r.Pending
}
