// Package listing holds the read-path rules shared by the query services.
//
// Collections are assumed to stay small (hundreds of documents). Lists are
// fetched with at most one equality filter and sorted, limited and searched
// in memory, so no read depends on a composite index existing. That keeps
// every read valid on any backend, at the cost of reading the whole filtered
// set on each call. Past a few thousand documents per collection this layer
// needs server-side ordering and pagination.
package listing

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"elearning-backend/internal/store"
)

// CreatedAtField is the stored creation timestamp every collection carries.
const CreatedAtField = "createdAt"

// SortNewestFirst orders items by creation time, newest first. Equal times
// keep their fetched order.
func SortNewestFirst[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}

// Limit truncates items to n entries when n is positive.
func Limit[T any](items []T, n int) []T {
	if n > 0 && len(items) > n {
		return items[:n]
	}
	return items
}

func Filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// Matches reports a case-insensitive substring hit of term in any field.
// An empty term matches everything.
func Matches(term string, fields ...string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), term) {
			return true
		}
	}
	return false
}

// Search keeps the items whose text fields contain term, preserving order.
func Search[T any](items []T, term string, fields func(T) []string) []T {
	return Filter(items, func(item T) bool {
		return Matches(term, fields(item)...)
	})
}

// Fetch runs a query with at most one equality filter and no server order.
func Fetch(ctx context.Context, st store.Store, collection string, filter *store.Filter) ([]store.Doc, error) {
	if filter == nil {
		return st.All(ctx, collection)
	}
	return st.Query(ctx, collection, store.Query{Filters: []store.Filter{*filter}})
}

// FetchBoth reads the documents matching both primary and secondary.
//
// It first tries the compound query ordered by creation time. If the store
// rejects it (usually a missing composite index) it reads by primary alone
// and applies secondary in memory. If that fails too the result is an empty
// list and a nil error: callers of these reads cannot tell "nothing matched"
// from "the store failed". The failure is logged.
func FetchBoth(ctx context.Context, st store.Store, log *slog.Logger, collection string, primary, secondary store.Filter) []store.Doc {
	docs, err := st.Query(ctx, collection, store.Query{
		Filters: []store.Filter{primary, secondary},
		OrderBy: CreatedAtField,
		Desc:    true,
	})
	if err == nil {
		return docs
	}
	log.Warn(collection+" compound query: falling back",
		slog.String("primary", primary.Field),
		slog.String("secondary", secondary.Field),
		slog.String("error", err.Error()),
	)

	docs, err = st.Query(ctx, collection, store.Query{Filters: []store.Filter{primary}})
	if err != nil {
		log.Warn(collection+" fallback query: returning empty", slog.String("error", err.Error()))
		return []store.Doc{}
	}
	return Filter(docs, func(d store.Doc) bool {
		return store.Match(d, secondary)
	})
}

// Page returns the window [offset, offset+limit) of items.
func Page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	return Limit(items, limit)
}
