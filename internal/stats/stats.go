// Package stats derives counts and averages from lists the query services
// already returned. Nothing here talks to the store.
package stats

import (
	"fmt"
	"time"
)

const (
	// EmptyRating is shown when there is nothing to average.
	EmptyRating = "5.0"

	UnknownBucket = "Unknown"
)

// AverageRating formats the mean rating with one decimal, or EmptyRating
// for an empty list.
func AverageRating[T any](items []T, rating func(T) int) string {
	if len(items) == 0 {
		return EmptyRating
	}
	sum := 0
	for _, item := range items {
		sum += rating(item)
	}
	return fmt.Sprintf("%.1f", float64(sum)/float64(len(items)))
}

// CountByCategory groups items by the name their reference resolves to in
// names. Empty or dangling references count under UnknownBucket.
func CountByCategory[T any](items []T, ref func(T) string, names map[string]string) map[string]int {
	counts := make(map[string]int)
	for _, item := range items {
		name, ok := names[ref(item)]
		if !ok || name == "" {
			name = UnknownBucket
		}
		counts[name]++
	}
	return counts
}

// MonthlyCounts buckets items by creation month, January at index 0. Every
// month is present even when zero.
func MonthlyCounts[T any](items []T, created func(T) time.Time) [12]int {
	var counts [12]int
	for _, item := range items {
		t := created(item)
		if t.IsZero() {
			continue
		}
		counts[t.Month()-1]++
	}
	return counts
}

// InYear keeps the items created in year.
func InYear[T any](items []T, year int, created func(T) time.Time) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if created(item).Year() == year {
			out = append(out, item)
		}
	}
	return out
}
