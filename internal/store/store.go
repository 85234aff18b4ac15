package store

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrIndexRequired = errors.New("query requires a composite index")
)

// Error wraps any failure coming from a backing collection store.
type Error struct {
	Op         string
	Collection string
	Err        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrap(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Collection: collection, Err: err}
}

// Doc is a raw stored record. ID always comes from the document handle.
type Doc struct {
	ID   string
	Data map[string]any
}

type Filter struct {
	Field string
	Value any
}

func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type Query struct {
	Filters []Filter
	OrderBy string
	Desc    bool
	Limit   int
}

// Compound reports whether the query needs a composite index on backends
// that only index single fields.
func (q Query) Compound() bool {
	if len(q.Filters) > 1 {
		return true
	}
	return len(q.Filters) == 1 && q.OrderBy != ""
}

// Store is the remote collection store the query services sit on.
//
// Subscribe delivers a full snapshot of the collection once on start and
// again after every change. The returned func stops delivery; callers must
// call it when they lose interest.
type Store interface {
	All(ctx context.Context, collection string) ([]Doc, error)
	Get(ctx context.Context, collection, id string) (Doc, error)
	Query(ctx context.Context, collection string, q Query) ([]Doc, error)
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Update(ctx context.Context, collection, id string, set map[string]any) error
	Increment(ctx context.Context, collection, id, field string, delta int64) error
	Delete(ctx context.Context, collection, id string) error
	Subscribe(ctx context.Context, collection string, fn func([]Doc)) (func(), error)
}

// Match reports whether doc satisfies an equality filter.
func Match(doc Doc, f Filter) bool {
	v, ok := doc.Data[f.Field]
	if !ok {
		return f.Value == nil
	}
	return equal(v, f.Value)
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			return fa == fb
		}
		return false
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Equal(tb)
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
