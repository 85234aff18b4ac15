package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Store. It backs local development and tests.
// With strict indexes enabled it rejects compound queries that have no
// declared index, the way Firestore does.
type Memory struct {
	mu      sync.RWMutex
	cols    map[string]map[string]map[string]any
	order   map[string][]string
	strict  bool
	indexes map[string]struct{}
	writes  int
	subs    map[string]map[int]func([]Doc)
	nextSub int
	failing map[string]error
}

type MemoryOption func(*Memory)

// WithStrictIndexes makes compound queries fail with ErrIndexRequired unless
// an index was declared for the exact field set.
func WithStrictIndexes() MemoryOption {
	return func(m *Memory) {
		m.strict = true
	}
}

func NewMemory(opts ...MemoryOption) *Memory {
	m := &Memory{
		cols:    make(map[string]map[string]map[string]any),
		order:   make(map[string][]string),
		indexes: make(map[string]struct{}),
		subs:    make(map[string]map[int]func([]Doc)),
		failing: make(map[string]error),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// DeclareIndex registers a composite index over the given fields, including
// the order field if any.
func (m *Memory) DeclareIndex(collection string, fields ...string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexes[indexKey(collection, fields)] = struct{}{}
}

// FailOn makes every operation named op ("query", "add", ...) on collection
// return err. Pass a nil err to clear it.
func (m *Memory) FailOn(op, collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := op + ":" + collection
	if err == nil {
		delete(m.failing, key)
		return
	}
	m.failing[key] = err
}

// Writes counts successful mutating calls.
func (m *Memory) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

// Put inserts or replaces a document with a caller chosen id without
// counting as a write or notifying subscribers.
func (m *Memory) Put(collection, id string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, data)
}

func (m *Memory) put(collection, id string, data map[string]any) {
	col, ok := m.cols[collection]
	if !ok {
		col = make(map[string]map[string]any)
		m.cols[collection] = col
	}
	if _, exists := col[id]; !exists {
		m.order[collection] = append(m.order[collection], id)
	}
	col[id] = copyData(data)
}

func (m *Memory) failure(op, collection string) error {
	if err, ok := m.failing[op+":"+collection]; ok {
		return wrap(op, collection, err)
	}
	return nil
}

func (m *Memory) All(ctx context.Context, collection string) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("all", collection); err != nil {
		return nil, err
	}
	return m.snapshot(collection), nil
}

func (m *Memory) snapshot(collection string) []Doc {
	col := m.cols[collection]
	docs := make([]Doc, 0, len(col))
	for _, id := range m.order[collection] {
		data, ok := col[id]
		if !ok {
			continue
		}
		docs = append(docs, Doc{ID: id, Data: copyData(data)})
	}
	return docs
}

func (m *Memory) Get(ctx context.Context, collection, id string) (Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("get", collection); err != nil {
		return Doc{}, err
	}
	data, ok := m.cols[collection][id]
	if !ok {
		return Doc{}, wrap("get", collection, ErrNotFound)
	}
	return Doc{ID: id, Data: copyData(data)}, nil
}

func (m *Memory) Query(ctx context.Context, collection string, q Query) ([]Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.failure("query", collection); err != nil {
		return nil, err
	}
	if m.strict && q.Compound() {
		fields := make([]string, 0, len(q.Filters)+1)
		for _, f := range q.Filters {
			fields = append(fields, f.Field)
		}
		if q.OrderBy != "" {
			fields = append(fields, q.OrderBy)
		}
		if _, ok := m.indexes[indexKey(collection, fields)]; !ok {
			return nil, wrap("query", collection, ErrIndexRequired)
		}
	}

	docs := make([]Doc, 0)
	for _, doc := range m.snapshot(collection) {
		matched := true
		for _, f := range q.Filters {
			if !Match(doc, f) {
				matched = false
				break
			}
		}
		if matched {
			docs = append(docs, doc)
		}
	}

	if q.OrderBy != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			c := compareValues(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy])
			if q.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *Memory) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	m.mu.Lock()
	if err := m.failure("add", collection); err != nil {
		m.mu.Unlock()
		return "", err
	}
	id := uuid.NewString()
	m.put(collection, id, data)
	m.writes++
	m.mu.Unlock()

	m.notify(collection)
	return id, nil
}

func (m *Memory) Update(ctx context.Context, collection, id string, set map[string]any) error {
	m.mu.Lock()
	if err := m.failure("update", collection); err != nil {
		m.mu.Unlock()
		return err
	}
	data, ok := m.cols[collection][id]
	if !ok {
		m.mu.Unlock()
		return wrap("update", collection, ErrNotFound)
	}
	for k, v := range set {
		data[k] = v
	}
	m.writes++
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *Memory) Increment(ctx context.Context, collection, id, field string, delta int64) error {
	m.mu.Lock()
	if err := m.failure("increment", collection); err != nil {
		m.mu.Unlock()
		return err
	}
	data, ok := m.cols[collection][id]
	if !ok {
		m.mu.Unlock()
		return wrap("increment", collection, ErrNotFound)
	}
	current, _ := toFloat(data[field])
	data[field] = int64(current) + delta
	m.writes++
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	if err := m.failure("delete", collection); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.cols[collection], id)
	ids := m.order[collection]
	for i, existing := range ids {
		if existing == id {
			m.order[collection] = append(ids[:i:i], ids[i+1:]...)
			break
		}
	}
	m.writes++
	m.mu.Unlock()

	m.notify(collection)
	return nil
}

func (m *Memory) Subscribe(ctx context.Context, collection string, fn func([]Doc)) (func(), error) {
	m.mu.Lock()
	if err := m.failure("subscribe", collection); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	id := m.nextSub
	m.nextSub++
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[int]func([]Doc))
	}
	m.subs[collection][id] = fn
	initial := m.snapshot(collection)
	m.mu.Unlock()

	fn(initial)

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.subs[collection], id)
			m.mu.Unlock()
		})
	}, nil
}

func (m *Memory) notify(collection string) {
	m.mu.RLock()
	listeners := make([]func([]Doc), 0, len(m.subs[collection]))
	for _, fn := range m.subs[collection] {
		listeners = append(listeners, fn)
	}
	snap := m.snapshot(collection)
	m.mu.RUnlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func indexKey(collection string, fields []string) string {
	sorted := append([]string(nil), fields...)
	sort.Strings(sorted)
	return collection + ":" + strings.Join(sorted, ",")
}

func copyData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

func compareValues(a, b any) int {
	if ta, ok := a.(time.Time); ok {
		tb, _ := b.(time.Time)
		return ta.Compare(tb)
	}
	if fa, ok := toFloat(a); ok {
		fb, _ := toFloat(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	sa, _ := a.(string)
	sb, _ := b.(string)
	return strings.Compare(sa, sb)
}
