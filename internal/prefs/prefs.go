// Package prefs keeps a user's cart and wishlist as small lists in a
// key-value store. Every mutation writes the whole list back.
package prefs

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"elearning-backend/internal/cache"

	"github.com/shopspring/decimal"
)

const (
	KindCart     = "cart"
	KindWishlist = "wishlist"
)

// Item is the part of a course kept in a cart or wishlist.
type Item struct {
	ID       string          `json:"id" validate:"required"`
	Title    string          `json:"title" validate:"required"`
	Image    string          `json:"image,omitempty"`
	Category string          `json:"category,omitempty"`
	Enrolled int             `json:"enrolled"`
	Price    decimal.Decimal `json:"price"`
	Duration float64         `json:"duration"`
}

func Key(kind, userID string) string {
	return kind + ":" + userID
}

// List is one hydrated cart or wishlist. Ids are unique within it.
type List struct {
	mu    sync.Mutex
	kv    cache.Cache
	key   string
	ttl   time.Duration
	items []Item
}

// Load hydrates the list stored under key. A missing or unreadable value
// yields an empty list.
func Load(ctx context.Context, kv cache.Cache, key string, ttl time.Duration, log *slog.Logger) (*List, error) {
	l := &List{kv: kv, key: key, ttl: ttl, items: []Item{}}
	raw, ok, err := kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok || len(raw) == 0 {
		return l, nil
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		log.Warn("prefs load: unreadable value, starting empty", slog.String("key", key), slog.String("error", err.Error()))
		return l, nil
	}
	l.items = dedupe(items)
	return l, nil
}

// Items returns a copy of the current entries in insertion order.
func (l *List) Items() []Item {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Item{}, l.items...)
}

func (l *List) Has(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.index(id) >= 0
}

// Add appends item unless its id is already present, in which case it
// returns false and writes nothing.
func (l *List) Add(ctx context.Context, item Item) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	item.ID = strings.TrimSpace(item.ID)
	if l.index(item.ID) >= 0 {
		return false, nil
	}
	next := append(append([]Item{}, l.items...), item)
	if err := l.persist(ctx, next); err != nil {
		return false, err
	}
	l.items = next
	return true, nil
}

// Remove drops the entry with id; an absent id is not an error.
func (l *List) Remove(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	i := l.index(strings.TrimSpace(id))
	if i < 0 {
		return nil
	}
	next := make([]Item, 0, len(l.items)-1)
	next = append(next, l.items[:i]...)
	next = append(next, l.items[i+1:]...)
	if err := l.persist(ctx, next); err != nil {
		return err
	}
	l.items = next
	return nil
}

// Clear empties the list and removes its key.
func (l *List) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.kv.Delete(ctx, l.key); err != nil {
		return err
	}
	l.items = []Item{}
	return nil
}

func (l *List) persist(ctx context.Context, items []Item) error {
	raw, err := json.Marshal(items)
	if err != nil {
		return err
	}
	return l.kv.Set(ctx, l.key, raw, l.ttl)
}

func (l *List) index(id string) int {
	for i, item := range l.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}

func dedupe(items []Item) []Item {
	out := make([]Item, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}
	return out
}
