package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"
)

var ErrNotFound = errors.New("notification not found")

type Service struct {
	store store.Store
	val   *validation.Validator
	log   *slog.Logger
	now   func() time.Time
}

func NewService(st store.Store, val *validation.Validator, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		store: st,
		val:   val,
		log:   log,
		now:   func() time.Time { return time.Now().In(location) },
	}
}

// StatusMessage is the text a user sees when an order moves to status.
func StatusMessage(orderID, status string) string {
	return fmt.Sprintf("Your order #%s has been %s.", orderID, status)
}

// Create stores an unread notification and returns its id.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.OrderID = strings.TrimSpace(req.OrderID)
	req.Status = strings.TrimSpace(req.Status)
	if err := s.val.Check(req); err != nil {
		return "", err
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		message = StatusMessage(req.OrderID, req.Status)
	}

	return s.store.Add(ctx, db.Notifications, map[string]any{
		"userId":    req.UserID,
		"orderId":   req.OrderID,
		"status":    req.Status,
		"message":   message,
		"read":      false,
		"createdAt": s.now(),
	})
}

func (s *Service) ListForUser(ctx context.Context, userID string, limit int) ([]Notification, error) {
	docs, err := s.store.Query(ctx, db.Notifications, store.Query{
		Filters: []store.Filter{store.Eq("userId", strings.TrimSpace(userID))},
	})
	if err != nil {
		return nil, err
	}
	now := s.now()
	items := make([]Notification, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromDoc(doc, now))
	}
	listing.SortNewestFirst(items, func(n Notification) time.Time { return n.CreatedAt })
	return listing.Limit(items, limit), nil
}

// MarkRead flags one of userID's notifications as read. Notifications of
// other users are reported as not found.
func (s *Service) MarkRead(ctx context.Context, userID, id string) error {
	id = strings.TrimSpace(id)
	doc, err := s.store.Get(ctx, db.Notifications, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if fromDoc(doc, s.now()).UserID != strings.TrimSpace(userID) {
		return ErrNotFound
	}
	if err := s.store.Update(ctx, db.Notifications, id, map[string]any{"read": true}); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func UnreadCount(items []Notification) int {
	n := 0
	for _, item := range items {
		if !item.Read {
			n++
		}
	}
	return n
}
