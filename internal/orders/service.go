package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/notifications"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrInvalidStatus = errors.New("invalid status")

	// ErrNotificationFailed means the order status was written but the
	// follow-up notification was not. Nothing rolls the status back.
	ErrNotificationFailed = errors.New("order updated but notification failed")
)

// Notifier records the message a user gets when an order changes status.
type Notifier interface {
	Create(ctx context.Context, req notifications.CreateRequest) (string, error)
}

type Service struct {
	store    store.Store
	notifier Notifier
	val      *validation.Validator
	log      *slog.Logger
	now      func() time.Time
}

func NewService(st store.Store, notifier Notifier, val *validation.Validator, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		store:    st,
		notifier: notifier,
		val:      val,
		log:      log,
		now:      func() time.Time { return time.Now().In(location) },
	}
}

// Create places a pending order for req.UserID. The total is computed from
// the cart; any client-side total is ignored.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.UserID = strings.TrimSpace(req.UserID)
	req.PaymentMethod = strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	req.Address = trimAddress(req.Address)
	if err := s.val.Check(req); err != nil {
		return "", err
	}

	total := decimal.Zero
	cart := make([]map[string]any, 0, len(req.CartItems))
	for _, item := range req.CartItems {
		qty := item.Quantity
		if qty <= 0 {
			qty = 1
		}
		price := item.Price.Decimal()
		total = total.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		cart = append(cart, map[string]any{
			"courseId":    strings.TrimSpace(item.CourseID),
			"title":       strings.TrimSpace(item.Title),
			"image":       strings.TrimSpace(item.Image),
			"price":       price.String(),
			"quantity":    qty,
			"description": strings.TrimSpace(item.Description),
		})
	}

	now := s.now()
	return s.store.Add(ctx, db.Orders, map[string]any{
		"userId": req.UserID,
		"address": map[string]any{
			"fullName": req.Address.FullName,
			"phone":    req.Address.Phone,
			"address":  req.Address.Address,
			"area":     req.Address.Area,
			"city":     req.Address.City,
			"floor":    req.Address.Floor,
		},
		"cartItems":     cart,
		"paymentMethod": req.PaymentMethod,
		"total":         total.StringFixed(2),
		"status":        StatusPending,
		"createdAt":     now,
		"updatedAt":     now,
	})
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Order, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	var f *store.Filter
	if filter.Status != "" {
		if !isValidStatus(filter.Status) {
			return nil, ErrInvalidStatus
		}
		f = &store.Filter{Field: "status", Value: filter.Status}
	}
	docs, err := listing.Fetch(ctx, s.store, db.Orders, f)
	if err != nil {
		return nil, err
	}
	return listing.Limit(s.fromDocs(docs), filter.Limit), nil
}

func (s *Service) ListForUser(ctx context.Context, userID string) ([]Order, error) {
	f := store.Eq("userId", strings.TrimSpace(userID))
	docs, err := listing.Fetch(ctx, s.store, db.Orders, &f)
	if err != nil {
		return nil, err
	}
	return s.fromDocs(docs), nil
}

func (s *Service) Get(ctx context.Context, id string) (Order, error) {
	doc, err := s.store.Get(ctx, db.Orders, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	return fromDoc(doc, s.now()), nil
}

// UpdateStatus writes the new status, then records a notification for the
// order's owner. The two writes are independent: when the second fails the
// updated order is returned together with ErrNotificationFailed.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Order, error) {
	id = strings.TrimSpace(id)
	status = strings.ToLower(strings.TrimSpace(status))
	if err := s.val.Check(StatusUpdateRequest{Status: status}); err != nil {
		return Order{}, err
	}

	err := s.store.Update(ctx, db.Orders, id, map[string]any{
		"status":    status,
		"updatedAt": s.now(),
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}

	order, err := s.Get(ctx, id)
	if err != nil {
		return Order{}, err
	}

	_, err = s.notifier.Create(ctx, notifications.CreateRequest{
		UserID:  order.UserID,
		OrderID: order.ID,
		Status:  status,
	})
	if err != nil {
		s.log.Warn("orders status: notification failed",
			slog.String("order_id", id),
			slog.String("status", status),
			slog.String("error", err.Error()),
		)
		return order, fmt.Errorf("%w: %w", ErrNotificationFailed, err)
	}
	return order, nil
}

// Delete is best-effort on unknown ids.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, db.Orders, strings.TrimSpace(id))
}

// Watch calls fn with the full, sorted order list on every change until
// the returned func is called.
func (s *Service) Watch(ctx context.Context, fn func([]Order)) (func(), error) {
	return s.store.Subscribe(ctx, db.Orders, func(docs []store.Doc) {
		fn(s.fromDocs(docs))
	})
}

func (s *Service) fromDocs(docs []store.Doc) []Order {
	now := s.now()
	items := make([]Order, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromDoc(doc, now))
	}
	listing.SortNewestFirst(items, func(o Order) time.Time { return o.CreatedAt })
	return items
}

func isValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func trimAddress(a Address) Address {
	return Address{
		FullName: strings.TrimSpace(a.FullName),
		Phone:    strings.TrimSpace(a.Phone),
		Address:  strings.TrimSpace(a.Address),
		Area:     strings.TrimSpace(a.Area),
		City:     strings.TrimSpace(a.City),
		Floor:    strings.TrimSpace(a.Floor),
	}
}
