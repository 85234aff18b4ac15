package orders

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/normalize"
	"elearning-backend/internal/notifications"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

func newTestService(st store.Store) *Service {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	val := validation.New()
	notes := notifications.NewService(st, val, log, time.UTC)
	svc := NewService(st, notes, val, log, time.UTC)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validCheckout() CreateRequest {
	return CreateRequest{
		UserID: "u1",
		Address: Address{
			FullName: "Nour Adel",
			Phone:    "+20 100 123 4567",
			Address:  "12 Nile St",
			City:     "Cairo",
		},
		CartItems: []CartItemRequest{
			{CourseID: "c1", Title: "React Basics", Price: normalize.Number("49.90")},
			{CourseID: "c2", Title: "Python", Price: normalize.Number("10.05"), Quantity: 2},
		},
		PaymentMethod: "Cash",
	}
}

func TestCreateComputesTotal(t *testing.T) {
	svc := newTestService(store.NewMemory())

	id, err := svc.Create(context.Background(), validCheckout())
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "70", got.Total.String())
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, PaymentCash, got.PaymentMethod)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, "Cairo", got.Address.City)
	require.Len(t, got.CartItems, 2)
	assert.Equal(t, 1, got.CartItems[0].Quantity)
	assert.Equal(t, "20.1", got.CartItems[1].Subtotal().String())
	assert.True(t, got.CreatedAt.Equal(fixedNow))
}

func TestCreateValidatesBeforeWriting(t *testing.T) {
	cases := map[string]func(*CreateRequest){
		"fullName":      func(r *CreateRequest) { r.Address.FullName = "" },
		"phone":         func(r *CreateRequest) { r.Address.Phone = "call me" },
		"city":          func(r *CreateRequest) { r.Address.City = " " },
		"cartItems":     func(r *CreateRequest) { r.CartItems = nil },
		"price":         func(r *CreateRequest) { r.CartItems[0].Price = "-1" },
		"paymentMethod": func(r *CreateRequest) { r.PaymentMethod = "barter" },
		"UserID":        func(r *CreateRequest) { r.UserID = "" },
	}
	for field, mutate := range cases {
		t.Run(field, func(t *testing.T) {
			st := store.NewMemory()
			req := validCheckout()
			mutate(&req)

			_, err := newTestService(st).Create(context.Background(), req)
			ve, ok := validation.IsValidation(err)
			require.True(t, ok, "expected validation error, got %v", err)
			assert.Contains(t, ve.Fields, field)
			assert.Equal(t, 0, st.Writes())
		})
	}
}

func TestUpdateStatusCreatesNotification(t *testing.T) {
	st := store.NewMemory()
	st.Put(db.Orders, "o1", map[string]any{"userId": "u1", "status": StatusPending})
	svc := newTestService(st)

	order, err := svc.UpdateStatus(context.Background(), "o1", "Approved")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, order.Status)

	docs, err := st.All(context.Background(), db.Notifications)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "u1", docs[0].Data["userId"])
	assert.Equal(t, "o1", docs[0].Data["orderId"])
	assert.Equal(t, StatusApproved, docs[0].Data["status"])
	assert.Equal(t, false, docs[0].Data["read"])
}

func TestUpdateStatusNotificationFailureLeavesOrderUpdated(t *testing.T) {
	st := store.NewMemory()
	st.Put(db.Orders, "o1", map[string]any{"userId": "u1", "status": StatusPending})
	st.FailOn("add", db.Notifications, errors.New("quota exceeded"))
	svc := newTestService(st)

	order, err := svc.UpdateStatus(context.Background(), "o1", StatusRejected)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationFailed)
	var se *store.Error
	assert.ErrorAs(t, err, &se)
	assert.Equal(t, StatusRejected, order.Status)

	stored, err := svc.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, stored.Status)
}

func TestUpdateStatusErrors(t *testing.T) {
	st := store.NewMemory()
	st.Put(db.Orders, "o1", map[string]any{"userId": "u1"})
	svc := newTestService(st)

	_, err := svc.UpdateStatus(context.Background(), "o1", "shipped")
	_, ok := validation.IsValidation(err)
	assert.True(t, ok)

	_, err = svc.UpdateStatus(context.Background(), "missing", StatusApproved)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, st.Writes())
}

func TestListAndListForUser(t *testing.T) {
	st := store.NewMemory()
	st.Put(db.Orders, "a", map[string]any{"userId": "u1", "status": StatusPending, "createdAt": fixedNow.Add(-3 * time.Hour)})
	st.Put(db.Orders, "b", map[string]any{"userId": "u2", "status": StatusApproved, "createdAt": fixedNow.Add(-2 * time.Hour)})
	st.Put(db.Orders, "c", map[string]any{"userId": "u1", "status": StatusApproved, "createdAt": fixedNow.Add(-time.Hour)})
	svc := newTestService(st)

	all, err := svc.List(context.Background(), ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(all))

	approved, err := svc.List(context.Background(), ListFilter{Status: StatusApproved, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, ids(approved))

	mine, err := svc.ListForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, ids(mine))

	_, err = svc.List(context.Background(), ListFilter{Status: "lost"})
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTotalFallsBackToCartSum(t *testing.T) {
	o := fromDoc(store.Doc{ID: "o1", Data: map[string]any{
		"cartItems": []any{
			map[string]any{"title": "A", "price": 12.5, "quantity": 2},
			map[string]any{"title": "B", "price": "5"},
		},
	}}, fixedNow)
	assert.Equal(t, "30", o.Total.String())
	assert.Equal(t, StatusPending, o.Status)
}

func ids(items []Order) []string {
	out := make([]string, 0, len(items))
	for _, o := range items {
		out = append(out, o.ID)
	}
	return out
}
