package notifications

import (
	"time"

	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"
)

// Notification tells a user that one of their orders changed status.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	OrderID   string    `json:"orderId"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRequest struct {
	UserID  string `json:"userId" validate:"required"`
	OrderID string `json:"orderId" validate:"required"`
	Status  string `json:"status" validate:"required"`
	Message string `json:"message"`
}

func fromDoc(doc store.Doc, now time.Time) Notification {
	d := doc.Data
	return Notification{
		ID:        doc.ID,
		UserID:    normalize.String(d, "userId"),
		OrderID:   normalize.String(d, "orderId"),
		Status:    normalize.String(d, "status"),
		Message:   normalize.String(d, "message"),
		Read:      normalize.Bool(d, "read"),
		CreatedAt: normalize.Time(d, "createdAt", now),
	}
}
