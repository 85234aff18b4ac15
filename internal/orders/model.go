package orders

import (
	"time"

	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"

	"github.com/shopspring/decimal"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	PaymentCash = "cash"
	PaymentCard = "card"
)

type Address struct {
	FullName string `json:"fullName" validate:"required"`
	Phone    string `json:"phone" validate:"required,phone"`
	Address  string `json:"address" validate:"required"`
	Area     string `json:"area"`
	City     string `json:"city" validate:"required"`
	Floor    string `json:"floor"`
}

type CartItem struct {
	CourseID    string          `json:"courseId,omitempty"`
	Title       string          `json:"title"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	Description string          `json:"description,omitempty"`
}

// Subtotal is price times quantity.
func (c CartItem) Subtotal() decimal.Decimal {
	return c.Price.Mul(decimal.NewFromInt(int64(c.Quantity)))
}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"userId"`
	Address       Address         `json:"address"`
	CartItems     []CartItem      `json:"cartItems"`
	PaymentMethod string          `json:"paymentMethod"`
	Total         decimal.Decimal `json:"total"`
	Status        string          `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type CartItemRequest struct {
	CourseID    string           `json:"courseId"`
	Title       string           `json:"title" validate:"required"`
	Image       string           `json:"image" validate:"omitempty,url"`
	Price       normalize.Number `json:"price" validate:"required,price"`
	Quantity    int              `json:"quantity" validate:"omitempty,gte=1,lte=100"`
	Description string           `json:"description"`
}

// CreateRequest is a checkout. UserID comes from the signed-in user.
type CreateRequest struct {
	UserID        string            `json:"-" validate:"required"`
	Address       Address           `json:"address"`
	CartItems     []CartItemRequest `json:"cartItems" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"paymentMethod" validate:"required,oneof=cash card"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

type ListFilter struct {
	Status string
	Limit  int
}

func fromDoc(doc store.Doc, now time.Time) Order {
	d := doc.Data
	addr := normalize.Map(d, "address")
	items := normalize.Maps(d, "cartItems")

	cart := make([]CartItem, 0, len(items))
	for _, item := range items {
		qty := normalize.Int(item, "quantity")
		if qty <= 0 {
			qty = 1
		}
		cart = append(cart, CartItem{
			CourseID:    normalize.String(item, "courseId"),
			Title:       normalize.String(item, "title"),
			Image:       normalize.String(item, "image"),
			Price:       normalize.Decimal(item, "price"),
			Quantity:    qty,
			Description: normalize.String(item, "description"),
		})
	}

	total := normalize.Decimal(d, "total")
	if _, ok := d["total"]; !ok {
		for _, item := range cart {
			total = total.Add(item.Subtotal())
		}
	}

	return Order{
		ID:     doc.ID,
		UserID: normalize.String(d, "userId"),
		Address: Address{
			FullName: normalize.String(addr, "fullName"),
			Phone:    normalize.String(addr, "phone"),
			Address:  normalize.String(addr, "address"),
			Area:     normalize.String(addr, "area"),
			City:     normalize.String(addr, "city"),
			Floor:    normalize.String(addr, "floor"),
		},
		CartItems:     cart,
		PaymentMethod: normalize.String(d, "paymentMethod"),
		Total:         total,
		Status:        normalize.StringOr(d, "status", StatusPending),
		CreatedAt:     normalize.Time(d, "createdAt", now),
		UpdatedAt:     normalize.Time(d, "updatedAt", now),
	}
}
