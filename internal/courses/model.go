package courses

import (
	"time"

	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"

	"github.com/shopspring/decimal"
)

const (
	AudienceKids   = "Kids"
	AudienceAdults = "Adults"

	UnknownCategory = "Unknown Category"
)

type Course struct {
	ID            string          `json:"id"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	CategoryID    string          `json:"category"`
	Instructor    string          `json:"instructor"`
	Price         decimal.Decimal `json:"price"`
	Duration      float64         `json:"duration"`
	Audience      string          `json:"audience"`
	Image         string          `json:"image,omitempty"`
	TraineesCount int             `json:"traineesCount"`
	Certificate   bool            `json:"certificate"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// CourseView is a course with its category reference resolved for display.
type CourseView struct {
	Course
	CategoryName string `json:"categoryName"`
}

type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateRequest struct {
	Title       string           `json:"title" validate:"required"`
	Description string           `json:"description" validate:"required"`
	CategoryID  string           `json:"category" validate:"required"`
	Instructor  string           `json:"instructor" validate:"required"`
	Price       normalize.Number `json:"price" validate:"required,price"`
	Duration    normalize.Number `json:"duration" validate:"required,numeric"`
	Audience    string           `json:"audience" validate:"omitempty,oneof=Kids Adults"`
	Image       string           `json:"image" validate:"omitempty,url"`
	Certificate bool             `json:"certificate"`
}

// UpdateRequest only touches the fields that are set.
type UpdateRequest struct {
	Title       *string           `json:"title" validate:"omitempty,min=1"`
	Description *string           `json:"description" validate:"omitempty,min=1"`
	CategoryID  *string           `json:"category" validate:"omitempty,min=1"`
	Instructor  *string           `json:"instructor" validate:"omitempty,min=1"`
	Price       *normalize.Number `json:"price" validate:"omitempty,price"`
	Duration    *normalize.Number `json:"duration" validate:"omitempty,numeric"`
	Audience    *string           `json:"audience" validate:"omitempty,oneof=Kids Adults"`
	Image       *string           `json:"image" validate:"omitempty,url"`
	Certificate *bool             `json:"certificate"`
}

type CategoryRequest struct {
	Name string `json:"name" validate:"required"`
}

type ListFilter struct {
	Category string
	Audience string
	Limit    int
}

func courseFromDoc(doc store.Doc, now time.Time) Course {
	d := doc.Data
	return Course{
		ID:            doc.ID,
		Title:         normalize.String(d, "title"),
		Description:   normalize.String(d, "description"),
		CategoryID:    normalize.String(d, "category"),
		Instructor:    normalize.String(d, "instructor"),
		Price:         normalize.Decimal(d, "price"),
		Duration:      normalize.Float(d, "duration"),
		Audience:      normalize.String(d, "audience"),
		Image:         normalize.String(d, "image"),
		TraineesCount: normalize.Int(d, "traineesCount"),
		Certificate:   normalize.Bool(d, "certificate"),
		CreatedAt:     normalize.Time(d, "createdAt", now),
		UpdatedAt:     normalize.Time(d, "updatedAt", now),
	}
}

func categoryFromDoc(doc store.Doc, now time.Time) Category {
	return Category{
		ID:        doc.ID,
		Name:      normalize.String(doc.Data, "name"),
		CreatedAt: normalize.Time(doc.Data, "createdAt", now),
	}
}
