package feedback

import (
	"time"

	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"
)

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"

	DefaultCategory = "course"
)

var validStatuses = map[string]struct{}{
	StatusPending:  {},
	StatusApproved: {},
	StatusRejected: {},
}

func IsValidStatus(value string) bool {
	_, ok := validStatuses[value]
	return ok
}

// IsPublicFor is the only rule deciding visibility.
func IsPublicFor(status string) bool {
	return status == StatusApproved
}

type Feedback struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	UserName     string    `json:"userName"`
	UserEmail    string    `json:"userEmail"`
	UserAvatar   string    `json:"userAvatar,omitempty"`
	CourseID     *string   `json:"courseId"`
	CourseName   *string   `json:"courseName"`
	Rating       int       `json:"rating"`
	Title        string    `json:"title"`
	Message      string    `json:"message"`
	Status       string    `json:"status"`
	IsPublic     bool      `json:"isPublic"`
	HelpfulVotes int       `json:"helpfulVotes"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateRequest is what an end user submits. User identity fields are
// filled by the handler from the authenticated user when present.
type CreateRequest struct {
	UserID     string `json:"userId"`
	UserName   string `json:"userName" validate:"required"`
	UserEmail  string `json:"userEmail" validate:"omitempty,email"`
	UserAvatar string `json:"userAvatar" validate:"omitempty,url"`
	CourseID   string `json:"courseId"`
	CourseName string `json:"courseName"`
	Rating     int    `json:"rating" validate:"gte=1,lte=5"`
	Title      string `json:"title" validate:"required"`
	Message    string `json:"message" validate:"required"`
	Category   string `json:"category"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required,oneof=pending approved rejected"`
}

// UpdateRequest is the admin-side merge. Status, when set, also rewrites isPublic.
type UpdateRequest struct {
	Status   *string `json:"status" validate:"omitempty,oneof=pending approved rejected"`
	Category *string `json:"category" validate:"omitempty,min=1"`
	Title    *string `json:"title" validate:"omitempty,min=1"`
	Message  *string `json:"message" validate:"omitempty,min=1"`
}

type ListFilter struct {
	Status string
	Limit  int
}

func fromDoc(doc store.Doc, now time.Time) Feedback {
	d := doc.Data
	status := normalize.StringOr(d, "status", StatusPending)
	return Feedback{
		ID:           doc.ID,
		UserID:       normalize.String(d, "userId"),
		UserName:     normalize.StringOr(d, "userName", "Anonymous"),
		UserEmail:    normalize.String(d, "userEmail"),
		UserAvatar:   normalize.String(d, "userAvatar"),
		CourseID:     optional(normalize.String(d, "courseId")),
		CourseName:   optional(normalize.String(d, "courseName")),
		Rating:       normalize.Int(d, "rating"),
		Title:        normalize.String(d, "title"),
		Message:      normalize.String(d, "message"),
		Status:       status,
		IsPublic:     normalize.Bool(d, "isPublic"),
		HelpfulVotes: normalize.Int(d, "helpfulVotes"),
		Category:     normalize.StringOr(d, "category", DefaultCategory),
		CreatedAt:    normalize.Time(d, "createdAt", now),
		UpdatedAt:    normalize.Time(d, "updatedAt", now),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
