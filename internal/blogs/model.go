package blogs

import (
	"strings"
	"time"

	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusScheduled = "scheduled"
)

type Post struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	Author        string     `json:"author"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	Status        string     `json:"status"`
	Featured      bool       `json:"featured"`
	FeaturedImage string     `json:"featuredImage,omitempty"`
	GalleryImages []string   `json:"galleryImages"`
	PublishDate   *time.Time `json:"publishDate"`
	EventDate     *time.Time `json:"eventDate"`
	EventLocation string     `json:"eventLocation,omitempty"`
	EventType     string     `json:"eventType,omitempty"`
	Views         int        `json:"views"`
	Likes         int        `json:"likes"`
	Comments      int        `json:"comments"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// IsEvent reports whether the post announces an event.
func (p Post) IsEvent() bool {
	return p.EventDate != nil
}

type CreateRequest struct {
	Title         string     `json:"title" validate:"required"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content" validate:"required"`
	Excerpt       string     `json:"excerpt"`
	Author        string     `json:"author"`
	Category      string     `json:"category"`
	Tags          []string   `json:"tags"`
	Status        string     `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	Featured      bool       `json:"featured"`
	FeaturedImage string     `json:"featuredImage" validate:"omitempty,url"`
	GalleryImages []string   `json:"galleryImages" validate:"omitempty,dive,url"`
	PublishDate   *time.Time `json:"publishDate" validate:"required_if=Status scheduled"`
	EventDate     *time.Time `json:"eventDate"`
	EventLocation string     `json:"eventLocation"`
	EventType     string     `json:"eventType"`
}

type UpdateRequest struct {
	Title         *string    `json:"title" validate:"omitempty,min=1"`
	Slug          *string    `json:"slug"`
	Content       *string    `json:"content" validate:"omitempty,min=1"`
	Excerpt       *string    `json:"excerpt"`
	Author        *string    `json:"author"`
	Category      *string    `json:"category"`
	Tags          []string   `json:"tags"`
	Status        *string    `json:"status" validate:"omitempty,oneof=draft published scheduled"`
	Featured      *bool      `json:"featured"`
	FeaturedImage *string    `json:"featuredImage" validate:"omitempty,url"`
	GalleryImages []string   `json:"galleryImages" validate:"omitempty,dive,url"`
	PublishDate   *time.Time `json:"publishDate"`
	EventDate     *time.Time `json:"eventDate"`
	EventLocation *string    `json:"eventLocation"`
	EventType     *string    `json:"eventType"`
}

// slugCheck validates a generated slug; titles made only of symbols
// produce an empty one.
type slugCheck struct {
	Slug string `json:"slug" validate:"required,slug"`
}

type ListFilter struct {
	Status   string
	Category string
	Limit    int
}

func fromDoc(doc store.Doc, now time.Time) Post {
	d := doc.Data
	return Post{
		ID:            doc.ID,
		Title:         normalize.String(d, "title"),
		Slug:          normalize.String(d, "slug"),
		Content:       normalize.String(d, "content"),
		Excerpt:       normalize.String(d, "excerpt"),
		Author:        normalize.String(d, "author"),
		Category:      normalize.String(d, "category"),
		Tags:          normalize.Strings(d, "tags"),
		Status:        normalize.StringOr(d, "status", StatusDraft),
		Featured:      normalize.Bool(d, "featured"),
		FeaturedImage: normalize.String(d, "featuredImage"),
		GalleryImages: normalize.Strings(d, "galleryImages"),
		PublishDate:   optionalTime(d, "publishDate"),
		EventDate:     optionalTime(d, "eventDate"),
		EventLocation: normalize.String(d, "eventLocation"),
		EventType:     normalize.String(d, "eventType"),
		Views:         normalize.Int(d, "views"),
		Likes:         normalize.Int(d, "likes"),
		Comments:      normalize.Int(d, "comments"),
		CreatedAt:     normalize.Time(d, "createdAt", now),
		UpdatedAt:     normalize.Time(d, "updatedAt", now),
	}
}

func optionalTime(d map[string]any, key string) *time.Time {
	t, ok := normalize.OptionalTime(d, key)
	if !ok {
		return nil
	}
	return &t
}

func cleanList(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		key := strings.ToLower(tag)
		if tag == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
