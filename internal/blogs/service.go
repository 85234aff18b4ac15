package blogs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/store"
	"elearning-backend/internal/utils"
	"elearning-backend/internal/validation"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("blog post not found")
	ErrInvalidStatus = errors.New("invalid status")
)

const slugAttempts = 10

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

// List returns posts newest first, narrowed by status or category. Both
// together go through the best-effort compound read.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	filter.Category = strings.TrimSpace(filter.Category)
	if filter.Status != "" && !isValidStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}

	if filter.Status != "" && filter.Category != "" {
		docs := listing.FetchBoth(ctx, s.store, s.log, db.Blogs,
			store.Eq("category", filter.Category),
			store.Eq("status", filter.Status),
		)
		return listing.Limit(s.fromDocs(docs), filter.Limit), nil
	}

	var f *store.Filter
	switch {
	case filter.Status != "":
		f = &store.Filter{Field: "status", Value: filter.Status}
	case filter.Category != "":
		f = &store.Filter{Field: "category", Value: filter.Category}
	}
	docs, err := listing.Fetch(ctx, s.store, db.Blogs, f)
	if err != nil {
		return nil, err
	}
	return listing.Limit(s.fromDocs(docs), filter.Limit), nil
}

func (s *Service) ListPublished(ctx context.Context, limit int) ([]Post, error) {
	return s.List(ctx, ListFilter{Status: StatusPublished, Limit: limit})
}

// ListPublishedByCategory is a best-effort read; failures end in an empty list.
func (s *Service) ListPublishedByCategory(ctx context.Context, category string, limit int) []Post {
	docs := listing.FetchBoth(ctx, s.store, s.log, db.Blogs,
		store.Eq("category", strings.TrimSpace(category)),
		store.Eq("status", StatusPublished),
	)
	return listing.Limit(s.fromDocs(docs), limit)
}

// ListFeatured is a best-effort read of published featured posts.
func (s *Service) ListFeatured(ctx context.Context, limit int) []Post {
	docs := listing.FetchBoth(ctx, s.store, s.log, db.Blogs,
		store.Eq("status", StatusPublished),
		store.Eq("featured", true),
	)
	return listing.Limit(s.fromDocs(docs), limit)
}

// ListUpcomingEvents returns published event posts dated from today on,
// soonest first.
func (s *Service) ListUpcomingEvents(ctx context.Context, limit int) ([]Post, error) {
	items, err := s.ListPublished(ctx, 0)
	if err != nil {
		return nil, err
	}
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	events := listing.Filter(items, func(p Post) bool {
		return p.IsEvent() && !p.EventDate.Before(startOfDay)
	})
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].EventDate.Before(*events[j].EventDate)
	})
	return listing.Limit(events, limit), nil
}

// Search matches term against published posts' title, content, excerpt,
// tags and author.
func (s *Service) Search(ctx context.Context, term string) ([]Post, error) {
	items, err := s.ListPublished(ctx, 0)
	if err != nil {
		return nil, err
	}
	return listing.Search(items, term, func(p Post) []string {
		return []string{p.Title, p.Content, p.Excerpt, strings.Join(p.Tags, " "), p.Author}
	}), nil
}

func (s *Service) Get(ctx context.Context, id string) (Post, error) {
	doc, err := s.store.Get(ctx, db.Blogs, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return fromDoc(doc, s.now()), nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Post, error) {
	docs, err := s.store.Query(ctx, db.Blogs, store.Query{
		Filters: []store.Filter{store.Eq("slug", strings.TrimSpace(slug))},
		Limit:   1,
	})
	if err != nil {
		return Post{}, err
	}
	if len(docs) == 0 {
		return Post{}, ErrNotFound
	}
	return fromDoc(docs[0], s.now()), nil
}

// Create stores a post and returns its id. The slug is derived from the
// given slug or the title and made unique with a numeric suffix.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Content = strings.TrimSpace(req.Content)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	req.FeaturedImage = strings.TrimSpace(req.FeaturedImage)
	if err := s.val.Check(req); err != nil {
		return "", err
	}
	if req.Status == "" {
		req.Status = StatusDraft
	}

	base := req.Slug
	if strings.TrimSpace(base) == "" {
		base = req.Title
	}
	slug, err := s.uniqueSlug(ctx, base, "")
	if err != nil {
		return "", err
	}

	now := s.now()
	publishDate := req.PublishDate
	if publishDate == nil && req.Status == StatusPublished {
		publishDate = &now
	}

	data := map[string]any{
		"title":         req.Title,
		"slug":          slug,
		"content":       req.Content,
		"excerpt":       strings.TrimSpace(req.Excerpt),
		"author":        strings.TrimSpace(req.Author),
		"category":      strings.TrimSpace(req.Category),
		"tags":          cleanList(req.Tags),
		"status":        req.Status,
		"featured":      req.Featured,
		"featuredImage": req.FeaturedImage,
		"galleryImages": cleanList(req.GalleryImages),
		"publishDate":   timeOrNil(publishDate),
		"eventDate":     timeOrNil(req.EventDate),
		"eventLocation": strings.TrimSpace(req.EventLocation),
		"eventType":     strings.TrimSpace(req.EventType),
		"views":         0,
		"likes":         0,
		"comments":      0,
		"createdAt":     now,
		"updatedAt":     now,
	}
	return s.store.Add(ctx, db.Blogs, data)
}

// Update merges the provided fields. A new title re-derives the slug unless
// a slug is given explicitly.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Post, error) {
	id = strings.TrimSpace(id)
	if req.Status != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Status))
		req.Status = &normalized
	}
	if err := s.val.Check(req); err != nil {
		return Post{}, err
	}

	set := map[string]any{"updatedAt": s.now()}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	setString("title", req.Title)
	setString("content", req.Content)
	setString("excerpt", req.Excerpt)
	setString("author", req.Author)
	setString("category", req.Category)
	setString("status", req.Status)
	setString("featuredImage", req.FeaturedImage)
	setString("eventLocation", req.EventLocation)
	setString("eventType", req.EventType)
	if req.Tags != nil {
		set["tags"] = cleanList(req.Tags)
	}
	if req.GalleryImages != nil {
		set["galleryImages"] = cleanList(req.GalleryImages)
	}
	if req.Featured != nil {
		set["featured"] = *req.Featured
	}
	if req.PublishDate != nil {
		set["publishDate"] = *req.PublishDate
	}
	if req.EventDate != nil {
		set["eventDate"] = *req.EventDate
	}

	var base string
	switch {
	case req.Slug != nil && strings.TrimSpace(*req.Slug) != "":
		base = *req.Slug
	case req.Title != nil:
		base = *req.Title
	}
	if base != "" {
		slug, err := s.uniqueSlug(ctx, base, id)
		if err != nil {
			return Post{}, err
		}
		set["slug"] = slug
	}

	if err := s.store.Update(ctx, db.Blogs, id, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Post{}, ErrNotFound
		}
		return Post{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) IncrementViews(ctx context.Context, id string) error {
	return s.increment(ctx, id, "views")
}

func (s *Service) Like(ctx context.Context, id string) error {
	return s.increment(ctx, id, "likes")
}

func (s *Service) increment(ctx context.Context, id, field string) error {
	if err := s.store.Increment(ctx, db.Blogs, strings.TrimSpace(id), field, 1); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete is best-effort on unknown ids.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, db.Blogs, strings.TrimSpace(id))
}

// uniqueSlug turns base into a slug not used by any post other than self.
func (s *Service) uniqueSlug(ctx context.Context, base, self string) (string, error) {
	slug := utils.GenerateSlug(base)
	if err := s.val.Check(slugCheck{Slug: slug}); err != nil {
		return "", err
	}

	candidate := slug
	for i := 2; i <= slugAttempts+1; i++ {
		existing, err := s.GetBySlug(ctx, candidate)
		if errors.Is(err, ErrNotFound) || (err == nil && existing.ID == self) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("check slug %q: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d", slug, i)
	}
	return slug + "-" + strings.SplitN(uuid.NewString(), "-", 2)[0], nil
}

func (s *Service) fromDocs(docs []store.Doc) []Post {
	now := s.now()
	items := make([]Post, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromDoc(doc, now))
	}
	listing.SortNewestFirst(items, func(p Post) time.Time { return p.CreatedAt })
	return items
}

func isValidStatus(status string) bool {
	switch status {
	case StatusDraft, StatusPublished, StatusScheduled:
		return true
	}
	return false
}

func timeOrNil(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
