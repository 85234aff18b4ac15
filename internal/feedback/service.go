package feedback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"
)

var (
	ErrNotFound      = errors.New("feedback not found")
	ErrInvalidStatus = errors.New("invalid status")
)

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

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Feedback, error) {
	filter.Status = strings.ToLower(strings.TrimSpace(filter.Status))
	if filter.Status != "" && !IsValidStatus(filter.Status) {
		return nil, ErrInvalidStatus
	}

	var f *store.Filter
	if filter.Status != "" {
		f = &store.Filter{Field: "status", Value: filter.Status}
	}
	docs, err := listing.Fetch(ctx, s.store, db.Feedback, f)
	if err != nil {
		return nil, err
	}
	return listing.Limit(s.fromDocs(docs), filter.Limit), nil
}

// ListPublic returns approved feedback, newest first.
func (s *Service) ListPublic(ctx context.Context, limit int) ([]Feedback, error) {
	return s.List(ctx, ListFilter{Status: StatusApproved, Limit: limit})
}

// ListForCourse is a best-effort read of one course's feedback in a given
// status; see listing.FetchBoth for how it degrades.
func (s *Service) ListForCourse(ctx context.Context, courseID, status string) []Feedback {
	status = strings.ToLower(strings.TrimSpace(status))
	if status == "" {
		status = StatusApproved
	}
	docs := listing.FetchBoth(ctx, s.store, s.log, db.Feedback,
		store.Eq("courseId", strings.TrimSpace(courseID)),
		store.Eq("status", status),
	)
	return s.fromDocs(docs)
}

// Search looks through approved feedback only.
func (s *Service) Search(ctx context.Context, term string) ([]Feedback, error) {
	items, err := s.ListPublic(ctx, 0)
	if err != nil {
		return nil, err
	}
	return listing.Search(items, term, func(f Feedback) []string {
		return []string{f.Title, f.Message, f.UserName}
	}), nil
}

func (s *Service) Get(ctx context.Context, id string) (Feedback, error) {
	doc, err := s.store.Get(ctx, db.Feedback, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Feedback{}, ErrNotFound
		}
		return Feedback{}, err
	}
	return fromDoc(doc, s.now()), nil
}

// Create stores a submission as pending and not public.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.UserName = strings.TrimSpace(req.UserName)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	req.Title = strings.TrimSpace(req.Title)
	req.Message = strings.TrimSpace(req.Message)
	req.CourseID = strings.TrimSpace(req.CourseID)
	req.CourseName = strings.TrimSpace(req.CourseName)
	if err := s.val.Check(req); err != nil {
		return "", err
	}

	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = DefaultCategory
	}

	now := s.now()
	data := map[string]any{
		"userId":       strings.TrimSpace(req.UserID),
		"userName":     req.UserName,
		"userEmail":    req.UserEmail,
		"userAvatar":   strings.TrimSpace(req.UserAvatar),
		"courseId":     nullable(req.CourseID),
		"courseName":   nullable(req.CourseName),
		"rating":       req.Rating,
		"title":        req.Title,
		"message":      req.Message,
		"status":       StatusPending,
		"isPublic":     false,
		"helpfulVotes": 0,
		"category":     category,
		"createdAt":    now,
		"updatedAt":    now,
	}
	return s.store.Add(ctx, db.Feedback, data)
}

// UpdateStatus sets status and recomputes isPublic from it.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (Feedback, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if err := s.val.Check(StatusUpdateRequest{Status: status}); err != nil {
		return Feedback{}, err
	}
	return s.Update(ctx, id, UpdateRequest{Status: &status})
}

// Update merges the given fields. isPublic is never taken from input; it is
// rewritten whenever status is part of the update.
func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Feedback, error) {
	id = strings.TrimSpace(id)
	if req.Status != nil {
		normalized := strings.ToLower(strings.TrimSpace(*req.Status))
		req.Status = &normalized
	}
	if err := s.val.Check(req); err != nil {
		return Feedback{}, err
	}

	set := map[string]any{"updatedAt": s.now()}
	if req.Status != nil {
		set["status"] = *req.Status
		set["isPublic"] = IsPublicFor(*req.Status)
	}
	if req.Category != nil {
		set["category"] = strings.TrimSpace(*req.Category)
	}
	if req.Title != nil {
		set["title"] = strings.TrimSpace(*req.Title)
	}
	if req.Message != nil {
		set["message"] = strings.TrimSpace(*req.Message)
	}

	if err := s.store.Update(ctx, db.Feedback, id, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Feedback{}, ErrNotFound
		}
		return Feedback{}, err
	}
	return s.Get(ctx, id)
}

func (s *Service) MarkHelpful(ctx context.Context, id string) error {
	if err := s.store.Increment(ctx, db.Feedback, strings.TrimSpace(id), "helpfulVotes", 1); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Delete is best-effort on unknown ids.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, db.Feedback, strings.TrimSpace(id))
}

// Watch calls fn with the full, sorted feedback list on every change until
// the returned func is called.
func (s *Service) Watch(ctx context.Context, fn func([]Feedback)) (func(), error) {
	return s.store.Subscribe(ctx, db.Feedback, func(docs []store.Doc) {
		fn(s.fromDocs(docs))
	})
}

func (s *Service) fromDocs(docs []store.Doc) []Feedback {
	now := s.now()
	items := make([]Feedback, 0, len(docs))
	for _, doc := range docs {
		items = append(items, fromDoc(doc, now))
	}
	listing.SortNewestFirst(items, func(f Feedback) time.Time { return f.CreatedAt })
	return items
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
