package courses

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"elearning-backend/internal/db"
	"elearning-backend/internal/listing"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"golang.org/x/sync/errgroup"
)

var ErrNotFound = errors.New("course not found")

type Service struct {
	store    store.Store
	val      *validation.Validator
	log      *slog.Logger
	location *time.Location
	now      func() time.Time
}

func NewService(st store.Store, val *validation.Validator, log *slog.Logger, location *time.Location) *Service {
	return &Service{
		store:    st,
		val:      val,
		log:      log,
		location: location,
		now:      func() time.Time { return time.Now().In(location) },
	}
}

// List returns courses newest first, optionally narrowed by category or
// audience. Both together go through ListByCategoryAndAudience.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Course, error) {
	filter.Category = strings.TrimSpace(filter.Category)
	filter.Audience = strings.TrimSpace(filter.Audience)

	if filter.Category != "" && filter.Audience != "" {
		items := s.ListByCategoryAndAudience(ctx, filter.Category, filter.Audience)
		return listing.Limit(items, filter.Limit), nil
	}

	var f *store.Filter
	switch {
	case filter.Category != "":
		f = &store.Filter{Field: "category", Value: filter.Category}
	case filter.Audience != "":
		f = &store.Filter{Field: "audience", Value: filter.Audience}
	}

	docs, err := listing.Fetch(ctx, s.store, db.Courses, f)
	if err != nil {
		return nil, err
	}
	return listing.Limit(s.fromDocs(docs), filter.Limit), nil
}

// ListByCategoryAndAudience is a best-effort read: it degrades to a
// category-only query plus in-memory audience filter, then to an empty list.
func (s *Service) ListByCategoryAndAudience(ctx context.Context, categoryID, audience string) []Course {
	docs := listing.FetchBoth(ctx, s.store, s.log, db.Courses,
		store.Eq("category", strings.TrimSpace(categoryID)),
		store.Eq("audience", strings.TrimSpace(audience)),
	)
	return s.fromDocs(docs)
}

// Search matches term against title, description and instructor.
func (s *Service) Search(ctx context.Context, term string) ([]Course, error) {
	docs, err := s.store.All(ctx, db.Courses)
	if err != nil {
		return nil, err
	}
	return listing.Search(s.fromDocs(docs), term, func(c Course) []string {
		return []string{c.Title, c.Description, c.Instructor}
	}), nil
}

func (s *Service) Get(ctx context.Context, id string) (Course, error) {
	doc, err := s.store.Get(ctx, db.Courses, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return courseFromDoc(doc, s.now()), nil
}

// Create stores a new course and returns its id. The category must already
// exist (see FindOrCreateCategory); nothing here creates one.
func (s *Service) Create(ctx context.Context, req CreateRequest) (string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.CategoryID = strings.TrimSpace(req.CategoryID)
	req.Instructor = strings.TrimSpace(req.Instructor)
	req.Audience = strings.TrimSpace(req.Audience)
	req.Image = strings.TrimSpace(req.Image)
	if err := s.val.Check(req); err != nil {
		return "", err
	}

	now := s.now()
	data := map[string]any{
		"title":         req.Title,
		"description":   req.Description,
		"category":      req.CategoryID,
		"instructor":    req.Instructor,
		"price":         req.Price.Decimal().String(),
		"duration":      req.Duration.Float(),
		"audience":      req.Audience,
		"image":         req.Image,
		"certificate":   req.Certificate,
		"traineesCount": 0,
		"createdAt":     now,
		"updatedAt":     now,
	}
	return s.store.Add(ctx, db.Courses, data)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateRequest) (Course, error) {
	id = strings.TrimSpace(id)
	if err := s.val.Check(req); err != nil {
		return Course{}, err
	}

	set := map[string]any{"updatedAt": s.now()}
	setString := func(key string, v *string) {
		if v != nil {
			set[key] = strings.TrimSpace(*v)
		}
	}
	setString("title", req.Title)
	setString("description", req.Description)
	setString("category", req.CategoryID)
	setString("instructor", req.Instructor)
	setString("audience", req.Audience)
	setString("image", req.Image)
	if req.Price != nil {
		set["price"] = req.Price.Decimal().String()
	}
	if req.Duration != nil {
		set["duration"] = req.Duration.Float()
	}
	if req.Certificate != nil {
		set["certificate"] = *req.Certificate
	}

	if err := s.store.Update(ctx, db.Courses, id, set); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Course{}, ErrNotFound
		}
		return Course{}, err
	}
	return s.Get(ctx, id)
}

// Delete is best-effort; deleting an unknown id may or may not fail
// depending on the backend.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, db.Courses, strings.TrimSpace(id))
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	docs, err := s.store.All(ctx, db.Categories)
	if err != nil {
		return nil, err
	}
	now := s.now()
	items := make([]Category, 0, len(docs))
	for _, doc := range docs {
		items = append(items, categoryFromDoc(doc, now))
	}
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}

// FindOrCreateCategory returns the category named name, creating it when
// missing. The lookup and the insert are separate store calls; two callers
// racing on a new name can both create it.
func (s *Service) FindOrCreateCategory(ctx context.Context, name string) (Category, bool, error) {
	req := CategoryRequest{Name: strings.TrimSpace(name)}
	if err := s.val.Check(req); err != nil {
		return Category{}, false, err
	}

	docs, err := s.store.Query(ctx, db.Categories, store.Query{
		Filters: []store.Filter{store.Eq("name", req.Name)},
		Limit:   1,
	})
	if err != nil {
		return Category{}, false, err
	}
	if len(docs) > 0 {
		return categoryFromDoc(docs[0], s.now()), false, nil
	}

	now := s.now()
	id, err := s.store.Add(ctx, db.Categories, map[string]any{
		"name":      req.Name,
		"createdAt": now,
	})
	if err != nil {
		return Category{}, false, err
	}
	return Category{ID: id, Name: req.Name, CreatedAt: now}, true, nil
}

// ListWithCategoryNames fetches categories and courses concurrently and
// resolves names only once both have arrived.
func (s *Service) ListWithCategoryNames(ctx context.Context, filter ListFilter) ([]CourseView, error) {
	var (
		categories []Category
		items      []Course
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		categories, err = s.ListCategories(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.List(gctx, filter)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := CategoryNames(categories)
	views := make([]CourseView, 0, len(items))
	for _, c := range items {
		views = append(views, CourseView{Course: c, CategoryName: ResolveCategory(names, c.CategoryID)})
	}
	return views, nil
}

func CategoryNames(categories []Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

// ResolveCategory maps a category reference to its name; dangling or empty
// references resolve to UnknownCategory.
func ResolveCategory(names map[string]string, id string) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	return UnknownCategory
}

func (s *Service) fromDocs(docs []store.Doc) []Course {
	now := s.now()
	items := make([]Course, 0, len(docs))
	for _, doc := range docs {
		items = append(items, courseFromDoc(doc, now))
	}
	listing.SortNewestFirst(items, func(c Course) time.Time { return c.CreatedAt })
	return items
}
