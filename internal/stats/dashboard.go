package stats

import (
	"context"
	"log/slog"
	"time"

	"elearning-backend/internal/blogs"
	"elearning-backend/internal/cache"
	"elearning-backend/internal/courses"
	"elearning-backend/internal/feedback"
	"elearning-backend/internal/orders"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

const dashboardCacheKey = "stats:dashboard"

type Summary struct {
	Courses            int             `json:"courses"`
	Categories         int             `json:"categories"`
	CoursesPerCategory map[string]int  `json:"coursesPerCategory"`
	Orders             int             `json:"orders"`
	PendingOrders      int             `json:"pendingOrders"`
	Revenue            decimal.Decimal `json:"revenue"`
	OrdersPerMonth     [12]int         `json:"ordersPerMonth"`
	Feedback           int             `json:"feedback"`
	PendingFeedback    int             `json:"pendingFeedback"`
	AverageRating      string          `json:"averageRating"`
	Blogs              int             `json:"blogs"`
	PublishedBlogs     int             `json:"publishedBlogs"`
	Year               int             `json:"year"`
	GeneratedAt        time.Time       `json:"generatedAt"`
}

type Dashboard struct {
	courses  *courses.Service
	orders   *orders.Service
	feedback *feedback.Service
	blogs    *blogs.Service
	cache    cache.Cache
	ttl      time.Duration
	log      *slog.Logger
	now      func() time.Time
}

func NewDashboard(c *courses.Service, o *orders.Service, f *feedback.Service, b *blogs.Service, kv cache.Cache, ttl time.Duration, log *slog.Logger, location *time.Location) *Dashboard {
	return &Dashboard{
		courses:  c,
		orders:   o,
		feedback: f,
		blogs:    b,
		cache:    kv,
		ttl:      ttl,
		log:      log,
		now:      func() time.Time { return time.Now().In(location) },
	}
}

// Summary gathers every list in parallel and aggregates once all of them
// have arrived. Results are cached for the configured ttl.
func (d *Dashboard) Summary(ctx context.Context) (Summary, error) {
	if d.cache != nil && d.ttl > 0 {
		var cached Summary
		ok, err := cache.GetJSON(ctx, d.cache, dashboardCacheKey, &cached)
		if err != nil {
			d.log.Warn("dashboard: cache read failed", slog.String("error", err.Error()))
		}
		if ok {
			d.log.Info("dashboard: cache hit")
			return cached, nil
		}
	}

	var (
		courseList   []courses.Course
		categoryList []courses.Category
		orderList    []orders.Order
		feedbackList []feedback.Feedback
		blogList     []blogs.Post
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		courseList, err = d.courses.List(gctx, courses.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		categoryList, err = d.courses.ListCategories(gctx)
		return err
	})
	g.Go(func() (err error) {
		orderList, err = d.orders.List(gctx, orders.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		feedbackList, err = d.feedback.List(gctx, feedback.ListFilter{})
		return err
	})
	g.Go(func() (err error) {
		blogList, err = d.blogs.List(gctx, blogs.ListFilter{})
		return err
	})
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	now := d.now()
	summary := Build(now, courseList, categoryList, orderList, feedbackList, blogList)

	if d.cache != nil && d.ttl > 0 {
		if err := cache.SetJSON(ctx, d.cache, dashboardCacheKey, summary, d.ttl); err != nil {
			d.log.Warn("dashboard: cache write failed", slog.String("error", err.Error()))
		}
	}
	return summary, nil
}

// Build aggregates already fetched lists into a Summary for now's year.
func Build(now time.Time, courseList []courses.Course, categoryList []courses.Category, orderList []orders.Order, feedbackList []feedback.Feedback, blogList []blogs.Post) Summary {
	orderCreated := func(o orders.Order) time.Time { return o.CreatedAt }
	courseCategory := func(c courses.Course) string { return c.CategoryID }

	summary := Summary{
		Courses:            len(courseList),
		Categories:         len(categoryList),
		CoursesPerCategory: CountByCategory(courseList, courseCategory, courses.CategoryNames(categoryList)),
		Orders:             len(orderList),
		Revenue:            decimal.Zero,
		OrdersPerMonth:     MonthlyCounts(InYear(orderList, now.Year(), orderCreated), orderCreated),
		Feedback:           len(feedbackList),
		Blogs:              len(blogList),
		Year:               now.Year(),
		GeneratedAt:        now,
	}

	for _, o := range orderList {
		switch o.Status {
		case orders.StatusPending:
			summary.PendingOrders++
		case orders.StatusApproved:
			summary.Revenue = summary.Revenue.Add(o.Total)
		}
	}

	approved := make([]feedback.Feedback, 0, len(feedbackList))
	for _, f := range feedbackList {
		switch f.Status {
		case feedback.StatusPending:
			summary.PendingFeedback++
		case feedback.StatusApproved:
			approved = append(approved, f)
		}
	}
	summary.AverageRating = AverageRating(approved, func(f feedback.Feedback) int { return f.Rating })

	for _, b := range blogList {
		if b.Status == blogs.StatusPublished {
			summary.PublishedBlogs++
		}
	}
	return summary
}
