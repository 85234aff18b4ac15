package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"elearning-backend/internal/admin"
	"elearning-backend/internal/auth"
	"elearning-backend/internal/blogs"
	"elearning-backend/internal/cache"
	"elearning-backend/internal/config"
	"elearning-backend/internal/courses"
	"elearning-backend/internal/db"
	"elearning-backend/internal/feedback"
	"elearning-backend/internal/middleware"
	"elearning-backend/internal/notifications"
	"elearning-backend/internal/orders"
	"elearning-backend/internal/prefs"
	"elearning-backend/internal/stats"
	"elearning-backend/internal/store"
	"elearning-backend/internal/validation"

	"cloud.google.com/go/firestore"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("store connection failed", slog.String("driver", cfg.StoreDriver), slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	var kv cache.Cache = cache.NewMemory()
	if cfg.RedisURL != "" || cfg.RedisAddr != "" {
		var redisCache *cache.RedisCache
		if cfg.RedisURL != "" {
			redisCache, err = cache.NewRedisFromURL(cfg.RedisURL, cfg.RedisPrefix)
		} else {
			redisCache = cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
		}
		if err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		if err := redisCache.Ping(ctx); err != nil {
			logger.Error("redis connection failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer redisCache.Close()
		logger.Info("redis connected")
		kv = redisCache
	} else {
		logger.Info("redis disabled, using in-process preferences")
	}

	var jwtManager *auth.Manager
	if cfg.JWTSecret != "" {
		jwtManager = &auth.Manager{
			Secret:     []byte(cfg.JWTSecret),
			AccessTTL:  time.Duration(cfg.AccessTTLMinutes) * time.Minute,
			RefreshTTL: time.Duration(cfg.RefreshTTLMinutes) * time.Minute,
			Issuer:     "elearning-backend",
		}
	} else {
		logger.Warn("JWT_SECRET not set, user routes disabled")
	}

	val := validation.New()
	loc := cfg.Timezone

	courseService := courses.NewService(st, val, logger, loc)
	feedbackService := feedback.NewService(st, val, logger, loc)
	blogService := blogs.NewService(st, val, logger, loc)
	notificationService := notifications.NewService(st, val, logger, loc)
	orderService := orders.NewService(st, notificationService, val, logger, loc)
	dashboard := stats.NewDashboard(courseService, orderService, feedbackService, blogService, kv, cfg.CacheTTL(), logger, loc)

	courseHandler := courses.NewHandler(courseService, logger)
	feedbackHandler := feedback.NewHandler(feedbackService, logger)
	blogHandler := blogs.NewHandler(blogService, logger)
	notificationHandler := notifications.NewHandler(notificationService, logger)
	orderHandler := orders.NewHandler(orderService, logger)
	prefsHandler := prefs.NewHandler(kv, cfg.PrefsTTL(), val, logger)
	statsHandler := stats.NewHandler(dashboard, logger)
	adminAuthHandler := admin.NewAuthHandler(admin.AuthConfig{
		User:         cfg.AdminUser,
		PasswordHash: cfg.AdminPasswordHash,
		CookieSecure: cfg.CookieSecure,
	}, jwtManager, val, logger)

	adminOnly := middleware.AdminAuth(cfg.AdminAPIKey, jwtManager)
	userOnly := middleware.UserAuth(jwtManager)

	r := chi.NewRouter()
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.FrontendOrigins))

	r.Route("/api/v1", func(api chi.Router) {
		// Live streams stay open; everything else is bounded.
		api.With(adminOnly).Get("/admin/orders/stream", orderHandler.AdminStream)
		api.With(adminOnly).Get("/admin/feedback/stream", feedbackHandler.AdminStream)

		api.Group(func(api chi.Router) {
			api.Use(chiMiddleware.Timeout(30 * time.Second))

			api.Get("/courses", courseHandler.PublicList)
			api.Get("/courses/search", courseHandler.PublicSearch)
			api.Get("/courses/{id}", courseHandler.PublicGet)
			api.Get("/courses/{id}/feedback", feedbackHandler.CourseFeedback)
			api.Get("/categories", courseHandler.PublicCategories)

			api.Get("/feedback", feedbackHandler.PublicList)
			api.Get("/feedback/search", feedbackHandler.PublicSearch)
			api.Post("/feedback/{id}/helpful", feedbackHandler.MarkHelpful)
			api.With(userOnly).Post("/feedback", feedbackHandler.UserCreate)

			api.Get("/blogs", blogHandler.PublicList)
			api.Get("/blogs/search", blogHandler.PublicSearch)
			api.Get("/blogs/featured", blogHandler.PublicFeatured)
			api.Get("/blogs/events", blogHandler.PublicEvents)
			api.Get("/blogs/{slug}", blogHandler.PublicGet)
			api.Post("/blogs/{id}/like", blogHandler.PublicLike)

			api.Group(func(user chi.Router) {
				user.Use(userOnly)
				user.Post("/orders", orderHandler.UserCreate)
				user.Get("/me/orders", orderHandler.UserList)
				user.Get("/me/notifications", notificationHandler.UserList)
				user.Post("/me/notifications/{id}/read", notificationHandler.UserMarkRead)
				for _, kind := range []string{prefs.KindCart, prefs.KindWishlist} {
					user.Get("/me/"+kind, prefsHandler.List(kind))
					user.Post("/me/"+kind, prefsHandler.Add(kind))
					user.Delete("/me/"+kind, prefsHandler.Clear(kind))
					user.Delete("/me/"+kind+"/{id}", prefsHandler.Remove(kind))
				}
			})

			api.Route("/admin", func(adm chi.Router) {
				adm.Post("/login", adminAuthHandler.Login)
				adm.Post("/refresh", adminAuthHandler.Refresh)
				adm.Post("/logout", adminAuthHandler.Logout)

				adm.Group(func(protected chi.Router) {
					protected.Use(adminOnly)
					protected.Get("/dashboard", statsHandler.AdminDashboard)

					protected.Get("/courses", courseHandler.AdminList)
					protected.Post("/courses", courseHandler.AdminCreate)
					protected.Put("/courses/{id}", courseHandler.AdminUpdate)
					protected.Delete("/courses/{id}", courseHandler.AdminDelete)
					protected.Post("/categories", courseHandler.AdminFindOrCreateCategory)

					protected.Get("/feedback", feedbackHandler.AdminList)
					protected.Patch("/feedback/{id}/status", feedbackHandler.AdminUpdateStatus)
					protected.Put("/feedback/{id}", feedbackHandler.AdminUpdate)
					protected.Delete("/feedback/{id}", feedbackHandler.AdminDelete)

					protected.Get("/blogs", blogHandler.AdminList)
					protected.Get("/blogs/{id}", blogHandler.AdminGet)
					protected.Post("/blogs", blogHandler.AdminCreate)
					protected.Put("/blogs/{id}", blogHandler.AdminUpdate)
					protected.Delete("/blogs/{id}", blogHandler.AdminDelete)

					protected.Get("/orders", orderHandler.AdminList)
					protected.Get("/orders/{id}", orderHandler.AdminGet)
					protected.Patch("/orders/{id}/status", orderHandler.AdminUpdateStatus)
					protected.Delete("/orders/{id}", orderHandler.AdminDelete)
				})
			})
		})
	})

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", slog.String("addr", cfg.ServerAddr), slog.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
}

// openStore connects the configured document store and returns its closer.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("firestore connected", slog.String("project", cfg.FirestoreProjectID))
		return store.NewFirestore(client), func() { _ = client.Close() }, nil
	case config.DriverMemory:
		logger.Warn("using in-memory store, data is not persisted")
		return store.NewMemory(), func() {}, nil
	default:
		client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("mongo connected", slog.String("db", cfg.MongoDB))
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store.NewMongo(database), func() { _ = client.Disconnect(context.Background()) }, nil
	}
}
