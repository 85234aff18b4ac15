package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"elearning-backend/internal/auth"
	"elearning-backend/internal/blogs"
	"elearning-backend/internal/config"
	"elearning-backend/internal/courses"
	"elearning-backend/internal/db"
	"elearning-backend/internal/normalize"
	"elearning-backend/internal/store"
	"elearning-backend/internal/utils"
	"elearning-backend/internal/validation"

	"cloud.google.com/go/firestore"
)

type seedCourse struct {
	Title       string
	Description string
	Category    string
	Instructor  string
	Price       string
	Duration    string
	Audience    string
	Certificate bool
}

type seedPost struct {
	Title    string
	Excerpt  string
	Content  string
	Category string
	Tags     []string
	Featured bool
	EventIn  int
}

func main() {
	hashPassword := flag.String("hash-password", "", "print the bcrypt hash for ADMIN_PASSWORD_HASH and exit")
	flag.Parse()

	if *hashPassword != "" {
		hash, err := auth.HashPassword(*hashPassword)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(hash)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeStore()

	val := validation.New()
	courseService := courses.NewService(st, val, logger, cfg.Timezone)
	blogService := blogs.NewService(st, val, logger, cfg.Timezone)

	catalog := []seedCourse{
		{Title: "Scratch for Young Coders", Description: "Build games and stories with blocks.", Category: "Programming", Instructor: "Mona Adel", Price: "49.99", Duration: "6", Audience: courses.AudienceKids, Certificate: true},
		{Title: "Python Foundations", Description: "Variables, loops and functions from zero.", Category: "Programming", Instructor: "Karim Said", Price: "89", Duration: "12", Audience: courses.AudienceAdults, Certificate: true},
		{Title: "Robotics Lab", Description: "Sensors, motors and a first autonomous robot.", Category: "Robotics", Instructor: "Laila Farouk", Price: "120", Duration: "10", Audience: courses.AudienceKids},
		{Title: "Digital Drawing", Description: "Sketching and colouring on a tablet.", Category: "Art", Instructor: "Nour Hany", Price: "35.50", Duration: "4", Audience: courses.AudienceKids},
		{Title: "Spoken English", Description: "Everyday conversation practice in small groups.", Category: "Languages", Instructor: "Sam Taylor", Price: "60", Duration: "8", Audience: courses.AudienceAdults, Certificate: true},
	}

	existing, err := courseService.List(ctx, courses.ListFilter{})
	if err != nil {
		log.Fatalf("seed courses: %v", err)
	}
	titles := make(map[string]struct{}, len(existing))
	for _, c := range existing {
		titles[strings.ToLower(c.Title)] = struct{}{}
	}

	for _, c := range catalog {
		category, _, err := courseService.FindOrCreateCategory(ctx, c.Category)
		if err != nil {
			log.Fatalf("seed category %s: %v", c.Category, err)
		}
		if _, ok := titles[strings.ToLower(c.Title)]; ok {
			continue
		}
		if _, err := courseService.Create(ctx, courses.CreateRequest{
			Title:       c.Title,
			Description: c.Description,
			CategoryID:  category.ID,
			Instructor:  c.Instructor,
			Price:       normalize.Number(c.Price),
			Duration:    normalize.Number(c.Duration),
			Audience:    c.Audience,
			Certificate: c.Certificate,
		}); err != nil {
			log.Fatalf("seed course %s: %v", c.Title, err)
		}
	}

	posts := []seedPost{
		{Title: "Welcome to the new academy site", Excerpt: "What changed and where to find it.", Content: "Browse courses by category, save them to your wishlist and check out in a few steps.", Category: "news", Tags: []string{"announcement"}, Featured: true},
		{Title: "Five tips for learning to code", Excerpt: "Small habits that help beginners.", Content: "Practice daily, read other people's code, build small projects, ask questions and take breaks.", Category: "tips", Tags: []string{"coding", "beginners"}},
		{Title: "Open day: robotics showcase", Excerpt: "Meet the robots our students built.", Content: "Families are welcome to try the robots and talk to instructors.", Category: "events", Tags: []string{"robotics"}, Featured: true, EventIn: 14},
	}

	now := time.Now().In(cfg.Timezone)
	for _, p := range posts {
		slug := utils.GenerateSlug(p.Title)
		if _, err := blogService.GetBySlug(ctx, slug); err == nil {
			continue
		} else if !errors.Is(err, blogs.ErrNotFound) {
			log.Fatalf("seed post %s: %v", p.Title, err)
		}
		req := blogs.CreateRequest{
			Title:    p.Title,
			Slug:     slug,
			Excerpt:  p.Excerpt,
			Content:  p.Content,
			Author:   "Academy Team",
			Category: p.Category,
			Tags:     p.Tags,
			Status:   blogs.StatusPublished,
			Featured: p.Featured,
		}
		if p.EventIn > 0 {
			eventDate := now.AddDate(0, 0, p.EventIn)
			req.EventDate = &eventDate
			req.EventLocation = "Main campus"
			req.EventType = "open-day"
		}
		if _, err := blogService.Create(ctx, req); err != nil {
			log.Fatalf("seed post %s: %v", p.Title, err)
		}
	}

	log.Println("seed completed")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverFirestore:
		client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID)
		if err != nil {
			return nil, nil, err
		}
		return store.NewFirestore(client), func() { _ = client.Close() }, nil
	case config.DriverMemory:
		return nil, nil, errors.New("seeding the in-memory store has no effect")
	default:
		client, database, err := db.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		if err := db.EnsureIndexes(ctx, database); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, nil, err
		}
		return store.NewMongo(database), func() { _ = client.Disconnect(context.Background()) }, nil
	}
}
