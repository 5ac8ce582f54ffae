package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/swift-cart/internal/config"
	"github.com/iliyamo/swift-cart/internal/database"
	"github.com/iliyamo/swift-cart/internal/handler"
	"github.com/iliyamo/swift-cart/internal/queue"
	"github.com/iliyamo/swift-cart/internal/repository"
	"github.com/iliyamo/swift-cart/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is unreachable; callers degrade

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	households := repository.NewHouseholdRepo(db)
	applications := repository.NewApplicationRepo(db)
	groceries := repository.NewGroceryRepo(db)
	comments := repository.NewCommentRepo(db)
	stores := repository.NewStoreRepo(db)
	locations := repository.NewLocationRepo(db)
	maps := repository.NewMapRepo(db)
	sections := repository.NewSectionRepo(db)
	segments := repository.NewSegmentRepo(db)
	products := repository.NewProductRepo(db)

	h := router.Handlers{
		Auth:         handler.NewAuthHandler(cfg, users, tokens),
		Users:        handler.NewUserHandler(cfg, users),
		Households:   handler.NewHouseholdHandler(households, applications),
		Applications: handler.NewApplicationHandler(applications, households),
		Groceries:    handler.NewGroceryHandler(groceries, households),
		Comments:     handler.NewCommentHandler(comments, groceries, households),
		Stores:       handler.NewStoreHandler(stores, locations),
		Locations:    handler.NewLocationHandler(locations, stores),
		Maps:         handler.NewMapHandler(maps, stores, segments),
		Sections:     handler.NewSectionHandler(sections, maps),
		Segments:     handler.NewSegmentHandler(segments, sections, maps, stores),
		Products:     handler.NewProductHandler(products, segments, maps, stores),
	}

	e := echo.New()
	router.Register(e, h, cfg.JWTSecret, rdb)

	// Background consumer writing household lifecycle events to
	// logs/household.log. Runs its own reconnect loop.
	go func() {
		if err := queue.StartHouseholdConsumer(); err != nil {
			log.Printf("household consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
