package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/swift-cart/internal/config"
	"github.com/iliyamo/swift-cart/internal/handler"
	"github.com/iliyamo/swift-cart/internal/middleware"
)

// Handlers bundles every handler the API registers. main wires the
// repositories in and passes the bundle here.
type Handlers struct {
	Auth         *handler.AuthHandler
	Users        *handler.UserHandler
	Households   *handler.HouseholdHandler
	Applications *handler.ApplicationHandler
	Groceries    *handler.GroceryHandler
	Comments     *handler.CommentHandler
	Stores       *handler.StoreHandler
	Locations    *handler.LocationHandler
	Maps         *handler.MapHandler
	Sections     *handler.SectionHandler
	Segments     *handler.SegmentHandler
	Products     *handler.ProductHandler
}

// Register attaches every route to the Echo instance. Register and login
// live under /v1/auth without a token; everything else requires a valid
// access token. The Redis-backed rate limiter wraps the whole API, the
// response cache only the authenticated group; both degrade to pass-through
// when Redis is down.
func Register(e *echo.Echo, h Handlers, jwtSecret string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))

	// Unauthenticated session endpoints; never cached.
	g := e.Group("/v1/auth")
	g.POST("/register", h.Auth.Register)
	g.POST("/login", h.Auth.Login)
	g.POST("/refresh", h.Auth.Refresh)
	g.POST("/refresh-access", h.Auth.RefreshAccess)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	// The cache sits behind the JWT middleware: its keys carry the caller id
	// and the concrete request path, so entries are per user and per resource.
	auth.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))

	auth.POST("/logout", h.Auth.Logout)
	auth.GET("/user", h.Auth.Me)

	// Users.
	auth.GET("/users/:id", h.Users.Show)
	auth.PUT("/users/:id", h.Users.Update)
	auth.PUT("/users/:id/password", h.Users.UpdatePassword)
	auth.DELETE("/users/:id", h.Users.Delete)
	auth.GET("/users/:id/households", h.Households.ListByMember)
	auth.GET("/users/:id/applications", h.Applications.ListForUser)
	auth.GET("/users/:id/applications/households", h.Applications.ListHouseholdsForUser)

	// Households and memberships.
	auth.GET("/households", h.Households.Index)
	auth.POST("/households", h.Households.Create)
	auth.GET("/households/:id", h.Households.Show)
	auth.PUT("/households/:id", h.Households.Update)
	auth.DELETE("/households/:id", h.Households.Delete)
	auth.GET("/households/:id/users", h.Households.ListUsers)
	auth.GET("/households/:id/relationship", h.Households.Relationship)
	auth.DELETE("/households/:id/users/:userId", h.Households.RemoveMember)

	// Applications.
	auth.POST("/households/:id/applications", h.Applications.Store)
	auth.DELETE("/households/:id/applications", h.Applications.Withdraw)
	auth.GET("/households/:id/applications", h.Applications.ListForHousehold)
	auth.GET("/households/:id/applications/users", h.Applications.ListApplicants)
	auth.POST("/applications/:id", h.Applications.Accept)
	auth.DELETE("/applications/:id", h.Applications.Destroy)

	// Groceries and comments.
	auth.GET("/households/:id/groceries", h.Groceries.Index)
	auth.POST("/households/:id/groceries", h.Groceries.Create)
	auth.GET("/households/:id/groceries/:groceryId", h.Groceries.Show)
	auth.PUT("/households/:id/groceries/:groceryId", h.Groceries.Update)
	auth.DELETE("/households/:id/groceries/:groceryId", h.Groceries.Delete)
	auth.GET("/households/:id/groceries/:groceryId/comments", h.Comments.Index)
	auth.POST("/households/:id/groceries/:groceryId/comments", h.Comments.Create)
	auth.DELETE("/households/:id/groceries/:groceryId/comments/:commentId", h.Comments.Delete)

	// Stores and locations.
	auth.GET("/stores", h.Stores.Index)
	auth.POST("/stores", h.Stores.Create)
	auth.GET("/stores/my", h.Stores.My)
	auth.GET("/stores/:id", h.Stores.Show)
	auth.PUT("/stores/:id", h.Stores.Update)
	auth.DELETE("/stores/:id", h.Stores.Delete)
	auth.GET("/stores/:id/location", h.Locations.Show)
	auth.POST("/stores/:id/location", h.Locations.Create)
	auth.PUT("/stores/:id/location", h.Locations.Update)
	auth.DELETE("/stores/:id/location", h.Locations.Delete)
	auth.GET("/locations/countries", h.Locations.Countries)
	auth.GET("/locations/cities", h.Locations.Cities)
	auth.GET("/locations/streets", h.Locations.Streets)
	auth.GET("/locations/details", h.Locations.Details)

	// Maps, sections, segments and products.
	auth.GET("/stores/:id/map", h.Maps.Show)
	auth.POST("/stores/:id/map", h.Maps.Create)
	auth.PUT("/stores/:id/map", h.Maps.Update)
	auth.DELETE("/stores/:id/map", h.Maps.Delete)
	auth.GET("/maps/:id/sections", h.Sections.Index)
	auth.POST("/maps/:id/sections", h.Sections.Create)
	auth.PUT("/maps/:id/sections/:sectionId", h.Sections.Update)
	auth.DELETE("/maps/:id/sections/:sectionId", h.Sections.Delete)
	auth.GET("/maps/:id/segments", h.Segments.Index)
	auth.POST("/maps/:id/segments", h.Segments.Create)
	auth.GET("/maps/:id/segments/:segmentId", h.Segments.Show)
	auth.PUT("/maps/:id/segments/:segmentId", h.Segments.Update)
	auth.DELETE("/maps/:id/segments/:segmentId", h.Segments.Delete)
	auth.GET("/maps/:id/products", h.Products.ListByMap)
	auth.POST("/segments/:id/products", h.Products.Create)
	auth.GET("/segments/:id/products/:productId", h.Products.Show)
	auth.PUT("/segments/:id/products/:productId", h.Products.Update)
	auth.DELETE("/segments/:id/products/:productId", h.Products.Delete)
	auth.PUT("/products/:id/updateSegment", h.Products.Move)
}
