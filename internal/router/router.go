package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/qrbites/qrbites/internal/cache"
	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/handler"
	"github.com/qrbites/qrbites/internal/middleware"
	"github.com/qrbites/qrbites/internal/repository"
)

// Deps carries everything route registration needs.  Route groups get
// their own rate-limit budgets: strict for auth, standard for the owner
// API, lenient for the public read side.
type Deps struct {
	Cfg    config.Config
	Redis  *redis.Client
	Cache  cache.Store
	Users  *repository.UserRepo
	Auth   *handler.AuthHandler
	OAuth  *handler.OAuthHandler
	User   *handler.UserHandler
	Owner  *handler.OwnerHandler
	Public *handler.PublicHandler
	Health *handler.HealthHandler
}

// Register wires every route of the service onto the Echo instance.
func Register(e *echo.Echo, d Deps) {
	registerHealth(e, d)
	registerAuth(e, d)
	registerAPI(e, d)
	registerPublic(e, d)
}

func registerHealth(e *echo.Echo, d Deps) {
	e.GET("/health", d.Health.Health)
	h := e.Group("/health")
	h.GET("/simple", d.Health.Simple)
	h.GET("/live", d.Health.Live)
	h.GET("/ready", d.Health.Ready)
	h.GET("/detailed", d.Health.Detailed)
	h.GET("/system", d.Health.System)
}

func registerAuth(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.Cfg.JWTSecret, d.Users)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig("auth"), d.Redis)

	g := e.Group("/api/auth", limit)
	g.POST("/register", d.Auth.Register)
	g.POST("/login", d.Auth.Login)
	g.POST("/refresh", d.Auth.Refresh)
	g.POST("/logout", d.Auth.Logout, jwt)
	g.GET("/me", d.Auth.Me, jwt)
	// goth handshake; static routes above win over the :provider params.
	g.GET("/:provider", d.OAuth.Begin)
	g.GET("/:provider/callback", d.OAuth.Callback)
}

func registerAPI(e *echo.Echo, d Deps) {
	jwt := middleware.JWTAuth(d.Cfg.JWTSecret, d.Users)
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig("api"), d.Redis)
	upload := func(field string, multiple bool, maxCount int) echo.MiddlewareFunc {
		return middleware.StageUploads(middleware.UploadConfig{
			Field:    field,
			Multiple: multiple,
			MaxSize:  d.Cfg.MaxFileSize,
			MaxCount: maxCount,
		})
	}

	api := e.Group("/api", jwt, limit)

	users := api.Group("/users")
	users.GET("", d.User.List, middleware.RequireRole("admin"))
	users.GET("/:id", d.User.Get)
	users.PUT("/:id", d.User.Update)
	users.DELETE("/:id", d.User.Delete, middleware.RequireRole("admin"))

	restaurants := api.Group("/restaurants")
	ownRestaurant := middleware.RequireOwnership(d.Owner.Restaurants, "id")
	restaurants.GET("", d.Owner.ListRestaurants)
	restaurants.POST("", d.Owner.CreateRestaurant)
	restaurants.GET("/:id", d.Owner.GetRestaurant, ownRestaurant)
	restaurants.PUT("/:id", d.Owner.UpdateRestaurant, ownRestaurant)
	restaurants.DELETE("/:id", d.Owner.DeleteRestaurant, ownRestaurant)
	restaurants.POST("/:id/logo", d.Owner.UploadLogo, ownRestaurant, upload("logo", false, 1))

	menus := api.Group("/menus")
	ownMenu := middleware.RequireOwnership(d.Owner.Menus, "id")
	menus.GET("", d.Owner.ListMenus)
	// Create guards the restaurantId from the body inside the handler.
	menus.POST("", d.Owner.CreateMenu, upload("images", true, 10))
	menus.GET("/:id", d.Owner.GetMenu, ownMenu)
	menus.PUT("/:id", d.Owner.UpdateMenu, ownMenu)
	menus.DELETE("/:id", d.Owner.DeleteMenu, ownMenu)
	menus.POST("/:id/image", d.Owner.AddMenuImages, ownMenu, upload("images", true, 10))
	menus.POST("/:id/qrcode", d.Owner.RegenerateQRCode, ownMenu)

	items := api.Group("/menu-items")
	ownItem := middleware.RequireOwnership(d.Owner.Items, "id")
	items.GET("", d.Owner.ListMenuItems)
	items.POST("", d.Owner.CreateMenuItem)
	items.GET("/:id", d.Owner.GetMenuItem, ownItem)
	items.PUT("/:id", d.Owner.UpdateMenuItem, ownItem)
	items.DELETE("/:id", d.Owner.DeleteMenuItem, ownItem)
	items.POST("/:id/image", d.Owner.UploadMenuItemImage, ownItem, upload("image", false, 1))
}

func registerPublic(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig("public"), d.Redis)
	cached := middleware.NewResponseCache(config.LoadCacheConfig(), d.Cache)

	pub := e.Group("/api/public", limit, cached)
	pub.GET("/menus/:menuId", d.Public.Menu)
	pub.GET("/restaurants/:restaurantId", d.Public.Restaurant)

	// QR landing: printed codes resolve here and bounce to the frontend.
	e.GET("/r/:menuId", d.Public.Redirect, limit, cached)
}
