package main // Entry point package

import (
	"fmt"
	"log"
	"os"

	"github.com/gorilla/sessions"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"

	"github.com/qrbites/qrbites/internal/cache"
	"github.com/qrbites/qrbites/internal/config"
	"github.com/qrbites/qrbites/internal/database"
	"github.com/qrbites/qrbites/internal/handler"
	"github.com/qrbites/qrbites/internal/httperr"
	"github.com/qrbites/qrbites/internal/queue"
	"github.com/qrbites/qrbites/internal/repository"
	"github.com/qrbites/qrbites/internal/router"
	"github.com/qrbites/qrbites/internal/service"
	"github.com/qrbites/qrbites/internal/storage"
	"github.com/qrbites/qrbites/internal/validation"
)

const version = "1.0.0"

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	var cacheStore cache.Store
	if rs := cache.NewRedisStore(rdb); rs != nil {
		cacheStore = rs
	}

	// Object storage: R2 in production, in-memory when no bucket is
	// configured so local development works without credentials.
	var store storage.ObjectStore
	if s3c := config.NewS3Client(cfg); s3c != nil {
		store = storage.NewS3Store(s3c, cfg.BucketName, cfg.PublicAssetURL)
	} else {
		log.Println("storage: no bucket configured, using in-memory store")
		store = storage.NewMemory()
	}

	// Federated sign-in via goth; sessions only carry the handshake state.
	if cfg.GoogleKey != "" {
		callback := fmt.Sprintf("%s/api/auth/google/callback", cfg.APIURL)
		goth.UseProviders(google.New(cfg.GoogleKey, cfg.GoogleSecret, callback))
		cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
		cookieStore.MaxAge(600)
		cookieStore.Options.Path = "/"
		cookieStore.Options.HttpOnly = true
		cookieStore.Options.Secure = cfg.Env == "production"
		gothic.Store = cookieStore
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	feds := repository.NewFederatedRepo(db)
	restaurants := repository.NewRestaurantRepo(db)
	menus := repository.NewMenuRepo(db)
	items := repository.NewMenuItemRepo(db)

	qr := service.NewQRCodeService(store, cfg.APIURL)
	creator := service.NewMenuCreator(menus, qr, store)

	e := echo.New()
	e.HideBanner = true
	e.Validator = validation.New()
	e.HTTPErrorHandler = httperr.HandlerFor(cfg.Env)
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, router.Deps{
		Cfg:    cfg,
		Redis:  rdb,
		Cache:  cacheStore,
		Users:  users,
		Auth:   handler.NewAuthHandler(cfg, users, tokens),
		OAuth:  handler.NewOAuthHandler(cfg, users, feds, tokens),
		User:   handler.NewUserHandler(cfg, users, restaurants),
		Owner:  handler.NewOwnerHandler(cfg, restaurants, menus, items, store, cacheStore, qr, creator),
		Public: handler.NewPublicHandler(cfg, restaurants, menus, items),
		Health: handler.NewHealthHandler(db, rdb, version),
	})

	// Audit consumer; reconnects forever in the background.
	if os.Getenv("RABBITMQ_URL") != "" || os.Getenv("AMQP_URL") != "" {
		go func() {
			if err := queue.StartCatalogConsumer(); err != nil {
				log.Printf("catalog-consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
