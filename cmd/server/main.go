package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/config"
	"github.com/prueba/login-api/internal/database"
	"github.com/prueba/login-api/internal/handler"
	"github.com/prueba/login-api/internal/oauth"
	"github.com/prueba/login-api/internal/queue"
	"github.com/prueba/login-api/internal/repository"
	"github.com/prueba/login-api/internal/router"
	"github.com/prueba/login-api/internal/service"
)

func main() {
	// Load .env in development; a missing file is fine in prod where
	// the environment comes from the orchestrator.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTTLMin)
	authenticator := auth.NewAuthenticator(userRepo, tokens)
	linker := auth.NewSocialLinker(userRepo, roleRepo, cfg.DefaultRole)
	users := service.NewUserService(userRepo, roleRepo, cfg.DefaultRole, cfg.BcryptCost)
	oauthClient := oauth.NewClient(cfg)

	// Redis is optional; without it login rate limiting is disabled.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, login rate limiting disabled")
	}

	// Audit trail consumer; runs its own reconnect loop forever.
	go func() {
		if err := queue.StartAuthEventConsumer(); err != nil {
			log.Printf("auth-consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e,
		handler.NewAuthHandler(authenticator, linker, tokens, oauthClient),
		handler.NewUserHandler(users),
		tokens, config.LoadRateLimitConfig(), rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
