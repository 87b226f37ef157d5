package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/config"
	"github.com/prueba/login-api/internal/handler"
	"github.com/prueba/login-api/internal/middleware"
)

// Register wires every route of the service onto the Echo instance.
//
// The token filter runs globally: it only populates the security
// context and never rejects, so public routes (login, OAuth2
// callbacks, registration, health) stay reachable with or without a
// token. Protected routes additionally pass RequireAuthority, which
// is where anonymous requests are turned away.
func Register(e *echo.Echo, a *handler.AuthHandler, u *handler.UserHandler,
	tokens *auth.TokenService, rlCfg config.RateLimitConfig, rdb *redis.Client) {

	e.Use(middleware.Authentication(tokens))

	e.GET("/healthz", handler.Health)

	// Credential login plus the OAuth2 dance. The login and register
	// endpoints carry the redis token bucket as brute-force
	// protection.
	limited := middleware.LoginRateLimit(rlCfg, rdb)
	e.POST("/login", a.Login, limited)
	e.GET("/login/oauth2/authorize/:provider", a.Authorize)
	e.GET("/login/oauth2/code/:provider", a.Callback)

	users := e.Group("/api/v1/users")
	users.POST("/register", u.Register, limited)

	// Everything below requires a valid token carrying ROLE_USER.
	protected := users.Group("")
	protected.Use(middleware.RequireAuthority(auth.RolePrefix + "USER"))
	protected.GET("", u.List)
	protected.GET("/my_profile", u.MyProfile)
	protected.GET("/:id", u.GetByID)
	protected.PUT("/:id", u.Update)
	protected.DELETE("/:id", u.Disable)
}
