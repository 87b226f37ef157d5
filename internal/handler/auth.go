package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/prueba/login-api/internal/auth"
	"github.com/prueba/login-api/internal/oauth"
	"github.com/prueba/login-api/internal/queue"
	"github.com/prueba/login-api/internal/service"
)

// stateCookie carries the anti-CSRF state between the authorize
// redirect and the provider callback.
const stateCookie = "oauth_state"

// AuthHandler bundles dependencies for the login endpoints. Both the
// credential and the social path end in the same TokenService, so the
// response shape is identical regardless of how the user proved their
// identity.
type AuthHandler struct {
	Authenticator *auth.Authenticator
	Linker        *auth.SocialLinker
	Tokens        *auth.TokenService
	OAuth         *oauth.Client
}

func NewAuthHandler(a *auth.Authenticator, l *auth.SocialLinker, t *auth.TokenService, o *oauth.Client) *AuthHandler {
	return &AuthHandler{Authenticator: a, Linker: l, Tokens: t, OAuth: o}
}

type loginReq struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies a username/password pair and returns a signed access
// token. Unknown user and wrong password are indistinguishable in the
// response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.Username == "" || req.Password == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "username/password required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Authenticator.LoginUser(ctx, req.Username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrBadCredentials) || errors.Is(err, auth.ErrUserDisabled) {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}

	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{Type: queue.EventLoginSuccess, Email: res.Username})
	return c.JSON(http.StatusOK, res)
}

// Authorize redirects the browser to the provider's consent screen
// with a fresh anti-CSRF state bound to a cookie.
func (h *AuthHandler) Authorize(c echo.Context) error {
	provider := c.Param("provider")
	state, err := oauth.StateToken()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "state generation failed"})
	}
	url, err := h.OAuth.AuthCodeURL(provider, state)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unknown provider"})
	}
	c.SetCookie(&http.Cookie{
		Name:     stateCookie,
		Value:    state,
		Path:     "/login/oauth2",
		MaxAge:   300,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return c.Redirect(http.StatusFound, url)
}

// Callback handles the provider redirect: it exchanges the
// authorization code, fetches the profile, reconciles it against the
// local account store and issues a token through the same service the
// credential path uses.
func (h *AuthHandler) Callback(c echo.Context) error {
	provider := c.Param("provider")
	code := c.QueryParam("code")
	if code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing authorization code"})
	}
	// Authorize always binds the state to a cookie; a callback without
	// it was not initiated here and gets no pass on the CSRF check.
	cookie, err := c.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != c.QueryParam("state") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "state mismatch"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	token, err := h.OAuth.Exchange(ctx, provider, code)
	if err != nil {
		if errors.Is(err, auth.ErrUnknownProvider) {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "unknown provider"})
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "code exchange failed"})
	}
	claims, err := h.OAuth.FetchProfile(ctx, provider, token)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "profile fetch failed"})
	}

	user, err := h.Linker.Reconcile(ctx, provider, claims)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingClaim):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "provider profile incomplete"})
		case errors.Is(err, auth.ErrUnknownProvider), errors.Is(err, auth.ErrRoleNotConfigured):
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "social login misconfigured"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "social login failed"})
		}
	}

	jwt, err := h.Tokens.CreateToken(user.Email, auth.AuthoritiesOf(user.Roles))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}

	_ = service.PublishAuthEvent(ctx, queue.AuthEvent{
		Type:     queue.EventSocialLogin,
		Email:    user.Email,
		Provider: provider,
	})
	return c.JSON(http.StatusOK, auth.AuthResult{
		Username: user.Email,
		Message:  "login successful",
		Token:    jwt,
		Success:  true,
	})
}
