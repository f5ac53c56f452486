package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/middleware"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/session"
)

// Sessions is what the auth endpoints need from session.Manager.
type Sessions interface {
	Login(ctx context.Context, cred model.Credentials) (*session.Issued, error)
	Register(ctx context.Context, reg model.Registration) (*session.Issued, error)
	Logout(ctx context.Context, sessionID string) error
	LogoutEverywhere(ctx context.Context, principalID int64) error
}

// AuthHandler serves login, registration, logout and the route gate.
type AuthHandler struct {
	Sessions     Sessions
	SecureCookie bool
}

func NewAuthHandler(s Sessions, secureCookie bool) *AuthHandler {
	return &AuthHandler{Sessions: s, SecureCookie: secureCookie}
}

type tokenPart struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

type authResp struct {
	User    *model.Session `json:"user"`
	Session tokenPart      `json:"session"`
	// ReturnTo echoes where the login prompt came from.
	ReturnTo string `json:"returnTo,omitempty"`
}

func (h *AuthHandler) setCookie(c echo.Context, value string, expires time.Time) {
	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (h *AuthHandler) issued(c echo.Context, code int, is *session.Issued) error {
	h.setCookie(c, is.Token.Token, is.Token.Exp)
	return c.JSON(code, authResp{
		User:     is.Session,
		Session:  tokenPart{Token: is.Token.Token, Expires: is.Token.Exp},
		ReturnTo: safeReturnPath(c.QueryParam("returnTo")),
	})
}

// safeReturnPath keeps only local absolute paths.
func safeReturnPath(p string) string {
	if len(p) < 1 || p[0] != '/' || (len(p) > 1 && (p[1] == '/' || p[1] == '\\')) {
		return ""
	}
	return p
}

// Login handles POST /v1/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var cred model.Credentials
	if err := bind(c, &cred); err != nil {
		return err
	}
	is, err := h.Sessions.Login(c.Request().Context(), cred)
	if err != nil {
		return fail(err)
	}
	return h.issued(c, http.StatusOK, is)
}

// Register handles POST /v1/auth/register.  New accounts are customers.
func (h *AuthHandler) Register(c echo.Context) error {
	var reg model.Registration
	if err := bind(c, &reg); err != nil {
		return err
	}
	is, err := h.Sessions.Register(c.Request().Context(), reg)
	if err != nil {
		return fail(err)
	}
	return h.issued(c, http.StatusCreated, is)
}

// Logout handles POST /v1/auth/logout.  ?all=true ends every session of
// the principal.
func (h *AuthHandler) Logout(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	ctx := c.Request().Context()
	if c.QueryParam("all") == "true" {
		err = h.Sessions.LogoutEverywhere(ctx, s.PrincipalID)
	} else {
		err = h.Sessions.Logout(ctx, s.ID)
	}
	if err != nil {
		return fail(err)
	}
	h.setCookie(c, "", time.Unix(0, 0))
	return c.NoContent(http.StatusNoContent)
}

// Me handles GET /v1/me.
func (h *AuthHandler) Me(c echo.Context) error {
	s, err := currentSession(c)
	if err != nil {
		return fail(err)
	}
	return c.JSON(http.StatusOK, s)
}

// Gate handles GET /v1/gate?path=/checkout and tells the page shell what
// to do with a navigation.
func (h *AuthHandler) Gate(c echo.Context) error {
	path := c.QueryParam("path")
	if path == "" {
		return badRequest("path is required")
	}
	return c.JSON(http.StatusOK, session.Gate(path, middleware.CurrentSession(c)))
}
