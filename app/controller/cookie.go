package controller

import (
	"net/http"
	"time"

	"github.com/projectcamp/ms-go-projects/config"

	"github.com/labstack/echo/v4"
)

const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieHelper manages the auth cookie pair. Cookies are always httpOnly
// and strict same-site; Secure follows the environment.
type CookieHelper struct {
	cfg *config.Config
}

func NewCookieHelper(cfg *config.Config) *CookieHelper {
	return &CookieHelper{cfg: cfg}
}

func (h *CookieHelper) SetAuthCookies(c echo.Context, accessToken, refreshToken string) {
	h.setCookie(c, AccessTokenCookie, accessToken, int(h.cfg.AccessTokenTTL.Seconds()))
	h.setCookie(c, RefreshTokenCookie, refreshToken, int(h.cfg.RefreshTokenTTL.Seconds()))
}

func (h *CookieHelper) ClearAuthCookies(c echo.Context) {
	h.setCookie(c, AccessTokenCookie, "", -1)
	h.setCookie(c, RefreshTokenCookie, "", -1)
}

func (h *CookieHelper) GetRefreshToken(c echo.Context) string {
	cookie, err := c.Cookie(RefreshTokenCookie)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func (h *CookieHelper) setCookie(c echo.Context, name, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	c.SetCookie(cookie)
}
