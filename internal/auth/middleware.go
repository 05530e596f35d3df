package auth

import (
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const (
	CookieName = "auth-token"
	LoginPath  = "/login"
	// ReturnToParam carries the originally requested path through the login
	// redirect.
	ReturnToParam = "from"
)

// PublicPaths are reachable without a session.
var PublicPaths = []string{
	LoginPath,
	"/health",
	"/api/auth/login",
	"/api/auth/logout",
	"/api/auth/clear",
	"/api/auth/verify",
}

// Cookies writes and clears the session cookie.
type Cookies struct {
	Secure bool
}

func (c Cookies) Set(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(CookieName, token, maxAge, "/", "", c.Secure, true)
}

func (c Cookies) Clear(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteStrictMode)
	ctx.SetCookie(CookieName, "", -1, "/", "", c.Secure, true)
}

// IsPublic reports whether p bypasses the session check: an allow-listed
// path, anything under /assets/, or a request for a file with an extension
// outside /api/. API paths are never public by extension since symbols may
// contain dots.
func IsPublic(p string) bool {
	for _, pub := range PublicPaths {
		if p == pub {
			return true
		}
	}
	if strings.HasPrefix(p, "/assets/") {
		return true
	}
	return !strings.HasPrefix(p, "/api/") && path.Ext(p) != ""
}

// SafeReturnTo returns target when it is a local absolute path, else "/".
func SafeReturnTo(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.Contains(target, `\`) {
		return "/"
	}
	u, err := url.Parse(target)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	return target
}

// LoginRedirect builds the login URL preserving the requested path.
func LoginRedirect(r *http.Request) string {
	from := r.URL.Path
	if r.URL.RawQuery != "" {
		from += "?" + r.URL.RawQuery
	}
	if from == "/" || from == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{ReturnToParam: {from}}.Encode()
}

// RequireSession rejects requests without a valid session cookie. Page
// requests are redirected to the login view; /api/ requests get a 401 JSON
// body. An invalid cookie is cleared in both cases.
func RequireSession(a *Authenticator, cookies Cookies, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsPublic(c.Request.URL.Path) {
			c.Next()
			return
		}

		token, err := c.Cookie(CookieName)
		present := err == nil && token != ""
		if present && a.Verify(token) == nil {
			c.Next()
			return
		}

		if present {
			log.Debugf("rejecting invalid session cookie for %s", c.Request.URL.Path)
			cookies.Clear(c)
		}
		if strings.HasPrefix(c.Request.URL.Path, "/api/") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"authenticated": false})
			return
		}
		c.Redirect(http.StatusFound, LoginRedirect(c.Request))
		c.Abort()
	}
}

// Authenticated reports whether the request carries a valid session.
func Authenticated(a *Authenticator, c *gin.Context) bool {
	token, err := c.Cookie(CookieName)
	return err == nil && a.Verify(token) == nil
}
