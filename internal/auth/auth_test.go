package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

func newTestAuth(t *testing.T, secrets []string, clk *clock, slept *time.Duration) *Authenticator {
	t.Helper()
	a, err := New("hunter2", secrets, 24*time.Hour, time.Second,
		WithClock(clk.Now),
		WithSleep(func(_ context.Context, d time.Duration) { *slept += d }),
	)
	require.NoError(t, err)
	return a
}

func TestLogin(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	var slept time.Duration
	a := newTestAuth(t, []string{"current"}, clk, &slept)

	_, _, err := a.Login(context.Background(), "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.Equal(t, time.Second, slept, "failed login is delayed")

	token, exp, err := a.Login(context.Background(), "hunter2")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, clk.t.Add(24*time.Hour), exp)
	assert.Equal(t, time.Second, slept, "successful login is not delayed")
	assert.NoError(t, a.Verify(token))
}

func TestVerify_Expiry(t *testing.T) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	var slept time.Duration
	a := newTestAuth(t, []string{"current"}, clk, &slept)

	token, _, err := a.Issue()
	require.NoError(t, err)

	clk.t = clk.t.Add(23 * time.Hour)
	assert.NoError(t, a.Verify(token))

	clk.t = clk.t.Add(2 * time.Hour)
	assert.ErrorIs(t, a.Verify(token), ErrUnauthenticated)
}

func TestVerify_SecretRotation(t *testing.T) {
	clk := &clock{t: time.Now()}
	var slept time.Duration

	old := newTestAuth(t, []string{"old"}, clk, &slept)
	oldToken, _, err := old.Issue()
	require.NoError(t, err)

	rotated := newTestAuth(t, []string{"new", "old"}, clk, &slept)
	assert.NoError(t, rotated.Verify(oldToken), "legacy secret still verifies")

	newToken, _, err := rotated.Issue()
	require.NoError(t, err)
	assert.ErrorIs(t, old.Verify(newToken), ErrUnauthenticated)

	stranger := newTestAuth(t, []string{"other"}, clk, &slept)
	assert.ErrorIs(t, stranger.Verify(oldToken), ErrUnauthenticated)
	assert.ErrorIs(t, stranger.Verify(""), ErrUnauthenticated)
	assert.ErrorIs(t, stranger.Verify("not.a.jwt"), ErrUnauthenticated)
}

func TestNew_RequiresSecret(t *testing.T) {
	_, err := New("pw", nil, time.Hour, 0)
	assert.Error(t, err)
}

func TestSafeReturnTo(t *testing.T) {
	cases := map[string]string{
		"":                     "/",
		"/admin":               "/admin",
		"/alerts?x=1":          "/alerts?x=1",
		"//evil.example":       "/",
		"https://evil.example": "/",
		`/\evil.example`:       "/",
		"admin":                "/",
	}
	for in, want := range cases {
		assert.Equal(t, want, SafeReturnTo(in), in)
	}
}

func TestIsPublic(t *testing.T) {
	assert.True(t, IsPublic("/login"))
	assert.True(t, IsPublic("/api/auth/verify"))
	assert.True(t, IsPublic("/favicon.ico"))
	assert.True(t, IsPublic("/assets/app"))
	assert.False(t, IsPublic("/"))
	assert.False(t, IsPublic("/admin"))
	assert.False(t, IsPublic("/api/holdings"))
	assert.False(t, IsPublic("/api/holdings/USDC.E"))
	assert.False(t, IsPublic("/api/metrics/x.json"))
}

func newGatedEngine(a *Authenticator) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequireSession(a, Cookies{Secure: true}, logrus.New()))
	ok := func(c *gin.Context) { c.String(http.StatusOK, "ok") }
	r.GET("/", ok)
	r.GET("/admin", ok)
	r.GET("/login", ok)
	r.GET("/api/holdings", ok)
	return r
}

func TestRequireSession(t *testing.T) {
	clk := &clock{t: time.Now()}
	var slept time.Duration
	a := newTestAuth(t, []string{"current", "legacy"}, clk, &slept)
	r := newGatedEngine(a)

	t.Run("no cookie redirects with return-to", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin?tab=csv", nil))
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/login?from=%2Fadmin%3Ftab%3Dcsv", w.Header().Get("Location"))
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("public path passes", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("valid token passes", func(t *testing.T) {
		token, _, err := a.Issue()
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "ok", w.Body.String())
	})

	t.Run("unknown secret redirects and clears cookie", func(t *testing.T) {
		foreign := newTestAuth(t, []string{"someone-else"}, clk, &slept)
		token, _, err := foreign.Issue()
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: CookieName, Value: token})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, LoginPath, w.Header().Get("Location"))
		cookie := w.Header().Get("Set-Cookie")
		assert.True(t, strings.HasPrefix(cookie, CookieName+"=;"), cookie)
		assert.Contains(t, cookie, "Max-Age=0")
	})

	t.Run("api request gets 401", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/holdings", nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())
	})
}
