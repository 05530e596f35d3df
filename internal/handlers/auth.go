package handlers

import (
	"errors"
	"net/http"

	"cryptodash/internal/auth"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password is required"})
		return
	}

	token, _, err := h.auth.Login(c.Request.Context(), req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		h.log.Warnf("failed login from %s", c.ClientIP())
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	if err != nil {
		h.log.Errorf("issue session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}
	h.cookies.Set(c, token, int(h.auth.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Logout expires the session cookie whether or not one was sent.
func (h *Handler) Logout(c *gin.Context) {
	h.cookies.Clear(c)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) Verify(c *gin.Context) {
	token, err := c.Cookie(auth.CookieName)
	if err != nil || token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	if h.auth.Verify(token) != nil {
		h.cookies.Clear(c)
		c.JSON(http.StatusUnauthorized, gin.H{"authenticated": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"authenticated": true})
}

const loginForm = `<!doctype html>
<html><head><meta charset="utf-8"><title>Sign in</title></head>
<body>
<form id="login">
<input type="password" name="password" placeholder="Password" autofocus>
<button type="submit">Sign in</button>
<p id="error"></p>
</form>
<script>
document.getElementById('login').addEventListener('submit', async (e) => {
  e.preventDefault();
  const res = await fetch('/api/auth/login', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({password: e.target.password.value}),
  });
  if (res.ok) {
    const from = new URLSearchParams(location.search).get('from');
    location.href = from && from.startsWith('/') && !from.startsWith('//') ? from : '/';
    return;
  }
  document.getElementById('error').textContent = (await res.json()).error;
});
</script>
</body></html>`

// LoginPage sends an authenticated caller on to where they were going and
// otherwise renders the login view.
func (h *Handler) LoginPage(c *gin.Context) {
	if auth.Authenticated(h.auth, c) {
		c.Redirect(http.StatusFound, auth.SafeReturnTo(c.Query(auth.ReturnToParam)))
		return
	}
	if h.serveIndex(c) {
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(loginForm))
}
