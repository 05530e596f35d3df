// Package auth gates the dashboard behind a single shared password and a
// signed, time-limited session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidCredentials = errors.New("invalid password")
	ErrUnauthenticated    = errors.New("not authenticated")
)

// Claims is the session token payload.
type Claims struct {
	Authenticated bool `json:"authenticated"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies session tokens. The first secret signs;
// every secret is accepted on verification so a rotated-out secret keeps
// existing sessions alive until they expire.
type Authenticator struct {
	password string
	secrets  [][]byte
	ttl      time.Duration
	delay    time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration)
}

type Option func(*Authenticator)

// WithClock replaces time.Now for issuing and verifying tokens.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

// WithSleep replaces the failure delay implementation.
func WithSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(a *Authenticator) { a.sleep = sleep }
}

func New(password string, secrets []string, ttl, failureDelay time.Duration, opts ...Option) (*Authenticator, error) {
	if len(secrets) == 0 {
		return nil, errors.New("auth: at least one signing secret is required")
	}
	a := &Authenticator{
		password: password,
		ttl:      ttl,
		delay:    failureDelay,
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, s := range secrets {
		a.secrets = append(a.secrets, []byte(s))
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func sleepCtx(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func (a *Authenticator) TTL() time.Duration { return a.ttl }

// Login checks password and returns a signed token with its expiry.
// A wrong password is answered only after the failure delay.
func (a *Authenticator) Login(ctx context.Context, password string) (string, time.Time, error) {
	if password != a.password {
		a.sleep(ctx, a.delay)
		return "", time.Time{}, ErrInvalidCredentials
	}
	return a.Issue()
}

// Issue signs a new session token with the current secret.
func (a *Authenticator) Issue() (string, time.Time, error) {
	now := a.now()
	exp := now.Add(a.ttl)
	claims := Claims{
		Authenticated: true,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secrets[0])
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return token, exp, nil
}

// Verify accepts a token signed by any configured secret that is unexpired
// and asserts authentication. Every failure is ErrUnauthenticated.
func (a *Authenticator) Verify(token string) error {
	if token == "" {
		return ErrUnauthenticated
	}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(a.now),
	)
	for _, secret := range a.secrets {
		var claims Claims
		_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
			return secret, nil
		})
		if err == nil && claims.Authenticated {
			return nil
		}
	}
	return ErrUnauthenticated
}
