// Package cookie writes and clears the refresh token cookie.
package cookie

import (
	"net/http"
	"time"
)

// Binder owns the refresh cookie attributes. Set and Clear use the same
// name, path and domain, otherwise browsers keep the old cookie.
type Binder struct {
	name     string
	path     string
	domain   string
	secure   bool
	sameSite http.SameSite
}

type Option func(*Binder)

func WithPath(path string) Option {
	return func(b *Binder) {
		b.path = path
	}
}

func WithDomain(domain string) Option {
	return func(b *Binder) {
		b.domain = domain
	}
}

func WithSecure(secure bool) Option {
	return func(b *Binder) {
		b.secure = secure
	}
}

func WithSameSite(mode http.SameSite) Option {
	return func(b *Binder) {
		b.sameSite = mode
	}
}

// NewBinder defaults to an HttpOnly, Secure, SameSite=None cookie on "/".
func NewBinder(name string, opts ...Option) *Binder {
	b := &Binder{
		name:     name,
		path:     "/",
		secure:   true,
		sameSite: http.SameSiteNoneMode,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Binder) Name() string {
	return b.name
}

// SetRefreshCookie stores token for maxAge, the refresh lifetime granted.
func (b *Binder) SetRefreshCookie(w http.ResponseWriter, token string, maxAge time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.name,
		Value:    token,
		Path:     b.path,
		Domain:   b.domain,
		MaxAge:   int(maxAge / time.Second),
		Expires:  time.Now().Add(maxAge),
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: b.sameSite,
	})
}

// ClearRefreshCookie expires the cookie immediately.
func (b *Binder) ClearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     b.name,
		Value:    "",
		Path:     b.path,
		Domain:   b.domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   b.secure,
		SameSite: b.sameSite,
	})
}

// RefreshToken returns the cookie value, or "" when absent.
func (b *Binder) RefreshToken(r *http.Request) string {
	c, err := r.Cookie(b.name)
	if err != nil {
		return ""
	}
	return c.Value
}
