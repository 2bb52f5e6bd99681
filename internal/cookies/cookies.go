package cookies

import (
	"net/http"
	"time"
)

const (
	AccessName  = "accessToken"
	RefreshName = "refreshToken"
)

// Token is an optional cookie value. An empty Value with Present set is a
// real (if useless) token and must not be mistaken for a missing one.
type Token struct {
	Value   string
	Present bool
}

type Tokens struct {
	Access  Token
	Refresh Token
}

type Transport struct {
	Secure     bool
	Path       string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewTransport(secure bool, accessTTL, refreshTTL time.Duration) *Transport {
	return &Transport{
		Secure:     secure,
		Path:       "/",
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}
}

func (t *Transport) cookie(name, value string, ttl time.Duration) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     t.Path,
		MaxAge:   int(ttl / time.Second),
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   t.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (t *Transport) Write(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, t.cookie(AccessName, accessToken, t.AccessTTL))
	http.SetCookie(w, t.cookie(RefreshName, refreshToken, t.RefreshTTL))
}

func (t *Transport) Clear(w http.ResponseWriter) {
	for _, name := range []string{AccessName, RefreshName} {
		c := t.cookie(name, "", 0)
		c.MaxAge = -1
		c.Expires = time.Unix(0, 0)
		http.SetCookie(w, c)
	}
}

func Read(r *http.Request) Tokens {
	return Tokens{
		Access:  readOne(r, AccessName),
		Refresh: readOne(r, RefreshName),
	}
}

func readOne(r *http.Request, name string) Token {
	c, err := r.Cookie(name)
	if err != nil {
		return Token{}
	}
	return Token{Value: c.Value, Present: true}
}
