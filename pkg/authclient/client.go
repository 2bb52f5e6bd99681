package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	signupPath  = "/auth/signup"
	loginPath   = "/auth/login"
	logoutPath  = "/auth/logout"
	refreshPath = "/auth/refresh-token"
	profilePath = "/auth/profile"

	refreshKey = "refresh"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Client talks to the shop API with cookie-based sessions. A request that
// fails with 401 triggers one shared refresh and is replayed once.
type Client struct {
	baseURL    string
	httpClient *http.Client
	jar        *resettableJar
	timeout    time.Duration

	refreshGroup singleflight.Group

	mu   sync.RWMutex
	user *User
}

type Option func(*Client)

// WithTimeout bounds every request, including the shared refresh call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithTransport replaces the default transport.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.httpClient.Transport = rt }
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	jar, err := newResettableJar()
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		jar:     jar,
		timeout: 10 * time.Second,
		httpClient: &http.Client{
			Jar: jar,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.Timeout = c.timeout
	return c, nil
}

// User returns the locally known identity, if any.
func (c *Client) User() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.user == nil {
		return User{}, false
	}
	return *c.user, true
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

type userEnvelope struct {
	Message string `json:"message"`
	User    User   `json:"user"`
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (User, error) {
	var out userEnvelope
	body := map[string]string{"name": name, "email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, signupPath, mustJSON(body), &out); err != nil {
		return User{}, err
	}
	c.setUser(&out.User)
	return out.User, nil
}

func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var out userEnvelope
	body := map[string]string{"email": email, "password": password}
	if err := c.send(ctx, http.MethodPost, loginPath, mustJSON(body), &out); err != nil {
		return User{}, err
	}
	c.setUser(&out.User)
	return out.User, nil
}

// Logout forgets the local identity even if the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.setUser(nil)
	return c.send(ctx, http.MethodPost, logoutPath, nil, nil)
}

func (c *Client) Profile(ctx context.Context) (User, error) {
	var out userEnvelope
	if err := c.Do(ctx, http.MethodGet, profilePath, nil, &out); err != nil {
		return User{}, err
	}
	c.setUser(&out.User)
	return out.User, nil
}

// Refresh rotates the session cookies. It is never itself retried.
func (c *Client) Refresh(ctx context.Context) error {
	return c.send(ctx, http.MethodPost, refreshPath, nil, nil)
}

// Do sends a JSON request and decodes the response into out when non-nil.
// On 401 it joins or starts the single in-flight refresh and replays the
// request once. If the refresh fails the local identity and cookies are
// dropped and the original error is returned joined with the refresh error.
// A caller whose ctx ends while waiting gets ctx.Err() and leaves both intact.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode body: %w", err)
		}
		payload = b
	}

	err := c.send(ctx, method, path, payload, out)
	if !IsUnauthorized(err) || path == refreshPath {
		return err
	}

	refreshErr, waitErr := c.sharedRefresh(ctx)
	if waitErr != nil {
		// The shared refresh may still succeed for other callers.
		return errors.Join(err, waitErr)
	}
	if refreshErr != nil {
		c.setUser(nil)
		c.jar.Reset()
		return errors.Join(err, refreshErr)
	}
	return c.send(ctx, method, path, payload, out)
}

// sharedRefresh joins or starts the in-flight refresh. refreshErr is the
// refresh outcome; waitErr is set when ctx ended before that outcome arrived.
func (c *Client) sharedRefresh(ctx context.Context) (refreshErr, waitErr error) {
	ch := c.refreshGroup.DoChan(refreshKey, func() (any, error) {
		// Detached so one caller's cancellation does not fail every waiter.
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return nil, c.Refresh(rctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return fmt.Errorf("refresh session: %w", res.Err), nil
		}
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) error {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var msg struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&msg) == nil {
			apiErr.Message = msg.Message
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func mustJSON(v map[string]string) []byte {
	b, _ := json.Marshal(v)
	return b
}

type resettableJar struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

func newResettableJar() (*resettableJar, error) {
	j, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &resettableJar{jar: j}, nil
}

func (r *resettableJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.jar.SetCookies(u, cookies)
}

func (r *resettableJar) Cookies(u *url.URL) []*http.Cookie {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.jar.Cookies(u)
}

// Reset drops every stored cookie.
func (r *resettableJar) Reset() {
	j, _ := cookiejar.New(nil)
	r.mu.Lock()
	r.jar = j
	r.mu.Unlock()
}
