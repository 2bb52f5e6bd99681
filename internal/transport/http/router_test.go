package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmudassar1/codesistensy-ecommerce/internal/cache"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/cookies"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/db"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/events"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/handlers"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/logging"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/metrics"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/models"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/repo"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/service"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/session"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/storage"
	"github.com/mmudassar1/codesistensy-ecommerce/internal/tokens"
)

type testServer struct {
	*httptest.Server
	repo *repo.GormRepo
	mr   *miniredis.Miniredis
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()
	ctx := context.Background()

	gdb, err := db.OpenTest(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(gdb) })

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	codec, err := tokens.NewCodec([]byte("access-secret"), []byte("refresh-secret"))
	require.NoError(t, err)

	r := repo.New(gdb)
	sessions := session.NewStore(rdb, session.DefaultTTL)
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)

	auth := &service.AuthService{
		Users:    r,
		Sessions: sessions,
		Tokens:   codec,
		Events:   events.Nop{},
		Metrics:  rec,
	}

	e := New(&Deps{
		AuthHandler: &handlers.AuthHandler{
			Svc:     auth,
			Cookies: cookies.NewTransport(false, codec.AccessTTL(), codec.RefreshTTL()),
		},
		ProductHandler: &handlers.ProductHandler{Svc: &service.ProductService{
			Repo:    r,
			Cache:   cache.NewJSON(rdb),
			Images:  storage.Disabled{},
			Events:  events.Nop{},
			Metrics: rec,
		}},
		CouponHandler: &handlers.CouponHandler{Svc: &service.CouponService{Repo: r}},
		CartHandler:   &handlers.CartHandler{Svc: &service.CartService{Repo: r}},
		HealthHandler: &handlers.HealthHandler{Checks: map[string]handlers.Pinger{
			"database": r,
			"redis":    sessions,
		}},
		Authenticator: auth,
		Logger:        logging.Discard(),
		Metrics:       rec,
		Gatherer:      reg,
		AuthRateLimit: rateLimit,
	})

	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, repo: r, mr: mr}
}

func (s *testServer) client(t *testing.T) *http.Client {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &http.Client{Jar: jar, Timeout: 5 * time.Second}
}

type response struct {
	Code int
	Body map[string]any
}

func call(t *testing.T, c *http.Client, method, u string, body any, extra ...*http.Cookie) response {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, u, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, ck := range extra {
		req.AddCookie(ck)
	}

	resp, err := c.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := response{Code: resp.StatusCode}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out.Body))
	}
	return out
}

func cookieValue(t *testing.T, c *http.Client, rawURL, name string) string {
	t.Helper()
	u, err := url.Parse(rawURL)
	require.NoError(t, err)
	for _, ck := range c.Jar.Cookies(u) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, 0)
	c := s.client(t)

	res := call(t, c, http.MethodPost, s.URL+"/auth/signup", map[string]string{
		"name": "Ann", "email": "Ann@Example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, res.Code)
	user := res.Body["user"].(map[string]any)
	assert.Equal(t, "ann@example.com", user["email"])
	assert.Equal(t, "user", user["role"])
	assert.NotEmpty(t, cookieValue(t, c, s.URL, cookies.AccessName))
	assert.NotEmpty(t, cookieValue(t, c, s.URL, cookies.RefreshName))

	res = call(t, c, http.MethodPost, s.URL+"/auth/signup", map[string]string{
		"name": "Ann", "email": "ann@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusBadRequest, res.Code)
	assert.Equal(t, "user already exists with this email", res.Body["message"])

	res = call(t, c, http.MethodGet, s.URL+"/auth/profile", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Ann", res.Body["user"].(map[string]any)["name"])

	oldRefresh := cookieValue(t, c, s.URL, cookies.RefreshName)
	res = call(t, c, http.MethodPost, s.URL+"/auth/refresh-token", nil)
	require.Equal(t, http.StatusOK, res.Code)
	newRefresh := cookieValue(t, c, s.URL, cookies.RefreshName)
	assert.NotEqual(t, oldRefresh, newRefresh)

	// A rotated-out refresh token is refused.
	bare := &http.Client{Timeout: 5 * time.Second}
	res = call(t, bare, http.MethodPost, s.URL+"/auth/refresh-token", nil,
		&http.Cookie{Name: cookies.RefreshName, Value: oldRefresh})
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Invalid refresh token", res.Body["message"])

	res = call(t, c, http.MethodGet, s.URL+"/auth/profile", nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = call(t, c, http.MethodPost, s.URL+"/auth/logout", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "Logged out successfully", res.Body["message"])
	assert.Empty(t, cookieValue(t, c, s.URL, cookies.AccessName))
	assert.Empty(t, cookieValue(t, c, s.URL, cookies.RefreshName))

	res = call(t, c, http.MethodPost, s.URL+"/auth/refresh-token", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)

	res = call(t, bare, http.MethodPost, s.URL+"/auth/refresh-token", nil,
		&http.Cookie{Name: cookies.RefreshName, Value: newRefresh})
	assert.Equal(t, http.StatusForbidden, res.Code)

	res = call(t, c, http.MethodGet, s.URL+"/auth/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Equal(t, "Unauthorized No access-token provided", res.Body["message"])
}

func TestLoginFailures(t *testing.T) {
	s := newTestServer(t, 0)
	c := s.client(t)

	res := call(t, c, http.MethodPost, s.URL+"/auth/signup", map[string]string{
		"name": "Bo", "email": "bo@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	fresh := s.client(t)
	res = call(t, fresh, http.MethodPost, s.URL+"/auth/login", map[string]string{
		"email": "bo@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
	assert.Empty(t, cookieValue(t, fresh, s.URL, cookies.AccessName))

	res = call(t, fresh, http.MethodPost, s.URL+"/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "secret1",
	})
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = call(t, fresh, http.MethodPost, s.URL+"/auth/login", map[string]string{"email": "bo@example.com"})
	assert.Equal(t, http.StatusBadRequest, res.Code)

	res = call(t, fresh, http.MethodPost, s.URL+"/auth/login", map[string]string{
		"email": "bo@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, "login successful", res.Body["message"])
	assert.NotEmpty(t, cookieValue(t, fresh, s.URL, cookies.AccessName))

	res = call(t, s.client(t), http.MethodPost, s.URL+"/auth/refresh-token", nil,
		&http.Cookie{Name: cookies.RefreshName, Value: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestProductsAndAdminRoutes(t *testing.T) {
	s := newTestServer(t, 0)
	ctx := context.Background()

	require.NoError(t, s.repo.CreateUser(ctx, &models.User{
		Name: "Root", Email: "root@example.com", Password: "secret1", Role: models.RoleAdmin,
	}))
	admin := s.client(t)
	res := call(t, admin, http.MethodPost, s.URL+"/auth/login", map[string]string{
		"email": "root@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, res.Code)

	shopper := s.client(t)
	res = call(t, shopper, http.MethodPost, s.URL+"/auth/signup", map[string]string{
		"name": "Cy", "email": "cy@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, res.Code)

	product := map[string]any{"name": "Jeans", "description": "blue", "price": 49.5, "category": "jeans"}
	res = call(t, shopper, http.MethodPost, s.URL+"/products", product)
	assert.Equal(t, http.StatusForbidden, res.Code)
	assert.Equal(t, "Forbidden Access denied - Admin Only", res.Body["message"])

	res = call(t, admin, http.MethodPost, s.URL+"/products", product)
	require.Equal(t, http.StatusCreated, res.Code)
	id := res.Body["product"].(map[string]any)["id"].(string)

	withImage := map[string]any{
		"name": "Hat", "description": "red", "price": 10, "category": "hats",
		"image": "data:image/png;base64,iVBORw0KGgo=",
	}
	res = call(t, admin, http.MethodPost, s.URL+"/products", withImage)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)

	res = call(t, admin, http.MethodPatch, s.URL+"/products/"+id+"/featured", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Equal(t, true, res.Body["product"].(map[string]any)["isFeatured"])

	res = call(t, shopper, http.MethodGet, s.URL+"/products/featured", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["products"], 1)
	assert.True(t, s.mr.Exists(service.FeaturedCacheKey))

	res = call(t, shopper, http.MethodGet, s.URL+"/products?page=1&size=5", nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.EqualValues(t, 1, res.Body["meta"].(map[string]any)["total"])

	res = call(t, shopper, http.MethodGet, s.URL+"/products/category/shoes", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "No products found in this category", res.Body["message"])

	res = call(t, shopper, http.MethodPost, s.URL+"/cart", map[string]string{"productId": id})
	require.Equal(t, http.StatusOK, res.Code)
	assert.Len(t, res.Body["cart"], 1)

	res = call(t, shopper, http.MethodPut, s.URL+"/cart/"+id, map[string]int{"quantity": 3})
	require.Equal(t, http.StatusOK, res.Code)
	line := res.Body["cart"].([]any)[0].(map[string]any)
	assert.EqualValues(t, 3, line["quantity"])

	res = call(t, shopper, http.MethodPost, s.URL+"/coupons/validate", map[string]string{"code": "NOPE"})
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Coupon not found", res.Body["message"])

	res = call(t, admin, http.MethodDelete, s.URL+"/products/"+id, nil)
	require.Equal(t, http.StatusOK, res.Code)
	assert.False(t, s.mr.Exists(service.FeaturedCacheKey))

	res = call(t, admin, http.MethodDelete, s.URL+"/products/"+id, nil)
	assert.Equal(t, http.StatusNotFound, res.Code)

	res = call(t, admin, http.MethodDelete, s.URL+"/products/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, res.Code)
}

func TestAuthRateLimit(t *testing.T) {
	s := newTestServer(t, 1)
	c := s.client(t)
	body := map[string]string{"email": "x@example.com", "password": "secret1"}

	first := call(t, c, http.MethodPost, s.URL+"/auth/login", body)
	assert.Equal(t, http.StatusNotFound, first.Code)

	second := call(t, c, http.MethodPost, s.URL+"/auth/login", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Body["message"])
}

func TestHealthMetricsAndFallbackErrors(t *testing.T) {
	s := newTestServer(t, 0)
	c := s.client(t)

	res := call(t, c, http.MethodGet, s.URL+"/health/ready", nil)
	assert.Equal(t, http.StatusOK, res.Code)

	res = call(t, c, http.MethodGet, s.URL+"/no/such/route", nil)
	assert.Equal(t, http.StatusNotFound, res.Code)
	assert.Equal(t, "Not Found", res.Body["message"])

	resp, err := c.Get(s.URL + "/metrics")
	require.NoError(t, err)
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Contains(t, string(raw), `shop_http_requests_total{status="404"}`)

	s.mr.Close()
	res = call(t, c, http.MethodGet, s.URL+"/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.Code)
	assert.Equal(t, "unavailable", res.Body["checks"].(map[string]any)["redis"])

	res = call(t, c, http.MethodGet, s.URL+"/health/live", nil)
	assert.Equal(t, http.StatusOK, res.Code)
}
