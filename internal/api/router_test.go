package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noosyn/product-api/internal/api/handler"
	"github.com/noosyn/product-api/internal/core/domain"
	"github.com/noosyn/product-api/internal/core/service"
	"github.com/noosyn/product-api/internal/infrastructure/security"
)

// ── in-memory storage ─────────────────────────────────────────────────────────

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
	seq   int
}

func (m *memUsers) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return &u, nil
}

func (m *memUsers) Save(_ context.Context, user *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Username]; ok {
		return nil, domain.ErrUsernameTaken
	}
	m.seq++
	u := *user
	u.ID = strconv.Itoa(m.seq)
	m.users[u.Username] = u
	return &u, nil
}

func (m *memUsers) remove(username string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, username)
}

type memProducts struct {
	mu       sync.Mutex
	products map[string]domain.Product
	seq      int
}

func (m *memProducts) Create(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	cp := *p
	cp.ID = strconv.Itoa(m.seq)
	m.products[cp.ID] = cp
	return &cp, nil
}

func (m *memProducts) FindByID(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return &p, nil
}

func (m *memProducts) List(_ context.Context, offset, limit int) ([]*domain.Product, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.products))
	for id := range m.products {
		n, _ := strconv.Atoi(id)
		ids = append(ids, n)
	}
	sort.Ints(ids)

	items := []*domain.Product{}
	for i := offset; i < len(ids) && i < offset+limit; i++ {
		p := m.products[strconv.Itoa(ids[i])]
		items = append(items, &p)
	}
	return items, int64(len(ids)), nil
}

func (m *memProducts) Update(_ context.Context, p *domain.Product) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[p.ID]; !ok {
		return nil, domain.ErrProductNotFound
	}
	m.products[p.ID] = *p
	cp := *p
	return &cp, nil
}

func (m *memProducts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return domain.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

// ── harness ───────────────────────────────────────────────────────────────────

type testServer struct {
	e     *echo.Echo
	users *memUsers
}

func newTestServer(t *testing.T, legacy bool) *testServer {
	t.Helper()

	secret := base64.StdEncoding.EncodeToString(bytes.Repeat([]byte("s"), 32))
	codec, err := security.NewJWTCodec(secret, time.Hour)
	require.NoError(t, err)

	users := &memUsers{users: map[string]domain.User{}}
	products := &memProducts{products: map[string]domain.Product{}}
	log := zerolog.Nop()

	authSvc := service.NewAuthService(users, security.NewBcryptHasher(bcrypt.MinCost), codec, nil, log)
	require.NoError(t, authSvc.EnsureAdmin(context.Background(), "admin", "admin-pw"))

	reg := prometheus.NewRegistry()
	e := NewRouter(Dependencies{
		Auth:              authSvc,
		Products:          service.NewProductService(products, log),
		Tokens:            codec,
		Health:            map[string]handler.Pinger{},
		Logger:            log,
		LegacyErrorStatus: legacy,
		Registerer:        reg,
		Gatherer:          reg,
	})
	return &testServer{e: e, users: users}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) token(t *testing.T, path, username, password string) string {
	t.Helper()
	rec := s.do(t, http.MethodPost, path, "", map[string]string{"username": username, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp["token"])
	return resp["token"]
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body handler.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body.Code
}

// ── scenarios ─────────────────────────────────────────────────────────────────

func TestRouter_AuthScenario(t *testing.T) {
	s := newTestServer(t, false)
	creds := map[string]string{"username": "alice", "password": "p1"}

	s.token(t, "/auth/register", "alice", "p1")

	rec := s.do(t, http.MethodPost, "/auth/register", "", creds)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ERR-101", errorCode(t, rec))

	s.token(t, "/auth/login", "alice", "p1")

	wrong := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "wrong"})
	ghost := s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "ghost", "password": "x"})
	for _, rec := range []*httptest.ResponseRecorder{wrong, ghost} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body handler.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ERR-102", body.Code)
		assert.Equal(t, "invalid credentials", body.Message)
	}

	rec = s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"username": "", "password": ""})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR-100", errorCode(t, rec))
}

func TestRouter_ProductAccessPolicy(t *testing.T) {
	s := newTestServer(t, false)
	userToken := s.token(t, "/auth/register", "alice", "p1")
	adminToken := s.token(t, "/auth/login", "admin", "admin-pw")

	rec := s.do(t, http.MethodGet, "/products", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR-105", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/products", "garbage.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR-105", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/products", userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"items":[],"currentPage":0,"totalItems":0,"totalPages":0}`, rec.Body.String())

	product := map[string]any{"name": "Widget", "price": 9.99}
	rec = s.do(t, http.MethodPost, "/products", userToken, product)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "ERR-106", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/products", adminToken, product)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	id, _ := created["id"].(string)
	require.NotEmpty(t, id)

	rec = s.do(t, http.MethodGet, "/products/"+id, userToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodPut, "/products/"+id, userToken, product)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/products/"+id, adminToken, map[string]any{"name": "Gizmo", "price": 12.5})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Gizmo"`)

	rec = s.do(t, http.MethodDelete, "/products/"+id, userToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodDelete, "/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(t, http.MethodGet, "/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ERR-201", errorCode(t, rec))

	rec = s.do(t, http.MethodDelete, "/products/"+id, adminToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_CatchAllAndPublicRoutes(t *testing.T) {
	s := newTestServer(t, false)
	token := s.token(t, "/auth/register", "alice", "p1")

	rec := s.do(t, http.MethodGet, "/does-not-exist", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/does-not-exist", token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "ERR-404", errorCode(t, rec))

	rec = s.do(t, http.MethodGet, "/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(t, http.MethodGet, "/users/me", token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"username":"alice","role":"USER"}`, rec.Body.String())

	for _, path := range []string{"/health", "/health/ready", "/metrics"} {
		rec = s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec = s.do(t, http.MethodGet, "/metrics", "", nil)
	assert.True(t, strings.Contains(rec.Body.String(), "product_api_requests_total"))
}

func TestRouter_TokenForRemovedUser(t *testing.T) {
	s := newTestServer(t, false)
	token := s.token(t, "/auth/register", "alice", "p1")

	s.users.remove("alice")

	rec := s.do(t, http.MethodGet, "/products", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR-103", errorCode(t, rec))

	// Public routes still reject the request: the authenticator runs first.
	rec = s.do(t, http.MethodPost, "/auth/login", token, map[string]string{"username": "x", "password": "y"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "ERR-103", errorCode(t, rec))
}

func TestRouter_LegacyErrorStatus(t *testing.T) {
	s := newTestServer(t, true)
	s.token(t, "/auth/register", "alice", "p1")

	rec := s.do(t, http.MethodPost, "/auth/register", "", map[string]string{"username": "alice", "password": "p1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR-101", errorCode(t, rec))

	rec = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR-102", errorCode(t, rec))
}

func TestRouter_RequestIDHeader(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func TestRouter_OutOfRangeInput(t *testing.T) {
	s := newTestServer(t, false)
	adminToken := s.token(t, "/auth/login", "admin", "admin-pw")

	// 40 runes, 80 bytes: over bcrypt's input limit.
	long := strings.Repeat("é", 40)
	for _, path := range []string{"/auth/register", "/auth/login"} {
		rec := s.do(t, http.MethodPost, path, "", map[string]string{"username": "bob", "password": long})
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "ERR-100", errorCode(t, rec), path)
	}

	rec := s.do(t, http.MethodGet, "/products?page="+strconv.Itoa(math.MaxInt64/5), adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ERR-100", errorCode(t, rec))

	for _, price := range []float64{0.001, 1e17} {
		rec = s.do(t, http.MethodPost, "/products", adminToken, map[string]any{"name": "Widget", "price": price})
		assert.Equal(t, http.StatusBadRequest, rec.Code, "price %v", price)
		assert.Equal(t, "ERR-100", errorCode(t, rec), "price %v", price)
	}
}

func TestRouter_SwaggerDocument(t *testing.T) {
	s := newTestServer(t, false)

	rec := s.do(t, http.MethodGet, "/swagger/doc.json", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "2.0", doc["swagger"])
	assert.Contains(t, rec.Body.String(), `"Product API"`)
	assert.Contains(t, rec.Body.String(), `"/products"`)
}
