package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Derecoder4/Freelance-Fi/internal/domain/entity"
	"github.com/Derecoder4/Freelance-Fi/internal/domain/valueobject"
	"github.com/Derecoder4/Freelance-Fi/internal/http/middleware"
	"github.com/Derecoder4/Freelance-Fi/internal/repository/memory"
	"github.com/Derecoder4/Freelance-Fi/internal/service"
)

var testActor = valueobject.MustParseAddress("0x2222222222222222222222222222222222222222")

func newEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	return r
}

func newMemoryService() *service.GigService {
	store := memory.NewStore()
	return service.NewGigService(store, store, service.GigServiceConfig{
		Arbiter: valueobject.MustParseAddress("0x3333333333333333333333333333333333333333"),
	}, nil, nil)
}

func withActor(c *gin.Context) {
	c.Set(middleware.ContextAddressKey, testActor)
	c.Next()
}

func TestGigHandler_CreateGig_Unauthorized(t *testing.T) {
	r := newEngine()
	handler := &GigHandler{gigs: nil}
	r.POST("/gigs", handler.CreateGig)

	req, _ := http.NewRequest("POST", "/gigs", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// unreadableGigs пишет сделки, но любое чтение по id падает.
type unreadableGigs struct {
	*memory.Store
}

func (unreadableGigs) FindByID(context.Context, int64) (*entity.Gig, error) {
	return nil, errors.New("connection reset by peer")
}

func TestGigHandler_CreateGig_RespondsWithoutReread(t *testing.T) {
	store := memory.NewStore()
	amount, err := valueobject.NewAmount(500)
	require.NoError(t, err)
	_, err = store.Deposit(context.Background(), testActor, amount)
	require.NoError(t, err)

	svc := service.NewGigService(unreadableGigs{store}, store, service.GigServiceConfig{
		Arbiter: valueobject.MustParseAddress("0x3333333333333333333333333333333333333333"),
	}, nil, nil)

	r := newEngine()
	r.POST("/gigs", withActor, NewGigHandler(svc).CreateGig)

	body := `{"freelancer":"0x1111111111111111111111111111111111111111","description":"Logo redesign","amount":500}`
	req, _ := http.NewRequest("POST", "/gigs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"id":1`)
	assert.Contains(t, w.Body.String(), `"description":"Logo redesign"`)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)

	ids, err := store.ListIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestGigHandler_AcceptGig_InvalidID(t *testing.T) {
	r := newEngine()
	handler := &GigHandler{gigs: nil}
	r.POST("/gigs/:id/accept", withActor, handler.AcceptGig)

	req, _ := http.NewRequest("POST", "/gigs/not-a-number/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGigHandler_AcceptGig_NotFound(t *testing.T) {
	r := newEngine()
	handler := NewGigHandler(newMemoryService())
	r.POST("/gigs/:id/accept", withActor, handler.AcceptGig)

	req, _ := http.NewRequest("POST", "/gigs/42/accept", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"NOT_FOUND"`)
}

func TestGigHandler_ResolveDispute_MalformedBody(t *testing.T) {
	r := newEngine()
	handler := NewGigHandler(newMemoryService())
	r.POST("/gigs/:id/resolve", withActor, handler.ResolveDispute)

	req, _ := http.NewRequest("POST", "/gigs/1/resolve", strings.NewReader(`{"winner":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"code":"INVALID_INPUT"`)
}

func TestAccountHandler_GetBalance_Unauthorized(t *testing.T) {
	r := newEngine()
	handler := &AccountHandler{gigs: nil}
	r.GET("/accounts/me/balance", handler.GetBalance)

	req, _ := http.NewRequest("GET", "/accounts/me/balance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAccountHandler_GetBalance_EmptyAccount(t *testing.T) {
	r := newEngine()
	handler := NewAccountHandler(newMemoryService())
	r.GET("/accounts/me/balance", withActor, handler.GetBalance)

	req, _ := http.NewRequest("GET", "/accounts/me/balance", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"available":0`)
	assert.Contains(t, w.Body.String(), testActor.String())
}

func TestAccountHandler_Deposit_Disabled(t *testing.T) {
	r := newEngine()
	handler := NewAccountHandler(newMemoryService())
	r.POST("/accounts/deposit", withActor, handler.Deposit)

	req, _ := http.NewRequest("POST", "/accounts/deposit", strings.NewReader(`{"amount":100}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAuthHandler_DevToken_Disabled(t *testing.T) {
	r := newEngine()
	handler := NewAuthHandler(nil, false)
	r.POST("/auth/dev-token", handler.DevToken)

	req, _ := http.NewRequest("POST", "/auth/dev-token", strings.NewReader(`{"address":"0x2222222222222222222222222222222222222222"}`))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestHealthHandler_Memory(t *testing.T) {
	r := newEngine()
	r.GET("/health", NewHealthHandler(nil, "memory").Health)

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"storage":"memory"`)
}
