package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type stubIdempotencyStore struct {
	records map[string]string
	setTTLs map[string]time.Duration
}

func newStubIdempotencyStore() *stubIdempotencyStore {
	return &stubIdempotencyStore{
		records: map[string]string{},
		setTTLs: map[string]time.Duration{},
	}
}

func (s *stubIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	return s.records[key], nil
}

func (s *stubIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := s.records[key]; ok {
		return false, nil
	}
	s.records[key] = value.(string)
	s.setTTLs[key] = ttl
	return true, nil
}

func (s *stubIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (s *stubIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.records, key)
	}
	return nil
}

func newIdempotencyRouter(store *stubIdempotencyStore, calls *int) http.Handler {
	r := chi.NewRouter()
	r.With(Idempotency(store, testLogger())).Post("/api/v1/vouchers", func(w http.ResponseWriter, req *http.Request) {
		*calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"code":"SUMMER10"}}`))
	})
	return r
}

func TestIdempotencyRequiresHeaderOnGuardedRoute(t *testing.T) {
	calls := 0
	router := newIdempotencyRouter(newStubIdempotencyStore(), &calls)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, 0, calls)
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	calls := 0
	store := newStubIdempotencyStore()
	router := newIdempotencyRouter(store, &calls)

	body := `{"code":"SUMMER10","kind":"percentage"}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", strings.NewReader(body))
	first.Header.Set("Idempotency-Key", "abc-123")
	firstRec := httptest.NewRecorder()
	router.ServeHTTP(firstRec, first)

	require.Equal(t, http.StatusCreated, firstRec.Code)
	require.Equal(t, 1, calls)
	require.Len(t, store.records, 1)
	for key := range store.setTTLs {
		require.Equal(t, defaultIdempotencyTTL, store.setTTLs[key])
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", strings.NewReader(body))
	second.Header.Set("Idempotency-Key", "abc-123")
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, second)

	require.Equal(t, http.StatusCreated, secondRec.Code)
	require.Equal(t, firstRec.Body.String(), secondRec.Body.String())
	require.Equal(t, "application/json", secondRec.Header().Get("Content-Type"))
	require.Equal(t, 1, calls, "replay must not reach the handler again")
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	calls := 0
	store := newStubIdempotencyStore()
	router := newIdempotencyRouter(store, &calls)

	first := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", strings.NewReader(`{"code":"SUMMER10"}`))
	first.Header.Set("Idempotency-Key", "abc-123")
	router.ServeHTTP(httptest.NewRecorder(), first)
	require.Equal(t, 1, calls)

	second := httptest.NewRequest(http.MethodPost, "/api/v1/vouchers", strings.NewReader(`{"code":"WINTER20"}`))
	second.Header.Set("Idempotency-Key", "abc-123")
	secondRec := httptest.NewRecorder()
	router.ServeHTTP(secondRec, second)

	require.Equal(t, http.StatusConflict, secondRec.Code)
	require.Contains(t, secondRec.Body.String(), "IDEMPOTENCY_KEY_REUSED")
	require.Equal(t, 1, calls)
}

func TestIdempotencySkipsUnguardedRoutes(t *testing.T) {
	calls := 0
	store := newStubIdempotencyStore()
	r := chi.NewRouter()
	r.With(Idempotency(store, testLogger())).Get("/api/v1/vouchers", func(w http.ResponseWriter, req *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vouchers", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 1, calls)
	require.Empty(t, store.records)
}

func TestRouteTTLUsesLongerWindowForRedemptions(t *testing.T) {
	ttl, ok := routeTTL(http.MethodPost, "/api/v1/vouchers/{voucherId}/redeem")
	require.True(t, ok)
	require.Equal(t, criticalIdempotencyTTL, ttl)

	_, ok = routeTTL(http.MethodPost, "/api/v1/vouchers/{voucherId}/cancel")
	require.False(t, ok)
}
