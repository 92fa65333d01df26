package policykit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMiddleware() (*Middleware, *testCatalog, *memorySource) {
	catalog := newTestCatalog()
	source := newMemorySource()
	source.grant(testPolicy("site-ops", "user1", "", false,
		allow([]string{ActionReadDevice}, []string{"device?site=site123"})))

	e := newTestEvaluator(source, catalog)
	mw := NewMiddleware(e, WithUserIDExtractor(func(r *http.Request) string {
		return r.Header.Get("X-User-ID")
	}))
	return mw, catalog, source
}

// TestMiddlewareRequireActionAllowed tests the happy path and the context
// handoff to the handler
func TestMiddlewareRequireActionAllowed(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()

	var authorized Set
	handler := mw.RequireAction(ActionReadDevice, StaticResource(catalog.device("dev-1")))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorized = AuthorizedFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, authorized)
	assert.Equal(t, []string{"dev-1"}, resourceIDs(authorized))
}

// TestMiddlewareRequireActionForbidden tests the 403 path
func TestMiddlewareRequireActionForbidden(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()

	handler := mw.RequireAction(ActionReadDevice, StaticResource(catalog.device("dev-2")))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-2", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestMiddlewareRequireActionNoUser tests the 401 path
func TestMiddlewareRequireActionNoUser(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()

	handler := mw.RequireAction(ActionReadDevice, StaticResource(catalog.device("dev-1")))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not run")
		}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestMiddlewareDefaultUserExtractor tests reading the user from context
func TestMiddlewareDefaultUserExtractor(t *testing.T) {
	catalog := newTestCatalog()
	source := newMemorySource()
	source.grant(testPolicy("readers", "user1", "", false,
		allow([]string{ActionReadDevice}, []string{"device"})))

	mw := NewMiddleware(newTestEvaluator(source, catalog))

	handler := mw.RequireAction(ActionReadDevice, StaticResource(catalog.device("dev-1")))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req = req.WithContext(WithUserID(req.Context(), "user1"))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMiddlewareCustomErrorHandler tests overriding error rendering
func TestMiddlewareCustomErrorHandler(t *testing.T) {
	catalog := newTestCatalog()
	mw := NewMiddleware(newTestEvaluator(newMemorySource(), catalog),
		WithUserIDExtractor(func(r *http.Request) string { return r.Header.Get("X-User-ID") }),
		WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			w.WriteHeader(http.StatusTeapot)
		}))

	handler := mw.RequireAction(ActionReadDevice, StaticResource(catalog.device("dev-1")))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusTeapot, rec.Code)
}

// TestMiddlewareResourceFromQuery tests the query parameter extractor
func TestMiddlewareResourceFromQuery(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()
	registry := catalog.registry()

	handler := mw.RequireAction(ActionReadDevice, ResourceFromQuery(registry, "device", "device_id"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/device-keys?device_id=dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Missing query parameter is a bad request
	req = httptest.NewRequest(http.MethodGet, "/device-keys", nil)
	req.Header.Set("X-User-ID", "user1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestMiddlewareResourceFromHeader tests the header extractor
func TestMiddlewareResourceFromHeader(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()
	registry := catalog.registry()

	handler := mw.RequireAction(ActionReadDevice, ResourceFromHeader(registry, "device", "X-Device-ID"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/readings", nil)
	req.Header.Set("X-User-ID", "user1")
	req.Header.Set("X-Device-ID", "dev-1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

// TestMiddlewareClassResource tests scope narrowing on a listing route
func TestMiddlewareClassResource(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()
	registry := catalog.registry()

	var authorized Set
	handler := mw.RequireAction(ActionReadDevice, ClassResource(registry, "device"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authorized = AuthorizedFromContext(r.Context())
			w.WriteHeader(http.StatusOK)
		}))

	req := httptest.NewRequest(http.MethodGet, "/devices", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	// user1 only holds site123 devices, so the handler scope is narrowed
	assert.Equal(t, []string{"dev-1"}, resourceIDs(authorized))

	// An unregistered type is a bad request
	handler = mw.RequireAction(ActionReadDevice, ClassResource(registry, "sample"))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	req = httptest.NewRequest(http.MethodGet, "/samples", nil)
	req.Header.Set("X-User-ID", "user1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// TestMiddlewareRequireAnyAction tests the any-of variant
func TestMiddlewareRequireAnyAction(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()

	handler := mw.RequireAnyAction(
		[]string{ActionUpdateDevice, ActionReadDevice},
		StaticResource(catalog.device("dev-1")),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// None of the actions held
	handler = mw.RequireAnyAction(
		[]string{ActionUpdateDevice, ActionDeleteDevice},
		StaticResource(catalog.device("dev-1")),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not run")
	}))

	req = httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// TestMiddlewareResourceFromParam tests the path parameter extractor
func TestMiddlewareResourceFromParam(t *testing.T) {
	mw, catalog, _ := newTestMiddleware()
	registry := catalog.registry()

	mux := http.NewServeMux()
	mux.Handle("GET /devices/{deviceID}", mw.RequireAction(
		ActionReadDevice,
		ResourceFromParam(registry, "device", "deviceID"),
	)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/devices/dev-1", nil)
	req.Header.Set("X-User-ID", "user1")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/devices/dev-2", nil)
	req.Header.Set("X-User-ID", "user1")
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
