package policykit

import (
	"errors"
	"net/http"
)

// Middleware provides HTTP middleware for permission checking.
type Middleware struct {
	evaluator    *Evaluator
	getUserID    func(*http.Request) string
	errorHandler func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the Middleware.
type MiddlewareOption func(*Middleware)

// NewMiddleware creates a new Middleware instance.
//
// Example:
//
//	mw := policykit.NewMiddleware(store.Evaluator(),
//	    policykit.WithUserIDExtractor(func(r *http.Request) string {
//	        return r.Header.Get("X-User-ID")
//	    }),
//	)
func NewMiddleware(evaluator *Evaluator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		evaluator:    evaluator,
		getUserID:    defaultGetUserID,
		errorHandler: defaultErrorHandler,
	}

	for _, opt := range opts {
		opt(m)
	}

	return m
}

// WithUserIDExtractor sets a custom function to extract user ID from request.
func WithUserIDExtractor(fn func(*http.Request) string) MiddlewareOption {
	return func(m *Middleware) {
		m.getUserID = fn
	}
}

// WithErrorHandler sets a custom error handler for middleware.
func WithErrorHandler(fn func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.errorHandler = fn
	}
}

func defaultGetUserID(r *http.Request) string {
	return GetUserID(r.Context())
}

func defaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, ErrNoUserID) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if IsUnauthorized(err) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if IsUnknownResource(err) || IsUnknownAction(err) {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// ResourceExtractor extracts the candidate resource from an HTTP request.
type ResourceExtractor func(*http.Request) (Resource, error)

// ResourceFromParam creates a ResourceExtractor that resolves "<type>/<id>"
// from a URL path parameter.
//
// Example:
//
//	// For route /devices/{deviceID}
//	mw.RequireAction(policykit.ActionReadDevice,
//	    policykit.ResourceFromParam(resources, "device", "deviceID"))
func ResourceFromParam(resources *ResourceRegistry, resourceType, paramName string) ResourceExtractor {
	return func(r *http.Request) (Resource, error) {
		id := r.PathValue(paramName)
		if id == "" {
			// Try context (set by router middleware)
			if v := r.Context().Value(paramName); v != nil {
				if s, ok := v.(string); ok {
					id = s
				}
			}
		}
		if id == "" {
			return nil, NewError(ErrUnknownResource, "resource ID not found in request").
				WithResource(resourceType)
		}
		return resolveMatcher(resources, resourceType+"/"+id)
	}
}

// ResourceFromQuery creates a ResourceExtractor that resolves "<type>/<id>"
// from a query parameter.
//
// Example:
//
//	// For route /api/device-keys?device_id=dev_123
//	mw.RequireAction(policykit.ActionRegenerateDeviceKey,
//	    policykit.ResourceFromQuery(resources, "device", "device_id"))
func ResourceFromQuery(resources *ResourceRegistry, resourceType, queryParam string) ResourceExtractor {
	return func(r *http.Request) (Resource, error) {
		id := r.URL.Query().Get(queryParam)
		if id == "" {
			return nil, NewError(ErrUnknownResource, "resource ID not found in query").
				WithResource(resourceType)
		}
		return resolveMatcher(resources, resourceType+"/"+id)
	}
}

// ResourceFromHeader creates a ResourceExtractor that resolves "<type>/<id>"
// from a request header.
func ResourceFromHeader(resources *ResourceRegistry, resourceType, headerName string) ResourceExtractor {
	return func(r *http.Request) (Resource, error) {
		id := r.Header.Get(headerName)
		if id == "" {
			return nil, NewError(ErrUnknownResource, "resource ID not found in header").
				WithResource(resourceType)
		}
		return resolveMatcher(resources, resourceType+"/"+id)
	}
}

// ClassResource creates a ResourceExtractor that always yields the class
// marker for a resource type. The authorized set in the context is then the
// full subset of that type the user may act upon, the scope-narrowing form.
//
// Example:
//
//	// For route /devices (listing)
//	mw.RequireAction(policykit.ActionReadDevice,
//	    policykit.ClassResource(resources, "device"))
func ClassResource(resources *ResourceRegistry, resourceType string) ResourceExtractor {
	return func(*http.Request) (Resource, error) {
		class := resources.Class(resourceType)
		if class == nil {
			return nil, NewError(ErrUnknownResource, "resource type not registered").
				WithResource(resourceType)
		}
		return class, nil
	}
}

// StaticResource creates a ResourceExtractor that always returns the same
// resource. Useful for fixed singletons.
func StaticResource(resource Resource) ResourceExtractor {
	return func(*http.Request) (Resource, error) {
		return resource, nil
	}
}

func resolveMatcher(resources *ResourceRegistry, matcher string) (Resource, error) {
	found := resources.Find(matcher)
	if len(found) == 0 {
		return nil, NewError(ErrUnknownResource, "no capability resolves the matcher").
			WithResource(matcher)
	}
	return found[0], nil
}

// RequireAction creates middleware that requires the user to be authorized
// for an action on the extracted resource. On success the resolved resource
// set is stored in the request context for the handler.
//
// Example:
//
//	router.Handle("/devices/{deviceID}", mw.RequireAction(
//	    policykit.ActionUpdateDevice,
//	    policykit.ResourceFromParam(resources, "device", "deviceID"),
//	)(updateDeviceHandler))
func (m *Middleware) RequireAction(action string, extractor ResourceExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			resource, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			result, err := m.evaluator.Authorize(ctx, action, resource, userID)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}
			if result == nil {
				m.errorHandler(w, r, NewError(ErrUnauthorized, "action not permitted on resource").
					WithAction(action).
					WithUser(userID))
				return
			}

			ctx = WithAuthorized(ctx, result)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAnyAction creates middleware that passes when the user is
// authorized for at least one of the actions on the extracted resource.
func (m *Middleware) RequireAnyAction(actions []string, extractor ResourceExtractor) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			userID := m.getUserID(r)
			if userID == "" {
				m.errorHandler(w, r, ErrNoUserID)
				return
			}

			resource, err := extractor(r)
			if err != nil {
				m.errorHandler(w, r, err)
				return
			}

			for _, action := range actions {
				result, err := m.evaluator.Authorize(ctx, action, resource, userID)
				if err != nil {
					m.errorHandler(w, r, err)
					return
				}
				if result != nil {
					ctx = WithAuthorized(ctx, result)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			m.errorHandler(w, r, NewError(ErrUnauthorized, "no action permitted on resource").
				WithUser(userID))
		})
	}
}
