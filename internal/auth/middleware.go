package auth

import (
	"context"
	"net/http"
)

// contextKey is unexported so only this package can read or write the
// caller identity in a request context.
type contextKey string

// ownerIDKey is the context key for the caller identity.
//
// WHY A CUSTOM KEY TYPE?
// context.WithValue compares keys by type and value. A plain string key
// "ownerID" could collide with any other package using the same string;
// a value of the unexported contextKey type cannot.
const ownerIDKey contextKey = "ownerID"

// RequireToken is the Access Guard. A request without an identity token is
// answered with 401 and never reaches next. A present token is passed through
// unchanged; it is not looked up anywhere.
func RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := TokenFromRequest(r)
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"unauthorized","message":"identity token required"}`))
			return
		}
		next.ServeHTTP(w, r.WithContext(WithOwnerID(r.Context(), token)))
	})
}

// OptionalToken stores the identity token in the context when one is
// present and always continues. Used on routes that mint a token themselves.
func OptionalToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := TokenFromRequest(r); ok {
			r = r.WithContext(WithOwnerID(r.Context(), token))
		}
		next.ServeHTTP(w, r)
	})
}

// WithOwnerID returns a copy of ctx carrying the caller identity.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}

// OwnerIDFromContext returns the caller identity stored by RequireToken or
// OptionalToken. It returns ("", false) for anonymous requests.
func OwnerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ownerIDKey).(string)
	return id, ok && id != ""
}
