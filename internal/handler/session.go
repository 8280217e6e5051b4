package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// cartFor returns the cart of the caller's session, issuing a new session
// cookie when the request carries none or an invalid one.
func (h *Handler) cartFor(w http.ResponseWriter, r *http.Request) *cart.Store {
	id := ""
	if c, err := r.Cookie(h.cartCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
		http.SetCookie(w, &http.Cookie{
			Name:     h.cartCookie,
			Value:    id,
			Path:     "/",
			MaxAge:   int(h.cartCookieTTL.Seconds()),
			HttpOnly: true,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return h.carts.Get(r.Context(), id)
}

// authenticate resolves an optional bearer token into an auth.Identity.
// Requests without a token pass through anonymously; a bad token is rejected.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		id, err := h.verifier.Verify(token)
		if err != nil {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if id, err = h.roles.Resolve(r.Context(), id); err != nil {
			writeError(w, r, errors.Wrap(err, "resolve roles"))
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
	})
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := auth.FromContext(r.Context()); !ok {
			httpmiddleware.WriteError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id, _ := auth.FromContext(r.Context()); !id.Admin {
			httpmiddleware.WriteError(w, http.StatusForbidden, "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// identity returns the authenticated caller. Only valid behind requireUser.
func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}
