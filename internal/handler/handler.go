// Package handler exposes the storefront over HTTP.
package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/media"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
)

const (
	defaultCartCookie     = "storefront_cart"
	defaultCartCookieTTL  = 30 * 24 * time.Hour
	defaultMaxUploadBytes = 20 << 20
	maxJSONBodyBytes      = 1 << 20
)

// HandlerConfig holds non-dependency configuration for the Handler.
type HandlerConfig struct {
	// ImageBaseURL is prepended to bundled asset names in product responses.
	ImageBaseURL string
	// CartCookie names the cookie carrying the cart session id.
	CartCookie string
	// CartCookieTTL is the lifetime of the cart cookie.
	CartCookieTTL time.Duration
	// SecureCookies marks cookies Secure.
	SecureCookies bool
	// MaxUploadBytes limits media uploads.
	MaxUploadBytes int64
}

// Deps are the domain dependencies of a Handler.
type Deps struct {
	Products product.Repository
	IDs      *product.IDFilter
	Carts    *cart.Sessions
	Wishlist *wishlist.Service
	Orders   *order.Service
	Media    *media.Service
	Verifier *auth.Verifier
	Roles    *auth.Roles
}

// Handler serves the storefront API.
type Handler struct {
	products product.Repository
	ids      *product.IDFilter
	carts    *cart.Sessions
	wishlist *wishlist.Service
	orders   *order.Service
	media    *media.Service
	verifier *auth.Verifier
	roles    *auth.Roles

	imageBaseURL   string
	cartCookie     string
	cartCookieTTL  time.Duration
	secureCookies  bool
	maxUploadBytes int64
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(cfg HandlerConfig, deps Deps) *Handler {
	if cfg.CartCookie == "" {
		cfg.CartCookie = defaultCartCookie
	}
	if cfg.CartCookieTTL <= 0 {
		cfg.CartCookieTTL = defaultCartCookieTTL
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	return &Handler{
		products:       deps.Products,
		ids:            deps.IDs,
		carts:          deps.Carts,
		wishlist:       deps.Wishlist,
		orders:         deps.Orders,
		media:          deps.Media,
		verifier:       deps.Verifier,
		roles:          deps.Roles,
		imageBaseURL:   cfg.ImageBaseURL,
		cartCookie:     cfg.CartCookie,
		cartCookieTTL:  cfg.CartCookieTTL,
		secureCookies:  cfg.SecureCookies,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Routes registers the API on r.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/products", h.listProducts)
		r.Get("/products/{id}", h.getProduct)
		r.Get("/products/{id}/media", h.listProductMedia)

		r.Get("/cart", h.getCart)
		r.Delete("/cart", h.clearCart)
		r.Post("/cart/items", h.addCartItem)
		r.Put("/cart/items/{id}", h.updateCartItem)
		r.Delete("/cart/items/{id}", h.removeCartItem)

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Get("/wishlist", h.listWishlist)
			r.Post("/wishlist", h.addWishlist)
			r.Delete("/wishlist/{productID}", h.removeWishlist)

			r.Get("/orders", h.listOrders)
			r.Post("/orders", h.checkout)
			r.Get("/orders/{id}", h.getOrder)
			r.Patch("/orders/{id}/status", h.updateOrderStatus)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireUser, requireAdmin)

			r.Get("/stats", h.adminStats)
			r.Get("/orders", h.adminOrders)
			r.Post("/products", h.createProduct)
			r.Put("/products/{id}", h.updateProduct)
			r.Delete("/products/{id}", h.deleteProduct)
			r.Post("/products/{id}/media", h.uploadMedia)
			r.Delete("/media/{id}", h.deleteMedia)
		})
	})
}

// RoutePattern returns the matched chi route of r, or "" before routing.
func RoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return ""
	}
	return rctx.RoutePattern()
}
