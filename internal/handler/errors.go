package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/media"
	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/product"
	"github.com/xenking/storefront/internal/domain/wishlist"
	"github.com/xenking/storefront/pkg/httpmiddleware"
)

// errEmptyCart is returned by checkout when the cart holds nothing.
var errEmptyCart = errors.New("cart is empty")

// writeError maps domain errors to HTTP responses. Anything unrecognized is
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code, msg := classify(err)
	if code >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	httpmiddleware.WriteError(w, code, msg)
}

func classify(err error) (int, string) {
	var (
		pnfErr *order.ProductNotFoundError
		iqErr  *order.InvalidQuantityError
		itErr  *order.InvalidTransitionError
		ovErr  *order.ValidationError
		pvErr  *product.ValidationError
	)
	switch {
	case errors.Is(err, errMalformedBody):
		return http.StatusBadRequest, "malformed request body"
	case errors.Is(err, errEmptyCart), errors.Is(err, order.ErrEmptyItems):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, product.ErrUnknownCategory):
		return http.StatusBadRequest, "unknown category"
	case errors.Is(err, media.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType, "unsupported media type"
	case errors.Is(err, media.ErrUploadsDisabled):
		return http.StatusServiceUnavailable, err.Error()
	case errors.Is(err, auth.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, order.ErrForbidden):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, product.ErrNotFound):
		return http.StatusNotFound, "product not found"
	case errors.Is(err, order.ErrNotFound):
		return http.StatusNotFound, "order not found"
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound, "media not found"
	case errors.Is(err, wishlist.ErrAlreadyInWishlist):
		return http.StatusConflict, "already in wishlist"
	case errors.Is(err, order.ErrVersionConflict):
		return http.StatusConflict, "order was modified concurrently"
	case errors.Is(err, product.ErrInUse):
		return http.StatusConflict, "product is referenced by orders"
	case errors.As(err, &itErr):
		return http.StatusConflict, itErr.Error()
	case errors.As(err, &pnfErr):
		return http.StatusUnprocessableEntity, pnfErr.Error()
	case errors.As(err, &iqErr):
		return http.StatusUnprocessableEntity, iqErr.Error()
	case errors.As(err, &ovErr):
		return http.StatusUnprocessableEntity, ovErr.Error()
	case errors.As(err, &pvErr):
		return http.StatusUnprocessableEntity, pvErr.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
