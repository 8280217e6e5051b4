package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xenking/storefront/internal/domain/product"
)

const maxListLimit = 100

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	category, err := product.ParseCategory(q.Get("category"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, errors.Wrap(errMalformedBody, "limit must be a non-negative integer"))
			return
		}
		limit = min(limit, maxListLimit)
	}

	products, err := h.products.List(r.Context(), product.Filter{
		Category: category,
		Query:    q.Get("q"),
		Limit:    limit,
	})
	if err != nil {
		writeError(w, r, errors.Wrap(err, "list products"))
		return
	}
	writeJSON(w, http.StatusOK, productList{items: products, imageBase: h.imageBaseURL})
}

// lookupProduct loads a product from the repository. Ids missing from the id
// filter are still looked up and learned when found.
func (h *Handler) lookupProduct(r *http.Request, id string) (*product.Product, error) {
	known := h.ids == nil || h.ids.MayContain(id)
	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, product.ErrNotFound) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrap(err, "get product")
	}
	if !known {
		h.ids.Learn(id)
		zctx.From(r.Context()).Debug("Product missing from id filter", zap.String("product_id", id))
	}
	return p, nil
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.lookupProduct(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productBody{p: *p, imageBase: h.imageBaseURL})
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft := req.draft.Normalize()
	if err := draft.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	now := time.Now().UTC()
	p := product.Product{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	draft.Apply(&p)
	if err := h.products.Create(r.Context(), &p); err != nil {
		writeError(w, r, errors.Wrap(err, "create product"))
		return
	}
	if h.ids != nil {
		h.ids.Add(p.ID)
	}
	writeJSON(w, http.StatusCreated, productBody{p: p, imageBase: h.imageBaseURL})
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req productRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	draft := req.draft.Normalize()
	if err := draft.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	p, err := h.lookupProduct(r, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	draft.Apply(p)
	p.UpdatedAt = time.Now().UTC()
	if err := h.products.Update(r.Context(), p); err != nil {
		if !errors.Is(err, product.ErrNotFound) {
			err = errors.Wrap(err, "update product")
		}
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, productBody{p: *p, imageBase: h.imageBaseURL})
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if !errors.Is(err, product.ErrNotFound) && !errors.Is(err, product.ErrInUse) {
			err = errors.Wrap(err, "delete product")
		}
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
