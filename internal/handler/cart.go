package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/storefront/internal/domain/cart"
)

func (h *Handler) writeCart(w http.ResponseWriter, st *cart.Store) {
	writeJSON(w, http.StatusOK, cartBody{view: st.View(), imageBase: h.imageBaseURL})
}

func (h *Handler) getCart(w http.ResponseWriter, r *http.Request) {
	h.writeCart(w, h.cartFor(w, r))
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	st := h.cartFor(w, r)
	st.Clear(r.Context())
	h.writeCart(w, st)
}

// addCartItem adds one unit of a catalog product. Name, price and image are
// taken from the catalog, never from the client.
func (h *Handler) addCartItem(w http.ResponseWriter, r *http.Request) {
	var req addCartItemRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	p, err := h.lookupProduct(r, req.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	st := h.cartFor(w, r)
	st.AddItem(r.Context(), cart.Input{
		ID:        p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		ImageURL:  p.ImageURL,
		Category:  string(p.Category),
	})
	h.writeCart(w, st)
}

func (h *Handler) updateCartItem(w http.ResponseWriter, r *http.Request) {
	var req quantityRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	st := h.cartFor(w, r)
	st.UpdateQuantity(r.Context(), chi.URLParam(r, "id"), req.Quantity)
	h.writeCart(w, st)
}

func (h *Handler) removeCartItem(w http.ResponseWriter, r *http.Request) {
	st := h.cartFor(w, r)
	st.RemoveItem(r.Context(), chi.URLParam(r, "id"))
	h.writeCart(w, st)
}
