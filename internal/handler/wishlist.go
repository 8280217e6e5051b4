package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) listWishlist(w http.ResponseWriter, r *http.Request) {
	h.listWishlistStatus(w, r, identity(r).UserID, http.StatusOK)
}

func (h *Handler) addWishlist(w http.ResponseWriter, r *http.Request) {
	var req wishlistRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	userID := identity(r).UserID
	if err := h.wishlist.Add(r.Context(), userID, req.ProductID); err != nil {
		writeError(w, r, err)
		return
	}
	h.listWishlistStatus(w, r, userID, http.StatusCreated)
}

func (h *Handler) removeWishlist(w http.ResponseWriter, r *http.Request) {
	userID := identity(r).UserID
	if err := h.wishlist.Remove(r.Context(), userID, chi.URLParam(r, "productID")); err != nil {
		writeError(w, r, err)
		return
	}
	h.listWishlistStatus(w, r, userID, http.StatusOK)
}

func (h *Handler) listWishlistStatus(w http.ResponseWriter, r *http.Request, userID string, code int) {
	entries, err := h.wishlist.List(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, code, wishlistBody{entries: entries, imageBase: h.imageBaseURL})
}
