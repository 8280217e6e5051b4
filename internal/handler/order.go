package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/errors"

	"github.com/xenking/storefront/internal/domain/auth"
	"github.com/xenking/storefront/internal/domain/order"
)

func actor(id auth.Identity) order.Actor {
	return order.Actor{UserID: id.UserID, Admin: id.Admin}
}

// checkout places an order for the contents of the session cart. The ordered
// quantities leave the cart only once the order is stored.
func (h *Handler) checkout(w http.ResponseWriter, r *http.Request) {
	var req checkoutRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	st := h.cartFor(w, r)
	items := st.Items()
	if len(items) == 0 {
		writeError(w, r, errEmptyCart)
		return
	}
	lines := make([]order.LineRequest, len(items))
	for i, it := range items {
		lines[i] = order.LineRequest{ProductID: it.ID, Quantity: it.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), identity(r).UserID, order.PlaceOrderRequest{
		Items:         lines,
		PaymentMethod: order.PaymentMethod(req.PaymentMethod),
		Shipping:      req.Shipping,
		Contact:       req.Contact,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	st.Subtract(r.Context(), items)
	writeJSON(w, http.StatusCreated, orderBody{o: *o, imageBase: h.imageBaseURL})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	// The caller's own orders, even for admins.
	h.writeOrders(w, r, order.Actor{UserID: identity(r).UserID})
}

func (h *Handler) adminOrders(w http.ResponseWriter, r *http.Request) {
	h.writeOrders(w, r, actor(identity(r)))
}

func (h *Handler) writeOrders(w http.ResponseWriter, r *http.Request, a order.Actor) {
	orders, err := h.orders.List(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderList{orders: orders, imageBase: h.imageBaseURL})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), actor(identity(r)), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderBody{o: *o, imageBase: h.imageBaseURL})
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	to, err := order.ParseStatus(req.Status)
	if err != nil {
		writeError(w, r, &order.ValidationError{Field: "status", Message: err.Error()})
		return
	}

	o, err := h.orders.UpdateStatus(r.Context(), actor(identity(r)), chi.URLParam(r, "id"), to, req.Version)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderBody{o: *o, imageBase: h.imageBaseURL})
}

func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	st, err := h.orders.Stats(r.Context())
	if err != nil {
		writeError(w, r, errors.Wrap(err, "stats"))
		return
	}
	writeJSON(w, http.StatusOK, statsBody{s: st, imageBase: h.imageBaseURL})
}
