// Package api is the control surface over the shared order store: the
// read/write path used by waiter and kitchen screens alongside the queue.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"kitchen-service/internal/domain"
	"kitchen-service/internal/hub"
	"kitchen-service/internal/sanitize"
	"kitchen-service/internal/store"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Catalog annotates items with preparation times on the read path.
type Catalog interface {
	Annotate(ctx context.Context, items []domain.OrderItem)
}

// Broadcaster delivers lifecycle events to connected displays.
type Broadcaster interface {
	Broadcast(event domain.Event)
}

type Handler struct {
	Orders  store.Orders
	Hub     Broadcaster
	Catalog Catalog // optional
	Logger  *zap.Logger
}

func NewHandler(orders store.Orders, broadcaster Broadcaster, catalog Catalog, logger *zap.Logger) *Handler {
	return &Handler{Orders: orders, Hub: broadcaster, Catalog: catalog, Logger: logger}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/kitchen/orders", h.listOrders).Methods("GET")
	r.HandleFunc("/api/kitchen/orders", h.createOrder).Methods("POST")
	r.HandleFunc("/api/kitchen/orders/{id}", h.getOrder).Methods("GET")
	r.HandleFunc("/api/kitchen/orders/{id}", h.editOrder).Methods("PUT")
	r.HandleFunc("/api/kitchen/orders/{id}", h.removeOrder).Methods("DELETE")
	r.HandleFunc("/api/kitchen/orders/{id}/status", h.updateStatus).Methods("PATCH")
	r.HandleFunc("/health", h.health).Methods("GET")
}

// RegisterWS attaches the realtime endpoint. Kept separate so handler tests
// can run without a hub goroutine.
func (h *Handler) RegisterWS(r *mux.Router, eventHub *hub.Hub) {
	r.HandleFunc("/ws", func(w http.ResponseWriter, req *http.Request) {
		hub.ServeWS(eventHub, w, req)
	})
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Orders.GetAll(r.Context())
	if err != nil {
		h.Logger.Error("list_orders_failed", zap.Error(err))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if h.Catalog != nil {
		for i := range orders {
			h.Catalog.Annotate(r.Context(), orders[i].Items)
		}
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	order, err := h.Orders.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("get_order_failed", zap.Error(err), zap.String("order_id", id))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if h.Catalog != nil {
		h.Catalog.Annotate(r.Context(), order.Items)
	}
	writeJSON(w, http.StatusOK, order)
}

// createOrder is the manual-entry path, bypassing the queue. The caller
// supplies the id; this service never generates them.
func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var msg domain.OrderMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := sanitize.Order(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	order := domain.NewKitchenOrder(msg)
	if err := h.Orders.Create(r.Context(), order); err != nil {
		if errors.Is(err, domain.ErrDuplicateID) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		h.Logger.Error("create_order_failed", zap.Error(err), zap.String("order_id", msg.ID))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}

	h.Hub.Broadcast(domain.NewOrderEvent(order))
	h.Logger.Info("order_created", zap.String("order_id", order.ID))
	writeJSON(w, http.StatusCreated, order)
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	status, err := domain.ParseStatus(body.Status)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	updated, err := h.Orders.UpdateStatus(r.Context(), id, status)
	if err != nil {
		h.Logger.Error("update_status_failed", zap.Error(err), zap.String("order_id", id))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !updated {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	h.Hub.Broadcast(domain.StatusEvent(id, status))
	h.Logger.Info("status_updated", zap.String("order_id", id), zap.String("status", status.String()))
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "id": id, "status": status})
}

// editOrder replaces the editable fields of an order. Edits are a pending-only
// policy enforced here, above the store.
func (h *Handler) editOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var msg domain.OrderMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	msg.ID = id
	if err := sanitize.Order(&msg); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	current, err := h.Orders.GetByID(r.Context(), id)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Logger.Error("edit_order_failed", zap.Error(err), zap.String("order_id", id))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if current.Status != domain.StatusPending {
		http.Error(w, "order is no longer editable", http.StatusConflict)
		return
	}

	// createdAt is producer-assigned and immutable; Replace never writes
	// it, so the response must echo the stored value.
	msg.CreatedAt = current.CreatedAt

	replaced, err := h.Orders.Replace(r.Context(), msg)
	if err != nil {
		h.Logger.Error("edit_order_failed", zap.Error(err), zap.String("order_id", id))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !replaced {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}

	current.OrderMessage = msg
	h.Hub.Broadcast(domain.NewOrderEvent(current))
	h.Logger.Info("order_edited", zap.String("order_id", id))
	writeJSON(w, http.StatusOK, current)
}

func (h *Handler) removeOrder(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	removed, err := h.Orders.Remove(r.Context(), id)
	if err != nil {
		h.Logger.Error("remove_order_failed", zap.Error(err), zap.String("order_id", id))
		http.Error(w, "storage error", http.StatusInternalServerError)
		return
	}
	if !removed {
		http.Error(w, "order not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
