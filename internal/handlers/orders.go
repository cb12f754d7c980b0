package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urban-harvest/kiosk/internal/platform/httpx"
	"github.com/urban-harvest/kiosk/internal/services"
)

// OrderHandlers exposes order submission, the simulated payment step, and
// order tracking.
type OrderHandlers struct {
	sessions  *services.SessionService
	orders    services.OrderService
	inventory services.InventoryService
	machineID string
}

// NewOrderHandlers constructs handlers binding order operations to the
// session aggregate and the machine backend.
func NewOrderHandlers(sessions *services.SessionService, orders services.OrderService, inventory services.InventoryService, machineID string) *OrderHandlers {
	return &OrderHandlers{
		sessions:  sessions,
		orders:    orders,
		inventory: inventory,
		machineID: machineID,
	}
}

// Routes wires the /orders endpoints onto the provided router.
func (h *OrderHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.submitOrder)
	r.Route("/{orderID}", func(r chi.Router) {
		r.Get("/", h.getOrder)
		r.Post("/payment", h.resolvePayment)
		r.Post("/cancel", h.cancelOrder)
		r.Get("/await", h.awaitOrder)
	})
}

func (h *OrderHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil || h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	session, err := h.sessions.Get(req.SessionID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	item, err := session.Item()
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	input := services.AssemblyInput{
		MachineID: h.machineID,
		Item:      item,
		Addons:    session.Addons(),
	}
	if h.inventory != nil {
		// Best effort: an unavailable snapshot leaves stale-line pruning off.
		if snapshot, snapErr := h.inventory.Snapshot(r.Context()); snapErr == nil {
			input.Inventory = &snapshot
		}
	}

	order, err := h.orders.Submit(r.Context(), input)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}

	session.SetOrder(order.ID)
	httpx.WriteJSON(w, http.StatusCreated, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) getOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.Status(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) resolvePayment(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	var req struct {
		Outcome string `json:"outcome"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	outcome := services.PaymentOutcome(strings.TrimSpace(req.Outcome))
	order, err := h.orders.ResolvePayment(r.Context(), chi.URLParam(r, "orderID"), outcome)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	order, err := h.orders.Cancel(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, orderResponse{Order: buildOrderPayload(order)})
}

func (h *OrderHandlers) awaitOrder(w http.ResponseWriter, r *http.Request) {
	if h.orders == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("order_service_unavailable", "order service is unavailable", http.StatusServiceUnavailable))
		return
	}

	orderID := chi.URLParam(r, "orderID")
	status, err := h.orders.Await(r.Context(), orderID)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{
		"order_id": orderID,
		"status":   status,
	})
}
