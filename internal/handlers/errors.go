package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/urban-harvest/kiosk/internal/catalog"
	"github.com/urban-harvest/kiosk/internal/machine"
	"github.com/urban-harvest/kiosk/internal/platform/httpx"
	"github.com/urban-harvest/kiosk/internal/services"
)

// writeServiceError maps service and client errors onto the shared JSON
// error envelope. Unmapped errors become opaque 500s.
func writeServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("session_not_found", "session not found or expired", http.StatusNotFound))
	case errors.Is(err, services.ErrCategoryRequired):
		httpx.WriteError(ctx, w, httpx.NewError("category_required", "select a category first", http.StatusConflict))
	case errors.Is(err, services.ErrItemRequired):
		httpx.WriteError(ctx, w, httpx.NewError("item_required", "select an item first", http.StatusConflict))
	case errors.Is(err, services.ErrOrderRequired):
		httpx.WriteError(ctx, w, httpx.NewError("order_required", "no active order on this session", http.StatusConflict))
	case errors.Is(err, services.ErrContainerFull),
		errors.Is(err, services.ErrIngredientCapReached),
		errors.Is(err, services.ErrIngredientCountExceeded),
		errors.Is(err, services.ErrContainerNotFull),
		errors.Is(err, services.ErrBaseOptionRequired),
		errors.Is(err, services.ErrAddonCapReached),
		errors.Is(err, services.ErrAddonStockExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("selection_rejected", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrIngredientUnavailable),
		errors.Is(err, services.ErrAddonUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("option_unavailable", err.Error(), http.StatusUnprocessableEntity))
	case errors.Is(err, services.ErrUnknownBaseOption),
		errors.Is(err, services.ErrRecipeInvalidInput),
		errors.Is(err, services.ErrUnknownPaymentOutcome):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrMachineUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("machine_unavailable", "vending machine is unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrOrderUnknown):
		httpx.WriteError(ctx, w, httpx.NewError("order_not_found", "order not found", http.StatusNotFound))
	case errors.Is(err, services.ErrInvalidTransition):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_order_state", err.Error(), http.StatusConflict))
	case errors.Is(err, services.ErrPollTimeout):
		httpx.WriteError(ctx, w, httpx.NewError("order_poll_timeout", "order did not complete in time", http.StatusGatewayTimeout))
	case errors.Is(err, services.ErrAssemblyNoItem), errors.Is(err, services.ErrAssemblyInvalidItem):
		httpx.WriteError(ctx, w, httpx.NewError("item_required", err.Error(), http.StatusConflict))
	case errors.Is(err, catalog.ErrItemNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("item_not_found", "menu item not found", http.StatusNotFound))
	case errors.Is(err, machine.ErrNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("not_found", "resource not found on the machine backend", http.StatusNotFound))
	case errors.Is(err, machine.ErrInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_error", "unexpected error", http.StatusInternalServerError))
	}
}
