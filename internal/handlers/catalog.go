package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urban-harvest/kiosk/internal/catalog"
	"github.com/urban-harvest/kiosk/internal/platform/httpx"
)

// CatalogHandlers serves the fixed demo menu.
type CatalogHandlers struct {
	menu *catalog.Store
}

// NewCatalogHandlers constructs handlers over the in-memory menu store.
func NewCatalogHandlers(menu *catalog.Store) *CatalogHandlers {
	return &CatalogHandlers{menu: menu}
}

// Routes wires the /catalog endpoints onto the provided router.
func (h *CatalogHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/items", h.listItems)
	r.Get("/items/{itemID}", h.getItem)
	r.Get("/addons", h.listAddons)
}

func (h *CatalogHandlers) listItems(w http.ResponseWriter, r *http.Request) {
	if h.menu == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	items := h.menu.Items()
	if category != "" {
		items = h.menu.ItemsByCategory(category)
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (h *CatalogHandlers) getItem(w http.ResponseWriter, r *http.Request) {
	if h.menu == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}

	item, err := h.menu.Item(chi.URLParam(r, "itemID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (h *CatalogHandlers) listAddons(w http.ResponseWriter, r *http.Request) {
	if h.menu == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("catalog_unavailable", "catalog is unavailable", http.StatusServiceUnavailable))
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"addons": h.menu.Addons()})
}
