package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/platform/httpx"
	"github.com/urban-harvest/kiosk/internal/services"
)

// MachineHandlers expose the normalized inventory snapshot and the preset
// recipes of the kiosk's vending machine.
type MachineHandlers struct {
	inventory services.InventoryService
	machine   services.MachineAPI
	machineID string
}

// NewMachineHandlers constructs the machine passthrough handlers.
func NewMachineHandlers(inventory services.InventoryService, machineAPI services.MachineAPI, machineID string) *MachineHandlers {
	return &MachineHandlers{
		inventory: inventory,
		machine:   machineAPI,
		machineID: machineID,
	}
}

// Routes wires the /machine endpoints onto the provided router.
func (h *MachineHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/inventory", h.getInventory)
	r.Post("/inventory/refresh", h.refreshInventory)
	r.Get("/presets", h.listPresets)
	r.Get("/presets/{presetID}", h.getPreset)
}

func (h *MachineHandlers) getInventory(w http.ResponseWriter, r *http.Request) {
	if h.inventory == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("inventory_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return
	}

	snapshot, err := h.inventory.Snapshot(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildInventoryPayload(snapshot))
}

func (h *MachineHandlers) refreshInventory(w http.ResponseWriter, r *http.Request) {
	if h.inventory == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("inventory_unavailable", "inventory service is unavailable", http.StatusServiceUnavailable))
		return
	}

	snapshot, err := h.inventory.Refresh(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, buildInventoryPayload(snapshot))
}

func (h *MachineHandlers) listPresets(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("machine_unavailable", "machine client is unavailable", http.StatusServiceUnavailable))
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	presets, err := h.machine.Presets(r.Context(), h.machineID, category)
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	if presets == nil {
		presets = []domain.PresetSummary{}
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"presets": presets})
}

func (h *MachineHandlers) getPreset(w http.ResponseWriter, r *http.Request) {
	if h.machine == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("machine_unavailable", "machine client is unavailable", http.StatusServiceUnavailable))
		return
	}

	details, err := h.machine.PresetDetails(r.Context(), chi.URLParam(r, "presetID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]any{"preset": details})
}

type inventoryPayload struct {
	MachineID   string                    `json:"machine_id"`
	Location    string                    `json:"machine_location"`
	Status      string                    `json:"machine_status"`
	FetchedAt   string                    `json:"fetched_at"`
	Ingredients []inventoryIngredientItem `json:"ingredients"`
	Addons      []inventoryAddonItem      `json:"addons"`
}

type inventoryIngredientItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Emoji           string  `json:"emoji"`
	PricePerKg      float64 `json:"price_per_kg"`
	CaloriesPerGram float64 `json:"calories_per_gram"`
	MinQtyGrams     int     `json:"min_qty_g"`
	MaxPercentage   int     `json:"max_percentage"`
	Available       bool    `json:"is_available"`
	LowStock        bool    `json:"is_low_stock"`
}

type inventoryAddonItem struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Emoji           string  `json:"emoji"`
	PricePerUnit    float64 `json:"price_per_unit"`
	CaloriesPerUnit float64 `json:"calories_per_unit"`
	Available       bool    `json:"is_available"`
	LowStock        bool    `json:"is_low_stock"`
	QtyAvailable    int     `json:"qty_available"`
}

func buildInventoryPayload(snapshot services.InventorySnapshot) inventoryPayload {
	payload := inventoryPayload{
		MachineID:   snapshot.MachineID,
		Location:    snapshot.Location,
		Status:      snapshot.Status,
		FetchedAt:   snapshot.FetchedAt.Format(time.RFC3339),
		Ingredients: make([]inventoryIngredientItem, 0, len(snapshot.Ingredients)),
		Addons:      make([]inventoryAddonItem, 0, len(snapshot.Addons)),
	}
	for _, opt := range snapshot.Ingredients {
		payload.Ingredients = append(payload.Ingredients, inventoryIngredientItem{
			ID:              opt.ID,
			Name:            opt.Name,
			Emoji:           opt.Emoji,
			PricePerKg:      opt.PricePerKg,
			CaloriesPerGram: opt.CaloriesPerGram,
			MinQtyGrams:     opt.MinQtyGrams,
			MaxPercentage:   opt.MaxPercentage,
			Available:       opt.Available,
			LowStock:        opt.LowStock,
		})
	}
	for _, opt := range snapshot.Addons {
		payload.Addons = append(payload.Addons, inventoryAddonItem{
			ID:              opt.ID,
			Name:            opt.Name,
			Emoji:           opt.Emoji,
			PricePerUnit:    opt.PricePerUnit,
			CaloriesPerUnit: opt.CaloriesPerUnit,
			Available:       opt.Available,
			LowStock:        opt.LowStock,
			QtyAvailable:    opt.QtyAvailable,
		})
	}
	return payload
}
