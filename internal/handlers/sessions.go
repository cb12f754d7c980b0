package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/urban-harvest/kiosk/internal/catalog"
	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/platform/httpx"
	"github.com/urban-harvest/kiosk/internal/services"
)

// SessionHandlers exposes the shopper session endpoints: category and
// container choices, recipe composition, item selection, and add-ons.
type SessionHandlers struct {
	sessions  *services.SessionService
	inventory services.InventoryService
	machine   services.MachineAPI
	menu      *catalog.Store
	machineID string
}

// NewSessionHandlers constructs handlers binding session mutations to the
// inventory snapshot and the machine backend.
func NewSessionHandlers(sessions *services.SessionService, inventory services.InventoryService, machineAPI services.MachineAPI, menu *catalog.Store, machineID string) *SessionHandlers {
	return &SessionHandlers{
		sessions:  sessions,
		inventory: inventory,
		machine:   machineAPI,
		menu:      menu,
		machineID: machineID,
	}
}

// Routes wires the /sessions endpoints onto the provided router.
func (h *SessionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createSession)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", h.getSession)
		r.Delete("/", h.deleteSession)
		r.Post("/reset", h.resetSession)
		r.Put("/category", h.setCategory)
		r.Put("/variant", h.setVariant)
		r.Post("/ingredients", h.addIngredient)
		r.Post("/ingredients/{ingredientID}/decrease", h.decreaseIngredient)
		r.Delete("/ingredients/{ingredientID}", h.removeIngredient)
		r.Post("/bases", h.toggleBase)
		r.Post("/confirm", h.confirmRecipe)
		r.Put("/item", h.selectItem)
		r.Post("/addons", h.incrementAddon)
		r.Post("/addons/{addonID}/decrease", h.decrementAddon)
	})
}

func (h *SessionHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	if h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("session_service_unavailable", "session service is unavailable", http.StatusServiceUnavailable))
		return
	}
	session := h.sessions.Create(r.Context())
	httpx.WriteJSON(w, http.StatusCreated, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) getSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	session.Touch()
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) deleteSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	h.sessions.Delete(session.ID())
	httpx.WriteJSON(w, http.StatusNoContent, nil)
}

func (h *SessionHandlers) resetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	session.Reset()
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) setCategory(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Category string `json:"category"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	category, err := parseCategory(req.Category)
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_category", err.Error(), http.StatusBadRequest))
		return
	}

	session.StartCategory(category)
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) setVariant(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		VariantID string `json:"variant_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	variant, found := lookupBoxVariant(req.VariantID)
	if !found {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_variant", fmt.Sprintf("unknown container variant %q", req.VariantID), http.StatusBadRequest))
		return
	}

	if err := session.SelectVariant(variant); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) addIngredient(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		IngredientID string `json:"ingredient_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	opt, ok := h.lookupIngredient(w, r, req.IngredientID)
	if !ok {
		return
	}

	if err := session.AddIngredient(opt); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) decreaseIngredient(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	if err := session.DecreaseIngredient(chi.URLParam(r, "ingredientID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) removeIngredient(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	if err := session.RemoveIngredient(chi.URLParam(r, "ingredientID")); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) toggleBase(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	if err := session.ToggleBase(req.Name); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) confirmRecipe(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	if _, err := session.ConfirmRecipe(); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) selectItem(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		Kind      string `json:"kind"`
		PresetID  string `json:"preset_id"`
		CatalogID string `json:"catalog_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	var selection domain.ItemSelection
	switch domain.ItemKind(req.Kind) {
	case domain.ItemKindPreset:
		preset, err := h.fetchPreset(r, req.PresetID)
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		selection = domain.ItemSelection{Kind: domain.ItemKindPreset, Preset: preset}
	case domain.ItemKindCatalog:
		item, err := h.menu.Item(strings.TrimSpace(req.CatalogID))
		if err != nil {
			writeServiceError(r.Context(), w, err)
			return
		}
		selection = domain.ItemSelection{Kind: domain.ItemKindCatalog, Catalog: &item}
	default:
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", fmt.Sprintf("unknown item kind %q", req.Kind), http.StatusBadRequest))
		return
	}

	if err := session.SelectItem(selection); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) incrementAddon(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}

	var req struct {
		AddonID string `json:"addon_id"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	opt, ok := h.lookupAddon(w, r, req.AddonID)
	if !ok {
		return
	}

	if err := session.IncrementAddon(opt); err != nil {
		writeServiceError(r.Context(), w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) decrementAddon(w http.ResponseWriter, r *http.Request) {
	session, ok := h.resolveSession(w, r)
	if !ok {
		return
	}
	session.DecrementAddon(chi.URLParam(r, "addonID"))
	httpx.WriteJSON(w, http.StatusOK, sessionResponse{Session: buildSessionPayload(session.State())})
}

func (h *SessionHandlers) resolveSession(w http.ResponseWriter, r *http.Request) (*services.Session, bool) {
	if h.sessions == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("session_service_unavailable", "session service is unavailable", http.StatusServiceUnavailable))
		return nil, false
	}
	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return nil, false
	}
	return session, true
}

func (h *SessionHandlers) lookupIngredient(w http.ResponseWriter, r *http.Request, id string) (domain.IngredientOption, bool) {
	snapshot, err := h.inventory.Snapshot(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return domain.IngredientOption{}, false
	}
	opt, found := snapshot.Ingredient(strings.TrimSpace(id))
	if !found {
		httpx.WriteError(r.Context(), w, httpx.NewError("ingredient_not_found", fmt.Sprintf("ingredient %q is not on this machine", id), http.StatusNotFound))
		return domain.IngredientOption{}, false
	}
	return opt, true
}

func (h *SessionHandlers) lookupAddon(w http.ResponseWriter, r *http.Request, id string) (domain.AddonOption, bool) {
	snapshot, err := h.inventory.Snapshot(r.Context())
	if err != nil {
		writeServiceError(r.Context(), w, err)
		return domain.AddonOption{}, false
	}
	opt, found := snapshot.Addon(strings.TrimSpace(id))
	if !found {
		httpx.WriteError(r.Context(), w, httpx.NewError("addon_not_found", fmt.Sprintf("add-on %q is not on this machine", id), http.StatusNotFound))
		return domain.AddonOption{}, false
	}
	return opt, true
}

func (h *SessionHandlers) fetchPreset(r *http.Request, presetID string) (*domain.PresetSelection, error) {
	presetID = strings.TrimSpace(presetID)
	details, err := h.machine.PresetDetails(r.Context(), presetID)
	if err != nil {
		return nil, err
	}

	summaries, err := h.machine.Presets(r.Context(), h.machineID, "")
	if err != nil {
		return nil, err
	}
	selection := &domain.PresetSelection{Ingredients: details.Ingredients}
	for _, summary := range summaries {
		if summary.ID == presetID {
			selection.Summary = summary
			return selection, nil
		}
	}
	selection.Summary = domain.PresetSummary{ID: details.ID, Name: details.Name}
	return selection, nil
}

func parseCategory(value string) (domain.Category, error) {
	switch domain.Category(strings.TrimSpace(strings.ToLower(value))) {
	case domain.CategorySmoothies:
		return domain.CategorySmoothies, nil
	case domain.CategorySalads:
		return domain.CategorySalads, nil
	case domain.CategorySweets:
		return domain.CategorySweets, nil
	}
	return "", fmt.Errorf("unknown category %q", value)
}

func lookupBoxVariant(id string) (domain.ContainerVariant, bool) {
	for _, variant := range domain.BoxVariants() {
		if variant.ID == strings.TrimSpace(id) {
			return variant, true
		}
	}
	return domain.ContainerVariant{}, false
}
