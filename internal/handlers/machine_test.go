package handlers

import (
	"net/http"
	"testing"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

func TestMachineInventory(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/machine/inventory", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("inventory: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[inventoryPayload](t, rec)
	if body.MachineID != testMachineID || len(body.Ingredients) != 2 {
		t.Fatalf("unexpected inventory: %+v", body)
	}
	if body.Ingredients[0].PricePerKg != 600 {
		t.Fatalf("inventory must expose parsed prices, got %v", body.Ingredients[0].PricePerKg)
	}
}

func TestMachineInventoryRefresh(t *testing.T) {
	env := newTestEnv(t)

	// Prime the cache, then change the backend feed.
	env.do(t, http.MethodGet, "/api/v1/machine/inventory", nil)
	env.backend.inventory.MachineStatus = "maintenance"

	rec := env.do(t, http.MethodGet, "/api/v1/machine/inventory", nil)
	body := decodeBody[inventoryPayload](t, rec)
	if body.Status != "online" {
		t.Fatalf("cached snapshot expected, got %q", body.Status)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/machine/inventory/refresh", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh: status %d", rec.Code)
	}
	body = decodeBody[inventoryPayload](t, rec)
	if body.Status != "maintenance" {
		t.Fatalf("refresh must re-fetch, got %q", body.Status)
	}
}

func TestMachinePresets(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/machine/presets?category=smoothies", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("presets: status %d", rec.Code)
	}
	body := decodeBody[struct {
		Presets []domain.PresetSummary `json:"presets"`
	}](t, rec)
	if len(body.Presets) != 1 || body.Presets[0].ID != "berry-blast" {
		t.Fatalf("unexpected presets: %+v", body.Presets)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/machine/presets?category=sweets", nil)
	body = decodeBody[struct {
		Presets []domain.PresetSummary `json:"presets"`
	}](t, rec)
	if len(body.Presets) != 0 {
		t.Fatalf("category filter must apply, got %+v", body.Presets)
	}
}

func TestMachinePresetDetails(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/machine/presets/berry-blast", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("preset details: status %d body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody[struct {
		Preset domain.PresetDetails `json:"preset"`
	}](t, rec)
	if body.Preset.ID != "berry-blast" || len(body.Preset.Ingredients) != 1 {
		t.Fatalf("unexpected details: %+v", body.Preset)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/machine/presets/nope", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
