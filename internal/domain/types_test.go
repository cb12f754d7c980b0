package domain

import (
	"testing"
	"time"
)

func TestSpecForCategory(t *testing.T) {
	cases := []struct {
		category    Category
		kind        ContainerKind
		increment   int
		maxDistinct int
	}{
		{CategorySmoothies, ContainerCup, 20, 5},
		{CategorySalads, ContainerBowl, 10, 5},
		{CategorySweets, ContainerBox, 10, 0},
	}
	for _, tc := range cases {
		spec := SpecForCategory(tc.category)
		if spec.Kind != tc.kind || spec.Increment != tc.increment || spec.MaxDistinct != tc.maxDistinct {
			t.Fatalf("%s: unexpected spec %+v", tc.category, spec)
		}
	}
}

func TestDefaultVariant(t *testing.T) {
	if v := DefaultVariant(CategorySweets); v.ID != "one-kg" || v.Multiplier != 1 {
		t.Fatalf("sweets must default to the regular box, got %+v", v)
	}
	if v := DefaultVariant(CategorySmoothies); v.Multiplier != 1 {
		t.Fatalf("cup must carry multiplier 1, got %+v", v)
	}
}

func TestItemSelectionKey(t *testing.T) {
	custom := ItemSelection{Kind: ItemKindCustom, Custom: &RecipeSnapshot{Category: CategorySmoothies}}
	if custom.Key() != "custom" {
		t.Fatalf("unexpected custom key %q", custom.Key())
	}

	preset := ItemSelection{Kind: ItemKindPreset, Preset: &PresetSelection{Summary: PresetSummary{ID: "berry"}}}
	if preset.Key() != "preset:berry" {
		t.Fatalf("unexpected preset key %q", preset.Key())
	}

	catalogItem := ItemSelection{Kind: ItemKindCatalog, Catalog: &MenuItem{ID: "mango"}}
	if catalogItem.Key() != "catalog:mango" {
		t.Fatalf("unexpected catalog key %q", catalogItem.Key())
	}

	if (ItemSelection{Kind: ItemKindPreset}).Key() != "" {
		t.Fatalf("payload-less selections have no key")
	}
}

func TestItemSelectionCategory(t *testing.T) {
	preset := ItemSelection{Kind: ItemKindPreset, Preset: &PresetSelection{Summary: PresetSummary{ID: "x", Category: "salads"}}}
	if preset.Category() != CategorySalads {
		t.Fatalf("unexpected category %q", preset.Category())
	}
	if (ItemSelection{}).Category() != "" {
		t.Fatalf("empty selections have no category")
	}
}

func TestOrderStatusTerminal(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled} {
		if !status.Terminal() {
			t.Fatalf("%s must be terminal", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusProcessing} {
		if status.Terminal() {
			t.Fatalf("%s must not be terminal", status)
		}
	}
}

func TestAlertActive(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	alert := Alert{Message: "full", Until: now.Add(3 * time.Second)}

	if !alert.Active(now) {
		t.Fatalf("alert must be active before expiry")
	}
	if alert.Active(now.Add(4 * time.Second)) {
		t.Fatalf("alert must expire")
	}
	if (Alert{Until: now.Add(time.Hour)}).Active(now) {
		t.Fatalf("empty messages are never active")
	}
}
