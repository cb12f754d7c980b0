package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

func testAssembler(t *testing.T) *OrderAssembler {
	t.Helper()
	return NewOrderAssembler(OrderAssemblerDeps{
		Clock:       fixedClock,
		IDGenerator: func() string { return "01TESTULID" },
	})
}

func confirmedSmoothie(t *testing.T) domain.RecipeSnapshot {
	t.Helper()
	engine := NewRecipeEngine(domain.CategorySmoothies, fixedClock)
	opt := testIngredient("blueberry")
	for i := 0; i < 5; i++ {
		if err := engine.AddIngredient(opt); err != nil {
			t.Fatalf("AddIngredient: %v", err)
		}
	}
	if err := engine.ToggleBase("milk"); err != nil {
		t.Fatalf("ToggleBase: %v", err)
	}
	snapshot, err := engine.Confirm()
	if err != nil {
		t.Fatalf("Confirm: %v", err)
	}
	return snapshot
}

func TestAssembleCustomOrder(t *testing.T) {
	assembler := testAssembler(t)
	recipe := confirmedSmoothie(t)

	honey := testAddon("honey")
	honey.PricePerUnit = 0.75
	honey.CaloriesPerUnit = 64

	draft, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCustom, Custom: &recipe},
		Addons:    []domain.AddonLine{{Option: honey, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.HasPrefix(draft.ID, "smc_") {
		t.Fatalf("unexpected order id %q", draft.ID)
	}
	if draft.OrderType != "smoothie_custom" {
		t.Fatalf("unexpected order type %q", draft.OrderType)
	}
	if draft.Status != domain.OrderStatusPending {
		t.Fatalf("unexpected status %q", draft.Status)
	}
	if draft.MachineID != "machine-001" {
		t.Fatalf("unexpected machine id %q", draft.MachineID)
	}

	// Five 20% steps dispense 500 g of blueberries at 600 per kg, plus two
	// honey units at 0.75 each.
	if draft.TotalPrice != "301.50" {
		t.Fatalf("unexpected total price %q", draft.TotalPrice)
	}
	wantCalories := 285 + 128
	if draft.TotalCalories != wantCalories {
		t.Fatalf("expected %d calories, got %d", wantCalories, draft.TotalCalories)
	}

	if len(draft.Ingredients) != 1 || draft.Ingredients[0].GramsUsed != 500 {
		t.Fatalf("unexpected ingredients: %+v", draft.Ingredients)
	}
	if len(draft.Addons) != 1 || draft.Addons[0].Quantity != 2 || draft.Addons[0].Calories != 128 {
		t.Fatalf("unexpected addons: %+v", draft.Addons)
	}
	if len(draft.Liquids) != 1 || draft.Liquids[0].Name != "milk" || draft.Liquids[0].Quantity != "1 serving" {
		t.Fatalf("unexpected liquids: %+v", draft.Liquids)
	}
	if !draft.CreatedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected CreatedAt: %v", draft.CreatedAt)
	}
}

func TestAssembleCustomOrderStaleIngredient(t *testing.T) {
	assembler := testAssembler(t)
	recipe := confirmedSmoothie(t)

	// An inventory snapshot that no longer lists the recipe's ingredient.
	inventory := &InventorySnapshot{}

	draft, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCustom, Custom: &recipe},
		Inventory: inventory,
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if draft.TotalPrice != "0.00" {
		t.Fatalf("stale ingredient must contribute no price, got %q", draft.TotalPrice)
	}
	if draft.TotalCalories != 0 {
		t.Fatalf("stale ingredient must contribute no calories, got %d", draft.TotalCalories)
	}
	if len(draft.Ingredients) != 1 || draft.Ingredients[0].GramsUsed != 500 {
		t.Fatalf("stale line must keep its grams: %+v", draft.Ingredients)
	}
}

func TestAssemblePresetOrder(t *testing.T) {
	assembler := testAssembler(t)

	preset := &domain.PresetSelection{
		Summary: domain.PresetSummary{
			ID:       "berry-blast",
			Name:     "Berry Blast",
			Category: "salads",
			Price:    "12.99",
			Calories: 320,
		},
		Ingredients: []domain.PresetIngredient{
			{IngredientID: "spinach", Percent: 40, GramsUsed: 400, Calories: 92},
			{IngredientID: "quinoa", Percent: 60, GramsUsed: 600, Calories: 228},
		},
	}

	draft, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindPreset, Preset: preset},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.HasPrefix(draft.ID, "sap_") {
		t.Fatalf("unexpected order id %q", draft.ID)
	}
	if draft.OrderType != "salad_preset" {
		t.Fatalf("unexpected order type %q", draft.OrderType)
	}
	if draft.TotalPrice != "12.99" || draft.TotalCalories != 320 {
		t.Fatalf("unexpected totals: %q / %d", draft.TotalPrice, draft.TotalCalories)
	}
	if len(draft.Ingredients) != 2 || draft.Ingredients[1].GramsUsed != 600 {
		t.Fatalf("unexpected ingredients: %+v", draft.Ingredients)
	}
}

func TestAssembleCatalogOrder(t *testing.T) {
	assembler := testAssembler(t)

	item := &domain.MenuItem{
		ID:       "mango-magic",
		Name:     "Mango Magic",
		Category: "sweets",
		Price:    "9.99",
		Calories: 320,
	}

	draft, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCatalog, Catalog: item},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if !strings.HasPrefix(draft.ID, "swo_") {
		t.Fatalf("unexpected order id %q", draft.ID)
	}
	if draft.OrderType != "sweets_original" {
		t.Fatalf("unexpected order type %q", draft.OrderType)
	}
	if draft.TotalPrice != "9.99" || draft.TotalCalories != 320 {
		t.Fatalf("unexpected totals: %q / %d", draft.TotalPrice, draft.TotalCalories)
	}
}

func TestAssembleRejectsMissingItem(t *testing.T) {
	assembler := testAssembler(t)

	_, err := assembler.Build(context.Background(), AssemblyInput{MachineID: "machine-001"})
	if !errors.Is(err, ErrAssemblyNoItem) {
		t.Fatalf("expected ErrAssemblyNoItem, got %v", err)
	}

	_, err = assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCustom},
	})
	if !errors.Is(err, ErrAssemblyInvalidItem) {
		t.Fatalf("expected ErrAssemblyInvalidItem, got %v", err)
	}
}

func TestAssembleRejectsBadPresetPrice(t *testing.T) {
	assembler := testAssembler(t)

	preset := &domain.PresetSelection{
		Summary: domain.PresetSummary{ID: "bad", Category: "smoothies", Price: "free"},
	}
	_, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindPreset, Preset: preset},
	})
	if err == nil {
		t.Fatalf("expected error for unparseable price")
	}
}

func TestOrderIDUsesInjectedGenerator(t *testing.T) {
	counter := 0
	assembler := NewOrderAssembler(OrderAssemblerDeps{
		Clock: fixedClock,
		IDGenerator: func() string {
			counter++
			return "ULID" + strings.Repeat("X", counter)
		},
	})
	recipe := confirmedSmoothie(t)

	first, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCustom, Custom: &recipe},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	second, err := assembler.Build(context.Background(), AssemblyInput{
		MachineID: "machine-001",
		Item:      domain.ItemSelection{Kind: domain.ItemKindCustom, Custom: &recipe},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("order ids must be unique: %q", first.ID)
	}
}
