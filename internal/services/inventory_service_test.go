package services

import (
	"context"
	"errors"
	"testing"

	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/machine"
)

func testMachineInventory() domain.MachineInventory {
	return domain.MachineInventory{
		MachineID:       "machine-001",
		MachineLocation: "Food Court A",
		MachineStatus:   "online",
		Ingredients: []domain.RawIngredient{
			{ID: "blueberry", Name: "Blueberry", Emoji: "🫐", PricePerUnit: "600.00", CaloriesPerG: 0.57, MinQtyGrams: 100, IsAvailable: true},
			{ID: "mango", Name: "Mango", Emoji: "🥭", PricePerUnit: "450.00", CaloriesPerG: 0.60, MinQtyGrams: 100, MaxPercentage: 60, IsAvailable: true, IsLowStock: true},
			{ID: "kiwi", Name: "Kiwi", Emoji: "🥝", PricePerUnit: "oops", CaloriesPerG: 0.61, MinQtyGrams: 100, IsAvailable: true},
		},
		Addons: []domain.RawAddon{
			{ID: "pistachio", Name: "Pistachio", Emoji: "🥜", PricePerUnit: "1.50", CaloriesPerUnit: 25, IsAvailable: true, QtyAvailable: 4},
			{ID: "honey", Name: "Honey", Emoji: "🍯", PricePerUnit: "0.75", CaloriesPerUnit: 64, IsAvailable: false},
		},
	}
}

func TestInventoryRefreshNormalizes(t *testing.T) {
	stub := &stubMachine{inventory: testMachineInventory()}
	svc, err := NewInventoryService(InventoryServiceDeps{Machine: stub, MachineID: "machine-001", Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	snapshot, err := svc.Refresh(context.Background())
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	if snapshot.MachineID != "machine-001" || snapshot.Status != "online" {
		t.Fatalf("unexpected snapshot header: %+v", snapshot)
	}
	if !snapshot.FetchedAt.Equal(fixedClock()) {
		t.Fatalf("unexpected FetchedAt: %v", snapshot.FetchedAt)
	}

	blueberry, ok := snapshot.Ingredient("blueberry")
	if !ok {
		t.Fatalf("blueberry missing from snapshot")
	}
	if blueberry.PricePerKg != 600 {
		t.Fatalf("expected parsed price 600, got %v", blueberry.PricePerKg)
	}
	if blueberry.MaxPercentage != 100 {
		t.Fatalf("missing max percentage must default to 100, got %d", blueberry.MaxPercentage)
	}

	mango, _ := snapshot.Ingredient("mango")
	if mango.MaxPercentage != 60 {
		t.Fatalf("explicit max percentage must be kept, got %d", mango.MaxPercentage)
	}

	kiwi, _ := snapshot.Ingredient("kiwi")
	if kiwi.PricePerKg != 0 {
		t.Fatalf("unparseable price must normalize to zero, got %v", kiwi.PricePerKg)
	}

	pistachio, ok := snapshot.Addon("pistachio")
	if !ok || pistachio.QtyAvailable != 4 {
		t.Fatalf("unexpected pistachio: %+v", pistachio)
	}
}

func TestInventoryAvailableFilters(t *testing.T) {
	stub := &stubMachine{inventory: testMachineInventory()}
	svc, err := NewInventoryService(InventoryServiceDeps{Machine: stub, MachineID: "machine-001", Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	snapshot, err := svc.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	ingredients := snapshot.AvailableIngredients()
	for _, opt := range ingredients {
		if opt.ID == "mango" {
			t.Fatalf("low-stock ingredient must be filtered out")
		}
	}
	if len(ingredients) != 2 {
		t.Fatalf("expected 2 available ingredients, got %d", len(ingredients))
	}

	addons := snapshot.AvailableAddons()
	if len(addons) != 1 || addons[0].ID != "pistachio" {
		t.Fatalf("unexpected available addons: %+v", addons)
	}
}

func TestInventorySnapshotUsesCache(t *testing.T) {
	stub := &stubMachine{inventory: testMachineInventory()}
	svc, err := NewInventoryService(InventoryServiceDeps{Machine: stub, MachineID: "machine-001", Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("first Snapshot: %v", err)
	}
	if _, err := svc.Snapshot(ctx); err != nil {
		t.Fatalf("second Snapshot: %v", err)
	}
	if stub.inventoryCalls != 1 {
		t.Fatalf("expected one backend fetch, got %d", stub.inventoryCalls)
	}
}

func TestInventoryRefreshFailureKeepsSnapshot(t *testing.T) {
	stub := &stubMachine{inventory: testMachineInventory()}
	svc, err := NewInventoryService(InventoryServiceDeps{Machine: stub, MachineID: "machine-001", Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	ctx := context.Background()
	if _, err := svc.Refresh(ctx); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	stub.inventoryErr = errors.New("backend down")
	if _, err := svc.Refresh(ctx); err == nil {
		t.Fatalf("expected refresh error")
	}

	snapshot, err := svc.Snapshot(ctx)
	if err != nil {
		t.Fatalf("Snapshot after failed refresh: %v", err)
	}
	if len(snapshot.Ingredients) == 0 {
		t.Fatalf("failed refresh must keep the previous snapshot")
	}
}

func TestInventoryUnknownMachine(t *testing.T) {
	stub := &stubMachine{inventoryErr: machine.ErrNotFound}
	svc, err := NewInventoryService(InventoryServiceDeps{Machine: stub, MachineID: "machine-404", Clock: fixedClock})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	if _, err := svc.Refresh(context.Background()); !errors.Is(err, ErrMachineUnavailable) {
		t.Fatalf("expected ErrMachineUnavailable, got %v", err)
	}
}

func TestNewInventoryServiceValidatesDeps(t *testing.T) {
	if _, err := NewInventoryService(InventoryServiceDeps{MachineID: "machine-001"}); err == nil {
		t.Fatalf("expected error without machine client")
	}
	if _, err := NewInventoryService(InventoryServiceDeps{Machine: &stubMachine{}}); err == nil {
		t.Fatalf("expected error without machine id")
	}
}
