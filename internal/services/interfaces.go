// Package services implements the kiosk's order-composition core: the
// inventory snapshot adapter, the recipe composition engine, the add-on
// ledger, order assembly, the order lifecycle tracker, and the per-shopper
// session aggregate that owns them.
package services

import (
	"context"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Category           = domain.Category
	ContainerSpec      = domain.ContainerSpec
	ContainerVariant   = domain.ContainerVariant
	MachineInventory   = domain.MachineInventory
	IngredientOption   = domain.IngredientOption
	AddonOption        = domain.AddonOption
	SelectedIngredient = domain.SelectedIngredient
	IngredientUsage    = domain.IngredientUsage
	RecipeSnapshot     = domain.RecipeSnapshot
	AddonLine          = domain.AddonLine
	MenuItem           = domain.MenuItem
	PresetSummary      = domain.PresetSummary
	PresetDetails      = domain.PresetDetails
	PresetSelection    = domain.PresetSelection
	ItemSelection      = domain.ItemSelection
	OrderDraft         = domain.OrderDraft
	Order              = domain.Order
	OrderStatus        = domain.OrderStatus
	Alert              = domain.Alert
)

// MachineAPI is the backend surface the services consume. Implemented by
// machine.Client; stubbed in tests.
type MachineAPI interface {
	Inventory(ctx context.Context, machineID string) (domain.MachineInventory, error)
	Presets(ctx context.Context, machineID, category string) ([]domain.PresetSummary, error)
	PresetDetails(ctx context.Context, presetID string) (domain.PresetDetails, error)
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	Order(ctx context.Context, orderID string) (domain.Order, error)
}

// InventoryService exposes the normalized, cached inventory snapshot for
// the kiosk's machine.
type InventoryService interface {
	Snapshot(ctx context.Context) (InventorySnapshot, error)
	Refresh(ctx context.Context) (InventorySnapshot, error)
	Run(ctx context.Context)
}

// OrderService submits assembled orders to the backend and drives the
// simulated payment step.
type OrderService interface {
	Submit(ctx context.Context, input AssemblyInput) (Order, error)
	ResolvePayment(ctx context.Context, orderID string, outcome PaymentOutcome) (Order, error)
	Cancel(ctx context.Context, orderID string) (Order, error)
	Status(ctx context.Context, orderID string) (Order, error)
	Await(ctx context.Context, orderID string) (OrderStatus, error)
}

// Logger is the structured event callback shared by the services.
type Logger func(ctx context.Context, event string, fields map[string]any)

func noopLogger(context.Context, string, map[string]any) {}

func utcClock(clock func() time.Time) func() time.Time {
	if clock == nil {
		clock = time.Now
	}
	return func() time.Time {
		return clock().UTC()
	}
}
