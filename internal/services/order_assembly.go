package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

const assemblyEventStaleIngredient = "assembly.ingredient.stale"

var (
	// ErrAssemblyNoItem indicates there is no base item to build an order from.
	ErrAssemblyNoItem = errors.New("assembly: no item selected")
	// ErrAssemblyInvalidItem indicates the tagged selection carries no payload for its kind.
	ErrAssemblyInvalidItem = errors.New("assembly: malformed item selection")
)

// Liquid usage labels on the order wire format.
const liquidQuantityLabel = "1 serving"

// AssemblyInput gathers everything an order is built from. The assembler
// reads it and never mutates the underlying session state.
type AssemblyInput struct {
	MachineID string
	Item      domain.ItemSelection
	Addons    []domain.AddonLine
	Inventory *InventorySnapshot
}

// OrderAssemblerDeps bundles collaborators required to construct the assembler.
type OrderAssemblerDeps struct {
	Clock       func() time.Time
	IDGenerator func() string
	Logger      Logger
}

// OrderAssembler builds immutable order drafts from session state.
type OrderAssembler struct {
	clock  func() time.Time
	newID  func() string
	logger Logger
}

// NewOrderAssembler wires dependencies into an OrderAssembler.
func NewOrderAssembler(deps OrderAssemblerDeps) *OrderAssembler {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}
	return &OrderAssembler{
		clock:  utcClock(deps.Clock),
		newID:  idGen,
		logger: logger,
	}
}

// Build assembles an order draft for submission. Prices and calories are
// carried as floats internally and rounded only here, at serialization.
func (a *OrderAssembler) Build(ctx context.Context, input AssemblyInput) (domain.OrderDraft, error) {
	if input.Item.Kind == "" {
		return domain.OrderDraft{}, ErrAssemblyNoItem
	}

	now := a.clock()
	draft := domain.OrderDraft{
		MachineID: strings.TrimSpace(input.MachineID),
		Status:    domain.OrderStatusPending,
		CreatedAt: now,
	}

	var totalPrice, totalCalories float64
	var err error

	switch input.Item.Kind {
	case domain.ItemKindCustom:
		totalPrice, totalCalories, err = a.appendCustom(ctx, &draft, input)
	case domain.ItemKindPreset:
		totalPrice, totalCalories, err = a.appendPreset(&draft, input.Item.Preset)
	case domain.ItemKindCatalog:
		totalPrice, totalCalories, err = a.appendCatalog(&draft, input.Item.Catalog)
	default:
		err = fmt.Errorf("%w: kind %q", ErrAssemblyInvalidItem, input.Item.Kind)
	}
	if err != nil {
		return domain.OrderDraft{}, err
	}

	for _, line := range input.Addons {
		totalPrice += line.Option.PricePerUnit * float64(line.Quantity)
		lineCalories := line.Option.CaloriesPerUnit * float64(line.Quantity)
		totalCalories += lineCalories
		draft.Addons = append(draft.Addons, domain.OrderAddon{
			AddonID:  line.Option.ID,
			Quantity: line.Quantity,
			Calories: int(math.Round(lineCalories)),
		})
	}

	draft.ID = a.orderID(input.Item)
	draft.OrderType = orderType(input.Item)
	draft.TotalPrice = formatPrice(totalPrice)
	draft.TotalCalories = int(math.Round(totalCalories))
	return draft, nil
}

func (a *OrderAssembler) appendCustom(ctx context.Context, draft *domain.OrderDraft, input AssemblyInput) (price, calories float64, err error) {
	recipe := input.Item.Custom
	if recipe == nil {
		return 0, 0, fmt.Errorf("%w: custom selection without snapshot", ErrAssemblyInvalidItem)
	}

	for _, usage := range recipe.Ingredients {
		// A selection can outlive the inventory record it was built from.
		// Stale lines keep their grams but contribute nothing to totals.
		if input.Inventory != nil {
			if _, ok := input.Inventory.Ingredient(usage.ID); !ok {
				a.logger(ctx, assemblyEventStaleIngredient, map[string]any{
					"ingredientId": usage.ID,
					"machineId":    input.MachineID,
				})
				draft.Ingredients = append(draft.Ingredients, domain.OrderIngredient{
					IngredientID: usage.ID,
					GramsUsed:    int(math.Round(usage.Grams)),
				})
				continue
			}
		}
		price += usage.Price
		calories += usage.Calories
		draft.Ingredients = append(draft.Ingredients, domain.OrderIngredient{
			IngredientID: usage.ID,
			GramsUsed:    int(math.Round(usage.Grams)),
			Calories:     int(math.Round(usage.Calories)),
		})
	}

	for _, liquid := range recipe.Liquids {
		draft.Liquids = append(draft.Liquids, domain.LiquidUsage{
			Name:     liquid,
			Quantity: liquidQuantityLabel,
		})
	}
	return price, calories, nil
}

func (a *OrderAssembler) appendPreset(draft *domain.OrderDraft, preset *domain.PresetSelection) (price, calories float64, err error) {
	if preset == nil {
		return 0, 0, fmt.Errorf("%w: preset selection without composition", ErrAssemblyInvalidItem)
	}

	price, err = parseAmount(preset.Summary.Price)
	if err != nil {
		return 0, 0, fmt.Errorf("assembly: preset %s price: %w", preset.Summary.ID, err)
	}
	calories = float64(preset.Summary.Calories)

	for _, ingredient := range preset.Ingredients {
		draft.Ingredients = append(draft.Ingredients, domain.OrderIngredient{
			IngredientID: ingredient.IngredientID,
			GramsUsed:    int(math.Round(ingredient.GramsUsed)),
			Calories:     int(math.Round(ingredient.Calories)),
		})
	}
	return price, calories, nil
}

func (a *OrderAssembler) appendCatalog(draft *domain.OrderDraft, item *domain.MenuItem) (price, calories float64, err error) {
	if item == nil {
		return 0, 0, fmt.Errorf("%w: catalog selection without item", ErrAssemblyInvalidItem)
	}
	price, err = parseAmount(item.Price)
	if err != nil {
		return 0, 0, fmt.Errorf("assembly: catalog item %s price: %w", item.ID, err)
	}
	return price, float64(item.Calories), nil
}

// orderID builds a type-coded identifier: a short category/kind code plus a
// ULID. The ULID's timestamp and random payload guard against collisions
// across kiosks.
func (a *OrderAssembler) orderID(item domain.ItemSelection) string {
	return orderTypeCode(item) + "_" + a.newID()
}

func orderTypeCode(item domain.ItemSelection) string {
	var category string
	switch item.Category() {
	case domain.CategorySmoothies:
		category = "sm"
	case domain.CategorySalads:
		category = "sa"
	case domain.CategorySweets:
		category = "sw"
	default:
		category = "xx"
	}

	switch item.Kind {
	case domain.ItemKindCustom:
		return category + "c"
	case domain.ItemKindPreset:
		return category + "p"
	case domain.ItemKindCatalog:
		return category + "o"
	}
	return category + "x"
}

func orderType(item domain.ItemSelection) string {
	var category string
	switch item.Category() {
	case domain.CategorySmoothies:
		category = "smoothie"
	case domain.CategorySalads:
		category = "salad"
	case domain.CategorySweets:
		category = "sweets"
	default:
		category = "unknown"
	}

	switch item.Kind {
	case domain.ItemKindCustom:
		return category + "_custom"
	case domain.ItemKindPreset:
		return category + "_preset"
	case domain.ItemKindCatalog:
		return category + "_original"
	}
	return category + "_unknown"
}

func formatPrice(amount float64) string {
	return strconv.FormatFloat(math.Round(amount*100)/100, 'f', 2, 64)
}

func parseAmount(value string) (float64, error) {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, errors.New("negative amount")
	}
	return parsed, nil
}
