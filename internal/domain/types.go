package domain

import (
	"time"
)

// Category identifies the top-level product family a shopper is ordering from.
type Category string

const (
	// CategorySmoothies covers blended drinks composed in a cup container.
	CategorySmoothies Category = "smoothies"
	// CategorySalads covers bowls composed from salad ingredients.
	CategorySalads Category = "salads"
	// CategorySweets covers boxed sweets composed in a sized box container.
	CategorySweets Category = "sweets"
)

// ContainerKind enumerates physical container families with distinct fill rules.
type ContainerKind string

const (
	// ContainerCup is the smoothie cup: five 20% slots, fixed capacity.
	ContainerCup ContainerKind = "cup"
	// ContainerBowl is the salad bowl: 10% steps, at most five distinct ingredients.
	ContainerBowl ContainerKind = "bowl"
	// ContainerBox is the sweets box: 10% steps, capacity scaled by the variant.
	ContainerBox ContainerKind = "box"
)

// ContainerSpec captures the fill rules enforced for a container kind.
type ContainerSpec struct {
	Kind        ContainerKind
	Increment   int // percentage added or removed per action
	MaxDistinct int // 0 means no distinct-ingredient limit
	BaseGrams   int // grams represented by 100% at multiplier 1
}

// ContainerVariant is a selectable size for box-style containers.
type ContainerVariant struct {
	ID         string
	Name       string
	SizeLabel  string
	Multiplier float64 // scales the 100%-basis ceiling and the gram capacity
}

// SpecForCategory returns the fill rules for the category's container.
func SpecForCategory(category Category) ContainerSpec {
	switch category {
	case CategorySmoothies:
		return ContainerSpec{Kind: ContainerCup, Increment: 20, MaxDistinct: 5, BaseGrams: 1000}
	case CategorySalads:
		return ContainerSpec{Kind: ContainerBowl, Increment: 10, MaxDistinct: 5, BaseGrams: 1000}
	default:
		return ContainerSpec{Kind: ContainerBox, Increment: 10, MaxDistinct: 0, BaseGrams: 1000}
	}
}

// DefaultVariant is the container variant used when the category has no
// selectable sizes (cup and bowl), and the initial box selection.
func DefaultVariant(category Category) ContainerVariant {
	if category == CategorySweets {
		return BoxVariants()[1]
	}
	return ContainerVariant{ID: string(category), Name: string(category), SizeLabel: "1 kg", Multiplier: 1}
}

// BoxVariants lists the selectable sweet-box sizes.
func BoxVariants() []ContainerVariant {
	return []ContainerVariant{
		{ID: "half-kg", Name: "Small Box", SizeLabel: "0.5 kg", Multiplier: 0.5},
		{ID: "one-kg", Name: "Regular Box", SizeLabel: "1 kg", Multiplier: 1},
		{ID: "two-kg", Name: "Large Box", SizeLabel: "2 kg", Multiplier: 2},
	}
}

// BaseOptionsForCategory lists the liquid or dressing toggles the category
// requires at least one of before a custom recipe can be confirmed.
func BaseOptionsForCategory(category Category) []string {
	switch category {
	case CategorySmoothies:
		return []string{"milk", "hot-water"}
	case CategorySalads:
		return []string{"dressing-1", "dressing-2"}
	default:
		return nil
	}
}

// RawIngredient mirrors an ingredient record exactly as the machine backend
// reports it. Normalized options keep a copy so later stages can recompute
// grams-based quantities without re-fetching.
type RawIngredient struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Emoji         string  `json:"emoji"`
	PricePerUnit  string  `json:"price_per_unit"`
	CaloriesPerG  float64 `json:"calories_per_gram"`
	MinQtyGrams   int     `json:"min_qty_g"`
	MaxPercentage int     `json:"max_percentage"`
	IsAvailable   bool    `json:"is_available"`
	IsLowStock    bool    `json:"is_low_stock"`
	QtyAvailable  int     `json:"qty_available"`
}

// RawAddon mirrors an add-on record as reported by the machine backend.
type RawAddon struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	Emoji           string  `json:"emoji"`
	Icon            string  `json:"icon"`
	PricePerUnit    string  `json:"price_per_unit"`
	CaloriesPerUnit float64 `json:"calories_per_unit"`
	IsAvailable     bool    `json:"is_available"`
	IsLowStock      bool    `json:"is_low_stock"`
	QtyAvailable    int     `json:"qty_available"`
}

// MachineInventory is the full inventory payload for one vending machine.
type MachineInventory struct {
	MachineID       string          `json:"machine_id"`
	MachineLocation string          `json:"machine_location"`
	MachineStatus   string          `json:"machine_status"`
	LastUpdated     string          `json:"last_updated"`
	Ingredients     []RawIngredient `json:"ingredients"`
	Addons          []RawAddon      `json:"addons"`
}

// IngredientOption is a normalized, session-ready view of a raw ingredient.
type IngredientOption struct {
	ID              string
	Name            string
	Emoji           string
	PricePerKg      float64
	CaloriesPerGram float64
	MinQtyGrams     int
	MaxPercentage   int
	Available       bool
	LowStock        bool
	Raw             RawIngredient
}

// AddonOption is a normalized, session-ready view of a raw add-on.
type AddonOption struct {
	ID              string
	Name            string
	Emoji           string
	PricePerUnit    float64
	CaloriesPerUnit float64
	Available       bool
	LowStock        bool
	QtyAvailable    int
	Raw             RawAddon
}

// SelectedIngredient is one ingredient line inside an in-progress recipe.
// Percentage is always a positive multiple of the container increment and
// never exceeds the option's MaxPercentage.
type SelectedIngredient struct {
	Option     IngredientOption
	Percentage int
}

// IngredientUsage is a priced, weighed line inside a confirmed recipe.
type IngredientUsage struct {
	ID         string
	Name       string
	Emoji      string
	Percentage int
	Grams      float64
	Calories   float64
	Price      float64
}

// RecipeSnapshot is the immutable result of confirming a custom recipe.
type RecipeSnapshot struct {
	Category      Category
	Container     ContainerVariant
	Ingredients   []IngredientUsage
	Liquids       []string
	TotalPercent  int
	TotalPrice    float64
	TotalCalories float64
	ConfirmedAt   time.Time
}

// AddonLine pairs an add-on option with the quantity selected for it.
type AddonLine struct {
	Option   AddonOption
	Quantity int
}

// MenuItem is a fixed-price catalog item from the legacy demo menu.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Calories    int    `json:"calories"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// CatalogAddon is an add-on from the legacy demo menu.
type CatalogAddon struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price string `json:"price"`
	Icon  string `json:"icon"`
}

// PresetSummary describes a server-defined recipe available on a machine.
type PresetSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Price       string `json:"price"`
	Calories    int    `json:"calories"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// PresetIngredient is one ingredient line of a preset recipe as served by
// the machine backend.
type PresetIngredient struct {
	IngredientID    string  `json:"ingredient_id"`
	IngredientName  string  `json:"ingredient_name"`
	IngredientEmoji string  `json:"ingredient_emoji"`
	Percent         int     `json:"percent"`
	GramsUsed       float64 `json:"grams_used"`
	Calories        float64 `json:"calories"`
}

// PresetDetails carries the full composition of a preset recipe.
type PresetDetails struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Ingredients []PresetIngredient `json:"ingredients"`
}

// ItemKind tags the variant of a selected base item.
type ItemKind string

const (
	// ItemKindCustom is a shopper-composed recipe confirmed by the engine.
	ItemKindCustom ItemKind = "custom"
	// ItemKindPreset is a server-defined recipe fetched from the backend.
	ItemKindPreset ItemKind = "preset"
	// ItemKindCatalog is a fixed-price item from the legacy demo menu.
	ItemKindCatalog ItemKind = "catalog"
)

// PresetSelection bundles a preset summary with its fetched composition.
type PresetSelection struct {
	Summary     PresetSummary
	Ingredients []PresetIngredient
}

// ItemSelection is the tagged base-item variant held by the session. Exactly
// one of Custom, Preset and Catalog is set, matching Kind.
type ItemSelection struct {
	Kind    ItemKind
	Custom  *RecipeSnapshot
	Preset  *PresetSelection
	Catalog *MenuItem
}

// Key identifies the base item for structural comparison: selections with
// equal keys are revisits of the same item, not a new choice.
func (s ItemSelection) Key() string {
	switch s.Kind {
	case ItemKindPreset:
		if s.Preset != nil {
			return string(ItemKindPreset) + ":" + s.Preset.Summary.ID
		}
	case ItemKindCatalog:
		if s.Catalog != nil {
			return string(ItemKindCatalog) + ":" + s.Catalog.ID
		}
	case ItemKindCustom:
		return string(ItemKindCustom)
	}
	return ""
}

// Category reports the product family of the selected item.
func (s ItemSelection) Category() Category {
	switch s.Kind {
	case ItemKindCustom:
		if s.Custom != nil {
			return s.Custom.Category
		}
	case ItemKindPreset:
		if s.Preset != nil {
			return Category(s.Preset.Summary.Category)
		}
	case ItemKindCatalog:
		if s.Catalog != nil {
			return Category(s.Catalog.Category)
		}
	}
	return ""
}

// OrderStatus enumerates the client-visible order lifecycle states.
type OrderStatus string

const (
	// OrderStatusPending is the initial state of a created order.
	OrderStatusPending OrderStatus = "pending"
	// OrderStatusProcessing indicates payment succeeded and the machine is preparing the order.
	OrderStatusProcessing OrderStatus = "processing"
	// OrderStatusCompleted indicates the order is ready for pickup.
	OrderStatusCompleted OrderStatus = "completed"
	// OrderStatusFailed indicates the payment simulation reported failure.
	OrderStatusFailed OrderStatus = "failed"
	// OrderStatusCancelled indicates the shopper abandoned the order explicitly.
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal reports whether the status permits no further transitions.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusCompleted, OrderStatusFailed, OrderStatusCancelled:
		return true
	}
	return false
}

// OrderIngredient is an ingredient-usage line inside an order payload.
type OrderIngredient struct {
	IngredientID string `json:"ingredient_id"`
	GramsUsed    int    `json:"grams_used"`
	Calories     int    `json:"calories"`
}

// OrderAddon is an add-on usage line inside an order payload.
type OrderAddon struct {
	AddonID  string `json:"addon_id"`
	Quantity int    `json:"quantity"`
	Calories int    `json:"calories"`
}

// LiquidUsage is a liquid or dressing line inside an order payload.
type LiquidUsage struct {
	Name     string `json:"name"`
	Quantity string `json:"quantity"`
}

// OrderDraft is the payload submitted to the machine backend to create an
// order. It is an export of session state, never a live reference to it.
type OrderDraft struct {
	ID            string            `json:"id"`
	MachineID     string            `json:"machine_id"`
	OrderType     string            `json:"order_type"`
	Status        OrderStatus       `json:"status"`
	TotalPrice    string            `json:"total_price"`
	TotalCalories int               `json:"total_calories"`
	Ingredients   []OrderIngredient `json:"ingredients"`
	Addons        []OrderAddon      `json:"addons"`
	Liquids       []LiquidUsage     `json:"liquids"`
	CreatedAt     time.Time         `json:"created_at"`
}

// Order is the backend's view of a submitted order.
type Order struct {
	ID            string      `json:"id"`
	MachineID     string      `json:"machine_id"`
	OrderType     string      `json:"order_type"`
	Status        OrderStatus `json:"status"`
	TotalPrice    string      `json:"total_price"`
	TotalCalories int         `json:"total_calories"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Alert is a transient, auto-dismissing message shown after a rejected
// recipe or add-on mutation. It expires rather than being acknowledged.
type Alert struct {
	Message string
	Until   time.Time
}

// Active reports whether the alert should still be displayed at now.
func (a Alert) Active(now time.Time) bool {
	return a.Message != "" && now.Before(a.Until)
}
