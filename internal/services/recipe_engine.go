package services

import (
	"errors"
	"fmt"
	"math"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

var (
	// ErrRecipeInvalidInput signals the caller provided invalid data.
	ErrRecipeInvalidInput = errors.New("recipe: invalid input")
	// ErrIngredientUnavailable rejects additions of out-of-stock or low-stock ingredients.
	ErrIngredientUnavailable = errors.New("recipe: ingredient unavailable")
	// ErrIngredientCapReached rejects additions past the ingredient's own percentage cap.
	ErrIngredientCapReached = errors.New("recipe: ingredient at maximum percentage")
	// ErrContainerFull rejects additions past the container's effective ceiling.
	ErrContainerFull = errors.New("recipe: container is full")
	// ErrIngredientCountExceeded rejects a new ingredient beyond the container's distinct limit.
	ErrIngredientCountExceeded = errors.New("recipe: too many distinct ingredients")
	// ErrContainerNotFull rejects confirmation of a partially filled container.
	ErrContainerNotFull = errors.New("recipe: container not full")
	// ErrBaseOptionRequired rejects confirmation without a liquid or dressing toggled on.
	ErrBaseOptionRequired = errors.New("recipe: base option required")
	// ErrUnknownBaseOption rejects toggles of options the category does not offer.
	ErrUnknownBaseOption = errors.New("recipe: unknown base option")
)

// RecipeEngine composes one custom recipe for one container. Every mutation
// either applies fully or rejects with the state unchanged. Not safe for
// concurrent use; the owning session serialises access.
type RecipeEngine struct {
	category domain.Category
	spec     domain.ContainerSpec
	variant  domain.ContainerVariant
	clock    func() time.Time

	selections []domain.SelectedIngredient
	bases      []string
}

// NewRecipeEngine starts an empty recipe for the category's container with
// its default variant.
func NewRecipeEngine(category domain.Category, clock func() time.Time) *RecipeEngine {
	return &RecipeEngine{
		category: category,
		spec:     domain.SpecForCategory(category),
		variant:  domain.DefaultVariant(category),
		clock:    utcClock(clock),
	}
}

// Category reports the product family this recipe belongs to.
func (e *RecipeEngine) Category() domain.Category { return e.category }

// Spec reports the fill rules in force.
func (e *RecipeEngine) Spec() domain.ContainerSpec { return e.spec }

// Variant reports the selected container variant.
func (e *RecipeEngine) Variant() domain.ContainerVariant { return e.variant }

// SelectVariant switches the container size. Changing capacity invalidates
// the composition, so all selections and base toggles are cleared.
func (e *RecipeEngine) SelectVariant(variant domain.ContainerVariant) error {
	if variant.Multiplier <= 0 {
		return fmt.Errorf("%w: variant multiplier must be positive", ErrRecipeInvalidInput)
	}
	if variant.ID == e.variant.ID {
		return nil
	}
	e.variant = variant
	e.selections = nil
	e.bases = nil
	return nil
}

// EffectiveCeiling is the total percentage that fills the container: 100
// scaled by the variant multiplier.
func (e *RecipeEngine) EffectiveCeiling() int {
	return int(math.Round(100 * e.variant.Multiplier))
}

// TotalPercent sums the selected percentages.
func (e *RecipeEngine) TotalPercent() int {
	total := 0
	for _, sel := range e.selections {
		total += sel.Percentage
	}
	return total
}

// AddIngredient raises the ingredient by one increment, admitting it on
// first touch. Rejections leave the recipe untouched.
func (e *RecipeEngine) AddIngredient(opt domain.IngredientOption) error {
	if opt.ID == "" {
		return fmt.Errorf("%w: ingredient id is required", ErrRecipeInvalidInput)
	}
	if !opt.Available || opt.LowStock {
		return fmt.Errorf("%w: %s", ErrIngredientUnavailable, opt.ID)
	}

	idx := e.indexOf(opt.ID)
	current := 0
	if idx >= 0 {
		current = e.selections[idx].Percentage
	}

	if current+e.spec.Increment > opt.MaxPercentage {
		return fmt.Errorf("%w: %s at %d%%", ErrIngredientCapReached, opt.ID, current)
	}
	// A new ingredient hits the distinct limit before the ceiling; on a full
	// cup both would trigger and the count message is the actionable one.
	if idx < 0 && e.spec.MaxDistinct > 0 && len(e.selections) >= e.spec.MaxDistinct {
		return fmt.Errorf("%w: limit %d", ErrIngredientCountExceeded, e.spec.MaxDistinct)
	}
	if e.TotalPercent()+e.spec.Increment > e.EffectiveCeiling() {
		return fmt.Errorf("%w: %d%% of %d%%", ErrContainerFull, e.TotalPercent(), e.EffectiveCeiling())
	}

	if idx >= 0 {
		e.selections[idx].Percentage = current + e.spec.Increment
		return nil
	}
	e.selections = append(e.selections, domain.SelectedIngredient{Option: opt, Percentage: e.spec.Increment})
	return nil
}

// DecreaseIngredient lowers the ingredient by one increment, removing it
// when it would drop to zero. Absent ingredients are a no-op.
func (e *RecipeEngine) DecreaseIngredient(id string) {
	idx := e.indexOf(id)
	if idx < 0 {
		return
	}
	if e.selections[idx].Percentage <= e.spec.Increment {
		e.removeAt(idx)
		return
	}
	e.selections[idx].Percentage -= e.spec.Increment
}

// RemoveIngredient drops the ingredient entirely. Idempotent.
func (e *RecipeEngine) RemoveIngredient(id string) {
	if idx := e.indexOf(id); idx >= 0 {
		e.removeAt(idx)
	}
}

// ToggleBase flips a liquid or dressing option for the category.
func (e *RecipeEngine) ToggleBase(name string) error {
	allowed := false
	for _, option := range domain.BaseOptionsForCategory(e.category) {
		if option == name {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%w: %s", ErrUnknownBaseOption, name)
	}

	for i, base := range e.bases {
		if base == name {
			e.bases = append(e.bases[:i], e.bases[i+1:]...)
			return nil
		}
	}
	e.bases = append(e.bases, name)
	return nil
}

// Bases lists the toggled liquid or dressing options in toggle order.
func (e *RecipeEngine) Bases() []string {
	out := make([]string, len(e.bases))
	copy(out, e.bases)
	return out
}

// Selections returns a copy of the current ingredient lines.
func (e *RecipeEngine) Selections() []domain.SelectedIngredient {
	out := make([]domain.SelectedIngredient, len(e.selections))
	copy(out, e.selections)
	return out
}

// Usage prices and weighs the current selections.
func (e *RecipeEngine) Usage() []domain.IngredientUsage {
	out := make([]domain.IngredientUsage, 0, len(e.selections))
	for _, sel := range e.selections {
		out = append(out, e.usageFor(sel))
	}
	return out
}

// Totals derives current price and calories across the selections.
func (e *RecipeEngine) Totals() (price, calories float64) {
	for _, sel := range e.selections {
		usage := e.usageFor(sel)
		price += usage.Price
		calories += usage.Calories
	}
	return price, calories
}

// Confirm freezes the recipe. The container must be filled exactly to its
// ceiling, and categories with base options need at least one toggled on.
func (e *RecipeEngine) Confirm() (domain.RecipeSnapshot, error) {
	ceiling := e.EffectiveCeiling()
	total := e.TotalPercent()
	if total != ceiling {
		return domain.RecipeSnapshot{}, fmt.Errorf("%w: %d%% of %d%%", ErrContainerNotFull, total, ceiling)
	}
	if len(domain.BaseOptionsForCategory(e.category)) > 0 && len(e.bases) == 0 {
		return domain.RecipeSnapshot{}, fmt.Errorf("%w: %s", ErrBaseOptionRequired, e.category)
	}

	price, calories := e.Totals()
	snapshot := domain.RecipeSnapshot{
		Category:      e.category,
		Container:     e.variant,
		Ingredients:   e.Usage(),
		Liquids:       e.Bases(),
		TotalPercent:  total,
		TotalPrice:    price,
		TotalCalories: calories,
		ConfirmedAt:   e.clock(),
	}
	return snapshot, nil
}

// DisplayPrice rounds a running price up to a whole currency unit for the
// touch screen.
func DisplayPrice(price float64) int {
	return int(math.Ceil(price))
}

// DisplayCalories rounds running calories to the nearest whole value.
func DisplayCalories(calories float64) int {
	return int(math.Round(calories))
}

func (e *RecipeEngine) usageFor(sel domain.SelectedIngredient) domain.IngredientUsage {
	grams := gramsForPercent(sel.Percentage, sel.Option, e.spec)
	return domain.IngredientUsage{
		ID:         sel.Option.ID,
		Name:       sel.Option.Name,
		Emoji:      sel.Option.Emoji,
		Percentage: sel.Percentage,
		Grams:      grams,
		Calories:   sel.Option.CaloriesPerGram * grams,
		// Per-kg pricing scales by the variant multiplier; dispensed grams do not.
		Price: sel.Option.PricePerKg * grams / 1000 * e.variant.Multiplier,
	}
}

// gramsForPercent converts a percentage into grams: each increment step
// dispenses the ingredient's minimum quantity.
func gramsForPercent(percent int, opt domain.IngredientOption, spec domain.ContainerSpec) float64 {
	if spec.Increment <= 0 {
		return 0
	}
	steps := float64(percent) / float64(spec.Increment)
	return steps * float64(opt.MinQtyGrams)
}

func (e *RecipeEngine) indexOf(id string) int {
	for i, sel := range e.selections {
		if sel.Option.ID == id {
			return i
		}
	}
	return -1
}

func (e *RecipeEngine) removeAt(idx int) {
	e.selections = append(e.selections[:idx], e.selections[idx+1:]...)
}
