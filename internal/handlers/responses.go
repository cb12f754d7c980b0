package handlers

import (
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/services"
)

type sessionResponse struct {
	Session sessionPayload `json:"session"`
}

type sessionPayload struct {
	ID            string             `json:"id"`
	Category      string             `json:"category,omitempty"`
	Recipe        *recipePayload     `json:"recipe,omitempty"`
	Item          *itemPayload       `json:"item,omitempty"`
	Addons        []addonLinePayload `json:"addons"`
	AddonQuantity int                `json:"addon_quantity"`
	OrderID       string             `json:"order_id,omitempty"`
	Alert         *alertPayload      `json:"alert,omitempty"`
}

type recipePayload struct {
	Variant        variantPayload     `json:"variant"`
	CeilingPercent int                `json:"ceiling_percent"`
	TotalPercent   int                `json:"total_percent"`
	Ingredients    []selectionPayload `json:"ingredients"`
	Bases          []string           `json:"bases"`
	Price          int                `json:"price"`
	Calories       int                `json:"calories"`
}

type variantPayload struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	SizeLabel string  `json:"size_label"`
	Multiplier float64 `json:"multiplier"`
}

type selectionPayload struct {
	IngredientID string `json:"ingredient_id"`
	Name         string `json:"name"`
	Emoji        string `json:"emoji"`
	Percentage   int    `json:"percentage"`
}

type itemPayload struct {
	Kind      string `json:"kind"`
	Key       string `json:"key"`
	Category  string `json:"category,omitempty"`
	PresetID  string `json:"preset_id,omitempty"`
	CatalogID string `json:"catalog_id,omitempty"`
}

type addonLinePayload struct {
	AddonID  string `json:"addon_id"`
	Name     string `json:"name"`
	Emoji    string `json:"emoji"`
	Quantity int    `json:"quantity"`
}

type alertPayload struct {
	Message string    `json:"message"`
	Until   time.Time `json:"until"`
}

type orderResponse struct {
	Order orderPayload `json:"order"`
}

type orderPayload struct {
	ID            string    `json:"id"`
	MachineID     string    `json:"machine_id"`
	OrderType     string    `json:"order_type"`
	Status        string    `json:"status"`
	TotalPrice    string    `json:"total_price"`
	TotalCalories int       `json:"total_calories"`
	CreatedAt     time.Time `json:"created_at"`
}

func buildSessionPayload(state services.SessionState) sessionPayload {
	payload := sessionPayload{
		ID:            state.ID,
		Category:      string(state.Category),
		Addons:        make([]addonLinePayload, 0, len(state.Addons)),
		AddonQuantity: state.AddonQuantity,
		OrderID:       state.OrderID,
	}

	if state.Category != "" {
		recipe := recipePayload{
			Variant: variantPayload{
				ID:         state.Variant.ID,
				Name:       state.Variant.Name,
				SizeLabel:  state.Variant.SizeLabel,
				Multiplier: state.Variant.Multiplier,
			},
			CeilingPercent: state.Ceiling,
			TotalPercent:   state.TotalPercent,
			Ingredients:    make([]selectionPayload, 0, len(state.Selections)),
			Bases:          state.Bases,
			Price:          state.DisplayPrice,
			Calories:       state.Calories,
		}
		if recipe.Bases == nil {
			recipe.Bases = []string{}
		}
		for _, sel := range state.Selections {
			recipe.Ingredients = append(recipe.Ingredients, selectionPayload{
				IngredientID: sel.Option.ID,
				Name:         sel.Option.Name,
				Emoji:        sel.Option.Emoji,
				Percentage:   sel.Percentage,
			})
		}
		payload.Recipe = &recipe
	}

	if state.Item != nil {
		item := itemPayload{
			Kind:     string(state.Item.Kind),
			Key:      state.Item.Key(),
			Category: string(state.Item.Category()),
		}
		if state.Item.Preset != nil {
			item.PresetID = state.Item.Preset.Summary.ID
		}
		if state.Item.Catalog != nil {
			item.CatalogID = state.Item.Catalog.ID
		}
		payload.Item = &item
	}

	for _, line := range state.Addons {
		payload.Addons = append(payload.Addons, addonLinePayload{
			AddonID:  line.Option.ID,
			Name:     line.Option.Name,
			Emoji:    line.Option.Emoji,
			Quantity: line.Quantity,
		})
	}

	if state.Alert != nil {
		payload.Alert = &alertPayload{Message: state.Alert.Message, Until: state.Alert.Until}
	}
	return payload
}

func buildOrderPayload(order domain.Order) orderPayload {
	return orderPayload{
		ID:            order.ID,
		MachineID:     order.MachineID,
		OrderType:     order.OrderType,
		Status:        string(order.Status),
		TotalPrice:    order.TotalPrice,
		TotalCalories: order.TotalCalories,
		CreatedAt:     order.CreatedAt,
	}
}
