// Package catalog holds the built-in demo menu served when a kiosk runs
// without a live preset feed. Items carry fixed prices and are never
// composed or repriced by the recipe engine.
package catalog

import (
	"errors"
	"sort"
	"sync"

	"github.com/urban-harvest/kiosk/internal/domain"
)

// ErrItemNotFound indicates the requested menu item is not in the catalog.
var ErrItemNotFound = errors.New("catalog: item not found")

// Store is an in-memory, read-mostly catalog of fixed-price menu items
// and their add-ons. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	items  map[string]domain.MenuItem
	addons map[string]domain.CatalogAddon
}

// NewStore returns a Store seeded with the demo menu.
func NewStore() *Store {
	s := &Store{
		items:  make(map[string]domain.MenuItem),
		addons: make(map[string]domain.CatalogAddon),
	}
	for _, item := range seedItems() {
		s.items[item.ID] = item
	}
	for _, addon := range seedAddons() {
		s.addons[addon.ID] = addon
	}
	return s
}

// Items lists every menu item, sorted by category then name.
func (s *Store) Items() []domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MenuItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// ItemsByCategory lists the menu items of one category, sorted by name.
func (s *Store) ItemsByCategory(category string) []domain.MenuItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.MenuItem
	for _, item := range s.items {
		if item.Category == category {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Item fetches a single menu item by id.
func (s *Store) Item(id string) (domain.MenuItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return domain.MenuItem{}, ErrItemNotFound
	}
	return item, nil
}

// Addons lists the catalog add-ons, sorted by name.
func (s *Store) Addons() []domain.CatalogAddon {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CatalogAddon, 0, len(s.addons))
	for _, addon := range s.addons {
		out = append(out, addon)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func seedItems() []domain.MenuItem {
	return []domain.MenuItem{
		{
			ID:          "blueberry-blast",
			Name:        "Blueberry Blast",
			Category:    "smoothies",
			Price:       "8.99",
			Calories:    280,
			Description: "Rich blueberries with creamy yogurt",
			Image:       "https://images.unsplash.com/photo-1553530666-ba11a7da3888?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			ID:          "orange-twist",
			Name:        "Orange Twist",
			Category:    "smoothies",
			Price:       "7.99",
			Calories:    250,
			Description: "Fresh orange juice with tropical flavors",
			Image:       "https://images.unsplash.com/photo-1600271886742-f049cd451bba?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			ID:          "mango-magic",
			Name:        "Mango Magic",
			Category:    "smoothies",
			Price:       "9.99",
			Calories:    320,
			Description: "Tropical mango with coconut milk",
			Image:       "https://images.unsplash.com/photo-1546173159-315724a31696?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			ID:          "caesar-crunch",
			Name:        "Caesar Crunch",
			Category:    "salads",
			Price:       "12.99",
			Calories:    320,
			Description: "Classic caesar with crispy croutons",
			Image:       "https://images.unsplash.com/photo-1512621776951-a57141f2eefd?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			ID:          "quinoa-power",
			Name:        "Quinoa Power",
			Category:    "salads",
			Price:       "13.99",
			Calories:    380,
			Description: "Protein-packed quinoa with mixed vegetables",
			Image:       "https://images.unsplash.com/photo-1540420773420-3366772f4999?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
		{
			ID:          "green-detox",
			Name:        "Green Detox",
			Category:    "salads",
			Price:       "11.99",
			Calories:    180,
			Description: "Fresh greens with detox superfoods",
			Image:       "https://images.unsplash.com/photo-1505576391880-b3f9d713dc4f?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=300",
		},
	}
}

func seedAddons() []domain.CatalogAddon {
	return []domain.CatalogAddon{
		{ID: "pistachio", Name: "Pistachio", Price: "1.50", Icon: "🥜"},
		{ID: "almond", Name: "Almond", Price: "1.25", Icon: "🥜"},
		{ID: "chia-seeds", Name: "Chia Seeds", Price: "1.00", Icon: "🌱"},
		{ID: "protein-powder", Name: "Protein Powder", Price: "2.00", Icon: "💪"},
		{ID: "honey", Name: "Honey", Price: "0.75", Icon: "🍯"},
	}
}
