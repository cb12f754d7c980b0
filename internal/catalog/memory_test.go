package catalog

import (
	"errors"
	"testing"
)

func TestStoreItemsSorted(t *testing.T) {
	store := NewStore()

	items := store.Items()
	if len(items) != 6 {
		t.Fatalf("len(items) = %d, want 6", len(items))
	}
	for i := 1; i < len(items); i++ {
		prev, curr := items[i-1], items[i]
		if prev.Category > curr.Category {
			t.Fatalf("items not sorted by category: %q before %q", prev.Category, curr.Category)
		}
		if prev.Category == curr.Category && prev.Name > curr.Name {
			t.Fatalf("items not sorted by name: %q before %q", prev.Name, curr.Name)
		}
	}
}

func TestStoreItemsByCategory(t *testing.T) {
	store := NewStore()

	smoothies := store.ItemsByCategory("smoothies")
	if len(smoothies) != 3 {
		t.Fatalf("len(smoothies) = %d, want 3", len(smoothies))
	}
	for _, item := range smoothies {
		if item.Category != "smoothies" {
			t.Fatalf("category = %q", item.Category)
		}
	}

	if got := store.ItemsByCategory("sushi"); len(got) != 0 {
		t.Fatalf("unknown category returned %d items", len(got))
	}
}

func TestStoreItemLookup(t *testing.T) {
	store := NewStore()

	item, err := store.Item("caesar-crunch")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Price != "12.99" || item.Calories != 320 {
		t.Fatalf("item = %+v", item)
	}

	if _, err := store.Item("nope"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("err = %v, want ErrItemNotFound", err)
	}
}

func TestStoreAddons(t *testing.T) {
	store := NewStore()

	addons := store.Addons()
	if len(addons) != 5 {
		t.Fatalf("len(addons) = %d, want 5", len(addons))
	}
	for i := 1; i < len(addons); i++ {
		if addons[i-1].Name > addons[i].Name {
			t.Fatalf("addons not sorted: %q before %q", addons[i-1].Name, addons[i].Name)
		}
	}
}
