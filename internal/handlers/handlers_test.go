package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/urban-harvest/kiosk/internal/catalog"
	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/machine"
	"github.com/urban-harvest/kiosk/internal/services"
)

const testMachineID = "machine-001"

// fakeMachine is an in-memory machine backend for handler tests.
type fakeMachine struct {
	mu        sync.Mutex
	inventory domain.MachineInventory
	presets   []domain.PresetSummary
	details   map[string]domain.PresetDetails
	orders    map[string]domain.Order
}

func newFakeMachine() *fakeMachine {
	return &fakeMachine{
		inventory: domain.MachineInventory{
			MachineID:       testMachineID,
			MachineLocation: "Food Court A",
			MachineStatus:   "online",
			Ingredients: []domain.RawIngredient{
				{ID: "blueberry", Name: "Blueberry", Emoji: "🫐", PricePerUnit: "600.00", CaloriesPerG: 0.57, MinQtyGrams: 100, IsAvailable: true},
				{ID: "mango", Name: "Mango", Emoji: "🥭", PricePerUnit: "450.00", CaloriesPerG: 0.60, MinQtyGrams: 100, IsAvailable: true},
			},
			Addons: []domain.RawAddon{
				{ID: "honey", Name: "Honey", Emoji: "🍯", PricePerUnit: "0.75", CaloriesPerUnit: 64, IsAvailable: true, QtyAvailable: 10},
			},
		},
		presets: []domain.PresetSummary{
			{ID: "berry-blast", Name: "Berry Blast", Category: "smoothies", Price: "8.99", Calories: 280},
		},
		details: map[string]domain.PresetDetails{
			"berry-blast": {
				ID:   "berry-blast",
				Name: "Berry Blast",
				Ingredients: []domain.PresetIngredient{
					{IngredientID: "blueberry", Percent: 100, GramsUsed: 500, Calories: 285},
				},
			},
		},
		orders: map[string]domain.Order{},
	}
}

func (f *fakeMachine) Inventory(ctx context.Context, machineID string) (domain.MachineInventory, error) {
	return f.inventory, nil
}

func (f *fakeMachine) Presets(ctx context.Context, machineID, category string) ([]domain.PresetSummary, error) {
	if category == "" {
		return f.presets, nil
	}
	var out []domain.PresetSummary
	for _, preset := range f.presets {
		if preset.Category == category {
			out = append(out, preset)
		}
	}
	return out, nil
}

func (f *fakeMachine) PresetDetails(ctx context.Context, presetID string) (domain.PresetDetails, error) {
	details, ok := f.details[presetID]
	if !ok {
		return domain.PresetDetails{}, machine.ErrNotFound
	}
	return details, nil
}

func (f *fakeMachine) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	order := domain.Order{
		ID:            draft.ID,
		MachineID:     draft.MachineID,
		OrderType:     draft.OrderType,
		Status:        draft.Status,
		TotalPrice:    draft.TotalPrice,
		TotalCalories: draft.TotalCalories,
		CreatedAt:     draft.CreatedAt,
	}
	f.mu.Lock()
	f.orders[order.ID] = order
	f.mu.Unlock()
	return order, nil
}

func (f *fakeMachine) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, machine.ErrNotFound
	}
	order.Status = status
	f.orders[orderID] = order
	return order, nil
}

func (f *fakeMachine) Order(ctx context.Context, orderID string) (domain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	order, ok := f.orders[orderID]
	if !ok {
		return domain.Order{}, machine.ErrNotFound
	}
	return order, nil
}

type testEnv struct {
	backend  *fakeMachine
	sessions *services.SessionService
	router   chi.Router
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newFakeMachine()

	inventory, err := services.NewInventoryService(services.InventoryServiceDeps{
		Machine:   backend,
		MachineID: testMachineID,
	})
	if err != nil {
		t.Fatalf("NewInventoryService: %v", err)
	}

	sessions, err := services.NewSessionService(services.SessionServiceDeps{
		AlertDuration: 3 * time.Second,
	})
	if err != nil {
		t.Fatalf("NewSessionService: %v", err)
	}

	tracker, err := services.NewOrderTracker(services.OrderTrackerDeps{
		Machine:      backend,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("NewOrderTracker: %v", err)
	}

	orders, err := services.NewOrderService(services.OrderServiceDeps{
		Machine:   backend,
		Assembler: services.NewOrderAssembler(services.OrderAssemblerDeps{}),
		Tracker:   tracker,
	})
	if err != nil {
		t.Fatalf("NewOrderService: %v", err)
	}

	menu := catalog.NewStore()

	router := NewRouter(
		WithSessionRoutes(NewSessionHandlers(sessions, inventory, backend, menu, testMachineID).Routes),
		WithCatalogRoutes(NewCatalogHandlers(menu).Routes),
		WithMachineRoutes(NewMachineHandlers(inventory, backend, testMachineID).Routes),
		WithOrderRoutes(NewOrderHandlers(sessions, orders, inventory, testMachineID).Routes),
	)

	return &testEnv{backend: backend, sessions: sessions, router: router}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal request body: %v", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return out
}

func (e *testEnv) createSession(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/sessions/", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create session: status %d body %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[sessionResponse](t, rec)
	if resp.Session.ID == "" {
		t.Fatalf("session id missing: %s", rec.Body.String())
	}
	return resp.Session.ID
}
