package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/machine"
)

const (
	inventoryEventRefreshed     = "inventory.refreshed"
	inventoryEventRefreshFailed = "inventory.refresh.failed"
	inventoryEventBadPrice      = "inventory.price.unparseable"

	defaultRefreshInterval = 30 * time.Second
	defaultMaxPercentage   = 100
)

// ErrMachineUnavailable indicates the machine backend has no inventory for
// the configured machine. Distinct from an empty-but-valid snapshot.
var ErrMachineUnavailable = errors.New("inventory: machine unavailable")

// InventorySnapshot is the normalized, point-in-time view of a machine's
// stock handed to the composition engine and the add-on ledger.
type InventorySnapshot struct {
	MachineID   string
	Location    string
	Status      string
	FetchedAt   time.Time
	Ingredients []domain.IngredientOption
	Addons      []domain.AddonOption

	byIngredient map[string]int
	byAddon      map[string]int
}

// Ingredient looks up a normalized ingredient by id.
func (s InventorySnapshot) Ingredient(id string) (domain.IngredientOption, bool) {
	idx, ok := s.byIngredient[id]
	if !ok {
		return domain.IngredientOption{}, false
	}
	return s.Ingredients[idx], true
}

// Addon looks up a normalized add-on by id.
func (s InventorySnapshot) Addon(id string) (domain.AddonOption, bool) {
	idx, ok := s.byAddon[id]
	if !ok {
		return domain.AddonOption{}, false
	}
	return s.Addons[idx], true
}

// AvailableIngredients filters the snapshot down to ingredients a shopper
// may add: in stock and not flagged low.
func (s InventorySnapshot) AvailableIngredients() []domain.IngredientOption {
	out := make([]domain.IngredientOption, 0, len(s.Ingredients))
	for _, opt := range s.Ingredients {
		if opt.Available && !opt.LowStock {
			out = append(out, opt)
		}
	}
	return out
}

// AvailableAddons filters the snapshot down to selectable add-ons.
func (s InventorySnapshot) AvailableAddons() []domain.AddonOption {
	out := make([]domain.AddonOption, 0, len(s.Addons))
	for _, opt := range s.Addons {
		if opt.Available && !opt.LowStock {
			out = append(out, opt)
		}
	}
	return out
}

// InventoryServiceDeps bundles collaborators required to construct the inventory service.
type InventoryServiceDeps struct {
	Machine         MachineAPI
	MachineID       string
	RefreshInterval time.Duration
	Clock           func() time.Time
	Logger          Logger
}

type inventoryService struct {
	machine   MachineAPI
	machineID string
	interval  time.Duration
	clock     func() time.Time
	logger    Logger

	mu       sync.RWMutex
	snapshot *InventorySnapshot
}

// NewInventoryService wires dependencies into a concrete InventoryService implementation.
func NewInventoryService(deps InventoryServiceDeps) (InventoryService, error) {
	if deps.Machine == nil {
		return nil, errors.New("inventory service: machine client is required")
	}
	if strings.TrimSpace(deps.MachineID) == "" {
		return nil, errors.New("inventory service: machine id is required")
	}

	interval := deps.RefreshInterval
	if interval <= 0 {
		interval = defaultRefreshInterval
	}

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}

	return &inventoryService{
		machine:   deps.Machine,
		machineID: strings.TrimSpace(deps.MachineID),
		interval:  interval,
		clock:     utcClock(deps.Clock),
		logger:    logger,
	}, nil
}

// Snapshot returns the cached snapshot, fetching one if none is held yet.
func (s *inventoryService) Snapshot(ctx context.Context) (InventorySnapshot, error) {
	s.mu.RLock()
	cached := s.snapshot
	s.mu.RUnlock()

	if cached != nil {
		return *cached, nil
	}
	return s.Refresh(ctx)
}

// Refresh fetches the inventory and replaces the cached snapshot. A failed
// refresh keeps the previous snapshot intact.
func (s *inventoryService) Refresh(ctx context.Context) (InventorySnapshot, error) {
	raw, err := s.machine.Inventory(ctx, s.machineID)
	if err != nil {
		if errors.Is(err, machine.ErrNotFound) {
			return InventorySnapshot{}, fmt.Errorf("%w: machine %s", ErrMachineUnavailable, s.machineID)
		}
		return InventorySnapshot{}, fmt.Errorf("inventory: fetch machine %s: %w", s.machineID, err)
	}

	snapshot := s.normalize(ctx, raw)

	s.mu.Lock()
	s.snapshot = &snapshot
	s.mu.Unlock()

	s.logger(ctx, inventoryEventRefreshed, map[string]any{
		"machineId":   snapshot.MachineID,
		"ingredients": len(snapshot.Ingredients),
		"addons":      len(snapshot.Addons),
	})
	return snapshot, nil
}

// Run refreshes the snapshot on the configured interval until the context
// is cancelled. Refresh failures are logged and the loop continues.
func (s *inventoryService) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil {
				s.logger(ctx, inventoryEventRefreshFailed, map[string]any{
					"machineId": s.machineID,
					"error":     err.Error(),
				})
			}
		}
	}
}

func (s *inventoryService) normalize(ctx context.Context, raw domain.MachineInventory) InventorySnapshot {
	snapshot := InventorySnapshot{
		MachineID:    raw.MachineID,
		Location:     raw.MachineLocation,
		Status:       raw.MachineStatus,
		FetchedAt:    s.clock(),
		Ingredients:  make([]domain.IngredientOption, 0, len(raw.Ingredients)),
		Addons:       make([]domain.AddonOption, 0, len(raw.Addons)),
		byIngredient: make(map[string]int, len(raw.Ingredients)),
		byAddon:      make(map[string]int, len(raw.Addons)),
	}

	for _, record := range raw.Ingredients {
		maxPct := record.MaxPercentage
		if maxPct <= 0 {
			maxPct = defaultMaxPercentage
		}
		opt := domain.IngredientOption{
			ID:              record.ID,
			Name:            record.Name,
			Emoji:           record.Emoji,
			PricePerKg:      s.parsePrice(ctx, record.ID, record.PricePerUnit),
			CaloriesPerGram: record.CaloriesPerG,
			MinQtyGrams:     record.MinQtyGrams,
			MaxPercentage:   maxPct,
			Available:       record.IsAvailable,
			LowStock:        record.IsLowStock,
			Raw:             record,
		}
		snapshot.byIngredient[opt.ID] = len(snapshot.Ingredients)
		snapshot.Ingredients = append(snapshot.Ingredients, opt)
	}

	for _, record := range raw.Addons {
		opt := domain.AddonOption{
			ID:              record.ID,
			Name:            record.Name,
			Emoji:           record.Emoji,
			PricePerUnit:    s.parsePrice(ctx, record.ID, record.PricePerUnit),
			CaloriesPerUnit: record.CaloriesPerUnit,
			Available:       record.IsAvailable,
			LowStock:        record.IsLowStock,
			QtyAvailable:    record.QtyAvailable,
			Raw:             record,
		}
		snapshot.byAddon[opt.ID] = len(snapshot.Addons)
		snapshot.Addons = append(snapshot.Addons, opt)
	}

	return snapshot
}

// parsePrice tolerates malformed backend prices: the record stays listed
// but contributes zero until the feed is fixed.
func (s *inventoryService) parsePrice(ctx context.Context, id, value string) float64 {
	parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || parsed < 0 {
		s.logger(ctx, inventoryEventBadPrice, map[string]any{"id": id, "value": value})
		return 0
	}
	return parsed
}
