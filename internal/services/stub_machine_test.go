package services

import (
	"context"
	"sync"

	domain "github.com/urban-harvest/kiosk/internal/domain"
	"github.com/urban-harvest/kiosk/internal/machine"
)

// stubMachine is a hand-rolled MachineAPI double shared across the service tests.
type stubMachine struct {
	mu sync.Mutex

	inventory    domain.MachineInventory
	inventoryErr error
	presets      []domain.PresetSummary
	presetsErr   error
	details      domain.PresetDetails
	detailsErr   error

	createOrderFn  func(ctx context.Context, draft domain.OrderDraft) (domain.Order, error)
	updateStatusFn func(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error)
	orderFn        func(ctx context.Context, orderID string) (domain.Order, error)

	inventoryCalls int
	created        []domain.OrderDraft
	statusUpdates  []domain.OrderStatus
}

func (s *stubMachine) Inventory(ctx context.Context, machineID string) (domain.MachineInventory, error) {
	s.mu.Lock()
	s.inventoryCalls++
	s.mu.Unlock()
	if s.inventoryErr != nil {
		return domain.MachineInventory{}, s.inventoryErr
	}
	return s.inventory, nil
}

func (s *stubMachine) Presets(ctx context.Context, machineID, category string) ([]domain.PresetSummary, error) {
	if s.presetsErr != nil {
		return nil, s.presetsErr
	}
	return s.presets, nil
}

func (s *stubMachine) PresetDetails(ctx context.Context, presetID string) (domain.PresetDetails, error) {
	if s.detailsErr != nil {
		return domain.PresetDetails{}, s.detailsErr
	}
	return s.details, nil
}

func (s *stubMachine) CreateOrder(ctx context.Context, draft domain.OrderDraft) (domain.Order, error) {
	s.mu.Lock()
	s.created = append(s.created, draft)
	s.mu.Unlock()
	if s.createOrderFn != nil {
		return s.createOrderFn(ctx, draft)
	}
	return domain.Order{
		ID:            draft.ID,
		MachineID:     draft.MachineID,
		OrderType:     draft.OrderType,
		Status:        draft.Status,
		TotalPrice:    draft.TotalPrice,
		TotalCalories: draft.TotalCalories,
		CreatedAt:     draft.CreatedAt,
	}, nil
}

func (s *stubMachine) UpdateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
	s.mu.Lock()
	s.statusUpdates = append(s.statusUpdates, status)
	s.mu.Unlock()
	if s.updateStatusFn != nil {
		return s.updateStatusFn(ctx, orderID, status)
	}
	return domain.Order{ID: orderID, Status: status}, nil
}

func (s *stubMachine) Order(ctx context.Context, orderID string) (domain.Order, error) {
	if s.orderFn != nil {
		return s.orderFn(ctx, orderID)
	}
	return domain.Order{}, machine.ErrNotFound
}

var _ MachineAPI = (*stubMachine)(nil)
