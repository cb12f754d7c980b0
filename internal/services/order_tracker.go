package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

const (
	trackerEventTransition = "order.status.changed"
	trackerEventIgnored    = "order.status.ignored"
	trackerEventPollFailed = "order.poll.failed"

	defaultPollInterval = 2 * time.Second
	defaultPollTimeout  = 5 * time.Minute
)

var (
	// ErrOrderUnknown indicates the tracker has no record of the order.
	ErrOrderUnknown = errors.New("tracker: unknown order")
	// ErrInvalidTransition rejects status changes the lifecycle does not allow.
	ErrInvalidTransition = errors.New("tracker: invalid status transition")
	// ErrPollTimeout indicates polling gave up before a terminal status arrived.
	ErrPollTimeout = errors.New("tracker: poll timeout")
)

var orderStatusTransitions = map[domain.OrderStatus][]domain.OrderStatus{
	domain.OrderStatusPending:    {domain.OrderStatusProcessing, domain.OrderStatusFailed, domain.OrderStatusCancelled},
	domain.OrderStatusProcessing: {domain.OrderStatusCompleted},
}

// statusRank orders the lifecycle so polled statuses apply monotonically.
var statusRank = map[domain.OrderStatus]int{
	domain.OrderStatusPending:    0,
	domain.OrderStatusProcessing: 1,
	domain.OrderStatusCompleted:  2,
	domain.OrderStatusFailed:     2,
	domain.OrderStatusCancelled:  2,
}

// OrderTrackerDeps bundles collaborators required to construct the tracker.
type OrderTrackerDeps struct {
	Machine      MachineAPI
	PollInterval time.Duration
	PollTimeout  time.Duration
	Logger       Logger
}

// OrderTracker follows submitted orders through their lifecycle. Local state
// changes only after the backend acknowledged the transition, or when a poll
// reports a newer status.
type OrderTracker struct {
	machine  MachineAPI
	interval time.Duration
	timeout  time.Duration
	logger   Logger

	mu     sync.Mutex
	states map[string]domain.OrderStatus
}

// NewOrderTracker wires dependencies into an OrderTracker.
func NewOrderTracker(deps OrderTrackerDeps) (*OrderTracker, error) {
	if deps.Machine == nil {
		return nil, errors.New("order tracker: machine client is required")
	}

	interval := deps.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	timeout := deps.PollTimeout
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}

	return &OrderTracker{
		machine:  deps.Machine,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
		states:   make(map[string]domain.OrderStatus),
	}, nil
}

// Register starts tracking a freshly submitted order.
func (t *OrderTracker) Register(order domain.Order) {
	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	t.mu.Lock()
	t.states[order.ID] = status
	t.mu.Unlock()
}

// Status reports the tracked status of an order.
func (t *OrderTracker) Status(orderID string) (domain.OrderStatus, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	status, ok := t.states[orderID]
	return status, ok
}

// Transition moves the order to the next status. The backend is updated
// first; local state commits only after the call succeeds.
func (t *OrderTracker) Transition(ctx context.Context, orderID string, next domain.OrderStatus) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderUnknown)
	}

	t.mu.Lock()
	current, ok := t.states[orderID]
	t.mu.Unlock()
	if !ok {
		return domain.Order{}, fmt.Errorf("%w: %s", ErrOrderUnknown, orderID)
	}
	if !transitionAllowed(current, next) {
		return domain.Order{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	order, err := t.machine.UpdateOrderStatus(ctx, orderID, next)
	if err != nil {
		return domain.Order{}, fmt.Errorf("tracker: update %s: %w", orderID, err)
	}

	t.mu.Lock()
	t.states[orderID] = next
	t.mu.Unlock()

	t.logger(ctx, trackerEventTransition, map[string]any{
		"orderId": orderID,
		"from":    current,
		"to":      next,
	})
	return order, nil
}

// Observe applies a polled backend status. Regressions and anything
// arriving after a terminal state are ignored. Reports whether the status
// was applied.
func (t *OrderTracker) Observe(ctx context.Context, orderID string, status domain.OrderStatus) bool {
	if _, known := statusRank[status]; !known {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	current, ok := t.states[orderID]
	if !ok {
		t.states[orderID] = status
		return true
	}
	if current.Terminal() || statusRank[status] < statusRank[current] {
		t.logger(ctx, trackerEventIgnored, map[string]any{
			"orderId":  orderID,
			"current":  current,
			"observed": status,
		})
		return false
	}
	t.states[orderID] = status
	return true
}

// Await polls the backend until the order reaches a terminal status, the
// poll window closes, or the context is cancelled. Poll failures are logged
// and the loop continues; backend state is the source of truth.
func (t *OrderTracker) Await(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	if status, ok := t.Status(orderID); ok && status.Terminal() {
		return status, nil
	}

	deadline := time.NewTimer(t.timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return t.lastKnown(orderID), ctx.Err()
		case <-deadline.C:
			return t.lastKnown(orderID), fmt.Errorf("%w: order %s after %s", ErrPollTimeout, orderID, t.timeout)
		case <-ticker.C:
			order, err := t.machine.Order(ctx, orderID)
			if err != nil {
				t.logger(ctx, trackerEventPollFailed, map[string]any{
					"orderId": orderID,
					"error":   err.Error(),
				})
				continue
			}
			t.Observe(ctx, orderID, order.Status)
			if status, ok := t.Status(orderID); ok && status.Terminal() {
				return status, nil
			}
		}
	}
}

// Forget drops an order from the tracker.
func (t *OrderTracker) Forget(orderID string) {
	t.mu.Lock()
	delete(t.states, orderID)
	t.mu.Unlock()
}

func transitionAllowed(from, to domain.OrderStatus) bool {
	for _, allowed := range orderStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func (t *OrderTracker) lastKnown(orderID string) domain.OrderStatus {
	status, _ := t.Status(orderID)
	return status
}
