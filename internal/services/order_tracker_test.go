package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

func newTestTracker(t *testing.T, stub *stubMachine) *OrderTracker {
	t.Helper()
	tracker, err := NewOrderTracker(OrderTrackerDeps{
		Machine:      stub,
		PollInterval: time.Millisecond,
		PollTimeout:  200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("NewOrderTracker: %v", err)
	}
	return tracker
}

func TestTrackerTransitionLifecycle(t *testing.T) {
	stub := &stubMachine{}
	tracker := newTestTracker(t, stub)
	ctx := context.Background()

	tracker.Register(domain.Order{ID: "smc_1"})
	if status, ok := tracker.Status("smc_1"); !ok || status != domain.OrderStatusPending {
		t.Fatalf("empty status must register as pending, got %q", status)
	}

	if _, err := tracker.Transition(ctx, "smc_1", domain.OrderStatusProcessing); err != nil {
		t.Fatalf("pending -> processing: %v", err)
	}
	if _, err := tracker.Transition(ctx, "smc_1", domain.OrderStatusCompleted); err != nil {
		t.Fatalf("processing -> completed: %v", err)
	}
	if len(stub.statusUpdates) != 2 {
		t.Fatalf("expected 2 backend updates, got %d", len(stub.statusUpdates))
	}

	if _, err := tracker.Transition(ctx, "smc_1", domain.OrderStatusCancelled); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition out of completed, got %v", err)
	}
}

func TestTrackerRejectsInvalidTransitions(t *testing.T) {
	stub := &stubMachine{}
	tracker := newTestTracker(t, stub)
	ctx := context.Background()

	tracker.Register(domain.Order{ID: "sap_1", Status: domain.OrderStatusPending})
	if _, err := tracker.Transition(ctx, "sap_1", domain.OrderStatusCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending -> completed, got %v", err)
	}
	if _, err := tracker.Transition(ctx, "missing", domain.OrderStatusProcessing); !errors.Is(err, ErrOrderUnknown) {
		t.Fatalf("expected ErrOrderUnknown, got %v", err)
	}
	if len(stub.statusUpdates) != 0 {
		t.Fatalf("rejected transitions must not hit the backend")
	}
}

func TestTrackerTransitionKeepsStateOnBackendError(t *testing.T) {
	stub := &stubMachine{
		updateStatusFn: func(ctx context.Context, orderID string, status domain.OrderStatus) (domain.Order, error) {
			return domain.Order{}, errors.New("backend down")
		},
	}
	tracker := newTestTracker(t, stub)

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusPending})
	if _, err := tracker.Transition(context.Background(), "smc_1", domain.OrderStatusProcessing); err == nil {
		t.Fatalf("expected backend error")
	}
	if status, _ := tracker.Status("smc_1"); status != domain.OrderStatusPending {
		t.Fatalf("failed transition must not commit locally, got %q", status)
	}
}

func TestTrackerObserveMonotonic(t *testing.T) {
	stub := &stubMachine{}
	tracker := newTestTracker(t, stub)
	ctx := context.Background()

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusProcessing})

	if tracker.Observe(ctx, "smc_1", domain.OrderStatusPending) {
		t.Fatalf("regressions must be ignored")
	}
	if !tracker.Observe(ctx, "smc_1", domain.OrderStatusCompleted) {
		t.Fatalf("forward move must apply")
	}
	if tracker.Observe(ctx, "smc_1", domain.OrderStatusProcessing) {
		t.Fatalf("post-terminal observations must be ignored")
	}
	if tracker.Observe(ctx, "smc_1", "weird") {
		t.Fatalf("unknown statuses must be ignored")
	}

	// Untracked orders are adopted at the observed status.
	if !tracker.Observe(ctx, "sap_9", domain.OrderStatusProcessing) {
		t.Fatalf("untracked order must be adopted")
	}
	if status, _ := tracker.Status("sap_9"); status != domain.OrderStatusProcessing {
		t.Fatalf("unexpected adopted status %q", status)
	}
}

func TestTrackerAwaitReachesTerminal(t *testing.T) {
	var mu sync.Mutex
	polls := 0
	stub := &stubMachine{}
	stub.orderFn = func(ctx context.Context, orderID string) (domain.Order, error) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			return domain.Order{ID: orderID, Status: domain.OrderStatusProcessing}, nil
		}
		return domain.Order{ID: orderID, Status: domain.OrderStatusCompleted}, nil
	}
	tracker := newTestTracker(t, stub)

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusProcessing})
	status, err := tracker.Await(context.Background(), "smc_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if status != domain.OrderStatusCompleted {
		t.Fatalf("expected completed, got %q", status)
	}
}

func TestTrackerAwaitAlreadyTerminal(t *testing.T) {
	stub := &stubMachine{}
	tracker := newTestTracker(t, stub)

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusFailed})
	status, err := tracker.Await(context.Background(), "smc_1")
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if status != domain.OrderStatusFailed {
		t.Fatalf("expected failed, got %q", status)
	}
	if stub.inventoryCalls != 0 {
		t.Fatalf("terminal orders must not poll")
	}
}

func TestTrackerAwaitTimesOut(t *testing.T) {
	stub := &stubMachine{}
	stub.orderFn = func(ctx context.Context, orderID string) (domain.Order, error) {
		return domain.Order{ID: orderID, Status: domain.OrderStatusProcessing}, nil
	}
	tracker := newTestTracker(t, stub)

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusProcessing})
	status, err := tracker.Await(context.Background(), "smc_1")
	if !errors.Is(err, ErrPollTimeout) {
		t.Fatalf("expected ErrPollTimeout, got %v", err)
	}
	if status != domain.OrderStatusProcessing {
		t.Fatalf("timeout must report the last known status, got %q", status)
	}
}

func TestTrackerAwaitHonoursContext(t *testing.T) {
	stub := &stubMachine{}
	stub.orderFn = func(ctx context.Context, orderID string) (domain.Order, error) {
		return domain.Order{ID: orderID, Status: domain.OrderStatusProcessing}, nil
	}
	tracker, err := NewOrderTracker(OrderTrackerDeps{
		Machine:      stub,
		PollInterval: time.Millisecond,
		PollTimeout:  time.Minute,
	})
	if err != nil {
		t.Fatalf("NewOrderTracker: %v", err)
	}

	tracker.Register(domain.Order{ID: "smc_1", Status: domain.OrderStatusPending})
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := tracker.Await(ctx, "smc_1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline, got %v", err)
	}
}

func TestTrackerForget(t *testing.T) {
	stub := &stubMachine{}
	tracker := newTestTracker(t, stub)

	tracker.Register(domain.Order{ID: "smc_1"})
	tracker.Forget("smc_1")
	if _, ok := tracker.Status("smc_1"); ok {
		t.Fatalf("forgotten order must be gone")
	}
}
