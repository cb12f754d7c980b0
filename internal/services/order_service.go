package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

const (
	orderEventCreated         = "order.created"
	orderEventPaymentResolved = "order.payment.resolved"
	orderEventCancelled       = "order.cancelled"
)

// PaymentOutcome selects how the simulated payment step resolves.
type PaymentOutcome string

const (
	// PaymentOutcomeSuccess forces the simulation to succeed.
	PaymentOutcomeSuccess PaymentOutcome = "success"
	// PaymentOutcomeFailure forces the simulation to fail.
	PaymentOutcomeFailure PaymentOutcome = "failure"
	// PaymentOutcomeSimulated draws the result from the configured failure rate.
	PaymentOutcomeSimulated PaymentOutcome = "simulated"
)

// ErrUnknownPaymentOutcome rejects payment resolutions the simulator does not understand.
var ErrUnknownPaymentOutcome = errors.New("order: unknown payment outcome")

// OrderServiceDeps bundles collaborators required to construct the order service.
type OrderServiceDeps struct {
	Machine            MachineAPI
	Assembler          *OrderAssembler
	Tracker            *OrderTracker
	PaymentDelay       time.Duration
	PaymentFailureRate float64
	Rand               func() float64
	Logger             Logger
}

type orderService struct {
	machine     MachineAPI
	assembler   *OrderAssembler
	tracker     *OrderTracker
	delay       time.Duration
	failureRate float64
	rand        func() float64
	logger      Logger
}

// NewOrderService wires dependencies into a concrete OrderService implementation.
func NewOrderService(deps OrderServiceDeps) (OrderService, error) {
	if deps.Machine == nil {
		return nil, errors.New("order service: machine client is required")
	}
	if deps.Assembler == nil {
		return nil, errors.New("order service: assembler is required")
	}
	if deps.Tracker == nil {
		return nil, errors.New("order service: tracker is required")
	}
	if deps.PaymentFailureRate < 0 || deps.PaymentFailureRate > 1 {
		return nil, errors.New("order service: payment failure rate must be in [0, 1]")
	}

	random := deps.Rand
	if random == nil {
		random = rand.Float64
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}

	return &orderService{
		machine:     deps.Machine,
		assembler:   deps.Assembler,
		tracker:     deps.Tracker,
		delay:       deps.PaymentDelay,
		failureRate: deps.PaymentFailureRate,
		rand:        random,
		logger:      logger,
	}, nil
}

// Submit assembles the draft and creates the order on the backend with
// status pending. The tracker picks it up from there.
func (s *orderService) Submit(ctx context.Context, input AssemblyInput) (domain.Order, error) {
	draft, err := s.assembler.Build(ctx, input)
	if err != nil {
		return domain.Order{}, err
	}

	order, err := s.machine.CreateOrder(ctx, draft)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order: create: %w", err)
	}

	s.tracker.Register(order)
	s.logger(ctx, orderEventCreated, map[string]any{
		"orderId":   order.ID,
		"orderType": order.OrderType,
		"total":     order.TotalPrice,
	})
	return order, nil
}

// ResolvePayment finishes the simulated payment step: success moves the
// order to processing, failure to failed. The order stays pending until the
// backend acknowledges the transition.
func (s *orderService) ResolvePayment(ctx context.Context, orderID string, outcome PaymentOutcome) (domain.Order, error) {
	success, err := s.resolveOutcome(ctx, outcome)
	if err != nil {
		return domain.Order{}, err
	}

	next := domain.OrderStatusProcessing
	if !success {
		next = domain.OrderStatusFailed
	}

	order, err := s.tracker.Transition(ctx, orderID, next)
	if err != nil {
		return domain.Order{}, err
	}

	s.logger(ctx, orderEventPaymentResolved, map[string]any{
		"orderId": orderID,
		"outcome": outcome,
		"status":  next,
	})
	return order, nil
}

// Cancel abandons a pending order explicitly rather than leaving it dangling.
func (s *orderService) Cancel(ctx context.Context, orderID string) (domain.Order, error) {
	order, err := s.tracker.Transition(ctx, orderID, domain.OrderStatusCancelled)
	if err != nil {
		return domain.Order{}, err
	}
	s.logger(ctx, orderEventCancelled, map[string]any{"orderId": orderID})
	return order, nil
}

// Status fetches the backend's view of the order and reconciles it into the
// tracker.
func (s *orderService) Status(ctx context.Context, orderID string) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, fmt.Errorf("%w: order id is required", ErrOrderUnknown)
	}

	order, err := s.machine.Order(ctx, orderID)
	if err != nil {
		return domain.Order{}, fmt.Errorf("order: status %s: %w", orderID, err)
	}

	if !s.tracker.Observe(ctx, orderID, order.Status) {
		if tracked, ok := s.tracker.Status(orderID); ok {
			order.Status = tracked
		}
	}
	return order, nil
}

// Await blocks until the order reaches a terminal status or the poll window
// closes.
func (s *orderService) Await(ctx context.Context, orderID string) (domain.OrderStatus, error) {
	return s.tracker.Await(ctx, orderID)
}

// resolveOutcome draws the simulated payment result, honouring the
// configured processing delay for the simulated path.
func (s *orderService) resolveOutcome(ctx context.Context, outcome PaymentOutcome) (bool, error) {
	switch outcome {
	case PaymentOutcomeSuccess:
		return true, nil
	case PaymentOutcomeFailure:
		return false, nil
	case PaymentOutcomeSimulated, "":
		if s.delay > 0 {
			timer := time.NewTimer(s.delay)
			defer timer.Stop()
			select {
			case <-ctx.Done():
				return false, ctx.Err()
			case <-timer.C:
			}
		}
		return s.rand() >= s.failureRate, nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownPaymentOutcome, outcome)
	}
}
