package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/urban-harvest/kiosk/internal/domain"
)

const (
	sessionEventCreated = "session.created"
	sessionEventExpired = "session.expired"

	defaultSessionTTL   = 30 * time.Minute
	defaultAlertWindow  = 3 * time.Second
	sessionSweepDivisor = 2
)

var (
	// ErrSessionNotFound indicates the session id is unknown or expired.
	ErrSessionNotFound = errors.New("session: not found")
	// ErrCategoryRequired guards flows that need a category chosen first.
	ErrCategoryRequired = errors.New("session: no category selected")
	// ErrItemRequired guards flows that need a base item chosen first.
	ErrItemRequired = errors.New("session: no item selected")
	// ErrOrderRequired guards flows that need an active order.
	ErrOrderRequired = errors.New("session: no active order")
)

// Session is the per-shopper aggregate owning the category, the recipe
// engine, the add-on ledger, the selected item, and the active order id.
// All mutations hold the session lock; Reset clears everything atomically.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	lastSeen  time.Time
	clock     func() time.Time
	alertTTL  time.Duration

	category  domain.Category
	engine    *RecipeEngine
	ledger    *AddonLedger
	selection *domain.ItemSelection
	orderID   string
	alert     domain.Alert
}

// SessionState is a consistent read-only view of a session for handlers.
type SessionState struct {
	ID            string
	Category      domain.Category
	Variant       domain.ContainerVariant
	Ceiling       int
	TotalPercent  int
	Selections    []domain.SelectedIngredient
	Bases         []string
	DisplayPrice  int
	Calories      int
	Addons        []domain.AddonLine
	AddonQuantity int
	Item          *domain.ItemSelection
	OrderID       string
	Alert         *domain.Alert
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Touch refreshes the session's idle deadline.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.clock()
	s.mu.Unlock()
}

// StartCategory begins composing in a category with a fresh recipe engine.
// The add-on ledger and any selected item survive until a structurally
// different item is chosen.
func (s *Session) StartCategory(category domain.Category) {
	s.mu.Lock()
	defer s.unlockTouched()

	s.category = category
	s.engine = NewRecipeEngine(category, s.clock)
	s.alert = domain.Alert{}
}

// Category reports the active category.
func (s *Session) Category() (domain.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.category == "" {
		return "", ErrCategoryRequired
	}
	return s.category, nil
}

// SelectVariant switches the container size for the active recipe.
func (s *Session) SelectVariant(variant domain.ContainerVariant) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return ErrCategoryRequired
	}
	return s.engine.SelectVariant(variant)
}

// AddIngredient raises an ingredient by one increment. Capacity rejections
// raise a transient alert and leave the recipe unchanged.
func (s *Session) AddIngredient(opt domain.IngredientOption) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return ErrCategoryRequired
	}
	if err := s.engine.AddIngredient(opt); err != nil {
		s.raiseAlertLocked(err)
		return err
	}
	return nil
}

// DecreaseIngredient lowers an ingredient by one increment.
func (s *Session) DecreaseIngredient(id string) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return ErrCategoryRequired
	}
	s.engine.DecreaseIngredient(id)
	return nil
}

// RemoveIngredient drops an ingredient entirely.
func (s *Session) RemoveIngredient(id string) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return ErrCategoryRequired
	}
	s.engine.RemoveIngredient(id)
	return nil
}

// ToggleBase flips a liquid or dressing option.
func (s *Session) ToggleBase(name string) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return ErrCategoryRequired
	}
	return s.engine.ToggleBase(name)
}

// ConfirmRecipe freezes the current composition as the selected item and
// resets the engine for the next creation. Rejections raise an alert.
func (s *Session) ConfirmRecipe() (domain.RecipeSnapshot, error) {
	s.mu.Lock()
	defer s.unlockTouched()

	if s.engine == nil {
		return domain.RecipeSnapshot{}, ErrCategoryRequired
	}

	snapshot, err := s.engine.Confirm()
	if err != nil {
		s.raiseAlertLocked(err)
		return domain.RecipeSnapshot{}, err
	}

	s.selectItemLocked(domain.ItemSelection{
		Kind:   domain.ItemKindCustom,
		Custom: &snapshot,
	})
	s.engine = NewRecipeEngine(s.category, s.clock)
	return snapshot, nil
}

// SelectItem chooses the base item. The add-on ledger is cleared only when
// the new item is structurally different; revisiting the same item keeps it.
func (s *Session) SelectItem(selection domain.ItemSelection) error {
	if selection.Kind == "" {
		return fmt.Errorf("%w: selection kind is required", ErrRecipeInvalidInput)
	}

	s.mu.Lock()
	defer s.unlockTouched()

	s.selectItemLocked(selection)
	return nil
}

// Item returns the selected base item.
func (s *Session) Item() (domain.ItemSelection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.selection == nil {
		return domain.ItemSelection{}, ErrItemRequired
	}
	return *s.selection, nil
}

// IncrementAddon raises an add-on by one unit. Cap and stock rejections
// raise a transient alert.
func (s *Session) IncrementAddon(opt domain.AddonOption) error {
	s.mu.Lock()
	defer s.unlockTouched()

	if err := s.ledger.Increment(opt); err != nil {
		s.raiseAlertLocked(err)
		return err
	}
	return nil
}

// DecrementAddon lowers an add-on by one unit.
func (s *Session) DecrementAddon(id string) {
	s.mu.Lock()
	defer s.unlockTouched()
	s.ledger.Decrement(id)
}

// Addons returns the ledger lines in insertion order.
func (s *Session) Addons() []domain.AddonLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Lines()
}

// SetOrder records the active order id after submission.
func (s *Session) SetOrder(orderID string) {
	s.mu.Lock()
	defer s.unlockTouched()
	s.orderID = strings.TrimSpace(orderID)
}

// Order returns the active order id.
func (s *Session) Order() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orderID == "" {
		return "", ErrOrderRequired
	}
	return s.orderID, nil
}

// ClearOrder drops the active order id, keeping the rest of the session.
func (s *Session) ClearOrder() {
	s.mu.Lock()
	defer s.unlockTouched()
	s.orderID = ""
}

// ActiveAlert returns the current alert if it has not expired yet.
func (s *Session) ActiveAlert() (domain.Alert, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.alert.Active(s.clock()) {
		return domain.Alert{}, false
	}
	return s.alert, true
}

// Reset clears the whole aggregate in one operation: category, recipe,
// item, add-ons, order, alert.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.unlockTouched()

	s.category = ""
	s.engine = nil
	s.ledger = NewAddonLedger()
	s.selection = nil
	s.orderID = ""
	s.alert = domain.Alert{}
}

// State captures a consistent view of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := SessionState{
		ID:            s.id,
		Category:      s.category,
		Addons:        s.ledger.Lines(),
		AddonQuantity: s.ledger.TotalQuantity(),
		OrderID:       s.orderID,
	}
	if s.engine != nil {
		price, calories := s.engine.Totals()
		state.Variant = s.engine.Variant()
		state.Ceiling = s.engine.EffectiveCeiling()
		state.TotalPercent = s.engine.TotalPercent()
		state.Selections = s.engine.Selections()
		state.Bases = s.engine.Bases()
		state.DisplayPrice = DisplayPrice(price)
		state.Calories = DisplayCalories(calories)
	}
	if s.selection != nil {
		copied := *s.selection
		state.Item = &copied
	}
	if s.alert.Active(s.clock()) {
		copied := s.alert
		state.Alert = &copied
	}
	return state
}

func (s *Session) selectItemLocked(selection domain.ItemSelection) {
	if s.selection == nil || s.selection.Key() != selection.Key() {
		s.ledger.Clear()
	}
	s.selection = &selection
	if category := selection.Category(); category != "" {
		s.category = category
	}
}

func (s *Session) raiseAlertLocked(err error) {
	s.alert = domain.Alert{
		Message: alertMessage(err),
		Until:   s.clock().Add(s.alertTTL),
	}
}

func (s *Session) unlockTouched() {
	s.lastSeen = s.clock()
	s.mu.Unlock()
}

// alertMessage maps rejection errors to shopper-facing alert text.
func alertMessage(err error) string {
	switch {
	case errors.Is(err, ErrContainerFull):
		return "The container is already full. Please remove something first."
	case errors.Is(err, ErrIngredientCapReached):
		return "This ingredient is at its maximum."
	case errors.Is(err, ErrIngredientCountExceeded):
		return "You can pick at most 5 ingredients."
	case errors.Is(err, ErrIngredientUnavailable):
		return "This ingredient is currently unavailable."
	case errors.Is(err, ErrContainerNotFull):
		return "Please fill the container completely."
	case errors.Is(err, ErrBaseOptionRequired):
		return "Please pick a base first."
	case errors.Is(err, ErrAddonCapReached):
		return "You can add at most 6 add-ons."
	case errors.Is(err, ErrAddonStockExceeded):
		return "Not enough of this add-on left."
	case errors.Is(err, ErrAddonUnavailable):
		return "This add-on is currently unavailable."
	default:
		return "That didn't work. Please try again."
	}
}

// SessionServiceDeps bundles collaborators required to construct the session service.
type SessionServiceDeps struct {
	Clock         func() time.Time
	IDGenerator   func() string
	TTL           time.Duration
	AlertDuration time.Duration
	Logger        Logger
}

// SessionService creates, resolves, and expires shopper sessions.
type SessionService struct {
	clock    func() time.Time
	newID    func() string
	ttl      time.Duration
	alertTTL time.Duration
	logger   Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionService wires dependencies into a SessionService.
func NewSessionService(deps SessionServiceDeps) (*SessionService, error) {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	alertTTL := deps.AlertDuration
	if alertTTL <= 0 {
		alertTTL = defaultAlertWindow
	}

	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	logger := deps.Logger
	if logger == nil {
		logger = noopLogger
	}

	return &SessionService{
		clock:    utcClock(deps.Clock),
		newID:    idGen,
		ttl:      ttl,
		alertTTL: alertTTL,
		logger:   logger,
		sessions: make(map[string]*Session),
	}, nil
}

// Create starts a new empty session.
func (m *SessionService) Create(ctx context.Context) *Session {
	now := m.clock()
	session := &Session{
		id:        m.newID(),
		createdAt: now,
		lastSeen:  now,
		clock:     m.clock,
		alertTTL:  m.alertTTL,
		ledger:    NewAddonLedger(),
	}

	m.mu.Lock()
	m.sessions[session.id] = session
	m.mu.Unlock()

	m.logger(ctx, sessionEventCreated, map[string]any{"sessionId": session.id})
	return session
}

// Get resolves a session by id.
func (m *SessionService) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[strings.TrimSpace(id)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return session, nil
}

// Delete removes a session explicitly.
func (m *SessionService) Delete(id string) {
	m.mu.Lock()
	delete(m.sessions, strings.TrimSpace(id))
	m.mu.Unlock()
}

// Sweep drops sessions idle past the TTL and reports how many were removed.
func (m *SessionService) Sweep(ctx context.Context, now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, session := range m.sessions {
		session.mu.Lock()
		idle := now.Sub(session.lastSeen)
		session.mu.Unlock()
		if idle > m.ttl {
			delete(m.sessions, id)
			removed++
			m.logger(ctx, sessionEventExpired, map[string]any{"sessionId": id})
		}
	}
	return removed
}

// Run sweeps expired sessions periodically until the context is cancelled.
func (m *SessionService) Run(ctx context.Context) {
	ticker := time.NewTicker(m.ttl / sessionSweepDivisor)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep(ctx, m.clock())
		}
	}
}
