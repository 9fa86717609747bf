package services

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"menu-service/cart"
	"menu-service/common/logger"
	"menu-service/database"
	"menu-service/models"
	aws_pkg "menu-service/pkg/aws"

	"go.uber.org/zap"
)

type VisibilityAction string

const (
	VisibilityOpen   VisibilityAction = "open"
	VisibilityClose  VisibilityAction = "close"
	VisibilityToggle VisibilityAction = "toggle"
)

type AddItemRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	ItemID       string `json:"item_id"`
	Name         string `json:"name"`
	Option       string `json:"option"`
	Notes        string `json:"notes"`
}

type CheckoutRequest struct {
	RestaurantID string `json:"restaurant_id" binding:"required"`
	BranchID     string `json:"branch_id"`
	Phone        string `json:"phone"`
	Lang         string `json:"lang"`
}

// CartNotifier receives the new cart state after every change.
type CartNotifier interface {
	NotifyCart(sessionID string, view models.CartView)
}

// UpdateItemRequest changes a cart line. Nil fields are left as they are.
type UpdateItemRequest struct {
	Quantity *int    `json:"quantity"`
	Notes    *string `json:"notes"`
}

// CheckoutOptions configures the checkout message and deep link.
type CheckoutOptions struct {
	Scheme      string
	Currency    string
	DefaultLang string
	// Location is the zone the order timestamp is printed in; nil keeps Now's zone.
	Location *time.Location
	Now      func() time.Time
}

// CartService manages session carts.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) (*models.CartView, *ServiceError)
	AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*models.CartView, *ServiceError)
	RemoveItem(ctx context.Context, sessionID, lineID string) (*models.CartView, *ServiceError)
	UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*models.CartView, *ServiceError)
	UpdateNotes(ctx context.Context, sessionID, lineID, notes string) (*models.CartView, *ServiceError)
	UpdateItem(ctx context.Context, sessionID, lineID string, req UpdateItemRequest) (*models.CartView, *ServiceError)
	ClearCart(ctx context.Context, sessionID string) (*models.CartView, *ServiceError)
	SetVisibility(ctx context.Context, sessionID string, action VisibilityAction) (*models.CartView, *ServiceError)
	Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (*models.CheckoutResult, *ServiceError)
}

type cartServiceImpl struct {
	repo        database.CartRepository
	restaurants RestaurantService
	publisher   CheckoutPublisher
	notifier    CartNotifier
	metrics     aws_pkg.MetricsRecorder
	opts        CheckoutOptions
	locks       *sessionLocks
	logger      *zap.Logger
}

// NewCartService creates a new CartService. publisher, notifier and metrics
// may be nil.
func NewCartService(
	repo database.CartRepository,
	restaurants RestaurantService,
	publisher CheckoutPublisher,
	notifier CartNotifier,
	metrics aws_pkg.MetricsRecorder,
	opts CheckoutOptions,
	logger *zap.Logger,
) CartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &cartServiceImpl{
		repo:        repo,
		restaurants: restaurants,
		publisher:   publisher,
		notifier:    notifier,
		metrics:     metrics,
		opts:        opts,
		locks:       newSessionLocks(),
		logger:      logger,
	}
}

// GetCart returns the session's cart. A session without a cart gets an empty one.
func (s *cartServiceImpl) GetCart(ctx context.Context, sessionID string) (*models.CartView, *ServiceError) {
	unlock := s.locks.lock(sessionID)
	defer unlock()

	store, svcErr := s.load(ctx, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}
	return view(store, sessionID), nil
}

// AddItem resolves the item from the restaurant menu, then merges it into the cart.
func (s *cartServiceImpl) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*models.CartView, *ServiceError) {
	ref := req.ItemID
	if strings.TrimSpace(ref) == "" {
		ref = req.Name
	}

	candidate, svcErr := s.restaurants.FindItem(ctx, req.RestaurantID, ref, req.Option)
	if svcErr != nil {
		return nil, svcErr
	}
	candidate.Notes = strings.TrimSpace(req.Notes)

	return s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		id := store.AddItem(candidate)
		s.logger.Info("Cart item added",
			zap.String("session_id", sessionID),
			zap.String("line_id", id),
		)
		return nil
	})
}

// RemoveItem deletes a line. Removing an absent line leaves the cart unchanged.
func (s *cartServiceImpl) RemoveItem(ctx context.Context, sessionID, lineID string) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		store.RemoveItem(lineID)
		return nil
	})
}

// UpdateQuantity sets a line's quantity; zero or less removes it.
func (s *cartServiceImpl) UpdateQuantity(ctx context.Context, sessionID, lineID string, quantity int) (*models.CartView, *ServiceError) {
	return s.UpdateItem(ctx, sessionID, lineID, UpdateItemRequest{Quantity: &quantity})
}

func (s *cartServiceImpl) UpdateNotes(ctx context.Context, sessionID, lineID, notes string) (*models.CartView, *ServiceError) {
	return s.UpdateItem(ctx, sessionID, lineID, UpdateItemRequest{Notes: &notes})
}

// UpdateItem applies notes, then quantity, to one line in a single save.
func (s *cartServiceImpl) UpdateItem(ctx context.Context, sessionID, lineID string, req UpdateItemRequest) (*models.CartView, *ServiceError) {
	if req.Quantity == nil && req.Notes == nil {
		return nil, badRequest("quantity or notes is required")
	}

	return s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		if _, ok := store.Item(lineID); !ok {
			return notFound("cart item not found")
		}
		if req.Notes != nil {
			store.SetNotes(lineID, *req.Notes)
		}
		if req.Quantity != nil {
			store.SetQuantity(lineID, *req.Quantity)
		}
		return nil
	})
}

func (s *cartServiceImpl) ClearCart(ctx context.Context, sessionID string) (*models.CartView, *ServiceError) {
	return s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		store.Clear()
		return nil
	})
}

func (s *cartServiceImpl) SetVisibility(ctx context.Context, sessionID string, action VisibilityAction) (*models.CartView, *ServiceError) {
	switch action {
	case VisibilityOpen, VisibilityClose, VisibilityToggle:
	default:
		return nil, badRequest("unknown visibility action")
	}

	return s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		switch action {
		case VisibilityOpen:
			store.Open()
		case VisibilityClose:
			store.Close()
		default:
			store.Toggle()
		}
		return nil
	})
}

// Checkout renders the order message and deep link and empties the cart.
// The order is announced only once the emptied cart is stored. A publish
// failure is logged and does not fail checkout.
func (s *cartServiceImpl) Checkout(ctx context.Context, sessionID string, req CheckoutRequest) (*models.CheckoutResult, *ServiceError) {
	var (
		result *models.CheckoutResult
		event  models.CheckoutEvent
	)

	_, svcErr := s.mutate(ctx, sessionID, func(store *cart.Store) *ServiceError {
		if store.IsEmpty() {
			return &ServiceError{StatusCode: http.StatusConflict, Message: "cart is empty"}
		}

		phone, svcErr := s.resolvePhone(ctx, req)
		if svcErr != nil {
			return svcErr
		}

		lang := req.Lang
		if lang == "" {
			lang = s.opts.DefaultLang
		}
		f := cart.NewFormatter(lang)
		if s.opts.Scheme != "" {
			f.Scheme = s.opts.Scheme
		}
		if s.opts.Currency != "" {
			f.Currency = s.opts.Currency
		}
		f.Now = s.opts.Now
		f.Location = s.opts.Location

		result = &models.CheckoutResult{
			WhatsAppURL: f.Link(store, phone),
			Message:     f.Message(store),
			Total:       store.TotalPrice(),
			ItemCount:   store.TotalItemCount(),
		}

		event = models.CheckoutEvent{
			Event:        CheckoutEventType,
			SessionID:    sessionID,
			RestaurantID: req.RestaurantID,
			BranchID:     req.BranchID,
			Phone:        phone,
			Items:        store.Items(),
			Total:        result.Total,
			ItemCount:    result.ItemCount,
			Timestamp:    s.opts.Now(),
		}

		store.Clear()
		return nil
	})
	if svcErr != nil {
		return nil, svcErr
	}

	s.publish(ctx, event)

	s.logger.Info("Cart checked out",
		zap.String(logger.RequestIDKey, logger.GetRequestID(ctx)),
		zap.String("session_id", sessionID),
		zap.String("restaurant_id", req.RestaurantID),
		zap.Int("item_count", result.ItemCount),
		zap.Float64("total", result.Total),
	)
	return result, nil
}

// resolvePhone picks the request phone, then the branch number, then the
// restaurant number.
func (s *cartServiceImpl) resolvePhone(ctx context.Context, req CheckoutRequest) (string, *ServiceError) {
	raw := strings.TrimSpace(req.Phone)
	if raw == "" {
		data, svcErr := s.restaurants.GetRestaurant(ctx, req.RestaurantID)
		if svcErr != nil {
			return "", svcErr
		}
		if req.BranchID != "" {
			branch, ok := data.Details.Branch(req.BranchID)
			if !ok {
				return "", notFound("branch not found")
			}
			raw = branch.WhatsAppNumber
		}
		if strings.TrimSpace(raw) == "" {
			raw = data.Details.WhatsAppNumber
		}
	}

	if strings.TrimSpace(raw) == "" {
		return "", &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: "restaurant has no whatsapp number"}
	}
	phone, err := cart.NormalizePhone(raw)
	if err != nil {
		return "", &ServiceError{StatusCode: http.StatusUnprocessableEntity, Message: err.Error()}
	}
	return phone, nil
}

func (s *cartServiceImpl) publish(ctx context.Context, event models.CheckoutEvent) {
	s.count(aws_pkg.MetricCartCheckouts)
	if s.publisher == nil {
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.publisher.PublishCheckout(pubCtx, event); err != nil {
		s.logger.Error("Failed to publish checkout event",
			zap.String(logger.RequestIDKey, logger.GetRequestID(ctx)),
			zap.String("session_id", event.SessionID),
			zap.Error(err),
		)
		return
	}
	s.count(aws_pkg.MetricCheckoutPublished)
}

// mutate runs fn against the session's cart under the session lock. The
// cart is saved and subscribers notified only when fn changed it.
func (s *cartServiceImpl) mutate(ctx context.Context, sessionID string, fn func(*cart.Store) *ServiceError) (*models.CartView, *ServiceError) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, badRequest("session id is required")
	}

	unlock := s.locks.lock(sessionID)
	defer unlock()

	store, svcErr := s.load(ctx, sessionID)
	if svcErr != nil {
		return nil, svcErr
	}

	changed := false
	cancel := store.Subscribe(func(cart.Event) { changed = true })
	svcErr = fn(store)
	cancel()
	if svcErr != nil {
		return nil, svcErr
	}

	v := view(store, sessionID)
	if !changed {
		return v, nil
	}

	if err := s.persist(ctx, &v.Cart); err != nil {
		s.logger.Error("Failed to save cart", zap.String("session_id", sessionID), zap.Error(err))
		return nil, internal("failed to save cart")
	}
	if s.notifier != nil {
		s.notifier.NotifyCart(sessionID, *v)
	}
	return v, nil
}

// persist drops an empty, closed cart and saves anything else.
func (s *cartServiceImpl) persist(ctx context.Context, snapshot *models.Cart) error {
	if len(snapshot.Items) == 0 && !snapshot.IsOpen {
		return s.repo.DeleteCart(ctx, snapshot.SessionID)
	}
	return s.repo.SaveCart(ctx, snapshot)
}

func (s *cartServiceImpl) load(ctx context.Context, sessionID string) (*cart.Store, *ServiceError) {
	snapshot, err := s.repo.GetCart(ctx, sessionID)
	if err != nil {
		s.logger.Error("Failed to load cart", zap.String("session_id", sessionID), zap.Error(err))
		return nil, internal("failed to get cart")
	}
	return cart.Restore(snapshot), nil
}

func (s *cartServiceImpl) count(name string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, name, nil)
	}()
}

func view(store *cart.Store, sessionID string) *models.CartView {
	return &models.CartView{
		Cart:           store.Snapshot(sessionID),
		TotalPrice:     store.TotalPrice(),
		TotalItemCount: store.TotalItemCount(),
	}
}

// sessionLocks hands out one mutex per session, dropping it once no caller
// holds or waits on it.
type sessionLocks struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{locks: make(map[string]*sessionLock)}
}

func (l *sessionLocks) lock(key string) (unlock func()) {
	l.mu.Lock()
	sl, ok := l.locks[key]
	if !ok {
		sl = &sessionLock{}
		l.locks[key] = sl
	}
	sl.refs++
	l.mu.Unlock()

	sl.mu.Lock()
	return func() {
		sl.mu.Unlock()
		l.mu.Lock()
		sl.refs--
		if sl.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}
