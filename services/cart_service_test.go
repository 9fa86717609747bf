package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"menu-service/database"
	"menu-service/models"
	"menu-service/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// ---- mocks ----

type mockPublisher struct {
	mu     sync.Mutex
	events []models.CheckoutEvent
	err    error
}

func (m *mockPublisher) PublishCheckout(_ context.Context, e models.CheckoutEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return m.err
}

type mockNotifier struct {
	mu    sync.Mutex
	views []models.CartView
}

func (m *mockNotifier) NotifyCart(_ string, v models.CartView) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.views = append(m.views, v)
}

type failingRepo struct{}

func (failingRepo) GetCart(context.Context, string) (*models.Cart, error) {
	return nil, errors.New("redis down")
}
func (failingRepo) SaveCart(context.Context, *models.Cart) error { return errors.New("redis down") }
func (failingRepo) DeleteCart(context.Context, string) error     { return errors.New("redis down") }

// saveFailingRepo reads from memory but refuses writes while failing is set.
type saveFailingRepo struct {
	*database.MemoryCartRepository
	failing bool
}

func (r *saveFailingRepo) SaveCart(ctx context.Context, c *models.Cart) error {
	if r.failing {
		return errors.New("redis down")
	}
	return r.MemoryCartRepository.SaveCart(ctx, c)
}

func (r *saveFailingRepo) DeleteCart(ctx context.Context, sessionID string) error {
	if r.failing {
		return errors.New("redis down")
	}
	return r.MemoryCartRepository.DeleteCart(ctx, sessionID)
}

// ---- helper ----

type cartFixture struct {
	svc       services.CartService
	repo      *database.MemoryCartRepository
	publisher *mockPublisher
	notifier  *mockNotifier
}

func newCartFixture() *cartFixture {
	f := &cartFixture{
		repo:      database.NewMemoryCartRepository(time.Hour),
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{},
	}
	opts := services.CheckoutOptions{
		Scheme:      "https://wa.me",
		Currency:    "SYP",
		DefaultLang: "en",
		Now:         func() time.Time { return time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC) },
	}
	f.svc = services.NewCartService(f.repo, newRestaurantService(newFakeAPI()), f.publisher, f.notifier, nil, opts, zap.NewNop())
	return f
}

const session = "session-0001"

func (f *cartFixture) add(t *testing.T, itemID, option string) *models.CartView {
	t.Helper()
	v, svcErr := f.svc.AddItem(context.Background(), session, services.AddItemRequest{
		RestaurantID: "r1",
		ItemID:       itemID,
		Option:       option,
	})
	require.Nil(t, svcErr)
	return v
}

// ---- tests ----

func TestGetCart_EmptySession(t *testing.T) {
	f := newCartFixture()

	v, svcErr := f.svc.GetCart(context.Background(), session)
	require.Nil(t, svcErr)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0.0, v.TotalPrice)
	assert.False(t, v.IsOpen)
	assert.Empty(t, f.notifier.views)
}

func TestAddItem_MergesAndPersists(t *testing.T) {
	f := newCartFixture()

	f.add(t, "i1", "")
	f.add(t, "i1", "")
	f.add(t, "i1", "Large")
	v := f.add(t, "i2", "")

	require.Len(t, v.Items, 3)
	assert.Equal(t, "شاي", v.Items[0].ID)
	assert.Equal(t, 2, v.Items[0].Quantity)
	assert.Equal(t, "شاي-كبير", v.Items[1].ID)
	assert.Equal(t, 700.0, v.Items[1].Price)
	assert.Equal(t, 4, v.TotalItemCount)
	assert.Equal(t, 500.0*2+700+12000, v.TotalPrice)

	stored, err := f.repo.GetCart(context.Background(), session)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 3)
	assert.Len(t, f.notifier.views, 4)
}

func TestAddItem_ByNameWithNotes(t *testing.T) {
	f := newCartFixture()

	v, svcErr := f.svc.AddItem(context.Background(), session, services.AddItemRequest{
		RestaurantID: "r1",
		Name:         "Kunafa",
		Notes:        "  extra syrup ",
	})
	require.Nil(t, svcErr)
	require.Len(t, v.Items, 1)
	assert.Equal(t, "extra syrup", v.Items[0].Notes)
}

func TestAddItem_UnknownItem(t *testing.T) {
	f := newCartFixture()

	_, svcErr := f.svc.AddItem(context.Background(), session, services.AddItemRequest{RestaurantID: "r1", ItemID: "missing"})
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)
	assert.Empty(t, f.notifier.views)
}

func TestUpdateQuantityAndNotes(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.add(t, "i1", "")

	v, svcErr := f.svc.UpdateQuantity(ctx, session, "شاي", 5)
	require.Nil(t, svcErr)
	assert.Equal(t, 5, v.TotalItemCount)

	v, svcErr = f.svc.UpdateNotes(ctx, session, "شاي", "no sugar")
	require.Nil(t, svcErr)
	assert.Equal(t, "no sugar", v.Items[0].Notes)

	_, svcErr = f.svc.UpdateQuantity(ctx, session, "missing", 2)
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)

	v, svcErr = f.svc.UpdateQuantity(ctx, session, "شاي", 0)
	require.Nil(t, svcErr)
	assert.Empty(t, v.Items)
}

func TestRemoveItemAndClear(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.add(t, "i1", "")
	f.add(t, "i2", "")

	v, svcErr := f.svc.RemoveItem(ctx, session, "شاي")
	require.Nil(t, svcErr)
	assert.Len(t, v.Items, 1)

	notified := len(f.notifier.views)
	v, svcErr = f.svc.RemoveItem(ctx, session, "شاي")
	require.Nil(t, svcErr)
	assert.Len(t, v.Items, 1)
	assert.Len(t, f.notifier.views, notified, "a no-op removal does not notify")

	v, svcErr = f.svc.ClearCart(ctx, session)
	require.Nil(t, svcErr)
	assert.Empty(t, v.Items)
	assert.Equal(t, 0, f.repo.Len(), "an empty closed cart is deleted")
}

func TestClearCart_KeepsOpenCart(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.add(t, "i1", "")
	_, _ = f.svc.SetVisibility(ctx, session, services.VisibilityOpen)

	v, svcErr := f.svc.ClearCart(ctx, session)
	require.Nil(t, svcErr)
	assert.True(t, v.IsOpen)
	assert.Equal(t, 1, f.repo.Len())
}

func TestUpdateItem_AppliesBothInOneSave(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.add(t, "i1", "")
	notified := len(f.notifier.views)

	qty, notes := 4, "no sugar"
	v, svcErr := f.svc.UpdateItem(ctx, session, "شاي", services.UpdateItemRequest{Quantity: &qty, Notes: &notes})
	require.Nil(t, svcErr)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 4, v.Items[0].Quantity)
	assert.Equal(t, "no sugar", v.Items[0].Notes)
	assert.Len(t, f.notifier.views, notified+1)

	_, svcErr = f.svc.UpdateItem(ctx, session, "missing", services.UpdateItemRequest{Quantity: &qty, Notes: &notes})
	require.NotNil(t, svcErr)
	assert.Equal(t, 404, svcErr.StatusCode)

	_, svcErr = f.svc.UpdateItem(ctx, session, "شاي", services.UpdateItemRequest{})
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestSetVisibility(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()

	v, svcErr := f.svc.SetVisibility(ctx, session, services.VisibilityToggle)
	require.Nil(t, svcErr)
	assert.True(t, v.IsOpen)

	v, _ = f.svc.SetVisibility(ctx, session, services.VisibilityClose)
	assert.False(t, v.IsOpen)

	v, _ = f.svc.SetVisibility(ctx, session, services.VisibilityOpen)
	assert.True(t, v.IsOpen)

	_, svcErr = f.svc.SetVisibility(ctx, session, "spin")
	require.NotNil(t, svcErr)
	assert.Equal(t, 400, svcErr.StatusCode)
}

func TestCheckout_BuildsLinkPublishesAndClears(t *testing.T) {
	f := newCartFixture()
	ctx := context.Background()
	f.add(t, "i1", "")
	f.add(t, "i1", "")

	res, svcErr := f.svc.Checkout(ctx, session, services.CheckoutRequest{RestaurantID: "r1"})
	require.Nil(t, svcErr)

	assert.True(t, strings.HasPrefix(res.WhatsAppURL, "https://wa.me/963912345678?text="))
	assert.NotContains(t, res.WhatsAppURL, "+")
	assert.Contains(t, res.Message, "*2x شاي*")
	assert.Contains(t, res.Message, "*Total: 1,000 SYP*")
	assert.Contains(t, res.Message, "Date: 2026-03-01 19:30")
	assert.Equal(t, 1000.0, res.Total)
	assert.Equal(t, 2, res.ItemCount)

	require.Len(t, f.publisher.events, 1)
	e := f.publisher.events[0]
	assert.Equal(t, services.CheckoutEventType, e.Event)
	assert.Equal(t, session, e.SessionID)
	assert.Equal(t, "963912345678", e.Phone)
	assert.Len(t, e.Items, 1)

	v, _ := f.svc.GetCart(ctx, session)
	assert.Empty(t, v.Items)
}

func TestCheckout_PhoneResolution(t *testing.T) {
	tests := []struct {
		name   string
		req    services.CheckoutRequest
		prefix string
		code   int
	}{
		{"branch number", services.CheckoutRequest{RestaurantID: "r1", BranchID: "b1"}, "https://wa.me/963911111111?", 0},
		{"branch without number falls back", services.CheckoutRequest{RestaurantID: "r1", BranchID: "b2"}, "https://wa.me/963912345678?", 0},
		{"request phone wins", services.CheckoutRequest{RestaurantID: "r1", BranchID: "b1", Phone: "+1 (555) 010-9999"}, "https://wa.me/15550109999?", 0},
		{"unknown branch", services.CheckoutRequest{RestaurantID: "r1", BranchID: "b9"}, "", 404},
		{"invalid phone", services.CheckoutRequest{RestaurantID: "r1", Phone: "call me"}, "", 422},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture()
			f.add(t, "i2", "")

			res, svcErr := f.svc.Checkout(context.Background(), session, tt.req)
			if tt.code != 0 {
				require.NotNil(t, svcErr)
				assert.Equal(t, tt.code, svcErr.StatusCode)
				v, _ := f.svc.GetCart(context.Background(), session)
				assert.Len(t, v.Items, 1, "a failed checkout keeps the cart")
				return
			}
			require.Nil(t, svcErr)
			assert.True(t, strings.HasPrefix(res.WhatsAppURL, tt.prefix), res.WhatsAppURL)
		})
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newCartFixture()

	_, svcErr := f.svc.Checkout(context.Background(), session, services.CheckoutRequest{RestaurantID: "r1"})
	require.NotNil(t, svcErr)
	assert.Equal(t, 409, svcErr.StatusCode)
	assert.Equal(t, "cart is empty", svcErr.Message)
	assert.Empty(t, f.publisher.events)
}

func TestCheckout_PublishFailureDoesNotBlock(t *testing.T) {
	f := newCartFixture()
	f.publisher.err = errors.New("broker down")
	f.add(t, "i1", "")

	res, svcErr := f.svc.Checkout(context.Background(), session, services.CheckoutRequest{RestaurantID: "r1", Lang: "ar"})
	require.Nil(t, svcErr)
	assert.Contains(t, res.Message, "المجموع الكلي")
	assert.Len(t, f.publisher.events, 1)
}

func TestCheckout_SaveFailureDoesNotPublish(t *testing.T) {
	repo := &saveFailingRepo{MemoryCartRepository: database.NewMemoryCartRepository(time.Hour)}
	publisher := &mockPublisher{}
	svc := services.NewCartService(repo, newRestaurantService(newFakeAPI()), publisher, nil, nil, services.CheckoutOptions{}, zap.NewNop())
	ctx := context.Background()

	_, svcErr := svc.AddItem(ctx, session, services.AddItemRequest{RestaurantID: "r1", ItemID: "i1"})
	require.Nil(t, svcErr)

	repo.failing = true
	_, svcErr = svc.Checkout(ctx, session, services.CheckoutRequest{RestaurantID: "r1"})
	require.NotNil(t, svcErr)
	assert.Equal(t, 500, svcErr.StatusCode)
	assert.Empty(t, publisher.events)

	repo.failing = false
	v, _ := svc.GetCart(ctx, session)
	assert.Len(t, v.Items, 1, "the cart survives a failed checkout")

	_, svcErr = svc.Checkout(ctx, session, services.CheckoutRequest{RestaurantID: "r1"})
	require.Nil(t, svcErr)
	assert.Len(t, publisher.events, 1)
}

func TestCheckout_TimestampInConfiguredZone(t *testing.T) {
	svc := services.NewCartService(database.NewMemoryCartRepository(time.Hour), newRestaurantService(newFakeAPI()), nil, nil, nil, services.CheckoutOptions{
		DefaultLang: "en",
		Location:    time.FixedZone("Damascus", 3*60*60),
		Now:         func() time.Time { return time.Date(2026, 3, 1, 19, 30, 0, 0, time.UTC) },
	}, zap.NewNop())
	ctx := context.Background()
	_, svcErr := svc.AddItem(ctx, session, services.AddItemRequest{RestaurantID: "r1", ItemID: "i1"})
	require.Nil(t, svcErr)

	res, svcErr := svc.Checkout(ctx, session, services.CheckoutRequest{RestaurantID: "r1"})
	require.Nil(t, svcErr)
	assert.Contains(t, res.Message, "Date: 2026-03-01 22:30")
}

func TestCartService_RepositoryFailure(t *testing.T) {
	svc := services.NewCartService(failingRepo{}, newRestaurantService(newFakeAPI()), nil, nil, nil, services.CheckoutOptions{}, nil)

	_, svcErr := svc.GetCart(context.Background(), session)
	require.NotNil(t, svcErr)
	assert.Equal(t, 500, svcErr.StatusCode)
}

func TestCartService_ConcurrentAddsAreSerialized(t *testing.T) {
	f := newCartFixture()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.svc.AddItem(context.Background(), session, services.AddItemRequest{RestaurantID: "r1", ItemID: "i1"})
		}()
	}
	wg.Wait()

	v, svcErr := f.svc.GetCart(context.Background(), session)
	require.Nil(t, svcErr)
	require.Len(t, v.Items, 1)
	assert.Equal(t, 20, v.Items[0].Quantity)
}

func TestMultiPublisher_JoinsErrors(t *testing.T) {
	ok := &mockPublisher{}
	bad := &mockPublisher{err: errors.New("sns down")}
	multi := services.MultiPublisher{ok, bad}

	err := multi.PublishCheckout(context.Background(), models.CheckoutEvent{SessionID: session})
	assert.ErrorContains(t, err, "sns down")
	assert.Len(t, ok.events, 1)
	assert.Len(t, bad.events, 1)
}

type mockSNS struct {
	topic string
	body  []byte
	attrs map[string]string
}

func (m *mockSNS) Publish(_ context.Context, topicArn string, message []byte, attributes map[string]string) error {
	m.topic, m.body, m.attrs = topicArn, message, attributes
	return nil
}

func TestSNSCheckoutPublisher(t *testing.T) {
	sns := &mockSNS{}
	p := services.NewSNSCheckoutPublisher(sns, "arn:aws:sns:us-east-1:000000000000:checkout")

	require.NoError(t, p.PublishCheckout(context.Background(), models.CheckoutEvent{Event: services.CheckoutEventType, RestaurantID: "r1"}))
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:checkout", sns.topic)
	assert.Equal(t, "r1", sns.attrs["restaurant_id"])
	assert.Contains(t, string(sns.body), `"event":"cart.checkout"`)
}

type mockProducer struct{ sent []models.CheckoutEvent }

func (m *mockProducer) SendCheckoutEvent(_ context.Context, e models.CheckoutEvent) error {
	m.sent = append(m.sent, e)
	return nil
}

func TestKafkaCheckoutPublisher(t *testing.T) {
	prod := &mockProducer{}
	p := services.NewKafkaCheckoutPublisher(prod)

	require.NoError(t, p.PublishCheckout(context.Background(), models.CheckoutEvent{SessionID: session}))
	assert.Len(t, prod.sent, 1)
}
