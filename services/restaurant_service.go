package services

import (
	"context"
	"net/http"
	"strings"
	"time"

	"menu-service/cart"
	"menu-service/clients"
	"menu-service/database"
	"menu-service/models"
	"menu-service/normalizer"
	aws_pkg "menu-service/pkg/aws"

	"go.uber.org/zap"
)

// MenuQuery narrows and localizes a restaurant menu.
type MenuQuery struct {
	Lang     string
	Category string
}

// RestaurantService serves normalized catalog data from the upstream sheet API.
type RestaurantService interface {
	ListRestaurants(ctx context.Context, search, lang string) ([]models.RestaurantSummary, *ServiceError)
	GetRestaurant(ctx context.Context, id string) (*models.CombinedRestaurantData, *ServiceError)
	GetMenu(ctx context.Context, id string, q MenuQuery) (*models.RestaurantMenu, *ServiceError)
	FindItem(ctx context.Context, restaurantID, itemRef, option string) (cart.Candidate, *ServiceError)
	Invalidate(ctx context.Context) *ServiceError
}

type restaurantServiceImpl struct {
	api     clients.MenuAPI
	cache   database.CatalogCache
	metrics aws_pkg.MetricsRecorder
	logger  *zap.Logger
}

// NewRestaurantService creates a new RestaurantService. metrics may be nil.
func NewRestaurantService(
	api clients.MenuAPI,
	cache database.CatalogCache,
	metrics aws_pkg.MetricsRecorder,
	logger *zap.Logger,
) RestaurantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &restaurantServiceImpl{
		api:     api,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// ListRestaurants returns the active restaurants matching search. An upstream
// with nothing to offer yields an empty list.
func (s *restaurantServiceImpl) ListRestaurants(ctx context.Context, search, lang string) ([]models.RestaurantSummary, *ServiceError) {
	list, ok := s.cache.GetRestaurants(ctx)
	s.recordCache("restaurants", ok)
	if !ok {
		start := time.Now()
		resp := s.api.ActiveRestaurants(ctx)
		s.recordUpstream(clients.ActionActiveRestaurants, resp, time.Since(start))

		list = []models.RestaurantDetails{}
		if data := clients.Data(resp); data != nil {
			v, err := normalizer.Parse(data)
			if err != nil {
				s.logger.Warn("Active restaurants payload is not valid JSON", zap.Error(err))
				s.count(aws_pkg.MetricTransformFailures, map[string]string{"Action": clients.ActionActiveRestaurants})
			} else {
				list = normalizer.ExtractRestaurants(v)
				s.cache.SetRestaurants(ctx, list)
			}
		}
	}

	matched := normalizer.SearchRestaurants(list, search)
	out := make([]models.RestaurantSummary, 0, len(matched))
	for _, r := range matched {
		out = append(out, models.RestaurantSummary{
			RestaurantDetails: r,
			FeaturesText:      normalizer.FeaturesText(r.Features, lang),
		})
	}
	return out, nil
}

func (s *restaurantServiceImpl) GetRestaurant(ctx context.Context, id string) (*models.CombinedRestaurantData, *ServiceError) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, badRequest("restaurant id is required")
	}

	if data, ok := s.cache.GetRestaurant(ctx, id); ok {
		s.recordCache("restaurant", true)
		return data, nil
	}
	s.recordCache("restaurant", false)

	start := time.Now()
	resp := s.api.RestaurantData(ctx, id)
	s.recordUpstream(clients.ActionRestaurantData, resp, time.Since(start))

	raw := clients.Data(resp)
	if raw == nil {
		msg := ""
		if resp != nil {
			msg = resp.Message
		}
		s.logger.Info("Restaurant not available upstream",
			zap.String("restaurant_id", id),
			zap.String("upstream_message", msg),
		)
		return nil, notFound("restaurant not found")
	}

	data := normalizer.TransformJSON(raw)
	if data == nil {
		s.count(aws_pkg.MetricTransformFailures, map[string]string{"Action": clients.ActionRestaurantData})
		return nil, &ServiceError{StatusCode: http.StatusBadGateway, Message: "failed to process restaurant data"}
	}
	if data.Details.ID == "" {
		data.Details.ID = id
	}

	s.cache.SetRestaurant(ctx, id, data)
	return data, nil
}

// GetMenu returns the menu filtered to q.Category and presented in q.Lang.
func (s *restaurantServiceImpl) GetMenu(ctx context.Context, id string, q MenuQuery) (*models.RestaurantMenu, *ServiceError) {
	data, svcErr := s.GetRestaurant(ctx, id)
	if svcErr != nil {
		return nil, svcErr
	}

	menu := normalizer.FilterByCategory(data.Menu, q.Category)
	menu = normalizer.Localize(menu, q.Lang)
	return &menu, nil
}

// FindItem resolves a menu item by id, or by name in either language, into
// a cart candidate priced from the server-side menu.
func (s *restaurantServiceImpl) FindItem(ctx context.Context, restaurantID, itemRef, option string) (cart.Candidate, *ServiceError) {
	itemRef = strings.TrimSpace(itemRef)
	if itemRef == "" {
		return cart.Candidate{}, badRequest("item_id or name is required")
	}

	data, svcErr := s.GetRestaurant(ctx, restaurantID)
	if svcErr != nil {
		return cart.Candidate{}, svcErr
	}

	item, ok := findMenuItem(data.Menu.Items, itemRef)
	if !ok {
		return cart.Candidate{}, notFound("menu item not found")
	}

	candidate := cart.Candidate{
		Name:  item.Name,
		Price: item.Price,
		Image: item.Image,
	}

	option = strings.TrimSpace(option)
	if option == "" {
		return candidate, nil
	}
	for _, o := range item.Options {
		if o.Name == option || (o.NameEn != "" && o.NameEn == option) {
			candidate.Price = o.Price
			candidate.SelectedOption = &models.SelectedOption{Name: o.Name, Price: o.Price}
			return candidate, nil
		}
	}
	return cart.Candidate{}, notFound("menu item option not found")
}

func findMenuItem(items []models.MenuItem, ref string) (models.MenuItem, bool) {
	for _, it := range items {
		if it.ID != "" && it.ID == ref {
			return it, true
		}
	}
	for _, it := range items {
		if strings.TrimSpace(it.Name) == ref || (it.NameEn != "" && strings.TrimSpace(it.NameEn) == ref) {
			return it, true
		}
	}
	return models.MenuItem{}, false
}

func (s *restaurantServiceImpl) Invalidate(ctx context.Context) *ServiceError {
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Error("Failed to invalidate catalog cache", zap.Error(err))
		return internal("failed to invalidate cache")
	}
	return nil
}

func (s *restaurantServiceImpl) recordCache(cache string, hit bool) {
	name := aws_pkg.MetricCacheMisses
	if hit {
		name = aws_pkg.MetricCacheHits
	}
	s.count(name, map[string]string{"Cache": cache})
}

func (s *restaurantServiceImpl) recordUpstream(action string, resp *models.APIResponse, elapsed time.Duration) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	dims := map[string]string{"Action": action}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordLatency(ctx, aws_pkg.MetricUpstreamLatency, elapsed, dims)
		if resp == nil || resp.Status != models.StatusSuccess {
			_ = s.metrics.RecordCount(ctx, aws_pkg.MetricUpstreamFailures, dims)
		}
	}()
}

func (s *restaurantServiceImpl) count(name string, dims map[string]string) {
	if s.metrics == nil || !s.metrics.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.metrics.RecordCount(ctx, name, dims)
	}()
}
