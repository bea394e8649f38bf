package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"strings"
	"time"

	"github.com/topsucces-code/mientior-backend/internal/cache"
	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DeliveryService computes per-option delivery windows and caches them.
// Cache failures are logged and absorbed: the worst case is recomputing from
// the catalog, never a failed request.
type DeliveryService struct {
	Catalog            CatalogReader
	Cache              cache.Cache
	Shipping           *ShippingRates
	TTL                time.Duration
	RestockHorizonDays int
	Logger             *zap.Logger

	group singleflight.Group
	now   func() time.Time
}

func NewDeliveryService(catalog CatalogReader, c cache.Cache, shipping *ShippingRates, ttl time.Duration, restockHorizonDays int, logger *zap.Logger) *DeliveryService {
	return &DeliveryService{
		Catalog:            catalog,
		Cache:              c,
		Shipping:           shipping,
		TTL:                ttl,
		RestockHorizonDays: restockHorizonDays,
		Logger:             logger,
		now:                time.Now,
	}
}

// GetEstimates returns the delivery windows for one product, read through the
// cache. The shippingMethod filter is applied after retrieval so every method
// shares one cache entry per product/variant/location.
func (s *DeliveryService) GetEstimates(ctx context.Context, productID string, variantID, location, shippingMethod *string) (*model.DeliveryEstimateResult, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, &ValidationError{Field: "productId", Message: "product id is required"}
	}
	if shippingMethod != nil && *shippingMethod != "" {
		if _, ok := s.Shipping.Get(*shippingMethod); !ok {
			return nil, &InvalidShippingOptionError{Option: *shippingMethod}
		}
	}

	key := s.cacheKey(productID, variantID, location)

	raw, err := s.Cache.Get(ctx, key)
	if err == nil {
		var res model.DeliveryEstimateResult
		if jsonErr := json.Unmarshal([]byte(raw), &res); jsonErr == nil {
			res.Cached = true
			return filterEstimates(&res, shippingMethod), nil
		}
		s.Logger.Warn("delivery cache entry corrupt, recomputing", zap.String("key", key))
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.Logger.Warn("delivery cache read failed", zap.String("key", key), zap.Error(err))
	}

	// collapse concurrent misses for the same key into one catalog read
	v, err, _ := s.group.Do(key, func() (any, error) {
		return s.computeAndStore(ctx, key, productID, variantID)
	})
	if err != nil {
		return nil, err
	}
	return filterEstimates(v.(*model.DeliveryEstimateResult), shippingMethod), nil
}

func (s *DeliveryService) computeAndStore(ctx context.Context, key, productID string, variantID *string) (*model.DeliveryEstimateResult, error) {
	product, err := s.Catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, &ProductNotFoundError{ProductID: productID}
		}
		return nil, &StoreUnavailableError{Err: err}
	}

	stock := product.Stock
	if variantID != nil && *variantID != "" {
		variant, err := s.Catalog.GetVariant(ctx, *variantID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, &ProductNotFoundError{ProductID: productID, VariantID: *variantID}
			}
			return nil, &StoreUnavailableError{Err: err}
		}
		stock = variant.Stock
	}

	processing := product.ProcessingDays
	backordered := stock <= 0

	// backordered items wait out the restock horizon before processing starts
	leadDays := processing
	if backordered {
		leadDays += s.RestockHorizonDays
	}

	today := s.now().UTC()
	base := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, leadDays)

	options := s.Shipping.Options()
	estimates := make([]model.DeliveryEstimate, 0, len(options))
	for _, opt := range options {
		estimates = append(estimates, model.DeliveryEstimate{
			ShippingOption: opt.ID,
			MinDate:        base.AddDate(0, 0, opt.MinTransitDays),
			MaxDate:        base.AddDate(0, 0, opt.MaxTransitDays),
			ProcessingDays: processing,
			IsBackordered:  backordered,
		})
	}

	res := &model.DeliveryEstimateResult{
		ProductID: productID,
		VariantID: variantID,
		Estimates: estimates,
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("encode delivery estimates: %w", err)
	}
	if err := s.Cache.Set(ctx, key, string(payload), s.TTL); err != nil {
		s.Logger.Warn("delivery cache write failed", zap.String("key", key), zap.Error(err))
	}
	return res, nil
}

// cacheKey ignores the shippingMethod filter on purpose. Location goes in
// hashed so arbitrary user input cannot grow keys without bound.
func (s *DeliveryService) cacheKey(productID string, variantID, location *string) string {
	v := "-"
	if variantID != nil && *variantID != "" {
		v = *variantID
	}
	loc := "default"
	if location != nil && strings.TrimSpace(*location) != "" {
		h := fnv.New32a()
		h.Write([]byte(strings.ToLower(strings.TrimSpace(*location))))
		loc = fmt.Sprintf("%08x", h.Sum32())
	}
	return fmt.Sprintf("delivery:%s:%s:%s", productID, v, loc)
}

// filterEstimates narrows a result to one shipping method without mutating
// the original, which may be shared across singleflight callers.
func filterEstimates(res *model.DeliveryEstimateResult, shippingMethod *string) *model.DeliveryEstimateResult {
	out := *res
	if shippingMethod == nil || *shippingMethod == "" {
		out.Estimates = append([]model.DeliveryEstimate(nil), res.Estimates...)
		return &out
	}
	filtered := make([]model.DeliveryEstimate, 0, 1)
	for _, est := range res.Estimates {
		if est.ShippingOption == *shippingMethod {
			filtered = append(filtered, est)
		}
	}
	out.Estimates = filtered
	return &out
}
