package main

import (
	"net/http"
	"testing"

	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryEstimatesEndpoint(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/delivery-estimates?productId=P1", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res, err := decodeJSON[model.DeliveryEstimateResult](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "P1", res.ProductID)
	assert.False(t, res.Cached)
	require.Len(t, res.Estimates, 4)

	// same lookup is served from cache
	again := ts.do(http.MethodGet, "/api/v1/delivery-estimates?productId=P1", nil, nil)
	require.Equal(t, http.StatusOK, again.Code)
	cached, err := decodeJSON[model.DeliveryEstimateResult](again.Body)
	require.NoError(t, err)
	assert.True(t, cached.Cached)
	assert.Equal(t, res.Estimates, cached.Estimates)
}

func TestDeliveryEstimatesEndpoint_MethodFilter(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/delivery-estimates?productId=P1&shippingMethod=express", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res, err := decodeJSON[model.DeliveryEstimateResult](rec.Body)
	require.NoError(t, err)
	require.Len(t, res.Estimates, 1)
	assert.Equal(t, services.ShippingExpress, res.Estimates[0].ShippingOption)
}

func TestDeliveryEstimatesEndpoint_InvalidMethod(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/delivery-estimates?productId=P1&shippingMethod=drone", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res, err := decodeJSON[failureResponse](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "InvalidShippingOption", res.ErrorKind)
}

func TestDeliveryEstimatesEndpoint_MissingProductID(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/delivery-estimates", nil, nil)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	res, err := decodeJSON[failureResponse](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "ValidationError", res.ErrorKind)
}

func TestDeliveryEstimatesEndpoint_UnknownProduct(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/delivery-estimates?productId=GONE", nil, nil)

	require.Equal(t, http.StatusNotFound, rec.Code)
	res, err := decodeJSON[failureResponse](rec.Body)
	require.NoError(t, err)
	assert.Equal(t, "ProductNotFound", res.ErrorKind)
}

func TestShippingOptionsEndpoint(t *testing.T) {
	ts := newTestServer()

	rec := ts.do(http.MethodGet, "/api/v1/shipping-options", nil, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	options, err := decodeJSON[[]services.ShippingOption](rec.Body)
	require.NoError(t, err)
	require.Len(t, options, 4)
	assert.Equal(t, services.ShippingStandard, options[0].ID)
	assert.Equal(t, int64(500), options[0].PriceCents)
	assert.Equal(t, services.ShippingPickup, options[3].ID)
	assert.Equal(t, int64(0), options[3].PriceCents)
}
