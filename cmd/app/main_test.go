package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/topsucces-code/mientior-backend/internal/cache"
	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"
	"github.com/topsucces-code/mientior-backend/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const testGatewayKey = "SB-test-server-key"

// stubCatalog backs the handlers with two in-memory products.
type stubCatalog struct {
	products map[string]*model.ProductSnapshot
	variants map[string]*model.VariantSnapshot
}

func (s *stubCatalog) GetProduct(_ context.Context, productID string) (*model.ProductSnapshot, error) {
	p, ok := s.products[productID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *stubCatalog) GetVariant(_ context.Context, variantID string) (*model.VariantSnapshot, error) {
	v, ok := s.variants[variantID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cv := *v
	return &cv, nil
}

type stubPromotionStore struct {
	promotions map[string]*model.Promotion
}

func (s *stubPromotionStore) GetByCode(_ context.Context, code string) (*model.Promotion, error) {
	// the repository matches codes case-insensitively and hands back the
	// stored row
	p, ok := s.promotions[strings.ToUpper(code)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// stubOrderStore serves both the checkout flow and the payment flow.
type stubOrderStore struct {
	orders      map[string]*model.Order
	finalizeErr error
}

func newStubOrderStore() *stubOrderStore {
	return &stubOrderStore{orders: map[string]*model.Order{}}
}

func (s *stubOrderStore) GetByID(_ context.Context, orderID string) (*model.Order, error) {
	o, ok := s.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (s *stubOrderStore) GetByNumber(_ context.Context, orderNumber string) (*model.Order, error) {
	for _, o := range s.orders {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *stubOrderStore) ListByUserID(_ context.Context, userID int64) ([]*model.Order, error) {
	out := make([]*model.Order, 0)
	for _, o := range s.orders {
		if o.UserID != nil && *o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *stubOrderStore) Create(_ context.Context, o *model.Order) error {
	cp := *o
	s.orders[o.OrderID] = &cp
	return nil
}

func (s *stubOrderStore) UpdateProvisional(_ context.Context, o *model.Order) error {
	if _, ok := s.orders[o.OrderID]; !ok {
		return repository.ErrNotFound
	}
	cp := *o
	s.orders[o.OrderID] = &cp
	return nil
}

func (s *stubOrderStore) FinalizePaid(_ context.Context, orderID, _, _ string, _ []byte) error {
	if s.finalizeErr != nil {
		return s.finalizeErr
	}
	o, ok := s.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.OrderStatus = model.OrderStatusPaid
	o.PaymentStatus = model.PaymentStatusPaid
	return nil
}

func (s *stubOrderStore) MarkCancelled(_ context.Context, orderID string, _ []byte) error {
	o, ok := s.orders[orderID]
	if !ok {
		return repository.ErrNotFound
	}
	o.OrderStatus = model.OrderStatusCancelled
	o.PaymentStatus = model.PaymentStatusFailed
	return nil
}

type stubPaymentStore struct {
	byRef   map[string]*model.Payment
	byOrder map[string]*model.Payment
	lastRef string
}

func newStubPaymentStore() *stubPaymentStore {
	return &stubPaymentStore{byRef: map[string]*model.Payment{}, byOrder: map[string]*model.Payment{}}
}

func (s *stubPaymentStore) CreatePending(_ context.Context, orderID string, amountCents int64, provider, providerRef string, payload []byte) (int64, error) {
	p := &model.Payment{
		PaymentID:       int64(len(s.byRef) + 1),
		OrderID:         orderID,
		AmountCents:     amountCents,
		PaymentStatus:   model.PaymentStatusPending,
		PaymentProvider: &provider,
		ProviderRef:     &providerRef,
		ProviderPayload: payload,
	}
	s.byRef[providerRef] = p
	s.byOrder[orderID] = p
	s.lastRef = providerRef
	return p.PaymentID, nil
}

func (s *stubPaymentStore) GetPendingByOrderID(_ context.Context, orderID string) (*model.Payment, error) {
	p, ok := s.byOrder[orderID]
	if !ok || p.PaymentStatus != model.PaymentStatusPending {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubPaymentStore) GetByProviderRef(_ context.Context, providerRef string) (*model.Payment, error) {
	p, ok := s.byRef[providerRef]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (s *stubPaymentStore) MarkSuperseded(_ context.Context, paymentID int64) error {
	for _, p := range s.byRef {
		if p.PaymentID == paymentID && p.PaymentStatus == model.PaymentStatusPending {
			p.PaymentStatus = model.PaymentStatusSuperseded
			return nil
		}
	}
	return repository.ErrNotFound
}

type stubGateway struct {
	calls int
}

func (s *stubGateway) CreateTransaction(_ context.Context, _ string, _ int64, _ string) (string, string, error) {
	s.calls++
	return "https://app.sandbox.midtrans.com/snap/v4/redirect", "snap-token", nil
}

// testServer wires the full route table over stubs, mirroring main().
type testServer struct {
	e        *echo.Echo
	catalog  *stubCatalog
	orders   *stubOrderStore
	payments *stubPaymentStore
	gateway  *stubGateway
}

func newTestServer() *testServer {
	catalog := &stubCatalog{
		products: map[string]*model.ProductSnapshot{
			"P1": {ProductID: "P1", Name: "Walnut desk organizer", PriceCents: 1000, Stock: 10, ProcessingDays: 2},
		},
		variants: map[string]*model.VariantSnapshot{},
	}
	expired := time.Now().Add(-time.Hour)
	promotions := &stubPromotionStore{promotions: map[string]*model.Promotion{
		"SAVE10":    {Code: "SAVE10", Kind: model.PromotionPercentage, Value: 10},
		"EXPIRED10": {Code: "EXPIRED10", Kind: model.PromotionPercentage, Value: 10, ExpiresAt: &expired},
	}}
	orders := newStubOrderStore()
	payments := newStubPaymentStore()
	gateway := &stubGateway{}
	logger := zap.NewNop()

	rates := services.NewShippingRates(5000)
	promotionSvc := services.NewPromotionService(promotions)
	checkoutSvc := services.NewCheckoutService(catalog, promotionSvc, rates, 1000)
	orderSvc := services.NewOrderService(orders, checkoutSvc, true, "MNT", logger)
	deliverySvc := services.NewDeliveryService(catalog, cache.NewMemoryCache(), rates, 30*time.Minute, 14, logger)
	paymentSvc := services.NewPaymentService(payments, orders, gateway, testGatewayKey, logger)

	e := echo.New()
	e.Validator = &requestValidator{validate: validator.New()}

	api := e.Group("/api/v1")
	registerCheckoutRoutes(api, orderSvc, checkoutSvc)
	registerOrderRoutes(api, orderSvc)
	registerDeliveryRoutes(api, deliverySvc, rates)
	registerPaymentRoutes(api, paymentSvc)

	return &testServer{e: e, catalog: catalog, orders: orders, payments: payments, gateway: gateway}
}

func (ts *testServer) do(method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func checkoutBody() map[string]any {
	return map[string]any{
		"items": []map[string]any{
			{"productId": "P1", "quantity": 2},
		},
		"shippingAddress": map[string]any{
			"fullName":   "Ada Martin",
			"line1":      "12 Rue des Lilas",
			"city":       "Lyon",
			"postalCode": "69003",
			"country":    "FR",
		},
		"shippingOption": "standard",
		"gateway":        "midtrans",
		"email":          "ada@example.com",
	}
}

func decodeJSON[T any](raw *bytes.Buffer) (T, error) {
	var out T
	err := json.Unmarshal(raw.Bytes(), &out)
	return out, err
}
