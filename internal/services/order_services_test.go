package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/topsucces-code/mientior-backend/internal/model"
	"github.com/topsucces-code/mientior-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeOrderStore keeps orders in a map keyed by id and counts writes so tests
// can assert on row counts.
type fakeOrderStore struct {
	orders      map[string]*model.Order
	createCalls int
	updateCalls int
	err         error
}

func newFakeOrderStore() *fakeOrderStore {
	return &fakeOrderStore{orders: map[string]*model.Order{}}
}

func (f *fakeOrderStore) GetByID(_ context.Context, orderID string) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[orderID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrderStore) GetByNumber(_ context.Context, orderNumber string) (*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, o := range f.orders {
		if o.OrderNumber == orderNumber {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOrderStore) ListByUserID(_ context.Context, userID int64) ([]*model.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*model.Order, 0)
	for _, o := range f.orders {
		if o.UserID != nil && *o.UserID == userID {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeOrderStore) Create(_ context.Context, o *model.Order) error {
	if f.err != nil {
		return f.err
	}
	f.createCalls++
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func (f *fakeOrderStore) UpdateProvisional(_ context.Context, o *model.Order) error {
	if f.err != nil {
		return f.err
	}
	f.updateCalls++
	if _, ok := f.orders[o.OrderID]; !ok {
		return repository.ErrNotFound
	}
	cp := *o
	f.orders[o.OrderID] = &cp
	return nil
}

func testAddress() *model.Address {
	return &model.Address{
		FullName:   "Ada Martin",
		Line1:      "12 Rue des Lilas",
		City:       "Lyon",
		PostalCode: "69003",
		Country:    "FR",
	}
}

func newOrderFixture(t *testing.T) (*OrderService, *fakeOrderStore, *fakeCatalog, *fakeResolver) {
	t.Helper()
	engine, catalog, resolver := newTestEngine()
	store := newFakeOrderStore()
	svc := NewOrderService(store, engine, true, "MNT", zap.NewNop())
	return svc, store, catalog, resolver
}

func guestRequest() InitializeOrderRequest {
	return InitializeOrderRequest{
		Lines:           []model.CartLine{{ProductID: "P1", Quantity: 2}},
		ShippingAddress: testAddress(),
		ShippingOption:  ShippingStandard,
		Gateway:         "midtrans",
		ContactEmail:    "ada@example.com",
	}
}

func TestInitialize_CreatesProvisionalOrder(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)

	res, err := svc.Initialize(context.Background(), guestRequest())
	require.NoError(t, err)

	assert.True(t, res.Provisional)
	assert.NotEmpty(t, res.OrderID)
	assert.Regexp(t, regexp.MustCompile(`^MNT-\d{8}-[0-9A-F]{8}$`), res.OrderNumber)
	assert.Equal(t, int64(2700), res.Totals.TotalCents)

	require.Len(t, store.orders, 1)
	stored := store.orders[res.OrderID]
	assert.Equal(t, model.OrderStatusPending, stored.OrderStatus)
	assert.Equal(t, model.PaymentStatusPending, stored.PaymentStatus)
	require.NotNil(t, stored.GuestEmail)
	assert.Equal(t, "ada@example.com", *stored.GuestEmail)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, 10, stored.Items[0].AvailableStock)
}

func TestInitialize_UpdateInPlaceIsIdempotent(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)
	ctx := context.Background()

	first, err := svc.Initialize(ctx, guestRequest())
	require.NoError(t, err)

	req := guestRequest()
	req.ExistingOrderID = first.OrderID
	second, err := svc.Initialize(ctx, req)
	require.NoError(t, err)

	// same identity, same totals, still one row
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, first.Totals, second.Totals)
	assert.False(t, second.Provisional)
	assert.Len(t, store.orders, 1)
	assert.Equal(t, 1, store.createCalls)
	assert.Equal(t, 1, store.updateCalls)
}

func TestInitialize_UpdateRepricesEditedCart(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)
	ctx := context.Background()

	first, err := svc.Initialize(ctx, guestRequest())
	require.NoError(t, err)

	req := guestRequest()
	req.ExistingOrderID = first.OrderID
	req.Lines = []model.CartLine{{ProductID: "P1", Quantity: 3}}
	second, err := svc.Initialize(ctx, req)
	require.NoError(t, err)

	assert.Equal(t, first.OrderNumber, second.OrderNumber)
	assert.Equal(t, int64(3000), second.Totals.SubtotalCents)
	assert.Equal(t, int64(3000), store.orders[first.OrderID].Totals.SubtotalCents)
	require.Len(t, store.orders[first.OrderID].Items, 1)
	assert.Equal(t, 3, store.orders[first.OrderID].Items[0].Quantity)
}

func TestInitialize_StoresCanonicalPromoCode(t *testing.T) {
	svc, store, _, resolver := newOrderFixture(t)
	resolver.descriptors["save10"] = &model.PromotionDescriptor{
		Code: "SAVE10", Kind: model.PromotionPercentage, Value: 10,
	}

	// the shopper typed the code in lowercase; the order must carry the
	// stored casing or the redemption counter never finds the promotion row
	req := guestRequest()
	req.PromoCode = "save10"
	res, err := svc.Initialize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "SAVE10", res.Totals.PromoCode)
	stored := store.orders[res.OrderID]
	require.NotNil(t, stored.CouponCode)
	assert.Equal(t, "SAVE10", *stored.CouponCode)
}

func TestInitialize_StockFailureLeavesStoreUntouched(t *testing.T) {
	svc, store, catalog, _ := newOrderFixture(t)
	catalog.products["P1"].Stock = 1

	_, err := svc.Initialize(context.Background(), guestRequest())

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "P1", stockErr.ProductID)
	assert.Empty(t, store.orders)
	assert.Zero(t, store.createCalls)
}

func TestInitialize_ExpiredPromoCreatesNoOrder(t *testing.T) {
	svc, store, _, resolver := newOrderFixture(t)
	resolver.errs["EXPIRED10"] = &PromotionInvalidError{Code: "EXPIRED10", Reason: PromoReasonExpired}

	req := guestRequest()
	req.PromoCode = "EXPIRED10"
	_, err := svc.Initialize(context.Background(), req)

	var promoErr *PromotionInvalidError
	require.ErrorAs(t, err, &promoErr)
	assert.Equal(t, PromoReasonExpired, promoErr.Reason)
	assert.Empty(t, store.orders)
}

func TestInitialize_RequiresShippingAddress(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	req := guestRequest()
	req.ShippingAddress = nil
	_, err := svc.Initialize(context.Background(), req)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "shippingAddress", validationErr.Field)
}

func TestInitialize_GuestRequiresEmail(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	req := guestRequest()
	req.ContactEmail = "   "
	_, err := svc.Initialize(context.Background(), req)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "email", validationErr.Field)
}

func TestInitialize_GuestCheckoutDisabled(t *testing.T) {
	engine, _, _ := newTestEngine()
	store := newFakeOrderStore()
	svc := NewOrderService(store, engine, false, "MNT", zap.NewNop())

	_, err := svc.Initialize(context.Background(), guestRequest())
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestInitialize_AuthenticatedUserSkipsGuestEmail(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)

	userID := int64(42)
	req := guestRequest()
	req.ContactEmail = ""
	req.UserID = &userID

	res, err := svc.Initialize(context.Background(), req)
	require.NoError(t, err)

	stored := store.orders[res.OrderID]
	require.NotNil(t, stored.UserID)
	assert.Equal(t, int64(42), *stored.UserID)
	assert.Nil(t, stored.GuestEmail)
}

func TestInitialize_UnknownExistingOrder(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)

	req := guestRequest()
	req.ExistingOrderID = "missing-id"
	_, err := svc.Initialize(context.Background(), req)

	var notFound *OrderNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "missing-id", notFound.OrderID)
}

func TestInitialize_PaidOrderNotEditable(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)
	ctx := context.Background()

	first, err := svc.Initialize(ctx, guestRequest())
	require.NoError(t, err)
	store.orders[first.OrderID].OrderStatus = model.OrderStatusPaid

	req := guestRequest()
	req.ExistingOrderID = first.OrderID
	_, err = svc.Initialize(ctx, req)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, 1, store.createCalls)
	assert.Zero(t, store.updateCalls)
}

func TestInitialize_ForeignOrderRejected(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)
	ctx := context.Background()

	owner := int64(7)
	req := guestRequest()
	req.ContactEmail = ""
	req.UserID = &owner
	first, err := svc.Initialize(ctx, req)
	require.NoError(t, err)

	intruder := int64(8)
	req2 := guestRequest()
	req2.ContactEmail = ""
	req2.UserID = &intruder
	req2.ExistingOrderID = first.OrderID
	_, err = svc.Initialize(ctx, req2)

	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestInitialize_StoreFailureIsRetryable(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)
	store.err = errors.New("connection refused")

	_, err := svc.Initialize(context.Background(), guestRequest())

	var storeErr *StoreUnavailableError
	require.ErrorAs(t, err, &storeErr)
}

func TestGetByNumber(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)
	ctx := context.Background()

	created, err := svc.Initialize(ctx, guestRequest())
	require.NoError(t, err)

	order, err := svc.GetByNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.OrderID, order.OrderID)

	_, err = svc.GetByNumber(ctx, "MNT-19700101-DEADBEEF")
	var notFound *OrderNotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestListForUser(t *testing.T) {
	svc, _, _, _ := newOrderFixture(t)
	ctx := context.Background()

	owner := int64(42)
	owned := guestRequest()
	owned.ContactEmail = ""
	owned.UserID = &owner
	created, err := svc.Initialize(ctx, owned)
	require.NoError(t, err)

	// a guest order has no owner and belongs in nobody's history
	_, err = svc.Initialize(ctx, guestRequest())
	require.NoError(t, err)

	orders, err := svc.ListForUser(ctx, 42)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, created.OrderID, orders[0].OrderID)

	empty, err := svc.ListForUser(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListForUser_StoreFailureIsRetryable(t *testing.T) {
	svc, store, _, _ := newOrderFixture(t)
	store.err = errors.New("connection refused")

	_, err := svc.ListForUser(context.Background(), 42)

	var storeErr *StoreUnavailableError
	require.ErrorAs(t, err, &storeErr)
}
