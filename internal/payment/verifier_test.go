package payment

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/artstall/marketplace/internal/orders"
)

const secret = "test-secret"

type mockOrderStore struct {
	order    *orders.Order
	paid     bool
	getCalls int
}

func (m *mockOrderStore) GetByGatewayOrderID(_ context.Context, gid string) (*orders.Order, error) {
	m.getCalls++
	if m.order == nil || m.order.GatewayOrderID != gid {
		return nil, orders.ErrNotFound
	}
	cp := *m.order
	return &cp, nil
}

func (m *mockOrderStore) MarkPaid(_ context.Context, orderID, paymentID, signature string) (bool, error) {
	if m.paid {
		return false, nil
	}
	m.paid = true
	m.order.Status = orders.StatusPaid
	m.order.GatewayPaymentID = paymentID
	return true, nil
}

type mockSettler struct {
	calls int
}

func (m *mockSettler) Settle(context.Context, *orders.Order) { m.calls++ }

func testOrder() *orders.Order {
	return &orders.Order{
		ID:             "o1",
		BuyerID:        "buyer",
		SellerID:       "s1",
		Total:          decimal.RequireFromString("100"),
		Currency:       "INR",
		GatewayOrderID: "gw_1",
		Status:         orders.StatusCreated,
		Lines:          []orders.Line{{ListingID: "a", Title: "Sunset", Qty: 1, UnitPrice: decimal.RequireFromString("100"), Currency: "INR"}},
	}
}

func newVerifier(t *testing.T, store *mockOrderStore, settler *mockSettler) *Verifier {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return &Verifier{
		Secret:  secret,
		Orders:  store,
		Settler: settler,
		Redis:   rdb,
		Service: "test",
		Log:     zap.NewNop(),
	}
}

func TestVerifyPaymentHappyPath(t *testing.T) {
	store := &mockOrderStore{order: testOrder()}
	settler := &mockSettler{}
	v := newVerifier(t, store, settler)

	sig := Sign(secret, "gw_1", "pay_1")
	o, err := v.VerifyPayment(context.Background(), "gw_1", "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, o.Status)
	assert.Equal(t, "pay_1", o.GatewayPaymentID)
	assert.Equal(t, 1, settler.calls)
}

func TestVerifyPaymentTamperedSignature(t *testing.T) {
	store := &mockOrderStore{order: testOrder()}
	settler := &mockSettler{}
	v := newVerifier(t, store, settler)

	_, err := v.VerifyPayment(context.Background(), "gw_1", "pay_1", "deadbeef")
	assert.ErrorIs(t, err, ErrSignatureMismatch)
	assert.False(t, store.paid)
	assert.Zero(t, settler.calls)
	assert.Zero(t, store.getCalls, "a bad signature never touches the order store")
}

func TestVerifyPaymentUnknownGatewayOrder(t *testing.T) {
	store := &mockOrderStore{}
	settler := &mockSettler{}
	v := newVerifier(t, store, settler)

	sig := Sign(secret, "gw_x", "pay_1")
	_, err := v.VerifyPayment(context.Background(), "gw_x", "pay_1", sig)
	assert.ErrorIs(t, err, orders.ErrNotFound)
	assert.Zero(t, settler.calls)
}

func TestVerifyPaymentIsIdempotent(t *testing.T) {
	store := &mockOrderStore{order: testOrder()}
	settler := &mockSettler{}
	v := newVerifier(t, store, settler)
	ctx := context.Background()

	sig := Sign(secret, "gw_1", "pay_1")
	_, err := v.VerifyPayment(ctx, "gw_1", "pay_1", sig)
	require.NoError(t, err)

	o, err := v.VerifyPayment(ctx, "gw_1", "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, orders.StatusPaid, o.Status)
	assert.Equal(t, 1, settler.calls, "repeat callback must not settle twice")
}

func TestVerifyPaymentIdempotentWithoutRedis(t *testing.T) {
	// The redis shortcut is an optimization; the conditional MarkPaid
	// alone must keep settlement one-shot.
	store := &mockOrderStore{order: testOrder()}
	settler := &mockSettler{}
	v := &Verifier{Secret: secret, Orders: store, Settler: settler, Service: "test", Log: zap.NewNop()}
	ctx := context.Background()

	sig := Sign(secret, "gw_1", "pay_1")
	_, err := v.VerifyPayment(ctx, "gw_1", "pay_1", sig)
	require.NoError(t, err)
	_, err = v.VerifyPayment(ctx, "gw_1", "pay_1", sig)
	require.NoError(t, err)
	assert.Equal(t, 1, settler.calls)
}

func TestSignIsDeterministic(t *testing.T) {
	a := Sign("s", "order", "payment")
	b := Sign("s", "order", "payment")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, Sign("other", "order", "payment"))
	assert.NotEqual(t, a, Sign("s", "order", "payment2"))
}
