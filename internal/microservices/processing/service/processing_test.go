package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/domain"
	"drone-delivery/internal/microservices/processing/service/mocks"
)

type deps struct {
	orders    *mocks.MockOrderStore
	items     *mocks.MockItemCatalog
	stores    *mocks.MockStoreDirectory
	navigator *mocks.MockNavigator
	publisher *mocks.MockNotificationPublisher
	m         *metrics.Metrics
}

func newService(t *testing.T, opts Options) (*ProcessingService, deps) {
	ctrl := gomock.NewController(t)
	d := deps{
		orders:    mocks.NewMockOrderStore(ctrl),
		items:     mocks.NewMockItemCatalog(ctrl),
		stores:    mocks.NewMockStoreDirectory(ctrl),
		navigator: mocks.NewMockNavigator(ctrl),
		publisher: mocks.NewMockNotificationPublisher(ctrl),
		m:         metrics.NewNop(),
	}
	return NewProcessingService(d.orders, d.items, d.stores, d.navigator, d.publisher, d.m, opts), d
}

func pendingOrder(items ...domain.LineItem) domain.Order {
	return domain.Order{ID: 1, CustomerID: 1, DeliveryLocation: 111111, Status: domain.StatusPendingForDrone, Items: items}
}

func intPtr(v int) *int { return &v }

func TestProcessOrderSuccess(t *testing.T) {
	svc, d := newService(t, Options{})
	ctx := context.Background()

	d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(domain.LineItem{ItemID: 3, Quantity: 1}), nil)
	d.items.EXPECT().StoreIDForItem(gomock.Any(), 3).Return(2, nil)
	d.stores.EXPECT().Get(gomock.Any(), 2).Return(domain.Store{ID: 2, Name: "Downtown", PickupLocation: 123456}, nil)
	d.navigator.EXPECT().Navigate(gomock.Any(), domain.NavigationRequest{
		PickupLocation: 123456, StoreID: 2, DeliveryLocation: 111111, OrderID: 1,
	}).Return(domain.NavigationResult{DroneID: 4, Drone: domain.Drone{ID: 4, Status: domain.DroneOnDelivery}}, nil)
	d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusScheduled, intPtr(4)).
		Return(domain.Order{ID: 1, CustomerID: 1, Status: domain.StatusScheduled, DroneID: intPtr(4)}, nil)
	d.publisher.EXPECT().PublishNotification(gomock.Any(), domain.NotificationRequest{
		CustomerID: 1,
		OrderID:    1,
		Message:    "Your order #1 has been scheduled for delivery from Downtown. Drone 4 is on the way!",
	}).Return(nil).Times(1)

	res, err := svc.ProcessOrder(ctx, 1)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusScheduled, res.Order.Status)
	require.NotNil(t, res.Order.DroneID)
	assert.Equal(t, 4, *res.Order.DroneID)
	assert.True(t, res.NotificationEnqueued)
	assert.Equal(t, 123456, res.Store.PickupLocation)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.m.NotificationsEnqueued))
}

func TestProcessOrderWithoutItemsUsesDefaultStore(t *testing.T) {
	svc, d := newService(t, Options{})

	d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(), nil)
	d.stores.EXPECT().Get(gomock.Any(), defaultStoreID).Return(domain.Store{ID: 1, PickupLocation: 123456}, nil)
	d.navigator.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(domain.NavigationResult{DroneID: 2}, nil)
	d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusScheduled, intPtr(2)).Return(domain.Order{}, nil)
	d.publisher.EXPECT().PublishNotification(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, n domain.NotificationRequest) error {
			assert.Equal(t, "Your order #1 has been scheduled for delivery from pickup location 123456. Drone 2 is on the way!", n.Message)
			return nil
		})

	res, err := svc.ProcessOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Order.ID)
	assert.Equal(t, domain.StatusScheduled, res.Order.Status)
}

func TestProcessOrderFailureShortCircuits(t *testing.T) {
	notFound := &domain.UpstreamError{Service: "order", StatusCode: http.StatusNotFound, Message: "Order not found."}
	unsafe := &domain.UpstreamError{Service: "drone-navigation", StatusCode: http.StatusBadRequest, Message: "Weather conditions not suitable for drone flight"}
	timeout := &domain.UpstreamError{Service: "store", StatusCode: http.StatusGatewayTimeout}

	tests := []struct {
		name       string
		setup      func(d deps)
		wantStatus int
		wantStep   string
	}{
		{
			name: "order missing",
			setup: func(d deps) {
				d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{}, notFound)
			},
			wantStatus: http.StatusNotFound,
			wantStep:   "Failed to retrieve order information",
		},
		{
			name: "item lookup fails",
			setup: func(d deps) {
				d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(domain.LineItem{ItemID: 9}), nil)
				d.items.EXPECT().StoreIDForItem(gomock.Any(), 9).Return(0, &domain.UpstreamError{Service: "item", StatusCode: http.StatusInternalServerError})
			},
			wantStatus: http.StatusInternalServerError,
			wantStep:   "Failed to retrieve item information",
		},
		{
			name: "store times out",
			setup: func(d deps) {
				d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(), nil)
				d.stores.EXPECT().Get(gomock.Any(), 1).Return(domain.Store{}, timeout)
			},
			wantStatus: http.StatusGatewayTimeout,
			wantStep:   "Failed to retrieve store information",
		},
		{
			name: "navigation rejects weather",
			setup: func(d deps) {
				d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(), nil)
				d.stores.EXPECT().Get(gomock.Any(), 1).Return(domain.Store{ID: 1, PickupLocation: 654321}, nil)
				d.navigator.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(domain.NavigationResult{}, unsafe)
			},
			wantStatus: http.StatusBadRequest,
			wantStep:   "Failed to initiate drone navigation",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, d := newService(t, Options{})
			tt.setup(d)
			// UpdateStatus и PublishNotification не ожидаются: gomock упадёт при вызове

			_, err := svc.ProcessOrder(context.Background(), 1)
			require.Error(t, err)

			var se *StepError
			require.True(t, errors.As(err, &se))
			assert.Equal(t, tt.wantStep, se.Step)

			var up *domain.UpstreamError
			require.True(t, errors.As(err, &up))
			assert.Equal(t, tt.wantStatus, up.StatusCode)
		})
	}
}

func TestProcessOrderValidation(t *testing.T) {
	svc, d := newService(t, Options{})

	_, err := svc.ProcessOrder(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)

	noLocation := pendingOrder()
	noLocation.DeliveryLocation = 0
	d.orders.EXPECT().Get(gomock.Any(), 1).Return(noLocation, nil)
	_, err = svc.ProcessOrder(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestProcessOrderEnqueueFailureIsSwallowed(t *testing.T) {
	svc, d := newService(t, Options{})

	d.orders.EXPECT().Get(gomock.Any(), 1).Return(pendingOrder(), nil)
	d.stores.EXPECT().Get(gomock.Any(), 1).Return(domain.Store{ID: 1, PickupLocation: 123456}, nil)
	d.navigator.EXPECT().Navigate(gomock.Any(), gomock.Any()).Return(domain.NavigationResult{DroneID: 1}, nil)
	d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusScheduled, gomock.Any()).Return(domain.Order{}, nil)
	d.publisher.EXPECT().PublishNotification(gomock.Any(), gomock.Any()).Return(errors.New("broker unreachable"))

	res, err := svc.ProcessOrder(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.NotificationEnqueued)
	assert.Equal(t, 1.0, testutil.ToFloat64(d.m.EnqueueFailures))
}

func TestOrderDeliveredIsPermissive(t *testing.T) {
	for _, prior := range []domain.OrderStatus{domain.StatusPendingForDrone, domain.StatusScheduled, domain.StatusDelivered} {
		t.Run(string(prior), func(t *testing.T) {
			svc, d := newService(t, Options{})

			d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{ID: 1, CustomerID: 1, Status: prior, DroneID: intPtr(4)}, nil)
			d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusDelivered, intPtr(4)).Return(domain.Order{}, nil)
			d.publisher.EXPECT().PublishNotification(gomock.Any(), domain.NotificationRequest{
				CustomerID: 1,
				OrderID:    1,
				Message:    "Your order #1 has been delivered. Thank you for choosing our drone delivery service!",
			}).Return(nil)

			res, err := svc.OrderDelivered(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, DeliveredResult{OrderID: 1, Status: domain.StatusDelivered, NotificationEnqueued: true}, res)
		})
	}
}

func TestOrderDeliveredEnqueueFailure(t *testing.T) {
	svc, d := newService(t, Options{})

	d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{ID: 1, CustomerID: 1, Status: domain.StatusScheduled}, nil)
	d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusDelivered, gomock.Any()).Return(domain.Order{}, nil)
	d.publisher.EXPECT().PublishNotification(gomock.Any(), gomock.Any()).Return(errors.New("channel closed"))

	res, err := svc.OrderDelivered(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, res.NotificationEnqueued)
}

func TestTransitionGuards(t *testing.T) {
	t.Run("delivered order cannot be rescheduled", func(t *testing.T) {
		svc, d := newService(t, Options{})
		d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{ID: 1, DeliveryLocation: 1, Status: domain.StatusDelivered}, nil)

		_, err := svc.ProcessOrder(context.Background(), 1)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("strict mode rejects skipping SCHEDULED", func(t *testing.T) {
		svc, d := newService(t, Options{StrictTransitions: true})
		d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{ID: 1, Status: domain.StatusPendingForDrone}, nil)

		_, err := svc.OrderDelivered(context.Background(), 1)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})

	t.Run("strict mode rejects processing twice", func(t *testing.T) {
		svc, d := newService(t, Options{StrictTransitions: true})
		d.orders.EXPECT().Get(gomock.Any(), 1).Return(domain.Order{ID: 1, DeliveryLocation: 1, Status: domain.StatusScheduled}, nil)

		_, err := svc.ProcessOrder(context.Background(), 1)
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}

func TestSameOrderIsSerialized(t *testing.T) {
	svc, d := newService(t, Options{})

	var inFlight, maxInFlight int32
	d.orders.EXPECT().Get(gomock.Any(), 1).DoAndReturn(func(context.Context, int) (domain.Order, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			m := atomic.LoadInt32(&maxInFlight)
			if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		return domain.Order{ID: 1, CustomerID: 1, Status: domain.StatusScheduled}, nil
	}).Times(5)
	d.orders.EXPECT().UpdateStatus(gomock.Any(), 1, domain.StatusDelivered, gomock.Any()).Return(domain.Order{}, nil).Times(5)
	d.publisher.EXPECT().PublishNotification(gomock.Any(), gomock.Any()).Return(nil).Times(5)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.OrderDelivered(context.Background(), 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&maxInFlight))
	assert.Equal(t, 0, svc.locks.size())
}
