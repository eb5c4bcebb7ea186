package service

import (
	"context"
	"fmt"
	"time"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/domain"
)

// defaultStoreID используется для тестовых заказов без позиций.
const defaultStoreID = 1

const enqueueTimeout = 5 * time.Second

// StepError помечает шаг workflow, на котором произошёл сбой.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string { return e.Step + ": " + e.Err.Error() }
func (e *StepError) Unwrap() error { return e.Err }

func step(name string, err error) error { return &StepError{Step: name, Err: err} }

type ProcessResult struct {
	Order                 domain.Order               `json:"order_details"`
	Store                 domain.Store               `json:"store_details"`
	Navigation            domain.NavigationResult    `json:"navigation_details"`
	NotificationEnqueued  bool                       `json:"notification_enqueued"`
	NotificationRequested domain.NotificationRequest `json:"notification"`
}

type DeliveredResult struct {
	OrderID              int                `json:"order_id"`
	Status               domain.OrderStatus `json:"status"`
	NotificationEnqueued bool               `json:"notification_enqueued"`
}

type ProcessingServiceInterface interface {
	ProcessOrder(ctx context.Context, orderID int) (ProcessResult, error)
	OrderDelivered(ctx context.Context, orderID int) (DeliveredResult, error)
}

type Options struct {
	// StrictTransitions проверяет каждый переход по таблице статусов.
	// false сохраняет старый контракт: order_delivered ставит DELIVERED из любого статуса.
	StrictTransitions bool
}

type ProcessingService struct {
	orders    OrderStore
	items     ItemCatalog
	stores    StoreDirectory
	navigator Navigator
	publisher NotificationPublisher

	opts  Options
	locks *orderLocks
	lg    *logger.Logger
	m     *metrics.Metrics
}

func NewProcessingService(orders OrderStore, items ItemCatalog, stores StoreDirectory, navigator Navigator,
	publisher NotificationPublisher, m *metrics.Metrics, opts Options) *ProcessingService {
	return &ProcessingService{
		orders:    orders,
		items:     items,
		stores:    stores,
		navigator: navigator,
		publisher: publisher,
		opts:      opts,
		locks:     newOrderLocks(),
		lg:        logger.New("processing-order"),
		m:         m,
	}
}

func (s *ProcessingService) ProcessOrder(ctx context.Context, orderID int) (ProcessResult, error) {
	if orderID <= 0 {
		return ProcessResult{}, fmt.Errorf("%w: Missing order_id in request", domain.ErrValidation)
	}
	unlock, err := s.locks.Lock(ctx, orderID)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("wait for order %d lock: %w", orderID, err)
	}
	defer unlock()

	// 1. Заказ
	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return ProcessResult{}, step("Failed to retrieve order information", err)
	}
	if err := s.checkTransition(order.Status, domain.StatusScheduled); err != nil {
		return ProcessResult{}, err
	}

	// 2. Поля уже нормализованы адаптером
	if order.DeliveryLocation == 0 {
		return ProcessResult{}, fmt.Errorf("%w: Order does not have a delivery location", domain.ErrValidation)
	}

	// 3. Магазин по первой позиции
	storeID := defaultStoreID
	if len(order.Items) > 0 {
		storeID, err = s.items.StoreIDForItem(ctx, order.Items[0].ItemID)
		if err != nil {
			return ProcessResult{}, step("Failed to retrieve item information", err)
		}
	}

	// 4. Точка забора
	store, err := s.stores.Get(ctx, storeID)
	if err != nil {
		return ProcessResult{}, step("Failed to retrieve store information", err)
	}

	// 5. Навигация: погода, дрон, расписание
	nav, err := s.navigator.Navigate(ctx, domain.NavigationRequest{
		PickupLocation:   store.PickupLocation,
		StoreID:          storeID,
		DeliveryLocation: order.DeliveryLocation,
		OrderID:          orderID,
	})
	if err != nil {
		return ProcessResult{}, step("Failed to initiate drone navigation", err)
	}

	// 6. Статус + дрон
	droneID := nav.DroneID
	updated, err := s.orders.UpdateStatus(ctx, orderID, domain.StatusScheduled, &droneID)
	if err != nil {
		return ProcessResult{}, step("Failed to update order status", err)
	}
	if updated.ID == 0 {
		updated = order
	}
	updated.Status = domain.StatusScheduled
	updated.DroneID = &droneID

	// 7. Уведомление: best effort
	note := domain.NotificationRequest{
		CustomerID: order.CustomerID,
		OrderID:    orderID,
		Message: fmt.Sprintf("Your order #%d has been scheduled for delivery from %s. Drone %d is on the way!",
			orderID, pickupLabel(store), droneID),
	}
	enqueued := s.enqueue(ctx, note)

	s.lg.Info("order_scheduled", map[string]any{"order_id": orderID, "drone_id": droneID, "store_id": storeID, "notification_enqueued": enqueued})
	return ProcessResult{
		Order:                 updated,
		Store:                 store,
		Navigation:            nav,
		NotificationEnqueued:  enqueued,
		NotificationRequested: note,
	}, nil
}

func (s *ProcessingService) OrderDelivered(ctx context.Context, orderID int) (DeliveredResult, error) {
	if orderID <= 0 {
		return DeliveredResult{}, fmt.Errorf("%w: Missing order_id in request", domain.ErrValidation)
	}
	unlock, err := s.locks.Lock(ctx, orderID)
	if err != nil {
		return DeliveredResult{}, fmt.Errorf("wait for order %d lock: %w", orderID, err)
	}
	defer unlock()

	order, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return DeliveredResult{}, step("Failed to retrieve order information", err)
	}
	if s.opts.StrictTransitions {
		if err := domain.ValidateTransition(order.Status, domain.StatusDelivered); err != nil {
			return DeliveredResult{}, err
		}
	}

	if _, err := s.orders.UpdateStatus(ctx, orderID, domain.StatusDelivered, order.DroneID); err != nil {
		return DeliveredResult{}, step("Failed to update order status", err)
	}

	enqueued := s.enqueue(ctx, domain.NotificationRequest{
		CustomerID: order.CustomerID,
		OrderID:    orderID,
		Message:    fmt.Sprintf("Your order #%d has been delivered. Thank you for choosing our drone delivery service!", orderID),
	})

	s.lg.Info("order_delivered", map[string]any{"order_id": orderID, "previous_status": order.Status, "notification_enqueued": enqueued})
	return DeliveredResult{OrderID: orderID, Status: domain.StatusDelivered, NotificationEnqueued: enqueued}, nil
}

// checkTransition: в нестрогом режиме блокируется только выход из терминального DELIVERED.
func (s *ProcessingService) checkTransition(from, to domain.OrderStatus) error {
	if s.opts.StrictTransitions {
		return domain.ValidateTransition(from, to)
	}
	if from.Terminal() {
		return fmt.Errorf("%w: order is already %s", domain.ErrConflict, from)
	}
	return nil
}

// enqueue никогда не роняет запрос: ошибка уходит в лог и метрику.
func (s *ProcessingService) enqueue(ctx context.Context, note domain.NotificationRequest) bool {
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), enqueueTimeout)
	defer cancel()

	if err := s.publisher.PublishNotification(pctx, note); err != nil {
		s.m.EnqueueFailures.Inc()
		s.lg.Error("notification_enqueue_failed", err, map[string]any{"order_id": note.OrderID, "customer_id": note.CustomerID})
		return false
	}
	s.m.NotificationsEnqueued.Inc()
	return true
}

func pickupLabel(st domain.Store) string {
	if st.Name != "" {
		return st.Name
	}
	return fmt.Sprintf("pickup location %d", st.PickupLocation)
}
