package service

import (
	"context"
	"fmt"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/domain"
)

// ConditionChecker: координатор погоды и дронов, локальный или удалённый.
type ConditionChecker interface {
	Check(ctx context.Context, req domain.NavigationRequest) (domain.ConditionResult, error)
}

type DroneStatusUpdater interface {
	UpdateStatus(ctx context.Context, droneID int, status domain.DroneStatus) (domain.Drone, error)
}

type NavigationService struct {
	conditions ConditionChecker
	drones     DroneStatusUpdater
	lg         *logger.Logger
}

func NewNavigationService(conditions ConditionChecker, drones DroneStatusUpdater) *NavigationService {
	return &NavigationService{conditions: conditions, drones: drones, lg: logger.New("drone-navigation")}
}

// Navigate проверяет условия, получает расписание и отправляет дрон в путь.
func (s *NavigationService) Navigate(ctx context.Context, req domain.NavigationRequest) (domain.NavigationResult, error) {
	check, err := s.conditions.Check(ctx, req)
	if err != nil {
		return domain.NavigationResult{}, err
	}

	droneID := check.Drone.ID
	if droneID == 0 {
		droneID = check.Schedule.DroneID
	}

	drone, err := s.drones.UpdateStatus(ctx, droneID, domain.DroneOnDelivery)
	if err != nil {
		return domain.NavigationResult{}, fmt.Errorf("set drone %d on delivery: %w", droneID, err)
	}
	if drone.ID == 0 {
		drone.ID = droneID
	}

	s.lg.Info("drone_dispatched", map[string]any{"order_id": req.OrderID, "drone_id": droneID, "schedule_id": check.Schedule.ID})
	return domain.NavigationResult{
		ConditionCheck: check,
		Drone:          drone,
		DroneID:        droneID,
		Message:        fmt.Sprintf("Drone %d is navigating from %d to %d", droneID, req.PickupLocation, req.DeliveryLocation),
	}, nil
}
