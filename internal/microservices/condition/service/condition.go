package service

import (
	"context"
	"fmt"

	"drone-delivery/internal/common/logger"
	"drone-delivery/internal/common/metrics"
	"drone-delivery/internal/domain"
)

type WeatherProvider interface {
	Check(ctx context.Context, location int) (domain.Weather, error)
}

type DroneRegistry interface {
	List(ctx context.Context) ([]domain.Drone, error)
	UpdateStatus(ctx context.Context, droneID int, status domain.DroneStatus) (domain.Drone, error)
}

type ScheduleCreator interface {
	Create(ctx context.Context, req domain.ScheduleRequest) (domain.Schedule, error)
}

type ConditionServiceInterface interface {
	Check(ctx context.Context, req domain.NavigationRequest) (domain.ConditionResult, error)
}

type ConditionService struct {
	weather   WeatherProvider
	drones    DroneRegistry
	schedules ScheduleCreator
	lg        *logger.Logger
	m         *metrics.Metrics
}

func NewConditionService(weather WeatherProvider, drones DroneRegistry, schedules ScheduleCreator, m *metrics.Metrics) *ConditionService {
	return &ConditionService{
		weather:   weather,
		drones:    drones,
		schedules: schedules,
		lg:        logger.New("condition-check"),
		m:         m,
	}
}

func (s *ConditionService) Check(ctx context.Context, req domain.NavigationRequest) (domain.ConditionResult, error) {
	if err := req.Validate(); err != nil {
		return domain.ConditionResult{}, err
	}

	// 1-2. Погода. Ошибка провайдера не блокирует цепочку: считаем, что летать можно.
	weather := s.checkWeather(ctx, req.PickupLocation)
	if !weather.IsSafe {
		s.lg.Info("unsafe_weather", map[string]any{"order_id": req.OrderID, "location": weather.Location, "condition": weather.Condition})
		return domain.ConditionResult{}, &domain.UnsafeConditionsError{Weather: weather}
	}

	// 3-4. Дрон
	drone, err := s.pickDrone(ctx, req.OrderID)
	if err != nil {
		return domain.ConditionResult{}, err
	}

	// 5. Расписание
	schedule, err := s.schedules.Create(ctx, domain.ScheduleRequest{
		DroneID:          drone.ID,
		StoreID:          req.StoreID,
		OrderID:          req.OrderID,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		WeatherCheck:     true,
	})
	if err != nil {
		return domain.ConditionResult{}, fmt.Errorf("create schedule: %w", err)
	}

	s.lg.Info("schedule_created", map[string]any{"order_id": req.OrderID, "drone_id": drone.ID, "schedule_id": schedule.ID})
	return domain.ConditionResult{Schedule: schedule, Weather: weather, Drone: drone}, nil
}

func (s *ConditionService) checkWeather(ctx context.Context, location int) domain.Weather {
	w, err := s.weather.Check(ctx, location)
	if err != nil {
		s.lg.Warn("weather_fallback", map[string]any{"location": location, "error": err.Error()})
		s.m.WeatherFallbacks.Inc()
		return domain.Weather{Location: location, Condition: "unknown", IsSafe: true, Fallback: true}
	}
	return w
}

// pickDrone берёт первый Available. Если свободных нет, первый дрон из списка
// принудительно переводится в Available (поведение демо-стенда).
func (s *ConditionService) pickDrone(ctx context.Context, orderID int) (domain.Drone, error) {
	drones, err := s.drones.List(ctx)
	if err != nil {
		return domain.Drone{}, fmt.Errorf("list drones: %w", err)
	}
	for _, d := range drones {
		if d.Available() {
			return d, nil
		}
	}
	if len(drones) == 0 {
		return domain.Drone{}, domain.ErrNoAvailableDrones
	}

	first := drones[0]
	forced, err := s.drones.UpdateStatus(ctx, first.ID, domain.DroneAvailable)
	if err != nil {
		s.lg.Error("force_drone_available_failed", err, map[string]any{"drone_id": first.ID, "order_id": orderID})
		return domain.Drone{}, domain.ErrNoAvailableDrones
	}
	if forced.ID == 0 {
		forced.ID = first.ID
	}
	forced.Status = domain.DroneAvailable
	s.m.DronesForced.Inc()
	s.lg.Warn("drone_forced_available", map[string]any{"drone_id": forced.ID, "previous_status": first.Status, "order_id": orderID})
	return forced, nil
}
