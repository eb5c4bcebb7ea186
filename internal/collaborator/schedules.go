package collaborator

import (
	"context"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const schedulingService = "scheduling"

type Schedules struct {
	c    *Client
	base string
}

func NewSchedules(c *Client, baseURL string) *Schedules {
	return &Schedules{c: c, base: strings.TrimRight(baseURL, "/")}
}

// Create: POST /schedule -> 201 {code, data:{schedule_id, schedule_name, schedule_date, ...}}.
func (s *Schedules) Create(ctx context.Context, req domain.ScheduleRequest) (domain.Schedule, error) {
	data, err := s.c.DoEnvelope(ctx, schedulingService, http.MethodPost, s.base+"/schedule", req)
	if err != nil {
		return domain.Schedule{}, err
	}

	sch := domain.Schedule{
		DroneID:          req.DroneID,
		StoreID:          req.StoreID,
		OrderID:          req.OrderID,
		PickupLocation:   req.PickupLocation,
		DeliveryLocation: req.DeliveryLocation,
		WeatherCheck:     req.WeatherCheck,
	}
	if len(data) == 0 || string(data) == "null" {
		return sch, nil
	}

	f, err := decodeFields(data)
	if err != nil {
		return domain.Schedule{}, &domain.UpstreamError{Service: schedulingService, StatusCode: http.StatusBadGateway, Message: "malformed schedule payload", Err: err}
	}
	sch.ID, _ = f.intField("schedule_id", "scheduleId", "Schedule_ID")
	sch.Name, _ = f.stringField("schedule_name", "scheduleName")
	sch.Date, _ = f.stringField("schedule_date", "scheduleDateTime")
	if v, ok := f.intField("drone_id", "droneID"); ok {
		sch.DroneID = v
	}
	if v, ok := f.intField("pickUpLocation", "pickup_location"); ok {
		sch.PickupLocation = v
	}
	if v, ok := f.intField("deliveryLocation", "delivery_location"); ok {
		sch.DeliveryLocation = v
	}
	if v, ok := f.boolField("weatherCheck", "weather_check"); ok {
		sch.WeatherCheck = v
	}
	return sch, nil
}
