package collaborator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const droneService = "drone"

type Drones struct {
	c    *Client
	base string
}

func NewDrones(c *Client, baseURL string) *Drones {
	return &Drones{c: c, base: strings.TrimRight(baseURL, "/")}
}

// List: GET /drones -> {code, data:{drones:[{"Drone ID", "status"}]}}. 404 означает пустой реестр.
func (d *Drones) List(ctx context.Context) ([]domain.Drone, error) {
	data, err := d.c.DoEnvelope(ctx, droneService, http.MethodGet, d.base+"/drones", nil)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var payload struct {
		Drones []json.RawMessage `json:"drones"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &domain.UpstreamError{Service: droneService, StatusCode: http.StatusBadGateway, Message: "malformed drone list", Err: err}
	}

	drones := make([]domain.Drone, 0, len(payload.Drones))
	for _, raw := range payload.Drones {
		dr, err := parseDrone(raw)
		if err != nil {
			return nil, err
		}
		drones = append(drones, dr)
	}
	return drones, nil
}

// UpdateStatus: PUT /drone/{id} {"status"} -> {code, data: drone}.
func (d *Drones) UpdateStatus(ctx context.Context, droneID int, status domain.DroneStatus) (domain.Drone, error) {
	body := map[string]domain.DroneStatus{"status": status}
	data, err := d.c.DoEnvelope(ctx, droneService, http.MethodPut, fmt.Sprintf("%s/drone/%d", d.base, droneID), body)
	if err != nil {
		return domain.Drone{}, err
	}
	if len(data) == 0 || string(data) == "null" {
		return domain.Drone{ID: droneID, Status: status}, nil
	}
	return parseDrone(data)
}

func parseDrone(raw []byte) (domain.Drone, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Drone{}, &domain.UpstreamError{Service: droneService, StatusCode: http.StatusBadGateway, Message: "malformed drone payload", Err: err}
	}
	var dr domain.Drone
	dr.ID, _ = f.intField("Drone ID", "drone_id", "droneId", "DroneID", "id")
	status, _ := f.stringField("status", "drone_status", "Status")
	dr.Status = domain.DroneStatus(status)
	return dr, nil
}
