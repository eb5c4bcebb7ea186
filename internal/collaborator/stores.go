package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const storeService = "store"

type Stores struct {
	c    *Client
	base string
}

func NewStores(c *Client, baseURL string) *Stores {
	return &Stores{c: c, base: strings.TrimRight(baseURL, "/")}
}

// Get: GET /store/{id} -> {"store_id","pickup_location"} либо 404 {"error"}.
func (s *Stores) Get(ctx context.Context, storeID int) (domain.Store, error) {
	raw, err := s.c.Do(ctx, storeService, http.MethodGet, fmt.Sprintf("%s/store/%d", s.base, storeID), nil)
	if err != nil {
		return domain.Store{}, err
	}
	f, err := decodeFields(unwrapData(raw))
	if err != nil {
		return domain.Store{}, &domain.UpstreamError{Service: storeService, StatusCode: http.StatusBadGateway, Message: "malformed store payload", Err: err}
	}
	if msg, ok := f.stringField("error"); ok {
		return domain.Store{}, &domain.UpstreamError{Service: storeService, StatusCode: http.StatusNotFound, Message: msg}
	}

	st := domain.Store{ID: storeID}
	if id, ok := f.intField("store_id", "storeId", "Store_ID"); ok {
		st.ID = id
	}
	st.Name, _ = f.stringField("store_name", "storeName", "Store_Name", "name", "Name")
	pickup, ok := f.intField("pickup_location", "pickupLocation", "pickUpLocation", "Pickup_Location")
	if !ok {
		return domain.Store{}, &domain.UpstreamError{Service: storeService, StatusCode: http.StatusBadGateway, Message: fmt.Sprintf("store %d has no pickup location", storeID)}
	}
	st.PickupLocation = pickup
	return st, nil
}

// unwrapData снимает конверт {code, data}, если сервис его использует.
func unwrapData(raw []byte) []byte {
	f, err := decodeFields(raw)
	if err != nil {
		return raw
	}
	if data, ok := f["data"]; ok && len(data) > 0 && data[0] == '{' {
		return data
	}
	return raw
}
