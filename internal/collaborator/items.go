package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const itemService = "item"

type Items struct {
	c    *Client
	base string
}

func NewItems(c *Client, baseURL string) *Items {
	return &Items{c: c, base: strings.TrimRight(baseURL, "/")}
}

// StoreIDForItem: GET /items/{id} -> {"Item_ID","Name","Store_ID","Price"}.
func (i *Items) StoreIDForItem(ctx context.Context, itemID int) (int, error) {
	raw, err := i.c.Do(ctx, itemService, http.MethodGet, fmt.Sprintf("%s/items/%d", i.base, itemID), nil)
	if err != nil {
		return 0, err
	}
	f, err := decodeFields(unwrapData(raw))
	if err != nil {
		return 0, &domain.UpstreamError{Service: itemService, StatusCode: http.StatusBadGateway, Message: "malformed item payload", Err: err}
	}
	storeID, ok := f.intField("Store_ID", "store_id", "storeId", "StoreID")
	if !ok {
		return 0, &domain.UpstreamError{Service: itemService, StatusCode: http.StatusBadGateway, Message: fmt.Sprintf("item %d has no store", itemID)}
	}
	return storeID, nil
}
