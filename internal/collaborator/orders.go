package collaborator

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const orderService = "order"

type Orders struct {
	c    *Client
	base string
}

func NewOrders(c *Client, baseURL string) *Orders {
	return &Orders{c: c, base: strings.TrimRight(baseURL, "/")}
}

func (o *Orders) Get(ctx context.Context, orderID int) (domain.Order, error) {
	data, err := o.c.DoEnvelope(ctx, orderService, http.MethodGet, fmt.Sprintf("%s/order/%d", o.base, orderID), nil)
	if err != nil {
		return domain.Order{}, err
	}
	return parseOrder(data)
}

type orderUpdate struct {
	Status  domain.OrderStatus `json:"status"`
	DroneID *int               `json:"drone_id,omitempty"`
}

func (o *Orders) UpdateStatus(ctx context.Context, orderID int, status domain.OrderStatus, droneID *int) (domain.Order, error) {
	data, err := o.c.DoEnvelope(ctx, orderService, http.MethodPut,
		fmt.Sprintf("%s/order/%d", o.base, orderID), orderUpdate{Status: status, DroneID: droneID})
	if err != nil {
		return domain.Order{}, err
	}
	if len(data) == 0 || string(data) == "null" {
		return domain.Order{ID: orderID, Status: status, DroneID: droneID}, nil
	}
	return parseOrder(data)
}

// parseOrder приводит все исторические варианты имён полей к domain.Order.
func parseOrder(raw []byte) (domain.Order, error) {
	f, err := decodeFields(raw)
	if err != nil {
		return domain.Order{}, &domain.UpstreamError{Service: orderService, StatusCode: http.StatusBadGateway, Message: "malformed order payload", Err: err}
	}

	var o domain.Order
	o.ID, _ = f.intField("order_id", "orderId", "OrderID", "Order_ID")
	o.CustomerID, _ = f.intField("customer_id", "customerId", "CustomerID", "Customer_ID")
	o.DeliveryLocation, _ = f.intField("deliveryLocation", "DeliveryLocation", "delivery_location", "Delivery_Location")
	o.TotalAmount, _ = f.floatField("total_amount", "totalAmount", "TotalAmount")
	o.OrderDate, _ = f.stringField("order_date", "orderDate", "OrderDate")
	o.PaymentStatus, _ = f.stringField("payment_status", "paymentStatus", "PaymentStatus")
	if s, ok := f.stringField("order_status", "orderStatus", "OrderStatus", "status"); ok {
		o.Status = domain.OrderStatus(s)
	}
	if id, ok := f.intField("drone_id", "droneId", "DroneID", "Drone_ID"); ok {
		o.DroneID = &id
	}

	for _, key := range []string{"order_item", "orderItems", "OrderItems", "items"} {
		rawItems, ok := f[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(rawItems, &items); err != nil {
			continue
		}
		for _, it := range items {
			itf, err := decodeFields(it)
			if err != nil {
				continue
			}
			var li domain.LineItem
			li.ItemID, _ = itf.intField("item_id", "itemId", "ItemID", "Item_ID")
			li.Quantity, _ = itf.intField("quantity", "Quantity")
			o.Items = append(o.Items, li)
		}
		break
	}
	return o, nil
}
