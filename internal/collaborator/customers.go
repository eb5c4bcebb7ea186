package collaborator

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

const customerService = "customer"

type Customers struct {
	c    *Client
	base string
}

func NewCustomers(c *Client, baseURL string) *Customers {
	return &Customers{c: c, base: strings.TrimRight(baseURL, "/")}
}

// Get: GET /customer/{id} -> {"Customer_ID","Name","Email","Mobile_No"} либо 404 {"error"}.
func (c *Customers) Get(ctx context.Context, customerID int) (domain.ContactInfo, error) {
	raw, err := c.c.Do(ctx, customerService, http.MethodGet, fmt.Sprintf("%s/customer/%d", c.base, customerID), nil)
	if err != nil {
		return domain.ContactInfo{}, err
	}
	f, err := decodeFields(unwrapData(raw))
	if err != nil {
		return domain.ContactInfo{}, &domain.UpstreamError{Service: customerService, StatusCode: http.StatusBadGateway, Message: "malformed customer payload", Err: err}
	}
	if msg, ok := f.stringField("error"); ok {
		return domain.ContactInfo{}, &domain.UpstreamError{Service: customerService, StatusCode: http.StatusNotFound, Message: msg}
	}

	var ci domain.ContactInfo
	ci.Name, _ = f.stringField("Name", "name")
	ci.Email, _ = f.stringField("Email", "email")
	ci.Phone, _ = f.stringField("Mobile_No", "mobile_no", "phone", "Phone")
	return ci, nil
}
