package collaborator

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"drone-delivery/internal/domain"
)

// ConditionCheck: клиент сервиса condition-check (POST /check-condition).
type ConditionCheck struct {
	c    *Client
	base string
}

func NewConditionCheck(c *Client, baseURL string) *ConditionCheck {
	return &ConditionCheck{c: c, base: strings.TrimRight(baseURL, "/")}
}

func (cc *ConditionCheck) Check(ctx context.Context, req domain.NavigationRequest) (domain.ConditionResult, error) {
	data, err := cc.c.DoEnvelope(ctx, "condition-check", http.MethodPost, cc.base+"/check-condition", req)
	if err != nil {
		return domain.ConditionResult{}, err
	}
	var res domain.ConditionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.ConditionResult{}, &domain.UpstreamError{Service: "condition-check", StatusCode: http.StatusBadGateway, Message: "malformed condition result", Err: err}
	}
	return res, nil
}

// Navigation: клиент сервиса drone-navigation (POST /navigate-drone).
type Navigation struct {
	c    *Client
	base string
}

func NewNavigation(c *Client, baseURL string) *Navigation {
	return &Navigation{c: c, base: strings.TrimRight(baseURL, "/")}
}

func (n *Navigation) Navigate(ctx context.Context, req domain.NavigationRequest) (domain.NavigationResult, error) {
	data, err := n.c.DoEnvelope(ctx, "drone-navigation", http.MethodPost, n.base+"/navigate-drone", req)
	if err != nil {
		return domain.NavigationResult{}, err
	}
	var res domain.NavigationResult
	if err := json.Unmarshal(data, &res); err != nil {
		return domain.NavigationResult{}, &domain.UpstreamError{Service: "drone-navigation", StatusCode: http.StatusBadGateway, Message: "malformed navigation result", Err: err}
	}
	return res, nil
}
