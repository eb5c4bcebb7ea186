package collaborator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"drone-delivery/internal/domain"
)

// Client: общий HTTP-вызов коллабораторов с дедлайном на каждый запрос.
type Client struct {
	http    *http.Client
	timeout time.Duration
}

func NewClient(hc *http.Client, timeout time.Duration) *Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{http: hc, timeout: timeout}
}

// envelope покрывает оба стиля ответов: {code,message,data} и {"error": ...}.
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

// Do выполняет запрос и возвращает сырое тело 2xx-ответа. Любой другой исход: *domain.UpstreamError.
func (c *Client) Do(ctx context.Context, service, method, url string, body any) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s: marshal request: %w", service, err)
		}
		rdr = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", service, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(service, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, transportError(service, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.UpstreamError{
			Service:    service,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(raw, resp.StatusCode),
		}
	}
	return raw, nil
}

// DoEnvelope: для сервисов, отвечающих {code, data}; возвращает data.
// Некоторые сервисы кладут ошибку в code при статусе 200, это тоже ошибка.
func (c *Client) DoEnvelope(ctx context.Context, service, method, url string, body any) (json.RawMessage, error) {
	raw, err := c.Do(ctx, service, method, url, body)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &domain.UpstreamError{Service: service, StatusCode: http.StatusBadGateway, Message: "malformed response", Err: err}
	}
	if env.Code >= 300 {
		return nil, &domain.UpstreamError{Service: service, StatusCode: env.Code, Message: firstNonEmpty(env.Message, env.Error)}
	}
	return env.Data, nil
}

func transportError(service string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &domain.UpstreamError{
			Service: service, StatusCode: http.StatusGatewayTimeout,
			Message: service + " did not respond in time", Err: err,
		}
	}
	return &domain.UpstreamError{
		Service: service, StatusCode: http.StatusServiceUnavailable,
		Message: service + " is unreachable", Err: err,
	}
}

func upstreamMessage(raw []byte, status int) string {
	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil {
		if msg := firstNonEmpty(env.Message, env.Error); msg != "" {
			return msg
		}
	}
	if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 256 {
		return s
	}
	return http.StatusText(status)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
