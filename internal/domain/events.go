package domain

import (
	"fmt"
	"strings"
	"time"
)

// NotificationRequest: тело сообщения в notification_queue.
type NotificationRequest struct {
	CustomerID int    `json:"customer_id"`
	Message    string `json:"message"`
	OrderID    int    `json:"order_id"`
}

func (n NotificationRequest) Validate() error {
	var missing []string
	if n.CustomerID == 0 {
		missing = append(missing, "customer_id")
	}
	if strings.TrimSpace(n.Message) == "" {
		missing = append(missing, "message")
	}
	if n.OrderID == 0 {
		missing = append(missing, "order_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

type DeliveryOutcome string

const (
	OutcomeProcessing DeliveryOutcome = "processing"
	OutcomeDelivered  DeliveryOutcome = "delivered"
	OutcomeFailed     DeliveryOutcome = "failed"
)

// Delivery: запись журнала доставки уведомления.
type Delivery struct {
	MessageID  string          `json:"message_id"`
	OrderID    int             `json:"order_id"`
	CustomerID int             `json:"customer_id"`
	Message    string          `json:"message"`
	SMSSent    bool            `json:"sms_sent"`
	EmailSent  bool            `json:"email_sent"`
	Outcome    DeliveryOutcome `json:"outcome"`
	Attempts   int             `json:"attempts"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}
