package domain

import "fmt"

type OrderStatus string

const (
	StatusPendingForDrone OrderStatus = "PENDING FOR DRONE"
	StatusScheduled       OrderStatus = "SCHEDULED FOR DELIVERY"
	StatusDelivered       OrderStatus = "DELIVERED"
)

// допустимые переходы: current -> next
var transitions = map[OrderStatus][]OrderStatus{
	StatusPendingForDrone: {StatusScheduled},
	StatusScheduled:       {StatusDelivered},
}

func (s OrderStatus) Terminal() bool { return s == StatusDelivered }

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns an error wrapping ErrConflict when from -> to is not in the table.
// An empty from is treated as a freshly placed order.
func ValidateTransition(from, to OrderStatus) error {
	if from == "" {
		from = StatusPendingForDrone
	}
	if from.CanTransitionTo(to) {
		return nil
	}
	return fmt.Errorf("%w: illegal order status transition %q -> %q", ErrConflict, from, to)
}
