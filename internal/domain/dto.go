package domain

import "fmt"

// NavigationRequest: тело /check-condition и /navigate-drone.
type NavigationRequest struct {
	PickupLocation   int `json:"pickUpLocation"`
	StoreID          int `json:"storeId"`
	DeliveryLocation int `json:"deliveryLocation"`
	OrderID          int `json:"order_id"`
}

func (r NavigationRequest) Validate() error {
	switch {
	case r.PickupLocation == 0:
		return fmt.Errorf("%w: pickUpLocation is required", ErrValidation)
	case r.DeliveryLocation == 0:
		return fmt.Errorf("%w: deliveryLocation is required", ErrValidation)
	case r.OrderID == 0:
		return fmt.Errorf("%w: order_id is required", ErrValidation)
	}
	return nil
}

type ConditionResult struct {
	Schedule Schedule `json:"schedule"`
	Weather  Weather  `json:"weather"`
	Drone    Drone    `json:"drone"`
}

type NavigationResult struct {
	ConditionCheck ConditionResult `json:"condition_check"`
	Drone          Drone           `json:"drone_status"`
	DroneID        int             `json:"drone_id"`
	Message        string          `json:"navigation_message"`
}
