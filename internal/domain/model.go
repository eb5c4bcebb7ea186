package domain

type LineItem struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

// Order: каноническое представление заказа после нормализации в адаптере.
type Order struct {
	ID               int         `json:"order_id"`
	CustomerID       int         `json:"customer_id"`
	OrderDate        string      `json:"order_date,omitempty"`
	DroneID          *int        `json:"drone_id"`
	TotalAmount      float64     `json:"total_amount"`
	PaymentStatus    string      `json:"payment_status,omitempty"`
	DeliveryLocation int         `json:"delivery_location"`
	Status           OrderStatus `json:"order_status"`
	Items            []LineItem  `json:"order_item"`
}

type Store struct {
	ID             int    `json:"store_id"`
	Name           string `json:"store_name,omitempty"`
	PickupLocation int    `json:"pickup_location"`
}

type DroneStatus string

const (
	DroneAvailable  DroneStatus = "Available"
	DroneOnDelivery DroneStatus = "On Delivery"
)

type Drone struct {
	ID     int         `json:"drone_id"`
	Status DroneStatus `json:"status"`
}

func (d Drone) Available() bool { return d.Status == DroneAvailable }

type Weather struct {
	Location  int    `json:"location"`
	Condition string `json:"weather_condition"`
	IsSafe    bool   `json:"is_safe"`
	Fallback  bool   `json:"fallback,omitempty"`
}

type ScheduleRequest struct {
	DroneID          int  `json:"drone_id"`
	StoreID          int  `json:"store_id"`
	OrderID          int  `json:"order_id"`
	PickupLocation   int  `json:"pickUpLocation"`
	DeliveryLocation int  `json:"deliveryLocation"`
	WeatherCheck     bool `json:"weatherCheck"`
}

// Schedule неизменяем: создаётся один раз на заказ.
type Schedule struct {
	ID               int    `json:"schedule_id"`
	Name             string `json:"schedule_name,omitempty"`
	Date             string `json:"schedule_date,omitempty"`
	DroneID          int    `json:"drone_id"`
	StoreID          int    `json:"store_id,omitempty"`
	OrderID          int    `json:"order_id,omitempty"`
	PickupLocation   int    `json:"pickUpLocation"`
	DeliveryLocation int    `json:"deliveryLocation"`
	WeatherCheck     bool   `json:"weatherCheck"`
}

type ContactInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// DefaultContact подставляется, когда справочник клиентов недоступен.
var DefaultContact = ContactInfo{Name: "Unknown", Phone: "00000000", Email: "unknown@email.com"}

func (c ContactInfo) IsPlaceholder() bool { return c == DefaultContact }
