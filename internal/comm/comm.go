package comm

import (
	"encoding/json"
	"time"
)

type WSMessage struct {
	Type     string          `json:"type"` // e.g. "sale-completed", "complete_order"
	Data     json.RawMessage `json:"data"`
	SocketId string          `json:"socketid"`
}

// SaleLine is one ordered item as shown on the kitchen ticket.
type SaleLine struct {
	Name  string `json:"name"`
	Price string `json:"price"`
}

// SaleCompleted is published on the pos.sale subject after a checkout settles
// and its sale block has been appended to the day log.
type SaleCompleted struct {
	TerminalID    string     `json:"terminal_id"`
	Timestamp     time.Time  `json:"timestamp"`
	PaymentMethod string     `json:"payment_method"`
	TotalAmount   string     `json:"total_amount"`
	Items         []SaleLine `json:"items"`
}

// KitchenOrder mirrors one pending ticket on the kitchen display.
type KitchenOrder struct {
	OrderID    string     `json:"order_id"`
	TerminalID string     `json:"terminal_id"`
	Status     string     `json:"status"` // pending | completed
	Items      []SaleLine `json:"items"`
	CreatedAt  time.Time  `json:"created_at"`
}

// OrderStatusReq toggles a ticket from a kitchen display client.
type OrderStatusReq struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

type ServiceHeartbeat struct {
	ID        string    `json:"id"` // service id
	Timestamp time.Time `json:"timestamp"`
}
