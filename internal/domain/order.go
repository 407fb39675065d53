package domain

// OrderItem is one line of an order. Duplicate product names are legal and
// treated as separate lines.
type OrderItem struct {
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Note        string  `json:"note,omitempty"`
	// PreparationTimeSeconds comes from catalog data on the read path.
	// The ingestion path never sets it.
	PreparationTimeSeconds int `json:"preparationTimeSeconds,omitempty"`
}

// OrderMessage is the inbound payload published by the upstream producer.
// The producer assigns a globally unique id and createdAt before publishing.
type OrderMessage struct {
	ID           string      `json:"id"`
	CustomerName string      `json:"customerName"`
	Table        string      `json:"table"`
	Items        []OrderItem `json:"items"`
	CreatedAt    string      `json:"createdAt"`
}

// KitchenOrder is the persisted, status-tracked representation of an order.
type KitchenOrder struct {
	OrderMessage
	Status Status `json:"status"`
}

// NewKitchenOrder builds the record the ingestion path persists.
// Every order enters the kitchen as pending.
func NewKitchenOrder(msg OrderMessage) KitchenOrder {
	return KitchenOrder{OrderMessage: msg, Status: StatusPending}
}
