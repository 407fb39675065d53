package domain

// Event types delivered to connected kitchen displays.
const (
	EventOrderNew    = "ORDER_NEW"
	EventOrderStatus = "ORDER_STATUS_UPDATE"
	EventOrderReady  = "ORDER_READY"
	EventQueueEmpty  = "QUEUE_EMPTY"
)

// Event is the envelope broadcast over the realtime connection. Only the
// fields relevant to the type are set.
type Event struct {
	Type    string        `json:"type"`
	Order   *KitchenOrder `json:"order,omitempty"`
	ID      string        `json:"id,omitempty"`
	Status  Status        `json:"status,omitempty"`
	Message string        `json:"message,omitempty"`
}

// NewOrderEvent announces an order that just entered the kitchen.
func NewOrderEvent(order KitchenOrder) Event {
	return Event{Type: EventOrderNew, Order: &order}
}

// StatusEvent announces a manual status change. Orders that became ready get
// their own event type because displays highlight them separately.
func StatusEvent(id string, status Status) Event {
	if status == StatusReady {
		return Event{Type: EventOrderReady, ID: id, Status: status}
	}
	return Event{Type: EventOrderStatus, ID: id, Status: status}
}

// QueueEmptyEvent tells displays the backlog has drained.
func QueueEmptyEvent() Event {
	return Event{Type: EventQueueEmpty, Message: "waiting for new orders"}
}
