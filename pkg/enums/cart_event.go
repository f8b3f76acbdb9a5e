package enums

// CartEventKind describes the mutation that produced a cart change notification.
type CartEventKind string

const (
	CartEventLineAdded       CartEventKind = "line_added"
	CartEventQuantityChanged CartEventKind = "quantity_changed"
	CartEventLineRemoved     CartEventKind = "line_removed"
	CartEventCleared         CartEventKind = "cleared"
	CartEventCheckedOut      CartEventKind = "checked_out"
)

func (k CartEventKind) String() string {
	return string(k)
}
