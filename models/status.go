package models

// Booking lifecycle. pending_payment rows are reaped by the expiry worker.
const (
	BookingPending   = "pending_payment"
	BookingConfirmed = "confirmed"
	BookingCompleted = "completed"
	BookingCancelled = "cancelled"
	BookingExpired   = "expired"
)

// Order lifecycle.
const (
	OrderPending    = "pending_payment"
	OrderConfirmed  = "confirmed"
	OrderProcessing = "processing"
	OrderShipped    = "shipped"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
	OrderRejected   = "rejected"
)

// Custom order request lifecycle.
const (
	CustomNew       = "new"
	CustomReviewed  = "reviewed"
	CustomQuoted    = "quoted"
	CustomConverted = "converted"
	CustomDeclined  = "declined"
)

var bookingFlow = []string{BookingPending, BookingConfirmed, BookingCompleted}
var orderFlow = []string{OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered}
var customFlow = []string{CustomNew, CustomReviewed, CustomQuoted, CustomConverted}

var bookingTerminal = map[string]bool{BookingCancelled: true, BookingExpired: true}
var orderTerminal = map[string]bool{OrderCancelled: true, OrderRejected: true}
var customTerminal = map[string]bool{CustomDeclined: true}

// canAdvance reports whether moving from "from" to "to" is legal: forward
// along the flow, or sideways onto a terminal status from any live one.
// Terminal states never transition out.
func canAdvance(flow []string, terminal map[string]bool, from, to string) bool {
	if from == to {
		return false
	}
	if terminal[from] {
		return false
	}
	if terminal[to] {
		// only live statuses can be cancelled/rejected; the final flow
		// step (delivered/completed) is also settled.
		return indexOf(flow, from) >= 0 && from != flow[len(flow)-1]
	}
	fi, ti := indexOf(flow, from), indexOf(flow, to)
	return fi >= 0 && ti >= 0 && ti > fi
}

func indexOf(flow []string, s string) int {
	for i, v := range flow {
		if v == s {
			return i
		}
	}
	return -1
}

func CanTransitionBooking(from, to string) bool {
	return canAdvance(bookingFlow, bookingTerminal, from, to)
}

func CanTransitionOrder(from, to string) bool {
	return canAdvance(orderFlow, orderTerminal, from, to)
}

func CanTransitionCustomOrder(from, to string) bool {
	return canAdvance(customFlow, customTerminal, from, to)
}

func ValidBookingStatus(s string) bool {
	return indexOf(bookingFlow, s) >= 0 || bookingTerminal[s]
}

func ValidOrderStatus(s string) bool {
	return indexOf(orderFlow, s) >= 0 || orderTerminal[s]
}

func ValidCustomOrderStatus(s string) bool {
	return indexOf(customFlow, s) >= 0 || customTerminal[s]
}
