package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBookingTransitions(t *testing.T) {
	assert.True(t, CanTransitionBooking(BookingPending, BookingConfirmed))
	assert.True(t, CanTransitionBooking(BookingConfirmed, BookingCompleted))
	assert.True(t, CanTransitionBooking(BookingPending, BookingCompleted), "skipping ahead is allowed")
	assert.True(t, CanTransitionBooking(BookingPending, BookingCancelled))
	assert.True(t, CanTransitionBooking(BookingConfirmed, BookingCancelled))

	assert.False(t, CanTransitionBooking(BookingConfirmed, BookingPending), "no moving back")
	assert.False(t, CanTransitionBooking(BookingCompleted, BookingCancelled), "completed is settled")
	assert.False(t, CanTransitionBooking(BookingCancelled, BookingConfirmed), "terminal states stay terminal")
	assert.False(t, CanTransitionBooking(BookingExpired, BookingConfirmed))
	assert.False(t, CanTransitionBooking(BookingPending, BookingPending))
}

func TestOrderTransitions(t *testing.T) {
	assert.True(t, CanTransitionOrder(OrderPending, OrderConfirmed))
	assert.True(t, CanTransitionOrder(OrderConfirmed, OrderProcessing))
	assert.True(t, CanTransitionOrder(OrderProcessing, OrderShipped))
	assert.True(t, CanTransitionOrder(OrderShipped, OrderDelivered))
	assert.True(t, CanTransitionOrder(OrderConfirmed, OrderShipped), "skipping ahead is allowed")
	assert.True(t, CanTransitionOrder(OrderPending, OrderRejected))
	assert.True(t, CanTransitionOrder(OrderShipped, OrderCancelled))

	assert.False(t, CanTransitionOrder(OrderShipped, OrderProcessing), "no moving back")
	assert.False(t, CanTransitionOrder(OrderDelivered, OrderCancelled), "delivered is settled")
	assert.False(t, CanTransitionOrder(OrderCancelled, OrderConfirmed))
	assert.False(t, CanTransitionOrder(OrderRejected, OrderPending))
	assert.False(t, CanTransitionOrder("garbage", OrderConfirmed))
}

func TestCustomOrderTransitions(t *testing.T) {
	assert.True(t, CanTransitionCustomOrder(CustomNew, CustomReviewed))
	assert.True(t, CanTransitionCustomOrder(CustomReviewed, CustomQuoted))
	assert.True(t, CanTransitionCustomOrder(CustomQuoted, CustomConverted))
	assert.True(t, CanTransitionCustomOrder(CustomNew, CustomDeclined))

	assert.False(t, CanTransitionCustomOrder(CustomConverted, CustomDeclined), "converted is settled")
	assert.False(t, CanTransitionCustomOrder(CustomDeclined, CustomNew))
	assert.False(t, CanTransitionCustomOrder(CustomQuoted, CustomNew))
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidOrderStatus(OrderShipped))
	assert.True(t, ValidOrderStatus(OrderRejected))
	assert.False(t, ValidOrderStatus("unknown"))

	assert.True(t, ValidBookingStatus(BookingExpired))
	assert.False(t, ValidBookingStatus(""))

	assert.True(t, ValidCustomOrderStatus(CustomQuoted))
	assert.False(t, ValidCustomOrderStatus("archived"))
}
