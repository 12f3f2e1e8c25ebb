package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderPending, OrderConfirmed, true},
		{OrderConfirmed, OrderProcessing, true},
		{OrderProcessing, OrderShipping, true},
		{OrderShipping, OrderDelivered, true},
		{OrderPending, OrderShipping, false},
		{OrderShipping, OrderConfirmed, false},
		{OrderPending, OrderCancelled, true},
		{OrderProcessing, OrderCancelled, true},
		{OrderShipping, OrderCancelled, false},
		{OrderDelivered, OrderCancelled, false},
		{OrderCancelled, OrderPending, false},
		{OrderPending, OrderPending, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.ok, c.from.CanTransitionTo(c.to), "%s -> %s", c.from, c.to)
	}
}

func TestCustomerCancelWindow(t *testing.T) {
	assert.True(t, OrderPending.CanCustomerCancel())
	assert.True(t, OrderConfirmed.CanCustomerCancel())
	assert.False(t, OrderProcessing.CanCustomerCancel())
	assert.False(t, OrderDelivered.CanCustomerCancel())
}

func TestSummarize(t *testing.T) {
	s := Summarize([]Review{{Rating: 5}, {Rating: 4}, {Rating: 5}, {Rating: 1}, {Rating: 9}})

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, []int{1, 0, 0, 1, 2}, s.Distribution)
	assert.InDelta(t, 3.75, s.Average, 0.0001)

	empty := Summarize(nil)
	assert.Zero(t, empty.Average)
	assert.Len(t, empty.Distribution, 5)
}

func TestParseID(t *testing.T) {
	id := NewID()
	parsed, err := ParseID(" " + id.String() + " ")
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("abc")
	assert.Error(t, err)
}

func TestProductHelpers(t *testing.T) {
	p := Product{Price: 150000, OriginalPrice: 200000, Images: []string{"a.jpg", "b.jpg"}}
	assert.Equal(t, 25, p.DiscountPercent())
	assert.Equal(t, "a.jpg", p.FirstImage())
	assert.False(t, p.InStock())

	assert.Zero(t, Product{Price: 100}.DiscountPercent())
}

func TestOrderReviewable(t *testing.T) {
	cases := []struct {
		status  OrderStatus
		payment PaymentStatus
		want    bool
	}{
		{OrderDelivered, PaymentPaid, true},
		{OrderPending, PaymentPaid, true},
		{OrderDelivered, PaymentPending, true},
		{OrderShipping, PaymentPending, false},
		{OrderCancelled, PaymentPaid, false},
		{OrderDelivered, PaymentRefunded, false},
	}
	for _, c := range cases {
		o := Order{Status: c.status, PaymentStatus: c.payment}
		assert.Equal(t, c.want, o.Reviewable(), "%s/%s", c.status, c.payment)
	}
}
