package models

import (
	"fmt"
	"strings"
)

type OrderStatus string
type PaymentStatus string
type PaymentMethod string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"

	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"

	PaymentMethodCOD          PaymentMethod = "cod"
	PaymentMethodCard         PaymentMethod = "card"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
)

// position in the fulfilment sequence; order status only moves forward.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusPending:    0,
	OrderStatusProcessing: 1,
	OrderStatusShipped:    2,
	OrderStatusDelivered:  3,
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	st := OrderStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := orderStatusRank[st]; !ok {
		return "", fmt.Errorf("%w: order status %q", ErrInvalidInput, s)
	}
	return st, nil
}

func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch st := PaymentStatus(strings.ToLower(strings.TrimSpace(s))); st {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("%w: payment status %q", ErrInvalidInput, s)
}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch m := PaymentMethod(strings.ToLower(strings.TrimSpace(s))); m {
	case PaymentMethodCOD, PaymentMethodCard, PaymentMethodBankTransfer:
		return m, nil
	}
	return "", fmt.Errorf("%w: payment method %q", ErrInvalidInput, s)
}

// CanTransitionTo reports whether the order may move from s to next.
// Skipping forward is allowed; staying put or going back is not.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	if !ok {
		return false
	}
	return to > from
}

// CanTransitionTo: pending may settle to paid or failed, both of which are final.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	return s == PaymentStatusPending && (next == PaymentStatusPaid || next == PaymentStatusFailed)
}

// Apply validates u against the current statuses of o and writes the
// accepted changes into o.
func (u StatusUpdate) Apply(o *Order) error {
	if u.OrderStatus == nil && u.PaymentStatus == nil && u.TrackingNumber == nil {
		return fmt.Errorf("%w: empty status update", ErrInvalidInput)
	}
	if u.OrderStatus != nil {
		if !o.OrderStatus.CanTransitionTo(*u.OrderStatus) {
			return fmt.Errorf("%w: order %s -> %s", ErrInvalidTransition, o.OrderStatus, *u.OrderStatus)
		}
		o.OrderStatus = *u.OrderStatus
	}
	if u.PaymentStatus != nil {
		if !o.PaymentStatus.CanTransitionTo(*u.PaymentStatus) {
			return fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, o.PaymentStatus, *u.PaymentStatus)
		}
		o.PaymentStatus = *u.PaymentStatus
	}
	if u.TrackingNumber != nil {
		o.TrackingNumber = strings.TrimSpace(*u.TrackingNumber)
	}
	return nil
}
