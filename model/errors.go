package models

import "errors"

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrNotFound            = errors.New("not found")
	ErrOrderCreationFailed = errors.New("order creation failed")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrInvalidQuantity     = errors.New("quantity must be >= 1")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrStorage             = errors.New("storage failure")
)
