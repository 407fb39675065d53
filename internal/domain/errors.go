package domain

import "errors"

var (
	// ErrValidation marks malformed or disallowed content. On the worker
	// path it routes the message to the DLQ; on the control surface it
	// becomes a 400.
	ErrValidation = errors.New("validation failed")

	// ErrDuplicateID means the store already holds an order with that id.
	ErrDuplicateID = errors.New("duplicate order id")

	// ErrNotFound means no order exists for the requested id.
	ErrNotFound = errors.New("order not found")
)
