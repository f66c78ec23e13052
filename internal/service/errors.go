package service

import "errors"

var (
	// ErrFinalize marks a persistence failure after a confirmed payment. The
	// attempt and its confirmation stay in memory so finalization can be
	// retried without touching the gateway again.
	ErrFinalize = errors.New("order persistence failed, payment confirmation retained for retry")

	ErrBadCallbackSignature = errors.New("callback signature verification failed")
	ErrIllegalStatusChange  = errors.New("order status change not allowed")
)
