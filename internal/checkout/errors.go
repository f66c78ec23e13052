package checkout

import "errors"

var (
	ErrEmptyCart    = errors.New("cart is empty, nothing to check out")
	ErrInvalidDraft = errors.New("order draft failed validation")

	ErrNoSuchAttempt     = errors.New("no checkout attempt with this id")
	ErrIllegalTransition = errors.New("illegal gateway session transition")
	ErrNotConfirmed      = errors.New("gateway session has not reported success")
	ErrAlreadyProcessed  = errors.New("gateway transaction already finalized an order")
)
