package domain

import "errors"

// Business errors surfaced by the order core. Callers branch with
// errors.Is; each maps to one stable HTTP status in the handler layer.
var (
	// Validation: the request is malformed or incomplete.
	ErrEmptyCart           = errors.New("no cart lines selected")
	ErrNoShippingAddress   = errors.New("no shipping address set")
	ErrUnsupportedPayment  = errors.New("unsupported payment method")
	ErrUnknownRefundReason = errors.New("unknown refund reason")

	// Conflict: a business precondition failed at execution time.
	ErrOutOfStock         = errors.New("out of stock")
	ErrInsufficientPoints = errors.New("insufficient points")

	// State: illegal transition or acting member is not the owner.
	ErrNotOwner          = errors.New("order belongs to another member")
	ErrInvalidTransition = errors.New("status transition not allowed")

	// Not found.
	ErrMemberNotFound  = errors.New("member not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrAddressNotFound = errors.New("address not found")
	ErrItemNotFound    = errors.New("item not found")
)
