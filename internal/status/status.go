package status

import "errors"

// Business outcomes. These are expected results returned to the caller and
// are never logged as system errors.
var (
	ErrCategoryNotFound  = errors.New("inventory: ticket category not found")
	ErrCategoryInactive  = errors.New("inventory: ticket category is inactive")
	ErrSoldOut           = errors.New("inventory: tickets sold out")
	ErrCapacityBelowSold = errors.New("inventory: capacity below tickets already sold")
	ErrTicketNotFound    = errors.New("ticket: ticket not found")
)

// ErrIssuanceFailed wraps a downstream persistence failure during ticket
// creation. The coordinator releases the reservation before returning it,
// so the caller can retry safely.
var ErrIssuanceFailed = errors.New("ticket: issuance failed")
