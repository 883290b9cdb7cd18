package checkout

import "fmt"

// Reason says which checkout precondition failed.
type Reason string

const (
	ReasonUnauthenticated Reason = "sign in to place an order"
	ReasonEmptyCart       Reason = "cart is empty"
	ReasonMissingAddress  Reason = "delivery address is required"
	ReasonMissingPhone    Reason = "phone number is required"
	ReasonInFlight        Reason = "an identical checkout is already in progress"
	ReasonKeyReused       Reason = "idempotency key was already used for a different order"
)

// PreconditionError aborts an attempt before any side effect.
type PreconditionError struct {
	Reason Reason
}

func (e *PreconditionError) Error() string { return "checkout: " + string(e.Reason) }

// PersistenceError is the only failure that aborts an attempt after
// validation. Err is the store's error, reachable through errors.Is/As.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("checkout: save order: %v", e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

// NotificationError is reported on a successful Result, never returned.
type NotificationError struct {
	Err error
}

func (e *NotificationError) Error() string { return fmt.Sprintf("checkout: notify: %v", e.Err) }
func (e *NotificationError) Unwrap() error { return e.Err }
