package model

import "time"

// StateHistoryEntry is an append-only audit record of one state transition.
type StateHistoryEntry struct {
	ID            int64
	OrderID       int64
	PreviousState *OrderState
	NewState      OrderState
	Reason        *string
	Actor         string
	ChangedAt     time.Time
}
