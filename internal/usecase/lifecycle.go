package usecase

import (
	"fmt"
	"slices"
	"strings"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

var orderStateTransitions = map[model.OrderState][]model.OrderState{
	model.OrderStateNew:       {model.OrderStatePreparing, model.OrderStateCanceled},
	model.OrderStatePreparing: {model.OrderStateReady, model.OrderStateCanceled},
	model.OrderStateReady:     {model.OrderStateDelivered, model.OrderStateCanceled},
}

// CanTransition reports whether an order in state from may move to state to.
// Re-entering the current state is never allowed.
func CanTransition(from, to model.OrderState) bool {
	next, ok := orderStateTransitions[from]
	if !ok {
		return false
	}
	return slices.Contains(next, to)
}

// AllowedTransitions returns the states reachable from the given one.
func AllowedTransitions(from model.OrderState) []model.OrderState {
	return slices.Clone(orderStateTransitions[from])
}

func checkTransition(from, to model.OrderState) error {
	if CanTransition(from, to) {
		return nil
	}
	if to == model.OrderStateCanceled {
		switch from {
		case model.OrderStateDelivered:
			return domainErrors.ErrCancelDelivered
		case model.OrderStateCanceled:
			return domainErrors.ErrAlreadyCanceled
		}
	}
	next := AllowedTransitions(from)
	if len(next) == 0 {
		return fmt.Errorf("%w: %s -> %s, %s is final", domainErrors.ErrInvalidTransition, from, to, from)
	}
	return fmt.Errorf("%w: %s -> %s, allowed: %s", domainErrors.ErrInvalidTransition, from, to, joinStates(next))
}

func joinStates(states []model.OrderState) string {
	names := make([]string, len(states))
	for i, s := range states {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
