package usecase

import (
	"fmt"
	"strings"
	"unicode/utf8"

	domainErrors "github.com/polkiloo/pizzeria/internal/domain/errors"
	"github.com/polkiloo/pizzeria/internal/domain/model"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
	maxNotesLength   = 500
	maxItemQuantity  = 99
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domainErrors.ErrValidation, fmt.Sprintf(format, args...))
}

// NormalizeRemoved trims names, drops empty entries and removes duplicates preserving order.
func NormalizeRemoved(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ValidateItemSpec checks the structural rules of one item and returns its normalized form.
func ValidateItemSpec(spec model.ItemSpec) (model.ItemSpec, error) {
	if spec.PizzaID <= 0 {
		return spec, validationError("pizza id must be positive")
	}
	if spec.Quantity < 1 || spec.Quantity > maxItemQuantity {
		return spec, validationError("quantity must be between 1 and %d", maxItemQuantity)
	}

	if spec.HalfAndHalf {
		if spec.SecondPizzaID == nil {
			return spec, validationError("half-and-half item requires a second pizza")
		}
		if *spec.SecondPizzaID <= 0 {
			return spec, validationError("second pizza id must be positive")
		}
	} else if spec.SecondPizzaID != nil || len(spec.SecondExtras) > 0 || len(spec.SecondRemoved) > 0 ||
		len(spec.BothExtras) > 0 || len(spec.BothRemoved) > 0 {
		return spec, validationError("second-half data is only allowed on half-and-half items")
	}

	for _, id := range spec.ExtraIDs() {
		if id <= 0 {
			return spec, validationError("extra id must be positive")
		}
	}

	spec.Removed = NormalizeRemoved(spec.Removed)
	spec.SecondRemoved = NormalizeRemoved(spec.SecondRemoved)
	spec.BothRemoved = NormalizeRemoved(spec.BothRemoved)

	return spec, nil
}

// ValidateCreateOrder checks a create command and returns a normalized copy.
func ValidateCreateOrder(cmd CreateOrderCommand) (CreateOrderCommand, error) {
	if len(cmd.Items) == 0 {
		return cmd, validationError("order must contain at least one item")
	}

	items := make([]model.ItemSpec, len(cmd.Items))
	for i, spec := range cmd.Items {
		normalized, err := ValidateItemSpec(spec)
		if err != nil {
			return cmd, fmt.Errorf("item %d: %w", i+1, err)
		}
		items[i] = normalized
	}
	cmd.Items = items

	if cmd.CustomerID != nil && cmd.Customer != nil {
		return cmd, validationError("provide either customer id or customer data, not both")
	}
	if cmd.CustomerID != nil && *cmd.CustomerID <= 0 {
		return cmd, validationError("customer id must be positive")
	}
	if cmd.Customer != nil {
		customer := *cmd.Customer
		customer.Name = strings.TrimSpace(customer.Name)
		customer.Phone = strings.TrimSpace(customer.Phone)
		if customer.Name == "" || customer.Phone == "" {
			return cmd, validationError("customer name and phone are required")
		}
		cmd.Customer = &customer
	}

	if cmd.Discount.IsNegative() {
		return cmd, validationError("discount must not be negative")
	}

	if cmd.PaymentMethod == "" {
		cmd.PaymentMethod = model.PaymentCash
	}
	if !cmd.PaymentMethod.Valid() {
		return cmd, validationError("unsupported payment method %q", cmd.PaymentMethod)
	}

	if err := validateNotes(cmd.Notes); err != nil {
		return cmd, err
	}
	if err := validateEstimatedMinutes(cmd.EstimatedMinutes); err != nil {
		return cmd, err
	}

	return cmd, nil
}

// ValidateUpdateOrder checks a partial update command.
func ValidateUpdateOrder(cmd UpdateOrderCommand) error {
	if cmd.PaymentMethod == nil && cmd.Notes == nil && cmd.EstimatedMinutes == nil &&
		cmd.Discount == nil && cmd.CustomerID == nil {
		return validationError("nothing to update")
	}
	if cmd.PaymentMethod != nil && !cmd.PaymentMethod.Valid() {
		return validationError("unsupported payment method %q", *cmd.PaymentMethod)
	}
	if cmd.Discount != nil && cmd.Discount.IsNegative() {
		return validationError("discount must not be negative")
	}
	if cmd.CustomerID != nil && *cmd.CustomerID <= 0 {
		return validationError("customer id must be positive")
	}
	if err := validateNotes(cmd.Notes); err != nil {
		return err
	}
	return validateEstimatedMinutes(cmd.EstimatedMinutes)
}

// NormalizeFilter applies default pagination and checks ranges.
func NormalizeFilter(filter model.OrderFilter) (model.OrderFilter, error) {
	if filter.State != nil && !filter.State.Valid() {
		return filter, validationError("unknown state %q", *filter.State)
	}
	if filter.Limit == 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit < 1 || filter.Limit > maxListLimit {
		return filter, validationError("limit must be between 1 and %d", maxListLimit)
	}
	if filter.Offset < 0 {
		return filter, validationError("offset must not be negative")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return filter, validationError("from must not be after to")
	}
	return filter, nil
}

func validateNotes(notes *string) error {
	if notes != nil && utf8.RuneCountInString(*notes) > maxNotesLength {
		return validationError("notes must not exceed %d characters", maxNotesLength)
	}
	return nil
}

func validateEstimatedMinutes(minutes *int) error {
	if minutes != nil && *minutes < 0 {
		return validationError("estimated minutes must not be negative")
	}
	return nil
}
