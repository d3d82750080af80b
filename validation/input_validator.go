package validation

import (
	"errors"
	"fmt"

	"github.com/Bala432/order-matching-engine/models"
	"github.com/Bala432/order-matching-engine/persistence"
)

const (
	MinQuantity models.Quantity = 1
	MaxQuantity models.Quantity = 1_000_000_000

	MinPrice models.Price = 1
	MaxPrice models.Price = 1_000_000_000
)

var (
	ErrInvalidOrderID   = errors.New("invalid order id")
	ErrInvalidQuantity  = errors.New("quantity out of valid range")
	ErrInvalidPrice     = errors.New("price out of valid range")
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidOrderType = errors.New("invalid order type")
	ErrInvalidTraceOp   = errors.New("invalid trace operation")
)

// ValidationConfig bounds the values accepted from external input such
// as trace files. The engine itself accepts any well-typed order; these
// limits exist so a corrupted or hand-edited trace fails loudly instead
// of producing a nonsense book.
type ValidationConfig struct {
	MinPrice    models.Price
	MaxPrice    models.Price
	MinQuantity models.Quantity
	MaxQuantity models.Quantity
}

// DefaultValidationConfig returns the default validation bounds.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MinPrice:    MinPrice,
		MaxPrice:    MaxPrice,
		MinQuantity: MinQuantity,
		MaxQuantity: MaxQuantity,
	}
}

// InputValidator checks orders, modifies and trace records against the
// configured bounds.
type InputValidator struct {
	config *ValidationConfig
}

// NewInputValidator creates a validator; a nil config uses the defaults.
func NewInputValidator(config *ValidationConfig) *InputValidator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &InputValidator{config: config}
}

// NewDefaultInputValidator creates a validator with default configuration.
func NewDefaultInputValidator() *InputValidator {
	return NewInputValidator(DefaultValidationConfig())
}

// ValidateOrderID rejects the zero id. The engine itself would accept
// it, but in trace input a zero id almost always means a missing field.
func (iv *InputValidator) ValidateOrderID(id models.OrderID) error {
	if id == 0 {
		return fmt.Errorf("%w: order id must be nonzero", ErrInvalidOrderID)
	}
	return nil
}

// ValidateQuantity validates a quantity against the configured range.
func (iv *InputValidator) ValidateQuantity(quantity models.Quantity) error {
	if quantity < iv.config.MinQuantity {
		return fmt.Errorf("%w: quantity %d is below minimum %d",
			ErrInvalidQuantity, quantity, iv.config.MinQuantity)
	}
	if quantity > iv.config.MaxQuantity {
		return fmt.Errorf("%w: quantity %d exceeds maximum %d",
			ErrInvalidQuantity, quantity, iv.config.MaxQuantity)
	}
	return nil
}

// ValidatePrice validates a price against the configured range. Market
// orders carry no meaningful price and are not checked here.
func (iv *InputValidator) ValidatePrice(price models.Price) error {
	if price < iv.config.MinPrice {
		return fmt.Errorf("%w: price %d is below minimum %d",
			ErrInvalidPrice, price, iv.config.MinPrice)
	}
	if price > iv.config.MaxPrice {
		return fmt.Errorf("%w: price %d exceeds maximum %d",
			ErrInvalidPrice, price, iv.config.MaxPrice)
	}
	return nil
}

// ValidateSide validates an order side.
func (iv *InputValidator) ValidateSide(side models.Side) error {
	if !side.Valid() {
		return fmt.Errorf("%w: side %d is not buy or sell", ErrInvalidSide, uint8(side))
	}
	return nil
}

// ValidateOrderType validates an order type.
func (iv *InputValidator) ValidateOrderType(orderType models.OrderType) error {
	if !orderType.Valid() {
		return fmt.Errorf("%w: order type %d is unknown", ErrInvalidOrderType, uint8(orderType))
	}
	return nil
}

// ValidateOrder performs full validation of an order. The price bound
// check is skipped for market orders, which hold the no-price sentinel
// until the book coerces them.
func (iv *InputValidator) ValidateOrder(order *models.Order) error {
	if err := iv.ValidateOrderID(order.ID); err != nil {
		return err
	}
	if err := iv.ValidateSide(order.Side); err != nil {
		return err
	}
	if err := iv.ValidateOrderType(order.Type); err != nil {
		return err
	}
	if err := iv.ValidateQuantity(order.InitialQuantity); err != nil {
		return err
	}
	if order.Type != models.OrderTypeMarket {
		if err := iv.ValidatePrice(order.Price); err != nil {
			return err
		}
	}
	return nil
}

// ValidateModify performs full validation of a modify request.
func (iv *InputValidator) ValidateModify(modify models.OrderModify) error {
	if err := iv.ValidateOrderID(modify.ID); err != nil {
		return err
	}
	if err := iv.ValidateSide(modify.Side); err != nil {
		return err
	}
	if err := iv.ValidateQuantity(modify.Quantity); err != nil {
		return err
	}
	return iv.ValidatePrice(modify.Price)
}

// ValidateTraceOp validates a parsed trace record before it is applied
// to a book. MATCH records carry no fields and always pass.
func (iv *InputValidator) ValidateTraceOp(op persistence.TraceOp) error {
	switch op.Op {
	case persistence.OpAdd:
		if err := iv.ValidateOrderID(op.ID); err != nil {
			return err
		}
		if err := iv.ValidateOrderType(op.Type); err != nil {
			return err
		}
		if err := iv.ValidateSide(op.Side); err != nil {
			return err
		}
		if err := iv.ValidateQuantity(op.Qty); err != nil {
			return err
		}
		if op.Type != models.OrderTypeMarket {
			return iv.ValidatePrice(op.Price)
		}
		return nil

	case persistence.OpCancel:
		return iv.ValidateOrderID(op.ID)

	case persistence.OpModify:
		if err := iv.ValidateOrderID(op.ID); err != nil {
			return err
		}
		if err := iv.ValidateSide(op.Side); err != nil {
			return err
		}
		if err := iv.ValidateQuantity(op.Qty); err != nil {
			return err
		}
		return iv.ValidatePrice(op.Price)

	case persistence.OpMatch:
		return nil

	default:
		return fmt.Errorf("%w: unknown op %q", ErrInvalidTraceOp, op.Op)
	}
}
