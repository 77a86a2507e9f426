package order

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the lifecycle state of an order
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// MaxNoteLength bounds the free-text order note (in characters)
const MaxNoteLength = 500

// TotalTolerance is the drift allowed between a stored total and its lines
// before a read logs a mismatch
var TotalTolerance = decimal.NewFromFloat(0.01)

var statusRank = map[Status]int{
	StatusPending:   1,
	StatusConfirmed: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// IsValid checks if the status is a known order status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// String returns the string representation of Status
func (s Status) String() string {
	return string(s)
}

// CanTransitionTo allows forward moves along pending → confirmed → shipped →
// delivered and a move to cancelled from any non-terminal state
func (s Status) CanTransitionTo(target Status) bool {
	if !s.IsValid() || !target.IsValid() || s.IsTerminal() {
		return false
	}
	if target == StatusCancelled {
		return true
	}
	return statusRank[target] > statusRank[s]
}

// ShippingAddress is where an order is delivered. DetailAddress may be empty.
type ShippingAddress struct {
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	PostalCode    string `json:"postal_code"`
	Address       string `json:"address"`
	DetailAddress string `json:"detail_address"`
}

var phonePattern = regexp.MustCompile(`^[0-9-]+$`)

// Normalize trims surrounding whitespace from every field
func (a ShippingAddress) Normalize() ShippingAddress {
	return ShippingAddress{
		Name:          strings.TrimSpace(a.Name),
		Phone:         strings.TrimSpace(a.Phone),
		PostalCode:    strings.TrimSpace(a.PostalCode),
		Address:       strings.TrimSpace(a.Address),
		DetailAddress: strings.TrimSpace(a.DetailAddress),
	}
}

// Validate checks required fields and length limits
func (a ShippingAddress) Validate() error {
	switch {
	case a.Name == "":
		return newAddressError("Recipient name is required")
	case utf8.RuneCountInString(a.Name) > 50:
		return newAddressError("Recipient name cannot exceed 50 characters")
	case a.Phone == "":
		return newAddressError("Phone number is required")
	case !phonePattern.MatchString(a.Phone):
		return newAddressError("Phone number may contain only digits and hyphens")
	case a.PostalCode == "":
		return newAddressError("Postal code is required")
	case a.Address == "":
		return newAddressError("Address is required")
	case utf8.RuneCountInString(a.Address) > 200:
		return newAddressError("Address cannot exceed 200 characters")
	case utf8.RuneCountInString(a.DetailAddress) > 100:
		return newAddressError("Detail address cannot exceed 100 characters")
	}
	return nil
}

func newAddressError(msg string) error {
	return shared.NewDomainError("INVALID_SHIPPING_ADDRESS", msg)
}

// Line is an immutable snapshot of a product at order time
type Line struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
	CreatedAt   time.Time
}

// Amount is price times quantity
func (l Line) Amount() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineDraft carries the product data captured for a new line
type LineDraft struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	Price       decimal.Decimal
}

// Order is the aggregate root for a placed order
type Order struct {
	shared.AggregateRoot
	OwnerID         string
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress ShippingAddress
	Note            string
	Lines           []Line
}

// NewOrder builds a pending order from line drafts, snapshotting names and
// prices and deriving the total
func NewOrder(ownerID string, address ShippingAddress, note string, drafts []LineDraft) (*Order, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrInvalidOwner
	}
	address = address.Normalize()
	if err := address.Validate(); err != nil {
		return nil, err
	}
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > MaxNoteLength {
		return nil, shared.NewDomainError("INVALID_ORDER_NOTE", "Order note cannot exceed 500 characters")
	}
	if len(drafts) == 0 {
		return nil, ErrEmptyCart
	}

	o := &Order{
		AggregateRoot:   shared.NewAggregateRoot(),
		OwnerID:         ownerID,
		Status:          StatusPending,
		ShippingAddress: address,
		Note:            note,
		Lines:           make([]Line, 0, len(drafts)),
	}

	// Lines share the order timestamp plus a per-line offset so that
	// created_at ascending preserves cart order.
	for i, d := range drafts {
		if d.ProductID == uuid.Nil {
			return nil, shared.NewDomainError("INVALID_PRODUCT", "Product ID cannot be empty")
		}
		if d.ProductName == "" {
			return nil, shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
		}
		if d.Quantity <= 0 {
			return nil, shared.NewDomainError("INVALID_QUANTITY", "Quantity must be positive")
		}
		if d.Price.IsNegative() {
			return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
		}
		o.Lines = append(o.Lines, Line{
			ID:          uuid.New(),
			OrderID:     o.ID,
			ProductID:   d.ProductID,
			ProductName: d.ProductName,
			Quantity:    d.Quantity,
			Price:       d.Price,
			CreatedAt:   o.CreatedAt.Add(time.Duration(i) * time.Microsecond),
		})
	}
	o.TotalAmount = o.LinesTotal()

	return o, nil
}

// LinesTotal sums price × quantity over the loaded lines
func (o *Order) LinesTotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range o.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

// VerifyTotal requires the stored total to equal the line sum exactly
func (o *Order) VerifyTotal() error {
	if !o.TotalAmount.Equal(o.LinesTotal()) {
		return ErrTotalMismatch
	}
	return nil
}

// TotalDrift returns |stored total - line sum| and whether it exceeds
// TotalTolerance
func (o *Order) TotalDrift() (decimal.Decimal, bool) {
	drift := o.TotalAmount.Sub(o.LinesTotal()).Abs()
	return drift, drift.GreaterThan(TotalTolerance)
}

// WithoutLines returns a shallow copy with no lines attached
func (o *Order) WithoutLines() *Order {
	c := *o
	c.Lines = nil
	return &c
}

// IsOwnedBy reports whether ownerID placed the order
func (o *Order) IsOwnedBy(ownerID string) bool {
	return ownerID != "" && o.OwnerID == ownerID
}

// TransitionTo moves the order to target and returns the previous status so
// that persistence can compare-and-set on it
func (o *Order) TransitionTo(target Status) (Status, error) {
	prev := o.Status
	if prev == target {
		return prev, nil
	}
	if !prev.CanTransitionTo(target) {
		return prev, NewInvalidTransitionError(prev, target)
	}
	o.Status = target
	o.UpdatedAt = time.Now()

	switch target {
	case StatusConfirmed:
		o.AddDomainEvent(NewOrderConfirmedEvent(o))
	case StatusCancelled:
		o.AddDomainEvent(NewOrderCancelledEvent(o, prev))
	default:
		o.AddDomainEvent(NewOrderStatusChangedEvent(o, prev))
	}
	return prev, nil
}

// Confirm moves a pending order to confirmed
func (o *Order) Confirm() (Status, error) {
	return o.TransitionTo(StatusConfirmed)
}

// Cancel moves a non-terminal order to cancelled
func (o *Order) Cancel() (Status, error) {
	return o.TransitionTo(StatusCancelled)
}
