package orders

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Order statuses. Transitions are decided by the storefront backend; this
// package only names the values and which of them are terminal.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusShipped    = "shipped"
	StatusDelivered  = "delivered"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Payment methods accepted by the storefront.
const (
	PaymentBankTransfer = "bank_transfer"
	PaymentOnDelivery   = "payment_on_delivery"
)

// Statuses lists every known status in lifecycle order (cancelled last).
var Statuses = []string{
	StatusPending,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusCompleted,
	StatusCancelled,
}

// KnownStatus reports whether s is one of the recognized status values.
func KnownStatus(s string) bool {
	for _, st := range Statuses {
		if st == s {
			return true
		}
	}
	return false
}

// TerminalStatus reports whether s ends the order lifecycle.
func TerminalStatus(s string) bool {
	return s == StatusCompleted || s == StatusCancelled
}

// LineItem is a single purchased product line within an order.
type LineItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name,omitempty"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Category string          `json:"category,omitempty"`
	Image    string          `json:"image,omitempty"`
}

// ShippingInfo is the address and contact record attached to an order.
// Email doubles as the customer's natural key: legacy records do not reliably
// carry a user id, so lookups key off this field.
type ShippingInfo struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Address  string `json:"address,omitempty"`
	City     string `json:"city,omitempty"`
	State    string `json:"state,omitempty"`
	ZipCode  string `json:"zipCode,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Order is a placed purchase as returned by the storefront API. ID and Status
// are backend-authoritative. CreatedAt is an ISO-8601 string; the backend
// emits timestamps with and without zone info, so it is kept opaque and
// ordered lexicographically.
type Order struct {
	ID            string          `json:"id"`
	Items         []LineItem      `json:"items"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	ShippingInfo  ShippingInfo    `json:"shippingInfo"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
	PaymentProof  *string         `json:"paymentProof,omitempty"`
	Status        string          `json:"status"`
	CreatedAt     string          `json:"createdAt"`
}

// Email returns the owning customer's email, or "" for malformed records.
func (o Order) Email() string {
	return o.ShippingInfo.Email
}

// MatchesEmail reports whether the order belongs to email, compared
// case-insensitively. Records without an email never match.
func (o Order) MatchesEmail(email string) bool {
	own := o.Email()
	return own != "" && strings.EqualFold(own, email)
}
