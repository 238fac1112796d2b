package domain

import (
	"net/mail"
	"strings"
	"time"
)

// Supplier statuses.
const (
	SupplierActive   = "active"
	SupplierInactive = "inactive"
)

// Order statuses.
const (
	OrderPending   = "pending"
	OrderShipped   = "shipped"
	OrderDelivered = "delivered"
	OrderCancelled = "cancelled"
)

// MaxSupplierNameLength bounds supplier names.
const MaxSupplierNameLength = 200

// Supplier is a vendor managed through the portal.
type Supplier struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Contact   string    `json:"contact,omitempty" yaml:"contact,omitempty"`
	Email     string    `json:"email,omitempty" yaml:"email,omitempty"`
	Phone     string    `json:"phone,omitempty" yaml:"phone,omitempty"`
	Status    string    `json:"status" yaml:"status"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty" table:"wide"`
}

// Validate checks the supplier's user-editable fields.
func (s *Supplier) Validate() error {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return ErrInvalidArgument.WithDetails("supplier name is required")
	}
	if len(name) > MaxSupplierNameLength {
		return ErrInvalidArgument.WithDetails("supplier name too long")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			return ErrInvalidArgument.WithDetails("invalid supplier email")
		}
	}
	switch s.Status {
	case "", SupplierActive, SupplierInactive:
	default:
		return ErrInvalidArgument.WithDetails("unknown supplier status: " + s.Status)
	}
	return nil
}

// Order is a purchase order placed with a supplier.
type Order struct {
	ID         string    `json:"id" yaml:"id"`
	SupplierID string    `json:"supplier_id" yaml:"supplier_id"`
	Item       string    `json:"item" yaml:"item"`
	Quantity   int       `json:"quantity" yaml:"quantity"`
	Status     string    `json:"status" yaml:"status"`
	OrderedAt  time.Time `json:"ordered_at" yaml:"ordered_at"`
}

// Profile describes the authenticated user.
type Profile struct {
	Username    string `json:"username" yaml:"username"`
	DisplayName string `json:"display_name" yaml:"display_name"`
	Role        string `json:"role" yaml:"role"`
}
