package service

import (
	"context"
	"strings"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// Typed wrappers over Call for the portal's actions. Each inherits Call's
// classification and session handling.

// Profile returns the authenticated user's profile.
func (c *SessionClient) Profile(ctx context.Context) (*domain.Profile, error) {
	var p domain.Profile
	if err := c.callInto(ctx, scriptapi.ActionGetProfile, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListSuppliers returns the suppliers matching q.
func (c *SessionClient) ListSuppliers(ctx context.Context, q scriptapi.SupplierQuery) ([]domain.Supplier, error) {
	var out []domain.Supplier
	if err := c.callInto(ctx, scriptapi.ActionListSuppliers, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetSupplier returns one supplier.
func (c *SessionClient) GetSupplier(ctx context.Context, id string) (*domain.Supplier, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("supplier id is required")
	}

	var s domain.Supplier
	if err := c.callInto(ctx, scriptapi.ActionGetSupplier, scriptapi.IDPayload{ID: id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// AddSupplier creates a supplier and returns it as stored by the endpoint.
func (c *SessionClient) AddSupplier(ctx context.Context, s *domain.Supplier) (*domain.Supplier, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var created domain.Supplier
	if err := c.callInto(ctx, scriptapi.ActionAddSupplier, s, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// UpdateSupplier replaces the editable fields of an existing supplier.
func (c *SessionClient) UpdateSupplier(ctx context.Context, s *domain.Supplier) (*domain.Supplier, error) {
	if strings.TrimSpace(s.ID) == "" {
		return nil, domain.ErrInvalidArgument.WithDetails("supplier id is required")
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var updated domain.Supplier
	if err := c.callInto(ctx, scriptapi.ActionUpdateSupplier, s, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteSupplier removes a supplier.
func (c *SessionClient) DeleteSupplier(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidArgument.WithDetails("supplier id is required")
	}
	_, err := c.Call(ctx, scriptapi.ActionDeleteSupplier, scriptapi.IDPayload{ID: id})
	return err
}

// GetOrders returns the orders matching q.
func (c *SessionClient) GetOrders(ctx context.Context, q scriptapi.OrderQuery) ([]domain.Order, error) {
	var out []domain.Order
	if err := c.callInto(ctx, scriptapi.ActionGetOrders, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *SessionClient) callInto(ctx context.Context, op string, payload, out any) error {
	resp, err := c.Call(ctx, op, payload)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}
