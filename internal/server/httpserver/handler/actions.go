package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

type action struct {
	auth bool
	fn   func(r *http.Request, c call) (any, error)
}

func (h *Handler) registerActions() {
	h.actions = map[string]action{
		scriptapi.ActionLogin:          {fn: h.login},
		scriptapi.ActionLogout:         {auth: true, fn: h.logout},
		scriptapi.ActionGetProfile:     {auth: true, fn: h.getProfile},
		scriptapi.ActionListSuppliers:  {auth: true, fn: h.listSuppliers},
		scriptapi.ActionGetSupplier:    {auth: true, fn: h.getSupplier},
		scriptapi.ActionAddSupplier:    {auth: true, fn: h.addSupplier},
		scriptapi.ActionUpdateSupplier: {auth: true, fn: h.updateSupplier},
		scriptapi.ActionDeleteSupplier: {auth: true, fn: h.deleteSupplier},
		scriptapi.ActionGetOrders:      {auth: true, fn: h.getOrders},
	}
}

// decodePayload unmarshals raw into v. An absent payload leaves v zero.
func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return domain.ErrInvalidArgument.WithDetails("malformed payload")
	}
	return nil
}

func (h *Handler) login(r *http.Request, c call) (any, error) {
	var p scriptapi.LoginPayload
	if err := decodePayload(c.req.Payload, &p); err != nil {
		return nil, err
	}
	p.Username = strings.TrimSpace(p.Username)
	if p.Username == "" || p.Password == "" {
		return nil, domain.ErrInvalidCredentials.WithDetails("username and password are required")
	}

	profile, err := h.store.Authenticate(p.Username, p.Password)
	if err != nil {
		h.logger.Info("login rejected", "username", p.Username, "request_id", c.req.RequestID)
		return nil, err
	}
	tok, expiresAt, err := h.tokens.Issue(profile.Username)
	if err != nil {
		return nil, err
	}
	h.logger.Info("login", "username", profile.Username, "expires_at", expiresAt)
	return scriptapi.LoginResult{Token: tok, Username: profile.Username, ExpiresAt: expiresAt}, nil
}

func (h *Handler) logout(r *http.Request, c call) (any, error) {
	h.tokens.Revoke(c.token)
	h.logger.Info("logout", "username", c.username)
	return nil, nil
}

func (h *Handler) getProfile(r *http.Request, c call) (any, error) {
	p, _ := h.store.Profile(c.username)
	return p, nil
}

func (h *Handler) listSuppliers(r *http.Request, c call) (any, error) {
	var q scriptapi.SupplierQuery
	if err := decodePayload(c.req.Payload, &q); err != nil {
		return nil, err
	}
	return h.store.ListSuppliers(q), nil
}

func supplierID(c call) (string, error) {
	var p scriptapi.IDPayload
	if err := decodePayload(c.req.Payload, &p); err != nil {
		return "", err
	}
	if p.ID == "" {
		return "", domain.ErrInvalidArgument.WithDetails("id is required")
	}
	return p.ID, nil
}

func (h *Handler) getSupplier(r *http.Request, c call) (any, error) {
	id, err := supplierID(c)
	if err != nil {
		return nil, err
	}
	return h.store.GetSupplier(id)
}

func (h *Handler) addSupplier(r *http.Request, c call) (any, error) {
	var s domain.Supplier
	if err := decodePayload(c.req.Payload, &s); err != nil {
		return nil, err
	}
	return h.store.AddSupplier(s)
}

func (h *Handler) updateSupplier(r *http.Request, c call) (any, error) {
	var s domain.Supplier
	if err := decodePayload(c.req.Payload, &s); err != nil {
		return nil, err
	}
	return h.store.UpdateSupplier(s)
}

func (h *Handler) deleteSupplier(r *http.Request, c call) (any, error) {
	id, err := supplierID(c)
	if err != nil {
		return nil, err
	}
	return nil, h.store.DeleteSupplier(id)
}

func (h *Handler) getOrders(r *http.Request, c call) (any, error) {
	var q scriptapi.OrderQuery
	if err := decodePayload(c.req.Payload, &q); err != nil {
		return nil, err
	}
	return h.store.Orders(q), nil
}
