package fixture

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/yndnr/supplier-portal/internal/core/domain"
)

// User is a fixture account.
type User struct {
	Username     string `yaml:"username"`
	Password     string `yaml:"password,omitempty"`
	PasswordHash string `yaml:"password_hash,omitempty"`
	DisplayName  string `yaml:"display_name,omitempty"`
	Role         string `yaml:"role,omitempty"`
}

// Dataset is the decoded fixture document.
type Dataset struct {
	// Maintenance makes every action answer SUP-SYS-5030.
	Maintenance bool              `yaml:"maintenance"`
	Users       []User            `yaml:"users"`
	Suppliers   []domain.Supplier `yaml:"suppliers"`
	Orders      []domain.Order    `yaml:"orders"`
}

// Parse decodes a fixture document. Unknown fields are rejected.
func Parse(data []byte) (*Dataset, error) {
	var ds Dataset
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return &ds, nil
}

// LoadFile reads and parses the fixture at path.
func LoadFile(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the built-in dataset: user alice with password
// "correct", three suppliers and a few orders.
func Default() *Dataset {
	created := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	acme := ulid.Make().String()
	globex := ulid.Make().String()
	initech := ulid.Make().String()

	return &Dataset{
		Users: []User{
			{Username: "alice", Password: "correct", DisplayName: "Alice Buyer", Role: "buyer"},
		},
		Suppliers: []domain.Supplier{
			{ID: acme, Name: "Acme Corp", Contact: "Wile E. Coyote", Email: "orders@acme.example",
				Phone: "+1 555 0100", Status: domain.SupplierActive, CreatedAt: created},
			{ID: globex, Name: "Globex", Contact: "Hank Scorpio", Email: "sales@globex.example",
				Status: domain.SupplierActive, CreatedAt: created.Add(24 * time.Hour)},
			{ID: initech, Name: "Initech", Contact: "Bill Lumbergh",
				Status: domain.SupplierInactive, CreatedAt: created.Add(48 * time.Hour)},
		},
		Orders: []domain.Order{
			{ID: ulid.Make().String(), SupplierID: acme, Item: "anvil", Quantity: 2,
				Status: domain.OrderShipped, OrderedAt: created.Add(72 * time.Hour)},
			{ID: ulid.Make().String(), SupplierID: acme, Item: "rocket skates", Quantity: 1,
				Status: domain.OrderPending, OrderedAt: created.Add(96 * time.Hour)},
			{ID: ulid.Make().String(), SupplierID: globex, Item: "doomsday device", Quantity: 1,
				Status: domain.OrderDelivered, OrderedAt: created.Add(120 * time.Hour)},
		},
	}
}
