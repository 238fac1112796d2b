package fixture

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/crypto/bcrypt"

	"github.com/yndnr/supplier-portal/internal/core/domain"
	"github.com/yndnr/supplier-portal/pkg/scriptapi"
)

// dummyHash is compared against when the username is unknown, so both
// failure paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("supplier-portal"), bcrypt.MinCost)

type account struct {
	hash    []byte
	profile domain.Profile
}

type state struct {
	maintenance bool
	users       map[string]account
	suppliers   map[string]domain.Supplier
	orders      []domain.Order
}

// Store serves a Dataset.
type Store struct {
	mu   sync.RWMutex
	st   *state
	cost int
	now  func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithBcryptCost sets the cost used to hash plain fixture passwords.
func WithBcryptCost(cost int) Option {
	return func(s *Store) {
		s.cost = cost
	}
}

// WithClock overrides the time source for record timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New builds a Store from ds.
func New(ds *Dataset, opts ...Option) (*Store, error) {
	s := &Store{
		cost: bcrypt.DefaultCost,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.Replace(ds); err != nil {
		return nil, err
	}
	return s, nil
}

// Replace swaps in ds. On error the current dataset is kept.
func (s *Store) Replace(ds *Dataset) error {
	st, err := s.build(ds)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.st = st
	s.mu.Unlock()
	return nil
}

func (s *Store) build(ds *Dataset) (*state, error) {
	st := &state{
		maintenance: ds.Maintenance,
		users:       make(map[string]account, len(ds.Users)),
		suppliers:   make(map[string]domain.Supplier, len(ds.Suppliers)),
	}

	for i, u := range ds.Users {
		if u.Username == "" {
			return nil, fmt.Errorf("users[%d]: username is required", i)
		}
		if _, dup := st.users[u.Username]; dup {
			return nil, fmt.Errorf("users[%d]: duplicate username %q", i, u.Username)
		}
		var hash []byte
		switch {
		case u.PasswordHash != "":
			if _, err := bcrypt.Cost([]byte(u.PasswordHash)); err != nil {
				return nil, fmt.Errorf("users[%d]: password_hash: %w", i, err)
			}
			hash = []byte(u.PasswordHash)
		case u.Password != "":
			h, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.cost)
			if err != nil {
				return nil, fmt.Errorf("users[%d]: %w", i, err)
			}
			hash = h
		default:
			return nil, fmt.Errorf("users[%d]: password or password_hash is required", i)
		}
		p := domain.Profile{Username: u.Username, DisplayName: u.DisplayName, Role: u.Role}
		if p.DisplayName == "" {
			p.DisplayName = u.Username
		}
		st.users[u.Username] = account{hash: hash, profile: p}
	}

	for i, sup := range ds.Suppliers {
		if err := sup.Validate(); err != nil {
			return nil, fmt.Errorf("suppliers[%d]: %w", i, err)
		}
		if sup.ID == "" {
			sup.ID = ulid.Make().String()
		}
		if sup.Status == "" {
			sup.Status = domain.SupplierActive
		}
		if sup.CreatedAt.IsZero() {
			sup.CreatedAt = s.now().UTC()
		}
		if _, dup := st.suppliers[sup.ID]; dup {
			return nil, fmt.Errorf("suppliers[%d]: duplicate id %q", i, sup.ID)
		}
		st.suppliers[sup.ID] = sup
	}

	for i, o := range ds.Orders {
		if _, ok := st.suppliers[o.SupplierID]; !ok {
			return nil, fmt.Errorf("orders[%d]: unknown supplier %q", i, o.SupplierID)
		}
		if o.ID == "" {
			o.ID = ulid.Make().String()
		}
		if o.Status == "" {
			o.Status = domain.OrderPending
		}
		st.orders = append(st.orders, o)
	}
	sort.SliceStable(st.orders, func(i, j int) bool {
		return st.orders[i].OrderedAt.Before(st.orders[j].OrderedAt)
	})
	return st, nil
}

// Maintenance reports whether the dataset asks for maintenance mode.
func (s *Store) Maintenance() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.st.maintenance
}

// Authenticate checks a username and password.
func (s *Store) Authenticate(username, password string) (domain.Profile, error) {
	s.mu.RLock()
	acct, ok := s.st.users[username]
	s.mu.RUnlock()

	hash := acct.hash
	if !ok {
		hash = dummyHash
	}
	if err := bcrypt.CompareHashAndPassword(hash, []byte(password)); err != nil || !ok {
		return domain.Profile{}, domain.ErrInvalidCredentials
	}
	return acct.profile, nil
}

// Profile returns the profile of a known user.
func (s *Store) Profile(username string) (domain.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acct, ok := s.st.users[username]
	return acct.profile, ok
}

// ListSuppliers returns suppliers matching q, ordered by creation time.
// Search matches name, contact or email case-insensitively.
func (s *Store) ListSuppliers(q scriptapi.SupplierQuery) []domain.Supplier {
	search := strings.ToLower(strings.TrimSpace(q.Search))

	s.mu.RLock()
	out := make([]domain.Supplier, 0, len(s.st.suppliers))
	for _, sup := range s.st.suppliers {
		if q.Status != "" && sup.Status != q.Status {
			continue
		}
		if search != "" && !matches(search, sup.Name, sup.Contact, sup.Email) {
			continue
		}
		out = append(out, sup)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func matches(search string, fields ...string) bool {
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), search) {
			return true
		}
	}
	return false
}

// GetSupplier returns one supplier.
func (s *Store) GetSupplier(id string) (domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sup, ok := s.st.suppliers[id]
	if !ok {
		return domain.Supplier{}, domain.ErrNotFound.WithDetails("supplier " + id)
	}
	return sup, nil
}

// AddSupplier validates sup, assigns an id and stores it.
func (s *Store) AddSupplier(sup domain.Supplier) (domain.Supplier, error) {
	if err := sup.Validate(); err != nil {
		return domain.Supplier{}, err
	}
	sup.ID = ulid.Make().String()
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Status == "" {
		sup.Status = domain.SupplierActive
	}
	sup.CreatedAt = s.now().UTC()
	sup.UpdatedAt = time.Time{}

	s.mu.Lock()
	s.st.suppliers[sup.ID] = sup
	s.mu.Unlock()
	return sup, nil
}

// UpdateSupplier replaces the editable fields of an existing supplier.
func (s *Store) UpdateSupplier(sup domain.Supplier) (domain.Supplier, error) {
	if sup.ID == "" {
		return domain.Supplier{}, domain.ErrInvalidArgument.WithDetails("supplier id is required")
	}
	if err := sup.Validate(); err != nil {
		return domain.Supplier{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.st.suppliers[sup.ID]
	if !ok {
		return domain.Supplier{}, domain.ErrNotFound.WithDetails("supplier " + sup.ID)
	}
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Status == "" {
		sup.Status = cur.Status
	}
	sup.CreatedAt = cur.CreatedAt
	sup.UpdatedAt = s.now().UTC()
	s.st.suppliers[sup.ID] = sup
	return sup, nil
}

// DeleteSupplier removes a supplier and its orders.
func (s *Store) DeleteSupplier(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.st.suppliers[id]; !ok {
		return domain.ErrNotFound.WithDetails("supplier " + id)
	}
	delete(s.st.suppliers, id)

	kept := s.st.orders[:0:0]
	for _, o := range s.st.orders {
		if o.SupplierID != id {
			kept = append(kept, o)
		}
	}
	s.st.orders = kept
	return nil
}

// Orders returns orders matching q, oldest first.
func (s *Store) Orders(q scriptapi.OrderQuery) []domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Order, 0, len(s.st.orders))
	for _, o := range s.st.orders {
		if q.SupplierID != "" && o.SupplierID != q.SupplierID {
			continue
		}
		if q.Status != "" && o.Status != q.Status {
			continue
		}
		out = append(out, o)
	}
	return out
}
