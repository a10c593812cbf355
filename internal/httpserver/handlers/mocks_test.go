package handlers_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"pizzafactory/internal/models"
	"pizzafactory/internal/store"
)

// memStore is an in-memory Store for handler tests. The single mutex makes
// ClearChaos and RequestConnection atomic, matching the transactional
// guarantees of the SQL implementation.
type memStore struct {
	mu      sync.Mutex
	vendors map[string]*models.Vendor
	roles   map[string]map[string]bool
	codes   map[string]string
	chaos   map[string]*models.Chaos
	conns   map[string]*models.Connection // vendor1 + "|" + purpose
}

func newMemStore() *memStore {
	return &memStore{
		vendors: map[string]*models.Vendor{},
		roles:   map[string]map[string]bool{},
		codes:   map[string]string{},
		chaos:   map[string]*models.Chaos{},
		conns:   map[string]*models.Connection{},
	}
}

func connKey(vendorID, purpose string) string { return vendorID + "|" + purpose }

func (m *memStore) loadVendor(id string) (*models.Vendor, error) {
	v, ok := m.vendors[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := *v
	out.Roles = nil
	names := make([]string, 0, len(m.roles[id]))
	for name := range m.roles[id] {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		out.Roles = append(out.Roles, models.Role{ID: i + 1, Name: name})
	}
	if c, ok := m.chaos[id]; ok {
		cc := *c
		out.Chaos = &cc
	}
	return &out, nil
}

func (m *memStore) CreateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.vendors[v.ID] = &cp
	return nil
}

func (m *memStore) VendorByAPIKey(_ context.Context, apiKey string) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, v := range m.vendors {
		if v.APIKey == apiKey {
			return m.loadVendor(id)
		}
	}
	return nil, store.ErrNotFound
}

func (m *memStore) VendorByID(_ context.Context, id string) (*models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadVendor(id)
}

func (m *memStore) UpdateVendor(_ context.Context, v *models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[v.ID]; !ok {
		return store.ErrNotFound
	}
	cp := *v
	cp.Roles = nil
	cp.Chaos = nil
	cp.UpdatedAt = time.Now()
	m.vendors[v.ID] = &cp
	return nil
}

func (m *memStore) ListVendors(_ context.Context) ([]models.Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.vendors))
	for id := range m.vendors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]models.Vendor, 0, len(ids))
	for _, id := range ids {
		v, _ := m.loadVendor(id)
		out = append(out, *v)
	}
	return out, nil
}

func (m *memStore) DeleteVendor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.vendors, id)
	delete(m.roles, id)
	delete(m.codes, id)
	delete(m.chaos, id)
	for key, c := range m.conns {
		if c.Vendor1 == id || (c.Vendor2 != nil && *c.Vendor2 == id) {
			delete(m.conns, key)
		}
	}
	return nil
}

func (m *memStore) AssignRole(_ context.Context, vendorID, role string, add bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.vendors[vendorID]; !ok {
		return store.ErrNotFound
	}
	if m.roles[vendorID] == nil {
		m.roles[vendorID] = map[string]bool{}
	}
	if add {
		m.roles[vendorID][role] = true
	} else {
		delete(m.roles[vendorID], role)
	}
	return nil
}

func (m *memStore) PutAuthCode(_ context.Context, vendorID, codeHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[vendorID] = codeHash
	return nil
}

func (m *memStore) AuthCodeHash(_ context.Context, vendorID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hash, ok := m.codes[vendorID]
	if !ok {
		return "", store.ErrNotFound
	}
	return hash, nil
}

func (m *memStore) DeleteAuthCode(_ context.Context, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.codes, vendorID)
	return nil
}

func (m *memStore) SetChaos(_ context.Context, c *models.Chaos) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	m.chaos[c.VendorID] = &cp
	return nil
}

func (m *memStore) ClearChaos(_ context.Context, vendorID, fixCode string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chaos[vendorID]
	if !ok || c.Type == models.ChaosNone || c.FixCode == nil {
		return store.ErrNoChaos
	}
	if *c.FixCode != fixCode {
		return store.ErrCodeMismatch
	}
	now := time.Now()
	c.Type = models.ChaosNone
	c.FixCode = nil
	c.FixedAt = &now
	return nil
}

func (m *memStore) RequestConnection(ctx context.Context, vendorID, purpose string) (*store.ConnectionView, error) {
	m.mu.Lock()
	mine, ok := m.conns[connKey(vendorID, purpose)]
	if !ok {
		mine = &models.Connection{Vendor1: vendorID, Purpose: purpose, CreatedAt: time.Now()}
		m.conns[connKey(vendorID, purpose)] = mine
	}
	if mine.Vendor2 == nil {
		var open *models.Connection
		for _, c := range m.conns {
			if c.Purpose == purpose && c.Vendor1 != vendorID && c.Vendor2 == nil {
				if open == nil || c.CreatedAt.Before(open.CreatedAt) {
					open = c
				}
			}
		}
		if open != nil {
			partner := open.Vendor1
			caller := vendorID
			open.Vendor2 = &caller
			mine.Vendor2 = &partner
		}
	}
	m.mu.Unlock()
	return m.ConnectionFor(ctx, vendorID, purpose)
}

func (m *memStore) ConnectionFor(_ context.Context, vendorID, purpose string) (*store.ConnectionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connKey(vendorID, purpose)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return m.view(c), nil
}

func (m *memStore) Connections(_ context.Context, vendorID string) (map[string]store.ConnectionView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]store.ConnectionView{}
	for _, c := range m.conns {
		if c.Vendor1 == vendorID {
			out[c.Purpose] = *m.view(c)
		}
	}
	return out, nil
}

func (m *memStore) view(c *models.Connection) *store.ConnectionView {
	v := &store.ConnectionView{Purpose: c.Purpose, Rating: c.Rating}
	if c.Vendor2 != nil {
		if partner, ok := m.vendors[*c.Vendor2]; ok {
			v.Partner = &store.PartnerView{
				ID:      partner.ID,
				Name:    partner.Name,
				Phone:   partner.Phone,
				Email:   partner.Email,
				Website: partner.Website,
			}
		}
	}
	return v
}

func (m *memStore) RateConnection(_ context.Context, vendorID, purpose string, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.conns[connKey(vendorID, purpose)]
	if !ok || c.Vendor2 == nil {
		return store.ErrNotPaired
	}
	c.Rating = &rating
	return nil
}
