package store

import (
	"context"
	"errors"

	"pizzafactory/internal/models"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrNoChaos      = errors.New("no chaos active")
	ErrCodeMismatch = errors.New("fix code mismatch")
	ErrNotPaired    = errors.New("connection not paired")
)

// PartnerView is the slice of a partner vendor exposed to the other side of
// a fulfilled pairing.
type PartnerView struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`
	Website string `json:"website,omitempty"`
}

// ConnectionView is a vendor's own view of a pairing request: waiting
// (Partner nil) or fulfilled.
type ConnectionView struct {
	Purpose string       `json:"purpose"`
	Partner *PartnerView `json:"partner,omitempty"`
	Rating  *int         `json:"rating,omitempty"`
}

// Store persists vendors, chaos state and pairing requests. It is the only
// synchronization point in the service; implementations must make
// ClearChaos and RequestConnection transactionally atomic.
type Store interface {
	CreateVendor(ctx context.Context, v *models.Vendor) error
	VendorByAPIKey(ctx context.Context, apiKey string) (*models.Vendor, error)
	VendorByID(ctx context.Context, id string) (*models.Vendor, error)
	UpdateVendor(ctx context.Context, v *models.Vendor) error
	ListVendors(ctx context.Context) ([]models.Vendor, error)
	// DeleteVendor cascades to auth codes, chaos, roles and connections
	// in both directions.
	DeleteVendor(ctx context.Context, id string) error
	AssignRole(ctx context.Context, vendorID, role string, add bool) error

	PutAuthCode(ctx context.Context, vendorID, codeHash string) error
	AuthCodeHash(ctx context.Context, vendorID string) (string, error)
	DeleteAuthCode(ctx context.Context, vendorID string) error

	SetChaos(ctx context.Context, c *models.Chaos) error
	// ClearChaos consumes fixCode and resets the vendor's chaos to none.
	// Returns ErrNoChaos when nothing is active, ErrCodeMismatch when the
	// code is wrong; in both cases no state changes.
	ClearChaos(ctx context.Context, vendorID, fixCode string) error

	// RequestConnection inserts a waiting row for (vendorID, purpose) if
	// absent, then searches for another waiting vendor and links both rows,
	// all inside one transaction.
	RequestConnection(ctx context.Context, vendorID, purpose string) (*ConnectionView, error)
	ConnectionFor(ctx context.Context, vendorID, purpose string) (*ConnectionView, error)
	Connections(ctx context.Context, vendorID string) (map[string]ConnectionView, error)
	// RateConnection attaches a 1-5 rating to the caller's side of a
	// fulfilled pairing. Returns ErrNotPaired while still waiting.
	RateConnection(ctx context.Context, vendorID, purpose string, rating int) error
}
