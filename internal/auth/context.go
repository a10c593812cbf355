package auth

import (
	"context"

	"pizzafactory/internal/models"
)

type ctxKey string

const (
	vendorKey ctxKey = "vendorPrincipal"
)

// Principal is the resolved caller of an authenticated request: the vendor
// record plus the raw bearer credential used to find it. It is threaded
// through the request context by VendorAuth.
type Principal struct {
	Vendor *models.Vendor
	APIKey string
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, vendorKey, p)
}

func FromContext(ctx context.Context) Principal {
	if v, ok := ctx.Value(vendorKey).(Principal); ok {
		return v
	}
	return Principal{}
}
