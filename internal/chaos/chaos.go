// Package chaos implements the per-vendor fault-injection state machine.
// Faults are self-inflicted by the vendor under test and cleared through
// the fix-code challenge embedded in every report URL.
package chaos

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"pizzafactory/internal/models"
	"pizzafactory/internal/store"
)

// BadJWT is the canned token returned under badjwt chaos: token-shaped,
// cryptographically garbage, and stable so client tests can assert on it.
const BadJWT = "deadxe6MTcb33f3ODgzOTgsImV4cCI6MTcxNzg3NDc5OCwiaXNzIjoiY3MzMjkuY2xpY2siLCJhbGciOiJSUzI1NiIsImtpZCI6IjE0bk5YT21jaWt6emlWZWNIcWE1UmMzOENPM1BVSmJuT2MzazJJdEtDZlEifQ.eyJ2ZW5kb3IiOnsiaWQiOiJ0YWNvTGVlIiwibmFtZSI6IlRlc3QgdmVuZG9yIiwiY2hhb3MiOiJ0aHJvdHRsZSJ9LCJkaW5lciI6eyJpZCI6MSwibmFtZSI6IuW4uOeUqOWQjeWtlyIsImVtYWlsIjoiYUBqd3QuY29tIn0sIm9yZGVyIjp7ImZyYW5jaGlzZUlkIjoxLCJzdG9yZUlkIjoxLCJpdGVtcyI6W3sibWVudUlkIjoxLCJkZXNjcmlwdGlvbiI6IlZlZ2dpZSIsInByaWNlIjowLjA1fV0sImlkIjoyMTI2fX0.uFu8dJZ7hpW-XiHTatzFqERAdjRBVKuHFr1ZzrvqBGXO6YN5ZG_QDeEttjJrGmUxTCwuNtoar-O1ccWQl5_bbdKSgHROdam8Wcz3kgj-TiV4EWDJMOxkNFBqTKWlXmzYgZeazDwpxImE1MfjV3oXHpkaM9_lStnT2Cgw1GDwz5MG5zXtGvQWp_8vfXt2cSccrX7ph8Eqm-7vW7dbZ-auUciO-qmUoEE_lbBhlcWjrajp0rzn-ZvDH4GjyG4liDrVpoafVqwdSASbBO-t1l_xc2YDCdLBvtCFhf6ZafM6IOOP1xCFigsV6LXY0g3nPfVmBsnEE9p935cCrNwk650B5HhwlzlGZEaNxFhe5s1P-cSNJ-panpLTRwg9b-To0MV2qHJcWARA3Z8B-v2dm73aXoEaATGAiPC3-W1MuMsX3hJDcge8hIsp91xC0-9aOrAOmCSv-zSykTtq6YoG95XRRB87Wq8nD7Ykm1JNC27pv0QFWXkkVvXHUTNcJcUE3VeVesLPks2AfInulzbArbNsYnoAqdr42x4Hw3Y54dy1FFLf1JObAqwD6cZR57Q7zOwLX7AwK8S3hMOMTlwWz1sajXD7umCxVORZ3Gl6B1ubEt66u394Ws9g76FA_2AR5-PdJgf6zBDnXxe81lBCrHjvN7RM4N6iIzPhcTfvTqbeef4"

// ValidType reports whether typ is one of the three injectable faults.
func ValidType(typ string) bool {
	switch typ {
	case models.ChaosBadJWT, models.ChaosThrottle, models.ChaosFail:
		return true
	}
	return false
}

// Outcome is the issuance-path decision for a vendor with active chaos.
type Outcome struct {
	Type      string
	ReportURL string
}

// Result of a fix-code resolution attempt.
type Result int

const (
	Resolved Result = iota
	NotResolved
	NoChaos
	UnknownVendor
)

type Engine struct {
	store      store.Store
	delay      time.Duration
	factoryURL string
}

func NewEngine(s store.Store, delay time.Duration, factoryURL string) *Engine {
	return &Engine{store: s, delay: delay, factoryURL: strings.TrimSuffix(factoryURL, "/")}
}

// Decide inspects the vendor's chaos state on an issuance call. A nil
// outcome means pass through to normal issuance.
func (e *Engine) Decide(v *models.Vendor, apiKey string) *Outcome {
	if v.Chaos == nil || v.Chaos.Type == models.ChaosNone || v.Chaos.FixCode == nil {
		return nil
	}
	return &Outcome{
		Type:      v.Chaos.Type,
		ReportURL: e.reportURL(apiKey, *v.Chaos.FixCode),
	}
}

// Wait sleeps for the configured delay, aborting early if the caller's
// transport goes away. Only the in-flight call blocks.
func (e *Engine) Wait(ctx context.Context) error {
	t := time.NewTimer(e.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Initiate (re)arms a fault for the vendor with a fresh single-use fix code.
func (e *Engine) Initiate(ctx context.Context, vendorID, typ string) error {
	if !ValidType(typ) {
		return fmt.Errorf("invalid chaos type %q", typ)
	}
	fix := NewFixCode()
	return e.store.SetChaos(ctx, &models.Chaos{
		VendorID:    vendorID,
		Type:        typ,
		FixCode:     &fix,
		InitiatedAt: time.Now(),
		FixedAt:     nil,
	})
}

// Resolve runs the challenge-response: a matching code clears the fault
// exactly once; a stale or wrong code changes nothing.
func (e *Engine) Resolve(ctx context.Context, vendorToken, fixCode string) (Result, error) {
	v, err := e.store.VendorByAPIKey(ctx, vendorToken)
	if err == store.ErrNotFound {
		return UnknownVendor, nil
	}
	if err != nil {
		return NotResolved, err
	}
	switch err := e.store.ClearChaos(ctx, v.ID, fixCode); err {
	case nil:
		return Resolved, nil
	case store.ErrNoChaos:
		return NoChaos, nil
	case store.ErrCodeMismatch:
		return NotResolved, nil
	default:
		return NotResolved, err
	}
}

func (e *Engine) reportURL(apiKey, fixCode string) string {
	return fmt.Sprintf("%s/api/support/%s/report/%s", e.factoryURL, apiKey, fixCode)
}

// NewFixCode returns a short opaque challenge string.
func NewFixCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}
