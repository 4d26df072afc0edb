package cfddns

import (
	"context"
	"net/netip"
)

// Record is the subset of a provider DNS record that reconciliation cares
// about. ID is opaque and provider-assigned; everything except Content is
// round-tripped unchanged on update.
type Record struct {
	ID      string
	Type    string // "A" or "AAAA"
	Name    string
	Content string
	TTL     int
	Proxied bool
}

// Provider is the remote DNS API consumed by the reconciler.
//
// VerifyToken and ZoneID failures are configuration errors and abort the run;
// UpdateRecord and CreateRecord failures are recorded and reconciliation
// continues with the next record.
type Provider interface {
	VerifyToken(ctx context.Context) error
	ZoneID(ctx context.Context, domain string) (string, error)
	Records(ctx context.Context, zoneID, recordType string) ([]Record, error)
	UpdateRecord(ctx context.Context, zoneID string, r Record) error
	CreateRecord(ctx context.Context, zoneID string, r Record) error
}

// Resolver looks up one address of a single family.
// An invalid (zero) netip.Addr with a nil error means "nothing found",
// which callers treat as an expected state rather than a failure.
type Resolver interface {
	Resolve(ctx context.Context) (netip.Addr, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context) (netip.Addr, error)

func (f ResolverFunc) Resolve(ctx context.Context) (netip.Addr, error) { return f(ctx) }
