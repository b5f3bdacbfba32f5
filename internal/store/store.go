// Package store reads and patches listing rows across the per-platform
// tables. Column layouts differ per platform; a Schemas mapping supplies
// the names and the SQL is built from it. Contact columns are selected as
// text so the contact parser can deal with whatever shape the platform
// stored (JSON array, delimited text, scalar, bare number).
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/propscan/ownerdata/internal/model"
)

// candidateLimit bounds a fuzzy-match candidate load. In-memory scoring is
// the source of truth; the limit only protects against runaway tables.
const candidateLimit = 5000

// OwnerPatch is the conditional write-back payload. Empty fields are left
// untouched on the row.
type OwnerPatch struct {
	OwnerName      string
	MailingAddress string
}

// IsZero reports whether the patch carries nothing to write.
func (p OwnerPatch) IsZero() bool {
	return p.OwnerName == "" && p.MailingAddress == ""
}

// AuditEntry records one write-back for traceability.
type AuditEntry struct {
	ID             uuid.UUID
	Platform       model.Platform
	RecordID       string
	OwnerName      string
	MailingAddress string
	Source         model.Source
	CreatedAt      time.Time
}

// ListingStore is the persistence boundary of the resolution engine.
// Lookups that find nothing return (nil, nil): absence is an expected
// outcome of the cascade, not an error.
type ListingStore interface {
	// FindByLink returns the platform row with an exact listing-link match,
	// or nil if the platform has no link column or no row matches.
	FindByLink(ctx context.Context, platform model.Platform, link string) (*model.ListingRecord, error)

	// LoadCandidates returns rows for in-memory fuzzy scoring. A non-empty
	// streetNumber is applied as a substring pre-filter to bound the set;
	// it is an optimization only and never excludes a scoring match that
	// contains the number.
	LoadCandidates(ctx context.Context, platform model.Platform, streetNumber string) ([]model.ListingRecord, error)

	// UpdateOwner patches owner fields on one row, last write wins.
	UpdateOwner(ctx context.Context, platform model.Platform, recordID string, patch OwnerPatch) error

	// WriteAudit appends a write-back audit row.
	WriteAudit(ctx context.Context, entry AuditEntry) error

	// Migrate creates the engine-owned tables (audit log, and the listing
	// tables themselves for self-hosted setups).
	Migrate(ctx context.Context) error

	Close()
}
