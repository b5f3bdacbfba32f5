package store

import (
	"context"

	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/address"
	"github.com/propscan/ownerdata/internal/match"
	"github.com/propscan/ownerdata/internal/model"
)

// Adapter exposes the two lookup operations of one platform's table. It
// pairs the raw store with in-memory fuzzy scoring: the store's substring
// pre-filter only bounds the candidate set, scoring decides the match.
type Adapter struct {
	store    ListingStore
	platform model.Platform
}

// NewAdapter binds a store to a platform.
func NewAdapter(store ListingStore, platform model.Platform) *Adapter {
	return &Adapter{store: store, platform: platform}
}

// Platform returns the platform this adapter serves.
func (a *Adapter) Platform() model.Platform { return a.platform }

// FindByLink returns the exact-link row, or nil when absent. An exact link
// hit is authoritative and callers skip fuzzy matching entirely.
func (a *Adapter) FindByLink(ctx context.Context, link string) (*model.ListingRecord, error) {
	return a.store.FindByLink(ctx, a.platform, link)
}

// FindByFuzzyAddress scores the platform's rows against the query and
// returns the best qualifying row, or nil when none qualifies. A query
// without a street number never fuzzy-matches.
func (a *Adapter) FindByFuzzyAddress(ctx context.Context, query address.Normalized) (*model.ListingRecord, error) {
	if query.StreetNumber == "" {
		return nil, nil
	}

	records, err := a.store.LoadCandidates(ctx, a.platform, query.StreetNumber)
	if err != nil {
		return nil, err
	}
	best, ok := match.Best(match.Rank(query, records))
	if !ok {
		zap.L().Debug("no qualifying fuzzy match",
			zap.String("platform", string(a.platform)),
			zap.Int("candidates", len(records)),
		)
		return nil, nil
	}

	zap.L().Debug("fuzzy match selected",
		zap.String("platform", string(a.platform)),
		zap.String("record_id", best.Record.ID),
		zap.Int("score", best.Score),
	)
	rec := best.Record
	return &rec, nil
}

// UpdateOwner patches the row; see ListingStore.UpdateOwner.
func (a *Adapter) UpdateOwner(ctx context.Context, recordID string, patch OwnerPatch) error {
	return a.store.UpdateOwner(ctx, a.platform, recordID, patch)
}
