// Package resolve sequences the owner-data cascade: store lookup, side-file
// fallback, property provider, people-search provider. Later states only
// fill fields the earlier states left empty, and loss of any single source
// never aborts the resolution.
package resolve

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/address"
	"github.com/propscan/ownerdata/internal/contact"
	"github.com/propscan/ownerdata/internal/fallback"
	"github.com/propscan/ownerdata/internal/model"
	"github.com/propscan/ownerdata/internal/store"
	"github.com/propscan/ownerdata/pkg/peoplesearch"
	"github.com/propscan/ownerdata/pkg/propertydata"
)

// Validation failures abort the resolution before the cascade runs; they
// are the only hard errors Resolve returns.
var (
	ErrMissingAddress      = eris.New("resolve: address is required")
	ErrUnknownPlatform     = eris.New("resolve: unknown source platform")
	ErrUnsplittableAddress = eris.New("resolve: address cannot be split into street and city/state parts")
)

// PropertyClient is the property-data provider surface the resolver needs.
type PropertyClient interface {
	Lookup(ctx context.Context, address1, address2 string) (*propertydata.Result, error)
}

// PeopleClient is the people-search provider surface the resolver needs.
type PeopleClient interface {
	Lookup(ctx context.Context, ownerName, mailingAddress string) (*peoplesearch.Result, error)
}

// Result carries the assembled enrichment plus the provider context the
// HTTP layer needs: NoResults marks the property provider's explicit
// zero-results answer, ProviderResponse carries its raw body for that
// case, and ProviderErr holds a provider failure to surface only when the
// cascade produced nothing at all.
type Result struct {
	Enrichment       model.EnrichmentResult
	NoResults        bool
	ProviderResponse json.RawMessage
	ProviderErr      error
}

// Resolver runs the cascade. Safe for concurrent use; the only shared
// mutable state is the store row patched during write-back, where last
// write wins.
type Resolver struct {
	store        store.ListingStore
	files        *fallback.Cache
	property     PropertyClient
	people       PeopleClient
	anchorCities []string

	writebackTimeout time.Duration
	syncWriteback    bool
	wg               sync.WaitGroup
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithAnchorCities overrides the last-resort city keywords for splitting.
func WithAnchorCities(cities []string) Option {
	return func(r *Resolver) {
		if len(cities) > 0 {
			r.anchorCities = cities
		}
	}
}

// WithWritebackTimeout bounds the background write-back.
func WithWritebackTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.writebackTimeout = d }
}

// WithSynchronousWriteback makes Resolve wait for the write-back before
// returning. One-shot CLI runs use this so the process doesn't exit with
// the patch still in flight; the server keeps the default fire-and-forget.
func WithSynchronousWriteback() Option {
	return func(r *Resolver) { r.syncWriteback = true }
}

// New creates a Resolver. The side-file cache and either provider may be
// nil, disabling that cascade state.
func New(st store.ListingStore, files *fallback.Cache, property PropertyClient, people PeopleClient, opts ...Option) *Resolver {
	r := &Resolver{
		store:            st,
		files:            files,
		property:         property,
		people:           people,
		anchorCities:     address.DefaultAnchorCities,
		writebackTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Wait blocks until all in-flight write-backs finish. Called on shutdown.
func (r *Resolver) Wait() {
	r.wg.Wait()
}

// resolution is the per-request working state of the cascade.
type resolution struct {
	query      model.AddressQuery
	platform   model.Platform
	split      address.ProviderAddress
	normalized address.Normalized

	ownerName      string
	mailingAddress string
	emails         []string
	phones         []string

	ownerSource   model.Source
	mailingSource model.Source

	matched *model.ListingRecord

	noResults   bool
	providerRaw json.RawMessage
	providerErr error
}

// Resolve runs the full cascade for one address query.
func (r *Resolver) Resolve(ctx context.Context, query model.AddressQuery) (*Result, error) {
	if query.Address == "" {
		return nil, ErrMissingAddress
	}
	platform := query.Source
	if platform == "" {
		platform = model.PlatformAddresses
	}
	if !platform.Valid() {
		return nil, eris.Wrapf(ErrUnknownPlatform, "%q", query.Source)
	}

	split := address.SplitForProvider(query.Address, r.anchorCities...)
	if split.Address2 == "" {
		return nil, eris.Wrapf(ErrUnsplittableAddress, "%q", query.Address)
	}

	st := &resolution{
		query:      query,
		platform:   platform,
		split:      split,
		normalized: address.NormalizeForMatching(query.Address),
		emails:     []string{},
		phones:     []string{},
	}

	r.lookupStore(ctx, st)
	r.lookupFile(ctx, st)
	r.lookupProperty(ctx, st)
	r.lookupPeople(ctx, st)
	r.startWriteback(st)

	return st.result(), nil
}

// lookupStore is cascade state 1: exact link match first, fuzzy address
// match otherwise. A link hit is authoritative.
func (r *Resolver) lookupStore(ctx context.Context, st *resolution) {
	adapter := store.NewAdapter(r.store, st.platform)

	var rec *model.ListingRecord
	var err error
	if st.query.ListingLink != "" {
		rec, err = adapter.FindByLink(ctx, st.query.ListingLink)
		if err != nil {
			zap.L().Warn("store link lookup failed", zap.String("platform", string(st.platform)), zap.Error(err))
		}
	}
	if rec == nil {
		rec, err = adapter.FindByFuzzyAddress(ctx, st.normalized)
		if err != nil {
			zap.L().Warn("store fuzzy lookup failed", zap.String("platform", string(st.platform)), zap.Error(err))
			return
		}
	}
	if rec == nil {
		return
	}

	st.matched = rec
	if rec.OwnerName != "" {
		st.ownerName = rec.OwnerName
		st.ownerSource = model.SourceStore
	}
	if rec.MailingAddress != "" {
		st.mailingAddress = rec.MailingAddress
		st.mailingSource = model.SourceStore
	}
	st.emails = contact.ParseEmails(rec.EmailRaw)
	st.phones = contact.ParsePhones(rec.PhoneRaw)
}

// lookupFile is cascade state 2, entered only while the mailing address is
// still missing. A side-file failure is logged and skipped, not fatal.
func (r *Resolver) lookupFile(ctx context.Context, st *resolution) {
	if st.mailingAddress != "" || r.files == nil {
		return
	}

	entry, ok, err := r.files.Lookup(ctx, st.query.Address)
	if err != nil {
		zap.L().Warn("side-file lookup failed", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	if st.mailingAddress == "" && entry.MailingAddress != "" {
		st.mailingAddress = entry.MailingAddress
		st.mailingSource = model.SourceFile
	}
	if st.ownerName == "" && entry.OwnerName != "" {
		st.ownerName = entry.OwnerName
		st.ownerSource = model.SourceFile
	}
}

// lookupProperty is cascade state 3, entered only while owner name or
// mailing address is missing. Provider failures are remembered for the
// HTTP layer but never abort the cascade.
func (r *Resolver) lookupProperty(ctx context.Context, st *resolution) {
	if (st.ownerName != "" && st.mailingAddress != "") || r.property == nil {
		return
	}

	res, err := r.property.Lookup(ctx, st.split.Address1, st.split.Address2)
	if err != nil {
		zap.L().Warn("property provider lookup failed", zap.Error(err))
		st.providerErr = err
		return
	}

	st.providerRaw = res.Raw
	if !res.Found {
		st.noResults = true
		return
	}
	if st.ownerName == "" && res.OwnerName != "" {
		st.ownerName = res.OwnerName
		st.ownerSource = model.SourcePropertyProvider
	}
	if st.mailingAddress == "" && res.MailingAddress != "" {
		st.mailingAddress = res.MailingAddress
		st.mailingSource = model.SourcePropertyProvider
	}
}

// lookupPeople is cascade state 4, entered only when no contact point was
// found and an owner name is known. The provider wants a mailing address
// too; when none was found the property address stands in, which keeps
// contact lookup possible on a zero-results property answer.
func (r *Resolver) lookupPeople(ctx context.Context, st *resolution) {
	if len(st.emails) > 0 || len(st.phones) > 0 {
		return
	}
	if st.ownerName == "" || r.people == nil {
		return
	}

	addr := st.mailingAddress
	if addr == "" {
		addr = st.query.Address
	}
	res, err := r.people.Lookup(ctx, st.ownerName, addr)
	if err != nil {
		zap.L().Warn("people search lookup failed", zap.Error(err))
		return
	}
	if !res.Found {
		return
	}
	st.emails = contact.ParseEmails(res.Emails)
	st.phones = contact.ParsePhones(res.Phones)
}

// result assembles the terminal EnrichmentResult. sourceUsed records the
// last cascade state that contributed owner identity, or none.
func (st *resolution) result() *Result {
	source := laterSource(st.ownerSource, st.mailingSource)
	if source == "" {
		source = model.SourceNone
		if len(st.emails) > 0 || len(st.phones) > 0 {
			source = model.SourcePeopleSearch
		}
	}

	return &Result{
		Enrichment: model.EnrichmentResult{
			OwnerName:       st.ownerName,
			MailingAddress:  st.mailingAddress,
			Emails:          st.emails,
			Phones:          st.phones,
			PropertyAddress: st.query.Address,
			Source:          source,
		},
		NoResults:        st.noResults,
		ProviderResponse: st.providerRaw,
		ProviderErr:      st.providerErr,
	}
}

var sourceOrder = map[model.Source]int{
	model.SourceStore:            1,
	model.SourceFile:             2,
	model.SourcePropertyProvider: 3,
	model.SourcePeopleSearch:     4,
}

func laterSource(a, b model.Source) model.Source {
	if sourceOrder[b] > sourceOrder[a] {
		return b
	}
	return a
}
