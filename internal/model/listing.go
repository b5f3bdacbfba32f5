// Package model defines the shared data types for the owner-data resolution engine.
package model

// Platform identifies which listing-source schema a record belongs to.
type Platform string

const (
	PlatformFSBO       Platform = "fsbo"
	PlatformRedfin     Platform = "redfin"
	PlatformTrulia     Platform = "trulia"
	PlatformZillowFSBO Platform = "zillow_fsbo"
	PlatformZillowFRBO Platform = "zillow_frbo"
	PlatformHotpads    Platform = "hotpads"
	PlatformAddresses  Platform = "addresses"
)

// KnownPlatforms lists every platform with a store schema, in a stable order.
var KnownPlatforms = []Platform{
	PlatformFSBO,
	PlatformRedfin,
	PlatformTrulia,
	PlatformZillowFSBO,
	PlatformZillowFRBO,
	PlatformHotpads,
	PlatformAddresses,
}

// Valid reports whether p names a supported platform.
func (p Platform) Valid() bool {
	for _, k := range KnownPlatforms {
		if p == k {
			return true
		}
	}
	return false
}

// AddressQuery is the immutable input to a single resolution.
type AddressQuery struct {
	Address     string   `json:"address"`
	ListingLink string   `json:"listing_link,omitempty"`
	Source      Platform `json:"source,omitempty"`
}

// ListingRecord is one row from one platform's store. Field availability
// varies per platform: columns the platform doesn't have stay zero-valued.
// EmailRaw and PhoneRaw carry the stored representation untouched (JSON
// array text, delimited text, a single scalar, or a bare number) — the
// contact parser owns turning them into clean lists.
type ListingRecord struct {
	ID             string   `json:"id"`
	Platform       Platform `json:"platform"`
	Address        string   `json:"address"`
	ListingLink    string   `json:"listing_link,omitempty"`
	OwnerName      string   `json:"owner_name,omitempty"`
	MailingAddress string   `json:"mailing_address,omitempty"`
	EmailRaw       any      `json:"email_raw,omitempty"`
	PhoneRaw       any      `json:"phone_raw,omitempty"`
}

// Source identifies which cascade state contributed owner data.
type Source string

const (
	SourceStore            Source = "store"
	SourceFile             Source = "file"
	SourcePropertyProvider Source = "property_provider"
	SourcePeopleSearch     Source = "people_search"
	SourceNone             Source = "none"
)

// EnrichmentResult is the terminal output of one resolution. Emails and
// Phones are always non-nil, de-duplicated, and free of sentinel values.
type EnrichmentResult struct {
	OwnerName       string   `json:"owner_name,omitempty"`
	MailingAddress  string   `json:"mailing_address,omitempty"`
	Emails          []string `json:"emails"`
	Phones          []string `json:"phones"`
	PropertyAddress string   `json:"property_address"`
	Source          Source   `json:"source"`
}

// HasOwnerData reports whether any owner identity was found.
func (r *EnrichmentResult) HasOwnerData() bool {
	return r.OwnerName != "" || r.MailingAddress != ""
}

// HasContact reports whether any contact point was found.
func (r *EnrichmentResult) HasContact() bool {
	return len(r.Emails) > 0 || len(r.Phones) > 0
}
