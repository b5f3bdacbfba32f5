package store

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/propscan/ownerdata/internal/model"
)

// PlatformSchema maps the engine's field concepts onto one platform's
// column layout. An empty column name means the platform has no column
// for that concept.
type PlatformSchema struct {
	Table          string `yaml:"table"`
	IDColumn       string `yaml:"id_column"`
	AddressColumn  string `yaml:"address_column"`
	LinkColumn     string `yaml:"link_column"`
	OwnerColumn    string `yaml:"owner_name_column"`
	MailingColumn  string `yaml:"mailing_address_column"`
	EmailColumn    string `yaml:"email_column"`
	PhoneColumn    string `yaml:"phone_column"`
}

// Schemas holds the column mapping for every supported platform.
type Schemas map[model.Platform]PlatformSchema

// DefaultSchemas returns the built-in layouts for the seven platform
// tables. The shapes intentionally differ: some platforms store contacts
// as JSON arrays, some as delimited text, some as a single scalar, and
// several have no owner columns at all.
func DefaultSchemas() Schemas {
	return Schemas{
		model.PlatformFSBO: {
			Table:         "fsbo_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "listing_link",
			OwnerColumn:   "owner_name",
			MailingColumn: "mailing_address",
			EmailColumn:   "emails", // JSON array
			PhoneColumn:   "phones", // JSON array
		},
		model.PlatformRedfin: {
			Table:         "redfin_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "url",
			OwnerColumn:   "owner_name",
			MailingColumn: "owner_mailing_address",
			EmailColumn:   "owner_emails", // comma/newline delimited text
			PhoneColumn:   "owner_phones",
		},
		model.PlatformTrulia: {
			Table:         "trulia_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "listing_url",
			EmailColumn:   "contact_email", // single scalar
			PhoneColumn:   "contact_phone",
		},
		model.PlatformZillowFSBO: {
			Table:         "zillow_fsbo_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "detail_url",
			OwnerColumn:   "owner_name",
			MailingColumn: "mailing_address",
			EmailColumn:   "email",
			PhoneColumn:   "phone_number", // numeric on this platform
		},
		model.PlatformZillowFRBO: {
			Table:         "zillow_frbo_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "detail_url",
			OwnerColumn:   "owner_name",
			MailingColumn: "mailing_address",
			EmailColumn:   "email",
			PhoneColumn:   "phone_number",
		},
		model.PlatformHotpads: {
			Table:         "hotpads_listings",
			IDColumn:      "id",
			AddressColumn: "address",
			LinkColumn:    "listing_url",
			PhoneColumn:   "contact_phone",
		},
		model.PlatformAddresses: {
			Table:         "addresses",
			IDColumn:      "id",
			AddressColumn: "address",
			OwnerColumn:   "owner_name",
			MailingColumn: "mailing_address",
		},
	}
}

// LoadSchemas reads platform schema overrides from a YAML file and merges
// them over the defaults. Platforms absent from the file keep their
// built-in layout; an override replaces the platform's mapping wholesale.
func LoadSchemas(path string) (Schemas, error) {
	schemas := DefaultSchemas()
	if path == "" {
		return schemas, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: read schema config %s", path)
	}

	var wrapper struct {
		Platforms map[string]PlatformSchema `yaml:"platforms"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "store: parse schema config")
	}

	for name, ps := range wrapper.Platforms {
		p := model.Platform(name)
		if !p.Valid() {
			return nil, eris.Errorf("store: schema config names unknown platform %q", name)
		}
		if ps.Table == "" || ps.IDColumn == "" || ps.AddressColumn == "" {
			return nil, eris.Errorf("store: schema for %q must set table, id_column, and address_column", name)
		}
		schemas[p] = ps
	}
	return schemas, nil
}
