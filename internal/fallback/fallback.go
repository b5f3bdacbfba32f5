// Package fallback serves owner data out of a delimited side file, the
// last-resort lookup before the paid providers. The file is loaded once per
// process on first use and never refreshed; operators restart the service to
// pick up a new drop.
package fallback

import (
	"context"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/propscan/ownerdata/internal/address"
	"github.com/propscan/ownerdata/internal/fetcher"
)

// Entry is one side-file row worth returning.
type Entry struct {
	OwnerName      string
	MailingAddress string
}

type row struct {
	comparable string // address column, comparison form
	entry      Entry
}

// Cache lazily loads the side file and answers address lookups against it.
// Lookup is safe for concurrent use; the load happens exactly once.
type Cache struct {
	client  *fetcher.Client
	source  string
	csvOpts fetcher.CSVOptions

	once    sync.Once
	rows    []row
	loadErr error
}

// NewCache creates a Cache for the given source. Nothing is fetched until
// the first Lookup.
func NewCache(client *fetcher.Client, source string, opts fetcher.CSVOptions) *Cache {
	return &Cache{client: client, source: source, csvOpts: opts}
}

// Lookup finds the first side-file row whose address matches the query by
// normalized containment in either direction. A load failure is returned on
// every call; it is never retried within the process.
func (c *Cache) Lookup(ctx context.Context, rawAddress string) (Entry, bool, error) {
	if c.source == "" {
		return Entry{}, false, nil
	}
	if err := c.ensureLoaded(ctx); err != nil {
		return Entry{}, false, err
	}

	query := address.Comparable(rawAddress)
	if query == "" {
		return Entry{}, false, nil
	}
	for _, r := range c.rows {
		if strings.Contains(query, r.comparable) || strings.Contains(r.comparable, query) {
			return r.entry, true, nil
		}
	}
	return Entry{}, false, nil
}

func (c *Cache) ensureLoaded(ctx context.Context) error {
	c.once.Do(func() {
		c.loadErr = c.load(ctx)
		if c.loadErr != nil {
			zap.L().Error("fallback: side file load failed",
				zap.String("source", c.source),
				zap.Error(c.loadErr),
			)
		} else {
			zap.L().Info("fallback: side file loaded",
				zap.String("source", c.source),
				zap.Int("rows", len(c.rows)),
			)
		}
	})
	return c.loadErr
}

func (c *Cache) load(ctx context.Context) error {
	rc, err := c.client.Open(ctx, c.source)
	if err != nil {
		return eris.Wrap(err, "fallback: open side file")
	}
	defer rc.Close()

	header, records, err := fetcher.ReadCSV(rc, c.csvOpts)
	if err != nil {
		return eris.Wrap(err, "fallback: parse side file")
	}

	addrCol, mailCol, ownerCol := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(col) {
		case "address":
			addrCol = i
		case "mailing_address":
			mailCol = i
		case "owner_name":
			ownerCol = i
		}
	}
	if addrCol < 0 || mailCol < 0 {
		return eris.Errorf("fallback: side file missing required columns (header: %s)", strings.Join(header, ", "))
	}

	for _, rec := range records {
		if addrCol >= len(rec) {
			continue
		}
		cmp := address.Comparable(rec[addrCol])
		if cmp == "" {
			continue
		}
		e := Entry{}
		if mailCol < len(rec) {
			e.MailingAddress = rec[mailCol]
		}
		if ownerCol >= 0 && ownerCol < len(rec) {
			e.OwnerName = rec[ownerCol]
		}
		c.rows = append(c.rows, row{comparable: cmp, entry: e})
	}
	return nil
}
