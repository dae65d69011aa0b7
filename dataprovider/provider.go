// Package dataprovider looks up symbol metadata from external market-data
// sources. A symbol absent from a lookup result is not known to the provider.
package dataprovider

import "context"

// Item identifies a symbol at a data source
type Item struct {
	DataSource string
	Symbol     string
}

// Profile is the metadata a provider knows about a symbol
type Profile struct {
	Symbol     string `json:"symbol"`
	DataSource string `json:"data_source"`
	Currency   string `json:"currency"`
	Name       string `json:"name"`
}

// Service resolves symbol metadata for a set of items. The result is keyed
// by symbol; items the provider has no record of are simply absent.
type Service interface {
	Lookup(ctx context.Context, items []Item) (map[string]Profile, error)
}
