// Package registry loads the municipal address registry that film-location
// queries resolve against.
package registry

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/reelmap/locations-cli/internal/city"
	"github.com/reelmap/locations-cli/internal/model"
	"github.com/reelmap/locations-cli/internal/socrata"
)

// sodaRow mirrors one row of the address dataset. Socrata serializes numeric
// columns as strings.
type sodaRow struct {
	Address      string `json:"address"`
	StreetName   string `json:"street_name"`
	StreetType   string `json:"street_type"`
	Latitude     string `json:"latitude"`
	Longitude    string `json:"longitude"`
	Neighborhood string `json:"analysis_neighborhood"`
}

// Loader pages the full address dataset into memory.
type Loader struct {
	client   *socrata.Client
	dataset  string
	pageSize int
	profile  *city.Profile
}

// NewLoader creates a registry loader for the given dataset.
func NewLoader(client *socrata.Client, dataset string, pageSize int, profile *city.Profile) *Loader {
	if pageSize <= 0 {
		pageSize = 5000
	}
	if profile == nil {
		profile = city.SanFrancisco()
	}
	return &Loader{
		client:   client,
		dataset:  dataset,
		pageSize: pageSize,
		profile:  profile,
	}
}

// Load fetches every page of the registry in a stable order. Any page error
// aborts the load; there is no partial registry.
func (l *Loader) Load(ctx context.Context) (*model.Registry, error) {
	log := zap.L().With(
		zap.String("component", "registry.loader"),
		zap.String("dataset", l.dataset),
	)

	total, err := l.client.Count(ctx, l.dataset)
	if err != nil {
		return nil, eris.Wrap(err, "registry: count addresses")
	}
	log.Info("address registry size", zap.Int("rows", total))

	records := make([]model.AddressRecord, 0, total)
	for offset := 0; offset < total; offset += l.pageSize {
		page, err := socrata.Rows[sodaRow](ctx, l.client, l.dataset, socrata.Query{
			Order:  "Address",
			Limit:  l.pageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, eris.Wrapf(err, "registry: page at offset %d", offset)
		}
		for _, r := range page {
			records = append(records, l.toRecord(r))
		}
		log.Debug("registry page loaded",
			zap.Int("offset", offset),
			zap.Int("rows", len(page)),
		)
	}

	log.Info("address registry loaded", zap.Int("records", len(records)))
	return model.NewRegistry(records), nil
}

func (l *Loader) toRecord(r sodaRow) model.AddressRecord {
	street := strings.ToLower(strings.TrimSpace(r.StreetName))
	street = l.profile.ApplyAliases(street)
	return model.AddressRecord{
		StreetName:   street,
		StreetType:   strings.ToLower(strings.TrimSpace(r.StreetType)),
		FullAddress:  strings.ToLower(strings.TrimSpace(r.Address)),
		Latitude:     parseCoord(r.Latitude),
		Longitude:    parseCoord(r.Longitude),
		Neighborhood: strings.TrimSpace(r.Neighborhood),
	}
}

// parseCoord returns nil for blank or malformed values rather than an error;
// bad coordinates surface later as dropped rows.
func parseCoord(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
