package model

// AddressRecord is one row of the municipal address registry. Street and
// address strings are normalized to lowercase at load time and never mutated
// afterwards. Street names are not unique; many records share one.
type AddressRecord struct {
	StreetName   string   `json:"street_name"`
	StreetType   string   `json:"street_type"`
	FullAddress  string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	Neighborhood string   `json:"nhood,omitempty"`
}

// Registry is the fully loaded address table plus lookup indexes built once
// after the load completes.
type Registry struct {
	Records []AddressRecord

	byStreet  map[string][]int
	byAddress map[string]int
	streets   []string
}

// NewRegistry indexes the given records. Record order is preserved; the
// byAddress index keeps the first record for a duplicated full address.
func NewRegistry(records []AddressRecord) *Registry {
	r := &Registry{
		Records:   records,
		byStreet:  make(map[string][]int),
		byAddress: make(map[string]int, len(records)),
	}
	for i := range records {
		name := records[i].StreetName
		if name != "" {
			if _, seen := r.byStreet[name]; !seen {
				r.streets = append(r.streets, name)
			}
			r.byStreet[name] = append(r.byStreet[name], i)
		}
		if addr := records[i].FullAddress; addr != "" {
			if _, seen := r.byAddress[addr]; !seen {
				r.byAddress[addr] = i
			}
		}
	}
	return r
}

// StreetNames returns the distinct street names in first-seen order.
func (r *Registry) StreetNames() []string {
	return r.streets
}

// ByStreet returns the records carrying the given street name, in registry
// order.
func (r *Registry) ByStreet(name string) []AddressRecord {
	idxs := r.byStreet[name]
	if len(idxs) == 0 {
		return nil
	}
	out := make([]AddressRecord, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, r.Records[i])
	}
	return out
}

// ByAddress returns the first record whose full address equals addr exactly.
func (r *Registry) ByAddress(addr string) (AddressRecord, bool) {
	i, ok := r.byAddress[addr]
	if !ok {
		return AddressRecord{}, false
	}
	return r.Records[i], true
}

// Len returns the number of registry records.
func (r *Registry) Len() int {
	return len(r.Records)
}

// LandmarkRecord maps a landmark name to its registered street address, both
// lowercase. Scraped once from the reference listing and cached.
type LandmarkRecord struct {
	Name    string `json:"landmark_name" yaml:"name"`
	Address string `json:"address" yaml:"address"`
}
