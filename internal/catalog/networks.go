package catalog

import "github.com/hydroframe/point-obs/internal/domain"

// siteNetworks registers the named site lists recognized per
// (data_source, variable) pair. Membership itself lives in the archive under
// network_lists/<data_source>/<variable>/<network>.csv; the registry only
// says which names are valid.
var siteNetworks = map[domain.DataSource]map[domain.Variable][]string{
	domain.SourceUSGSNWIS: {
		domain.VarStreamflow: {"camels", "gagesii_reference", "gagesii", "hcdn2009"},
		domain.VarWTD:        {"climate_response_network"},
	},
}

// Networks returns the registered site network names for a
// (data_source, variable) pair, nil when the pair has none. The slice is a
// fresh copy.
func Networks(source domain.DataSource, variable domain.Variable) []string {
	names := siteNetworks[source][variable]
	if names == nil {
		return nil
	}
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// ValidNetwork reports whether name is a registered site network for the
// (data_source, variable) pair.
func ValidNetwork(source domain.DataSource, variable domain.Variable, name string) bool {
	for _, n := range siteNetworks[source][variable] {
		if n == name {
			return true
		}
	}
	return false
}
