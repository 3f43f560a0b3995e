package archive

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hydroframe/point-obs/internal/domain"
)

// networkListDir holds the per-network membership lists under the archive
// root, one headerless single-column CSV of site ids per network at
// network_lists/<data_source>/<variable>/<network>.csv.
const networkListDir = "network_lists"

func networkListPath(root string, source domain.DataSource, variable domain.Variable, network string) string {
	return filepath.Join(root, networkListDir, string(source), string(variable), network+".csv")
}

// NetworkSiteIDs reads the membership list for one named site network, in
// file order. Name validity is checked against the catalog before any I/O; a
// registered network whose list file cannot be read is archive corruption and
// surfaces domain.ErrArchiveUnavailable.
func (a *Archive) NetworkSiteIDs(ctx context.Context, source domain.DataSource, variable domain.Variable, network string) ([]string, error) {
	path := networkListPath(a.root, source, variable, network)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: network list %s: %s", domain.ErrArchiveUnavailable, network, path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	var out []string
	for i := 0; ; i++ {
		if i%512 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("network list %s: row %d: %w", path, i+1, err)
		}
		if id := strings.TrimSpace(row[0]); id != "" {
			out = append(out, id)
		}
	}
	return out, nil
}
