package catalog

import (
	_ "embed"
	"fmt"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the catalog bundled with the binary. It is used when no catalog path is
// configured.
func Default() (*Catalog, error) {
	cat, err := Parse(defaultCatalog)
	if err != nil {
		return nil, fmt.Errorf("catalog: embedded default: %w", err)
	}
	return cat, nil
}
