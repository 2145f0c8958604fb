package stacks

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/khanhnv2901/seca-stacks/internal/shared/constants"
)

//go:embed signatures/default.js
var defaultCatalogSource string

// CatalogBindingKey is the global name the signature bundle must bind its
// name -> test mapping to. Remote functions receive it as their first
// argument instead of hard-coding it.
const CatalogBindingKey = constants.CatalogBindingKey

// Catalog is an opaque signature bundle. Source is evaluated in the remote
// context and must assign an object of the form
//
//	{ "<library name>": { id, npmName?, icon?, url?, test(globalThis) } }
//
// to globalThis[CatalogBindingKey]. Its content is never parsed here.
type Catalog struct {
	Source string
}

// DefaultCatalog returns the bundled starter catalog.
func DefaultCatalog() Catalog {
	return Catalog{Source: defaultCatalogSource}
}

// LoadCatalog reads a signature bundle from disk.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog %s: %w", path, err)
	}
	catalog := Catalog{Source: string(data)}
	if err := catalog.Validate(); err != nil {
		return Catalog{}, fmt.Errorf("catalog %s: %w", path, err)
	}
	return catalog, nil
}

// Validate rejects bundles that cannot possibly define a catalog.
func (c Catalog) Validate() error {
	if strings.TrimSpace(c.Source) == "" {
		return fmt.Errorf("%w: empty source", ErrInvalidCatalog)
	}
	return nil
}
