package formats

import (
	"os"

	"github.com/Faultbox/gwexport/pkg/rsrc"
	"github.com/Faultbox/gwexport/pkg/strtab"
)

// GWCatalog layout.
const (
	catOffsCount     = 0x20
	catOffsEntries   = 0x24
	CatalogEntrySize = 8
)

// CatalogEntry is one listed resource file.
type CatalogEntry struct {
	Name string
	Kind Kind
}

// Catalog accumulates produced resource names. It is written once, after all resources.
type Catalog struct {
	entries []CatalogEntry
	strs    *strtab.Table
}

// NewCatalog returns an empty catalog. Options other than the encoder are ignored.
func NewCatalog(opts ...Option) *Catalog {
	return &Catalog{strs: buildOptions(opts).table()}
}

// Add records a resource file name with its kind.
func (c *Catalog) Add(name string, kind Kind) {
	c.strs.Add(name)
	c.entries = append(c.entries, CatalogEntry{Name: name, Kind: kind})
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns the recorded entries in insertion order.
func (c *Catalog) Entries() []CatalogEntry {
	return c.entries
}

// Bytes serializes the catalog.
func (c *Catalog) Bytes() ([]byte, error) {
	w := rsrc.NewWriter()
	w.WriteHeader("GWCatalog", CatalogVersion)
	w.U32(0) // file size
	w.U32(0) // strings
	w.U32(uint32(c.strs.Len()))
	w.I32(int32(len(c.entries)))
	for _, e := range c.entries {
		offs, _ := c.strs.Lookup(e.Name)
		w.I32(int32(e.Kind))
		w.I32(int32(offs))
	}
	return w.Finish(c.strs.Bytes())
}

// Save writes the catalog to path. An empty catalog writes nothing and returns nil.
func (c *Catalog) Save(path string) error {
	if len(c.entries) == 0 {
		return nil
	}
	data, err := c.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
